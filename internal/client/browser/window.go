// Package browser models the environment the account store runs in: the
// location it was opened with and a clock.
package browser

import (
	"fmt"
	"net/url"
	"time"
)

// SearchParamReader reads query parameters of the current location.
type SearchParamReader interface {
	SearchParam(name string) string
}

// Environment is what the account store needs from its surroundings.
type Environment interface {
	SearchParamReader
	Now() time.Time
}

type Window struct {
	location *url.URL
	now      func() time.Time
}

// NewWindow parses rawURL as the current location. An empty rawURL yields a
// window without query parameters.
func NewWindow(rawURL string) (*Window, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	return &Window{location: u, now: time.Now}, nil
}

// WithClock returns a copy of w that reads time from now.
func (w *Window) WithClock(now func() time.Time) *Window {
	cp := *w
	cp.now = now
	return &cp
}

func (w *Window) SearchParam(name string) string {
	if w.location == nil {
		return ""
	}
	return w.location.Query().Get(name)
}

func (w *Window) Now() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}

// Location returns the current location as a string.
func (w *Window) Location() string {
	if w.location == nil {
		return ""
	}
	return w.location.String()
}
