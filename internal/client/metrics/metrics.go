// Package metrics reports client events through OpenTelemetry.
package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sink records named events.
type Sink interface {
	// LogEventOnce records name the first time it is seen and ignores
	// repeats.
	LogEventOnce(ctx context.Context, name string)
}

// Recorder is a Sink backed by an OpenTelemetry counter.
type Recorder struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	counter metric.Int64Counter
	logger  logging.Logger
}

func NewRecorder(meter metric.Meter, logger logging.Logger) (*Recorder, error) {
	counter, err := meter.Int64Counter(
		"accountkeeper.events",
		metric.WithDescription("Client events, counted once per process"),
	)
	if err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recorder{
		seen:    make(map[string]struct{}),
		counter: counter,
		logger:  logger,
	}, nil
}

func (r *Recorder) LogEventOnce(ctx context.Context, name string) {
	r.mu.Lock()
	if _, ok := r.seen[name]; ok {
		r.mu.Unlock()
		return
	}
	r.seen[name] = struct{}{}
	r.mu.Unlock()

	r.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
	r.logger.Debug(ctx, "event", "name", name)
}

// Logged reports whether name has been recorded.
func (r *Recorder) Logged(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[name]
	return ok
}
