package common

import (
	"errors"
	"fmt"
)

// MarketingEmailError wraps a failure of the newsletter subscription that
// follows a successful sign-up verification. The sign-up itself stands.
type MarketingEmailError struct {
	NewsletterID string
	Err          error
}

// Error implements the error interface.
func (e *MarketingEmailError) Error() string {
	if e == nil {
		return "marketing email error"
	}
	return fmt.Sprintf("marketing email error (%s): %v", e.NewsletterID, e.Err)
}

// Unwrap returns the underlying error.
func (e *MarketingEmailError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsMarketingEmailError reports whether err carries a MarketingEmailError.
func IsMarketingEmailError(err error) bool {
	var me *MarketingEmailError
	return errors.As(err, &me)
}
