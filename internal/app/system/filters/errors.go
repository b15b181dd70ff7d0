// internal/app/system/filters/errors.go
package filters

import (
	"errors"
	"fmt"
)

// ValidationError reports a parameter or body field whose value does not
// fit its declared kind or allowed set.
type ValidationError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Param, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Invalid returns a *ValidationError for param.
func Invalid(param, value, reason string) error {
	return &ValidationError{Param: param, Value: value, Reason: reason}
}
