// internal/app/system/inputval/inputval.go
//
// Package inputval holds the field checks stores run before writing. Every
// check returns a *filters.ValidationError so handlers report body and
// query problems the same way.
package inputval

import (
	"strconv"
	"strings"

	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/dalemusser/waffle/pantry/validate"
)

// IsValidEmail reports whether s looks like a deliverable address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// Required fails when v is blank.
func Required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return filters.Invalid(field, v, "is required")
	}
	return nil
}

// Email fails when v is not a valid address. Blank values pass; combine
// with Required when the field is mandatory.
func Email(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" || (IsValidEmail(v) && validate.SimpleEmailValid(v)) {
		return nil
	}
	return filters.Invalid(field, v, "must be a valid email address")
}

// HTTPURL fails when v is set but not an absolute http(s) URL.
func HTTPURL(field, v string) error {
	if strings.TrimSpace(v) == "" || urlutil.IsValidAbsHTTPURL(strings.TrimSpace(v)) {
		return nil
	}
	return filters.Invalid(field, v, "must be an http(s) URL")
}

// OneOf fails when v is not in allowed.
func OneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return filters.Invalid(field, v, "must be one of "+strings.Join(allowed, ", "))
}

// Between fails when v is outside [lo, hi].
func Between(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return filters.Invalid(field, strconv.FormatFloat(v, 'f', -1, 64),
			"must be between "+strconv.FormatFloat(lo, 'f', -1, 64)+" and "+strconv.FormatFloat(hi, 'f', -1, 64))
	}
	return nil
}

// NonNegative fails when v < 0.
func NonNegative(field string, v float64) error {
	if v < 0 {
		return filters.Invalid(field, strconv.FormatFloat(v, 'f', -1, 64), "must not be negative")
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
