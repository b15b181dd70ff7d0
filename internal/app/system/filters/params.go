// internal/app/system/filters/params.go
package filters

import (
	"net/url"
	"strconv"
	"strings"
)

// unsetTokens are values clients send when they have no selection. They
// are treated exactly like a missing parameter.
var unsetTokens = map[string]bool{
	"":          true,
	"undefined": true,
	"null":      true,
}

// IsUnset reports whether a raw string value means "no value".
func IsUnset(s string) bool {
	return unsetTokens[strings.TrimSpace(s)]
}

// Params is the raw, loosely typed request input. Values are usually
// strings from a query string, but decoded JSON bodies can carry native
// booleans and numbers.
type Params map[string]any

// FromValues converts URL query values into Params, keeping the first
// value of each key.
func FromValues(v url.Values) Params {
	p := make(Params, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			p[k] = vals[0]
		}
	}
	return p
}

// Get returns the trimmed string form of a parameter. ok is false when the
// parameter is missing or carries an unset token.
func (p Params) Get(key string) (string, bool) {
	raw, present := p[key]
	if !present || raw == nil {
		return "", false
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		if len(v) == 0 {
			return "", false
		}
		s = v[0]
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if IsUnset(s) {
		return "", false
	}
	return s, true
}

// rangeParams returns the min/max parameter names for a field,
// e.g. "price" -> "minPrice", "maxPrice".
func rangeParams(param string) (string, string) {
	if param == "" {
		return "min", "max"
	}
	suffix := strings.ToUpper(param[:1]) + param[1:]
	return "min" + suffix, "max" + suffix
}
