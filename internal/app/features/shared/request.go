// internal/app/features/shared/request.go
//
// Package shared holds request helpers used by every JSON feature.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ObjectID parses the chi URL parameter name as an ObjectID.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apierror.BadID(raw)
	}
	return id, nil
}

// DecodeJSON reads one JSON object from the request body into v. Unknown
// fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		reason := err.Error()
		if errors.Is(err, io.EOF) {
			reason = "empty body"
		}
		return apierror.Validation("invalid JSON body", map[string]any{"reason": reason})
	}
	if dec.More() {
		return apierror.Validation("invalid JSON body", map[string]any{"reason": "trailing data"})
	}
	return nil
}

// Deleted is the response body of a successful delete.
type Deleted struct {
	Deleted int64 `json:"deleted"`
}

// CountBody is the response body of a count request.
type CountBody struct {
	Count int64 `json:"count"`
}

// SessionHeader carries the anonymous visitor session id on analytics and
// contact requests.
const SessionHeader = "X-Session-ID"

// ClientIP returns the request's remote host. chi's RealIP middleware has
// already applied any X-Forwarded-For rewrite by the time handlers run.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
