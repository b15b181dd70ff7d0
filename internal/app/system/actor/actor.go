// internal/app/system/actor/actor.go
//
// Package actor carries the identity acting on a request. There is no
// authentication layer; every request acts as the configured system actor,
// which bootstrap ensures exists in the users collection at startup.
package actor

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the identity stamped onto writes that need one (blog authors,
// analytics attribution).
type Actor struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Role  string
}

// IsZero reports whether no actor is set.
func (a Actor) IsZero() bool { return a.ID.IsZero() }

type ctxKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// From returns the actor on ctx, if any.
func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && !a.IsZero()
}

// Middleware injects a into every request that does not already carry an
// actor.
func Middleware(a Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := From(r.Context()); !ok {
				r = r.WithContext(WithActor(r.Context(), a))
			}
			next.ServeHTTP(w, r)
		})
	}
}
