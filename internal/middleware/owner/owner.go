// Package owner resolves which owner a request acts for and carries it in
// the request context. Handlers read it with FromContext and pass it
// explicitly to the service layer.
package owner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// ErrNoOwner is returned by a Resolver that cannot identify the caller.
var ErrNoOwner = errors.New("owner could not be resolved")

// Resolver identifies the owner of a request.
type Resolver func(r *http.Request) (string, error)

// Static resolves every request to the same owner. It backs the
// single-user deployment where there is no login.
func Static(owner string) Resolver {
	owner = strings.TrimSpace(owner)
	return func(*http.Request) (string, error) {
		if owner == "" {
			return "", ErrNoOwner
		}
		return owner, nil
	}
}

// Middleware stores the resolved owner in the context, answering 401 when
// resolution fails.
func Middleware(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolve(r)
			if err != nil {
				slog.WarnContext(r.Context(), "Owner resolution failed", "path", r.URL.Path, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}

// NewContext returns ctx carrying owner.
func NewContext(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, contextKey{}, owner)
}

// FromContext returns the owner stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	owner, _ := ctx.Value(contextKey{}).(string)
	return owner
}
