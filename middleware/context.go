package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gromit-app/gromit/services"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// failureKey is the context key for the per-request failure slot
	failureKey contextKey = "failure"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext retrieves the principal, or nil for anonymous requests
func PrincipalFromContext(ctx context.Context) *Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if p, ok := val.(*Principal); ok {
			return p
		}
	}
	return nil
}

// RequirePrincipal returns the request principal or ErrAuthenticationRequired
func RequirePrincipal(r *http.Request) (*Principal, error) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		return nil, services.ErrAuthenticationRequired
	}
	return p, nil
}
