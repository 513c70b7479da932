package middleware

import "net/http"

// Chain applies middleware to h in declaration order; the first is outermost.
// Chain(h, a, b) serves as a(b(h)).
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
