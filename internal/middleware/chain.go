// Package middleware provides chainable net/http handlers used by the HTTP
// transport: request IDs, access logging and panic recovery.
// file: internal/middleware/chain.go
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(final http.Handler, middlewares ...Func) http.Handler {
	handler := final
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
