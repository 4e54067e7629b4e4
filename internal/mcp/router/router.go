// Package router provides a routing mechanism for dispatching MCP method calls.
// file: internal/mcp/router/router.go
package router

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
)

// Handler handles one MCP method. It receives the raw params and returns the
// encoded result or an error.
type Handler func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// Route maps an MCP method name to its handler.
type Route struct {
	Method  string  // The MCP method name (e.g., "initialize", "tools/list").
	Handler Handler // Handler producing the result.
}

// Router dispatches a method name to its handler.
type Router interface {
	// Route runs the handler registered for method. Unknown methods yield a
	// -32601 error.
	Route(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	// Methods returns the registered method names, sorted.
	Methods() []string
}

// router is fixed at construction; lookups need no locking.
type router struct {
	routes map[string]Handler
	logger logging.Logger
}

// NewRouter builds a Router from routes. Empty method names, nil handlers
// and duplicates are rejected.
func NewRouter(logger logging.Logger, routes ...Route) (Router, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	r := &router{
		routes: make(map[string]Handler, len(routes)),
		logger: logger.WithField("component", "mcp_router"),
	}

	for _, route := range routes {
		if route.Method == "" {
			return nil, errors.New("cannot register route with empty method name")
		}
		if route.Handler == nil {
			return nil, errors.Newf("route for method '%s' has no handler", route.Method)
		}
		if _, exists := r.routes[route.Method]; exists {
			return nil, errors.Newf("route for method '%s' already registered", route.Method)
		}
		r.routes[route.Method] = route.Handler
		r.logger.Debug("Registered route.", "method", route.Method)
	}
	return r, nil
}

// Route looks up the handler for the given method and executes it.
func (r *router) Route(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	handler, exists := r.routes[method]
	if !exists {
		r.logger.Warn("Method not found in router.", "method", method)
		return nil, mcperrors.NewMethodNotFoundError(method)
	}
	return handler(ctx, params)
}

// Methods returns a sorted slice of registered method names.
func (r *router) Methods() []string {
	methods := make([]string, 0, len(r.routes))
	for method := range r.routes {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}
