// file: internal/mcp/dispatcher.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
	"github.com/dkoosis/headlines/internal/mcp/router"
	"github.com/dkoosis/headlines/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher turns a Request into a Response. It holds no per-request state:
// the registry and router are immutable, so one Dispatcher serves any number
// of concurrent calls.
type Dispatcher struct {
	registry     *Registry
	router       router.Router
	info         Implementation
	instructions string
	logger       logging.Logger
}

// Option customises a Dispatcher during construction.
type Option func(*Dispatcher)

// WithInstructions sets the free-text instructions returned by initialize.
func WithInstructions(text string) Option {
	return func(d *Dispatcher) {
		d.instructions = text
	}
}

// NewDispatcher wires the method table for registry.
func NewDispatcher(registry *Registry, info Implementation, logger logging.Logger, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("dispatcher requires a registry")
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	d := &Dispatcher{
		registry: registry,
		info:     info,
		logger:   logger.WithField("component", "mcp_dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}

	r, err := router.NewRouter(logger,
		router.Route{Method: "initialize", Handler: d.handleInitialize},
		router.Route{Method: "tools/list", Handler: d.handleToolsList},
		router.Route{Method: "tools/call", Handler: d.handleToolsCall},
		router.Route{Method: "resources/list", Handler: d.handleResourcesList},
		router.Route{Method: "resources/read", Handler: d.handleResourcesRead},
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build method router")
	}
	d.router = r
	return d, nil
}

// Methods lists the methods this dispatcher answers.
func (d *Dispatcher) Methods() []string {
	return d.router.Methods()
}

// Handle routes req and always returns a well-formed Response: a panic or
// unexpected error anywhere below becomes a -32603 error response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "mcp.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
		),
	)
	logger := d.logger.WithContext(ctx).WithField("method", req.Method)

	var handleErr error
	defer func() {
		telemetry.EndSpan(span, handleErr)
	}()

	resp = Response{JSONRPC: JSONRPCVersion, ID: req.ID}

	defer func() {
		if r := recover(); r != nil {
			handleErr = errors.WithStack(errors.Newf("panic while handling %s: %v", req.Method, r))
			logger.Error("Recovered panic in method handler.", "panic", fmt.Sprint(r), "error", fmt.Sprintf("%+v", handleErr))
			resp.Result = nil
			resp.Error = d.errorObject(handleErr, span)
		}
	}()

	result, err := d.router.Route(ctx, req.Method, req.Params)
	if err != nil {
		handleErr = err
		resp.Error = d.errorObject(err, span)
		if resp.Error.Code == int(mcperrors.ErrInternalError) {
			logger.Error("Method handler failed.", "error", fmt.Sprintf("%+v", err))
		} else {
			logger.Debug("Request rejected.", "code", resp.Error.Code, "message", resp.Error.Message)
		}
		return resp
	}

	if len(result) == 0 {
		result = []byte("{}")
	}
	resp.Result = result
	logger.Debug("Request handled.", "duration", time.Since(start))
	return resp
}

func (d *Dispatcher) errorObject(err error, span trace.Span) *ErrorObject {
	code, message, data := mcperrors.ToJSONRPC(err)
	span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
	return &ErrorObject{Code: code, Message: message, Data: data}
}

// ErrorResponse builds a response for errors raised before dispatch, such as
// undecodable bodies in a transport.
func ErrorResponse(id json.RawMessage, err error) Response {
	code, message, data := mcperrors.ToJSONRPC(err)
	return Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &ErrorObject{Code: code, Message: message, Data: data},
	}
}
