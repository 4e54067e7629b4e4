// Package mcperrors defines coded error types for the MCP layer and maps them
// to JSON-RPC error objects.
// file: internal/mcp/mcperrors/errors.go
package mcperrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorCode is a JSON-RPC error code.
type ErrorCode int

// JSON-RPC 2.0 codes used by this server.
const (
	ErrParseError     ErrorCode = -32700
	ErrInvalidRequest ErrorCode = -32600
	ErrMethodNotFound ErrorCode = -32601
	ErrInvalidParams  ErrorCode = -32602
	ErrInternalError  ErrorCode = -32603

	// ErrResourceNotFound shares the invalid-params code: an unknown URI is a
	// bad argument to resources/read.
	ErrResourceNotFound = ErrInvalidParams
)

// BaseError carries a code, a client-facing message, an optional cause and
// key/value context. Only allow-listed context keys reach the client.
type BaseError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("MCPError (Code: %d): %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("MCPError (Code: %d): %s", e.Code, e.Message)
}

// Unwrap returns the underlying error (Cause), enabling errors.Is and errors.As.
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithContext adds a key-value pair to the error's context map.
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, context map[string]interface{}) *BaseError {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &BaseError{Code: code, Message: message, Cause: cause, Context: context}
}

// NewParseError reports a body that is not valid JSON (-32700).
func NewParseError(message string, cause error) error {
	return newError(ErrParseError, message, cause, nil)
}

// NewInvalidRequestError reports a structurally invalid request (-32600).
func NewInvalidRequestError(message string, context map[string]interface{}) error {
	return newError(ErrInvalidRequest, message, nil, context)
}

// NewMethodNotFoundError reports an unknown method (-32601).
func NewMethodNotFoundError(method string) error {
	return newError(ErrMethodNotFound, "Method not found: "+method, nil,
		map[string]interface{}{"method": method})
}

// NewToolNotFoundError reports an unknown tool name in tools/call (-32601).
func NewToolNotFoundError(name string) error {
	return newError(ErrMethodNotFound, "Tool not found: "+name, nil,
		map[string]interface{}{"toolName": name})
}

// NewResourceNotFoundError reports an unknown URI in resources/read (-32602).
func NewResourceNotFoundError(uri string) error {
	return newError(ErrResourceNotFound, "Resource not found: "+uri, nil,
		map[string]interface{}{"uri": uri})
}

// NewInvalidParamsError reports params or tool arguments that fail decoding or
// schema validation (-32602).
func NewInvalidParamsError(message string, cause error, context map[string]interface{}) error {
	return newError(ErrInvalidParams, message, cause, context)
}

// NewInternalError reports a server-side fault (-32603). The message stays in
// logs; clients only ever see the generic internal-error text.
func NewInternalError(message string, cause error) error {
	return newError(ErrInternalError, message, cause, nil)
}

// InternalErrorMessage is the only text clients see for -32603.
const InternalErrorMessage = "Internal error"

// safeContextKeys are the context keys copied into the JSON-RPC data field.
var safeContextKeys = map[string]struct{}{
	"method":   {},
	"toolName": {},
	"uri":      {},
	"detail":   {},
}

// ToJSONRPC translates any error into JSON-RPC error components. Errors that
// are not a *BaseError, and internal errors, collapse to the generic -32603.
func ToJSONRPC(err error) (code int, message string, data map[string]interface{}) {
	var baseErr *BaseError
	if !errors.As(err, &baseErr) || baseErr.Code == ErrInternalError {
		return int(ErrInternalError), InternalErrorMessage, nil
	}

	for k, v := range baseErr.Context {
		if _, ok := safeContextKeys[k]; !ok {
			continue
		}
		if data == nil {
			data = make(map[string]interface{})
		}
		data[k] = v
	}
	return int(baseErr.Code), baseErr.Message, data
}

// CodeOf returns the JSON-RPC code ToJSONRPC would report for err.
func CodeOf(err error) ErrorCode {
	code, _, _ := ToJSONRPC(err)
	return ErrorCode(code)
}
