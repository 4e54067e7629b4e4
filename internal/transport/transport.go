// Package transport carries MCP requests between clients and the dispatcher
// over HTTP or newline-delimited JSON on stdio.
// file: internal/transport/transport.go
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dkoosis/headlines/internal/httputils"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
	"github.com/dkoosis/headlines/internal/metrics"
)

// MaxMessageSize defines the maximum allowed size for a single JSON-RPC message in bytes.
const MaxMessageSize = 1024 * 1024 // 1MB.

// Dispatcher is what transports hand decoded requests to.
type Dispatcher interface {
	Handle(ctx context.Context, req mcp.Request) mcp.Response
}

// DecodeRequest parses and checks one JSON-RPC request. On failure the
// returned error maps to -32700 or -32600, and the returned Request still
// carries the ID when one could be recovered.
func DecodeRequest(message []byte) (mcp.Request, error) {
	var req mcp.Request

	trimmed := bytes.TrimSpace(message)
	if len(trimmed) == 0 {
		return req, mcperrors.NewParseError("Parse error: empty message", nil)
	}
	if !json.Valid(trimmed) {
		return req, mcperrors.NewParseError("Parse error", json.Unmarshal(trimmed, new(interface{})))
	}
	if trimmed[0] != '{' {
		if trimmed[0] == '[' {
			return req, mcperrors.NewInvalidRequestError("Invalid Request: batch requests are not supported", nil)
		}
		return req, mcperrors.NewInvalidRequestError("Invalid Request: expected a JSON object", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return req, mcperrors.NewParseError("Parse error", err)
	}

	if id, ok := fields["id"]; ok {
		if !validID(id) {
			return req, mcperrors.NewInvalidRequestError("Invalid Request: id must be a string, number or null", nil)
		}
		req.ID = id
	}

	if err := json.Unmarshal(fields["jsonrpc"], &req.JSONRPC); err != nil || req.JSONRPC != mcp.JSONRPCVersion {
		return req, mcperrors.NewInvalidRequestError("Invalid Request: jsonrpc must be \"2.0\"", nil)
	}
	if err := json.Unmarshal(fields["method"], &req.Method); err != nil || req.Method == "" {
		return req, mcperrors.NewInvalidRequestError("Invalid Request: method must be a non-empty string", nil)
	}
	if params, ok := fields["params"]; ok && !bytes.Equal(params, []byte("null")) {
		req.Params = params
	}
	return req, nil
}

func validID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	switch c := raw[0]; {
	case c == '"', c == '-', c >= '0' && c <= '9':
		return true
	default:
		return bytes.Equal(raw, []byte("null"))
	}
}

// IsNotification reports whether req expects no reply: it has no ID and
// uses a notifications/ method.
func IsNotification(req mcp.Request) bool {
	return len(req.ID) == 0 && strings.HasPrefix(req.Method, "notifications/")
}

// processor runs one raw message through decode, dispatch and accounting.
// It is shared by every transport.
type processor struct {
	dispatcher Dispatcher
	timeout    time.Duration
	metrics    *metrics.Collector
	logger     logging.Logger
}

// process returns the response, the HTTP status that fits it, and whether
// a reply is expected at all.
func (p *processor) process(ctx context.Context, message []byte) (mcp.Response, int, bool) {
	logger := p.logger.WithContext(ctx)

	req, err := DecodeRequest(message)
	if err != nil {
		resp := mcp.ErrorResponse(req.ID, err)
		logger.Warn("Rejected request before dispatch.", "code", resp.Error.Code, "error", err)
		p.record("", 0, resp.Error.Code)
		return resp, httputils.StatusForCode(resp.Error.Code), true
	}

	if IsNotification(req) {
		logger.Debug("Ignoring notification.", "method", req.Method)
		return mcp.Response{}, http.StatusAccepted, false
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp := p.dispatcher.Handle(ctx, req)
	code := 0
	if resp.Error != nil {
		code = resp.Error.Code
	}
	p.record(req.Method, time.Since(start), code)
	return resp, http.StatusOK, true
}

func (p *processor) record(method string, d time.Duration, code int) {
	if p.metrics == nil {
		return
	}
	if method == "" {
		method = "(invalid)"
	}
	p.metrics.RecordRequest(method, d, code)
}
