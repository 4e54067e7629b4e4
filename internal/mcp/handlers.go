// file: internal/mcp/handlers.go
package mcp

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
	"github.com/dkoosis/headlines/internal/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handleInitialize returns the fixed capability descriptor. Client params are
// only logged; malformed params do not fail initialize.
func (d *Dispatcher) handleInitialize(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var req InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			d.logger.Debug("Ignoring malformed initialize params.", "error", err)
		}
	}
	d.logger.WithContext(ctx).Info("Handling initialize request.",
		"clientRequestedVersion", req.ProtocolVersion,
		"serverVersion", ProtocolVersion,
		"clientName", req.ClientInfo.Name,
	)

	return marshalResult(InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{ListChanged: false},
			Resources: &ResourcesCapability{Subscribe: false, ListChanged: false},
		},
		ServerInfo:   d.info,
		Instructions: d.instructions,
	})
}

func (d *Dispatcher) handleToolsList(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	return marshalResult(ListToolsResult{Tools: d.registry.ListTools()})
}

// handleToolsCall resolves the tool, then lets BoundTool.Call apply defaults
// and validate. A tool that ran and failed at its own job still answers with
// a result; only unknown tools, bad arguments and internal faults are errors.
func (d *Dispatcher) handleToolsCall(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var req CallToolParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, mcperrors.NewInvalidParamsError("Invalid params for tools/call", err, nil)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("mcp.tool.name", req.Name))

	tool, ok := d.registry.FindTool(req.Name)
	if !ok {
		d.logger.WithContext(ctx).Warn("Tool not found during tools/call.", "toolName", req.Name)
		return nil, mcperrors.NewToolNotFoundError(req.Name)
	}

	result, err := tool.Call(ctx, req.Arguments)
	if err != nil {
		var argErr *schema.ArgumentError
		if errors.As(err, &argErr) {
			return nil, mcperrors.NewInvalidParamsError(argErr.Error(), err,
				map[string]interface{}{"toolName": req.Name})
		}
		return nil, mcperrors.NewInternalError("tool "+req.Name+" failed", err)
	}
	if result.Content == nil {
		result.Content = []Content{}
	}
	return marshalResult(result)
}

func (d *Dispatcher) handleResourcesList(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	return marshalResult(ListResourcesResult{Resources: d.registry.ListResources()})
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var req ReadResourceParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperrors.NewInvalidParamsError("Invalid params for resources/read", err, nil)
		}
	}

	res, ok := d.registry.FindResource(req.URI)
	if !ok {
		d.logger.WithContext(ctx).Debug("Resource not found.", "uri", req.URI)
		return nil, mcperrors.NewResourceNotFoundError(req.URI)
	}

	text, err := res.Read(ctx)
	if err != nil {
		return nil, mcperrors.NewInternalError("reading resource "+req.URI, err)
	}
	return marshalResult(ReadResourceResult{
		Contents: []ResourceContents{{
			URI:      res.Descriptor.URI,
			MimeType: res.Descriptor.MimeType,
			Text:     text,
		}},
	})
}
