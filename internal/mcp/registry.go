// file: internal/mcp/registry.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/schema"
)

// ToolHandler runs a tool. args have already had schema defaults applied and
// passed validation. A returned error is an internal fault; tool-level
// failures belong in the CallToolResult text.
type ToolHandler func(ctx context.Context, args json.RawMessage) (CallToolResult, error)

// ResourceReader produces the text body of a resource.
type ResourceReader func(ctx context.Context) (string, error)

// Tool binds a descriptor to its handler.
type Tool struct {
	Descriptor ToolDescriptor
	Handler    ToolHandler
}

// Resource binds a descriptor to its reader.
type Resource struct {
	Descriptor ResourceDescriptor
	Read       ResourceReader
}

// BoundTool is a registered tool with its compiled input schema.
type BoundTool struct {
	descriptor ToolDescriptor
	handler    ToolHandler
	args       *schema.Arguments
}

// Descriptor returns the tool's descriptor.
func (t *BoundTool) Descriptor() ToolDescriptor {
	return t.descriptor
}

// Call applies defaults, validates raw arguments and runs the handler.
// Validation failures are returned as *schema.ArgumentError.
func (t *BoundTool) Call(ctx context.Context, raw json.RawMessage) (CallToolResult, error) {
	args, err := t.args.Prepare(raw)
	if err != nil {
		return CallToolResult{}, err
	}
	return t.handler(ctx, args)
}

// Registry is the immutable tool and resource catalog. It is built once at
// startup; every method is read-only, so it is shared across concurrent
// requests without locking.
type Registry struct {
	tools         []*BoundTool
	toolIndex     map[string]*BoundTool
	resources     []Resource
	resourceIndex map[string]Resource
}

// NewRegistry validates and indexes the given tools and resources. Order is
// preserved for listing.
func NewRegistry(tools []Tool, resources []Resource) (*Registry, error) {
	r := &Registry{
		tools:         make([]*BoundTool, 0, len(tools)),
		toolIndex:     make(map[string]*BoundTool, len(tools)),
		resources:     make([]Resource, 0, len(resources)),
		resourceIndex: make(map[string]Resource, len(resources)),
	}

	for _, t := range tools {
		name := t.Descriptor.Name
		if err := schema.ValidateName(schema.EntityTypeTool, name); err != nil {
			return nil, err
		}
		if t.Handler == nil {
			return nil, errors.Newf("tool %q has no handler", name)
		}
		if _, dup := r.toolIndex[name]; dup {
			return nil, errors.Newf("tool %q registered twice", name)
		}
		args, err := schema.Compile(name, t.Descriptor.InputSchema)
		if err != nil {
			return nil, errors.Wrapf(err, "tool %q", name)
		}
		bound := &BoundTool{descriptor: t.Descriptor, handler: t.Handler, args: args}
		r.tools = append(r.tools, bound)
		r.toolIndex[name] = bound
	}

	for _, res := range resources {
		uri := res.Descriptor.URI
		if err := schema.ValidateName(schema.EntityTypeResource, uri); err != nil {
			return nil, err
		}
		if res.Read == nil {
			return nil, errors.Newf("resource %q has no reader", uri)
		}
		if _, dup := r.resourceIndex[uri]; dup {
			return nil, errors.Newf("resource %q registered twice", uri)
		}
		r.resources = append(r.resources, res)
		r.resourceIndex[uri] = res
	}

	return r, nil
}

// FindTool looks a tool up by exact name.
func (r *Registry) FindTool(name string) (*BoundTool, bool) {
	t, ok := r.toolIndex[name]
	return t, ok
}

// FindResource looks a resource up by exact URI.
func (r *Registry) FindResource(uri string) (Resource, bool) {
	res, ok := r.resourceIndex[uri]
	return res, ok
}

// ListTools returns a fresh copy of all tool descriptors.
func (r *Registry) ListTools() []ToolDescriptor {
	out := make([]ToolDescriptor, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.descriptor
	}
	return out
}

// ListResources returns a fresh copy of all resource descriptors.
func (r *Registry) ListResources() []ResourceDescriptor {
	out := make([]ResourceDescriptor, len(r.resources))
	for i, res := range r.resources {
		out[i] = res.Descriptor
	}
	return out
}

// TypedHandler adapts a function taking a decoded argument struct into a
// ToolHandler. Arguments that do not fit A are reported as a
// *schema.ArgumentError.
func TypedHandler[A any](fn func(ctx context.Context, args A) (CallToolResult, error)) ToolHandler {
	return func(ctx context.Context, raw json.RawMessage) (CallToolResult, error) {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return CallToolResult{}, &schema.ArgumentError{
					Schema: fmt.Sprintf("%T", args),
					Detail: "arguments do not match the expected types",
					Cause:  err,
				}
			}
		}
		return fn(ctx, args)
	}
}
