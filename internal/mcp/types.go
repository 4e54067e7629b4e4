// Package mcp implements the Model Context Protocol dispatcher: request and
// response envelopes, the immutable tool/resource registry and the method
// handlers behind initialize, tools/* and resources/*.
// file: internal/mcp/types.go
package mcp

import (
	"encoding/json"
)

const (
	// JSONRPCVersion is the only envelope version accepted and emitted.
	JSONRPCVersion = "2.0"
	// ProtocolVersion is the MCP revision advertised by initialize.
	ProtocolVersion = "2024-11-05"
)

// Request is one inbound JSON-RPC call. ID is kept as raw JSON so string and
// numeric IDs are echoed back unchanged; a missing ID stays missing.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the reply to a Request. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the JSON-RPC error member.
type ErrorObject struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Implementation names a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities advertises what this server supports.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

// ToolsCapability indicates server support for tools.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability indicates server support for resources.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe"`
	ListChanged bool `json:"listChanged"`
}

// InitializeParams is what clients send with initialize. Only logged.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// InitializeResult is the fixed reply to initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ToolDescriptor describes one tool in tools/list.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ResourceDescriptor describes one resource in resources/list.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListToolsResult is the tools/list result.
type ListToolsResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// ListResourcesResult is the resources/list result.
type ListResourcesResult struct {
	Resources []ResourceDescriptor `json:"resources"`
}

// CallToolParams is the tools/call params object.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Content is one item of tool output. Only text content is produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the tools/call result. IsError marks a tool-level
// failure that is still a protocol-level success.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult wraps text into a successful CallToolResult.
func TextResult(text string) CallToolResult {
	return CallToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// ReadResourceParams is the resources/read params object.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is the body of one resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ReadResourceResult is the resources/read result.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}
