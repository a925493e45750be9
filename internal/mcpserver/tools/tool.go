package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToolName identifies one of the fixed tools exposed by the server
type ToolName string

const (
	UploadFile    ToolName = "upload_file"
	GetRecipe     ToolName = "get_recipe"
	RegisterChoka ToolName = "register_choka"
)

// AllToolNames lists every tool in catalog order
var AllToolNames = []ToolName{UploadFile, GetRecipe, RegisterChoka}

// ToolDefinition describes an MCP tool with its name, description, and input schema
type ToolDefinition struct {
	Name        ToolName
	Description string
	InputSchema *jsonschema.Schema
	// ErrorTag names the operation in the localized error prefix, e.g. "upload"
	ErrorTag string
}

// RequiredParams returns the argument keys that must be present for a call
func (d *ToolDefinition) RequiredParams() []string {
	if d.InputSchema == nil {
		return nil
	}
	return d.InputSchema.Required
}

// Arguments is the decoded arguments object of a tools/call request.
// Numbers are kept as json.Number so integers survive unchanged.
type Arguments map[string]any

// Handler runs a tool with validated arguments and returns the backend's raw JSON
type Handler func(context.Context, *ToolContext, Arguments) (json.RawMessage, error)

// ToolDescriptor is returned by tools/list in MCP wire format
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// CallRequest represents a tools/call JSON-RPC request
type CallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallResult is the single-content result of a tool call
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a piece of tool output
type ContentBlock struct {
	Type string `json:"type"` // always "text" here
	Text string `json:"text"`
}

// TextResult wraps text as a one-item CallResult
func TextResult(text string) CallResult {
	return CallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}
