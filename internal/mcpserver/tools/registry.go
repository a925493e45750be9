package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Registry manages tool definitions and dispatches tool calls
type Registry struct {
	mu       sync.RWMutex
	tools    map[ToolName]*toolEntry
	ordering []ToolName // Preserve registration order for consistent tools/list
}

type toolEntry struct {
	def     ToolDefinition
	handler Handler
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[ToolName]*toolEntry),
	}
}

// Register adds a tool definition and handler to the registry
func (r *Registry) Register(def ToolDefinition, handler Handler) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	if def.ErrorTag == "" {
		return fmt.Errorf("tool %s has no error tag", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}

	r.tools[def.Name] = &toolEntry{
		def:     def,
		handler: handler,
	}
	r.ordering = append(r.ordering, def.Name)

	return nil
}

// MustRegister registers a tool or panics on error (for init-time registration)
func (r *Registry) MustRegister(def ToolDefinition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// List returns all registered tool descriptors (for tools/list response)
func (r *Registry) List() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]ToolDescriptor, 0, len(r.ordering))
	for _, name := range r.ordering {
		entry := r.tools[name]
		descriptors = append(descriptors, ToolDescriptor{
			Name:        string(entry.def.Name),
			Description: entry.def.Description,
			InputSchema: entry.def.InputSchema,
		})
	}

	return descriptors
}

// Call executes a tool by name and always yields exactly one text content item.
//
// The only failure returned as a Go error is a caller-contract violation
// (arguments missing or not a JSON object). Unknown tools, missing or mistyped
// arguments and every backend failure become an error envelope result.
func (r *Registry) Call(ctx context.Context, toolCtx *ToolContext, req CallRequest) (CallResult, error) {
	logger := toolCtx.logger().With().Str("tool", req.Name).Logger()

	r.mu.RLock()
	entry, exists := r.tools[ToolName(req.Name)]
	r.mu.RUnlock()

	if !exists {
		logger.Warn().Msg("call to unknown tool")
		return ErrorResult(unknownTag, NewToolError(KindUnknownTool, fmt.Sprintf("Tool not found: %s", req.Name))), nil
	}

	args, err := decodeArguments(req.Arguments)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected tool call arguments")
		return CallResult{}, err
	}

	if err := checkRequired(args, entry.def.RequiredParams()); err != nil {
		logger.Warn().Err(err).Msg("tool call failed")
		return ErrorResult(entry.def.ErrorTag, WrapClientError(err)), nil
	}

	answer, err := entry.handler(ctx, toolCtx, args)
	if err == nil {
		var text string
		text, err = RenderJSON(answer)
		if err == nil {
			logger.Info().Int("bytes", len(answer)).Msg("tool call succeeded")
			return TextResult(text), nil
		}
	}

	toolErr := WrapClientError(err)
	logger.Error().
		Str("errorType", string(toolErr.Kind)).
		Str("errorMessage", toolErr.Message).
		Msg("tool call failed")

	return ErrorResult(entry.def.ErrorTag, toolErr), nil
}

// Get retrieves a tool definition by name
func (r *Registry) Get(name ToolName) (*ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.tools[name]
	if !exists {
		return nil, false
	}

	return &entry.def, true
}

// decodeArguments requires raw to be a JSON object
func decodeArguments(raw json.RawMessage) (Arguments, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, NewToolError(KindCallerContract, "arguments must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var args Arguments
	if err := dec.Decode(&args); err != nil {
		return nil, NewToolError(KindCallerContract, "Invalid arguments: "+err.Error())
	}
	return args, nil
}
