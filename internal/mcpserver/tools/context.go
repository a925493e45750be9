package tools

import (
	"context"
	"encoding/json"

	"github.com/erauner12/chokabridge/internal/mcpserver/client"
	"github.com/rs/zerolog"
)

// Backend is the fish REST service as seen by the tool handlers.
// *client.FishClient implements it; tests substitute fakes.
type Backend interface {
	Upload(ctx context.Context, filename string) (json.RawMessage, error)
	GetRecipe(ctx context.Context, in client.RecipeRequest) (json.RawMessage, error)
	RegisterChoka(ctx context.Context, in client.ChokaRequest) (json.RawMessage, error)
}

// ToolContext provides shared resources for tool handlers
type ToolContext struct {
	Logger  *zerolog.Logger
	Backend Backend
}

// NewToolContext creates the per-call context handed to handlers
func NewToolContext(logger *zerolog.Logger, backend Backend) *ToolContext {
	return &ToolContext{
		Logger:  logger,
		Backend: backend,
	}
}

// GetBackend returns the configured backend or an internal error
func (tc *ToolContext) GetBackend() (Backend, error) {
	if tc == nil || tc.Backend == nil {
		return nil, NewToolError(KindInternal, "backend client is not configured")
	}
	return tc.Backend, nil
}

func (tc *ToolContext) logger() *zerolog.Logger {
	if tc == nil || tc.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return tc.Logger
}
