package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/erauner12/chokabridge/internal/mcpserver/client"
	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/erauner12/chokabridge/internal/mcpserver/tools"
	"github.com/rs/zerolog/log"
)

const (
	ServerName    = "RAGandLLM-MCP"
	ServerVersion = "0.1.0"
)

// SupportedProtocolVersions lists the MCP revisions this server speaks, newest first
var SupportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// MCPServer answers MCP JSON-RPC requests for the fish tools.
// Handle is transport independent; ServeStdio and Start attach it to a transport.
type MCPServer struct {
	config       *config.Config
	httpServer   *http.Server
	sessionMgr   *SessionManager
	sessionOnce  sync.Once
	limiter      *RateLimiter
	limiterOnce  sync.Once
	toolRegistry *tools.Registry
	backend      tools.Backend
}

// NewMCPServer creates a server whose tools call the backend at cfg.APIBaseURL
func NewMCPServer(cfg *config.Config) *MCPServer {
	httpClient := client.NewHTTPClient(cfg.APIBaseURL, cfg.InsecureSkipVerify)
	backend := client.NewFishClient(httpClient, client.Timeouts{
		Upload:  cfg.UploadTimeout,
		Request: cfg.RequestTimeout,
	})
	return NewMCPServerWithBackend(cfg, backend)
}

// NewMCPServerWithBackend creates a server with the given backend
func NewMCPServerWithBackend(cfg *config.Config, backend tools.Backend) *MCPServer {
	toolRegistry := tools.NewRegistry()
	tools.RegisterAllTools(toolRegistry)

	return &MCPServer{
		config:       cfg,
		toolRegistry: toolRegistry,
		backend:      backend,
	}
}

// Tools returns the tool registry
func (s *MCPServer) Tools() *tools.Registry {
	return s.toolRegistry
}

// CallTool dispatches one tool call outside of any transport
func (s *MCPServer) CallTool(ctx context.Context, req tools.CallRequest) (tools.CallResult, error) {
	logger := log.Ctx(ctx)
	return s.toolRegistry.Call(ctx, tools.NewToolContext(logger, s.backend), req)
}

// HandleMessage decodes one raw JSON-RPC message and handles it.
// It returns nil when no response is due.
func (s *MCPServer) HandleMessage(ctx context.Context, data []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		if !json.Valid(data) {
			return errorResponse(nil, ParseError, "invalid JSON")
		}
		return errorResponse(nil, InvalidRequest, "invalid request")
	}
	return s.Handle(ctx, &req)
}

// Handle routes a JSON-RPC request to its method.
// Notifications are processed for their side effects and yield nil.
func (s *MCPServer) Handle(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, InvalidRequest, "invalid jsonrpc version")
	}
	if req.Method == "" {
		return errorResponse(req.ID, InvalidRequest, "missing method")
	}

	logger := log.Ctx(ctx).With().Str("method", req.Method).Logger()
	ctx = logger.WithContext(ctx)

	if req.IsNotification() {
		logger.Debug().Msg("received notification")
		return nil
	}

	switch req.Method {
	case "initialize":
		params := parseInitializeParams(req.Params)
		version := negotiateProtocolVersion(params.ProtocolVersion)

		logger.Info().
			Str("clientName", params.ClientInfo.Name).
			Str("clientVersion", params.ClientInfo.Version).
			Str("protocolVersion", version).
			Msg("MCP client initialized")

		return resultResponse(req.ID, map[string]any{
			"protocolVersion": version,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    ServerName,
				"version": ServerVersion,
			},
		})

	case "ping":
		return resultResponse(req.ID, map[string]any{})

	case "tools/list":
		return resultResponse(req.ID, map[string]any{
			"tools": s.toolRegistry.List(),
		})

	case "tools/call":
		var callReq tools.CallRequest
		if len(req.Params) == 0 {
			return errorResponse(req.ID, InvalidParams, "missing tool call parameters")
		}
		if err := json.Unmarshal(req.Params, &callReq); err != nil {
			return errorResponse(req.ID, InvalidParams, "invalid tool call parameters")
		}
		if callReq.Name == "" {
			return errorResponse(req.ID, InvalidParams, "missing tool name")
		}

		result, err := s.CallTool(ctx, callReq)
		if err != nil {
			if toolErr, ok := err.(*tools.ToolError); ok {
				code, message := toolErr.ToJSONRPCError()
				return errorResponse(req.ID, code, message)
			}
			return errorResponse(req.ID, InternalError, err.Error())
		}
		return resultResponse(req.ID, result)

	default:
		return errorResponse(req.ID, MethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

// parseInitializeParams is lenient: a malformed params object still initializes
func parseInitializeParams(raw json.RawMessage) initializeParams {
	var params initializeParams
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &params)
	}
	return params
}

// negotiateProtocolVersion echoes a supported client version, otherwise offers the latest
func negotiateProtocolVersion(requested string) string {
	if slices.Contains(SupportedProtocolVersions, requested) {
		return requested
	}
	return SupportedProtocolVersions[0]
}
