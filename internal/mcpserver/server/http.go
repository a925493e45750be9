package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/erauner12/chokabridge/internal/mcpserver/client"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxBodySize bounds a POST /mcp body
const maxBodySize = maxMessageSize

// Routes creates the Streamable HTTP router
func (s *MCPServer) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CorrelationMiddleware)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.originMiddleware)

		if limiter := s.rateLimiter(); limiter != nil {
			r.With(limiter.Middleware).Post("/mcp", s.handleMCPPost)
		} else {
			r.Post("/mcp", s.handleMCPPost)
		}
		r.Delete("/mcp", s.handleMCPDelete)
		// No server-initiated messages, so no SSE stream to offer
		r.Get("/mcp", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Allow", "POST, DELETE")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		})
	})

	return r
}

// Start serves the Streamable HTTP transport on addr until Shutdown
func (s *MCPServer) Start(addr string) error {
	s.sessions()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Tool calls may wait on the backend for the whole request timeout
		WriteTimeout: s.config.RequestTimeout + s.config.UploadTimeout,
	}

	log.Info().Str("addr", addr).Msg("Starting MCP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *MCPServer) Shutdown(ctx context.Context) error {
	if s.sessionMgr != nil {
		s.sessionMgr.Close()
	}
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// sessions returns the session manager, creating it for servers used via Routes only
func (s *MCPServer) sessions() *SessionManager {
	s.sessionOnce.Do(func() {
		if s.sessionMgr == nil {
			s.sessionMgr = NewSessionManager(s.config.SessionTTL)
		}
	})
	return s.sessionMgr
}

// rateLimiter returns the shared POST /mcp limiter, or nil when limiting is off
func (s *MCPServer) rateLimiter() *RateLimiter {
	s.limiterOnce.Do(func() {
		if s.config.RateLimitPerMinute > 0 {
			s.limiter = NewRateLimiter(s.config.RateLimitPerMinute, s.config.RateLimitBurst)
		}
	})
	return s.limiter
}

// handleMCPPost handles POST /mcp (JSON-RPC requests)
func (s *MCPServer) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	if v := r.Header.Get("Mcp-Protocol-Version"); v != "" && !slices.Contains(SupportedProtocolVersions, v) {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		if !json.Valid(body) {
			writeResponse(w, errorResponse(nil, ParseError, "invalid JSON"))
			return
		}
		writeResponse(w, errorResponse(nil, InvalidRequest, "invalid request"))
		return
	}

	ctx := r.Context()

	// Handle initialize specially (creates session)
	if req.Method == "initialize" {
		resp := s.Handle(ctx, &req)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		if resp.Error == nil {
			params := parseInitializeParams(req.Params)
			session := s.sessions().CreateSession(params.ClientInfo.Name, negotiateProtocolVersion(params.ProtocolVersion))

			log.Ctx(ctx).Info().
				Str("sessionId", session.ID).
				Msg("Created new MCP session")

			w.Header().Set("Mcp-Session-Id", session.ID)
		}
		writeResponse(w, resp)
		return
	}

	// All other requests require session
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		writeResponse(w, errorResponse(req.ID, InvalidRequest, "missing Mcp-Session-Id header"))
		return
	}

	if _, err := s.sessions().GetSession(sessionID); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		encodeResponse(w, errorResponse(req.ID, InvalidRequest, "session not found"))
		return
	}

	s.sessions().UpdateLastSeen(sessionID)

	logger := log.Ctx(ctx).With().Str("sessionId", sessionID).Logger()
	ctx = logger.WithContext(ctx)

	resp := s.Handle(ctx, &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeResponse(w, resp)
}

// handleMCPDelete handles DELETE /mcp (close session)
func (s *MCPServer) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "missing session ID", http.StatusBadRequest)
		return
	}

	if _, err := s.sessions().GetSession(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	s.sessions().DeleteSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// originMiddleware rejects requests whose Origin is not allowlisted (DNS rebinding protection)
func (s *MCPServer) originMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.validateOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validateOrigin checks the Origin header against the allowlist.
// Requests without Origin come from non-browser clients and are accepted.
func (s *MCPServer) validateOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	// If no allowed origins configured, allow all (only safe on localhost)
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}

	if slices.Contains(s.config.AllowedOrigins, origin) {
		return true
	}

	log.Ctx(r.Context()).Warn().
		Str("origin", origin).
		Strs("allowedOrigins", s.config.AllowedOrigins).
		Msg("Origin not in allowlist")
	return false
}

// CorrelationMiddleware reads X-Correlation-ID header and adds it to context,
// where backend calls made for this request pick it up.
// Generates a new correlation ID if client doesn't provide one.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		// Add to response headers for client verification
		w.Header().Set("X-Correlation-ID", correlationID)

		ctx := client.WithCorrelationID(r.Context(), correlationID)

		logger := log.With().
			Str("correlationId", correlationID).
			Str("transport", "http").
			Logger()
		ctx = logger.WithContext(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeResponse writes a JSON-RPC response; JSON-RPC errors are still HTTP 200
func writeResponse(w http.ResponseWriter, resp *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	encodeResponse(w, resp)
}

func encodeResponse(w io.Writer, resp *JSONRPCResponse) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}
