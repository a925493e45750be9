package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/erauner12/chokabridge/internal/mcpserver/tools"
)

// newEchoBackend answers every JSON POST with its own request body
func newEchoBackend(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, backendURL string) *MCPServer {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.APIBaseURL = backendURL
	cfg.UploadTimeout = 5 * time.Second
	cfg.RequestTimeout = 5 * time.Second
	cfg.SessionTTL = time.Hour

	s := NewMCPServer(cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func handle(t *testing.T, s *MCPServer, msg string) *JSONRPCResponse {
	t.Helper()
	return s.HandleMessage(context.Background(), []byte(msg))
}

func decodeResult[T any](t *testing.T, resp *JSONRPCResponse) T {
	t.Helper()

	if resp == nil {
		t.Fatal("Expected a response, got nil")
	}
	if resp.Error != nil {
		t.Fatalf("Expected result, got error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var out T
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	return out
}

func TestHandle_Initialize(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"latest", "2025-06-18", "2025-06-18"},
		{"older supported", "2024-11-05", "2024-11-05"},
		{"unsupported", "2023-01-01", "2025-06-18"},
		{"absent", "", "2025-06-18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"` + tt.requested +
				`","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`

			result := decodeResult[struct {
				ProtocolVersion string                     `json:"protocolVersion"`
				Capabilities    map[string]json.RawMessage `json:"capabilities"`
				ServerInfo      struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"serverInfo"`
			}](t, handle(t, s, msg))

			if result.ProtocolVersion != tt.want {
				t.Errorf("Expected protocolVersion %s, got %s", tt.want, result.ProtocolVersion)
			}
			if result.ServerInfo.Name != "RAGandLLM-MCP" || result.ServerInfo.Version != "0.1.0" {
				t.Errorf("Unexpected serverInfo %+v", result.ServerInfo)
			}
			if _, ok := result.Capabilities["tools"]; !ok {
				t.Error("Expected tools capability")
			}
		})
	}
}

func TestHandle_Notifications(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	for _, msg := range []string{
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":3}}`,
		`{"jsonrpc":"2.0","method":"tools/list"}`,
	} {
		if resp := handle(t, s, msg); resp != nil {
			t.Errorf("Expected no response for %s, got %+v", msg, resp)
		}
	}
}

func TestHandle_Ping(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	resp := handle(t, s, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`)
	result := decodeResult[map[string]any](t, resp)

	if len(result) != 0 {
		t.Errorf("Expected empty ping result, got %v", result)
	}
	if string(resp.ID) != `"p1"` {
		t.Errorf("Expected id to be echoed, got %s", resp.ID)
	}
}

func TestHandle_ToolsList(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	result := decodeResult[struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			InputSchema struct {
				Type       string                     `json:"type"`
				Properties map[string]json.RawMessage `json:"properties"`
				Required   []string                   `json:"required"`
			} `json:"inputSchema"`
		} `json:"tools"`
	}](t, handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	if len(result.Tools) != 3 {
		t.Fatalf("Expected 3 tools, got %d", len(result.Tools))
	}

	want := map[string][]string{
		"upload_file":    {"filename"},
		"get_recipe":     {"UserInput", "FishName", "FishInfo"},
		"register_choka": {"FishID", "FishName", "FishSize", "FishCount"},
	}
	for _, tool := range result.Tools {
		if tool.InputSchema.Type != "object" {
			t.Errorf("%s: expected object schema, got %s", tool.Name, tool.InputSchema.Type)
		}
		if !reflect.DeepEqual(tool.InputSchema.Required, want[tool.Name]) {
			t.Errorf("%s: required = %v, want %v", tool.Name, tool.InputSchema.Required, want[tool.Name])
		}
		if len(tool.InputSchema.Properties) != len(want[tool.Name]) {
			t.Errorf("%s: expected %d properties, got %d", tool.Name, len(want[tool.Name]), len(tool.InputSchema.Properties))
		}
	}
}

func TestHandle_RegisterChokaEchoScenario(t *testing.T) {
	backend := newEchoBackend(t)
	s := newTestServer(t, backend.URL+"/fish")

	resp := handle(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"register_choka",`+
		`"arguments":{"FishID":"F1","FishName":"タイ","FishSize":"35","FishCount":2}}}`)
	result := decodeResult[tools.CallResult](t, resp)

	if result.IsError {
		t.Fatalf("Expected success, got %s", result.Content[0].Text)
	}
	if len(result.Content) != 1 {
		t.Fatalf("Expected 1 content block, got %d", len(result.Content))
	}

	var got, want any
	if err := json.Unmarshal([]byte(result.Content[0].Text), &got); err != nil {
		t.Fatalf("Result text is not JSON: %v", err)
	}
	json.Unmarshal([]byte(`{"FishID":"F1","FishName":"タイ","Size":"35","FishCount":2}`), &want)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Echoed payload = %v, want %v", got, want)
	}
	if !strings.Contains(result.Content[0].Text, "タイ") {
		t.Error("Expected non-ASCII text to be written literally")
	}
}

func TestHandle_ToolsCallErrors(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	tests := []struct {
		name     string
		msg      string
		wantCode int
	}{
		{
			name:     "missing params",
			msg:      `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`,
			wantCode: InvalidParams,
		},
		{
			name:     "params not an object",
			msg:      `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":[1,2]}`,
			wantCode: InvalidParams,
		},
		{
			name:     "missing tool name",
			msg:      `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`,
			wantCode: InvalidParams,
		},
		{
			name:     "arguments absent",
			msg:      `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_recipe"}}`,
			wantCode: InvalidParams,
		},
		{
			name:     "arguments not an object",
			msg:      `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_recipe","arguments":"x"}}`,
			wantCode: InvalidParams,
		},
		{
			name:     "unknown method",
			msg:      `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
			wantCode: MethodNotFound,
		},
		{
			name:     "wrong version",
			msg:      `{"jsonrpc":"1.0","id":1,"method":"ping"}`,
			wantCode: InvalidRequest,
		},
		{
			name:     "missing method",
			msg:      `{"jsonrpc":"2.0","id":1}`,
			wantCode: InvalidRequest,
		},
		{
			name:     "not an object",
			msg:      `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`,
			wantCode: InvalidRequest,
		},
		{
			name:     "invalid JSON",
			msg:      `{"jsonrpc":"2.0","id":1,`,
			wantCode: ParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, tt.msg)
			if resp == nil || resp.Error == nil {
				t.Fatalf("Expected error response, got %+v", resp)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Expected code %d, got %d (%s)", tt.wantCode, resp.Error.Code, resp.Error.Message)
			}
		})
	}
}

func TestHandle_RecoverableFailuresAreResults(t *testing.T) {
	// Nothing listens on port 1, so backend calls fail at the transport
	s := newTestServer(t, "http://127.0.0.1:1")

	tests := []struct {
		name     string
		params   string
		wantTag  string
		wantKind tools.ErrorKind
	}{
		{
			name:     "unknown tool",
			params:   `{"name":"delete_everything","arguments":{}}`,
			wantTag:  "unknown",
			wantKind: tools.KindUnknownTool,
		},
		{
			name:     "missing field",
			params:   `{"name":"register_choka","arguments":{"FishID":"F1","FishName":"タイ","FishSize":"35"}}`,
			wantTag:  "register",
			wantKind: tools.KindMissingField,
		},
		{
			name:     "missing upload file",
			params:   `{"name":"upload_file","arguments":{"filename":"/nonexistent/fish.jpg"}}`,
			wantTag:  "upload",
			wantKind: tools.KindFileAccess,
		},
		{
			name:     "backend unreachable",
			params:   `{"name":"get_recipe","arguments":{"UserInput":"a","FishName":"b","FishInfo":"c"}}`,
			wantTag:  "recipe",
			wantKind: tools.KindBackendTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":`+tt.params+`}`)
			result := decodeResult[tools.CallResult](t, resp)

			if !result.IsError {
				t.Fatalf("Expected isError result, got %+v", result)
			}

			tag, env, ok := tools.ParseErrorText(result.Content[0].Text)
			if !ok {
				t.Fatalf("Expected error envelope, got %q", result.Content[0].Text)
			}
			if tag != tt.wantTag || env.ErrorType != string(tt.wantKind) {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantTag, tt.wantKind, tag, env.ErrorType)
			}
		})
	}
}

func TestNegotiateProtocolVersion(t *testing.T) {
	for _, v := range SupportedProtocolVersions {
		if got := negotiateProtocolVersion(v); got != v {
			t.Errorf("negotiateProtocolVersion(%s) = %s", v, got)
		}
	}
	if got := negotiateProtocolVersion("1999-01-01"); got != SupportedProtocolVersions[0] {
		t.Errorf("Expected latest version, got %s", got)
	}
}
