package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/erauner12/chokabridge/internal/mcpserver/client"
)

func TestWrapClientError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
	}{
		{
			name:     "file error",
			err:      &client.FileError{Path: "/tmp/none.jpg", Err: fs.ErrNotExist},
			wantKind: KindFileAccess,
		},
		{
			name:     "status error",
			err:      &client.StatusError{StatusCode: 500, Status: "500 Internal Server Error", URL: "https://localhost:9993/fish/choka"},
			wantKind: KindBackendTransport,
		},
		{
			name:     "transport error",
			err:      &client.TransportError{URL: "https://localhost:9993/fish/recipe2", Err: errors.New("connection refused")},
			wantKind: KindBackendTransport,
		},
		{
			name:     "timeout",
			err:      &client.TransportError{URL: "https://localhost:9993/fish/upload", Timeout: 60 * time.Second, Err: context.DeadlineExceeded},
			wantKind: KindBackendTransport,
		},
		{
			name:     "payload error",
			err:      &client.PayloadError{URL: "https://localhost:9993/fish/choka", Snippet: "<html>"},
			wantKind: KindBackendPayload,
		},
		{
			name:     "wrapped status error",
			err:      fmt.Errorf("register: %w", &client.StatusError{StatusCode: 404, Status: "404 Not Found"}),
			wantKind: KindBackendTransport,
		},
		{
			name:     "bare deadline",
			err:      context.DeadlineExceeded,
			wantKind: KindBackendTransport,
		},
		{
			name:     "tool error passes through",
			err:      NewToolError(KindInvalidField, "argument 'FishCount' must be an integer, got string"),
			wantKind: KindInvalidField,
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			wantKind: KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toolErr := WrapClientError(tt.err)
			if toolErr == nil {
				t.Fatal("Expected ToolError, got nil")
			}
			if toolErr.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, toolErr.Kind)
			}
			if toolErr.Message == "" {
				t.Error("Expected non-empty message")
			}
		})
	}
}

func TestWrapClientError_Nil(t *testing.T) {
	if WrapClientError(nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestErrorResult_Format(t *testing.T) {
	result := ErrorResult("register", NewToolError(KindMissingField, "missing required argument 'FishCount'"))

	if !result.IsError {
		t.Error("Expected IsError to be true")
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("Expected one text block, got %+v", result.Content)
	}

	want := "エラーが発生しました(register): {\n" +
		"  \"error_type\": \"MissingFieldError\",\n" +
		"  \"error_message\": \"missing required argument 'FishCount'\"\n" +
		"}"
	if result.Content[0].Text != want {
		t.Errorf("Unexpected text:\n%s\nwant:\n%s", result.Content[0].Text, want)
	}
}

func TestErrorResult_NonASCIIMessage(t *testing.T) {
	result := ErrorResult("upload", NewToolError(KindFileAccess, "cannot read upload file 'C:\\魚<1>.jpg'"))

	text := result.Content[0].Text
	if !strings.Contains(text, "魚<1>") {
		t.Errorf("Expected literal non-ASCII and angle brackets, got %s", text)
	}

	tag, env, ok := ParseErrorText(text)
	if !ok {
		t.Fatal("Expected text to parse as an error envelope")
	}
	if tag != "upload" {
		t.Errorf("Expected tag upload, got %s", tag)
	}
	if env.ErrorMessage != "cannot read upload file 'C:\\魚<1>.jpg'" {
		t.Errorf("Message did not survive: %q", env.ErrorMessage)
	}
}

func TestParseErrorText_Success(t *testing.T) {
	for _, text := range []string{
		"{\n  \"FishName\": \"タイ\"\n}",
		"エラーが発生しました(upload): not json",
		"",
	} {
		if _, _, ok := ParseErrorText(text); ok {
			t.Errorf("Expected %q not to parse as an error envelope", text)
		}
	}
}

func TestToolError_ToJSONRPCError(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		wantCode int
	}{
		{KindCallerContract, -32602},
		{KindMissingField, -32602},
		{KindInvalidField, -32602},
		{KindUnknownTool, -32601},
		{KindBackendTransport, -32603},
		{KindInternal, -32603},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			code, msg := NewToolError(tt.kind, "test message").ToJSONRPCError()
			if code != tt.wantCode {
				t.Errorf("Expected code %d, got %d", tt.wantCode, code)
			}
			if msg != "test message" {
				t.Errorf("Expected message 'test message', got %s", msg)
			}
		})
	}
}
