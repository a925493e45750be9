package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/erauner12/chokabridge/internal/mcpserver/client"
)

// ErrorKind categorizes tool failures; it becomes error_type in the envelope
type ErrorKind string

const (
	KindCallerContract   ErrorKind = "CallerContractError"
	KindUnknownTool      ErrorKind = "UnknownToolError"
	KindMissingField     ErrorKind = "MissingFieldError"
	KindInvalidField     ErrorKind = "InvalidFieldError"
	KindFileAccess       ErrorKind = "FileAccessError"
	KindBackendTransport ErrorKind = "BackendTransportError"
	KindBackendPayload   ErrorKind = "BackendPayloadError"
	KindInternal         ErrorKind = "InternalError"
)

// errorPrefix starts every error result; the operation tag goes in the parentheses
const errorPrefix = "エラーが発生しました("

// unknownTag is the operation tag used when the tool name did not resolve
const unknownTag = "unknown"

// ToolError represents a structured error from tool execution
type ToolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewToolError creates a tool error of the given kind
func NewToolError(kind ErrorKind, message string) *ToolError {
	return &ToolError{
		Kind:    kind,
		Message: message,
	}
}

// ErrorEnvelope is the JSON shape reported to callers for any failed call
type ErrorEnvelope struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

// Envelope converts the error into its wire shape
func (e *ToolError) Envelope() ErrorEnvelope {
	return ErrorEnvelope{
		ErrorType:    string(e.Kind),
		ErrorMessage: e.Message,
	}
}

// WrapClientError converts REST client errors into ToolErrors
func WrapClientError(err error) *ToolError {
	if err == nil {
		return nil
	}

	var (
		toolErr      *ToolError
		statusErr    *client.StatusError
		transportErr *client.TransportError
		payloadErr   *client.PayloadError
		fileErr      *client.FileError
	)

	switch {
	case errors.As(err, &toolErr):
		return toolErr
	case errors.As(err, &fileErr):
		return NewToolError(KindFileAccess, fileErr.Error())
	case errors.As(err, &statusErr):
		return NewToolError(KindBackendTransport, statusErr.Error())
	case errors.As(err, &transportErr):
		return NewToolError(KindBackendTransport, transportErr.Error())
	case errors.As(err, &payloadErr):
		return NewToolError(KindBackendPayload, payloadErr.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewToolError(KindBackendTransport, err.Error())
	default:
		return NewToolError(KindInternal, err.Error())
	}
}

// ErrorResult renders err as the single text item of a failed call:
// the localized prefix with the operation tag, then the envelope as indented JSON.
func ErrorResult(tag string, err *ToolError) CallResult {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Encoding two plain strings cannot fail
	_ = enc.Encode(err.Envelope())

	text := fmt.Sprintf("%s%s): %s", errorPrefix, tag, strings.TrimRight(buf.String(), "\n"))

	result := TextResult(text)
	result.IsError = true
	return result
}

// ParseErrorText extracts the operation tag and envelope from an error result's text.
// ok is false for success texts, which are plain backend JSON.
func ParseErrorText(text string) (tag string, env ErrorEnvelope, ok bool) {
	rest, found := strings.CutPrefix(text, errorPrefix)
	if !found {
		return "", ErrorEnvelope{}, false
	}

	tag, payload, found := strings.Cut(rest, "): ")
	if !found {
		return "", ErrorEnvelope{}, false
	}

	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.ErrorType == "" {
		return "", ErrorEnvelope{}, false
	}
	return tag, env, true
}

// ToJSONRPCError converts a caller-contract ToolError into a JSON-RPC error code
func (e *ToolError) ToJSONRPCError() (int, string) {
	switch e.Kind {
	case KindCallerContract, KindMissingField, KindInvalidField:
		return -32602, e.Message // InvalidParams
	case KindUnknownTool:
		return -32601, e.Message // MethodNotFound
	default:
		return -32603, e.Message // InternalError
	}
}
