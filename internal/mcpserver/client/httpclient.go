package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// maxSnippet limits how much of a bad body ends up in error messages
const maxSnippet = 200

type contextKey string

const correlationIDKey contextKey = "correlationId"

// WithCorrelationID returns a context whose backend calls carry id as X-Correlation-ID
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation ID stored by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// HTTPClient wraps http.Client for calls to the fish backend.
// Every request gets an X-Correlation-ID, taken from the context when the
// caller has one, and its own deadline. There are no retries:
// a failed call is reported to the caller as is.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the backend rooted at baseURL.
// insecureSkipVerify turns off certificate verification for self-signed backends.
func NewHTTPClient(baseURL string, insecureSkipVerify bool) *HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		log.Warn().Str("apiBaseUrl", baseURL).Msg("TLS certificate verification disabled for backend calls")
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: transport},
	}
}

// Do executes req with the given timeout and returns the validated JSON body.
// Non-2xx statuses, transport failures and non-JSON bodies come back as
// *StatusError, *TransportError and *PayloadError.
func (c *HTTPClient) Do(ctx context.Context, req *http.Request, timeout time.Duration) ([]byte, error) {
	correlationID := CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	url := req.URL.String()

	logger := log.With().
		Str("method", req.Method).
		Str("url", url).
		Str("correlationId", correlationID).
		Logger()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req = req.WithContext(callCtx)
	req.Header.Set("X-Correlation-ID", correlationID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(start)
		logger.Error().Err(err).Dur("duration", duration).Msg("HTTP request failed")
		return nil, transportError(callCtx, url, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		logger.Error().Err(err).Dur("duration", duration).Msg("failed to read response body")
		return nil, transportError(callCtx, url, timeout, err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", duration).
		Msg("HTTP request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn().Int("status", resp.StatusCode).Msg("backend returned error status")
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: url}
	}

	if !gjson.ValidBytes(body) {
		logger.Warn().Msg("backend returned invalid JSON")
		return nil, &PayloadError{URL: url, Snippet: snippet(body)}
	}

	return body, nil
}

// url joins a backend path such as "/upload" onto the base URL
func (c *HTTPClient) url(path string) string {
	return fmt.Sprintf("%s%s", c.baseURL, path)
}

func transportError(ctx context.Context, url string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TransportError{URL: url, Timeout: timeout, Err: err}
	}
	return &TransportError{URL: url, Err: err}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippet {
		return s[:maxSnippet] + "..."
	}
	return s
}
