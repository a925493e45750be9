package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	uploadPath = "/upload"
	recipePath = "/recipe2"
	chokaPath  = "/choka"

	// uploadField is the multipart field name the backend reads the image from
	uploadField = "fish"

	jsonContentType = "application/json;charset=utf-8"
)

// RecipeRequest is the body of POST /recipe2
type RecipeRequest struct {
	UserInput string `json:"UserInput"`
	FishName  string `json:"FishName"`
	FishInfo  string `json:"FishInfo"`
}

// ChokaRequest is the body of POST /choka (a catch record)
type ChokaRequest struct {
	FishID    string `json:"FishID"`
	FishName  string `json:"FishName"`
	Size      string `json:"Size"`
	FishCount int    `json:"FishCount"`
}

// Timeouts bounds each backend operation
type Timeouts struct {
	Upload  time.Duration
	Request time.Duration
}

// FishClient maps tool calls onto the fish backend endpoints.
// Responses are returned as raw JSON; the backend's schema is not interpreted here.
type FishClient struct {
	http     *HTTPClient
	timeouts Timeouts
}

// NewFishClient creates a backend client using the given per-operation timeouts
func NewFishClient(httpClient *HTTPClient, timeouts Timeouts) *FishClient {
	return &FishClient{
		http:     httpClient,
		timeouts: timeouts,
	}
}

// Upload posts the image at filename as multipart field "fish" to /upload.
// The backend answers with the recognised fish's ID, name and info.
func (c *FishClient) Upload(ctx context.Context, filename string) (json.RawMessage, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &FileError{Path: filename, Err: err}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(filePartHeader(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &FileError{Path: filename, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.http.url(uploadPath), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.http.Do(ctx, req, c.timeouts.Upload)
}

// GetRecipe asks /recipe2 for a recipe built from the user's wish and the fish context
func (c *FishClient) GetRecipe(ctx context.Context, in RecipeRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, recipePath, in)
}

// RegisterChoka records a catch through /choka
func (c *FishClient) RegisterChoka(ctx context.Context, in ChokaRequest) (json.RawMessage, error) {
	return c.postJSON(ctx, chokaPath, in)
}

func (c *FishClient) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.http.url(path), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", jsonContentType)

	return c.http.Do(ctx, req, c.timeouts.Request)
}

// filePartHeader builds the form-data header for the uploaded image,
// guessing the content type from the file extension
func filePartHeader(filename string) textproto.MIMEHeader {
	base := filepath.Base(filename)

	contentType := mime.TypeByExtension(filepath.Ext(base))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, escapeQuotes(base)))
	h.Set("Content-Type", contentType)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
