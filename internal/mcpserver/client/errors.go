package client

import (
	"fmt"
	"time"
)

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %s for url '%s'", e.Status, e.URL)
}

// TransportError wraps connection failures and timeouts
type TransportError struct {
	URL     string
	Timeout time.Duration // non-zero when the per-call deadline fired
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("request to '%s' timed out after %s", e.URL, e.Timeout)
	}
	return fmt.Sprintf("request to '%s' failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PayloadError is returned when a 2xx body is not valid JSON
type PayloadError struct {
	URL     string
	Snippet string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("response from '%s' is not valid JSON: %q", e.URL, e.Snippet)
}

// FileError is returned when the image to upload cannot be read
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("cannot read upload file '%s': %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
