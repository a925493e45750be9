package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// maxMessageSize bounds a single newline-delimited JSON-RPC message
const maxMessageSize = 4 * 1024 * 1024

// stdioMessage is one input line, or a marker for a line over the size limit
type stdioMessage struct {
	line    []byte
	tooLong bool
}

// readMessage reads one newline-terminated line. A line longer than limit is
// consumed and dropped, and reported with tooLong set.
func readMessage(r *bufio.Reader, limit int) (stdioMessage, error) {
	var msg stdioMessage
	for {
		chunk, err := r.ReadSlice('\n')
		if !msg.tooLong {
			msg.line = append(msg.line, chunk...)
			if len(bytes.TrimRight(msg.line, "\r\n")) > limit {
				msg.tooLong = true
				msg.line = nil
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
			msg.line = bytes.TrimRight(msg.line, "\r\n")
			return msg, nil
		case errors.Is(err, io.EOF) && (len(msg.line) > 0 || msg.tooLong):
			// Final line without a trailing newline
			return msg, nil
		default:
			return stdioMessage{}, err
		}
	}
}

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes one
// response line per request to out. Requests run concurrently; responses may be
// written in any order. A line over maxMessageSize gets an invalid request
// error and the session continues. It returns after in reaches EOF or ctx is
// done, once in-flight requests have finished.
func (s *MCPServer) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := log.With().Str("transport", "stdio").Logger()
	ctx = logger.WithContext(ctx)

	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)

	write := func(resp *JSONRPCResponse) {
		var buf bytes.Buffer
		encodeResponse(&buf, resp)

		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := out.Write(buf.Bytes()); err != nil {
			logger.Error().Err(err).Msg("failed to write response")
		}
	}

	lines := make(chan stdioMessage)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		reader := bufio.NewReaderSize(in, 64*1024)
		for {
			msg, err := readMessage(reader, maxMessageSize)
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
			select {
			case lines <- msg:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
	}()

	logger.Info().Msg("Serving MCP over stdio")

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			logger.Info().Msg("stdio transport stopped")
			return nil

		case msg, ok := <-lines:
			if !ok {
				wg.Wait()
				err := <-readErr
				if err != nil {
					logger.Error().Err(err).Msg("failed to read stdin")
				} else {
					logger.Info().Msg("stdin closed")
				}
				return err
			}

			if msg.tooLong {
				logger.Warn().Int("limit", maxMessageSize).Msg("discarded oversized message")
				write(errorResponse(nil, InvalidRequest, "message too large"))
				continue
			}
			line := msg.line
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := s.HandleMessage(ctx, line); resp != nil {
					write(resp)
				}
			}()
		}
	}
}
