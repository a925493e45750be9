package main

import (
	"io"
	"os"
	"time"

	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rolling log file limits
const (
	logMaxSizeMB  = 10
	logMaxBackups = 5
	logMaxAgeDays = 14
)

// setupLogging configures the global logger. Logs go to stderr because stdout
// carries the stdio transport. The returned closer flushes the log file, if any.
func setupLogging(cfg *config.Config) io.Closer {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	var console io.Writer = os.Stderr
	if cfg.Debug {
		// Pretty logging for development
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	out := console
	var closer io.Closer = nopCloser{}

	if cfg.LogFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		// File output stays JSON for parsing
		out = io.MultiWriter(console, fileWriter)
		closer = fileWriter
	}

	ctx := zerolog.New(out).With().Timestamp()

	// Add caller information in debug mode
	if cfg.Debug {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	return closer
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
