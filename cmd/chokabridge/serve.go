package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/erauner12/chokabridge/internal/mcpserver/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long:  "Run the MCP server over stdio (for desktop MCP clients) or Streamable HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("transport") {
					cfg.Transport = transport
				}
				if cmd.Flags().Changed("addr") {
					cfg.HTTPAddr = addr
				}
			})
			if err != nil {
				return err
			}

			closer := setupLogging(cfg)
			defer closer.Close()

			log.Info().
				Str("version", version).
				Str("apiBaseUrl", cfg.APIBaseURL).
				Str("transport", cfg.Transport).
				Bool("debug", cfg.Debug).
				Msg("Starting chokabridge MCP server")

			// Create context for graceful shutdown
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg); err != nil {
				log.Error().Err(err).Msg("MCP server failed")
				return err
			}

			log.Info().Msg("chokabridge stopped gracefully")
			return nil
		},
	}

	cmd.Flags().StringVar(&transport, "transport", config.TransportStdio, "Transport to serve (stdio, http)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for the http transport")

	return cmd
}

// run serves the configured transport until ctx is done or the transport ends
func run(ctx context.Context, cfg *config.Config) error {
	mcp := server.NewMCPServer(cfg)

	switch cfg.Transport {
	case config.TransportHTTP:
		errCh := make(chan error, 1)
		go func() {
			errCh <- mcp.Start(cfg.HTTPAddr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down MCP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return mcp.Shutdown(shutdownCtx)

	case config.TransportStdio:
		return mcp.ServeStdio(ctx, os.Stdin, os.Stdout)

	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
