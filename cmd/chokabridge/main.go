package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	// Global flags
	configPath string
	debug      bool
	logLevel   string
	logFile    string
)

// errToolFailed marks a tool call that completed with an error result already printed
var errToolFailed = errors.New("tool call returned an error result")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chokabridge",
		Short:         "MCP server for fish recognition, recipes and catch records",
		Long:          "chokabridge exposes the fish backend (image upload, recipe generation, catch registration) as MCP tools over stdio or Streamable HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rolling file")

	// Add subcommands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(callCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadConfig loads the configuration from file and environment, then applies
// flags the user set explicitly. Validation runs after the overrides.
func loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnvironment()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = debug
		// --debug implies debug level unless a level was given too
		if debug && !flags.Changed("log-level") {
			cfg.LogLevel = "debug"
		}
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
