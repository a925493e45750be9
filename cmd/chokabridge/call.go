package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erauner12/chokabridge/internal/mcpserver/server"
	"github.com/erauner12/chokabridge/internal/mcpserver/tools"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func callCmd() *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call one tool against the backend and print its result",
		Example: `  chokabridge call upload_file --args '{"filename":"/tmp/fish.jpg"}'
  chokabridge call register_choka --args '{"FishID":"F1","FishName":"タイ","FishSize":"35","FishCount":2}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tools.NewRegistry()
			tools.RegisterAllTools(registry)
			if _, ok := registry.Get(tools.ToolName(args[0])); !ok {
				return fmt.Errorf("unknown tool %q (available: %s)", args[0], toolNames())
			}

			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			closer := setupLogging(cfg)
			defer closer.Close()

			mcp := server.NewMCPServer(cfg)
			ctx := log.Logger.WithContext(context.Background())

			result, err := mcp.CallTool(ctx, tools.CallRequest{
				Name:      args[0],
				Arguments: json.RawMessage(argsJSON),
			})
			if err != nil {
				return err
			}

			for _, block := range result.Content {
				fmt.Fprintln(cmd.OutOrStdout(), block.Text)
			}

			if result.IsError {
				return errToolFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "{}", "Tool arguments as a JSON object")

	return cmd
}

func toolNames() string {
	names := make([]string, len(tools.AllToolNames))
	for i, name := range tools.AllToolNames {
		names[i] = string(name)
	}
	return strings.Join(names, ", ")
}
