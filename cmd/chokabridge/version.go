package main

import (
	"fmt"

	"github.com/erauner12/chokabridge/internal/mcpserver/server"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chokabridge version %s (%s %s)\n", version, server.ServerName, server.ServerVersion)
		},
	}
}
