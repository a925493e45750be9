package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/erauner12/chokabridge/internal/mcpserver/tools"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func toolsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog",
		Long:  "Print the tools the server advertises in tools/list, with their input schemas.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tools.NewRegistry()
			tools.RegisterAllTools(registry)

			return writeCatalog(cmd.OutOrStdout(), registry.List(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml)")

	return cmd
}

// writeCatalog prints descriptors as indented JSON or as YAML with the same key order
func writeCatalog(w io.Writer, descriptors []tools.ToolDescriptor, format string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(descriptors); err != nil {
		return fmt.Errorf("failed to encode tool catalog: %w", err)
	}

	switch format {
	case "json":
		_, err := w.Write(buf.Bytes())
		return err

	case "yaml":
		// JSON is YAML: decoding into a node keeps the schema's property order
		var node yaml.Node
		if err := yaml.Unmarshal(buf.Bytes(), &node); err != nil {
			return fmt.Errorf("failed to convert tool catalog: %w", err)
		}
		resetStyle(&node)

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("failed to encode tool catalog: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

// resetStyle switches nodes parsed from JSON flow syntax to block style
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
