package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestToolsCommand_JSON(t *testing.T) {
	out, err := execute(t, "tools")
	if err != nil {
		t.Fatalf("tools failed: %v", err)
	}

	var catalog []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		InputSchema struct {
			Required []string `json:"required"`
		} `json:"inputSchema"`
	}
	if err := json.Unmarshal([]byte(out), &catalog); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}

	if len(catalog) != 3 {
		t.Fatalf("Expected 3 tools, got %d", len(catalog))
	}
	if catalog[0].Name != "upload_file" || catalog[1].Name != "get_recipe" || catalog[2].Name != "register_choka" {
		t.Errorf("Unexpected tool order: %s, %s, %s", catalog[0].Name, catalog[1].Name, catalog[2].Name)
	}
	if !strings.Contains(out, "釣果登録") {
		t.Error("Expected Japanese descriptions written literally")
	}
}

func TestToolsCommand_YAML(t *testing.T) {
	out, err := execute(t, "tools", "--format", "yaml")
	if err != nil {
		t.Fatalf("tools failed: %v", err)
	}

	var catalog []map[string]any
	if err := yaml.Unmarshal([]byte(out), &catalog); err != nil {
		t.Fatalf("Output is not YAML: %v\n%s", err, out)
	}
	if len(catalog) != 3 {
		t.Fatalf("Expected 3 tools, got %d", len(catalog))
	}

	// Property order of register_choka survives the conversion
	idx := func(s string) int { return strings.Index(out, s) }
	if !(idx("FishID:") < idx("FishSize:") && idx("FishSize:") < idx("FishCount:")) {
		t.Errorf("Property order lost in YAML output:\n%s", out)
	}
	if strings.Contains(out, "{") {
		t.Errorf("Expected block style YAML, got:\n%s", out)
	}
}

func TestToolsCommand_UnknownFormat(t *testing.T) {
	if _, err := execute(t, "tools", "--format", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "chokabridge version 0.1.0") || !strings.Contains(out, "RAGandLLM-MCP") {
		t.Errorf("Unexpected version output %q", out)
	}
}

func TestCallCommand(t *testing.T) {
	t.Setenv("CHOKA_API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("CHOKA_LOG_LEVEL", "error")

	t.Run("unknown tool is rejected before calling", func(t *testing.T) {
		out, err := execute(t, "call", "no_such_tool")
		if err == nil || errors.Is(err, errToolFailed) {
			t.Fatalf("Expected unknown tool error, got %v", err)
		}
		if !strings.Contains(err.Error(), "upload_file, get_recipe, register_choka") {
			t.Errorf("Expected available tools in error, got %v", err)
		}
		if strings.Contains(out, "エラーが発生しました") {
			t.Errorf("Unexpected envelope output %q", out)
		}
	})

	t.Run("missing upload file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "fish.jpg")
		argsJSON, _ := json.Marshal(map[string]string{"filename": missing})

		out, err := execute(t, "call", "upload_file", "--args", string(argsJSON))
		if !errors.Is(err, errToolFailed) {
			t.Fatalf("Expected errToolFailed, got %v", err)
		}
		if !strings.Contains(out, "FileAccessError") {
			t.Errorf("Unexpected output %q", out)
		}
	})

	t.Run("arguments not an object", func(t *testing.T) {
		_, err := execute(t, "call", "get_recipe", "--args", `["x"]`)
		if err == nil || errors.Is(err, errToolFailed) {
			t.Fatalf("Expected caller-contract error, got %v", err)
		}
	})
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chokabridge.yaml")
	if err := os.WriteFile(path, []byte("apiBaseUrl: http://backend:9993/fish\nlogLevel: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		args      []string
		wantLevel string
		wantDebug bool
	}{
		{"file values", []string{"--config", path}, "warn", false},
		{"debug implies debug level", []string{"--config", path, "--debug"}, "debug", true},
		{"explicit level wins", []string{"--config", path, "--debug", "--log-level", "error"}, "error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *config.Config

			root := newRootCmd()
			inspect := &cobra.Command{
				Use: "inspect",
				RunE: func(cmd *cobra.Command, args []string) error {
					var err error
					got, err = loadConfig(cmd, nil)
					return err
				},
			}
			root.AddCommand(inspect)
			root.SetArgs(append([]string{"inspect"}, tt.args...))

			if err := root.Execute(); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			if got.APIBaseURL != "http://backend:9993/fish" {
				t.Errorf("Expected file apiBaseUrl, got %s", got.APIBaseURL)
			}
			if got.LogLevel != tt.wantLevel {
				t.Errorf("Expected log level %s, got %s", tt.wantLevel, got.LogLevel)
			}
			if got.Debug != tt.wantDebug {
				t.Errorf("Expected debug %v, got %v", tt.wantDebug, got.Debug)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if got := parseLogLevel(level); got.String() != level {
			t.Errorf("parseLogLevel(%s) = %s", level, got)
		}
	}
	if got := parseLogLevel("verbose"); got.String() != "info" {
		t.Errorf("Expected info fallback, got %s", got)
	}
}
