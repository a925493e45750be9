package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"apiBaseUrl":         "CHOKA_API_BASE_URL",
	"insecureSkipVerify": "CHOKA_INSECURE_SKIP_VERIFY",
	"uploadTimeout":      "CHOKA_UPLOAD_TIMEOUT",
	"requestTimeout":     "CHOKA_REQUEST_TIMEOUT",
	"transport":          "CHOKA_TRANSPORT",
	"httpAddr":           "CHOKA_HTTP_ADDR",
	"allowedOrigins":     "CHOKA_ALLOWED_ORIGINS",
	"sessionTTL":         "CHOKA_SESSION_TTL",
	"rateLimitPerMinute": "CHOKA_RATE_LIMIT_PER_MINUTE",
	"rateLimitBurst":     "CHOKA_RATE_LIMIT_BURST",
	"debug":              "CHOKA_DEBUG",
	"logLevel":           "CHOKA_LOG_LEVEL",
	"logFile":            "CHOKA_LOG_FILE",
}

// Load loads configuration from a file path and applies environment variable overrides.
// The file format is picked from its extension (yaml, json, toml).
// Validation is deferred to allow CLI flag overrides to be applied first
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ErrConfigFileNotFound
			}
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}
	cfg.AllowedOrigins = trimOrigins(cfg.AllowedOrigins)

	return &cfg, nil
}

// LoadFromEnvironment creates a configuration using only defaults and environment variables
func LoadFromEnvironment() (*Config, error) {
	return Load("")
}

func newViper() *viper.Viper {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("apiBaseUrl", def.APIBaseURL)
	v.SetDefault("insecureSkipVerify", def.InsecureSkipVerify)
	v.SetDefault("uploadTimeout", def.UploadTimeout)
	v.SetDefault("requestTimeout", def.RequestTimeout)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("httpAddr", def.HTTPAddr)
	v.SetDefault("allowedOrigins", def.AllowedOrigins)
	v.SetDefault("sessionTTL", def.SessionTTL)
	v.SetDefault("rateLimitPerMinute", def.RateLimitPerMinute)
	v.SetDefault("rateLimitBurst", def.RateLimitBurst)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("logLevel", def.LogLevel)
	v.SetDefault("logFile", def.LogFile)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	return v
}

// trimOrigins drops blanks from a comma-separated origin list
func trimOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
