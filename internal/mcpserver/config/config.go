package config

import "time"

const (
	// DefaultAPIBaseURL is the fish backend the original deployment talks to
	DefaultAPIBaseURL = "https://localhost:9993/fish"

	// DefaultUploadTimeout bounds a single image upload
	DefaultUploadTimeout = 60 * time.Second

	// DefaultRequestTimeout bounds recipe generation and catch registration
	DefaultRequestTimeout = 80 * time.Second

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configuration for the chokabridge MCP server
type Config struct {
	APIBaseURL         string        `json:"apiBaseUrl" mapstructure:"apiBaseUrl"`
	InsecureSkipVerify bool          `json:"insecureSkipVerify" mapstructure:"insecureSkipVerify"` // disables backend certificate checks
	UploadTimeout      time.Duration `json:"uploadTimeout" mapstructure:"uploadTimeout"`
	RequestTimeout     time.Duration `json:"requestTimeout" mapstructure:"requestTimeout"`
	Transport          string        `json:"transport" mapstructure:"transport"`
	HTTPAddr           string        `json:"httpAddr" mapstructure:"httpAddr"`
	AllowedOrigins     []string      `json:"allowedOrigins" mapstructure:"allowedOrigins"`
	SessionTTL         time.Duration `json:"sessionTTL" mapstructure:"sessionTTL"`
	RateLimitPerMinute int           `json:"rateLimitPerMinute" mapstructure:"rateLimitPerMinute"` // 0 disables rate limiting
	RateLimitBurst     int           `json:"rateLimitBurst" mapstructure:"rateLimitBurst"`
	Debug              bool          `json:"debug" mapstructure:"debug"`
	LogLevel           string        `json:"logLevel" mapstructure:"logLevel"`
	LogFile            string        `json:"logFile" mapstructure:"logFile"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	if c.UploadTimeout <= 0 || c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	switch c.Transport {
	case TransportStdio:
	case TransportHTTP:
		if c.HTTPAddr == "" {
			return ErrMissingHTTPAddr
		}
	default:
		return ErrUnknownTransport
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return ErrInvalidRateLimit
	}
	if c.RateLimitPerMinute > 0 && c.RateLimitBurst == 0 {
		return ErrInvalidRateLimit
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:         DefaultAPIBaseURL,
		InsecureSkipVerify: false,
		UploadTimeout:      DefaultUploadTimeout,
		RequestTimeout:     DefaultRequestTimeout,
		Transport:          TransportStdio,
		HTTPAddr:           ":8090",
		AllowedOrigins:     []string{},
		SessionTTL:         SessionTTL(),
		RateLimitPerMinute: 600,
		RateLimitBurst:     120,
		Debug:              false,
		LogLevel:           "info",
	}
}

// SessionTTL returns how long an idle Streamable HTTP session is kept
func SessionTTL() time.Duration {
	return 24 * time.Hour
}
