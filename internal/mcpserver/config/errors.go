package config

import "errors"

var (
	// ErrMissingAPIBaseURL indicates that the API base URL is not configured
	ErrMissingAPIBaseURL = errors.New("apiBaseUrl is required in configuration")

	// ErrInvalidTimeout indicates a zero or negative backend timeout
	ErrInvalidTimeout = errors.New("uploadTimeout and requestTimeout must be positive")

	// ErrUnknownTransport indicates a transport other than stdio or http
	ErrUnknownTransport = errors.New("transport must be one of: stdio, http")

	// ErrMissingHTTPAddr indicates the http transport has no listen address
	ErrMissingHTTPAddr = errors.New("httpAddr is required for the http transport")

	// ErrInvalidSessionTTL indicates a zero or negative session lifetime
	ErrInvalidSessionTTL = errors.New("sessionTTL must be positive")

	// ErrInvalidRateLimit indicates a negative rate limit or a limit without burst capacity
	ErrInvalidRateLimit = errors.New("rateLimitPerMinute and rateLimitBurst must be non-negative, and burst positive when limiting")

	// ErrInvalidLogLevel indicates an unsupported log level
	ErrInvalidLogLevel = errors.New("logLevel must be one of: debug, info, warn, error")

	// ErrConfigFileNotFound indicates that the config file was not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFormat indicates that the config file could not be parsed
	ErrInvalidConfigFormat = errors.New("invalid configuration file format")
)
