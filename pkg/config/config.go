// Package config loads configuration for the oagw CLI and for constructing
// gateway clients.
//
// Config precedence (highest to lowest):
//  1. Environment variables (OAGW_GATEWAY_BASE_URL, OAGW_GATEWAY_AUTH_TOKEN, ...)
//  2. Config file values (when a file is given)
//  3. Defaults from NewDefaultConfig()
package config

import (
	"errors"
	"time"

	"github.com/oagwlabs/oagw-go/pkg/oagw"
)

// ErrAuthTokenRequired is returned when no gateway auth token is configured.
var ErrAuthTokenRequired = errors.New("gateway auth token is required (set OAGW_GATEWAY_AUTH_TOKEN)")

// Config is the full tool configuration. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Log     LogConfig     `toml:"log"`
}

// GatewayConfig holds the settings for reaching the OAGW gateway.
type GatewayConfig struct {
	BaseURL   string        `toml:"base_url,omitempty"`
	AuthToken string        `toml:"auth_token,omitempty"`
	Timeout   time.Duration `toml:"timeout,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool `toml:"debug,omitempty"`
}

const (
	// DefaultBaseURL is the conventional internal gateway endpoint.
	DefaultBaseURL = "https://oagw.internal.cf"

	// DefaultTimeout bounds the wait for response headers.
	DefaultTimeout = 30 * time.Second
)

// NewDefaultConfig returns the built-in defaults. The auth token has no
// default and must come from the environment or a config file.
func NewDefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
	}
}

// ClientConfig converts the gateway section into a client configuration.
func (c *Config) ClientConfig() oagw.Config {
	return oagw.Config{
		BaseURL:   c.Gateway.BaseURL,
		AuthToken: c.Gateway.AuthToken,
		Timeout:   c.Gateway.Timeout,
	}
}
