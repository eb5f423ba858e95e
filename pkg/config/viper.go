package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from defaults, an optional config file, and
// OAGW_*-prefixed environment variables, and validates the result.
// configPath may be empty, in which case no file is read.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Optional config file.
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: OAGW_GATEWAY_BASE_URL, OAGW_LOG_DEBUG, etc.
	v.SetEnvPrefix("OAGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read keys individually rather than via Unmarshal so AutomaticEnv
	// values are honored for keys absent from the file.
	cfg := &Config{
		Gateway: GatewayConfig{
			BaseURL:   v.GetString("gateway.base_url"),
			AuthToken: v.GetString("gateway.auth_token"),
			Timeout:   v.GetDuration("gateway.timeout"),
		},
		Log: LogConfig{
			Debug: v.GetBool("log.debug"),
		},
	}

	if cfg.Gateway.AuthToken == "" {
		return nil, ErrAuthTokenRequired
	}

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps config.go as the single source of
// truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("gateway.base_url", d.Gateway.BaseURL)
	v.SetDefault("gateway.auth_token", d.Gateway.AuthToken)
	v.SetDefault("gateway.timeout", d.Gateway.Timeout)

	v.SetDefault("log.debug", d.Log.Debug)
}
