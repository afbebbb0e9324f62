// Package config provides configuration loading for bargen.
package config

import (
	"fmt"

	configloader "github.com/GabrielNunesIT/go-libs/config-loader"
)

// EnvPrefix prefixes every environment override, e.g. BARGEN_LISTEN_ADDR.
const EnvPrefix = "BARGEN_"

// DefaultListenAddr is the address the hosting service binds by default.
const DefaultListenAddr = ":8080"

// Config holds the application configuration.
type Config struct {
	// ListenAddr is the address of the hosting service.
	ListenAddr string `koanf:"listen_addr"`

	// MaxBodyBytes bounds the size of a request to the hosting service.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Connector service settings written into the generated policies.
	InstanceID string `koanf:"instance_id"`
	ServiceURL string `koanf:"service_url"`
	APIKeyName string `koanf:"api_key_name"`

	// UnsupportedActions maps action and connector keys to the labels
	// reported when a flow uses them.
	UnsupportedActions map[string]string `koanf:"unsupported_actions"`

	// Validate checks generated API definitions before writing them.
	Validate bool `koanf:"validate"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		ListenAddr:   DefaultListenAddr,
		MaxBodyBytes: 10 << 20,
	}
}

// Load returns the application configuration using go-libs config-loader.
// The file at path is optional; environment variables prefixed with
// EnvPrefix take precedence over it.
func Load(path string) (*Config, error) {
	var (
		cfg Config
		err error
	)

	if path != "" {
		cfg, err = configloader.NewConfigLoader(
			configloader.WithDefaults(Defaults()),
			configloader.WithFile[Config](path),
			configloader.WithEnv[Config](EnvPrefix),
		).Load()
	} else {
		cfg, err = configloader.NewConfigLoader(
			configloader.WithDefaults(Defaults()),
			configloader.WithEnv[Config](EnvPrefix),
		).Load()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &cfg, nil
}
