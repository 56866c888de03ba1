// Package config loads service settings from an optional TOML file with
// environment-variable overrides. Secrets (Discord token, TVDB key) are
// typically injected through the environment in container deployments.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all service settings.
type Config struct {
	Port         int    `toml:"port"`
	DatabasePath string `toml:"database_path"`
	DataDir      string `toml:"data_dir"`
	PublicURL    string `toml:"public_url"` // external base URL for served thumbnails, optional

	DiscordBotToken string `toml:"discord_bot_token"`
	TVDBAPIKey      string `toml:"tvdb_api_key"`

	LogPath                string `toml:"log_path"` // empty logs to stderr
	DeliveryTimeoutSeconds int    `toml:"delivery_timeout_seconds"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:                   3000,
		DatabasePath:           "data/followarr.db",
		DataDir:                "data",
		DeliveryTimeoutSeconds: 10,
	}
}

// Load reads the config file at path (skipped when path is empty or the file
// does not exist) and applies environment overrides on top of defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults plus env is a valid setup.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WEBHOOK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		cfg.PublicURL = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.DiscordBotToken = v
	}
	if v := os.Getenv("TVDB_API_KEY"); v != "" {
		cfg.TVDBAPIKey = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.DiscordBotToken == "" {
		return errors.New("discord_bot_token is required (DISCORD_BOT_TOKEN)")
	}
	if c.TVDBAPIKey == "" {
		return errors.New("tvdb_api_key is required (TVDB_API_KEY)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
