// Package config loads badge-cli settings once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robertmeta/badge-cli/model"
)

// Placeholder values shipped in example configuration.
const (
	PlaceholderOwnerID = "REPLACE_WITH_YOUR_STEAM_ID"
	PlaceholderAPIKey  = "ss_YOUR_API_KEY"
)

// Configuration errors
var (
	ErrMissingOwner  = errors.New("owner Steam ID is not configured")
	ErrMissingAPIKey = errors.New("SteamSets API key is not configured")
)

// Config holds every static setting. It is built once and passed to the
// components that need it.
type Config struct {
	OwnerID          string        `env:"BADGE_OWNER_ID"`
	OwnerIsSteamID64 bool          `env:"BADGE_OWNER_IS_STEAMID64"`
	APIKey           string        `env:"BADGE_API_KEY"`
	LogEnabled       bool          `env:"BADGE_LOG"`
	LogLevel         string        `env:"BADGE_LOG_LEVEL" envDefault:"info"`
	DefaultSort      string        `env:"BADGE_DEFAULT_SORT" envDefault:"appid_asc"`
	DBPath           string        `env:"BADGE_DB"`
	CommunityURL     string        `env:"BADGE_COMMUNITY_URL" envDefault:"https://steamcommunity.com"`
	APIURL           string        `env:"BADGE_API_URL" envDefault:"https://api.steamsets.com/v1/app.listBadges"`
	ImageBaseURL     string        `env:"BADGE_IMAGE_BASE_URL" envDefault:"https://cdn.cloudflare.steamstatic.com/steamcommunity/public/images/items"`
	CacheTTL         string        `env:"BADGE_CACHE_TTL" envDefault:"7d"`
	HTTPTimeout      time.Duration `env:"BADGE_HTTP_TIMEOUT" envDefault:"30s"`
}

// Load reads envFile (if it exists) into the environment and parses the
// configuration. Variables already set take precedence over the file.
// An explicitly named file that does not exist is an error.
func Load(envFile string, required bool) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports missing or placeholder identity and API key settings.
func (c Config) Validate() error {
	var errs []error
	if c.OwnerID == "" || c.OwnerID == PlaceholderOwnerID {
		errs = append(errs, ErrMissingOwner)
	}
	if c.APIKey == "" || c.APIKey == PlaceholderAPIKey {
		errs = append(errs, ErrMissingAPIKey)
	}
	return errors.Join(errs...)
}

// SortOrder returns the configured default favorites order, falling back
// to ascending app id.
func (c Config) SortOrder() model.SortOrder {
	order, err := model.ParseSortOrder(c.DefaultSort)
	if err != nil {
		return model.SortAppIDAsc
	}
	return order
}
