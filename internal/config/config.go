// Package config reads server settings from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/lobby-backend/internal/engine"
)

type Config struct {
	Addr     string `env:"LOBBY_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOBBY_LOG_LEVEL" envDefault:"info"`

	DefaultTeamSize int           `env:"LOBBY_DEFAULT_TEAM_SIZE" envDefault:"5"`
	GracePeriod     time.Duration `env:"LOBBY_GRACE_PERIOD" envDefault:"30s"`
	SettleDelay     time.Duration `env:"LOBBY_SETTLE_DELAY" envDefault:"2s"`

	RewardInterval time.Duration `env:"LOBBY_REWARD_INTERVAL" envDefault:"5s"`
	RewardRounds   int           `env:"LOBBY_REWARD_ROUNDS" envDefault:"6"`
	OfferSize      int           `env:"LOBBY_OFFER_SIZE" envDefault:"3"`

	// AllowedOrigins are websocket origin patterns, comma separated.
	AllowedOrigins []string `env:"LOBBY_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads .env (if any) and then the environment.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var err error
	if c.DefaultTeamSize < engine.MinTeamSize || c.DefaultTeamSize > engine.MaxTeamSize {
		err = multierr.Append(err, fmt.Errorf("LOBBY_DEFAULT_TEAM_SIZE must be %d..%d, got %d",
			engine.MinTeamSize, engine.MaxTeamSize, c.DefaultTeamSize))
	}
	if c.GracePeriod <= 0 {
		err = multierr.Append(err, fmt.Errorf("LOBBY_GRACE_PERIOD must be positive, got %s", c.GracePeriod))
	}
	if c.SettleDelay <= 0 {
		err = multierr.Append(err, fmt.Errorf("LOBBY_SETTLE_DELAY must be positive, got %s", c.SettleDelay))
	}
	if c.RewardInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("LOBBY_REWARD_INTERVAL must be positive, got %s", c.RewardInterval))
	}
	if c.RewardRounds < 0 {
		err = multierr.Append(err, fmt.Errorf("LOBBY_REWARD_ROUNDS must not be negative, got %d", c.RewardRounds))
	}
	if c.OfferSize < 1 {
		err = multierr.Append(err, fmt.Errorf("LOBBY_OFFER_SIZE must be at least 1, got %d", c.OfferSize))
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
