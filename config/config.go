// Package config reads process configuration from SHOWDOWN_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"showdown-battle/ai"
)

type Config struct {
	Addr         string        `env:"SHOWDOWN_ADDR" envDefault:":42069"`
	DBPath       string        `env:"SHOWDOWN_DB_PATH" envDefault:"showdown.db"`
	DataDir      string        `env:"SHOWDOWN_DATA_DIR"`
	LogLevel     string        `env:"SHOWDOWN_LOG_LEVEL" envDefault:"info"`
	LogPretty    bool          `env:"SHOWDOWN_LOG_PRETTY" envDefault:"false"`
	GinMode      string        `env:"SHOWDOWN_GIN_MODE" envDefault:"release"`
	ReadTimeout  time.Duration `env:"SHOWDOWN_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"SHOWDOWN_WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval time.Duration `env:"SHOWDOWN_PING_INTERVAL" envDefault:"20s"`
	SessionTTL   time.Duration `env:"SHOWDOWN_SESSION_TTL" envDefault:"30m"`
	MaxSessions  int           `env:"SHOWDOWN_MAX_SESSIONS" envDefault:"256"`
	Difficulty   string        `env:"SHOWDOWN_AI_DIFFICULTY" envDefault:"normal"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and replaces out-of-range values with their
// defaults. Only unparsable values are errors.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 20 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 256
	}
	if _, ok := ai.ParseDifficulty(c.Difficulty); !ok {
		c.Difficulty = string(ai.Normal)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

func (c Config) AIDifficulty() ai.Difficulty {
	d, _ := ai.ParseDifficulty(c.Difficulty)
	return d
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
