package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"showdown-battle/ai"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":42069" || cfg.DBPath != "showdown.db" {
		t.Errorf("addr %q, db %q", cfg.Addr, cfg.DBPath)
	}
	if cfg.PingInterval != 20*time.Second || cfg.ReadTimeout != 10*time.Second {
		t.Errorf("ping %v, read %v", cfg.PingInterval, cfg.ReadTimeout)
	}
	if cfg.AIDifficulty() != ai.Normal {
		t.Errorf("difficulty = %q", cfg.AIDifficulty())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHOWDOWN_ADDR", "127.0.0.1:8080")
	t.Setenv("SHOWDOWN_AI_DIFFICULTY", "hard")
	t.Setenv("SHOWDOWN_SESSION_TTL", "5m")
	t.Setenv("SHOWDOWN_LOG_PRETTY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" || cfg.AIDifficulty() != ai.Hard || cfg.SessionTTL != 5*time.Minute || !cfg.LogPretty {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadNormalizes(t *testing.T) {
	t.Setenv("SHOWDOWN_AI_DIFFICULTY", "nightmare")
	t.Setenv("SHOWDOWN_MAX_SESSIONS", "-4")
	t.Setenv("SHOWDOWN_PING_INTERVAL", "0s")
	t.Setenv("SHOWDOWN_GIN_MODE", "loud")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Difficulty != "normal" || cfg.MaxSessions != 256 || cfg.PingInterval != 20*time.Second || cfg.GinMode != "release" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("SHOWDOWN_MAX_SESSIONS", "lots")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestSetupLogging(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Config{LogLevel: "warn"}.SetupLogging(&buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	Config{LogLevel: "chatty"}.SetupLogging(&buf)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", zerolog.GlobalLevel())
	}
}
