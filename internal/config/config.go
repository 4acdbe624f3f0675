// Package config reads server settings from the environment, after loading any .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Advisor fallback policies when the advisor fails to produce a legal move.
const (
	FallbackNone  = "none"
	FallbackFirst = "first"
)

type Config struct {
	Port         string
	LogLevel     zerolog.Level
	ClientOrigin string
	DatabasePath string // empty keeps matches in memory
	TokenSecret  string // empty accepts unsigned player IDs

	OpenAIKey       string
	OpenAIModel     string
	AdvisorTimeout  time.Duration
	AdvisorFallback string

	Rules        checkers.Rules
	StartingSide checkers.Color
	TimeControl  time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "3000"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DatabasePath:    os.Getenv("DATABASE_PATH"),
		TokenSecret:     os.Getenv("PLAYER_TOKEN_SECRET"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
		AdvisorFallback: getEnv("ADVISOR_FALLBACK", FallbackNone),
	}

	lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = lvl

	if cfg.AdvisorTimeout, err = time.ParseDuration(getEnv("ADVISOR_TIMEOUT", "20s")); err != nil {
		return cfg, fmt.Errorf("ADVISOR_TIMEOUT: %w", err)
	}
	if cfg.TimeControl, err = time.ParseDuration(getEnv("TIME_CONTROL", "10m")); err != nil {
		return cfg, fmt.Errorf("TIME_CONTROL: %w", err)
	}
	if cfg.Rules.MenCaptureBackward, err = strconv.ParseBool(getEnv("MEN_CAPTURE_BACKWARD", "false")); err != nil {
		return cfg, fmt.Errorf("MEN_CAPTURE_BACKWARD: %w", err)
	}
	if cfg.StartingSide, err = checkers.ParseColor(getEnv("STARTING_SIDE", "light")); err != nil {
		return cfg, fmt.Errorf("STARTING_SIDE: %w", err)
	}
	switch cfg.AdvisorFallback {
	case FallbackNone, FallbackFirst:
	default:
		return cfg, fmt.Errorf("ADVISOR_FALLBACK: want %q or %q, got %q", FallbackNone, FallbackFirst, cfg.AdvisorFallback)
	}
	return cfg, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
