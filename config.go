package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// defaultGeminiBaseURL is the production Gemini API endpoint. Overridable via
// GEMINI_BASE_URL so tests can point the client at a local mock server.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// config holds everything the server reads from the environment.
// SECRET_KEY verifies bearer tokens, GEMINI_API_KEY authenticates against the
// Gemini API, DB_URL points at PostgreSQL.
type config struct {
	secretKey          string
	geminiAPIKey       string
	dbURL              string
	geminiBaseURL      string
	frontendURL        string
	port               string
	sessionIdleTimeout time.Duration
}

// loadConfig reads configuration from the environment and validates that the
// required variables are present, so a misconfigured deployment fails at
// startup instead of on the first request.
func loadConfig() (config, error) {
	cfg := config{
		secretKey:          os.Getenv("SECRET_KEY"),
		geminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		dbURL:              os.Getenv("DB_URL"),
		geminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		frontendURL:        os.Getenv("FRONTEND_URL"),
		port:               os.Getenv("PORT"),
		sessionIdleTimeout: 30 * time.Minute,
	}
	if cfg.geminiBaseURL == "" {
		cfg.geminiBaseURL = defaultGeminiBaseURL
	}
	if cfg.port == "" {
		cfg.port = "8080"
	}
	if s := os.Getenv("SESSION_IDLE_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return config{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT %q, expected a positive duration like 30m", s)
		}
		cfg.sessionIdleTimeout = d
	}

	var missing []string
	for _, v := range []struct{ name, value string }{
		{"SECRET_KEY", cfg.secretKey},
		{"GEMINI_API_KEY", cfg.geminiAPIKey},
		{"DB_URL", cfg.dbURL},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}
