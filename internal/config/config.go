// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the Groq OpenAI-compatible backend and evaluation callback.
const (
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultDetectorModel = "llama-3.3-70b-versatile"
	DefaultAgentModel    = "llama3-70b-8192"
	DefaultCallbackURL   = "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	APIKey        string // shared secret for inbound webhook auth
	GroqAPIKey    string // empty enables the keyword/regex fallbacks
	GroqBaseURL   string
	DetectorModel string
	AgentModel    string
	CallbackURL   string
	ReportTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		APIKey:        getEnv("HONEYPOT_API_KEY", ""),
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", DefaultGroqBaseURL),
		DetectorModel: getEnv("DETECTOR_MODEL", DefaultDetectorModel),
		AgentModel:    getEnv("AGENT_MODEL", DefaultAgentModel),
		CallbackURL:   getEnv("GUVI_CALLBACK_URL", DefaultCallbackURL),
		ReportTimeout: time.Duration(getEnvInt("REPORT_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("HONEYPOT_API_KEY cannot be empty")
	}
	if c.GroqBaseURL == "" {
		return fmt.Errorf("GROQ_BASE_URL cannot be empty")
	}
	if c.ReportTimeout <= 0 {
		return fmt.Errorf("REPORT_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}

// LLMEnabled reports whether an LLM backend key is configured. Without one the
// detector and extractor use their keyword/regex fallbacks and the agent
// returns canned replies.
func (c *Config) LLMEnabled() bool {
	return c.GroqAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
