// Package config reads the environment once at startup and hands each
// service an immutable configuration value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultNATSSubject   = "agents.events"
)

// Image backends.
const (
	BackendAgent  = "agent"
	BackendDirect = "direct"
)

// Common holds settings shared by every service.
type Common struct {
	Port          string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Events        Events
}

// Events configures the optional outcome event sinks. Empty values disable a sink.
type Events struct {
	SinkURL     string
	NATSURL     string
	NATSSubject string
}

type Image struct {
	Common
	ControllerModel string
	Backend         string
}

type Voice struct {
	Common
	DefaultModel   string
	DefaultVoice   string
	AllowedOrigins []string
	SessionTimeout time.Duration
}

type Search struct {
	Common
	AgentModel string
}

// LoadDotEnv loads a .env file from the working directory when one exists.
// Variables already set in the process environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func loadCommon(defaultPort string) Common {
	return Common{
		Port:          getEnv("PORT", defaultPort),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: strings.TrimRight(getEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL), "/"),
		Events: Events{
			SinkURL:     getEnv("EVENTS_SINK_URL", getEnv("K_SINK", "")),
			NATSURL:     getEnv("NATS_URL", ""),
			NATSSubject: getEnv("EVENTS_NATS_SUBJECT", DefaultNATSSubject),
		},
	}
}

func LoadImage() (*Image, error) {
	cfg := &Image{
		Common:          loadCommon("9600"),
		ControllerModel: getEnv("IMAGE_CONTROLLER_MODEL", "gpt-5-mini"),
		Backend:         strings.ToLower(getEnv("IMAGE_BACKEND", BackendAgent)),
	}
	switch cfg.Backend {
	case BackendAgent, BackendDirect:
	default:
		return nil, fmt.Errorf("IMAGE_BACKEND must be %q or %q, got %q", BackendAgent, BackendDirect, cfg.Backend)
	}
	return cfg, nil
}

func LoadVoice() (*Voice, error) {
	return &Voice{
		Common:         loadCommon("9601"),
		DefaultModel:   getEnv("DEFAULT_MODEL", "gpt-4o-realtime-preview-2025-06-03"),
		DefaultVoice:   getEnv("DEFAULT_VOICE", "alloy"),
		AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "*")),
		SessionTimeout: 20 * time.Second,
	}, nil
}

func LoadSearch() (*Search, error) {
	return &Search{
		Common:     loadCommon("9602"),
		AgentModel: getEnv("WEB_AGENT_MODEL", "gpt-5-mini"),
	}, nil
}

// splitOrigins splits a comma separated origin list. A list that collapses to
// nothing means "any origin".
func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
