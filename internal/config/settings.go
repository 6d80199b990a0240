package config

import (
	"os"
	"strings"
)

// Environment variables read by LoadSettings.
const (
	EnvToken     = "PANDASCORE_API_TOKEN"
	EnvBaseURL   = "PANDASCORE_BASE_URL"
	EnvOutputDir = "ESPORT_ICS_OUTPUT"
	EnvPublicURL = "ESPORT_ICS_PUBLIC_URL"
	EnvLogLevel  = "LOG_LEVEL"
)

const (
	DefaultBaseURL   = "https://api.pandascore.co"
	DefaultOutputDir = "ics"
	DefaultIndexPath = "index.html"
	DefaultPublicURL = "https://raw.githubusercontent.com/snutij/esport_ics/main/ics"
)

// Settings are the runtime values shared by every command. CLI flags
// override what LoadSettings reads from the environment.
type Settings struct {
	Token     string
	BaseURL   string
	OutputDir string
	IndexPath string
	PublicURL string
	LogLevel  string
}

// LoadSettings reads settings from the environment, applying defaults.
// A missing token is not an error here; the schedule client rejects it
// before making any request.
func LoadSettings() Settings {
	return Settings{
		Token:     strings.TrimSpace(os.Getenv(EnvToken)),
		BaseURL:   envOr(EnvBaseURL, DefaultBaseURL),
		OutputDir: envOr(EnvOutputDir, DefaultOutputDir),
		IndexPath: DefaultIndexPath,
		PublicURL: strings.TrimRight(envOr(EnvPublicURL, DefaultPublicURL), "/"),
		LogLevel:  os.Getenv(EnvLogLevel),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
