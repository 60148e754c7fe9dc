// Package config layers the two configuration sources: process environment
// for deployment concerns (port, data paths) and a YAML settings file for
// divination behavior the operator tunes at runtime.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"liuyao/internal/models"
)

// Config holds deployment configuration from environment variables.
type Config struct {
	Port          string
	DataDir       string
	SettingsPath  string
	ProvidersPath string
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Port:          getEnv("PORT", "3001"),
		DataDir:       dataDir,
		SettingsPath:  getEnv("SETTINGS_PATH", "config.yaml"),
		ProvidersPath: getEnv("PROVIDERS_PATH", filepath.Join(dataDir, "providers.json")),
	}
}

// LimitSettings controls the per-user daily quota.
type LimitSettings struct {
	DailyMax  int    `yaml:"daily_max"`
	ResetHour int    `yaml:"reset_hour"`
	Timezone  string `yaml:"timezone"`
}

// LLMSettings toggles the model-backed interpretation layer. Provider
// credentials live in the separate providers file, not here.
type LLMSettings struct {
	Enabled bool `yaml:"enabled"`
}

// DisplaySettings picks the default hexagram rendering style.
type DisplaySettings struct {
	Style string `yaml:"style"`
}

// Settings is the operator-tunable YAML settings file.
type Settings struct {
	Limit      LimitSettings   `yaml:"limit"`
	LLM        LLMSettings     `yaml:"llm"`
	Display    DisplaySettings `yaml:"display"`
	AdminUsers []string        `yaml:"admin_users"`
	Debug      bool            `yaml:"debug"`
}

// DefaultSettings returns the settings written on first start.
func DefaultSettings() *Settings {
	return &Settings{
		Limit: LimitSettings{
			DailyMax:  3,
			ResetHour: 0,
			Timezone:  "Asia/Shanghai",
		},
		LLM:     LLMSettings{Enabled: false},
		Display: DisplaySettings{Style: "detailed"},
	}
}

// LoadSettings reads the YAML settings file, creating it with defaults if it
// does not exist. Absent fields fall back to their defaults so a stale file
// keeps working across upgrades.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		settings := DefaultSettings()
		if err := writeDefaultSettings(path, settings); err != nil {
			return nil, err
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	if settings.Limit.DailyMax == 0 {
		settings.Limit.DailyMax = 3
	}
	if settings.Limit.Timezone == "" {
		settings.Limit.Timezone = "Asia/Shanghai"
	}
	if settings.Display.Style == "" {
		settings.Display.Style = "detailed"
	}
	return settings, nil
}

// Validate reports configuration errors (reject the config) and warnings
// (log and continue).
func (s *Settings) Validate() (errs, warnings []string) {
	if s.Limit.DailyMax <= 0 {
		errs = append(errs, fmt.Sprintf("limit.daily_max must be positive, got %d", s.Limit.DailyMax))
	} else if s.Limit.DailyMax > 100 {
		warnings = append(warnings, fmt.Sprintf("limit.daily_max is very high (%d); 1-100 is the expected range", s.Limit.DailyMax))
	}
	if s.Limit.ResetHour < 0 || s.Limit.ResetHour > 23 {
		errs = append(errs, fmt.Sprintf("limit.reset_hour must be in 0-23, got %d", s.Limit.ResetHour))
	}

	switch s.Display.Style {
	case "simple", "traditional", "detailed":
	default:
		errs = append(errs, fmt.Sprintf("display.style must be simple, traditional or detailed, got %q", s.Display.Style))
	}

	for _, id := range s.AdminUsers {
		if id == "" {
			warnings = append(warnings, "admin_users contains an empty entry")
		}
	}
	return errs, warnings
}

// IsAdmin reports whether userID is in the admin list.
func (s *Settings) IsAdmin(userID string) bool {
	for _, id := range s.AdminUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// LoadProviders loads the model provider configuration from a JSON file. A
// missing file is not an error when the model layer is disabled, so the
// caller decides how hard to fail.
func LoadProviders(path string) (*models.ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var config models.ProvidersConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse providers JSON: %w", err)
	}
	return &config, nil
}

func writeDefaultSettings(path string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal default settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write default settings: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
