package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	AI          AIConfig          `yaml:"ai"`
	Paywall     PaywallConfig     `yaml:"paywall"`
	Leads       LeadsConfig       `yaml:"leads"`
	Admin       AdminConfig       `yaml:"admin"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AIConfig selects and configures the generation backend.
// Provider is "openai" (any OpenAI-compatible endpoint) or "gemini".
type AIConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	GeminiBaseURL  string `yaml:"gemini_base_url"`
	GeminiModel    string `yaml:"gemini_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type PaywallConfig struct {
	CheckoutURL string `yaml:"checkout_url"`
	AdminEmail  string `yaml:"admin_email"`
	SessionDays int    `yaml:"session_days"`
}

type LeadsConfig struct {
	Path      string `yaml:"path"`
	Notify    bool   `yaml:"notify"`
	SESRegion string `yaml:"ses_region"`
	SESFrom   string `yaml:"ses_from"`
}

type AdminConfig struct {
	Token string `yaml:"token"`
}

type MaintenanceConfig struct {
	IntervalMinutes         int `yaml:"interval_minutes"`
	GenerationRetentionDays int `yaml:"generation_retention_days"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
		},
		Database: DatabaseConfig{
			Path: "./reelforge.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		AI: AIConfig{
			Provider:       "openai",
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			GeminiBaseURL:  "https://generativelanguage.googleapis.com/v1beta",
			GeminiModel:    "gemini-2.5-flash",
			TimeoutSeconds: 90,
		},
		Paywall: PaywallConfig{
			SessionDays: 30,
		},
		Leads: LeadsConfig{
			Path:      "leads.csv",
			SESRegion: "us-east-1",
		},
		Maintenance: MaintenanceConfig{
			IntervalMinutes:         60,
			GenerationRetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and merges it over defaults, then applies
// secrets from the environment (and a .env file, if present).
// If the config file does not exist, defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	// A missing .env is normal; secrets may already be in the environment.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
		slog.Info("No config file found, using defaults", "path", path)
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// applyEnv overrides secrets and deployment-specific values from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.AI.APIKey, "OPENAI_API_KEY")
	set(&c.AI.BaseURL, "OPENAI_BASE_URL")
	set(&c.AI.Model, "OPENAI_MODEL")
	set(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	set(&c.AI.Provider, "REELFORGE_AI_PROVIDER")
	set(&c.Paywall.CheckoutURL, "STRIPE_CHECKOUT_URL")
	set(&c.Paywall.AdminEmail, "ADMIN_EMAIL")
	set(&c.Admin.Token, "REELFORGE_ADMIN_TOKEN")
}
