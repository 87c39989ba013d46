package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the menu service.
// Environment variables are parsed from the MENU_COCKPIT_ prefix.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// DataDir is the root of all persisted JSON documents. Per-entity
	// directories are derived from it unless overridden.
	DataDir    string `envconfig:"DATA_DIR" default:"./data"`
	WeeksDir   string `envconfig:"WEEKS_DIR" default:""`
	RecipesDir string `envconfig:"RECIPES_DIR" default:""`
	ChatsDir   string `envconfig:"CHATS_DIR" default:""`
	JobsDir    string `envconfig:"JOBS_DIR" default:""`
	LogsDir    string `envconfig:"LOGS_DIR" default:""`

	// RulesFile is the YAML file copied verbatim into each prepared week's
	// rules_readonly block.
	RulesFile string `envconfig:"RULES_FILE" default:"./config/week_rules.yaml"`

	// DriveIndexFile is the rescan output consulted for duplicate titles.
	// Its absence means "no conflicts".
	DriveIndexFile string `envconfig:"DRIVE_INDEX_FILE" default:"./data/recettes_index.json"`

	// Timezone used to resolve the current week.
	Timezone string `envconfig:"TIMEZONE" default:"Europe/Paris"`

	// LLM Configuration (OpenAI-compatible completion endpoint)
	LLMBaseURL    string `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	LLMAPIKey     string `envconfig:"LLM_API_KEY" default:""`
	LLMModel      string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMTimeoutSec int    `envconfig:"LLM_TIMEOUT_SEC" default:"60"`

	// Drive rescan subprocess
	RescanScript         string `envconfig:"RESCAN_SCRIPT" default:"./scripts/recettes_rescan.py"`
	UploadScript         string `envconfig:"UPLOAD_SCRIPT" default:"./scripts/drive_recettes_upload.py"`
	RescanMinIntervalSec int    `envconfig:"RESCAN_MIN_INTERVAL_SEC" default:"60"`
	JobMaxRuntimeSec     int    `envconfig:"JOB_MAX_RUNTIME_SEC" default:"900"`
}

// ResolveDefaults derives per-entity directories from DataDir when they are
// not explicitly set, and validates timing knobs.
func (c *Config) ResolveDefaults() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	if c.WeeksDir == "" {
		c.WeeksDir = filepath.Join(c.DataDir, "weeks")
	}
	if c.RecipesDir == "" {
		c.RecipesDir = filepath.Join(c.DataDir, "recipes")
	}
	if c.ChatsDir == "" {
		c.ChatsDir = filepath.Join(c.DataDir, "chats")
	}
	if c.JobsDir == "" {
		c.JobsDir = filepath.Join(c.DataDir, "jobs")
	}
	if c.LogsDir == "" {
		c.LogsDir = filepath.Join(c.DataDir, "logs")
	}
	if c.RescanMinIntervalSec < 0 {
		return fmt.Errorf("RESCAN_MIN_INTERVAL_SEC must not be negative")
	}
	if c.JobMaxRuntimeSec <= 0 {
		return fmt.Errorf("JOB_MAX_RUNTIME_SEC must be positive")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with MENU_COCKPIT_, e.g. MENU_COCKPIT_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MENU_COCKPIT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
