package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/resumeforge/internal/review"
	"github.com/amishk599/resumeforge/internal/sections"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "RESUMEFORGE_CONFIG"

// DefaultPath is used when neither the flag nor EnvPath is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for resumeforge.
type Config struct {
	Database     DatabaseConfig
	Output       OutputConfig
	AI           AIConfig
	Review       ReviewConfig
	Sections     []sections.Marker
	Notification NotificationConfig
	Batch        BatchConfig
}

// DatabaseConfig locates the record store.
type DatabaseConfig struct {
	Path           string
	Timeout        time.Duration // per storage call
	RequiredFields []string
}

type OutputConfig struct {
	Dir string
	PDF bool // also render the resume and cover letter as PDF
}

// AIConfig controls the chat-completions client.
type AIConfig struct {
	BaseURL    string
	Model      string
	APIKey     string // expanded from env var by Load
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MinDelay   time.Duration // minimum gap between calls to the same model
}

// Validate reports whether the client can make live calls. It is checked only
// by commands that reach the model, so replaying a saved response needs no key.
func (a AIConfig) Validate() error {
	if a.APIKey == "" {
		return fmt.Errorf("ai.api_key is required (set OPENAI_API_KEY or pass --response-file)")
	}
	if a.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	return nil
}

type ReviewConfig struct {
	QualityThreshold float64
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

type BatchConfig struct {
	Concurrency int
}

const (
	defaultDBPath      = "data/database/resumeforge.db"
	defaultOutputDir   = "output"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	slackWebhookPrefix = "https://hooks.slack.com/"
)

// rawConfig mirrors the YAML layout with durations as strings.
type rawConfig struct {
	Database     rawDatabaseConfig  `yaml:"database"`
	Output       rawOutputConfig    `yaml:"output"`
	AI           rawAIConfig        `yaml:"ai"`
	Review       rawReviewConfig    `yaml:"review"`
	Sections     []sections.Marker  `yaml:"sections"`
	Notification NotificationConfig `yaml:"notification"`
	Batch        rawBatchConfig     `yaml:"batch"`
}

type rawDatabaseConfig struct {
	Path           string   `yaml:"path"`
	Timeout        string   `yaml:"timeout"`
	RequiredFields []string `yaml:"required_fields"`
}

type rawOutputConfig struct {
	Dir string `yaml:"dir"`
	PDF *bool  `yaml:"pdf"`
}

type rawAIConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Timeout    string `yaml:"timeout"`
	MaxRetries *int   `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
	MinDelay   string `yaml:"min_delay"`
}

type rawReviewConfig struct {
	QualityThreshold float64 `yaml:"quality_threshold"`
}

type rawBatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// ResolvePath picks the config file: the flag value, then EnvPath, then
// DefaultPath. explicit is false only for DefaultPath.
func ResolvePath(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// LoadOrDefault loads path; a missing file is tolerated when the path was not
// chosen explicitly, in which case the defaults apply.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Parse(nil)
	}
	return cfg, err
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults,
// and validates the result.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	dbTimeout, err := parseDuration("database.timeout", raw.Database.Timeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, 120*time.Second)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("ai.retry_delay", raw.AI.RetryDelay, 5*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("ai.min_delay", raw.AI.MinDelay, time.Second)
	if err != nil {
		return nil, err
	}

	maxRetries := 2
	if raw.AI.MaxRetries != nil {
		maxRetries = *raw.AI.MaxRetries
	}

	required := raw.Database.RequiredFields
	if required == nil {
		required = []string{"user_id", "session_id"}
	}

	markers := raw.Sections
	if len(markers) == 0 {
		markers = sections.DefaultMarkers()
	}

	threshold := raw.Review.QualityThreshold
	if threshold == 0 {
		threshold = review.DefaultThreshold
	}

	notif := raw.Notification
	if notif.Type == "" {
		notif.Type = "log"
	}

	pdf := true
	if raw.Output.PDF != nil {
		pdf = *raw.Output.PDF
	}

	concurrency := raw.Batch.Concurrency
	if concurrency == 0 {
		concurrency = 2
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Path:           withDefault(raw.Database.Path, defaultDBPath),
			Timeout:        dbTimeout,
			RequiredFields: required,
		},
		Output: OutputConfig{
			Dir: withDefault(raw.Output.Dir, defaultOutputDir),
			PDF: pdf,
		},
		AI: AIConfig{
			BaseURL:    strings.TrimRight(withDefault(raw.AI.BaseURL, defaultBaseURL), "/"),
			Model:      withDefault(raw.AI.Model, defaultModel),
			APIKey:     raw.AI.APIKey,
			Timeout:    aiTimeout,
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
			MinDelay:   minDelay,
		},
		Review:       ReviewConfig{QualityThreshold: threshold},
		Sections:     markers,
		Notification: notif,
		Batch:        BatchConfig{Concurrency: concurrency},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.Database.Timeout <= 0 {
		return fmt.Errorf("database.timeout must be positive, got %v", cfg.Database.Timeout)
	}
	if cfg.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive, got %v", cfg.AI.Timeout)
	}
	if cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", cfg.AI.MaxRetries)
	}
	if cfg.Review.QualityThreshold < 0 || cfg.Review.QualityThreshold > 1 {
		return fmt.Errorf("review.quality_threshold must be between 0 and 1, got %v", cfg.Review.QualityThreshold)
	}
	if cfg.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", cfg.Batch.Concurrency)
	}

	seen := make(map[string]bool, len(cfg.Sections))
	for _, m := range cfg.Sections {
		if !sections.KnownName(m.Name) {
			return fmt.Errorf("sections: unknown section name %q", m.Name)
		}
		if m.Literal == "" {
			return fmt.Errorf("sections: marker for %q must not be empty", m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("sections: %q listed more than once", m.Name)
		}
		seen[m.Name] = true
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
