package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Frequency modes. Each mode fixes the recency cutoff and the per-group
// display cap.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

type Config struct {
	Frequency           string           `yaml:"frequency"`
	Schedule            string           `yaml:"schedule"`
	RunOnStart          bool             `yaml:"run_on_start"`
	MaxVideosPerChannel int              `yaml:"max_videos_per_channel"`
	MaxBullets          int              `yaml:"max_bullets"`
	Groups              []GroupConfig    `yaml:"groups"`
	Transcript          TranscriptConfig `yaml:"transcript"`
	Summarizer          SummarizerConfig `yaml:"summarizer"`
	Publisher           PublisherConfig  `yaml:"publisher"`
}

// GroupConfig is one named collection of channels aggregated into a single
// digest section.
type GroupConfig struct {
	ID       string          `yaml:"id"`
	Label    string          `yaml:"label"`
	Channels []ChannelConfig `yaml:"channels"`
}

type ChannelConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Placeholder reports whether the entry is an unfilled template line.
// Placeholder channels are skipped silently by policy.
func (c ChannelConfig) Placeholder() bool {
	if c.Name == "" || c.URL == "" {
		return true
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return true
	}
	return strings.Contains(c.URL, "CHANNEL_URL")
}

type TranscriptConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	MaxAttempts       int     `yaml:"max_attempts"`
	BaseDelayMs       int     `yaml:"base_delay_ms"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// BaseDelay returns the configured backoff base as a duration.
func (t TranscriptConfig) BaseDelay() time.Duration {
	return time.Duration(t.BaseDelayMs) * time.Millisecond
}

type SummarizerConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type PublisherConfig struct {
	Type    string        `yaml:"type"`
	Email   EmailConfig   `yaml:"email"`
	Web     WebConfig     `yaml:"web"`
	Discord DiscordConfig `yaml:"discord"`
}

type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// MaxAgeDays returns the recency cutoff for the configured frequency mode.
func (c *Config) MaxAgeDays() int {
	if c.Frequency == FrequencyWeekly {
		return 8
	}
	return 2
}

// DisplayCap returns the per-group display cap for the configured frequency
// mode.
func (c *Config) DisplayCap() int {
	if c.Frequency == FrequencyWeekly {
		return 12
	}
	return 6
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Frequency == "" {
		cfg.Frequency = FrequencyDaily
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 8 * * *"
	}
	if cfg.MaxVideosPerChannel == 0 {
		cfg.MaxVideosPerChannel = 10
	}
	if cfg.MaxBullets == 0 {
		cfg.MaxBullets = 5
	}
	if cfg.Transcript.Provider == "" {
		cfg.Transcript.Provider = "transcriptapi"
	}
	if cfg.Transcript.BaseURL == "" {
		cfg.Transcript.BaseURL = "https://api.transcriptapi.com/v1/transcripts"
	}
	if cfg.Transcript.MaxAttempts == 0 {
		cfg.Transcript.MaxAttempts = 3
	}
	if cfg.Transcript.BaseDelayMs == 0 {
		cfg.Transcript.BaseDelayMs = 800
	}
	if cfg.Transcript.Concurrency == 0 {
		cfg.Transcript.Concurrency = 3
	}
	if cfg.Transcript.RequestsPerSecond == 0 {
		cfg.Transcript.RequestsPerSecond = 2
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4o-mini"
	}
	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "stdout"
	}
	if cfg.Publisher.Email.SMTPPort == 0 {
		cfg.Publisher.Email.SMTPPort = 587
	}
	if cfg.Publisher.Web.Addr == "" {
		cfg.Publisher.Web.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	switch cfg.Frequency {
	case FrequencyDaily, FrequencyWeekly:
	default:
		return fmt.Errorf("config: unsupported frequency %q (supported: daily, weekly)", cfg.Frequency)
	}
	if len(cfg.Groups) == 0 {
		return fmt.Errorf("config: at least one channel group is required")
	}
	for i, group := range cfg.Groups {
		if group.Label == "" {
			return fmt.Errorf("config: groups[%d].label is required", i)
		}
	}
	if cfg.Transcript.APIKey == "" {
		return fmt.Errorf("config: transcript.api_key is required (set TRANSCRIPT_API_KEY env var)")
	}
	if cfg.Summarizer.APIKey == "" {
		return fmt.Errorf("config: summarizer.api_key is required (set OPENAI_API_KEY env var)")
	}
	switch cfg.Publisher.Type {
	case "stdout", "email", "web", "discord":
	default:
		return fmt.Errorf("config: unsupported publisher type %q (supported: stdout, email, web, discord)", cfg.Publisher.Type)
	}
	if cfg.Publisher.Type == "email" {
		if cfg.Publisher.Email.SMTPHost == "" {
			return fmt.Errorf("config: publisher.email.smtp_host is required for email publisher")
		}
		if cfg.Publisher.Email.From == "" {
			return fmt.Errorf("config: publisher.email.from is required for email publisher")
		}
		if len(cfg.Publisher.Email.To) == 0 {
			return fmt.Errorf("config: publisher.email.to is required for email publisher")
		}
	}
	if cfg.Publisher.Type == "discord" && cfg.Publisher.Discord.WebhookURL == "" {
		return fmt.Errorf("config: publisher.discord.webhook_url is required for discord publisher")
	}
	return nil
}

// Load reads the config file, expands environment variables, applies
// defaults, and validates the configuration. This is the only fatal
// error surface in the pipeline: everything past a valid config degrades
// per channel or per video instead of failing the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
