// Package config handles configuration loading and management for Venom.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the orchestration daemon.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Session   SessionConfig   `mapstructure:"session"`
	Flows     FlowsConfig     `mapstructure:"flows"`
	Kernel    KernelConfig    `mapstructure:"kernel"`
	Server    ServerConfig    `mapstructure:"server"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. ${VAR} references are expanded.
	APIKey string `mapstructure:"api_key"`
	// UseAWSBedrock routes generation through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// QueueConfig holds task queue and worker pool settings.
type QueueConfig struct {
	// Capacity is the maximum number of queued tasks across all classes.
	// Submissions beyond capacity fail immediately; callers must back off.
	Capacity int `mapstructure:"capacity"`
	// Workers is the size of the dispatch worker pool.
	Workers int `mapstructure:"workers"`
}

// SessionConfig holds session context assembly settings.
type SessionConfig struct {
	// HistoryThreshold is the turn count above which the rolling summary
	// replaces the oldest turns.
	HistoryThreshold int `mapstructure:"history_threshold"`
	// TrimTarget is the turn count a session is trimmed down to, counting
	// the summary turn.
	TrimTarget int `mapstructure:"trim_target"`
	// CharThreshold is the total character count that also triggers
	// summarization.
	CharThreshold int `mapstructure:"char_threshold"`
	// ContextTurns is the number of recent turns included in a context block.
	ContextTurns int `mapstructure:"context_turns"`
	// MemorySnippets caps the long-term memory snippets per context block.
	MemorySnippets int `mapstructure:"memory_snippets"`
	// SnippetMaxChars caps each memory snippet's length.
	SnippetMaxChars int `mapstructure:"snippet_max_chars"`
}

// FlowsConfig holds flow execution bounds.
type FlowsConfig struct {
	// Budget is the wall-clock budget for a single flow execution.
	Budget time.Duration `mapstructure:"budget"`
	// MaxReviewIterations bounds the generate-review-revise loop.
	MaxReviewIterations int `mapstructure:"max_review_iterations"`
	// MaxHealingRetries bounds healing cycle attempts.
	MaxHealingRetries int `mapstructure:"max_healing_retries"`
	// HealingBackoffBase is the first backoff delay; it doubles per attempt.
	HealingBackoffBase time.Duration `mapstructure:"healing_backoff_base"`
	// CouncilSize is the number of parallel council candidates.
	CouncilSize int `mapstructure:"council_size"`
	// MaxCampaignSteps bounds campaign sub-task sequences.
	MaxCampaignSteps int `mapstructure:"max_campaign_steps"`
	// RoadmapPath is the YAML roadmap file for campaign mode.
	RoadmapPath string `mapstructure:"roadmap_path"`
}

// KernelConfig holds the reasoning kernel configuration. Model and decoding
// fields participate in the drift hash; the rest do not.
type KernelConfig struct {
	// Model is the active model identifier.
	Model string `mapstructure:"model"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// TopP is the nucleus sampling parameter.
	TopP float64 `mapstructure:"top_p"`
	// MaxTokens caps generation length.
	MaxTokens int `mapstructure:"max_tokens"`
}

// ServerConfig holds control plane HTTP settings.
type ServerConfig struct {
	// Addr is the listen address for the control plane (e.g. ":8787").
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (VENOM_*, ANTHROPIC_API_KEY)
// 2. Project config (.venom.yaml in current directory or a parent)
// 3. User config (~/.config/venom/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("VENOM")
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing and
// the --config flag).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// Default returns the built-in default configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(cfg)
	return cfg
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("queue.capacity", 128)
	v.SetDefault("queue.workers", 4)

	v.SetDefault("session.history_threshold", 20)
	v.SetDefault("session.trim_target", 8)
	v.SetDefault("session.char_threshold", 24000)
	v.SetDefault("session.context_turns", 10)
	v.SetDefault("session.memory_snippets", 5)
	v.SetDefault("session.snippet_max_chars", 600)

	v.SetDefault("flows.budget", "10m")
	v.SetDefault("flows.max_review_iterations", 3)
	v.SetDefault("flows.max_healing_retries", 3)
	v.SetDefault("flows.healing_backoff_base", "2s")
	v.SetDefault("flows.council_size", 3)
	v.SetDefault("flows.max_campaign_steps", 10)
	v.SetDefault("flows.roadmap_path", "")

	v.SetDefault("kernel.model", "claude-sonnet-4-20250514")
	v.SetDefault("kernel.temperature", 0.7)
	v.SetDefault("kernel.top_p", 1.0)
	v.SetDefault("kernel.max_tokens", 8192)

	v.SetDefault("server.addr", ":8787")
}

// userConfigDir returns the XDG config directory for Venom.
func userConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "venom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "venom")
	}
	return filepath.Join(home, ".config", "venom")
}

// findProjectConfig searches for .venom.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".venom.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// expandEnv expands ${VAR} references in a config value.
func expandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
