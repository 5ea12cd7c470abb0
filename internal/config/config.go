// Package config handles configuration loading for codex-flow.
// It supports XDG config paths, project-level overrides, and environment
// variables, with all defaults centralized in setDefaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a codex-flow process.
type Config struct {
	Backends  BackendsConfig  `mapstructure:"backends"`
	Selector  SelectorConfig  `mapstructure:"selector"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	LogDir    string          `mapstructure:"log_dir"`
}

// BackendsConfig holds credentials and endpoints for generative backends.
// Backends are tried in priority order: Anthropic API, AWS Bedrock, local
// Ollama, then the command-line executor.
type BackendsConfig struct {
	// AnthropicAPIKey is the Anthropic API key. Falls back to the
	// ANTHROPIC_API_KEY environment variable.
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	// AnthropicModel is the model identifier for the Anthropic backend.
	AnthropicModel string `mapstructure:"anthropic_model"`
	// AWSRegion enables the Bedrock backend when set.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS shared-config profile.
	AWSProfile string `mapstructure:"aws_profile"`
	// OllamaURL is the base URL of a local Ollama server.
	OllamaURL string `mapstructure:"ollama_url"`
	// OllamaModel is the local model identifier.
	OllamaModel string `mapstructure:"ollama_model"`
	// CLICommand is the generic command-line executor invoked with the
	// prompt on stdin when no other backend is available.
	CLICommand string `mapstructure:"cli_command"`
}

// SelectorConfig holds agent selection settings.
type SelectorConfig struct {
	// Mode is the strategy: heuristic, rules or delegated.
	Mode string `mapstructure:"mode"`
	// MinAgents is the lower selection bound.
	MinAgents int `mapstructure:"min_agents"`
	// MaxAgents is the upper selection bound.
	MaxAgents int `mapstructure:"max_agents"`
}

// ExecutorConfig holds execution adapter settings.
type ExecutorConfig struct {
	// TaskTimeout is the per-task deadline for the timeout wrapper.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// RemoteEndpoint is the remote compute runtime URL, empty for none.
	RemoteEndpoint string `mapstructure:"remote_endpoint"`
	// StrictTools enables tool policy enforcement.
	StrictTools bool `mapstructure:"strict_tools"`
	// Verbose surfaces remote-fallback warnings.
	Verbose bool `mapstructure:"verbose"`
}

// MemoryConfig selects and tunes the memory collaborator.
type MemoryConfig struct {
	// Driver is "file" or "redis".
	Driver string `mapstructure:"driver"`
	// Dir is the root directory for the file store.
	Dir string `mapstructure:"dir"`
	// RedisAddr is the host:port of the redis store.
	RedisAddr string `mapstructure:"redis_addr"`
	// RedisPassword is the optional redis auth password.
	RedisPassword string `mapstructure:"redis_password"`
	// MaxEntries caps entries retained per session key.
	MaxEntries int `mapstructure:"max_entries"`
	// TTL is the redis key time-to-live.
	TTL time.Duration `mapstructure:"ttl"`
}

// WorkspaceConfig holds per-run workspace settings.
type WorkspaceConfig struct {
	// Root is the directory holding per-(alias,task) workspaces.
	Root string `mapstructure:"root"`
	// Retention is how many workspaces to keep per alias.
	Retention int `mapstructure:"retention"`
}

// CatalogConfig locates the agent catalog.
type CatalogConfig struct {
	// Path is the YAML catalog file.
	Path string `mapstructure:"path"`
	// Watch enables hot reload of the catalog file.
	Watch bool `mapstructure:"watch"`
}

// LedgerConfig locates the audit ledger database.
type LedgerConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
//  1. Environment variables (CODEXFLOW_*, ANTHROPIC_API_KEY)
//  2. Project config (.codexflow.yaml in the current directory or a parent)
//  3. User config (~/.config/codexflow/config.yaml)
//  4. Built-in defaults
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
		pv := viper.New()
		pv.SetConfigFile(projectConfig)
		if err := pv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("CODEXFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("backends.anthropic_api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("backends.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
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
	return cfg, nil
}

// setDefaults configures built-in defaults. This is the single place where
// default values live; call sites must not re-default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backends.anthropic_model", "claude-sonnet-4-20250514")
	v.SetDefault("backends.ollama_url", "http://127.0.0.1:11434")
	v.SetDefault("backends.ollama_model", "llama3.2")
	v.SetDefault("backends.cli_command", "")

	v.SetDefault("selector.mode", "heuristic")
	v.SetDefault("selector.min_agents", 2)
	v.SetDefault("selector.max_agents", 5)

	v.SetDefault("executor.task_timeout", 10*time.Minute)
	v.SetDefault("executor.remote_endpoint", "")
	v.SetDefault("executor.strict_tools", false)
	v.SetDefault("executor.verbose", false)

	v.SetDefault("memory.driver", "file")
	v.SetDefault("memory.dir", filepath.Join(dataDir(), "memory"))
	v.SetDefault("memory.redis_addr", "127.0.0.1:6379")
	v.SetDefault("memory.max_entries", 200)
	v.SetDefault("memory.ttl", 24*time.Hour)

	v.SetDefault("workspace.root", filepath.Join(dataDir(), "runs"))
	v.SetDefault("workspace.retention", 5)

	v.SetDefault("catalog.path", ".codexflow/agents.yaml")
	v.SetDefault("catalog.watch", false)

	v.SetDefault("ledger.path", filepath.Join(dataDir(), "codexflow.db"))
	v.SetDefault("log_dir", filepath.Join(dataDir(), "logs"))
}

// userConfigDir returns the XDG config directory for codexflow.
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codexflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "codexflow")
}

// dataDir returns the XDG data directory for codexflow.
func dataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "codexflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "codexflow")
}

// findProjectConfig walks up from the current directory looking for a
// .codexflow.yaml file.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".codexflow.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
