// Package config loads and watches the agent's YAML configuration.
// Missing files yield defaults; environment variables override the
// file for the secrets and paths deployments care about.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"grindbot/internal/goals"
)

// Config holds all grindbot configuration.
type Config struct {
	// API configures the game server connection.
	API APIConfig `yaml:"api"`

	// Data configures where persistent state lives.
	Data DataConfig `yaml:"data"`

	// Loop tunes the play loop.
	Loop LoopConfig `yaml:"loop"`

	// Planner tunes the action search.
	Planner PlannerConfig `yaml:"planner"`

	// Goals tunes goal-selection gates.
	Goals goals.Thresholds `yaml:"goals"`

	// Knowledge tunes the combat-viability policy.
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Logging configures the categorized file logger.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the game server connection.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token; usually supplied via GRINDBOT_TOKEN
	// or the token file, not the config.
	Token string `yaml:"token"`

	// TokenFile is read when Token is empty.
	TokenFile string `yaml:"token_file"`

	Timeout string `yaml:"timeout"`
}

// DataConfig configures persistent state locations.
type DataConfig struct {
	// Prefix is the directory holding all per-character state. Empty
	// means the current working directory.
	Prefix string `yaml:"prefix"`
}

// LoopConfig tunes the play loop.
type LoopConfig struct {
	// SaveInterval is how often dirty caches flush to disk.
	SaveInterval string `yaml:"save_interval"`

	// SnapshotTTL is how long a character snapshot stays trusted
	// without a refresh.
	SnapshotTTL string `yaml:"snapshot_ttl"`

	// SearchRadius bounds expanding-ring map searches.
	SearchRadius int `yaml:"search_radius"`

	// MaxRuntime bounds a session's total run time; zero means
	// unbounded.
	MaxRuntime string `yaml:"max_runtime"`
}

// PlannerConfig tunes the action search.
type PlannerConfig struct {
	MaxNodes int `yaml:"max_nodes"`
}

// KnowledgeConfig tunes the combat-viability policy.
type KnowledgeConfig struct {
	MinCombatResults          int     `yaml:"min_combat_results"`
	UnknownMonsterLevelMargin int     `yaml:"unknown_monster_level_margin"`
	MinWinRate                float64 `yaml:"min_win_rate"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.artifactsmmo.com",
			TokenFile: "TOKEN",
			Timeout:   "30s",
		},
		Data: DataConfig{
			Prefix: "",
		},
		Loop: LoopConfig{
			SaveInterval: "300s",
			SnapshotTTL:  "60s",
			SearchRadius: 10,
			MaxRuntime:   "0",
		},
		Planner: PlannerConfig{
			MaxNodes: 10000,
		},
		Goals: goals.DefaultThresholds(),
		Knowledge: KnowledgeConfig{
			MinCombatResults:          2,
			UnknownMonsterLevelMargin: 2,
			MinWinRate:                0.5,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// Load loads configuration from a YAML file. A missing file returns
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("GRINDBOT_TOKEN"); token != "" {
		c.API.Token = token
	}
	if url := os.Getenv("GRINDBOT_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if prefix := os.Getenv("DATA_PREFIX"); prefix != "" {
		c.Data.Prefix = prefix
	}
}

// ResolveToken returns the API token, reading the token file when the
// config carries none.
func (c *Config) ResolveToken() (string, error) {
	if c.API.Token != "" {
		return c.API.Token, nil
	}
	if c.API.TokenFile == "" {
		return "", fmt.Errorf("no API token configured")
	}
	data, err := os.ReadFile(c.API.TokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", c.API.TokenFile, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", c.API.TokenFile)
	}
	return token, nil
}

// CharacterDir returns the per-character state directory.
func (c *Config) CharacterDir(name string) string {
	return filepath.Join(c.Data.Prefix, name)
}

// GetAPITimeout returns the HTTP timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetSaveInterval returns the persistence flush interval.
func (c *Config) GetSaveInterval() time.Duration {
	d, err := time.ParseDuration(c.Loop.SaveInterval)
	if err != nil {
		return 300 * time.Second
	}
	return d
}

// GetMaxRuntime returns the session runtime bound, zero for unbounded.
func (c *Config) GetMaxRuntime() time.Duration {
	d, err := time.ParseDuration(c.Loop.MaxRuntime)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetSnapshotTTL returns how long a character snapshot stays trusted.
func (c *Config) GetSnapshotTTL() time.Duration {
	d, err := time.ParseDuration(c.Loop.SnapshotTTL)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
