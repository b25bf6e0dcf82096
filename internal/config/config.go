// Package config loads and manages tabflow configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (LLM_API_KEY, LLM_BASE_URL, LLM_MODEL, ANTHROPIC_API_KEY, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/tabflow/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// BudgetConfig holds the per-purpose token budgets of one assembly.
type BudgetConfig struct {
	// CurrentFile is spent clipping the file being edited.
	CurrentFile int `yaml:"current_file"`

	// RecentDocs is chained across recently viewed documents.
	RecentDocs int `yaml:"recent_docs"`

	// DiffHistory bounds the edit-history diff section.
	DiffHistory int `yaml:"diff_history"`

	// LanguageContext bounds the caller-supplied language context block.
	LanguageContext int `yaml:"language_context"`
}

// PredictionConfig holds the context assembly settings.
type PredictionConfig struct {
	// Strategy: "tagged" (default) | "fixed-window"
	Strategy string `yaml:"strategy"`

	// PageSize is the number of lines per clip page.
	PageSize int `yaml:"page_size"`

	Budgets BudgetConfig `yaml:"budgets"`

	// MaxDiffEntries caps how many diffs the history section collects.
	// 0 means no cap.
	MaxDiffEntries int `yaml:"max_diff_entries"`

	// DiffOnlyForDocsInPrompt restricts diff history to documents
	// already present in the prompt.
	DiffOnlyForDocsInPrompt bool `yaml:"diff_only_for_docs_in_prompt"`

	// UseRelativePaths selects workspace-relative paths in diff headers.
	UseRelativePaths bool `yaml:"use_relative_paths"`

	// LineNumbers: "none" | "withSpace" | "withoutSpace"
	LineNumbers string `yaml:"line_numbers"`

	// PrioritizeAboveCursor spends the whole clip budget above the
	// cursor before growing downward.
	PrioritizeAboveCursor bool `yaml:"prioritize_above_cursor"`

	// WindowAbove / WindowBelow set the fixed-window geometry
	// (10/10 gives the standard 21-line window).
	WindowAbove int `yaml:"window_above"`
	WindowBelow int `yaml:"window_below"`
}

// ScoringConfig holds the happiness-score weights and thresholds.
type ScoringConfig struct {
	AcceptedScore float64 `yaml:"accepted_score"`
	RejectedScore float64 `yaml:"rejected_score"`
	IgnoredScore  float64 `yaml:"ignored_score"`

	HighThreshold   float64 `yaml:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold"`

	// AggressivenessOverride pins the level: "low" | "medium" | "high".
	// Empty derives it from history.
	AggressivenessOverride string `yaml:"aggressiveness_override"`

	LimitIgnored          bool `yaml:"limit_ignored"`
	MaxConsecutiveIgnored int  `yaml:"max_consecutive_ignored"`
	MaxTotalIgnored       int  `yaml:"max_total_ignored"`
}

// DebounceConfig holds the adaptive debounce settings.
type DebounceConfig struct {
	BaseMs         int     `yaml:"base_ms"`
	AcceptedFactor float64 `yaml:"accepted_factor"`
	RejectedFactor float64 `yaml:"rejected_factor"`
}

// Config is the complete configuration structure for tabflow.
type Config struct {
	// Provider is the active provider name (e.g. "openai", "anthropic", "deepseek")
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	Prediction PredictionConfig `yaml:"prediction"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Debounce   DebounceConfig   `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:  "openai",
		Providers: make(map[string]*ProviderConfig),
		Prediction: PredictionConfig{
			Strategy: "tagged",
			PageSize: 10,
			Budgets: BudgetConfig{
				CurrentFile:     2048,
				RecentDocs:      1024,
				DiffHistory:     1024,
				LanguageContext: 512,
			},
			MaxDiffEntries:          25,
			DiffOnlyForDocsInPrompt: false,
			UseRelativePaths:        true,
			LineNumbers:             "none",
			WindowAbove:             10,
			WindowBelow:             10,
		},
		Scoring: ScoringConfig{
			AcceptedScore:         1.0,
			RejectedScore:         0.0,
			IgnoredScore:          0.25,
			HighThreshold:         0.7,
			MediumThreshold:       0.4,
			LimitIgnored:          false,
			MaxConsecutiveIgnored: 2,
			MaxTotalIgnored:       4,
		},
		Debounce: DebounceConfig{
			BaseMs:         200,
			AcceptedFactor: 0.9,
			RejectedFactor: 1.3,
		},
	}
}

// DefaultPath returns ~/.config/tabflow/config.yaml, or "" when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tabflow", "config.yaml")
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = DefaultPath()
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}

	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an
// empty config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// Save marshals cfg and writes it to path, creating the directory as
// needed. An empty path targets the default location.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// KnownProviderBaseURLs maps well-known OpenAI-compatible provider
// names to their base URLs, so users only need an API key.
var KnownProviderBaseURLs = map[string]string{
	"openai":   "",
	"deepseek": "https://api.deepseek.com",
	"kimi":     "https://api.moonshot.cn/v1",
	"qwen":     "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"glm":      "https://open.bigmodel.cn/api/paas/v4",
	"doubao":   "https://ark.cn-beijing.volces.com/api/v3",
	"groq":     "https://api.groq.com/openai/v1",
	"minimax":  "https://api.minimax.chat/v1",
}

// KnownProviderModels maps well-known provider names to their default
// models.
var KnownProviderModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-20250514",
	"deepseek":  "deepseek-chat",
	"kimi":      "moonshot-v1-8k",
	"qwen":      "qwen-plus",
	"glm":       "glm-4-air",
	"doubao":    "doubao-pro-32k",
	"groq":      "llama-3.3-70b-versatile",
	"minimax":   "abab6.5s-chat",
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Generic overrides
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}

	// Anthropic-specific
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		if cfg.Providers["anthropic"] == nil {
			cfg.Providers["anthropic"] = &ProviderConfig{}
		}
		cfg.Providers["anthropic"].APIKey = v
	}

	// Provider selection
	if v := os.Getenv("TABFLOW_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("TABFLOW_MODEL"); v != "" {
		cfg.Model = v
	}
}
