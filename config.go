package parley

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mosswell/parley/defaults"
)

// Config represents the user's parley configuration.
type Config struct {
	ModelPath     string `toml:"model_path"`
	TokenizerPath string `toml:"tokenizer_path"`

	Generation GenerationConfig `toml:"generation"`
	History    HistoryConfig    `toml:"history"`
	Recall     RecallConfig     `toml:"recall"`
}

// GenerationConfig holds sampler and decode-loop settings.
type GenerationConfig struct {
	Seed int64 `toml:"seed"`
	// Temperature scales logits before sampling. 0 means greedy argmax,
	// so the field is nullable to tell "explicitly 0" from "unset".
	Temperature   *float64 `toml:"temperature"`
	TopP          float64  `toml:"top_p"`
	RepeatPenalty float64  `toml:"repeat_penalty"`
	RepeatLastN   int      `toml:"repeat_last_n"`
	// EOSToken is the end-of-statement token id. Unset means it must be
	// resolved from model metadata; 0 is a valid id.
	EOSToken *int `toml:"eos_token"`
	// MaxTokens caps generation length. 0 means unbounded.
	MaxTokens        int    `toml:"max_tokens"`
	Template         string `toml:"template"`
	SystemPromptFile string `toml:"system_prompt_file"`
}

// HistoryConfig holds chat-history settings.
type HistoryConfig struct {
	// Budget is the rough token count retained before oldest turns are
	// evicted. Should not exceed the model's context size.
	Budget int `toml:"budget"`
	// File is the history file path; empty means <config dir>/history.jsonl.
	File string `toml:"file"`
	// Disabled turns chat history off entirely.
	Disabled bool `toml:"disabled"`
	// Incognito keeps history active in memory but never saves it.
	Incognito bool `toml:"incognito"`
	// RememberReplies records assistant replies into history, not just
	// user turns. Defaults to true.
	RememberReplies *bool `toml:"remember_replies"`
}

// RecallConfig holds settings for the semantic recall index.
type RecallConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	TopK       int    `toml:"top_k"`
	TTLMinutes int    `toml:"ttl_minutes"`
}

// ConfigDir returns the config directory path.
// Resolution order: $PARLEY_CONFIG_DIR > $XDG_CONFIG_HOME/parley > ~/.config/parley
func ConfigDir() string {
	if dir := os.Getenv("PARLEY_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "parley")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "parley-config")
	}
	return filepath.Join(home, ".config", "parley")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// HistoryPath returns the configured history file path, or the default
// location under the config directory.
func HistoryPath(cfg *Config) string {
	if cfg != nil && cfg.History.File != "" {
		return cfg.History.File
	}
	return filepath.Join(ConfigDir(), "history.jsonl")
}

// RecallCachePath returns the path of the persisted recall index.
func RecallCachePath() string {
	return filepath.Join(ConfigDir(), "recall.json")
}

// DefaultConfig returns the default configuration from the embedded
// default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if err := toml.Unmarshal(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("parley: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Apply defaults for missing fields
	def := DefaultConfig()
	if cfg.Generation.Seed == 0 {
		cfg.Generation.Seed = def.Generation.Seed
	}
	if cfg.Generation.Temperature == nil {
		cfg.Generation.Temperature = def.Generation.Temperature
	}
	if cfg.Generation.RepeatPenalty == 0 {
		cfg.Generation.RepeatPenalty = def.Generation.RepeatPenalty
	}
	if cfg.Generation.RepeatLastN == 0 {
		cfg.Generation.RepeatLastN = def.Generation.RepeatLastN
	}
	if cfg.Generation.Template == "" {
		cfg.Generation.Template = def.Generation.Template
	}
	if cfg.History.Budget == 0 {
		cfg.History.Budget = def.History.Budget
	}
	if cfg.Recall.Model == "" {
		cfg.Recall.Model = def.Recall.Model
	}
	if cfg.Recall.TopK == 0 {
		cfg.Recall.TopK = def.Recall.TopK
	}
	if cfg.Recall.TTLMinutes == 0 {
		cfg.Recall.TTLMinutes = def.Recall.TTLMinutes
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if t := cfg.Generation.Temperature; t != nil && *t < 0 {
		warnings = append(warnings, "generation.temperature is negative; sampling will behave as greedy argmax")
	}
	if p := cfg.Generation.TopP; p < 0 || p > 1 {
		warnings = append(warnings, "generation.top_p outside [0,1]; nucleus sampling is disabled")
	}
	if cfg.Generation.RepeatPenalty != 0 && cfg.Generation.RepeatPenalty < 1 {
		warnings = append(warnings, "generation.repeat_penalty below 1.0 rewards repetition instead of penalizing it")
	}
	if !cfg.History.Disabled && cfg.History.Budget <= 0 {
		warnings = append(warnings, "history.budget must be positive when history is enabled")
	}
	if cfg.Recall.BaseURL != "" && ResolveRecallAPIKey(cfg) == "" {
		warnings = append(warnings, "recall.base_url is set but no API key is configured; recall context will be unavailable")
	}
	return warnings
}

// ResolveModelPath returns the GGUF model path.
// Priority: $PARLEY_MODEL_PATH env > config value.
func ResolveModelPath(cfg *Config) string {
	if path := os.Getenv("PARLEY_MODEL_PATH"); path != "" {
		return path
	}
	if cfg != nil {
		return cfg.ModelPath
	}
	return ""
}

// ResolveTokenizerPath returns the tokenizer data file path.
// Priority: $PARLEY_TOKENIZER_PATH env > config value > tokenizer.json
// next to the model file.
func ResolveTokenizerPath(cfg *Config) string {
	if path := os.Getenv("PARLEY_TOKENIZER_PATH"); path != "" {
		return path
	}
	if cfg != nil && cfg.TokenizerPath != "" {
		return cfg.TokenizerPath
	}
	if mp := ResolveModelPath(cfg); mp != "" {
		return filepath.Join(filepath.Dir(mp), "tokenizer.json")
	}
	return ""
}

// ResolveRecallBaseURL returns the embeddings API base URL.
// Priority: $PARLEY_RECALL_API_BASE_URL env > config value.
func ResolveRecallBaseURL(cfg *Config) string {
	if url := os.Getenv("PARLEY_RECALL_API_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Recall.BaseURL
	}
	return ""
}

// ResolveRecallAPIKey returns the embeddings API key.
// Priority: $PARLEY_RECALL_API_KEY env > config value.
func ResolveRecallAPIKey(cfg *Config) string {
	if key := os.Getenv("PARLEY_RECALL_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Recall.APIKey
	}
	return ""
}

// RecallEnabled returns true when both base_url and api_key are configured
// for the recall index.
func RecallEnabled(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return ResolveRecallBaseURL(cfg) != "" && ResolveRecallAPIKey(cfg) != ""
}

// Temperature returns the configured sampling temperature.
func Temperature(cfg *Config) float64 {
	if cfg == nil || cfg.Generation.Temperature == nil {
		return 0.7
	}
	return *cfg.Generation.Temperature
}

// EOSToken returns the configured EOS token id, or -1 when unset.
func EOSToken(cfg *Config) int {
	if cfg == nil || cfg.Generation.EOSToken == nil {
		return -1
	}
	return *cfg.Generation.EOSToken
}

// RememberReplies returns whether assistant replies are recorded into
// history. Defaults to true.
func RememberReplies(cfg *Config) bool {
	if cfg == nil || cfg.History.RememberReplies == nil {
		return true
	}
	return *cfg.History.RememberReplies
}

// SystemPrompt returns the system prompt text: the configured prompt file
// if readable, otherwise the embedded default.
func SystemPrompt(cfg *Config) string {
	if cfg != nil && cfg.Generation.SystemPromptFile != "" {
		data, err := os.ReadFile(cfg.Generation.SystemPromptFile)
		if err == nil {
			return string(data)
		}
	}
	return defaults.DefaultSystemPrompt
}
