package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Vault location and exclusions
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// Rule engine behavior
	Rules RulesConfig `json:"rules" mapstructure:"rules"`

	// Move history ledger
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// VaultConfig locates the vault and scopes which notes are organized.
type VaultConfig struct {
	Path string `json:"path" mapstructure:"path"`

	// Exclusion expressions: notes whose path matches any are never moved.
	Excludes []string `json:"excludes,omitempty" mapstructure:"excludes"`
}

// RulesConfig controls which rule engine runs.
type RulesConfig struct {
	// SettingsFile holds the persisted rules document.
	SettingsFile string `json:"settings_file" mapstructure:"settings_file"`

	// EnableRuleV2 selects the flat-trigger matcher over the legacy tree.
	EnableRuleV2 bool `json:"enable_rule_v2" mapstructure:"enable_rule_v2"`

	// MaxGroupDepth bounds legacy tree traversal.
	MaxGroupDepth int `json:"max_group_depth" mapstructure:"max_group_depth"`
}

// HistoryConfig controls the move-history ledger.
type HistoryConfig struct {
	Backend    string `json:"backend" mapstructure:"backend"` // json, sqlite
	File       string `json:"file" mapstructure:"file"`
	MaxEntries int    `json:"max_entries" mapstructure:"max_entries"`

	// Retention window; entries older than Value Units are swept.
	RetentionValue int    `json:"retention_value" mapstructure:"retention_value"`
	RetentionUnit  string `json:"retention_unit" mapstructure:"retention_unit"`

	// DuplicateWindow suppresses near-duplicate vault-event entries.
	DuplicateWindow time.Duration `json:"duplicate_window" mapstructure:"duplicate_window"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // empty = stderr
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".notemover"

	return &Config{
		Vault: VaultConfig{
			Path: ".",
		},
		Rules: RulesConfig{
			SettingsFile:  filepath.Join(dataDir, "rules.json"),
			EnableRuleV2:  true,
			MaxGroupDepth: 64,
		},
		History: HistoryConfig{
			Backend:         "json",
			File:            filepath.Join(dataDir, "history.json"),
			MaxEntries:      500,
			RetentionValue:  3,
			RetentionUnit:   "months",
			DuplicateWindow: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Vault.Path == "" {
		return errors.New("vault.path is required")
	}

	if c.Rules.SettingsFile == "" {
		return errors.New("rules.settings_file is required")
	}

	if c.Rules.MaxGroupDepth <= 0 {
		return errors.New("rules.max_group_depth must be positive")
	}

	switch c.History.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("invalid history backend: %s", c.History.Backend)
	}

	if c.History.MaxEntries <= 0 {
		return errors.New("history.max_entries must be positive")
	}

	if c.History.RetentionValue <= 0 {
		return errors.New("history.retention_value must be positive")
	}

	switch c.History.RetentionUnit {
	case "days", "weeks", "months":
	default:
		return fmt.Errorf("invalid retention unit: %s", c.History.RetentionUnit)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Rules.SettingsFile),
		filepath.Dir(c.History.File),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
