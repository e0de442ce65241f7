package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty path searches the default
// locations instead.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "NOTEMOVER",
	}
}

// Load reads configuration from file and environment, on top of defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v)

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	} else {
		v.SetConfigName("notemover")
		v.SetConfigType("json")
		for _, dir := range l.defaultDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
			// No config file found: defaults plus env only.
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers defaults so env-only keys resolve.
func (l *Loader) setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("vault.path", def.Vault.Path)
	v.SetDefault("vault.excludes", def.Vault.Excludes)
	v.SetDefault("rules.settings_file", def.Rules.SettingsFile)
	v.SetDefault("rules.enable_rule_v2", def.Rules.EnableRuleV2)
	v.SetDefault("rules.max_group_depth", def.Rules.MaxGroupDepth)
	v.SetDefault("history.backend", def.History.Backend)
	v.SetDefault("history.file", def.History.File)
	v.SetDefault("history.max_entries", def.History.MaxEntries)
	v.SetDefault("history.retention_value", def.History.RetentionValue)
	v.SetDefault("history.retention_unit", def.History.RetentionUnit)
	v.SetDefault("history.duplicate_window", def.History.DuplicateWindow)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)
}

// defaultDirs returns default config file locations.
func (l *Loader) defaultDirs() []string {
	dirs := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(homeDir, ".config", "notemover"),
			filepath.Join(homeDir, ".notemover"),
		)
	}

	return dirs
}
