// Package config loads spice settings from viper and expands file paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/recurring"
	"github.com/Veraticus/spice-recurring/internal/service"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/spice/spice.db"

// Settings is the resolved configuration of one invocation.
type Settings struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Lexicon      []recurring.LexiconEntry
	Retry        service.RetryOptions
	Workers      int
}

// LexiconSetting is one entry of recurring.lexicon in the config file.
type LexiconSetting struct {
	Match    string `mapstructure:"match"`
	Label    string `mapstructure:"label"`
	Priority int    `mapstructure:"priority"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// BindEnv makes v read SPICE_* environment variables; database.path is
// SPICE_DATABASE_PATH.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SPICE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("recurring.workers", runtime.NumCPU())
	v.SetDefault("recurring.retry.max_attempts", 3)
	v.SetDefault("recurring.retry.initial_delay", 10*time.Millisecond)
	v.SetDefault("recurring.retry.max_delay", time.Second)
	v.SetDefault("recurring.retry.multiplier", 2.0)
}

// Load reads Settings from v. Lexicon entries from the config file extend
// the built-in lexicon; an entry with the same match replaces the built-in one.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		Workers:      v.GetInt("recurring.workers"),
		Retry: service.RetryOptions{
			MaxAttempts:  v.GetInt("recurring.retry.max_attempts"),
			InitialDelay: v.GetDuration("recurring.retry.initial_delay"),
			MaxDelay:     v.GetDuration("recurring.retry.max_delay"),
			Multiplier:   v.GetFloat64("recurring.retry.multiplier"),
		},
	}

	if s.DatabasePath == "" {
		s.DatabasePath = ExpandPath(DefaultDatabasePath)
	}
	if _, err := common.ParseLevel(s.LogLevel); err != nil {
		return s, err
	}
	if s.LogFormat != "console" && s.LogFormat != "json" {
		return s, fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, s.LogFormat)
	}
	if s.Workers < 1 {
		return s, fmt.Errorf("%w: recurring.workers must be at least 1, got %d", common.ErrInvalidConfig, s.Workers)
	}
	if s.Retry.MaxAttempts < 1 {
		return s, fmt.Errorf("%w: recurring.retry.max_attempts must be at least 1", common.ErrInvalidConfig)
	}

	var custom []LexiconSetting
	if err := v.UnmarshalKey("recurring.lexicon", &custom); err != nil {
		return s, fmt.Errorf("%w: recurring.lexicon: %w", common.ErrInvalidConfig, err)
	}
	lexicon, err := mergeLexicon(recurring.DefaultLexicon(), custom)
	if err != nil {
		return s, err
	}
	s.Lexicon = lexicon

	return s, nil
}

// EngineConfig converts the settings into an engine configuration.
func (s Settings) EngineConfig() recurring.Config {
	cfg := recurring.DefaultConfig()
	cfg.Lexicon = s.Lexicon
	cfg.Retry = s.Retry
	cfg.Workers = s.Workers
	return cfg
}

func mergeLexicon(base []recurring.LexiconEntry, custom []LexiconSetting) ([]recurring.LexiconEntry, error) {
	byMatch := make(map[string]int, len(base))
	merged := make([]recurring.LexiconEntry, 0, len(base)+len(custom))
	for _, e := range base {
		byMatch[strings.ToLower(e.Match)] = len(merged)
		merged = append(merged, e)
	}
	for i, c := range custom {
		if strings.TrimSpace(c.Match) == "" || strings.TrimSpace(c.Label) == "" {
			return nil, fmt.Errorf("%w: recurring.lexicon entry %d needs both match and label", common.ErrMissingConfig, i)
		}
		entry := recurring.LexiconEntry{Match: c.Match, Label: c.Label, Priority: c.Priority}
		if i, ok := byMatch[strings.ToLower(c.Match)]; ok {
			merged[i] = entry
			continue
		}
		byMatch[strings.ToLower(c.Match)] = len(merged)
		merged = append(merged, entry)
	}
	return merged, nil
}

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
