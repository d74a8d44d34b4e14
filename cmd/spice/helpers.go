package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/config"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/recurring"
	"github.com/Veraticus/spice-recurring/internal/service"
	"github.com/Veraticus/spice-recurring/internal/storage"
)

// loadSettings resolves the settings of this invocation from viper.
func loadSettings() (config.Settings, error) {
	config.SetDefaults(viper.GetViper())
	return config.Load(viper.GetViper())
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, settings config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine wires the recurring engine over store.
func initEngine(store service.Storage, settings config.Settings, progress recurring.ProgressFunc) *recurring.Engine {
	cfg := settings.EngineConfig()
	cfg.Progress = progress
	return recurring.New(store, cfg)
}

// withEngine runs fn with an engine over the configured database.
func withEngine(cmd *cobra.Command, fn func(*recurring.Engine) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	return fn(initEngine(store, settings, nil))
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// definitionLookup is the read side of the definition service.
type definitionLookup interface {
	Get(ctx context.Context, id string) (*model.RecurringDefinition, error)
	List(ctx context.Context, filter model.DefinitionFilter) ([]model.RecurringDefinition, error)
}

// resolveDefinitionID accepts a full definition ID or a unique prefix of one.
func resolveDefinitionID(ctx context.Context, defs definitionLookup, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", common.NewUserError("a definition ID is required", common.ErrNotFound)
	}

	if def, err := defs.Get(ctx, ref); err == nil {
		return def.ID, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}

	all, err := defs.List(ctx, model.DefinitionFilter{})
	if err != nil {
		return "", fmt.Errorf("failed to list definitions: %w", err)
	}

	var matches []string
	for _, d := range all {
		if strings.HasPrefix(d.ID, ref) {
			matches = append(matches, d.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", common.NewUserError(fmt.Sprintf("no recurring definition matches %q", ref), common.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", common.NewUserError(
			fmt.Sprintf("%q is ambiguous; it matches %s", ref, strings.Join(matches, ", ")),
			common.ErrDuplicateEntry)
	}
}

// expandFiles resolves glob patterns into a list of existing files.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(config.ExpandPath(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			slog.Warn("No files found matching pattern", "pattern", pattern)
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseDateFlag parses a YYYY-MM-DD flag value; empty means today in UTC.
func parseDateFlag(value string, now func() time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return calendar.Date(now().UTC()), nil
	}
	d, err := calendar.Parse(value)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), err)
	}
	return d, nil
}
