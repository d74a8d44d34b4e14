package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/service"
)

const definitionColumns = `id, name, description, amount, transaction_type, cadence, interval_days,
	category, account_id, confidence, is_active, auto_approve, next_run_date, last_run_date,
	version, created_at, updated_at`

// CreateDefinition inserts a new recurring definition.
func (s *SQLiteStorage) CreateDefinition(ctx context.Context, def *model.RecurringDefinition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	now := time.Now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	def.Version = 1

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_definitions (`+definitionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, def.Description, def.Amount.String(), string(def.Type),
		string(def.Frequency.Cadence), def.Frequency.IntervalDays,
		def.Category, def.AccountID, def.Confidence, def.IsActive, def.AutoApprove,
		calendar.Format(def.NextRunDate), nullableDate(def.LastRunDate),
		def.Version, def.CreatedAt.Format(time.RFC3339Nano), def.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("definition %s: %w", def.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create recurring definition: %w", err)
	}

	slog.Info("created recurring definition", "id", def.ID, "name", def.Name, "frequency", def.Frequency.String())
	return nil
}

// GetDefinition retrieves a recurring definition by ID.
func (s *SQLiteStorage) GetDefinition(ctx context.Context, id string) (*model.RecurringDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+definitionColumns+` FROM recurring_definitions WHERE id = ?`, id)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring definition %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// ListDefinitions returns definitions matching filter ordered by next run date.
func (s *SQLiteStorage) ListDefinitions(ctx context.Context, filter model.DefinitionFilter) ([]model.RecurringDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Active != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.Active)
	}
	if filter.DueBy != nil {
		where = append(where, "next_run_date <= ?")
		args = append(args, calendar.Format(*filter.DueBy))
	}

	query := `SELECT ` + definitionColumns + ` FROM recurring_definitions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY next_run_date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring definitions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var defs []model.RecurringDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring definitions: %w", err)
	}

	slog.Debug("retrieved recurring definitions", "count", len(defs))
	return defs, nil
}

// UpdateDefinition writes def when its version still matches.
func (s *SQLiteStorage) UpdateDefinition(ctx context.Context, def *model.RecurringDefinition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE recurring_definitions SET
			name = ?, description = ?, amount = ?, transaction_type = ?,
			cadence = ?, interval_days = ?, category = ?, account_id = ?,
			confidence = ?, is_active = ?, auto_approve = ?,
			next_run_date = ?, last_run_date = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		def.Name, def.Description, def.Amount.String(), string(def.Type),
		string(def.Frequency.Cadence), def.Frequency.IntervalDays, def.Category, def.AccountID,
		def.Confidence, def.IsActive, def.AutoApprove,
		calendar.Format(def.NextRunDate), nullableDate(def.LastRunDate),
		now.Format(time.RFC3339Nano),
		def.ID, def.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring definition: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return s.missingOrConflict(ctx, def.ID)
	}

	def.Version++
	def.UpdatedAt = now
	slog.Info("updated recurring definition", "id", def.ID, "version", def.Version)
	return nil
}

// DeleteDefinition removes a recurring definition permanently.
func (s *SQLiteStorage) DeleteDefinition(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM recurring_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurring definition: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("recurring definition %s: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted recurring definition", "id", id)
	return nil
}

// AdvanceSchedule moves a definition's schedule if nobody else has since
// the caller read it. A pause or edit bumps the version, so it also makes
// a versioned advance miss.
func (s *SQLiteStorage) AdvanceSchedule(ctx context.Context, adv service.Advance) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(adv.DefinitionID, "definitionID"); err != nil {
		return false, err
	}

	query := `
		UPDATE recurring_definitions SET
			next_run_date = ?, last_run_date = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND next_run_date = ?`
	args := []any{
		calendar.Format(adv.NextRunDate), nullableDate(adv.LastRunDate),
		time.Now().UTC().Format(time.RFC3339Nano),
		adv.DefinitionID, calendar.Format(adv.ExpectedNext),
	}
	if adv.ExpectedVersion > 0 {
		query += ` AND version = ?`
		args = append(args, adv.ExpectedVersion)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring definition: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		slog.Debug("schedule changed since read", "id", adv.DefinitionID,
			"expected_next", calendar.Format(adv.ExpectedNext), "expected_version", adv.ExpectedVersion)
		return false, nil
	}
	return true, nil
}

func (s *SQLiteStorage) missingOrConflict(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recurring_definitions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check recurring definition: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("recurring definition %s: %w", id, common.ErrNotFound)
	}
	return fmt.Errorf("recurring definition %s: %w", id, common.ErrConflict)
}

func scanDefinition(row rowScanner) (model.RecurringDefinition, error) {
	var (
		def       model.RecurringDefinition
		txnType   string
		cadence   string
		nextRun   string
		lastRun   sql.NullString
		createdAt string
		updatedAt string
	)

	if err := row.Scan(
		&def.ID, &def.Name, &def.Description, &def.Amount, &txnType,
		&cadence, &def.Frequency.IntervalDays,
		&def.Category, &def.AccountID, &def.Confidence, &def.IsActive, &def.AutoApprove,
		&nextRun, &lastRun, &def.Version, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, err
		}
		return def, fmt.Errorf("failed to scan recurring definition: %w", err)
	}

	def.Type = model.TransactionType(txnType)
	def.Frequency.Cadence = model.Cadence(cadence)

	var err error
	if def.NextRunDate, err = calendar.Parse(nextRun); err != nil {
		return def, fmt.Errorf("%w: recurring definition %s has corrupt next run date: %w", common.ErrDatabaseCorrupted, def.ID, err)
	}
	if lastRun.Valid {
		last, err := calendar.Parse(lastRun.String)
		if err != nil {
			return def, fmt.Errorf("%w: recurring definition %s has corrupt last run date: %w", common.ErrDatabaseCorrupted, def.ID, err)
		}
		def.LastRunDate = &last
	}
	if def.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return def, fmt.Errorf("%w: recurring definition %s has corrupt created_at: %w", common.ErrDatabaseCorrupted, def.ID, err)
	}
	if def.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return def, fmt.Errorf("%w: recurring definition %s has corrupt updated_at: %w", common.ErrDatabaseCorrupted, def.ID, err)
	}

	return def, nil
}

func nullableDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: calendar.Format(*t), Valid: true}
}
