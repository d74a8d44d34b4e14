package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-recurring/internal/calendar"
)

// ErrInvalidDefinition is returned when a recurring definition breaks an invariant.
var ErrInvalidDefinition = errors.New("invalid recurring definition")

// RecurringDefinition is a persisted, user-owned description of an
// expected recurring transaction and its schedule.
type RecurringDefinition struct {
	NextRunDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastRunDate *time.Time
	ID          string
	Name        string
	Description string
	Category    string
	AccountID   string
	Type        TransactionType
	Frequency   Frequency
	Amount      decimal.Decimal // always positive; direction is carried by Type
	Confidence  float64         // 0 for definitions entered by hand
	Version     int64
	IsActive    bool
	AutoApprove bool
}

// Validate checks the definition's invariants.
func (d *RecurringDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidDefinition)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidDefinition)
	}
	if !d.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero, got %s", ErrInvalidDefinition, d.Amount)
	}
	if err := d.Frequency.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if d.Type != TypeIncome && d.Type != TypeExpense {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDefinition, d.Type)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidDefinition)
	}
	if d.NextRunDate.IsZero() {
		return fmt.Errorf("%w: missing next run date", ErrInvalidDefinition)
	}
	if !d.CreatedAt.IsZero() && d.NextRunDate.Before(calendar.Date(d.CreatedAt)) {
		return fmt.Errorf("%w: next run date %s is before creation date %s",
			ErrInvalidDefinition, calendar.Format(d.NextRunDate), calendar.Format(d.CreatedAt))
	}
	return nil
}

// IsDue reports whether an occurrence is due at now. Paused definitions
// are never due.
func (d *RecurringDefinition) IsDue(now time.Time) bool {
	return d.IsActive && !d.NextRunDate.After(calendar.Date(now))
}

// SignedAmount returns the amount with the sign transactions use:
// negative for expenses, positive for income.
func (d *RecurringDefinition) SignedAmount() decimal.Decimal {
	if d.Type == TypeExpense {
		return d.Amount.Neg()
	}
	return d.Amount
}

// DefinitionFilter narrows definition listings.
type DefinitionFilter struct {
	Active *bool
	DueBy  *time.Time // only definitions with NextRunDate on or before this date
}

// DueOutcome describes what happened to one definition during a due scan.
type DueOutcome struct {
	OccurrenceDate time.Time
	NextRunDate    time.Time
	DefinitionID   string
	TransactionID  string
	Name           string
	Reason         string
}

// DueError records a definition whose due occurrence failed.
type DueError struct {
	Err            error
	OccurrenceDate time.Time
	DefinitionID   string
	Name           string
}

func (e DueError) Error() string {
	return fmt.Sprintf("definition %s (%s) on %s: %v", e.DefinitionID, e.Name, calendar.Format(e.OccurrenceDate), e.Err)
}

// DueReport is the result of one due scan.
type DueReport struct {
	Materialized []DueOutcome
	Pending      []DueOutcome // awaiting confirmation because auto-approve is off
	Skipped      []DueOutcome // advanced, paused or edited since the scan read it
	Errors       []DueError
}

// Total returns the number of definitions the scan touched.
func (r *DueReport) Total() int {
	return len(r.Materialized) + len(r.Pending) + len(r.Skipped) + len(r.Errors)
}
