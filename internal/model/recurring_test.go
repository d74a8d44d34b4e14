package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRecurringDefinition_IsDue(t *testing.T) {
	def := RecurringDefinition{
		NextRunDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}

	if def.IsDue(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)) {
		t.Error("should not be due the day before")
	}
	if !def.IsDue(time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)) {
		t.Error("should be due on the day")
	}
	if !def.IsDue(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("should be due after the day")
	}

	def.IsActive = false
	if def.IsDue(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("paused definitions are never due")
	}
}

func TestRecurringDefinition_SignedAmount(t *testing.T) {
	def := RecurringDefinition{Amount: decimal.RequireFromString("9.99"), Type: TypeExpense}
	if !def.SignedAmount().Equal(decimal.RequireFromString("-9.99")) {
		t.Errorf("expense SignedAmount() = %s", def.SignedAmount())
	}
	def.Type = TypeIncome
	if !def.SignedAmount().Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("income SignedAmount() = %s", def.SignedAmount())
	}
}

func TestRecurringDefinition_Validate(t *testing.T) {
	def := RecurringDefinition{
		ID:          "d1",
		Description: "gym",
		Amount:      decimal.RequireFromString("40"),
		Type:        TypeExpense,
		Frequency:   Monthly,
	}
	if err := def.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("missing next run date: Validate() = %v", err)
	}

	def.NextRunDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := def.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	def.Frequency = Frequency{Cadence: "hourly", IntervalDays: 1}
	err := def.Validate()
	if !errors.Is(err, ErrInvalidDefinition) || !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("bad cadence: Validate() = %v", err)
	}
}

func TestDueReport_Total(t *testing.T) {
	r := DueReport{
		Materialized: make([]DueOutcome, 2),
		Pending:      make([]DueOutcome, 1),
		Errors:       []DueError{{Err: errors.New("boom"), DefinitionID: "d1", Name: "Gym"}},
	}
	if r.Total() != 4 {
		t.Errorf("Total() = %d, want 4", r.Total())
	}
	if msg := r.Errors[0].Error(); msg == "" {
		t.Error("DueError.Error() is empty")
	}
}
