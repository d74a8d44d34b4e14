// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-recurring/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	RecurringID string

	// ExcludeRecurring drops transactions materialized from a definition.
	ExcludeRecurring bool
	Limit            int
	Offset           int
}

// TransactionStore supplies transaction history and accepts newly
// materialized transactions.
type TransactionStore interface {
	// SaveTransactions stores transactions, ignoring ids already present and
	// materialized transactions whose (RecurringID, Date) already exists.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
}

// Advance describes a conditional schedule move for one definition.
type Advance struct {
	ExpectedNext    time.Time  // the NextRunDate the caller observed
	NextRunDate     time.Time  // value to store
	LastRunDate     *time.Time // value to store; nil clears it
	DefinitionID    string
	ExpectedVersion int64 // the Version the caller observed; zero skips the check
}

// RecurringStore persists recurring definitions.
type RecurringStore interface {
	CreateDefinition(ctx context.Context, def *model.RecurringDefinition) error
	GetDefinition(ctx context.Context, id string) (*model.RecurringDefinition, error)
	ListDefinitions(ctx context.Context, filter model.DefinitionFilter) ([]model.RecurringDefinition, error)
	// UpdateDefinition writes def if its Version still matches the stored
	// one, returning common.ErrConflict otherwise. def.Version is bumped.
	UpdateDefinition(ctx context.Context, def *model.RecurringDefinition) error
	DeleteDefinition(ctx context.Context, id string) error
	// AdvanceSchedule applies adv only if the definition's NextRunDate still
	// equals adv.ExpectedNext and, when adv.ExpectedVersion is set, its
	// Version still equals that. It reports whether the update was applied.
	AdvanceSchedule(ctx context.Context, adv Advance) (bool, error)
}

// Storage is the full persistence layer.
type Storage interface {
	TransactionStore
	RecurringStore

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
