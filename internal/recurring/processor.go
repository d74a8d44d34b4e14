package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/service"
)

// occurrenceNamespace seeds the deterministic IDs of materialized
// transactions, so one (definition, date) pair always maps to one ID.
var occurrenceNamespace = uuid.MustParse("6f1c3a0e-9b7d-4c52-8a3e-2d4f5b6c7e81")

// ErrRollbackFailed is reported when a failed materialization could not be
// undone and the schedule stayed advanced.
var ErrRollbackFailed = errors.New("schedule rollback failed")

// Processor materializes due occurrences of active definitions.
type Processor struct {
	definitions  service.RecurringStore
	transactions service.TransactionStore
	retry        service.RetryOptions
}

// NewProcessor creates a due processor.
func NewProcessor(definitions service.RecurringStore, transactions service.TransactionStore, retry service.RetryOptions) *Processor {
	return &Processor{
		definitions:  definitions,
		transactions: transactions,
		retry:        retry,
	}
}

// ProcessDue materializes one occurrence for every active definition whose
// NextRunDate is on or before now. Paused definitions are not scanned.
// Definitions without auto-approve are reported as pending and left
// untouched. A failing definition is reported in Errors and the scan goes
// on. Cancellation is honored between definitions; the report so far is
// returned along with ctx.Err().
func (p *Processor) ProcessDue(ctx context.Context, now time.Time) (model.DueReport, error) {
	var report model.DueReport
	today := calendar.Date(now.UTC())
	active := true

	defs, err := p.definitions.ListDefinitions(ctx, model.DefinitionFilter{Active: &active, DueBy: &today})
	if err != nil {
		return report, fmt.Errorf("failed to list due definitions: %w", err)
	}

	for i := range defs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		def := &defs[i]
		if !def.IsDue(today) {
			continue
		}

		if !def.AutoApprove {
			report.Pending = append(report.Pending, model.DueOutcome{
				DefinitionID:   def.ID,
				Name:           def.Name,
				OccurrenceDate: def.NextRunDate,
				NextRunDate:    def.NextRunDate,
				Reason:         "awaiting confirmation",
			})
			continue
		}

		outcome, applied, err := p.materialize(ctx, def)
		switch {
		case err != nil:
			slog.Error("Failed to materialize recurring occurrence",
				"definition_id", def.ID,
				"occurrence", calendar.Format(def.NextRunDate),
				"error", err)
			report.Errors = append(report.Errors, model.DueError{
				DefinitionID:   def.ID,
				Name:           def.Name,
				OccurrenceDate: def.NextRunDate,
				Err:            err,
			})
		case !applied:
			report.Skipped = append(report.Skipped, outcome)
		default:
			report.Materialized = append(report.Materialized, outcome)
		}
	}

	slog.Info("Processed due recurring definitions",
		"date", calendar.Format(today),
		"materialized", len(report.Materialized),
		"pending", len(report.Pending),
		"skipped", len(report.Skipped),
		"errors", len(report.Errors))

	return report, nil
}

// Confirm materializes the due occurrence of one definition regardless of
// its auto-approve flag.
func (p *Processor) Confirm(ctx context.Context, id string, now time.Time) (model.DueOutcome, error) {
	def, err := p.definitions.GetDefinition(ctx, id)
	if err != nil {
		return model.DueOutcome{}, err
	}
	if !def.IsActive {
		return model.DueOutcome{}, fmt.Errorf("%w: %s is paused", common.ErrNotDue, def.Name)
	}
	if !def.IsDue(now.UTC()) {
		return model.DueOutcome{}, fmt.Errorf("%w: %s is scheduled for %s", common.ErrNotDue, def.Name, calendar.Format(def.NextRunDate))
	}

	outcome, applied, err := p.materialize(ctx, def)
	if err != nil {
		return model.DueOutcome{}, err
	}
	if !applied {
		return outcome, fmt.Errorf("%w: %s was already materialized", common.ErrNotDue, def.Name)
	}
	return outcome, nil
}

// materialize advances def's schedule by one step and records the
// occurrence as a transaction. The advance is a compare-and-swap on
// NextRunDate and Version, so of several scans that read the same schedule
// only one proceeds, and a pause or edit made after def was read makes it
// miss; the rest report applied=false. If the transaction cannot be stored
// the advance is reversed. The unit ignores cancellation once started.
func (p *Processor) materialize(ctx context.Context, def *model.RecurringDefinition) (model.DueOutcome, bool, error) {
	ctx = context.WithoutCancel(ctx)

	occurrence := calendar.Date(def.NextRunDate)
	next := Predict(occurrence, def.Frequency)
	outcome := model.DueOutcome{
		DefinitionID:   def.ID,
		Name:           def.Name,
		OccurrenceDate: occurrence,
		NextRunDate:    next,
	}

	var applied bool
	err := p.withRetry(ctx, func() error {
		var err error
		applied, err = p.definitions.AdvanceSchedule(ctx, service.Advance{
			DefinitionID:    def.ID,
			ExpectedNext:    occurrence,
			ExpectedVersion: def.Version,
			NextRunDate:     next,
			LastRunDate:     &occurrence,
		})
		return err
	})
	if err != nil {
		return outcome, false, fmt.Errorf("failed to advance schedule: %w", err)
	}
	if !applied {
		outcome.Reason = "changed by another run or edit since the scan"
		return outcome, false, nil
	}

	txn := OccurrenceTransaction(def, occurrence)
	outcome.TransactionID = txn.ID

	err = p.withRetry(ctx, func() error {
		return p.transactions.SaveTransactions(ctx, []model.Transaction{txn})
	})
	if err != nil {
		err = fmt.Errorf("failed to save transaction: %w", err)
		reverted, revertErr := p.definitions.AdvanceSchedule(ctx, service.Advance{
			DefinitionID: def.ID,
			ExpectedNext: next,
			NextRunDate:  occurrence,
			LastRunDate:  def.LastRunDate,
		})
		if revertErr != nil || !reverted {
			slog.Error("Recurring schedule left advanced without a transaction",
				"definition_id", def.ID,
				"occurrence", calendar.Format(occurrence),
				"revert_error", revertErr)
			return outcome, false, fmt.Errorf("%w: %w", ErrRollbackFailed, err)
		}
		return outcome, false, err
	}

	slog.Info("Materialized recurring occurrence",
		"definition_id", def.ID,
		"name", def.Name,
		"occurrence", calendar.Format(occurrence),
		"next_run", calendar.Format(next),
		"transaction_id", txn.ID)

	def.LastRunDate = &occurrence
	def.NextRunDate = next
	def.Version++
	return outcome, true, nil
}

// withRetry retries op on transient errors only.
func (p *Processor) withRetry(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, func() error {
		err := op()
		if err == nil || common.IsRetryable(err) {
			return err
		}
		return common.Permanent(err)
	}, p.retry)
}

// OccurrenceTransaction builds the transaction for one occurrence of def.
// Its ID is derived from the definition ID and date, which makes repeated
// materialization of the same occurrence a no-op in the store.
func OccurrenceTransaction(def *model.RecurringDefinition, occurrence time.Time) model.Transaction {
	date := calendar.Date(occurrence)
	return model.Transaction{
		ID:          uuid.NewSHA1(occurrenceNamespace, []byte(def.ID+"|"+calendar.Format(date))).String(),
		Date:        date,
		Amount:      def.SignedAmount(),
		Description: def.Description,
		Category:    def.Category,
		AccountID:   def.AccountID,
		Type:        def.Type,
		RecurringID: def.ID,
	}
}
