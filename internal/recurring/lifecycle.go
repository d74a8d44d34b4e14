package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/service"
)

// ServiceConfig holds configuration options for the definition service.
type ServiceConfig struct {
	Clock func() time.Time
	Namer *Namer
	Retry service.RetryOptions
}

// Service manages the lifecycle of recurring definitions: Active and
// Paused, with an orthogonal auto-approve flag.
type Service struct {
	store service.RecurringStore
	now   func() time.Time
	namer *Namer
	retry service.RetryOptions
}

// NewService creates a definition service.
func NewService(store service.RecurringStore, config ServiceConfig) *Service {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Namer == nil {
		config.Namer = NewNamer(DefaultLexicon())
	}
	return &Service{
		store: store,
		now:   config.Clock,
		namer: config.Namer,
		retry: config.Retry,
	}
}

// AcceptOptions tunes how an accepted candidate is persisted.
type AcceptOptions struct {
	Category    string // overrides the representative transaction's category
	AccountID   string // overrides the representative transaction's account
	AutoApprove bool
}

// Accept persists a candidate as an active definition. Candidates below
// the acceptance threshold are rejected with common.ErrBelowThreshold. If
// the predicted next date has already passed it is rolled forward to today.
func (s *Service) Accept(ctx context.Context, candidate model.PatternCandidate, opts AcceptOptions) (*model.RecurringDefinition, error) {
	if !IsAcceptable(candidate) {
		return nil, fmt.Errorf("%w: %s has confidence %.2f from %d transactions",
			common.ErrBelowThreshold, candidate.Name, candidate.Confidence, candidate.SampleCount)
	}

	created := s.now().UTC()
	rep := candidate.Representative

	def := &model.RecurringDefinition{
		ID:          uuid.NewString(),
		Name:        candidate.Name,
		Description: strings.TrimSpace(rep.Description),
		Amount:      candidate.Signature.Amount(),
		Type:        directionOf(rep),
		Frequency:   candidate.Frequency,
		Category:    firstNonEmpty(opts.Category, rep.Category),
		AccountID:   firstNonEmpty(opts.AccountID, rep.AccountID),
		Confidence:  candidate.Confidence,
		IsActive:    true,
		AutoApprove: opts.AutoApprove,
		NextRunDate: RollForward(candidate.NextDate, candidate.Frequency, calendar.Date(created)),
		CreatedAt:   created,
	}

	if err := s.store.CreateDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to persist accepted pattern %q: %w", candidate.Name, err)
	}
	return def, nil
}

// AcceptAll persists every acceptable candidate and silently passes over
// the rest. It returns the created definitions and one error per failed
// candidate.
func (s *Service) AcceptAll(ctx context.Context, candidates []model.PatternCandidate, opts AcceptOptions) ([]model.RecurringDefinition, []error) {
	var (
		created []model.RecurringDefinition
		errs    []error
	)
	for _, c := range Acceptable(candidates) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		def, err := s.Accept(ctx, c, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, *def)
	}
	return created, errs
}

// CreateInput describes a definition entered by hand.
type CreateInput struct {
	Anchor      time.Time // last known occurrence; zero means today
	Amount      decimal.Decimal
	Name        string
	Description string
	Category    string
	AccountID   string
	Type        model.TransactionType
	Frequency   model.Frequency
	AutoApprove bool
	Paused      bool
}

// Create persists a definition from explicit input. NextRunDate is the
// prediction from the anchor, rolled forward to today if needed.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.RecurringDefinition, error) {
	if err := in.Frequency.Validate(); err != nil {
		return nil, err
	}

	created := s.now().UTC()
	today := calendar.Date(created)
	anchor := today
	if !in.Anchor.IsZero() {
		anchor = calendar.Date(in.Anchor)
	}

	txnType := in.Type
	if txnType == "" {
		txnType = model.TypeExpense
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = s.namer.Name(in.Description)
	}

	def := &model.RecurringDefinition{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Type:        txnType,
		Frequency:   in.Frequency,
		Category:    in.Category,
		AccountID:   in.AccountID,
		IsActive:    !in.Paused,
		AutoApprove: in.AutoApprove,
		NextRunDate: RollForward(Predict(anchor, in.Frequency), in.Frequency, today),
		CreatedAt:   created,
	}

	if err := s.store.CreateDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to create recurring definition: %w", err)
	}
	return def, nil
}

// Get returns a definition by ID.
func (s *Service) Get(ctx context.Context, id string) (*model.RecurringDefinition, error) {
	return s.store.GetDefinition(ctx, id)
}

// List returns definitions matching filter.
func (s *Service) List(ctx context.Context, filter model.DefinitionFilter) ([]model.RecurringDefinition, error) {
	return s.store.ListDefinitions(ctx, filter)
}

// UpdateInput holds the fields to change; nil fields are left alone.
type UpdateInput struct {
	Amount      *decimal.Decimal
	Frequency   *model.Frequency
	Name        *string
	Description *string
	Category    *string
	AccountID   *string
	Type        *model.TransactionType
	AutoApprove *bool
}

// Update applies in to a definition. A frequency change recomputes
// NextRunDate from the last run, or from the creation date if the
// definition never ran.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.RecurringDefinition, error) {
	return s.mutate(ctx, id, func(def *model.RecurringDefinition) error {
		if in.Amount != nil {
			def.Amount = *in.Amount
		}
		if in.Name != nil {
			def.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			def.Description = strings.TrimSpace(*in.Description)
		}
		if in.Category != nil {
			def.Category = *in.Category
		}
		if in.AccountID != nil {
			def.AccountID = *in.AccountID
		}
		if in.Type != nil {
			def.Type = *in.Type
		}
		if in.AutoApprove != nil {
			def.AutoApprove = *in.AutoApprove
		}
		if in.Frequency != nil && *in.Frequency != def.Frequency {
			if err := in.Frequency.Validate(); err != nil {
				return err
			}
			def.Frequency = *in.Frequency
			anchor := calendar.Date(def.CreatedAt)
			if def.LastRunDate != nil {
				anchor = *def.LastRunDate
			}
			def.NextRunDate = Predict(anchor, def.Frequency)
		}
		return nil
	})
}

// Toggle flips a definition between Active and Paused. The schedule is kept.
func (s *Service) Toggle(ctx context.Context, id string) (*model.RecurringDefinition, error) {
	return s.mutate(ctx, id, func(def *model.RecurringDefinition) error {
		def.IsActive = !def.IsActive
		return nil
	})
}

// SetActive moves a definition to Active or Paused.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*model.RecurringDefinition, error) {
	return s.mutate(ctx, id, func(def *model.RecurringDefinition) error {
		def.IsActive = active
		return nil
	})
}

// Delete removes a definition permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDefinition(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recurring definition: %w", err)
	}
	return nil
}

// mutate runs a read-modify-write cycle, retrying when a concurrent writer
// (another edit or the due processor) bumped the version in between.
func (s *Service) mutate(ctx context.Context, id string, apply func(*model.RecurringDefinition) error) (*model.RecurringDefinition, error) {
	var result *model.RecurringDefinition

	err := common.WithRetry(ctx, func() error {
		def, err := s.store.GetDefinition(ctx, id)
		if err != nil {
			return common.Permanent(err)
		}
		if err := apply(def); err != nil {
			return common.Permanent(err)
		}
		if err := s.store.UpdateDefinition(ctx, def); err != nil {
			if errors.Is(err, common.ErrConflict) {
				slog.Debug("recurring definition changed concurrently, retrying", "id", id)
				return err
			}
			return common.Permanent(err)
		}
		result = def
		return nil
	}, s.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to update recurring definition %s: %w", id, err)
	}
	return result, nil
}

// directionOf infers income or expense from a transaction.
func directionOf(txn model.Transaction) model.TransactionType {
	if txn.Type == model.TypeIncome || txn.Type == model.TypeExpense {
		return txn.Type
	}
	if txn.Amount.IsPositive() {
		return model.TypeIncome
	}
	return model.TypeExpense
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
