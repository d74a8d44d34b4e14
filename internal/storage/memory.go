package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/service"
)

var _ service.Storage = (*MemoryStorage)(nil)

// MemoryStorage is an in-process Storage with the same semantics as
// SQLiteStorage. It backs engine tests and dry runs.
type MemoryStorage struct {
	transactions map[string]model.Transaction
	occurrences  map[string]string // recurringID|date -> transaction id
	definitions  map[string]model.RecurringDefinition
	mu           sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		transactions: make(map[string]model.Transaction),
		occurrences:  make(map[string]string),
		definitions:  make(map[string]model.RecurringDefinition),
	}
}

// Migrate is a no-op.
func (m *MemoryStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStorage) Close() error { return nil }

// SaveTransactions stores transactions, ignoring duplicates.
func (m *MemoryStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, txn := range transactions {
		if _, ok := m.transactions[txn.ID]; ok {
			continue
		}
		if txn.RecurringID != "" {
			key := occurrenceKey(txn.RecurringID, txn.Date)
			if _, ok := m.occurrences[key]; ok {
				continue
			}
			m.occurrences[key] = txn.ID
		}
		txn.Date = calendar.Date(txn.Date)
		m.transactions[txn.ID] = txn
	}
	return nil
}

// GetTransactions returns transactions matching filter, oldest first.
func (m *MemoryStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []model.Transaction
	for _, txn := range m.transactions {
		if filter.StartDate != nil && txn.Date.Before(calendar.Date(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && txn.Date.After(calendar.Date(*filter.EndDate)) {
			continue
		}
		if filter.RecurringID != "" && txn.RecurringID != filter.RecurringID {
			continue
		}
		if filter.ExcludeRecurring && txn.RecurringID != "" {
			continue
		}
		out = append(out, txn)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// GetTransactionByID retrieves a single transaction.
func (m *MemoryStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	txn, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return &txn, nil
}

// CreateDefinition inserts a new recurring definition.
func (m *MemoryStorage) CreateDefinition(ctx context.Context, def *model.RecurringDefinition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.definitions[def.ID]; ok {
		return fmt.Errorf("definition %s: %w", def.ID, common.ErrDuplicateEntry)
	}

	now := time.Now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	def.Version = 1
	m.definitions[def.ID] = cloneDefinition(*def)
	return nil
}

// GetDefinition retrieves a recurring definition by ID.
func (m *MemoryStorage) GetDefinition(ctx context.Context, id string) (*model.RecurringDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.definitions[id]
	if !ok {
		return nil, fmt.Errorf("recurring definition %s: %w", id, common.ErrNotFound)
	}
	def = cloneDefinition(def)
	return &def, nil
}

// ListDefinitions returns definitions matching filter ordered by next run date.
func (m *MemoryStorage) ListDefinitions(ctx context.Context, filter model.DefinitionFilter) ([]model.RecurringDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []model.RecurringDefinition
	for _, def := range m.definitions {
		if filter.Active != nil && def.IsActive != *filter.Active {
			continue
		}
		if filter.DueBy != nil && def.NextRunDate.After(calendar.Date(*filter.DueBy)) {
			continue
		}
		out = append(out, cloneDefinition(def))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextRunDate.Equal(out[j].NextRunDate) {
			return out[i].NextRunDate.Before(out[j].NextRunDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateDefinition writes def when its version still matches.
func (m *MemoryStorage) UpdateDefinition(ctx context.Context, def *model.RecurringDefinition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.definitions[def.ID]
	if !ok {
		return fmt.Errorf("recurring definition %s: %w", def.ID, common.ErrNotFound)
	}
	if stored.Version != def.Version {
		return fmt.Errorf("recurring definition %s: %w", def.ID, common.ErrConflict)
	}

	def.Version++
	def.UpdatedAt = time.Now().UTC()
	def.CreatedAt = stored.CreatedAt
	m.definitions[def.ID] = cloneDefinition(*def)
	return nil
}

// DeleteDefinition removes a recurring definition permanently.
func (m *MemoryStorage) DeleteDefinition(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.definitions[id]; !ok {
		return fmt.Errorf("recurring definition %s: %w", id, common.ErrNotFound)
	}
	delete(m.definitions, id)
	return nil
}

// AdvanceSchedule moves a definition's schedule if it still matches.
func (m *MemoryStorage) AdvanceSchedule(ctx context.Context, adv service.Advance) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.definitions[adv.DefinitionID]
	if !ok || !def.NextRunDate.Equal(calendar.Date(adv.ExpectedNext)) {
		return false, nil
	}
	if adv.ExpectedVersion > 0 && def.Version != adv.ExpectedVersion {
		return false, nil
	}

	def.NextRunDate = calendar.Date(adv.NextRunDate)
	def.LastRunDate = nil
	if adv.LastRunDate != nil {
		last := calendar.Date(*adv.LastRunDate)
		def.LastRunDate = &last
	}
	def.Version++
	def.UpdatedAt = time.Now().UTC()
	m.definitions[def.ID] = def
	return true, nil
}

func occurrenceKey(recurringID string, date time.Time) string {
	return recurringID + "|" + calendar.Format(date)
}

func cloneDefinition(def model.RecurringDefinition) model.RecurringDefinition {
	if def.LastRunDate != nil {
		last := *def.LastRunDate
		def.LastRunDate = &last
	}
	return def
}
