// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-recurring/internal/calendar"
)

// Model validation errors.
var (
	ErrInvalidRecord      = errors.New("invalid transaction record")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

// Transaction types.
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// ParseTransactionType parses a type name. Unknown names return false.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome, true
	case TypeExpense:
		return TypeExpense, true
	default:
		return "", false
	}
}

// Transaction represents a single historical financial transaction.
type Transaction struct {
	Date        time.Time // calendar date, see package calendar
	ID          string
	Description string
	Category    string
	AccountID   string
	Type        TransactionType
	RecurringID string // set only on transactions materialized from a recurring definition
	Amount      decimal.Decimal
}

// Validate checks the fields the recurring engine depends on.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	return nil
}

// TransactionRecord is the raw, string-typed shape in which transactions
// arrive from external collaborators.
type TransactionRecord struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	AccountID   string `json:"accountId,omitempty"`
}

// Parse converts a record into a Transaction. Unparseable dates and
// non-numeric amounts are rejected; a missing or unknown type is inferred
// from the amount's sign.
func (r TransactionRecord) Parse() (Transaction, error) {
	date, err := calendar.Parse(r.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w %q: %w", ErrInvalidRecord, r.ID, err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return Transaction{}, fmt.Errorf("%w %q: non-numeric amount %q", ErrInvalidRecord, r.ID, r.Amount)
	}

	txnType, ok := ParseTransactionType(r.Type)
	if !ok {
		txnType = TypeExpense
		if amount.IsPositive() {
			txnType = TypeIncome
		}
	}

	return Transaction{
		ID:          r.ID,
		Date:        date,
		Amount:      amount,
		Description: r.Description,
		Category:    r.Category,
		Type:        txnType,
		AccountID:   r.AccountID,
	}, nil
}

// ParseRecords converts records, returning the valid transactions and one
// error per rejected record.
func ParseRecords(records []TransactionRecord) ([]Transaction, []error) {
	txns := make([]Transaction, 0, len(records))
	var errs []error
	for _, r := range records {
		txn, err := r.Parse()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		txns = append(txns, txn)
	}
	return txns, errs
}
