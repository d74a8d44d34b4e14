package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Signature is the grouping key for candidate series: the normalized
// description and the absolute amount in cents.
type Signature struct {
	Description string
	AmountCents int64
}

// NewSignature derives the signature of a transaction.
func NewSignature(txn Transaction) Signature {
	return Signature{
		Description: strings.ToLower(strings.TrimSpace(txn.Description)),
		AmountCents: txn.Amount.Abs().Round(2).Shift(2).IntPart(),
	}
}

// Amount returns the signature's absolute amount.
func (s Signature) Amount() decimal.Decimal {
	return decimal.New(s.AmountCents, -2)
}

func (s Signature) String() string {
	return fmt.Sprintf("%s|%s", s.Description, s.Amount().StringFixed(2))
}

// PatternCandidate is the result of analyzing one series. It is never
// persisted directly.
type PatternCandidate struct {
	NextDate       time.Time
	Signature      Signature
	Name           string
	Frequency      Frequency
	Representative Transaction // most recent transaction of the series
	Intervals      []int
	Confidence     float64
	SampleCount    int
	Acceptable     bool
}
