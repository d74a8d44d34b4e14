// Package recurring detects recurring transaction patterns in a
// transaction history and schedules accepted patterns as recurring
// definitions that materialize new transactions when due.
package recurring

import (
	"log/slog"
	"sort"

	"github.com/Veraticus/spice-recurring/internal/model"
)

// GroupBySignature partitions transactions into series sharing a
// signature. Each series is sorted by date, oldest first. Transactions
// without an ID, date, or description are skipped with a warning.
func GroupBySignature(transactions []model.Transaction) map[model.Signature][]model.Transaction {
	groups := make(map[model.Signature][]model.Transaction)
	skipped := 0

	for _, txn := range transactions {
		if err := txn.Validate(); err != nil {
			slog.Warn("Skipping malformed transaction",
				"transaction_id", txn.ID,
				"error", err)
			skipped++
			continue
		}

		sig := model.NewSignature(txn)
		groups[sig] = append(groups[sig], txn)
	}

	for sig, series := range groups {
		sort.SliceStable(series, func(i, j int) bool {
			if !series[i].Date.Equal(series[j].Date) {
				return series[i].Date.Before(series[j].Date)
			}
			return series[i].ID < series[j].ID
		})
		groups[sig] = series
	}

	slog.Debug("grouped transactions",
		"transactions", len(transactions),
		"skipped", skipped,
		"series", len(groups))

	return groups
}

// sortedSignatures returns the keys of groups in a stable order.
func sortedSignatures(groups map[model.Signature][]model.Transaction) []model.Signature {
	sigs := make([]model.Signature, 0, len(groups))
	for sig := range groups {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].Description != sigs[j].Description {
			return sigs[i].Description < sigs[j].Description
		}
		return sigs[i].AmountCents < sigs[j].AmountCents
	})
	return sigs
}
