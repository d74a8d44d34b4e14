// Package csvimport reads transaction history from CSV exports.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-recurring/internal/model"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// rowNamespace seeds IDs for rows that carry none, so re-importing the
// same file yields the same IDs.
var rowNamespace = uuid.MustParse("0b8f7f52-3c1e-4d4a-9a55-1f0c6de2b7a4")

// Header aliases accepted for each field, compared case-insensitively.
var columnAliases = map[string][]string{
	"id":          {"id", "transaction_id", "trxid", "fitid"},
	"date":        {"date", "posted", "transaction_date"},
	"amount":      {"amount", "value"},
	"description": {"description", "name", "payee", "memo"},
	"category":    {"category"},
	"type":        {"type", "direction"},
	"account":     {"account_id", "accountid", "account"},
}

var required = []string{"date", "amount", "description"}

// ReadRecords reads raw records from CSV with a header row. Values are
// kept as strings; use Read for parsed transactions.
func ReadRecords(r io.Reader) ([]model.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := columns(headers)
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, k)
		}
	}

	var records []model.TransactionRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		rec := model.TransactionRecord{
			ID:          field(row, col, "id"),
			Date:        field(row, col, "date"),
			Amount:      normalizeAmount(field(row, col, "amount")),
			Description: field(row, col, "description"),
			Category:    field(row, col, "category"),
			Type:        field(row, col, "type"),
			AccountID:   field(row, col, "account"),
		}
		if rec.ID == "" {
			rec.ID = uuid.NewSHA1(rowNamespace, []byte(strings.Join(row, "\x1f"))).String()
		}
		records = append(records, rec)
	}
	return records, nil
}

// Read reads and parses transactions. Rows with bad dates or amounts are
// skipped with a warning and reported in the returned count.
func Read(r io.Reader) ([]model.Transaction, int, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, 0, err
	}

	txns, errs := model.ParseRecords(records)
	for _, err := range errs {
		slog.Warn("Skipping malformed CSV row", "error", err)
	}
	return txns, len(errs), nil
}

func columns(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range columnAliases {
			if _, taken := idx[field]; taken {
				continue
			}
			for _, a := range aliases {
				if name == a {
					idx[field] = i
					break
				}
			}
		}
	}
	return idx
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// normalizeAmount strips currency symbols and thousands separators. A lone
// comma is taken as the decimal separator.
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", "€", "", "£", "", " ", "").Replace(s)
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	// Accounting negatives: (12.50)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	return s
}
