package csvimport

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-recurring/internal/model"
)

const sampleCSV = `Date,Description,Amount,Category,Type,Account_ID,ID
2024-01-01,Netflix Subscription,-15.99,Subscriptions,expense,checking,t1
2024-02-01,Netflix Subscription,-15.99,Subscriptions,,checking,t2
2024-01-15, ACME PAYROLL ,"2,500.00",Income,,checking,t3
2024-02-15,Coffee,(4.50),,,,t4
not-a-date,Broken,-1,,,,t5
2024-03-01,Broken,abc,,,,t6
`

func TestRead(t *testing.T) {
	txns, skipped, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, txns, 4)

	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, "Subscriptions", txns[0].Category)
	assert.Equal(t, "checking", txns[0].AccountID)
	assert.Equal(t, model.TypeExpense, txns[1].Type)

	payroll := txns[2]
	assert.Equal(t, "ACME PAYROLL", payroll.Description)
	assert.True(t, payroll.Amount.Equal(decimal.RequireFromString("2500")))
	assert.Equal(t, model.TypeIncome, payroll.Type)

	assert.True(t, txns[3].Amount.Equal(decimal.RequireFromString("-4.5")))
}

func TestReadRecords_GeneratesStableIDs(t *testing.T) {
	input := "date,name,value\n2024-01-01,Spotify,-9.99\n2024-02-01,Spotify,-9.99\n"

	first, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	second, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.NotEmpty(t, first[0].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "Spotify", first[0].Description)
}

func TestReadRecords_MissingColumn(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("date,amount\n2024-01-01,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadRecords(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNormalizeAmount(t *testing.T) {
	tests := map[string]string{
		"-15.99":     "-15.99",
		"$1,234.56":  "1234.56",
		"12,50":      "12.50",
		"(4.50)":     "-4.50",
		" -€ 3.00 ":  "-3.00",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeAmount(in), "input %q", in)
	}
}
