package recurring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/model"
)

func date(s string) time.Time {
	d, err := calendar.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seriesOn(desc string, amount string, dates ...string) []model.Transaction {
	txns := make([]model.Transaction, len(dates))
	for i, d := range dates {
		txns[i] = model.Transaction{
			ID:          desc + "-" + d,
			Date:        date(d),
			Description: desc,
			Amount:      decimal.RequireFromString(amount),
			Type:        model.TypeExpense,
			Category:    "Subscriptions",
			AccountID:   "checking",
		}
	}
	return txns
}

func TestIntervals(t *testing.T) {
	assert.Empty(t, Intervals(nil))
	assert.Empty(t, Intervals(seriesOn("x", "1", "2024-01-01")))
	assert.Equal(t, []int{31, 31}, Intervals(seriesOn("x", "1", "2024-01-01", "2024-02-01", "2024-03-03")))
	assert.Equal(t, []int{0, 7}, Intervals(seriesOn("x", "1", "2024-01-01", "2024-01-01", "2024-01-08")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		intervals []int
		want      model.Frequency
	}{
		{name: "empty defaults to monthly", intervals: nil, want: model.Monthly},
		{name: "monthly lower bound", intervals: []int{28}, want: model.Monthly},
		{name: "monthly upper bound", intervals: []int{31, 31}, want: model.Monthly},
		{name: "just past monthly is custom", intervals: []int{31, 32}, want: model.Custom(32)},
		{name: "quarterly", intervals: []int{90, 92, 89}, want: model.Quarterly},
		{name: "yearly across leap year", intervals: []int{365, 366}, want: model.Yearly},
		{name: "weekly", intervals: []int{7, 7, 7, 8}, want: model.Weekly},
		{name: "daily", intervals: []int{1, 1, 2}, want: model.Daily},
		{name: "between daily and weekly", intervals: []int{3, 4}, want: model.Custom(4)},
		{name: "biweekly is custom", intervals: []int{14, 14}, want: model.Custom(14)},
		{name: "same-day duplicates clamp to one day", intervals: []int{0, 0}, want: model.Custom(1)},
		{name: "noisy gaps", intervals: []int{5, 40, 3}, want: model.Custom(16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.intervals))
		})
	}
}

func TestScore(t *testing.T) {
	t.Run("fewer than two intervals score zero", func(t *testing.T) {
		assert.Zero(t, Score(nil, model.Monthly))
		assert.Zero(t, Score([]int{30}, model.Monthly))
	})

	t.Run("perfectly regular", func(t *testing.T) {
		assert.InDelta(t, 0.8, Score([]int{31, 31}, model.Monthly), 1e-9)
		assert.InDelta(t, 1.0, Score([]int{7, 7, 7, 7, 7, 7}, model.Weekly), 1e-9)
	})

	t.Run("sample term saturates at six intervals", func(t *testing.T) {
		six := Score([]int{30, 30, 30, 30, 30, 30}, model.Monthly)
		twelve := Score([]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}, model.Monthly)
		assert.InDelta(t, six, twelve, 1e-9)
	})

	t.Run("high variance scores below threshold", func(t *testing.T) {
		intervals := []int{5, 40, 3}
		score := Score(intervals, Classify(intervals))
		assert.Less(t, score, AcceptanceThreshold)
		assert.InDelta(t, 0.15, score, 1e-9)
	})

	t.Run("non-increasing in spread at fixed sample count", func(t *testing.T) {
		spreads := [][]int{
			{30, 30, 30, 30},
			{29, 31, 29, 31},
			{28, 32, 28, 32},
			{25, 35, 25, 35},
			{15, 45, 15, 45},
			{1, 59, 1, 59},
		}
		prev := 1.0
		for _, intervals := range spreads {
			score := Score(intervals, model.Monthly)
			assert.LessOrEqual(t, score, prev, "intervals %v", intervals)
			assert.GreaterOrEqual(t, score, 0.0)
			prev = score
		}
	})
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name string
		from string
		freq model.Frequency
		want string
	}{
		{name: "monthly keeps day", from: "2024-03-03", freq: model.Monthly, want: "2024-04-03"},
		{name: "monthly clamps in non-leap year", from: "2023-01-31", freq: model.Monthly, want: "2023-02-28"},
		{name: "monthly clamps in leap year", from: "2024-01-31", freq: model.Monthly, want: "2024-02-29"},
		{name: "quarterly clamps", from: "2024-11-30", freq: model.Quarterly, want: "2025-02-28"},
		{name: "yearly from leap day", from: "2024-02-29", freq: model.Yearly, want: "2025-02-28"},
		{name: "weekly", from: "2024-12-28", freq: model.Weekly, want: "2025-01-04"},
		{name: "daily", from: "2024-02-28", freq: model.Daily, want: "2024-02-29"},
		{name: "custom", from: "2024-01-01", freq: model.Custom(14), want: "2024-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, date(tt.want), Predict(date(tt.from), tt.freq))
		})
	}
}

func TestPredict_StrictlyLater(t *testing.T) {
	freqs := []model.Frequency{model.Daily, model.Weekly, model.Monthly, model.Quarterly, model.Yearly, model.Custom(3)}
	start := date("2024-01-29")
	for _, f := range freqs {
		d := start
		for i := 0; i < 40; i++ {
			next := Predict(d, f)
			assert.True(t, next.After(d), "%s from %s", f, calendar.Format(d))
			d = next
		}
	}
}

func TestRollForward(t *testing.T) {
	assert.Equal(t, date("2024-04-03"), RollForward(date("2024-04-03"), model.Monthly, date("2024-03-10")))
	assert.Equal(t, date("2024-06-03"), RollForward(date("2024-04-03"), model.Monthly, date("2024-05-20")))
	assert.Equal(t, date("2024-05-20"), RollForward(date("2024-05-13"), model.Weekly, date("2024-05-20")))
}
