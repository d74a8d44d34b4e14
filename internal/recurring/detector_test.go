package recurring

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-recurring/internal/model"
)

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name           string
		txns           []model.Transaction
		wantFreq       model.Frequency
		wantNext       string
		wantAcceptable bool
		wantName       string
	}{
		{
			name:           "monthly subscription",
			txns:           seriesOn("Netflix Subscription", "-15.99", "2024-01-01", "2024-02-01", "2024-03-03"),
			wantFreq:       model.Monthly,
			wantNext:       "2024-04-03",
			wantAcceptable: true,
			wantName:       "Netflix",
		},
		{
			name:           "irregular gaps",
			txns:           seriesOn("Netflix Subscription", "-15.99", "2024-01-01", "2024-01-06", "2024-02-15", "2024-02-18"),
			wantFreq:       model.Custom(16),
			wantNext:       "2024-03-05",
			wantAcceptable: false,
			wantName:       "Netflix",
		},
		{
			name:           "weekly class",
			txns:           seriesOn("Yoga Studio", "-20", "2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"),
			wantFreq:       model.Weekly,
			wantNext:       "2024-01-29",
			wantAcceptable: true,
			wantName:       "Yoga Studio",
		},
		{
			name:           "single transaction",
			txns:           seriesOn("Spotify", "-9.99", "2024-05-31"),
			wantFreq:       model.Monthly,
			wantNext:       "2024-06-30",
			wantAcceptable: false,
			wantName:       "Spotify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(nil)
			cands, err := d.Detect(context.Background(), tt.txns)
			require.NoError(t, err)
			require.Len(t, cands, 1)

			c := cands[0]
			assert.Equal(t, tt.wantFreq, c.Frequency)
			assert.Equal(t, date(tt.wantNext), c.NextDate)
			assert.Equal(t, tt.wantAcceptable, c.Acceptable)
			assert.Equal(t, tt.wantName, c.Name)
			assert.Equal(t, len(tt.txns), c.SampleCount)
			assert.Equal(t, tt.txns[len(tt.txns)-1].ID, c.Representative.ID)
			if tt.wantAcceptable {
				assert.GreaterOrEqual(t, c.Confidence, AcceptanceThreshold)
			} else {
				assert.Less(t, c.Confidence, AcceptanceThreshold)
			}
		})
	}
}

func TestDetector_SortsByConfidence(t *testing.T) {
	var txns []model.Transaction
	txns = append(txns, seriesOn("gym", "-40", "2024-01-01", "2024-01-06", "2024-02-15")...)
	txns = append(txns, seriesOn("spotify", "-9.99", "2024-01-05", "2024-02-05", "2024-03-05", "2024-04-05")...)
	txns = append(txns, seriesOn("one-off", "-300", "2024-02-10")...)

	cands, err := NewDetector(nil).Detect(context.Background(), txns)
	require.NoError(t, err)
	require.Len(t, cands, 3)

	for i := 1; i < len(cands); i++ {
		assert.GreaterOrEqual(t, cands[i-1].Confidence, cands[i].Confidence)
	}
	assert.Equal(t, "Spotify", cands[0].Name)

	acceptable := Acceptable(cands)
	require.Len(t, acceptable, 1)
	assert.Equal(t, "Spotify", acceptable[0].Name)
}

func TestDetector_Empty(t *testing.T) {
	cands, err := NewDetector(nil).Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDetector_DetectRecordsSkipsMalformed(t *testing.T) {
	records := []model.TransactionRecord{
		{ID: "1", Date: "2024-01-01", Amount: "-15.99", Description: "Netflix Subscription"},
		{ID: "2", Date: "2024-02-01", Amount: "-15.99", Description: "Netflix Subscription"},
		{ID: "3", Date: "2024-03-03", Amount: "-15.99", Description: "Netflix Subscription"},
		{ID: "4", Date: "not a date", Amount: "-15.99", Description: "Netflix Subscription"},
		{ID: "5", Date: "2024-04-03", Amount: "abc", Description: "Netflix Subscription"},
	}

	cands, err := NewDetector(nil).DetectRecords(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 3, cands[0].SampleCount)
	assert.True(t, cands[0].Acceptable)
	assert.Equal(t, model.TypeExpense, cands[0].Representative.Type)
}

func TestDetector_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cands, err := NewDetector(nil).Detect(ctx, seriesOn("netflix", "-15.99", "2024-01-01", "2024-02-01"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cands)
}

func TestDetector_Progress(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
		last  int
	)
	d := NewDetectorWithConfig(nil, DetectorConfig{
		Workers: 2,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if done > last {
				last = done
			}
			assert.Equal(t, 3, total)
		},
	})

	var txns []model.Transaction
	txns = append(txns, seriesOn("a", "-1", "2024-01-01", "2024-02-01")...)
	txns = append(txns, seriesOn("b", "-1", "2024-01-01")...)
	txns = append(txns, seriesOn("c", "-1", "2024-01-01")...)

	_, err := d.Detect(context.Background(), txns)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, last)
}

func TestDetector_Deterministic(t *testing.T) {
	var txns []model.Transaction
	txns = append(txns, seriesOn("netflix", "-15.99", "2024-01-01", "2024-02-01", "2024-03-01")...)
	txns = append(txns, seriesOn("hulu", "-7.99", "2024-01-10", "2024-02-10", "2024-03-10")...)

	d := NewDetector(nil)
	first, err := d.Detect(context.Background(), txns)
	require.NoError(t, err)
	second, err := d.Detect(context.Background(), txns)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
