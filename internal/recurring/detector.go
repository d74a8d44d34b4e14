package recurring

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/spice-recurring/internal/model"
)

// ProgressFunc is called after each series is analyzed. It may be called
// from several goroutines at once.
type ProgressFunc func(done, total int)

// DetectorConfig holds configuration options for the detector.
type DetectorConfig struct {
	Progress ProgressFunc
	Workers  int
}

// DefaultDetectorConfig returns the default configuration.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Workers: runtime.NumCPU(),
	}
}

// Detector infers recurring patterns from a transaction history. It keeps
// no state between calls and writes nothing.
type Detector struct {
	namer    *Namer
	progress ProgressFunc
	workers  int
}

// NewDetector creates a detector with the default configuration.
func NewDetector(namer *Namer) *Detector {
	return NewDetectorWithConfig(namer, DefaultDetectorConfig())
}

// NewDetectorWithConfig creates a detector with custom configuration.
func NewDetectorWithConfig(namer *Namer, config DetectorConfig) *Detector {
	if namer == nil {
		namer = NewNamer(DefaultLexicon())
	}
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	return &Detector{
		namer:    namer,
		progress: config.Progress,
		workers:  workers,
	}
}

// DetectRecords parses raw records and detects patterns in the valid ones.
// Records with bad dates or amounts are skipped with a warning.
func (d *Detector) DetectRecords(ctx context.Context, records []model.TransactionRecord) ([]model.PatternCandidate, error) {
	txns, errs := model.ParseRecords(records)
	for _, err := range errs {
		slog.Warn("Skipping malformed transaction record", "error", err)
	}
	return d.Detect(ctx, txns)
}

// Detect groups transactions by signature and analyzes every series in
// parallel. Candidates are sorted by confidence, highest first. When ctx
// is canceled between series the partial result is discarded and
// ctx.Err() is returned.
func (d *Detector) Detect(ctx context.Context, transactions []model.Transaction) ([]model.PatternCandidate, error) {
	groups := GroupBySignature(transactions)
	if len(groups) == 0 {
		return []model.PatternCandidate{}, nil
	}

	sigs := sortedSignatures(groups)
	candidates := make([]model.PatternCandidate, len(sigs))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, sig := range sigs {
		if gctx.Err() != nil {
			break
		}
		i, sig := i, sig
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i] = d.analyze(sig, groups[sig])
			if d.progress != nil {
				d.progress(int(done.Add(1)), len(sigs))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Name < candidates[j].Name
	})

	accepted := 0
	for _, c := range candidates {
		if c.Acceptable {
			accepted++
		}
	}
	slog.Info("Detected recurring patterns",
		"transactions", len(transactions),
		"series", len(candidates),
		"acceptable", accepted)

	return candidates, nil
}

// analyze runs the per-series pipeline. series must be sorted by date.
func (d *Detector) analyze(sig model.Signature, series []model.Transaction) model.PatternCandidate {
	intervals := Intervals(series)
	freq := Classify(intervals)
	latest := series[len(series)-1]

	c := model.PatternCandidate{
		Signature:      sig,
		Name:           d.namer.Name(latest.Description),
		Frequency:      freq,
		Confidence:     Score(intervals, freq),
		NextDate:       Predict(latest.Date, freq),
		Representative: latest,
		SampleCount:    len(series),
		Intervals:      intervals,
	}
	c.Acceptable = IsAcceptable(c)
	return c
}

// Acceptable returns the candidates that clear the acceptance threshold.
func Acceptable(candidates []model.PatternCandidate) []model.PatternCandidate {
	var out []model.PatternCandidate
	for _, c := range candidates {
		if IsAcceptable(c) {
			out = append(out, c)
		}
	}
	return out
}
