package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/service"
)

// Config holds configuration options for the engine.
type Config struct {
	Clock    func() time.Time
	Progress ProgressFunc
	Lexicon  []LexiconEntry
	Retry    service.RetryOptions
	Workers  int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Clock:   time.Now,
		Lexicon: DefaultLexicon(),
		Workers: DefaultDetectorConfig().Workers,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
		},
	}
}

// Engine bundles detection, the definition lifecycle and due processing
// over one storage.
type Engine struct {
	Detector     *Detector
	Definitions  *Service
	Due          *Processor
	transactions service.TransactionStore
}

// New creates an engine with the given storage and configuration.
func New(store service.Storage, config Config) *Engine {
	namer := NewNamer(config.Lexicon)
	return &Engine{
		Detector: NewDetectorWithConfig(namer, DetectorConfig{
			Workers:  config.Workers,
			Progress: config.Progress,
		}),
		Definitions: NewService(store, ServiceConfig{
			Clock: config.Clock,
			Namer: namer,
			Retry: config.Retry,
		}),
		Due:          NewProcessor(store, store, config.Retry),
		transactions: store,
	}
}

// DetectStored runs detection over the stored transaction history.
// Transactions materialized from definitions are left out, so a scheduled
// pattern is not fed its own output.
func (e *Engine) DetectStored(ctx context.Context, filter service.TransactionFilter) ([]model.PatternCandidate, error) {
	filter.ExcludeRecurring = true
	txns, err := e.transactions.GetTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}
	return e.Detector.Detect(ctx, txns)
}
