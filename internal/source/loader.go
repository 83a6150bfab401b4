package source

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gamebook-tools/sectioneer/internal/hypothesis"
)

// Source produces one hypothesis batch. Implementations must be safe to
// fetch from any goroutine.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Batch, error)
}

// Loader fetches, validates, and normalizes batches concurrently. Workers
// share a single index queue; per-batch results land in fixed slots so the
// concatenated output follows source order, never arrival order. The
// resolve stages downstream are order-invariant, but keeping collection
// deterministic makes whole runs reproducible byte for byte.
type Loader struct {
	collector *hypothesis.Collector
	logger    *slog.Logger
	workers   int

	inFlight atomic.Int32
}

// LoaderConfig configures a new Loader.
type LoaderConfig struct {
	Collector *hypothesis.Collector
	Logger    *slog.Logger
	Workers   int // defaults to runtime.NumCPU()
}

// NewLoader creates a Loader.
func NewLoader(cfg LoaderConfig) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	collector := cfg.Collector
	if collector == nil {
		collector = hypothesis.NewCollector(nil, logger)
	}
	return &Loader{
		collector: collector,
		logger:    logger.With("component", "loader", "workers", workers),
		workers:   workers,
	}
}

// batchResult is one worker's output for one source slot.
type batchResult struct {
	hyps  []hypothesis.Hypothesis
	drops hypothesis.DropReport
	err   error
}

// Load fetches every source and returns the concatenated hypotheses plus
// the merged drop report. Any source failure fails the load: a missing
// batch would silently skew consensus voting, so partial loads are not
// allowed. The first failing source (in source order) is reported.
func (l *Loader) Load(ctx context.Context, sources []Source) ([]hypothesis.Hypothesis, hypothesis.DropReport, error) {
	if len(sources) == 0 {
		return nil, hypothesis.DropReport{}, fmt.Errorf("no batch sources")
	}

	results := make([]batchResult, len(sources))
	queue := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < l.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				l.inFlight.Add(1)
				results[idx] = l.loadOne(ctx, sources[idx])
				l.inFlight.Add(-1)
			}
		}()
	}

feed:
	for i := range sources {
		select {
		case queue <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, hypothesis.DropReport{}, err
	}

	var hyps []hypothesis.Hypothesis
	var drops hypothesis.DropReport
	for i, res := range results {
		if res.err != nil {
			return nil, hypothesis.DropReport{}, fmt.Errorf("source %s: %w", sources[i].Name(), res.err)
		}
		hyps = append(hyps, res.hyps...)
		drops.Merge(res.drops)
	}

	l.logger.Info("batches loaded",
		"sources", len(sources), "hypotheses", len(hyps), "dropped", drops.Count)
	return hyps, drops, nil
}

// InFlight returns the number of batches currently being fetched. Used by
// progress reporting.
func (l *Loader) InFlight() int {
	return int(l.inFlight.Load())
}

func (l *Loader) loadOne(ctx context.Context, src Source) batchResult {
	batch, err := src.Fetch(ctx)
	if err != nil {
		return batchResult{err: err}
	}
	hyps, drops, err := l.collector.CollectJSON(batch.Records)
	if err != nil {
		return batchResult{err: err}
	}
	l.logger.Debug("batch collected",
		"source", src.Name(), "records", len(batch.Records),
		"kept", len(hyps), "dropped", drops.Count)
	return batchResult{hyps: hyps, drops: drops}
}
