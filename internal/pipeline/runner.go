package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/internal/realtime"
	"github.com/wonny/fxpulse/internal/s0_data"
	"github.com/wonny/fxpulse/internal/s1_signals"
	"github.com/wonny/fxpulse/internal/s3_notify"
	"github.com/wonny/fxpulse/pkg/config"
	"github.com/wonny/fxpulse/pkg/logger"
	"github.com/wonny/fxpulse/pkg/metrics"
)

// Deps are the collaborators of a Runner
type Deps struct {
	Catalog     *config.Catalog
	Source      contracts.QuoteSource
	Instruments contracts.InstrumentRepository
	Analysis    contracts.AnalysisRepository
	Signals     contracts.SignalStore
	Notifier    *s3_notify.Engine
	Hub         *realtime.Hub
	Synthesizer *s1_signals.Synthesizer
	Scorer      *s1_signals.Scorer
}

// Runner executes analysis cycles over the catalog.
// The scheduled job and the manual trigger both call RunCycle.
// ⭐ SSOT: ingest → score → activate → notify → publish happens here only
type Runner struct {
	deps    Deps
	workers int
	logger  *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	symbols sync.Map // symbol -> *symbolState
}

// symbolState serializes one symbol's pipeline across concurrent cycles
type symbolState struct {
	mu          sync.Mutex
	lastApplied time.Time
}

// outcome is the result of one symbol's pipeline
type outcome struct {
	symbol  string
	skipped bool
	stage   string
	err     error
}

// NewRunner creates a cycle runner
func NewRunner(deps Deps, workers int, log *logger.Logger, rec *metrics.Recorder) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		deps:    deps,
		workers: workers,
		logger:  log.Module("pipeline"),
		metrics: rec,
		now:     time.Now,
	}
}

// RunCycle fetches every catalog symbol, then runs each symbol's pipeline on the worker pool.
// Failures are contained per symbol and reported in the summary.
func (r *Runner) RunCycle(ctx context.Context, trigger string) *contracts.CycleSummary {
	started := r.now()
	symbols := r.deps.Catalog.Symbols()

	summary := &contracts.CycleSummary{
		Trigger:   trigger,
		StartedAt: started,
	}

	r.logger.WithFields(map[string]interface{}{
		"trigger": trigger,
		"symbols": len(symbols),
		"workers": r.workers,
	}).Debug("Starting cycle")

	// 1. Fetch with no symbol lock held
	fetched := r.deps.Source.FetchQuotes(ctx, symbols)
	for _, f := range fetched.Failures {
		summary.Failures = append(summary.Failures, contracts.SymbolFailure{
			Symbol: f.Symbol,
			Stage:  contracts.StageFetch,
			Error:  f.Error(),
		})
		r.metrics.RecordSymbolFailure(contracts.StageFetch)
	}

	quotes := make([]contracts.Quote, 0, len(fetched.Quotes))
	for _, q := range fetched.Quotes {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })

	// 2. Worker pool
	quoteCh := make(chan contracts.Quote, len(quotes))
	resultCh := make(chan outcome, len(quotes))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.worker(ctx, workerID, quoteCh, resultCh)
		}(i)
	}

	for _, q := range quotes {
		quoteCh <- q
	}
	close(quoteCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 3. Collect
	for res := range resultCh {
		switch {
		case res.err != nil:
			summary.Failures = append(summary.Failures, contracts.SymbolFailure{
				Symbol: res.symbol,
				Stage:  res.stage,
				Error:  res.err.Error(),
			})
			r.metrics.RecordSymbolFailure(res.stage)
		case res.skipped:
			summary.Skipped++
		default:
			summary.Processed++
		}
	}

	sort.SliceStable(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].Symbol < summary.Failures[j].Symbol
	})
	summary.Failed = len(summary.Failures)
	summary.Duration = r.now().Sub(started)
	r.metrics.RecordCycle(trigger, summary.Duration)

	log := r.logger.WithFields(map[string]interface{}{
		"trigger":   trigger,
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"duration":  summary.Duration,
	})
	if summary.Failed > 0 {
		log.WithField("failed_symbols", summary.FailedSymbols()).Warn("Cycle completed with failures")
	} else {
		log.Info("Cycle completed")
	}

	return summary
}

func (r *Runner) worker(ctx context.Context, workerID int, quoteCh <-chan contracts.Quote, resultCh chan<- outcome) {
	for q := range quoteCh {
		select {
		case <-ctx.Done():
			resultCh <- outcome{symbol: q.Symbol, stage: contracts.StageIngest, err: ctx.Err()}
			continue
		default:
		}

		res := r.processSymbol(ctx, q)
		if res.err != nil {
			r.logger.WithError(res.err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": q.Symbol,
				"stage":  res.stage,
			}).Warn("Symbol pipeline failed")
		}
		resultCh <- res
	}
}

func (r *Runner) stateFor(symbol string) *symbolState {
	st, _ := r.symbols.LoadOrStore(symbol, &symbolState{})
	return st.(*symbolState)
}

// processSymbol runs one symbol's pipeline under that symbol's lock
func (r *Runner) processSymbol(ctx context.Context, q contracts.Quote) outcome {
	st := r.stateFor(q.Symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	// a concurrent cycle already applied a newer quote
	if q.FetchedAt.Before(st.lastApplied) {
		r.logger.WithFields(map[string]interface{}{
			"symbol":       q.Symbol,
			"fetched_at":   q.FetchedAt,
			"last_applied": st.lastApplied,
		}).Debug("Skipped stale quote")
		return outcome{symbol: q.Symbol, skipped: true}
	}

	// ingest
	var spread float64
	if entry, ok := r.deps.Catalog.Lookup(q.Symbol); ok {
		spread = entry.Spread
	}
	inst, err := r.deps.Instruments.ApplyQuote(ctx, s0_data.QuoteToInstrument(q, spread))
	if err != nil {
		return outcome{symbol: q.Symbol, stage: contracts.StageIngest, err: err}
	}
	st.lastApplied = q.FetchedAt
	r.metrics.RecordLastPrice(q.Symbol, q.Price)
	r.deps.Hub.PublishInstrument(*inst)

	// score
	snap := r.deps.Synthesizer.Synthesize(q)
	sig := r.deps.Scorer.Score(q, snap, r.now())

	// the analysis log is off the read path; a failed append does not stop the symbol
	if err := r.deps.Analysis.Insert(ctx, &contracts.AnalysisSnapshot{
		Symbol:       q.Symbol,
		Timeframe:    s1_signals.SignalTimeframe,
		AnalysisType: contracts.AnalysisTypePrediction,
		Data:         snap,
		Confidence:   sig.Confidence,
		CreatedAt:    sig.CreatedAt,
	}); err != nil {
		r.logger.WithError(err).WithField("symbol", q.Symbol).Warn("Analysis snapshot not saved")
	}

	// activate
	committed, err := r.deps.Signals.Activate(ctx, sig)
	if err != nil {
		return outcome{symbol: q.Symbol, stage: contracts.StageActivate, err: err}
	}
	r.metrics.RecordSignal(string(committed.Direction))
	r.deps.Hub.PublishSignal(*committed)

	// notify
	n, err := r.deps.Notifier.Notify(ctx, committed)
	if err != nil {
		return outcome{symbol: q.Symbol, stage: contracts.StageNotify, err: err}
	}
	if n != nil {
		r.metrics.RecordNotification()
		r.deps.Hub.PublishNotification(*n)
	}

	return outcome{symbol: q.Symbol}
}
