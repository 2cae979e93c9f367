package contracts

import "context"

// ⭐ SSOT: repository interfaces are defined here only

// InstrumentRepository stores the instrument catalog and latest quotes
type InstrumentRepository interface {
	// EnsureCatalog upserts symbol and name for every catalog entry
	EnsureCatalog(ctx context.Context, instruments []Instrument) error
	// ApplyQuote updates price fields of an existing symbol. ErrNotFound if absent.
	ApplyQuote(ctx context.Context, inst Instrument) (*Instrument, error)
	// List returns instruments ordered by symbol
	List(ctx context.Context) ([]Instrument, error)
}

// SignalStore persists signals with at most one active per symbol
type SignalStore interface {
	// Activate deactivates the symbol's active signals and inserts sig as one atomic unit
	Activate(ctx context.Context, sig *Signal) (*Signal, error)
	// ActiveSignals returns active signals ordered by created_at desc
	ActiveSignals(ctx context.Context) ([]Signal, error)
	// ActiveSignal returns the symbol's active signal or ErrNotFound
	ActiveSignal(ctx context.Context, symbol string) (*Signal, error)
}

// NotificationRepository stores notifications
type NotificationRepository interface {
	Insert(ctx context.Context, n *Notification) error
	// MarkRead sets is_read. ErrNotFound for unknown ids.
	MarkRead(ctx context.Context, id string) (*Notification, error)
	// Recent returns the newest limit notifications, newest first
	Recent(ctx context.Context, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
}

// AnalysisRepository appends analysis snapshots. Never read by the pipeline.
type AnalysisRepository interface {
	Insert(ctx context.Context, a *AnalysisSnapshot) error
}

// QuoteSource fetches quotes; per-symbol failures are reported, not returned as error
type QuoteSource interface {
	FetchQuotes(ctx context.Context, symbols []string) FetchResult
}

// FetchResult is the outcome of one FetchQuotes call
type FetchResult struct {
	Quotes   map[string]Quote
	Failures []*ProviderFetchError
}
