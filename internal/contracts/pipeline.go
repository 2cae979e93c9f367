package contracts

import "time"

// Cycle triggers
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Pipeline stages reported in failures
const (
	StageFetch    = "fetch"
	StageIngest   = "ingest"
	StageActivate = "activate"
	StageNotify   = "notify"
)

// CycleSummary reports one full pass over the catalog
type CycleSummary struct {
	Trigger   string          `json:"trigger"`
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Failures  []SymbolFailure `json:"failures,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// SymbolFailure names the symbol and stage at which its pipeline stopped
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// FailedSymbols returns the failed symbols in report order
func (s *CycleSummary) FailedSymbols() []string {
	out := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		out = append(out, f.Symbol)
	}
	return out
}
