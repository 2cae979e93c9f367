package contracts

import "time"

// Instrument is a tracked symbol and its latest applied quote
// ⭐ SSOT: instrument row shape shared by repositories, hub and API
type Instrument struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Bid           *float64  `json:"bid,omitempty"`
	Ask           *float64  `json:"ask,omitempty"`
	Spread        *float64  `json:"spread,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Quote is one provider observation. Not retained beyond updating the Instrument.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Volatility buckets
const (
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

// Trend labels
const (
	TrendBullish  = "bullish"
	TrendBearish  = "bearish"
	TrendSideways = "sideways"
)

// Momentum labels
const (
	MomentumWeak   = "weak"
	MomentumStrong = "strong"
)

// MACD bias
const (
	MACDBullish = "bullish"
	MACDBearish = "bearish"
)

// TechnicalSnapshot is the synthesized indicator set for one scoring pass
type TechnicalSnapshot struct {
	Volatility string  `json:"volatility"`
	Oscillator float64 `json:"oscillator"` // 0 ~ 100
	Trend      string  `json:"trend"`
	Momentum   string  `json:"momentum"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	MACDBias   string  `json:"macd_bias"`
}

// AnalysisSnapshot is an append-only record of a scoring pass
type AnalysisSnapshot struct {
	ID           string            `json:"id"`
	Symbol       string            `json:"symbol"`
	Timeframe    string            `json:"timeframe"`
	AnalysisType string            `json:"analysis_type"`
	Data         TechnicalSnapshot `json:"data"`
	Confidence   float64           `json:"confidence_score"`
	CreatedAt    time.Time         `json:"created_at"`
}

// AnalysisTypePrediction tags snapshots written by the scorer
const AnalysisTypePrediction = "ml_prediction"
