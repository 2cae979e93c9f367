package contracts

import (
	"strings"
	"time"
)

// Direction is a signal's recommendation
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	switch d {
	case DirectionBuy, DirectionSell, DirectionNeutral:
		return true
	}
	return false
}

// Signal is the pipeline's recommendation for one instrument.
// Immutable once inserted except IsActive flipping to false.
// ⭐ SSOT: scorer → activation store → notify → hub
type Signal struct {
	ID              string            `json:"id"`
	Symbol          string            `json:"symbol"`
	Direction       Direction         `json:"signal_type"`
	Strength        int               `json:"strength"`   // 0 ~ 100
	Confidence      float64           `json:"confidence"` // 0.8 × strength
	Patterns        []string          `json:"patterns"`
	Price           float64           `json:"entry_price"`
	StopLoss        float64           `json:"stop_loss"`
	TakeProfit      float64           `json:"take_profit"`
	RiskRewardRatio float64           `json:"risk_reward_ratio"`
	Timeframe       string            `json:"timeframe"`
	Analysis        TechnicalSnapshot `json:"analysis"`
	CreatedAt       time.Time         `json:"created_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	IsActive        bool              `json:"is_active"`
}

// Pattern returns the comma-joined pattern tags
func (s *Signal) Pattern() string {
	return strings.Join(s.Patterns, ",")
}
