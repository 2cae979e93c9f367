package s1_signals

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fxpulse/internal/contracts"
)

// Scoring constants
const (
	BaseStrength = 50

	momentumThreshold = 0.5
	momentumBonus     = 20
	volatilityBonus   = 10
	oversoldLevel     = 35.0
	overboughtLevel   = 65.0
	oscillatorBonus   = 15
	macdBonus         = 10

	ConfidenceFactor = 0.8
	RiskRewardRatio  = 1.5
	SignalTimeframe  = "1h"
	SignalLifetime   = 4 * time.Hour
)

// Pattern tags
const (
	PatternMomentumBreakout = "momentum_breakout"
	PatternHighVolatility   = "high_volatility"
	PatternOversold         = "oversold"
	PatternOverbought       = "overbought"
	PatternMACDBullish      = "macd_bullish"
	PatternMACDBearish      = "macd_bearish"
)

// PremiumBonus is a fixed strength bonus for a distinguished instrument
type PremiumBonus struct {
	Bonus   int
	Pattern string
}

// DefaultPremium is the built-in premium table
var DefaultPremium = map[string]PremiumBonus{
	"XAUUSD": {Bonus: 15, Pattern: "gold_premium"},
}

// Scorer turns a quote and snapshot into an unpersisted Signal
// ⭐ SSOT: signal scoring rules live here only
type Scorer struct {
	premium map[string]PremiumBonus
	newID   func() string
}

// NewScorer creates a scorer. Entries in overrides replace or extend DefaultPremium.
func NewScorer(overrides map[string]int) *Scorer {
	premium := make(map[string]PremiumBonus, len(DefaultPremium)+len(overrides))
	for sym, p := range DefaultPremium {
		premium[sym] = p
	}
	for sym, bonus := range overrides {
		p, ok := premium[sym]
		if !ok {
			p.Pattern = "premium"
		}
		p.Bonus = bonus
		premium[sym] = p
	}
	return &Scorer{
		premium: premium,
		newID:   func() string { return uuid.New().String() },
	}
}

// Premium returns the bonus applied to symbol, if any
func (s *Scorer) Premium(symbol string) (PremiumBonus, bool) {
	p, ok := s.premium[symbol]
	return p, ok
}

// Score applies the rules in fixed order
func (s *Scorer) Score(q contracts.Quote, snap contracts.TechnicalSnapshot, now time.Time) *contracts.Signal {
	strength := BaseStrength
	direction := contracts.DirectionNeutral
	patterns := make([]string, 0, 4)
	cp := q.ChangePercent

	// 1. momentum
	if math.Abs(cp) > momentumThreshold {
		strength += momentumBonus
		patterns = append(patterns, PatternMomentumBreakout)
	}

	// 2. volatility
	if snap.Volatility == contracts.VolatilityHigh {
		strength += volatilityBonus
		patterns = append(patterns, PatternHighVolatility)
	}

	// 3. oscillator sets the first direction
	switch {
	case snap.Oscillator < oversoldLevel:
		direction = contracts.DirectionBuy
		strength += oscillatorBonus
		patterns = append(patterns, PatternOversold)
	case snap.Oscillator > overboughtLevel:
		direction = contracts.DirectionSell
		strength += oscillatorBonus
		patterns = append(patterns, PatternOverbought)
	}

	// 4. MACD never overwrites a direction from rule 3
	switch {
	case snap.MACDBias == contracts.MACDBullish && cp > 0:
		if direction == contracts.DirectionNeutral {
			direction = contracts.DirectionBuy
		}
		strength += macdBonus
		patterns = append(patterns, PatternMACDBullish)
	case snap.MACDBias == contracts.MACDBearish && cp < 0:
		if direction == contracts.DirectionNeutral {
			direction = contracts.DirectionSell
		}
		strength += macdBonus
		patterns = append(patterns, PatternMACDBearish)
	}

	// 5. premium instruments
	if p, ok := s.premium[q.Symbol]; ok {
		strength += p.Bonus
		patterns = append(patterns, p.Pattern)
	}

	// 6. clamp
	strength = clamp(strength, 0, 100)

	// 7. levels
	stop, target := q.Price*1.005, q.Price*0.985
	if direction == contracts.DirectionBuy {
		stop, target = q.Price*0.995, q.Price*1.015
	}

	return &contracts.Signal{
		ID:              s.newID(),
		Symbol:          q.Symbol,
		Direction:       direction,
		Strength:        strength,
		Confidence:      float64(strength) * ConfidenceFactor,
		Patterns:        patterns,
		Price:           q.Price,
		StopLoss:        stop,
		TakeProfit:      target,
		RiskRewardRatio: RiskRewardRatio,
		Timeframe:       SignalTimeframe,
		Analysis:        snap,
		CreatedAt:       now,
		ExpiresAt:       now.Add(SignalLifetime),
		IsActive:        true,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
