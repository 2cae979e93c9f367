package s1_signals

import (
	"math"

	"github.com/wonny/fxpulse/internal/contracts"
)

// Synthesizer derives a simulated indicator snapshot from a quote.
// Oscillator and support/resistance carry bounded noise from the RandSource.
// ⭐ SSOT: indicator synthesis happens here only
type Synthesizer struct {
	rand RandSource
}

// NewSynthesizer creates a synthesizer over the given source
func NewSynthesizer(src RandSource) *Synthesizer {
	return &Synthesizer{rand: src}
}

// Synthesize computes the snapshot for one quote
func (s *Synthesizer) Synthesize(q contracts.Quote) contracts.TechnicalSnapshot {
	cp := q.ChangePercent
	abs := math.Abs(cp)

	snap := contracts.TechnicalSnapshot{
		Volatility: contracts.VolatilityLow,
		Trend:      contracts.TrendSideways,
		Momentum:   contracts.MomentumWeak,
		MACDBias:   contracts.MACDBearish,
	}

	switch {
	case abs > 1.0:
		snap.Volatility = contracts.VolatilityHigh
	case abs > 0.5:
		snap.Volatility = contracts.VolatilityMedium
	}

	switch {
	case cp > 0.2:
		snap.Trend = contracts.TrendBullish
	case cp < -0.2:
		snap.Trend = contracts.TrendBearish
	}

	if abs > 0.5 {
		snap.Momentum = contracts.MomentumStrong
	}

	// draw order is fixed: oscillator, support, resistance
	snap.Oscillator = 30 + s.rand.Float64()*40
	snap.Support = q.Price * (0.985 + s.rand.Float64()*0.01)
	snap.Resistance = q.Price * (1.005 + s.rand.Float64()*0.01)

	if cp > 0 {
		snap.MACDBias = contracts.MACDBullish
	}

	return snap
}
