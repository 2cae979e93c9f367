package s1_signals

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxpulse/internal/contracts"
)

// stubRand replays fixed values
type stubRand struct {
	values []float64
	i      int
}

func (s *stubRand) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func quote(symbol string, price, cp float64) contracts.Quote {
	return contracts.Quote{Symbol: symbol, Price: price, ChangePercent: cp, FetchedAt: testNow}
}

func TestSynthesizeBuckets(t *testing.T) {
	tests := []struct {
		cp         float64
		volatility string
		trend      string
		momentum   string
		macd       string
	}{
		{1.5, contracts.VolatilityHigh, contracts.TrendBullish, contracts.MomentumStrong, contracts.MACDBullish},
		{-1.01, contracts.VolatilityHigh, contracts.TrendBearish, contracts.MomentumStrong, contracts.MACDBearish},
		{0.6, contracts.VolatilityMedium, contracts.TrendBullish, contracts.MomentumStrong, contracts.MACDBullish},
		{1.0, contracts.VolatilityMedium, contracts.TrendBullish, contracts.MomentumStrong, contracts.MACDBullish},
		{0.5, contracts.VolatilityLow, contracts.TrendBullish, contracts.MomentumWeak, contracts.MACDBullish},
		{0.2, contracts.VolatilityLow, contracts.TrendSideways, contracts.MomentumWeak, contracts.MACDBullish},
		{0, contracts.VolatilityLow, contracts.TrendSideways, contracts.MomentumWeak, contracts.MACDBearish},
		{-0.3, contracts.VolatilityLow, contracts.TrendBearish, contracts.MomentumWeak, contracts.MACDBearish},
	}

	synth := NewSynthesizer(&stubRand{values: []float64{0.5}})
	for _, tt := range tests {
		t.Run(fmt.Sprintf("cp_%v", tt.cp), func(t *testing.T) {
			snap := synth.Synthesize(quote("EURUSD", 1.1, tt.cp))
			assert.Equal(t, tt.volatility, snap.Volatility)
			assert.Equal(t, tt.trend, snap.Trend)
			assert.Equal(t, tt.momentum, snap.Momentum)
			assert.Equal(t, tt.macd, snap.MACDBias)
		})
	}
}

func TestSynthesizeNoiseBands(t *testing.T) {
	synth := NewSynthesizer(&stubRand{values: []float64{0, 0, 0}})
	low := synth.Synthesize(quote("EURUSD", 100, 0))
	assert.InDelta(t, 30.0, low.Oscillator, 1e-9)
	assert.InDelta(t, 98.5, low.Support, 1e-9)
	assert.InDelta(t, 100.5, low.Resistance, 1e-9)

	synth = NewSynthesizer(&stubRand{values: []float64{0.25, 0.5, 0.75}})
	mid := synth.Synthesize(quote("EURUSD", 100, 0))
	assert.InDelta(t, 40.0, mid.Oscillator, 1e-9)
	assert.InDelta(t, 99.0, mid.Support, 1e-9)
	assert.InDelta(t, 101.25, mid.Resistance, 1e-9)
}

func TestSynthesizeSeededIsReproducible(t *testing.T) {
	a := NewSynthesizer(NewRandSource(42))
	b := NewSynthesizer(NewRandSource(42))

	for i := 0; i < 20; i++ {
		q := quote("GBPUSD", 1.27, 0.1)
		assert.Equal(t, a.Synthesize(q), b.Synthesize(q))
	}
}

func TestSynthesizeRanges(t *testing.T) {
	synth := NewSynthesizer(NewRandSource(7))
	for i := 0; i < 500; i++ {
		snap := synth.Synthesize(quote("USDJPY", 150, 0.3))
		assert.GreaterOrEqual(t, snap.Oscillator, 30.0)
		assert.Less(t, snap.Oscillator, 70.0)
		assert.GreaterOrEqual(t, snap.Support, 150*0.985)
		assert.Less(t, snap.Support, 150*0.995)
		assert.GreaterOrEqual(t, snap.Resistance, 150*1.005)
		assert.Less(t, snap.Resistance, 150*1.015)
	}
}

func TestScoreOversoldMomentumBreakout(t *testing.T) {
	scorer := NewScorer(nil)
	q := quote("EURUSD", 1.0842, 0.6)
	snap := contracts.TechnicalSnapshot{
		Volatility: contracts.VolatilityMedium,
		Oscillator: 20,
		MACDBias:   contracts.MACDBullish,
	}

	sig := scorer.Score(q, snap, testNow)

	assert.Equal(t, contracts.DirectionBuy, sig.Direction)
	assert.Equal(t, 95, sig.Strength)
	assert.Equal(t, []string{PatternMomentumBreakout, PatternOversold, PatternMACDBullish}, sig.Patterns)
	assert.InDelta(t, 76.0, sig.Confidence, 1e-9)
	assert.InDelta(t, 1.0842*0.995, sig.StopLoss, 1e-12)
	assert.InDelta(t, 1.0842*1.015, sig.TakeProfit, 1e-12)
	assert.Equal(t, 1.5, sig.RiskRewardRatio)
	assert.Equal(t, "1h", sig.Timeframe)
	assert.Equal(t, testNow.Add(4*time.Hour), sig.ExpiresAt)
	assert.True(t, sig.IsActive)
	assert.NotEmpty(t, sig.ID)
}

func TestScoreWithoutMACDBranch(t *testing.T) {
	sig := NewScorer(nil).Score(quote("EURUSD", 1.0842, 0.6), contracts.TechnicalSnapshot{
		Volatility: contracts.VolatilityMedium,
		Oscillator: 20,
		MACDBias:   contracts.MACDBearish,
	}, testNow)

	assert.Equal(t, contracts.DirectionBuy, sig.Direction)
	assert.Equal(t, 85, sig.Strength)
	assert.Equal(t, []string{PatternMomentumBreakout, PatternOversold}, sig.Patterns)
}

func TestScoreMACDDoesNotOverwriteDirection(t *testing.T) {
	sig := NewScorer(nil).Score(quote("GBPUSD", 1.27, 0.3), contracts.TechnicalSnapshot{
		Oscillator: 68,
		MACDBias:   contracts.MACDBullish,
	}, testNow)

	assert.Equal(t, contracts.DirectionSell, sig.Direction)
	assert.Equal(t, 75, sig.Strength)
	assert.Equal(t, []string{PatternOverbought, PatternMACDBullish}, sig.Patterns)
	assert.InDelta(t, 1.27*1.005, sig.StopLoss, 1e-12)
	assert.InDelta(t, 1.27*0.985, sig.TakeProfit, 1e-12)
}

func TestScoreBearishMACDSetsSell(t *testing.T) {
	sig := NewScorer(nil).Score(quote("USDJPY", 150, -0.3), contracts.TechnicalSnapshot{
		Oscillator: 50,
		MACDBias:   contracts.MACDBearish,
	}, testNow)

	assert.Equal(t, contracts.DirectionSell, sig.Direction)
	assert.Equal(t, 60, sig.Strength)
	assert.Equal(t, []string{PatternMACDBearish}, sig.Patterns)
}

func TestScoreNeutral(t *testing.T) {
	sig := NewScorer(nil).Score(quote("EURJPY", 162.3, 0), contracts.TechnicalSnapshot{
		Oscillator: 50,
		MACDBias:   contracts.MACDBearish,
	}, testNow)

	assert.Equal(t, contracts.DirectionNeutral, sig.Direction)
	assert.Equal(t, 50, sig.Strength)
	assert.Empty(t, sig.Patterns)
	assert.InDelta(t, 162.3*1.005, sig.StopLoss, 1e-9)
	assert.InDelta(t, 162.3*0.985, sig.TakeProfit, 1e-9)
}

func TestScoreGoldPremiumClamped(t *testing.T) {
	sig := NewScorer(nil).Score(quote("XAUUSD", 2034.1, 1.4), contracts.TechnicalSnapshot{
		Volatility: contracts.VolatilityHigh,
		Oscillator: 25,
		MACDBias:   contracts.MACDBullish,
	}, testNow)

	// 50+20+10+15+10+15 = 120
	assert.Equal(t, 100, sig.Strength)
	assert.Equal(t, 80.0, sig.Confidence)
	assert.Equal(t, "gold_premium", sig.Patterns[len(sig.Patterns)-1])
}

func TestScorePremiumOverrides(t *testing.T) {
	scorer := NewScorer(map[string]int{"BTCUSD": 5, "XAUUSD": 0})
	snap := contracts.TechnicalSnapshot{Oscillator: 50, MACDBias: contracts.MACDBearish}

	btc := scorer.Score(quote("BTCUSD", 43000, 0), snap, testNow)
	assert.Equal(t, 55, btc.Strength)
	assert.Equal(t, []string{"premium"}, btc.Patterns)

	gold := scorer.Score(quote("XAUUSD", 2034, 0), snap, testNow)
	assert.Equal(t, 50, gold.Strength)
	assert.Equal(t, []string{"gold_premium"}, gold.Patterns)

	p, ok := scorer.Premium("BTCUSD")
	require.True(t, ok)
	assert.Equal(t, PremiumBonus{Bonus: 5, Pattern: "premium"}, p)

	_, ok = scorer.Premium("EURUSD")
	assert.False(t, ok)
}

func TestScoreInvariants(t *testing.T) {
	scorer := NewScorer(map[string]int{"EURUSD": -80})
	synth := NewSynthesizer(NewRandSource(99))

	for _, cp := range []float64{-3, -1.2, -0.6, -0.1, 0, 0.1, 0.6, 1.2, 3} {
		for _, symbol := range []string{"EURUSD", "XAUUSD"} {
			q := quote(symbol, 1.5, cp)
			sig := scorer.Score(q, synth.Synthesize(q), testNow)

			require.GreaterOrEqual(t, sig.Strength, 0)
			require.LessOrEqual(t, sig.Strength, 100)
			assert.Equal(t, float64(sig.Strength)*0.8, sig.Confidence)
			assert.True(t, sig.Direction.Valid())
		}
	}
}
