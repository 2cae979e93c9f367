package s0_data

import (
	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/config"
)

// InstrumentsFromCatalog converts catalog entries into provisioning rows
func InstrumentsFromCatalog(cat *config.Catalog) []contracts.Instrument {
	out := make([]contracts.Instrument, 0, len(cat.Instruments))
	for _, e := range cat.Instruments {
		spread := e.Spread
		out = append(out, contracts.Instrument{
			Symbol: e.Symbol,
			Name:   e.Name,
			Spread: &spread,
		})
	}
	return out
}

// QuoteToInstrument applies a quote to a catalog row.
// Bid and ask straddle the price by half the catalog spread.
func QuoteToInstrument(q contracts.Quote, spread float64) contracts.Instrument {
	inst := contracts.Instrument{
		Symbol:        q.Symbol,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		UpdatedAt:     q.FetchedAt,
	}
	if spread > 0 {
		bid := q.Price - spread/2
		ask := q.Price + spread/2
		s := spread
		inst.Bid, inst.Ask, inst.Spread = &bid, &ask, &s
	}
	return inst
}
