package sim

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	minMarketShare = 0.01
	maxMarketShare = 0.99

	minMarketGrowth = 0.01
	maxMarketGrowth = 0.05

	// growthNoiseStep spaces samples along the noise field so consecutive
	// quarters wander smoothly instead of jumping.
	growthNoiseStep  = 0.35
	growthWanderStep = 0.01
)

// marketOutcome is what one quarter of market dynamics produced.
type marketOutcome struct {
	MarketSize  float64
	Growth      float64
	PlayerShare float64
	Demand      float64
}

// applyMarket grows the market, shifts the share split by relative price
// and quality, and reports the demand addressed to the player. The share
// shift uses the rival's freshly updated price and quality against the
// player's capabilities as they stood entering the quarter.
func applyMarket(m MarketState, playerPrice, playerQuality, marketingEff float64, quarter int) marketOutcome {
	size := m.MarketSize * (1 + m.MarketGrowth)
	growth := wanderGrowth(m.MarketGrowth, m.GrowthSeed, quarter)

	priceRatio := playerPrice / m.CompetitorPrice
	shift := -m.PriceElasticity * (priceRatio - 1)

	qualityAdv := 1.0
	if m.CompetitorQuality > 0 {
		qualityAdv = playerQuality / m.CompetitorQuality
	}
	// Strong marketing and quality amplify gains and cushion losses.
	amp := marketingEff * qualityAdv
	if amp <= 0 {
		amp = 1
	}
	if shift >= 0 {
		shift *= amp
	} else {
		shift /= amp
	}

	share := clamp(m.PlayerMarketShare*(1+shift), minMarketShare, maxMarketShare)

	return marketOutcome{
		MarketSize:  size,
		Growth:      growth,
		PlayerShare: share,
		Demand:      share * size,
	}
}

// wanderGrowth walks the quarterly growth rate through a seeded smooth
// noise field, clamped to the documented band. Deterministic per
// (seed, quarter), so replays agree.
func wanderGrowth(current float64, seed int64, quarter int) float64 {
	noise := opensimplex.NewNormalized(seed)
	drift := (noise.Eval2(float64(quarter)*growthNoiseStep, 0.5) - 0.5) * 2 * growthWanderStep
	return clamp(current+drift, minMarketGrowth, maxMarketGrowth)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
