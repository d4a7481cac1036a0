package sim

// competitorPolicy parameterizes the single reactive rival. Only the
// default archetype ships; games could carry alternates later without
// touching the step function.
type competitorPolicy struct {
	AdjustFactor float64 // fraction of the price gap closed per quarter
	MaxStep      float64 // absolute per-quarter price move cap
	PriceFloor   float64 // rival never prices below this
	QualityCreep float64 // steady quality improvement per quarter
}

var defaultCompetitorPolicy = competitorPolicy{
	AdjustFactor: 0.2,
	MaxStep:      15,
	PriceFloor:   70,
	QualityCreep: 0.01,
}

// nextCompetitor moves the rival's price a bounded step toward the
// player's observed price and creeps its quality upward. It reads the
// previous quarter's market only; the player's current decision beyond
// price is invisible to it.
func nextCompetitor(m MarketState, playerPrice float64, p competitorPolicy) (price, quality float64) {
	step := (playerPrice - m.CompetitorPrice) * p.AdjustFactor
	if step > p.MaxStep {
		step = p.MaxStep
	}
	if step < -p.MaxStep {
		step = -p.MaxStep
	}
	price = m.CompetitorPrice + step
	if price < p.PriceFloor {
		price = p.PriceFloor
	}
	quality = m.CompetitorQuality + p.QualityCreep
	return price, quality
}
