package sim

import "math"

const (
	capabilityBaseline = 1.0
	capabilityFloor    = 0.5

	marketingCap         = 2.5
	marketingBudgetScale = 10.0
	marketingMaxGain     = 0.25
	marketingDecayRate   = 0.10
	marketingMixBonusMax = 0.05

	rdBudgetScale = 5.0
	rdMaxGain     = 0.20
	rdDecayRate   = 0.05
	rdBonusSpread = 0.03
)

// applyMarketing moves marketing effectiveness for one quarter. Spending
// earns a saturating gain plus a diversification bonus; spending nothing
// lets effectiveness drift back toward baseline. The result never drops
// below the floor or climbs past the cap, and it is monotone in budget.
func applyMarketing(current, budget float64, allocation map[string]float64) float64 {
	if budget <= 0 {
		return clamp(decayToward(current, capabilityBaseline, marketingDecayRate), capabilityFloor, marketingCap)
	}
	gain := marketingMaxGain * (1 - math.Exp(-budget/marketingBudgetScale))
	gain *= 1 + marketingMixBonusMax*allocationBalance(allocation)
	return clamp(current+gain, capabilityFloor, marketingCap)
}

// allocationBalance scores how evenly a budget spreads across channels,
// as normalized Shannon entropy in [0, 1]. One channel or none scores 0.
func allocationBalance(alloc map[string]float64) float64 {
	total := 0.0
	n := 0
	for _, w := range alloc {
		if w > 0 {
			total += w
			n++
		}
	}
	if n < 2 || total <= 0 {
		return 0
	}
	entropy := 0.0
	for _, w := range alloc {
		if w <= 0 {
			continue
		}
		p := w / total
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(n))
}

// rdWeights splits a focus into (quality share, cost share).
func rdWeights(focus RDFocus) (wq, wc float64) {
	switch focus {
	case RDFocusQuality:
		return 0.75, 0.25
	case RDFocusCost:
		return 0.25, 0.75
	case RDFocusInnovate:
		return 0.80, 0.20
	default:
		return 0.5, 0.5
	}
}

// applyRD moves product quality and the cost-efficiency level. Gains
// saturate with budget and carry a small seeded bonus so identical
// programs do not pay off identically across games. Zero budget decays
// both capabilities toward baseline; the rng is untouched in that case.
func applyRD(quality, rdLevel, budget float64, focus RDFocus, rng Rand) (q, lvl float64) {
	if budget <= 0 {
		q = clamp(decayToward(quality, capabilityBaseline, rdDecayRate), capabilityFloor, math.Inf(1))
		lvl = clamp(decayToward(rdLevel, capabilityBaseline, rdDecayRate), capabilityFloor, math.Inf(1))
		return q, lvl
	}
	wq, wc := rdWeights(focus)
	gain := rdMaxGain * (1 - math.Exp(-budget/rdBudgetScale))
	bonus := 1 + (rng.Float64()*2-1)*rdBonusSpread
	q = quality + gain*wq*bonus
	lvl = rdLevel + gain*wc*bonus
	return q, lvl
}

// decayToward pulls v a fixed fraction of the way to target.
func decayToward(v, target, rate float64) float64 {
	return v + (target-v)*rate
}
