package sim

import "math"

const (
	supplyBudgetScale = 8.0

	efficiencyCap   = 2.0
	efficiencyFloor = 0.3
	efficiencyStep  = 0.15
	efficiencyDecay = 0.05

	relationshipCap          = 1.5
	relationshipFloor        = 0.05
	relationshipStep         = 0.12
	relationshipPenaltyBelow = 0.6
	relationshipPenalty      = 0.5

	leadTimeMin      = 1.0
	leadTimeMax      = 8.0
	leadTimeBaseline = 2.0
	leadTimeStep     = 0.5

	disruptionBaseProb       = 0.04
	disruptionUtilBump       = 0.18
	highUtilizationThreshold = 0.85
	minSupplyInvestment      = 5.0
	relationshipProbScale    = 0.8

	holdingCostRate = 0.02
)

var disruptionKinds = []string{
	"supplier insolvency",
	"port congestion",
	"raw material shortage",
	"logistics strike",
}

// applySupplyChain runs one quarter of supply chain dynamics: active
// disruptions age out, a new one may trigger, surviving impacts bite,
// and then investment (or neglect) moves the three attributes. Returns
// the inventory holding cost for the quarter.
//
// The rng draw order is fixed: one trigger draw every quarter, then the
// kind/duration/impact draws only when a disruption fires. Changing this
// order breaks replay determinism.
func applySupplyChain(c *CompanyState, investment float64, focus SupplyFocus, utilization float64, rng Rand) (holdingCost float64) {
	ageDisruptions(c)

	trailing := (investment + c.LastSupplyInvestment) / 2
	p := disruptionProbability(utilization, trailing, c.SupplierRelationship)
	if rng.Float64() < p {
		c.ActiveDisruptions = append(c.ActiveDisruptions, rollDisruption(rng))
	}

	lead, eff, rel := composeImpacts(c.ActiveDisruptions)
	c.SupplierLeadTime *= lead
	c.SupplyChainEfficiency *= eff
	c.SupplierRelationship *= rel

	investSupply(c, investment, focus)

	c.SupplyChainEfficiency = clamp(c.SupplyChainEfficiency, efficiencyFloor, efficiencyCap)
	c.SupplierRelationship = clamp(c.SupplierRelationship, relationshipFloor, relationshipCap)
	c.SupplierLeadTime = clamp(c.SupplierLeadTime, leadTimeMin, leadTimeMax)
	c.LastSupplyInvestment = investment

	return c.Inventory * holdingCostRate / c.SupplyChainEfficiency
}

// ageDisruptions counts every active disruption down one quarter and
// drops the ones that just expired.
func ageDisruptions(c *CompanyState) {
	remaining := c.ActiveDisruptions[:0]
	for _, d := range c.ActiveDisruptions {
		d.QuartersRemaining--
		if d.QuartersRemaining <= 0 {
			continue
		}
		remaining = append(remaining, d)
	}
	c.ActiveDisruptions = remaining
}

// disruptionProbability is the per-quarter chance of a new disruption.
// Running hot on a starved supply chain raises it sharply; a strong
// supplier relationship suppresses it.
func disruptionProbability(utilization, trailingInvestment, relationship float64) float64 {
	p := disruptionBaseProb
	if utilization > highUtilizationThreshold && trailingInvestment < minSupplyInvestment {
		p += disruptionUtilBump
	}
	return p * math.Exp(-relationshipProbScale*relationship)
}

func rollDisruption(rng Rand) Disruption {
	return Disruption{
		Description:       disruptionKinds[rng.Intn(len(disruptionKinds))],
		QuartersRemaining: 1 + rng.Intn(3),
		Impact: DisruptionImpact{
			LeadTime:     1.2 + 0.6*rng.Float64(),
			Efficiency:   0.7 + 0.2*rng.Float64(),
			Relationship: 0.85 + 0.1*rng.Float64(),
		},
	}
}

// composeImpacts folds all active disruptions into one effective factor
// per attribute. Concurrent disruptions compound.
func composeImpacts(active []Disruption) (lead, eff, rel float64) {
	lead, eff, rel = 1, 1, 1
	for _, d := range active {
		lead *= d.Impact.LeadTime
		eff *= d.Impact.Efficiency
		rel *= d.Impact.Relationship
	}
	return lead, eff, rel
}

// investSupply moves the attributes for one quarter. Investment earns a
// saturating step toward each attribute's best value, split by focus.
// Rebuilding a relationship that has fallen below the trust threshold
// goes at half speed. Zero investment lets everything drift back toward
// its neutral baseline.
func investSupply(c *CompanyState, investment float64, focus SupplyFocus) {
	if investment <= 0 {
		c.SupplyChainEfficiency = decayToward(c.SupplyChainEfficiency, capabilityBaseline, efficiencyDecay)
		c.SupplierRelationship = decayToward(c.SupplierRelationship, capabilityBaseline, efficiencyDecay)
		c.SupplierLeadTime = decayToward(c.SupplierLeadTime, leadTimeBaseline, efficiencyDecay)
		return
	}

	effBudget, relBudget, leadBudget := splitInvestment(investment, focus)

	c.SupplyChainEfficiency += efficiencyStep * saturate(effBudget)

	relGain := relationshipStep * saturate(relBudget)
	if c.SupplierRelationship < relationshipPenaltyBelow {
		relGain *= relationshipPenalty
	}
	c.SupplierRelationship += relGain

	c.SupplierLeadTime -= leadTimeStep * saturate(leadBudget)
}

func splitInvestment(investment float64, focus SupplyFocus) (eff, rel, lead float64) {
	switch focus {
	case SupplyFocusEfficiency:
		return investment, 0, 0
	case SupplyFocusRelationship:
		return 0, investment, 0
	case SupplyFocusLeadTime:
		return 0, 0, investment
	default:
		third := investment / 3
		return third, third, third
	}
}

func saturate(budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return 1 - math.Exp(-budget/supplyBudgetScale)
}
