package sim

import "math"

const (
	expansionLeadQuarters = 2

	// Expansion capex: per-unit price of 80 at the 100-unit reference
	// size, discounted for scale with a -0.15 exponent.
	expansionBaseCostPerUnit = 80.0
	expansionReferenceSize   = 100.0
	expansionScaleExponent   = 0.15

	baseUnitCost = 50.0

	// Unit cost multiplier falls linearly with utilization from 1.08 at
	// idle down to a floor of 0.85. Fixed overhead amortizes; there is
	// no congestion penalty at full load.
	unitCostIdleMultiplier  = 1.08
	unitCostUtilizationGain = 0.28
	unitCostFloorMultiplier = 0.85
)

// expansionCost prices a capacity build. Larger builds cost less per unit.
func expansionCost(size float64) float64 {
	if size <= 0 {
		return 0
	}
	return size * expansionBaseCostPerUnit * math.Pow(size/expansionReferenceSize, -expansionScaleExponent)
}

// advanceExpansions ages the pending queue by one quarter and returns the
// total capacity coming online now. Entries complete strictly in FIFO
// order; an expansion queued this same turn must not be aged here.
func advanceExpansions(c *CompanyState) (completed float64) {
	remaining := c.PendingExpansions[:0]
	for _, e := range c.PendingExpansions {
		e.QuartersRemaining--
		if e.QuartersRemaining <= 0 {
			completed += e.Size
			continue
		}
		remaining = append(remaining, e)
	}
	c.PendingExpansions = remaining
	return completed
}

// queueExpansion appends a new build and returns its capex, charged this
// quarter even though the capacity arrives two quarters out.
func queueExpansion(c *CompanyState, size float64) float64 {
	if size <= 0 {
		return 0
	}
	c.PendingExpansions = append(c.PendingExpansions, PendingExpansion{
		Size:              size,
		QuartersRemaining: expansionLeadQuarters,
	})
	return expansionCost(size)
}

// unitProductionCost computes the per-unit cost at the given load.
// Higher utilization amortizes overhead; R&D cost efficiency divides the
// whole thing.
func unitProductionCost(volume, capacity, rdLevel float64) float64 {
	utilization := 0.0
	if capacity > 0 {
		utilization = volume / capacity
	}
	mult := unitCostIdleMultiplier - unitCostUtilizationGain*utilization
	if mult < unitCostFloorMultiplier {
		mult = unitCostFloorMultiplier
	}
	cost := baseUnitCost * mult
	if rdLevel > 0 {
		cost /= rdLevel
	}
	return cost
}

// settleSales splits demand against what the company can actually ship.
// Unmet demand is lost, not backlogged; unsold units become inventory up
// to one full quarter of capacity, beyond which they are written off.
func settleSales(c *CompanyState, produced, demand float64) (sold float64) {
	available := produced + c.Inventory
	sold = math.Min(available, demand)
	inventory := available - sold
	if cap := c.Capacity; inventory > cap {
		inventory = cap
	}
	c.Inventory = inventory
	return sold
}
