package sim

// stockGrowthPerQuarter is the fixed quarterly stock appreciation. It is
// intentionally detached from fundamentals; the game tracks operational
// performance through the other series.
const stockGrowthPerQuarter = 0.30

// quarterBooks collects the money flows the pipeline produced so the
// financial close can post them in one place.
type quarterBooks struct {
	SoldVolume     float64
	Price          float64
	UnitCost       float64
	MarketingSpend float64
	RDSpend        float64
	SupplySpend    float64
	HoldingCost    float64
	Capex          float64
}

// closeQuarter posts the quarter: revenue and operating costs hit the
// profit line and roll into cash; capex bypasses profit, draining cash
// and landing on the asset side instead.
func closeQuarter(c *CompanyState, b quarterBooks) {
	revenue := b.SoldVolume * b.Price
	costs := b.UnitCost*b.SoldVolume + b.MarketingSpend + b.RDSpend + b.SupplySpend + b.HoldingCost
	profit := revenue - costs

	c.Revenue = revenue
	c.Costs = costs
	c.Profit = profit
	c.Cash += profit - b.Capex
	c.Assets += b.Capex
}
