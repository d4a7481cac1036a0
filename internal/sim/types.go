package sim

import "time"

// GameMetadata identifies a game and tracks where it is on the quarterly
// timeline. CurrentQuarter is 0 for a freshly created game; each accepted
// turn advances it by exactly one.
type GameMetadata struct {
	GameID         string    `json:"game_id"`
	Name           string    `json:"name"`
	CurrentQuarter int       `json:"current_quarter"`
	CreatedAt      time.Time `json:"created_at"`
}

// PendingExpansion is one queued capacity build. QuartersRemaining counts
// down once per turn; when it reaches zero the size folds into capacity.
type PendingExpansion struct {
	Size              float64 `json:"size"`
	QuartersRemaining int     `json:"quarters_remaining"`
}

// DisruptionImpact is the multiplier bundle a disruption applies each
// quarter it stays active. LeadTime is > 1 (slower), Efficiency and
// Relationship are < 1 (degraded).
type DisruptionImpact struct {
	LeadTime     float64 `json:"lead_time"`
	Efficiency   float64 `json:"efficiency"`
	Relationship float64 `json:"relationship"`
}

// Disruption is an active supply chain event.
type Disruption struct {
	Description       string           `json:"description"`
	QuartersRemaining int              `json:"quarters_remaining"`
	Impact            DisruptionImpact `json:"impact"`
}

// CompanyState is the player company's full balance sheet, capability
// multipliers, supply chain attributes and per-quarter history series.
// All monetary fields share one unit scale.
type CompanyState struct {
	Cash      float64 `json:"cash"`
	Assets    float64 `json:"assets"`
	Inventory float64 `json:"inventory"`

	Capacity          float64            `json:"capacity"`
	PendingExpansions []PendingExpansion `json:"pending_expansions"`

	ProductQuality         float64 `json:"product_quality"`
	MarketingEffectiveness float64 `json:"marketing_effectiveness"`
	RAndDLevel             float64 `json:"r_and_d_level"`

	SupplyChainEfficiency float64      `json:"supply_chain_efficiency"`
	SupplierRelationship  float64      `json:"supplier_relationship"`
	SupplierLeadTime      float64      `json:"supplier_lead_time"`
	LastSupplyInvestment  float64      `json:"last_supply_investment"`
	ActiveDisruptions     []Disruption `json:"active_disruptions"`

	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Profit  float64 `json:"profit"`

	HistoricalRevenue     []float64 `json:"historical_revenue"`
	HistoricalProfit      []float64 `json:"historical_profit"`
	HistoricalStockPrice  []float64 `json:"historical_stock_price"`
	HistoricalMarketShare []float64 `json:"historical_market_share"`
	HistoricalEfficiency  []float64 `json:"historical_supply_chain_efficiency"`
}

// MarketState is the shared environment: market volume, the single
// reactive competitor, and the share split. PlayerMarketShare and
// CompetitorMarketShare always sum to 1.
type MarketState struct {
	MarketSize            float64 `json:"market_size"`
	MarketGrowth          float64 `json:"market_growth"`
	CompetitorPrice       float64 `json:"competitor_price"`
	CompetitorQuality     float64 `json:"competitor_quality"`
	CompetitorMarketShare float64 `json:"competitor_market_share"`
	PlayerMarketShare     float64 `json:"player_market_share"`
	PriceElasticity       float64 `json:"price_elasticity"`

	// GrowthSeed drives the deterministic growth-rate wander.
	GrowthSeed int64 `json:"growth_seed"`
}

// GameState is the complete snapshot handed to and returned by the engine.
// It round-trips through JSON without loss; advancing a deserialized copy
// yields the same result as advancing the original.
type GameState struct {
	Metadata   GameMetadata `json:"metadata"`
	Company    CompanyState `json:"company_state"`
	Market     MarketState  `json:"market_state"`
	StockPrice float64      `json:"stock_price"`
}

// RDFocus selects how an R&D budget splits between product quality and
// production cost efficiency.
type RDFocus string

const (
	RDFocusBalanced RDFocus = "balanced"
	RDFocusQuality  RDFocus = "quality_improvement"
	RDFocusCost     RDFocus = "cost_reduction"
	RDFocusInnovate RDFocus = "innovation"
)

// SupplyFocus selects which supply chain attribute an investment targets.
type SupplyFocus string

const (
	SupplyFocusBalanced     SupplyFocus = "balanced"
	SupplyFocusEfficiency   SupplyFocus = "efficiency"
	SupplyFocusRelationship SupplyFocus = "relationship"
	SupplyFocusLeadTime     SupplyFocus = "lead_time"
)

type PricingDecision struct {
	Price float64 `json:"price"`
}

type ProductionDecision struct {
	Volume float64 `json:"volume"`
}

// MarketingDecision spends a budget across named channels. Allocation is
// optional; a spread across several channels earns a small diversification
// bonus over dumping everything into one.
type MarketingDecision struct {
	Budget     float64            `json:"budget"`
	Allocation map[string]float64 `json:"allocation,omitempty"`
}

type RDDecision struct {
	Budget float64 `json:"budget"`
	Focus  RDFocus `json:"focus"`
}

// CapacityDecision queues a new expansion of the given size. The build
// takes two full quarters before the capacity comes online.
type CapacityDecision struct {
	Expansion float64 `json:"expansion"`
}

type SupplyChainDecision struct {
	Investment float64     `json:"investment"`
	Focus      SupplyFocus `json:"focus"`
}

// PlayerAction is one quarter's worth of decisions. Pricing and production
// are mandatory; the rest default to "do nothing" when omitted.
type PlayerAction struct {
	Pricing     PricingDecision      `json:"pricing_decision"`
	Production  ProductionDecision   `json:"production_decision"`
	Marketing   *MarketingDecision   `json:"marketing_decision,omitempty"`
	RAndD       *RDDecision          `json:"r_and_d_decision,omitempty"`
	Capacity    *CapacityDecision    `json:"capacity_decision,omitempty"`
	SupplyChain *SupplyChainDecision `json:"supply_chain_decision,omitempty"`
}

// GameConfig seeds a new game. Zero values fall back to the defaults in
// ApplyDefaults.
type GameConfig struct {
	Name                     string  `json:"name,omitempty"`
	InitialCash              float64 `json:"initial_cash"`
	InitialAssets            float64 `json:"initial_assets"`
	InitialCapacity          float64 `json:"initial_capacity"`
	InitialMarketSize        float64 `json:"initial_market_size"`
	InitialPlayerMarketShare float64 `json:"initial_player_market_share"`
	InitialCompetitorPrice   float64 `json:"initial_competitor_price"`
	PriceElasticity          float64 `json:"price_elasticity"`

	// GrowthSeed pins the growth wander for reproducible games. Zero
	// means derive one from the game id.
	GrowthSeed int64 `json:"growth_seed,omitempty"`
}

// ApplyDefaults fills unset fields with the standard starting company.
func (c *GameConfig) ApplyDefaults() {
	if c.InitialCash == 0 {
		c.InitialCash = 10
	}
	if c.InitialAssets == 0 {
		c.InitialAssets = 50
	}
	if c.InitialCapacity == 0 {
		c.InitialCapacity = 1000
	}
	if c.InitialMarketSize == 0 {
		c.InitialMarketSize = 10000
	}
	if c.InitialPlayerMarketShare == 0 {
		c.InitialPlayerMarketShare = 0.3
	}
	if c.InitialCompetitorPrice == 0 {
		c.InitialCompetitorPrice = 100
	}
	if c.PriceElasticity == 0 {
		c.PriceElasticity = 1.5
	}
}

// Clone returns a deep copy. The engine never mutates its input state, so
// every slice has to be duplicated before the next quarter is computed.
func (s GameState) Clone() GameState {
	out := s
	out.Company.PendingExpansions = append([]PendingExpansion(nil), s.Company.PendingExpansions...)
	out.Company.ActiveDisruptions = append([]Disruption(nil), s.Company.ActiveDisruptions...)
	out.Company.HistoricalRevenue = append([]float64(nil), s.Company.HistoricalRevenue...)
	out.Company.HistoricalProfit = append([]float64(nil), s.Company.HistoricalProfit...)
	out.Company.HistoricalStockPrice = append([]float64(nil), s.Company.HistoricalStockPrice...)
	out.Company.HistoricalMarketShare = append([]float64(nil), s.Company.HistoricalMarketShare...)
	out.Company.HistoricalEfficiency = append([]float64(nil), s.Company.HistoricalEfficiency...)
	return out
}
