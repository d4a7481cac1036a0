package sim

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// TurnStatus tracks how far a submitted turn got. A turn that fails
// validation never leaves Pending; a simulated turn still has to be
// persisted by the caller before it counts.
type TurnStatus string

const (
	TurnPending   TurnStatus = "pending"
	TurnValidated TurnStatus = "validated"
	TurnSimulated TurnStatus = "simulated"
	TurnPersisted TurnStatus = "persisted"
)

const (
	initialMarketGrowth     = 0.02
	initialStockPrice       = 50.0
	initialCompetitorQual   = 1.0
	initialSupplierLeadTime = 2.0
)

// Engine advances games one quarter at a time. It holds no per-game
// state; everything flows through the GameState value, so one Engine
// serves any number of concurrent games.
type Engine struct {
	log *slog.Logger
}

func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// NewGame builds the quarter-0 snapshot for a configuration. The id is
// fresh; the growth seed is pinned (derived from the id unless the
// config supplies one) so the market wander replays deterministically.
func NewGame(cfg GameConfig, now time.Time) (GameState, error) {
	cfg.ApplyDefaults()
	if err := validateConfig(cfg); err != nil {
		return GameState{}, err
	}

	id := uuid.NewString()
	seed := cfg.GrowthSeed
	if seed == 0 {
		h := fnv.New64a()
		h.Write([]byte(id))
		seed = int64(h.Sum64())
	}
	name := cfg.Name
	if name == "" {
		name = "untitled"
	}

	return GameState{
		Metadata: GameMetadata{
			GameID:         id,
			Name:           name,
			CurrentQuarter: 0,
			CreatedAt:      now.UTC(),
		},
		Company: CompanyState{
			Cash:                   cfg.InitialCash,
			Assets:                 cfg.InitialAssets,
			Capacity:               cfg.InitialCapacity,
			ProductQuality:         1.0,
			MarketingEffectiveness: 1.0,
			RAndDLevel:             1.0,
			SupplyChainEfficiency:  1.0,
			SupplierRelationship:   1.0,
			SupplierLeadTime:       initialSupplierLeadTime,
		},
		Market: MarketState{
			MarketSize:            cfg.InitialMarketSize,
			MarketGrowth:          initialMarketGrowth,
			CompetitorPrice:       cfg.InitialCompetitorPrice,
			CompetitorQuality:     initialCompetitorQual,
			CompetitorMarketShare: 1 - cfg.InitialPlayerMarketShare,
			PlayerMarketShare:     cfg.InitialPlayerMarketShare,
			PriceElasticity:       cfg.PriceElasticity,
			GrowthSeed:            seed,
		},
		StockPrice: initialStockPrice,
	}, nil
}

func validateConfig(cfg GameConfig) error {
	if cfg.InitialPlayerMarketShare < 0.1 || cfg.InitialPlayerMarketShare > 0.9 {
		return fmt.Errorf("%w: initial player market share must be in [0.1, 0.9], got %v", ErrGameConfig, cfg.InitialPlayerMarketShare)
	}
	if cfg.InitialCapacity <= 0 {
		return fmt.Errorf("%w: initial capacity must be positive, got %v", ErrGameConfig, cfg.InitialCapacity)
	}
	if cfg.InitialMarketSize <= 0 {
		return fmt.Errorf("%w: initial market size must be positive, got %v", ErrGameConfig, cfg.InitialMarketSize)
	}
	if cfg.InitialCompetitorPrice <= 0 {
		return fmt.Errorf("%w: initial competitor price must be positive, got %v", ErrGameConfig, cfg.InitialCompetitorPrice)
	}
	if cfg.PriceElasticity <= 0 {
		return fmt.Errorf("%w: price elasticity must be positive, got %v", ErrGameConfig, cfg.PriceElasticity)
	}
	return nil
}

// ProcessTurn validates, then simulates. The returned status is how far
// the turn got; on any error the input state is returned unchanged.
func (e *Engine) ProcessTurn(st GameState, a PlayerAction, rng Rand) (GameState, TurnStatus, error) {
	if rng == nil {
		return st, TurnPending, fmt.Errorf("process turn: %w", ErrRandomSource)
	}
	if err := ValidateAction(st, a); err != nil {
		return st, TurnPending, err
	}
	next, err := e.AdvanceQuarter(st, a, rng)
	if err != nil {
		return st, TurnValidated, err
	}
	return next, TurnSimulated, nil
}

// AdvanceQuarter computes the next quarter from (state, action, rng).
// The pipeline order is fixed: competitor, market, production and
// capacity, marketing and R&D, supply chain, financial close. Each step
// reads the capabilities the company carried into the quarter; this
// quarter's investments pay off starting next quarter.
func (e *Engine) AdvanceQuarter(st GameState, a PlayerAction, rng Rand) (GameState, error) {
	if rng == nil {
		return st, fmt.Errorf("advance quarter: %w", ErrRandomSource)
	}
	if err := ValidateAction(st, a); err != nil {
		return st, err
	}

	next := st.Clone()
	quarter := next.Metadata.CurrentQuarter
	volume := a.Production.Volume

	price, qual := nextCompetitor(next.Market, a.Pricing.Price, defaultCompetitorPolicy)
	next.Market.CompetitorPrice = price
	next.Market.CompetitorQuality = qual

	out := applyMarket(next.Market, a.Pricing.Price, st.Company.ProductQuality, st.Company.MarketingEffectiveness, quarter)
	next.Market.MarketSize = out.MarketSize
	next.Market.MarketGrowth = out.Growth
	next.Market.PlayerMarketShare = out.PlayerShare
	next.Market.CompetitorMarketShare = 1 - out.PlayerShare

	next.Company.Capacity += advanceExpansions(&next.Company)
	capex := 0.0
	if a.Capacity != nil {
		capex = queueExpansion(&next.Company, a.Capacity.Expansion)
	}
	unitCost := unitProductionCost(volume, st.Company.Capacity, st.Company.RAndDLevel)
	sold := settleSales(&next.Company, volume, out.Demand)

	var mktBudget float64
	var mktAllocation map[string]float64
	if a.Marketing != nil {
		mktBudget = a.Marketing.Budget
		mktAllocation = a.Marketing.Allocation
	}
	next.Company.MarketingEffectiveness = applyMarketing(st.Company.MarketingEffectiveness, mktBudget, mktAllocation)

	var rdBudget float64
	rdFocus := RDFocusBalanced
	if a.RAndD != nil {
		rdBudget = a.RAndD.Budget
		if a.RAndD.Focus != "" {
			rdFocus = a.RAndD.Focus
		}
	}
	next.Company.ProductQuality, next.Company.RAndDLevel = applyRD(st.Company.ProductQuality, st.Company.RAndDLevel, rdBudget, rdFocus, rng)

	var supplyInvestment float64
	supplyFocus := SupplyFocusBalanced
	if a.SupplyChain != nil {
		supplyInvestment = a.SupplyChain.Investment
		if a.SupplyChain.Focus != "" {
			supplyFocus = a.SupplyChain.Focus
		}
	}
	utilization := 0.0
	if st.Company.Capacity > 0 {
		utilization = volume / st.Company.Capacity
	}
	holding := applySupplyChain(&next.Company, supplyInvestment, supplyFocus, utilization, rng)

	closeQuarter(&next.Company, quarterBooks{
		SoldVolume:     sold,
		Price:          a.Pricing.Price,
		UnitCost:       unitCost,
		MarketingSpend: mktBudget,
		RDSpend:        rdBudget,
		SupplySpend:    supplyInvestment,
		HoldingCost:    holding,
		Capex:          capex,
	})
	next.StockPrice *= 1 + stockGrowthPerQuarter

	next.Metadata.CurrentQuarter++
	next.Company.HistoricalRevenue = append(next.Company.HistoricalRevenue, next.Company.Revenue)
	next.Company.HistoricalProfit = append(next.Company.HistoricalProfit, next.Company.Profit)
	next.Company.HistoricalStockPrice = append(next.Company.HistoricalStockPrice, next.StockPrice)
	next.Company.HistoricalMarketShare = append(next.Company.HistoricalMarketShare, next.Market.PlayerMarketShare)
	next.Company.HistoricalEfficiency = append(next.Company.HistoricalEfficiency, next.Company.SupplyChainEfficiency)

	if err := checkInvariants(st, next); err != nil {
		e.log.Error("turn aborted", "game_id", st.Metadata.GameID, "quarter", quarter, "err", err)
		return st, err
	}
	return next, nil
}

// checkInvariants guards the structural properties every quarter must
// satisfy. A violation here is an engine bug, not a player mistake.
func checkInvariants(before, after GameState) error {
	sum := after.Market.PlayerMarketShare + after.Market.CompetitorMarketShare
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: market shares sum to %v", ErrInvariantViolation, sum)
	}
	if after.Market.PlayerMarketShare < 0 || after.Market.PlayerMarketShare > 1 {
		return fmt.Errorf("%w: player market share %v out of [0, 1]", ErrInvariantViolation, after.Market.PlayerMarketShare)
	}
	if after.Company.Capacity < before.Company.Capacity {
		return fmt.Errorf("%w: capacity shrank from %v to %v", ErrInvariantViolation, before.Company.Capacity, after.Company.Capacity)
	}
	if after.Company.Inventory < 0 {
		return fmt.Errorf("%w: negative inventory %v", ErrInvariantViolation, after.Company.Inventory)
	}
	for _, m := range []struct {
		name string
		v    float64
	}{
		{"product_quality", after.Company.ProductQuality},
		{"marketing_effectiveness", after.Company.MarketingEffectiveness},
		{"r_and_d_level", after.Company.RAndDLevel},
		{"supply_chain_efficiency", after.Company.SupplyChainEfficiency},
		{"supplier_relationship", after.Company.SupplierRelationship},
	} {
		if m.v <= 0 {
			return fmt.Errorf("%w: %s dropped to %v", ErrInvariantViolation, m.name, m.v)
		}
	}
	for _, d := range after.Company.ActiveDisruptions {
		if d.QuartersRemaining <= 0 {
			return fmt.Errorf("%w: expired disruption %q still active", ErrInvariantViolation, d.Description)
		}
	}
	q := after.Metadata.CurrentQuarter
	for _, h := range []struct {
		name string
		n    int
	}{
		{"revenue", len(after.Company.HistoricalRevenue)},
		{"profit", len(after.Company.HistoricalProfit)},
		{"stock_price", len(after.Company.HistoricalStockPrice)},
		{"market_share", len(after.Company.HistoricalMarketShare)},
		{"supply_chain_efficiency", len(after.Company.HistoricalEfficiency)},
	} {
		if h.n != q {
			return fmt.Errorf("%w: %s history has %d entries at quarter %d", ErrInvariantViolation, h.name, h.n, q)
		}
	}
	return nil
}
