package sim

import (
	"math"
	"testing"
)

func TestExpansionCompletesAfterLeadTime(t *testing.T) {
	e := NewEngine(nil)
	st := testGame(t)

	a := baseAction()
	a.Capacity = &CapacityDecision{Expansion: 500}
	st1, err := e.AdvanceQuarter(st, a, NewRand(1))
	if err != nil {
		t.Fatalf("quarter 1: %v", err)
	}
	if st1.Company.Capacity != 1000 {
		t.Fatalf("capacity available immediately: %v", st1.Company.Capacity)
	}
	if len(st1.Company.PendingExpansions) != 1 || st1.Company.PendingExpansions[0].QuartersRemaining != 2 {
		t.Fatalf("pending queue = %+v, want one entry with 2 quarters remaining", st1.Company.PendingExpansions)
	}

	st2, err := e.AdvanceQuarter(st1, baseAction(), NewRand(2))
	if err != nil {
		t.Fatalf("quarter 2: %v", err)
	}
	if st2.Company.Capacity != 1000 {
		t.Fatalf("capacity arrived a quarter early: %v", st2.Company.Capacity)
	}
	if st2.Company.PendingExpansions[0].QuartersRemaining != 1 {
		t.Fatalf("quarters remaining = %d, want 1", st2.Company.PendingExpansions[0].QuartersRemaining)
	}

	st3, err := e.AdvanceQuarter(st2, baseAction(), NewRand(3))
	if err != nil {
		t.Fatalf("quarter 3: %v", err)
	}
	if st3.Company.Capacity != 1500 {
		t.Fatalf("capacity = %v, want 1500", st3.Company.Capacity)
	}
	if len(st3.Company.PendingExpansions) != 0 {
		t.Fatalf("completed expansion still queued: %+v", st3.Company.PendingExpansions)
	}
}

func TestExpansionCapexMovesCashToAssets(t *testing.T) {
	e := NewEngine(nil)
	st := testGame(t)

	a := baseAction()
	a.Capacity = &CapacityDecision{Expansion: 200}
	next, err := e.AdvanceQuarter(st, a, NewRand(1))
	if err != nil {
		t.Fatalf("AdvanceQuarter: %v", err)
	}

	capex := expansionCost(200)
	wantCash := st.Company.Cash + next.Company.Profit - capex
	if math.Abs(next.Company.Cash-wantCash) > 1e-9 {
		t.Errorf("cash = %v, want %v", next.Company.Cash, wantCash)
	}
	wantAssets := st.Company.Assets + capex
	if math.Abs(next.Company.Assets-wantAssets) > 1e-9 {
		t.Errorf("assets = %v, want %v", next.Company.Assets, wantAssets)
	}
	if next.Company.Profit != next.Company.Revenue-next.Company.Costs {
		t.Errorf("capex leaked into the profit line: profit=%v revenue=%v costs=%v",
			next.Company.Profit, next.Company.Revenue, next.Company.Costs)
	}
}

func TestExpansionCostScaleDiscount(t *testing.T) {
	if got := expansionCost(0); got != 0 {
		t.Errorf("cost of zero expansion = %v, want 0", got)
	}
	small := expansionCost(100) / 100
	large := expansionCost(400) / 400
	if large >= small {
		t.Errorf("per-unit cost should fall with size: 100 -> %v, 400 -> %v", small, large)
	}
	if total := expansionCost(100); math.Abs(total-8000) > 1e-9 {
		t.Errorf("reference-size cost = %v, want 8000", total)
	}
}

func TestUnitProductionCost(t *testing.T) {
	low := unitProductionCost(200, 1000, 1.0)
	high := unitProductionCost(900, 1000, 1.0)
	if high >= low {
		t.Errorf("unit cost should fall with utilization: 20%% -> %v, 90%% -> %v", low, high)
	}
	// At full load the multiplier bottoms out at the floor.
	if got, want := unitProductionCost(1000, 1000, 1.0), baseUnitCost*unitCostFloorMultiplier; math.Abs(got-want) > 1e-9 {
		t.Errorf("unit cost at full load = %v, want %v", got, want)
	}
	// Cost efficiency from R&D divides the whole curve.
	if base, improved := unitProductionCost(500, 1000, 1.0), unitProductionCost(500, 1000, 1.25); math.Abs(improved-base/1.25) > 1e-9 {
		t.Errorf("r&d level not dividing unit cost: %v vs %v", base, improved)
	}
	if got := unitProductionCost(0, 0, 1.0); got <= 0 {
		t.Errorf("zero-capacity unit cost = %v, want positive", got)
	}
}

func TestSettleSales(t *testing.T) {
	tests := []struct {
		name          string
		inventory     float64
		produced      float64
		demand        float64
		wantSold      float64
		wantInventory float64
	}{
		{"demand exceeds supply", 0, 800, 3000, 800, 0},
		{"supply exceeds demand", 0, 800, 500, 500, 300},
		{"inventory clears first shortfall", 200, 800, 900, 900, 100},
		{"overflow written off at capacity", 900, 800, 100, 100, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CompanyState{Inventory: tt.inventory, Capacity: 1000}
			sold := settleSales(&c, tt.produced, tt.demand)
			if sold != tt.wantSold {
				t.Errorf("sold = %v, want %v", sold, tt.wantSold)
			}
			if c.Inventory != tt.wantInventory {
				t.Errorf("inventory = %v, want %v", c.Inventory, tt.wantInventory)
			}
		})
	}
}
