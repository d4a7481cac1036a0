package sim

import (
	"math"
	"testing"
)

// quietRand never triggers a disruption and picks the first option of
// any choice, so supply chain math can be tested in isolation.
type quietRand struct{}

func (quietRand) Float64() float64 { return 0.999999 }
func (quietRand) Intn(n int) int   { return 0 }

func supplyCompany() CompanyState {
	return CompanyState{
		Capacity:              1000,
		SupplyChainEfficiency: 1.0,
		SupplierRelationship:  1.0,
		SupplierLeadTime:      2.0,
	}
}

func TestDisruptionRateRespondsToStress(t *testing.T) {
	const trials = 2000

	run := func(investment float64) int {
		hits := 0
		for seed := int64(0); seed < trials; seed++ {
			c := supplyCompany()
			applySupplyChain(&c, investment, SupplyFocusBalanced, 0.9, NewRand(seed))
			if len(c.ActiveDisruptions) > 0 {
				hits++
			}
		}
		return hits
	}

	starved := run(0)
	invested := run(10)
	if starved <= invested {
		t.Fatalf("starved supply chain at high load should disrupt more often: %d vs %d over %d trials",
			starved, invested, trials)
	}
	if starved == 0 {
		t.Fatal("no disruptions at all across starved trials")
	}
}

func TestDisruptionProbability(t *testing.T) {
	base := disruptionProbability(0.5, 10, 1.0)
	hot := disruptionProbability(0.9, 1, 1.0)
	if hot <= base {
		t.Errorf("hot and starved should raise probability: %v vs %v", hot, base)
	}
	trusted := disruptionProbability(0.9, 1, 1.4)
	if trusted >= hot {
		t.Errorf("stronger relationship should suppress probability: %v vs %v", trusted, hot)
	}
	// High load alone is not enough when investment keeps up.
	fed := disruptionProbability(0.9, 10, 1.0)
	if fed != base {
		t.Errorf("well-fed supply chain at high load = %v, want base %v", fed, base)
	}
}

func TestDisruptionAgeing(t *testing.T) {
	c := supplyCompany()
	c.ActiveDisruptions = []Disruption{
		{Description: "port congestion", QuartersRemaining: 1, Impact: DisruptionImpact{LeadTime: 1.5, Efficiency: 0.8, Relationship: 0.9}},
		{Description: "logistics strike", QuartersRemaining: 3, Impact: DisruptionImpact{LeadTime: 1.2, Efficiency: 0.9, Relationship: 0.95}},
	}

	applySupplyChain(&c, 0, SupplyFocusBalanced, 0.5, quietRand{})

	if len(c.ActiveDisruptions) != 1 {
		t.Fatalf("active disruptions = %d, want 1", len(c.ActiveDisruptions))
	}
	if d := c.ActiveDisruptions[0]; d.Description != "logistics strike" || d.QuartersRemaining != 2 {
		t.Errorf("surviving disruption = %+v, want logistics strike with 2 quarters", d)
	}
}

func TestActiveDisruptionDegradesAttributes(t *testing.T) {
	c := supplyCompany()
	c.ActiveDisruptions = []Disruption{
		{Description: "raw material shortage", QuartersRemaining: 2, Impact: DisruptionImpact{LeadTime: 1.4, Efficiency: 0.8, Relationship: 0.9}},
	}

	applySupplyChain(&c, 0, SupplyFocusBalanced, 0.5, quietRand{})

	if c.SupplierLeadTime <= 2.0 {
		t.Errorf("lead time should stretch under disruption, got %v", c.SupplierLeadTime)
	}
	if c.SupplyChainEfficiency >= 1.0 {
		t.Errorf("efficiency should degrade under disruption, got %v", c.SupplyChainEfficiency)
	}
	if c.SupplierRelationship >= 1.0 {
		t.Errorf("relationship should degrade under disruption, got %v", c.SupplierRelationship)
	}
}

func TestRelationshipRecoveryPenalty(t *testing.T) {
	healthy := supplyCompany()
	healthy.SupplierRelationship = 0.7
	applySupplyChain(&healthy, 8, SupplyFocusRelationship, 0.5, quietRand{})
	healthyGain := healthy.SupplierRelationship - 0.7

	burned := supplyCompany()
	burned.SupplierRelationship = 0.5
	applySupplyChain(&burned, 8, SupplyFocusRelationship, 0.5, quietRand{})
	burnedGain := burned.SupplierRelationship - 0.5

	if math.Abs(burnedGain-healthyGain*relationshipPenalty) > 1e-9 {
		t.Errorf("recovery below trust threshold should run at half speed: %v vs %v", burnedGain, healthyGain)
	}
}

func TestZeroInvestmentDrift(t *testing.T) {
	c := supplyCompany()
	c.SupplyChainEfficiency = 0.8
	c.SupplierLeadTime = 4.0

	for q := 0; q < 60; q++ {
		applySupplyChain(&c, 0, SupplyFocusBalanced, 0.5, quietRand{})
	}

	if math.Abs(c.SupplyChainEfficiency-capabilityBaseline) > 0.05 {
		t.Errorf("efficiency drifted to %v, want near baseline", c.SupplyChainEfficiency)
	}
	if math.Abs(c.SupplierLeadTime-leadTimeBaseline) > 0.2 {
		t.Errorf("lead time drifted to %v, want near %v", c.SupplierLeadTime, leadTimeBaseline)
	}
}

func TestHoldingCost(t *testing.T) {
	c := supplyCompany()
	c.Inventory = 100

	got := applySupplyChain(&c, 0, SupplyFocusBalanced, 0.5, quietRand{})
	want := 100 * holdingCostRate / c.SupplyChainEfficiency
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("holding cost = %v, want %v", got, want)
	}

	// A better supply chain carries the same inventory more cheaply.
	lean := supplyCompany()
	lean.Inventory = 100
	lean.SupplyChainEfficiency = 1.8
	cheap := applySupplyChain(&lean, 0, SupplyFocusBalanced, 0.5, quietRand{})
	if cheap >= got {
		t.Errorf("higher efficiency should cut holding cost: %v vs %v", cheap, got)
	}
}

func TestSupplyFocusTargets(t *testing.T) {
	eff := supplyCompany()
	applySupplyChain(&eff, 8, SupplyFocusEfficiency, 0.5, quietRand{})
	if eff.SupplyChainEfficiency <= 1.0 {
		t.Errorf("efficiency focus did not move efficiency: %v", eff.SupplyChainEfficiency)
	}
	if eff.SupplierLeadTime != 2.0 {
		t.Errorf("efficiency focus moved lead time: %v", eff.SupplierLeadTime)
	}

	lead := supplyCompany()
	applySupplyChain(&lead, 8, SupplyFocusLeadTime, 0.5, quietRand{})
	if lead.SupplierLeadTime >= 2.0 {
		t.Errorf("lead time focus did not shorten lead time: %v", lead.SupplierLeadTime)
	}

	spread := supplyCompany()
	applySupplyChain(&spread, 9, SupplyFocusBalanced, 0.5, quietRand{})
	if spread.SupplyChainEfficiency <= 1.0 || spread.SupplierRelationship <= 1.0 || spread.SupplierLeadTime >= 2.0 {
		t.Errorf("balanced focus should move all three: eff=%v rel=%v lead=%v",
			spread.SupplyChainEfficiency, spread.SupplierRelationship, spread.SupplierLeadTime)
	}
}
