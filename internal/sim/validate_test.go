package sim

import (
	"errors"
	"testing"
)

func TestValidateAction(t *testing.T) {
	st := testGame(t)

	tests := []struct {
		name    string
		mutate  func(*PlayerAction)
		wantErr bool
	}{
		{"baseline ok", func(a *PlayerAction) {}, false},
		{"volume at capacity ok", func(a *PlayerAction) { a.Production.Volume = st.Company.Capacity }, false},
		{"volume over capacity", func(a *PlayerAction) { a.Production.Volume = st.Company.Capacity + 1 }, true},
		{"negative volume", func(a *PlayerAction) { a.Production.Volume = -1 }, true},
		{"zero price", func(a *PlayerAction) { a.Pricing.Price = 0 }, true},
		{"negative price", func(a *PlayerAction) { a.Pricing.Price = -5 }, true},
		{"negative marketing budget", func(a *PlayerAction) {
			a.Marketing = &MarketingDecision{Budget: -1}
		}, true},
		{"negative channel weight", func(a *PlayerAction) {
			a.Marketing = &MarketingDecision{Budget: 2, Allocation: map[string]float64{"tv": -1}}
		}, true},
		{"negative rd budget", func(a *PlayerAction) {
			a.RAndD = &RDDecision{Budget: -3}
		}, true},
		{"unknown rd focus", func(a *PlayerAction) {
			a.RAndD = &RDDecision{Budget: 1, Focus: "moonshot"}
		}, true},
		{"empty rd focus ok", func(a *PlayerAction) {
			a.RAndD = &RDDecision{Budget: 1}
		}, false},
		{"negative expansion", func(a *PlayerAction) {
			a.Capacity = &CapacityDecision{Expansion: -100}
		}, true},
		{"negative supply investment", func(a *PlayerAction) {
			a.SupplyChain = &SupplyChainDecision{Investment: -1}
		}, true},
		{"unknown supply focus", func(a *PlayerAction) {
			a.SupplyChain = &SupplyChainDecision{Investment: 1, Focus: "vertical_integration"}
		}, true},
		{"full valid action", func(a *PlayerAction) {
			a.Marketing = &MarketingDecision{Budget: 2, Allocation: map[string]float64{"tv": 1, "digital": 3}}
			a.RAndD = &RDDecision{Budget: 1, Focus: RDFocusInnovate}
			a.Capacity = &CapacityDecision{Expansion: 250}
			a.SupplyChain = &SupplyChainDecision{Investment: 4, Focus: SupplyFocusLeadTime}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := baseAction()
			tt.mutate(&a)
			err := ValidateAction(st, a)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Fatalf("err = %v, want ErrInvalidAction", err)
				}
				var detail *InvalidActionError
				if !errors.As(err, &detail) || detail.Field == "" {
					t.Fatalf("err = %v, want field detail", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAction: %v", err)
			}
		})
	}
}
