package sim

// ValidateAction checks an action against the current state before the
// engine touches anything. Volume is capped by the capacity the company
// has right now; an expansion completing this same turn does not count.
func ValidateAction(st GameState, a PlayerAction) error {
	if a.Pricing.Price <= 0 {
		return invalidf("pricing_decision.price", "must be positive, got %v", a.Pricing.Price)
	}
	if a.Production.Volume < 0 {
		return invalidf("production_decision.volume", "must not be negative, got %v", a.Production.Volume)
	}
	if a.Production.Volume > st.Company.Capacity {
		return invalidf("production_decision.volume", "exceeds capacity %v, got %v", st.Company.Capacity, a.Production.Volume)
	}
	if m := a.Marketing; m != nil {
		if m.Budget < 0 {
			return invalidf("marketing_decision.budget", "must not be negative, got %v", m.Budget)
		}
		for channel, w := range m.Allocation {
			if w < 0 {
				return invalidf("marketing_decision.allocation", "channel %q has negative weight %v", channel, w)
			}
		}
	}
	if r := a.RAndD; r != nil {
		if r.Budget < 0 {
			return invalidf("r_and_d_decision.budget", "must not be negative, got %v", r.Budget)
		}
		if !validRDFocus(r.Focus) {
			return invalidf("r_and_d_decision.focus", "unknown focus %q", r.Focus)
		}
	}
	if c := a.Capacity; c != nil && c.Expansion < 0 {
		return invalidf("capacity_decision.expansion", "must not be negative, got %v", c.Expansion)
	}
	if s := a.SupplyChain; s != nil {
		if s.Investment < 0 {
			return invalidf("supply_chain_decision.investment", "must not be negative, got %v", s.Investment)
		}
		if !validSupplyFocus(s.Focus) {
			return invalidf("supply_chain_decision.focus", "unknown focus %q", s.Focus)
		}
	}
	return nil
}

func validRDFocus(f RDFocus) bool {
	switch f {
	case "", RDFocusBalanced, RDFocusQuality, RDFocusCost, RDFocusInnovate:
		return true
	}
	return false
}

func validSupplyFocus(f SupplyFocus) bool {
	switch f {
	case "", SupplyFocusBalanced, SupplyFocusEfficiency, SupplyFocusRelationship, SupplyFocusLeadTime:
		return true
	}
	return false
}
