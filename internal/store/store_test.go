package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"foundry/internal/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "foundry.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestGame(t *testing.T) sim.GameState {
	t.Helper()
	st, err := sim.NewGame(sim.GameConfig{Name: "acme", GrowthSeed: 42},
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return st
}

func TestGameRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := newTestGame(t)

	if err := s.CreateGame(ctx, st); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	got, err := s.GetGame(ctx, st.Metadata.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	want, _ := json.Marshal(st)
	have, _ := json.Marshal(got)
	if string(want) != string(have) {
		t.Fatalf("state changed through persistence:\n%s\n%s", want, have)
	}
}

func TestGetGameNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetGame(context.Background(), "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("err = %v, want ErrGameNotFound", err)
	}
}

func TestSaveTurnAdvancesGame(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	engine := sim.NewEngine(nil)
	st := newTestGame(t)
	if err := s.CreateGame(ctx, st); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	action := sim.PlayerAction{
		Pricing:    sim.PricingDecision{Price: 95},
		Production: sim.ProductionDecision{Volume: 800},
	}
	next, err := engine.AdvanceQuarter(st, action, sim.NewRand(7))
	if err != nil {
		t.Fatalf("AdvanceQuarter: %v", err)
	}
	if err := s.SaveTurn(ctx, next, action, 7); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}

	got, err := s.GetGame(ctx, st.Metadata.GameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if got.Metadata.CurrentQuarter != 1 {
		t.Errorf("stored quarter = %d, want 1", got.Metadata.CurrentQuarter)
	}

	// Replaying the same turn against the already-advanced game must fail.
	if err := s.SaveTurn(ctx, next, action, 7); !errors.Is(err, ErrQuarterConflict) {
		t.Fatalf("stale save err = %v, want ErrQuarterConflict", err)
	}
}

func TestSaveTurnUnknownGame(t *testing.T) {
	s := openTestStore(t)
	st := newTestGame(t)
	st.Metadata.CurrentQuarter = 1
	err := s.SaveTurn(context.Background(), st, sim.PlayerAction{}, 1)
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("err = %v, want ErrGameNotFound", err)
	}
}

func TestHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	engine := sim.NewEngine(nil)
	st := newTestGame(t)
	if err := s.CreateGame(ctx, st); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	for q := 0; q < 3; q++ {
		action := sim.PlayerAction{
			Pricing:    sim.PricingDecision{Price: 95 + float64(q)},
			Production: sim.ProductionDecision{Volume: 800},
		}
		next, err := engine.AdvanceQuarter(st, action, sim.NewRand(int64(q)))
		if err != nil {
			t.Fatalf("quarter %d: %v", q, err)
		}
		if err := s.SaveTurn(ctx, next, action, int64(q)); err != nil {
			t.Fatalf("SaveTurn %d: %v", q, err)
		}
		st = next
	}

	hist, err := s.History(ctx, st.Metadata.GameID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("history has %d turns, want 3", len(hist))
	}
	for i, rec := range hist {
		if rec.Quarter != i+1 {
			t.Errorf("turn %d: quarter = %d, want %d", i, rec.Quarter, i+1)
		}
		if rec.Status != sim.TurnPersisted {
			t.Errorf("turn %d: status = %q, want persisted", i, rec.Status)
		}
		if rec.Action.Pricing.Price != 95+float64(i) {
			t.Errorf("turn %d: price = %v, want %v", i, rec.Action.Pricing.Price, 95+float64(i))
		}
		if rec.State.Metadata.CurrentQuarter != i+1 {
			t.Errorf("turn %d: snapshot quarter = %d", i, rec.State.Metadata.CurrentQuarter)
		}
	}

	if _, err := s.History(ctx, "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("history for unknown game err = %v, want ErrGameNotFound", err)
	}
}

func TestListGames(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := newTestGame(t)
	second := newTestGame(t)
	if err := s.CreateGame(ctx, first); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := s.CreateGame(ctx, second); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	games, err := s.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}
	for _, g := range games {
		if g.Name != "acme" {
			t.Errorf("name = %q, want acme", g.Name)
		}
		if g.StockPrice != 50 {
			t.Errorf("stock price = %v, want 50", g.StockPrice)
		}
		if g.CurrentQuarter != 0 {
			t.Errorf("quarter = %d, want 0", g.CurrentQuarter)
		}
	}
}
