package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FOUNDRY_API_ADDR", "")
	t.Setenv("FOUNDRY_DB_DIALECT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DBDialect != "sqlite" {
		t.Errorf("dialect = %q, want sqlite", cfg.DBDialect)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoadAPIFromEnvPortOverride(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("addr = %q, want :9000", cfg.Addr)
	}
}

func TestLoadAPIFromEnvPostgresNeedsURL(t *testing.T) {
	t.Setenv("FOUNDRY_DB_DIALECT", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("postgres without DATABASE_URL should fail")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/foundry")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.PostgresURL == "" {
		t.Error("postgres url not picked up")
	}
}

func TestLoadAPIFromEnvBadDialect(t *testing.T) {
	t.Setenv("FOUNDRY_DB_DIALECT", "oracle")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("unknown dialect should fail")
	}
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `scenarios:
  - name: bootstrap
    description: tight cash start
    initial_cash: 2
    initial_capacity: 400
    initial_player_market_share: 0.15
  - name: incumbent
    initial_cash: 40
    initial_player_market_share: 0.55
    growth_seed: 77
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write scenarios: %v", err)
	}

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("LoadScenarios: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("got %d scenarios, want 2", len(scenarios))
	}

	cfg := scenarios["bootstrap"].GameConfig()
	if cfg.InitialCash != 2 || cfg.InitialCapacity != 400 {
		t.Errorf("bootstrap config = %+v", cfg)
	}
	cfg.ApplyDefaults()
	if cfg.InitialMarketSize != 10000 {
		t.Errorf("unset fields should fall back to defaults, market size = %v", cfg.InitialMarketSize)
	}
	if scenarios["incumbent"].GrowthSeed != 77 {
		t.Errorf("growth seed = %d, want 77", scenarios["incumbent"].GrowthSeed)
	}
}

func TestLoadScenariosEmptyPath(t *testing.T) {
	scenarios, err := LoadScenarios("")
	if err != nil {
		t.Fatalf("LoadScenarios: %v", err)
	}
	if len(scenarios) != 0 {
		t.Errorf("got %d scenarios, want none", len(scenarios))
	}
}

func TestLoadScenariosRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `scenarios:
  - name: twin
  - name: twin
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write scenarios: %v", err)
	}
	if _, err := LoadScenarios(path); err == nil {
		t.Fatal("duplicate scenario names should fail")
	}
}
