package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"foundry/internal/sim"
)

type APIConfig struct {
	Addr            string
	DBDialect       string
	SQLitePath      string
	PostgresURL     string
	ScenarioPath    string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("FOUNDRY_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:            addr,
		DBDialect:       strings.ToLower(envDefault("FOUNDRY_DB_DIALECT", "sqlite")),
		SQLitePath:      envDefault("FOUNDRY_SQLITE_PATH", "foundry.db"),
		PostgresURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ScenarioPath:    strings.TrimSpace(os.Getenv("FOUNDRY_SCENARIOS")),
		ShutdownTimeout: envDurationDefault("FOUNDRY_SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  envDurationDefault("FOUNDRY_REQUEST_TIMEOUT", 30*time.Second),
	}
	switch cfg.DBDialect {
	case "sqlite", "postgres":
	default:
		return cfg, fmt.Errorf("FOUNDRY_DB_DIALECT must be sqlite or postgres, got %q", cfg.DBDialect)
	}
	if cfg.DBDialect == "postgres" && cfg.PostgresURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required with the postgres dialect")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("FDY_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

// Scenario is a named initial-state preset operators can ship alongside
// the server. Zero fields fall back to the standard starting company.
type Scenario struct {
	Name                     string  `yaml:"name" json:"name"`
	Description              string  `yaml:"description" json:"description,omitempty"`
	InitialCash              float64 `yaml:"initial_cash" json:"initial_cash,omitempty"`
	InitialAssets            float64 `yaml:"initial_assets" json:"initial_assets,omitempty"`
	InitialCapacity          float64 `yaml:"initial_capacity" json:"initial_capacity,omitempty"`
	InitialMarketSize        float64 `yaml:"initial_market_size" json:"initial_market_size,omitempty"`
	InitialPlayerMarketShare float64 `yaml:"initial_player_market_share" json:"initial_player_market_share,omitempty"`
	InitialCompetitorPrice   float64 `yaml:"initial_competitor_price" json:"initial_competitor_price,omitempty"`
	PriceElasticity          float64 `yaml:"price_elasticity" json:"price_elasticity,omitempty"`
	GrowthSeed               int64   `yaml:"growth_seed" json:"growth_seed,omitempty"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// GameConfig converts a preset into the engine's config.
func (s Scenario) GameConfig() sim.GameConfig {
	return sim.GameConfig{
		InitialCash:              s.InitialCash,
		InitialAssets:            s.InitialAssets,
		InitialCapacity:          s.InitialCapacity,
		InitialMarketSize:        s.InitialMarketSize,
		InitialPlayerMarketShare: s.InitialPlayerMarketShare,
		InitialCompetitorPrice:   s.InitialCompetitorPrice,
		PriceElasticity:          s.PriceElasticity,
		GrowthSeed:               s.GrowthSeed,
	}
}

// LoadScenarios reads a YAML preset file into a name-keyed map. A missing
// path means no presets, not an error.
func LoadScenarios(path string) (map[string]Scenario, error) {
	if path == "" {
		return map[string]Scenario{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	out := make(map[string]Scenario, len(file.Scenarios))
	for _, s := range file.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("parse scenarios: scenario without a name")
		}
		if _, dup := out[s.Name]; dup {
			return nil, fmt.Errorf("parse scenarios: duplicate scenario %q", s.Name)
		}
		out[s.Name] = s
	}
	return out, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
