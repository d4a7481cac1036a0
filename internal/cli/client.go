package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foundry/internal/sim"
	"foundry/internal/store"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TurnResult is the API's response to a submitted action.
type TurnResult struct {
	Status sim.TurnStatus `json:"status"`
	Seed   int64          `json:"seed"`
	State  sim.GameState  `json:"state"`
}

func (c *Client) CreateGame(ctx context.Context, scenario string, cfg sim.GameConfig) (sim.GameState, error) {
	body := map[string]any{
		"name":                        cfg.Name,
		"initial_cash":                cfg.InitialCash,
		"initial_assets":              cfg.InitialAssets,
		"initial_capacity":            cfg.InitialCapacity,
		"initial_market_size":         cfg.InitialMarketSize,
		"initial_player_market_share": cfg.InitialPlayerMarketShare,
		"initial_competitor_price":    cfg.InitialCompetitorPrice,
		"price_elasticity":            cfg.PriceElasticity,
	}
	if cfg.GrowthSeed != 0 {
		body["growth_seed"] = cfg.GrowthSeed
	}
	if scenario != "" {
		body["scenario"] = scenario
	}
	var out sim.GameState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games", body, &out)
	return out, err
}

func (c *Client) GetGame(ctx context.Context, gameID string) (sim.GameState, error) {
	var out sim.GameState
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games/"+url.PathEscape(gameID), nil, &out)
	return out, err
}

func (c *Client) ListGames(ctx context.Context) ([]store.GameSummary, error) {
	var out struct {
		Games []store.GameSummary `json:"games"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games", nil, &out)
	return out.Games, err
}

func (c *Client) ListScenarios(ctx context.Context) ([]map[string]any, error) {
	var out struct {
		Scenarios []map[string]any `json:"scenarios"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/scenarios", nil, &out)
	return out.Scenarios, err
}

// SubmitAction advances the game one quarter. seed pins the turn's
// random stream; pass nil to let the server pick one.
func (c *Client) SubmitAction(ctx context.Context, gameID string, action sim.PlayerAction, seed *int64) (TurnResult, error) {
	body := map[string]any{"action": action}
	if seed != nil {
		body["seed"] = *seed
	}
	var out TurnResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games/"+url.PathEscape(gameID)+"/actions", body, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, gameID string) ([]store.TurnRecord, error) {
	var out struct {
		Turns []store.TurnRecord `json:"turns"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games/"+url.PathEscape(gameID)+"/history", nil, &out)
	return out.Turns, err
}

// WatchURL is the websocket endpoint for live state pushes.
func (c *Client) WatchURL(gameID string) string {
	ws := strings.Replace(c.BaseURL, "http", "ws", 1)
	return ws + "/v1/games/" + url.PathEscape(gameID) + "/watch"
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
