package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	cl "foundry/internal/cli"
	"foundry/internal/config"
	"foundry/internal/sim"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "fdy",
		Short:        "Foundry CLI game client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newNewCmd(&apiBase),
		newUseCmd(&apiBase),
		newListCmd(&apiBase),
		newShowCmd(&apiBase),
		newActCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newWatchCmd(&apiBase),
		newScenariosCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

// resolveGameID takes the explicit argument when given, otherwise falls
// back to the session's active game.
func resolveGameID(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	session, err := cl.LoadSession()
	if err != nil {
		return "", fmt.Errorf("no game id given and no active game: run `fdy use <game-id>` or pass the id")
	}
	return session.ActiveGameID, nil
}

func newNewCmd(apiBase *string) *cobra.Command {
	var cfg sim.GameConfig
	var scenario string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new company",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			st, err := newClient(apiBase).CreateGame(ctx, scenario, cfg)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Game created: %s", st.Metadata.GameID))
			if err := cl.SaveSession(cl.Session{ActiveGameID: st.Metadata.GameID, GameName: st.Metadata.Name}); err != nil {
				printWarn(fmt.Sprintf("could not save session: %v", err))
			}
			renderState(st)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Name, "name", "", "company name")
	cmd.Flags().StringVar(&scenario, "scenario", "", "server-side scenario preset")
	cmd.Flags().Float64Var(&cfg.InitialCash, "cash", 0, "starting cash")
	cmd.Flags().Float64Var(&cfg.InitialAssets, "assets", 0, "starting assets")
	cmd.Flags().Float64Var(&cfg.InitialCapacity, "capacity", 0, "starting production capacity")
	cmd.Flags().Float64Var(&cfg.InitialMarketSize, "market-size", 0, "starting market size")
	cmd.Flags().Float64Var(&cfg.InitialPlayerMarketShare, "share", 0, "starting market share (0.1-0.9)")
	cmd.Flags().Float64Var(&cfg.InitialCompetitorPrice, "competitor-price", 0, "competitor starting price")
	cmd.Flags().Float64Var(&cfg.PriceElasticity, "elasticity", 0, "price elasticity of demand")
	cmd.Flags().Int64Var(&cfg.GrowthSeed, "growth-seed", 0, "pin the market growth wander")
	return cmd
}

func newUseCmd(apiBase *string) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "use [game-id]",
		Short: "Make a game the session's active game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				if err := cl.ClearSession(); err != nil {
					return err
				}
				printInfo("Session cleared.")
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("pass a game id, or --clear to forget the active game")
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			st, err := newClient(apiBase).GetGame(ctx, args[0])
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{ActiveGameID: st.Metadata.GameID, GameName: st.Metadata.Name}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Active game: %s (%s)", st.Metadata.Name, st.Metadata.GameID))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "forget the active game")
	return cmd
}

func newListCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			games, err := newClient(apiBase).ListGames(ctx)
			if err != nil {
				return err
			}
			renderGameList(games)
			return nil
		},
	}
}

func newShowCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [game-id]",
		Short: "Show the current quarter of a game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := resolveGameID(args)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			st, err := newClient(apiBase).GetGame(ctx, gameID)
			if err != nil {
				return err
			}
			renderState(st)
			return nil
		},
	}
}

func newActCmd(apiBase *string) *cobra.Command {
	var (
		price       float64
		volume      float64
		marketing   float64
		mix         string
		rdBudget    float64
		rdFocus     string
		expand      float64
		supply      float64
		supplyFocus string
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "act [game-id]",
		Short: "Submit this quarter's decisions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := resolveGameID(args)
			if err != nil {
				return err
			}
			action := sim.PlayerAction{
				Pricing:    sim.PricingDecision{Price: price},
				Production: sim.ProductionDecision{Volume: volume},
			}
			if cmd.Flags().Changed("marketing") || mix != "" {
				allocation, err := parseMix(mix)
				if err != nil {
					return err
				}
				action.Marketing = &sim.MarketingDecision{Budget: marketing, Allocation: allocation}
			}
			if cmd.Flags().Changed("rd") {
				action.RAndD = &sim.RDDecision{Budget: rdBudget, Focus: sim.RDFocus(rdFocus)}
			}
			if cmd.Flags().Changed("expand") {
				action.Capacity = &sim.CapacityDecision{Expansion: expand}
			}
			if cmd.Flags().Changed("supply") {
				action.SupplyChain = &sim.SupplyChainDecision{Investment: supply, Focus: sim.SupplyFocus(supplyFocus)}
			}

			var seedArg *int64
			if cmd.Flags().Changed("seed") {
				seedArg = &seed
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			result, err := newClient(apiBase).SubmitAction(ctx, gameID, action, seedArg)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Quarter %d closed (seed %d)", result.State.Metadata.CurrentQuarter, result.Seed))
			renderState(result.State)
			return nil
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "unit price for the quarter")
	cmd.Flags().Float64Var(&volume, "volume", 0, "production volume")
	cmd.Flags().Float64Var(&marketing, "marketing", 0, "marketing budget")
	cmd.Flags().StringVar(&mix, "mix", "", "marketing channel mix, e.g. tv=2,digital=1")
	cmd.Flags().Float64Var(&rdBudget, "rd", 0, "R&D budget")
	cmd.Flags().StringVar(&rdFocus, "rd-focus", string(sim.RDFocusBalanced), "balanced|quality_improvement|cost_reduction|innovation")
	cmd.Flags().Float64Var(&expand, "expand", 0, "capacity expansion size")
	cmd.Flags().Float64Var(&supply, "supply", 0, "supply chain investment")
	cmd.Flags().StringVar(&supplyFocus, "supply-focus", string(sim.SupplyFocusBalanced), "balanced|efficiency|relationship|lead_time")
	cmd.Flags().Int64Var(&seed, "seed", 0, "pin the turn's random stream")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history [game-id]",
		Short: "Show the per-quarter turn trail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := resolveGameID(args)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			turns, err := newClient(apiBase).History(ctx, gameID)
			if err != nil {
				return err
			}
			renderHistory(turns)
			return nil
		},
	}
}

func newWatchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [game-id]",
		Short: "Stream quarter updates as they land",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := resolveGameID(args)
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), client.WatchURL(gameID), nil)
			if err != nil {
				return fmt.Errorf("connect watch: %w", err)
			}
			defer conn.Close()

			printInfo("Watching... press Ctrl-C to stop.")
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return nil
				}
				var event struct {
					Type    string        `json:"type"`
					Quarter int           `json:"quarter"`
					State   sim.GameState `json:"state"`
				}
				if err := json.Unmarshal(raw, &event); err != nil {
					printWarn(fmt.Sprintf("bad event: %v", err))
					continue
				}
				renderQuarterPulse(event.Quarter, event.State)
			}
		},
	}
}

func newScenariosCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List server scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			scenarios, err := newClient(apiBase).ListScenarios(ctx)
			if err != nil {
				return err
			}
			renderScenarios(scenarios)
			return nil
		},
	}
}

// parseMix turns "tv=2,digital=1" into channel weights.
func parseMix(mix string) (map[string]float64, error) {
	mix = strings.TrimSpace(mix)
	if mix == "" {
		return nil, nil
	}
	out := map[string]float64{}
	for _, part := range strings.Split(mix, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid mix entry %q, want channel=weight", part)
		}
		w, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mix weight in %q: %w", part, err)
		}
		out[strings.TrimSpace(kv[0])] = w
	}
	return out, nil
}
