package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"foundry/internal/sim"
	"foundry/internal/store"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderState(st sim.GameState) {
	accent.Printf("\n== %s — Q%d ==\n", strings.ToUpper(st.Metadata.Name), st.Metadata.CurrentQuarter)
	fmt.Printf("Game ID:       %s\n", st.Metadata.GameID)
	fmt.Printf("Stock Price:   %s\n", formatMoney(st.StockPrice))

	fmt.Println()
	accent.Println("Company")
	fmt.Printf("Cash:          %s\n", colorizeMoney(st.Company.Cash))
	fmt.Printf("Assets:        %s\n", formatMoney(st.Company.Assets))
	fmt.Printf("Revenue:       %s\n", formatMoney(st.Company.Revenue))
	fmt.Printf("Profit:        %s\n", colorizeMoney(st.Company.Profit))
	fmt.Printf("Capacity:      %.0f units\n", st.Company.Capacity)
	fmt.Printf("Inventory:     %.0f units\n", st.Company.Inventory)
	for _, e := range st.Company.PendingExpansions {
		fmt.Printf("  expansion:   +%.0f units in %d quarter(s)\n", e.Size, e.QuartersRemaining)
	}
	fmt.Printf("Quality:       %.3f\n", st.Company.ProductQuality)
	fmt.Printf("Marketing:     %.3f\n", st.Company.MarketingEffectiveness)
	fmt.Printf("R&D Level:     %.3f\n", st.Company.RAndDLevel)

	fmt.Println()
	accent.Println("Supply Chain")
	fmt.Printf("Efficiency:    %.3f\n", st.Company.SupplyChainEfficiency)
	fmt.Printf("Relationship:  %.3f\n", st.Company.SupplierRelationship)
	fmt.Printf("Lead Time:     %.2f quarters\n", st.Company.SupplierLeadTime)
	if len(st.Company.ActiveDisruptions) == 0 {
		printInfo("No active disruptions.")
	} else {
		for _, d := range st.Company.ActiveDisruptions {
			danger.Printf("  DISRUPTION: %s (%d quarter(s) left)\n", d.Description, d.QuartersRemaining)
		}
	}

	fmt.Println()
	accent.Println("Market")
	fmt.Printf("Market Size:   %.0f units\n", st.Market.MarketSize)
	fmt.Printf("Growth:        %.2f%%/quarter\n", st.Market.MarketGrowth*100)
	fmt.Printf("Your Share:    %.2f%%\n", st.Market.PlayerMarketShare*100)
	fmt.Printf("Rival Share:   %.2f%%\n", st.Market.CompetitorMarketShare*100)
	fmt.Printf("Rival Price:   %s\n", formatMoney(st.Market.CompetitorPrice))
	fmt.Printf("Rival Quality: %.3f\n", st.Market.CompetitorQuality)
	fmt.Println()
}

func renderGameList(games []store.GameSummary) {
	accent.Println("\n== GAMES ==")
	if len(games) == 0 {
		printInfo("No games yet. Start one with `fdy new`.")
		return
	}
	fmt.Printf("%-38s %-20s %8s %12s %12s %8s\n", "ID", "NAME", "QUARTER", "STOCK", "CASH", "SHARE")
	for _, g := range games {
		fmt.Printf("%-38s %-20s %8d %12s %12s %7.1f%%\n",
			g.GameID,
			truncate(g.Name, 20),
			g.CurrentQuarter,
			formatMoney(g.StockPrice),
			formatMoney(g.Cash),
			g.MarketShare*100,
		)
	}
	fmt.Println()
}

func renderHistory(turns []store.TurnRecord) {
	accent.Println("\n== TURN HISTORY ==")
	if len(turns) == 0 {
		printInfo("No turns played yet.")
		return
	}
	fmt.Printf("%-8s %10s %10s %12s %12s %8s %10s\n", "QUARTER", "PRICE", "VOLUME", "REVENUE", "PROFIT", "SHARE", "STOCK")
	for _, t := range turns {
		fmt.Printf("%-8d %10s %10.0f %12s %12s %7.1f%% %10s\n",
			t.Quarter,
			formatMoney(t.Action.Pricing.Price),
			t.Action.Production.Volume,
			formatMoney(t.State.Company.Revenue),
			colorizeMoney(t.State.Company.Profit),
			t.State.Market.PlayerMarketShare*100,
			formatMoney(t.State.StockPrice),
		)
	}
	fmt.Println()
}

func renderQuarterPulse(quarter int, st sim.GameState) {
	accent.Printf("Q%d  ", quarter)
	fmt.Printf("revenue %s  profit %s  share %.1f%%  stock %s",
		formatMoney(st.Company.Revenue),
		colorizeMoney(st.Company.Profit),
		st.Market.PlayerMarketShare*100,
		formatMoney(st.StockPrice),
	)
	if n := len(st.Company.ActiveDisruptions); n > 0 {
		danger.Printf("  [%d disruption(s)]", n)
	}
	fmt.Println()
}

func renderScenarios(scenarios []map[string]any) {
	accent.Println("\n== SCENARIOS ==")
	if len(scenarios) == 0 {
		printInfo("No scenario presets configured on this server.")
		return
	}
	for _, s := range scenarios {
		name, _ := s["name"].(string)
		desc, _ := s["description"].(string)
		if desc == "" {
			fmt.Printf("  %s\n", name)
			continue
		}
		fmt.Printf("  %-16s %s\n", name, desc)
	}
	fmt.Println()
}

func colorizeMoney(v float64) string {
	text := formatMoney(v)
	switch {
	case v > 0:
		return success.Sprint("+" + text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
