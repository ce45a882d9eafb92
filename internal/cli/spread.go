package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chainscope/internal/analysis"
	"chainscope/internal/models"
	"chainscope/pkg/utils"
)

func newSpreadCmd(app *App) *cobra.Command {
	var (
		spreadType string
		action     string
		buyStrike  float64
		sellStrike float64
		expiration string
		contracts  int
		entryPrice float64
		withAI     bool
	)

	cmd := &cobra.Command{
		Use:   "spread SYMBOL",
		Short: "Evaluate a vertical spread trade",
		Long: `Resolve spread legs from the live chain and compute the economics:
net premium, max profit/loss, breakeven, and risk/reward. Closing trades
also get realized P&L against the entry price.

Supported types: bull_call, bear_put, bull_put_credit, bear_call_credit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req := analysis.SpreadRequest{
				Symbol:     args[0],
				SpreadType: models.SpreadType(strings.ToLower(spreadType)),
				Action:     models.SpreadAction(strings.ToLower(action)),
				BuyStrike:  buyStrike,
				SellStrike: sellStrike,
				Expiration: expiration,
				Contracts:  contracts,
				WithAI:     withAI,
			}
			if cmd.Flags().Changed("entry-price") {
				req.EntryPrice = &entryPrice
			}

			resp, err := app.Service.SpreadTrade(cmd.Context(), req)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(resp)
			}
			renderSpread(output, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&spreadType, "type", "t", "", "spread type (required)")
	cmd.Flags().StringVarP(&action, "action", "a", "open", "trade action: open, close")
	cmd.Flags().Float64Var(&buyStrike, "buy", 0, "buy leg strike (required)")
	cmd.Flags().Float64Var(&sellStrike, "sell", 0, "sell leg strike (required)")
	cmd.Flags().StringVarP(&expiration, "expiration", "e", "", "expiration date (YYYY-MM-DD, default: auto-select)")
	cmd.Flags().IntVarP(&contracts, "contracts", "n", 1, "number of spreads")
	cmd.Flags().Float64Var(&entryPrice, "entry-price", 0, "entry premium per spread (required for close)")
	cmd.Flags().BoolVar(&withAI, "ai", false, "attach AI trade assessment")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("buy")
	cmd.MarkFlagRequired("sell")
	return cmd
}

func renderSpread(output *Output, resp *models.SpreadResult) {
	output.Bold("%s %s (%s)", resp.Symbol, strings.ReplaceAll(string(resp.SpreadType), "_", " "), resp.Action)
	output.Printf("Underlying: $%.2f  Expiration: %s (%d DTE)\n", resp.CurrentPrice, resp.Expiration, resp.DTE)
	output.Println()

	table := NewTable(output, "Leg", "Strike", "Bid", "Ask", "Volume", "OI")
	table.AddRow("Buy", fmt.Sprintf("$%.2f", resp.BuyLeg.Strike),
		fmtLegPrice(resp.BuyLeg.Bid), fmtLegPrice(resp.BuyLeg.Ask),
		fmt.Sprintf("%d", resp.BuyLeg.Volume), fmt.Sprintf("%d", resp.BuyLeg.OpenInterest))
	table.AddRow("Sell", fmt.Sprintf("$%.2f", resp.SellLeg.Strike),
		fmtLegPrice(resp.SellLeg.Bid), fmtLegPrice(resp.SellLeg.Ask),
		fmt.Sprintf("%d", resp.SellLeg.Volume), fmt.Sprintf("%d", resp.SellLeg.OpenInterest))
	table.Render()
	output.Println()

	premiumLabel := "Net debit"
	if resp.IsCredit {
		premiumLabel = "Net credit"
	}
	output.Printf("%s: $%.2f per spread x %d contract(s)\n", premiumLabel, resp.NetPremium, resp.Contracts)
	output.Printf("Max profit: %s  Max loss: %s\n",
		output.Green(utils.FormatUSD(resp.MaxProfit)),
		output.Red(utils.FormatUSD(resp.MaxLoss)))
	output.Printf("Risk/reward: %.2f  Breakeven: $%.2f\n", resp.RiskRewardRatio, resp.Breakeven)
	if resp.NetDelta != nil {
		output.Printf("Net delta: %.4f\n", *resp.NetDelta)
	}

	if resp.Close != nil {
		output.Println()
		output.Bold("Close Analysis")
		output.Printf("  Entry: $%.2f  Current value: $%.2f\n", resp.Close.EntryPrice, resp.Close.CurrentValue)
		output.Printf("  P&L: %s (%s)\n", output.FormatPnL(resp.Close.TotalPnL), output.FormatPercent(resp.Close.PnLPercent))
	}

	if resp.AIInsight != nil {
		output.Println()
		renderInsight(output, resp.AIInsight)
	}
}

func renderInsight(output *Output, insight *models.AIInsight) {
	output.Bold("AI Assessment")
	if insight.Status != "success" {
		output.Warning("  Unavailable: %s", insight.ErrorMsg)
		return
	}
	if insight.Insight == nil {
		output.Printf("  %s\n", insight.RawText)
		return
	}

	// Render in a stable order; skip keys the model omitted.
	keys := []string{
		"trade_assessment", "timing", "risk_analysis",
		"execution_tips", "management_plan", "alternatives", "verdict",
	}
	for _, key := range keys {
		value, ok := insight.Insight[key].(string)
		if !ok || value == "" {
			continue
		}
		output.Info("  %s", titleCase(strings.ReplaceAll(key, "_", " ")))
		output.Printf("    %s\n", value)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func fmtLegPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *p)
}
