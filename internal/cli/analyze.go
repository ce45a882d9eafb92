package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chainscope/internal/analysis"
	"chainscope/internal/models"
	"chainscope/pkg/utils"
)

func newRiskCmd(app *App) *cobra.Command {
	var (
		expiration string
		optionType string
		minVolume  int
	)

	cmd := &cobra.Command{
		Use:   "risk SYMBOL",
		Short: "Full options chain risk analysis",
		Long: `Analyze an options chain for one symbol: IV aggregates, liquidity, top
strikes, put/call ratios, and rule-based risk warnings and opportunities.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			parsedType, ok := models.ParseOptionType(optionType)
			if !ok {
				return fmt.Errorf("invalid option type %q (use: calls, puts, both)", optionType)
			}

			resp, err := app.Service.RiskAnalysis(cmd.Context(), analysis.RiskRequest{
				Symbol:     args[0],
				Expiration: expiration,
				OptionType: parsedType,
				MinVolume:  minVolume,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(resp)
			}
			renderRisk(output, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&expiration, "expiration", "e", "", "expiration date (YYYY-MM-DD, default: auto-select)")
	cmd.Flags().StringVarP(&optionType, "type", "t", "both", "option type: calls, puts, both")
	cmd.Flags().IntVarP(&minVolume, "min-volume", "v", 0, "liquidity volume floor (default: from config)")
	return cmd
}

func renderRisk(output *Output, resp *models.RiskResponse) {
	output.Bold("%s  $%.2f", resp.Symbol, resp.CurrentPrice)
	output.Printf("Expiration: %s (%d DTE)\n", resp.ExpirationDate, resp.DaysToExpiration)
	output.Dim("Liquidity floor: %d contracts", resp.LiquidityThreshold)
	output.Println()

	renderSide(output, "Calls", resp.Calls)
	renderSide(output, "Puts", resp.Puts)

	if resp.PutCallRatio != nil {
		output.Bold("Put/Call Ratio")
		if resp.PutCallRatio.Volume != nil {
			output.Printf("  Volume: %.2f\n", *resp.PutCallRatio.Volume)
		}
		if resp.PutCallRatio.OpenInterest != nil {
			output.Printf("  Open Interest: %.2f\n", *resp.PutCallRatio.OpenInterest)
		}
		output.Println()
	}

	if len(resp.RiskWarnings) > 0 {
		output.Bold("Risk Warnings")
		for _, w := range resp.RiskWarnings {
			output.Warning("  ⚠ %s", w)
		}
		output.Println()
	}
	if len(resp.Opportunities) > 0 {
		output.Bold("Opportunities")
		for _, op := range resp.Opportunities {
			output.Success("  ▸ %s", op)
		}
		output.Println()
	}
	if len(resp.RiskWarnings) == 0 && len(resp.Opportunities) == 0 {
		output.Dim("No notable risk signals.")
	}
}

func renderSide(output *Output, label string, side *models.ChainAnalysis) {
	if side == nil {
		return
	}

	output.Bold(label)
	output.Printf("  Contracts: %d total, %d liquid\n", side.TotalContracts, side.LiquidContracts)
	output.Printf("  Volume: %s  OI: %s\n", utils.FormatQuantity(side.TotalVolume), utils.FormatQuantity(side.TotalOpenInterest))
	output.Printf("  IV: avg %.1f%%, range %.1f%%-%.1f%%\n", side.AvgIV, side.MinIV, side.MaxIV)
	if side.ATMStrike != nil {
		atm := fmt.Sprintf("  ATM: $%.2f", *side.ATMStrike)
		if side.ATMIV != nil {
			atm += fmt.Sprintf(" (IV %.1f%%", *side.ATMIV)
			if side.ATMDelta != nil {
				atm += fmt.Sprintf(", delta %.2f", *side.ATMDelta)
			}
			atm += ")"
		}
		output.Println(atm)
	}

	if len(side.TopVolumeStrikes) > 0 {
		table := NewTable(output, "Strike", "Volume", "IV")
		for _, s := range side.TopVolumeStrikes {
			table.AddRow(
				fmt.Sprintf("$%.2f", s.Strike),
				utils.FormatQuantity(s.Volume),
				fmt.Sprintf("%.1f%%", s.IV),
			)
		}
		table.Render()
	}
	output.Println()
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary SYMBOL",
		Short: "Quick options snapshot",
		Long:  "A fast read on a symbol's nearest expiration: ATM IV, volumes, sentiment, and risk level.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			resp, err := app.Service.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(resp)
			}

			output.Bold("%s  $%.2f", resp.Symbol, resp.CurrentPrice)
			output.Printf("Nearest expiration: %s (%d DTE)\n", resp.NearestExpiration, resp.DaysToExpiration)
			if resp.ATMCallIV != nil {
				output.Printf("ATM call IV: %.1f%%\n", *resp.ATMCallIV)
			}
			if resp.ATMPutIV != nil {
				output.Printf("ATM put IV: %.1f%%\n", *resp.ATMPutIV)
			}
			if resp.PutCallRatioVolume != nil {
				output.Printf("P/C volume ratio: %.2f\n", *resp.PutCallRatioVolume)
			}
			output.Printf("Call volume: %s  Put volume: %s\n", utils.FormatQuantity(resp.TotalCallVolume), utils.FormatQuantity(resp.TotalPutVolume))
			output.Println()
			output.Printf("Sentiment: %s\n", renderSentiment(output, resp.Sentiment))
			output.Printf("Risk level: %s\n", renderRiskLevel(output, resp.RiskLevel))
			return nil
		},
	}
}

func renderSentiment(output *Output, sentiment string) string {
	switch sentiment {
	case "bullish":
		return output.Green("▲ bullish")
	case "bearish":
		return output.Red("▼ bearish")
	default:
		return output.Yellow("◆ neutral")
	}
}

func renderRiskLevel(output *Output, level string) string {
	switch level {
	case "high":
		return output.Red(strings.ToUpper(level))
	case "low":
		return output.Green(strings.ToUpper(level))
	default:
		return output.Yellow(strings.ToUpper(level))
	}
}

func newVehicleCmd(app *App) *cobra.Command {
	var (
		timeframe    string
		bias         string
		expectedMove float64
	)

	cmd := &cobra.Command{
		Use:   "vehicle SYMBOL",
		Short: "Recommend the trade vehicle for a setup",
		Long: `Classify the volatility regime from recent price action and recommend
stock, a single option, or a vertical spread for the given trade setup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			parsedTimeframe, ok := models.ParseTimeframe(strings.ToLower(timeframe))
			if !ok {
				return fmt.Errorf("invalid timeframe %q (use: swing, day, scalp)", timeframe)
			}

			req := analysis.VehicleRequest{
				Symbol:    args[0],
				Timeframe: parsedTimeframe,
				Bias:      models.Bias(strings.ToLower(bias)),
			}
			if cmd.Flags().Changed("expected-move") {
				req.ExpectedMovePct = &expectedMove
			}

			resp, err := app.Service.VehicleSelection(cmd.Context(), req)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(resp)
			}
			renderVehicle(output, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "swing", "trade timeframe: swing, day, scalp")
	cmd.Flags().StringVarP(&bias, "bias", "b", "neutral", "directional bias: bullish, bearish, neutral")
	cmd.Flags().Float64VarP(&expectedMove, "expected-move", "m", 0, "expected move percent (default: estimated from ATR)")
	return cmd
}

func renderVehicle(output *Output, resp *models.VehicleResponse) {
	output.Bold("%s", resp.Symbol)
	output.Printf("Volatility regime: %s\n", resp.VolatilityRegime)
	output.Println()

	output.Bold("Recommended vehicle: %s", strings.ToUpper(string(resp.Vehicle)))
	output.Printf("  %s\n", resp.Reasoning)
	if resp.ExpectedMovePct != nil {
		output.Printf("  Expected move: %.1f%%\n", *resp.ExpectedMovePct)
	}
	if resp.DTERange != nil {
		output.Printf("  Target DTE: %d-%d days\n", resp.DTERange.Min, resp.DTERange.Max)
	}
	if resp.DeltaRange != nil {
		output.Printf("  Target delta: %.2f to %.2f\n", resp.DeltaRange.Min, resp.DeltaRange.Max)
	}
	if resp.SpreadType != "" {
		output.Printf("  Spread: %s\n", resp.SpreadType)
		if resp.SpreadWidthInfo != "" {
			output.Dim("  %s", resp.SpreadWidthInfo)
		}
	}
}
