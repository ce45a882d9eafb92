package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"chainscope/pkg/utils"
)

func newCompareCmd(app *App) *cobra.Command {
	var (
		metric  string
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "compare SYMBOL [SYMBOL...]",
		Short: "Compare options metrics across symbols",
		Long: `Analyze several symbols concurrently and rank them by a metric:
iv (ATM implied volatility), pcr (put/call volume ratio), volume, or
liquidity. Symbols that fail to load are reported without failing the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			resp, err := app.Service.Compare(cmd.Context(), args, metric)
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeCompareCSV(csvPath, resp.Symbols); err != nil {
					return fmt.Errorf("writing CSV: %w", err)
				}
				output.Success("Wrote %d rows to %s", len(resp.Symbols), csvPath)
			}

			if output.IsJSON() {
				return output.JSON(resp)
			}

			output.Bold("Comparison ranked by: %s", resp.RankedBy)
			output.Println()

			table := NewTable(output, "#", "Symbol", "Price", "ATM IV", "P/C", "Volume", "Liquid")
			for i, row := range resp.Symbols {
				table.AddRow(
					fmt.Sprintf("%d", i+1),
					row.Symbol,
					fmt.Sprintf("$%.2f", row.CurrentPrice),
					fmtOptFloat(row.ATMIV, "%.1f%%"),
					fmtOptFloat(row.PutCallRatio, "%.2f"),
					utils.FormatQuantity(row.TotalVolume),
					fmt.Sprintf("%d", row.LiquidContracts),
				)
			}
			table.Render()

			if len(resp.Errors) > 0 {
				output.Println()
				output.Warning("Failed symbols:")
				for _, e := range resp.Errors {
					output.Warning("  %s", e)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&metric, "metric", "m", "iv", "ranking metric: iv, pcr, volume, liquidity")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write comparison rows to a CSV file")
	return cmd
}

func writeCompareCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

func fmtOptFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return strings.TrimSpace(fmt.Sprintf(format, *v))
}
