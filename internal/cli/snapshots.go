package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotsCmd(app *App) *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "snapshots SYMBOL",
		Short: "List persisted analysis snapshots",
		Long:  "List analysis results previously persisted for a symbol, newest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			snapshots, err := app.Service.Snapshots(cmd.Context(), args[0], kind, limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(snapshots)
			}

			if len(snapshots) == 0 {
				output.Dim("No snapshots for %s.", args[0])
				return nil
			}

			table := NewTable(output, "ID", "Kind", "Expiration", "Created")
			for _, snap := range snapshots {
				expiration := snap.Expiration
				if expiration == "" {
					expiration = "-"
				}
				table.AddRow(
					fmt.Sprintf("%d", snap.ID),
					snap.Kind,
					expiration,
					snap.CreatedAt.Format("2006-01-02 15:04:05"),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by kind: risk, summary, vehicle, spread")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum rows")
	return cmd
}
