package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportRankingsCmd = &cobra.Command{
	Use:   "export-rankings",
	Short: "Write the current leaderboard to an .xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(ctx, migrateFlag(cmd))
		if err != nil {
			return err
		}
		defer a.close(ctx)

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}

		if err := a.serviceManager.Ranking().ExportRankings(ctx, f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to export rankings: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}

		a.logger.Info("Rankings exported", "output", output)
		return nil
	},
}

func init() {
	exportRankingsCmd.Flags().StringP("output", "o", "ranking.xlsx", "Destination file")
}
