package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "learning-service",
	Short: "English learning backend",
	Long:  "Lessons, exercises, per-user progress tracking and score rankings over HTTP.",
	// Running the binary with no subcommand starts the server
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("migrate", false, "Apply database migrations before running")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportRankingsCmd)
	rootCmd.AddCommand(createAdminCmd)
}

// migrateFlag reads the persistent --migrate flag
func migrateFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("migrate")
	return v
}
