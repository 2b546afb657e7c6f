package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "assessai",
	Short: "English learning progress tracker with AI feedback",
	Long: "AssessAI records quiz, writing and speaking results, derives progress\n" +
		"statistics and achievements, and serves AI feedback over an HTTP API.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{quietConsole: true})
		if err != nil {
			return err
		}
		defer rt.Close()

		return app.Run(app.Options{
			Activities: rt.activities.For(rt.user),
			Refresh:    rt.cfg.Dashboard.RefreshInterval,
		})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ASSESSAI_DB env var)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Learner id whose data is read and written (default from config, \"local\")")
	rootCmd.PersistentFlags().String("config", "", "Path to assessai.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(maintainCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
