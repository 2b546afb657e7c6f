package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/scheduler"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Expire AI caches and prune old LLM events once",
	Long:  "Runs the maintenance jobs that `serve` schedules in the background.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		// Sweeping needs only the cache, not a provider.
		fb := rt.feedbackWith(nil)
		sched := scheduler.New(rt.cfg.Scheduler, fb, rt.store.EventRepo(), rt.log)

		swept, pruned, err := sched.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired cache entries and %d old LLM events.\n", swept, pruned)
		return nil
	},
}
