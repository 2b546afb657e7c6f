package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/achievements"
	"github.com/sertugser/assessai/internal/progress"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		acts, err := rt.activities.For(rt.user).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		snap := progress.Compute(acts, rt.activities.Now())
		badges := achievements.Evaluate(snap.Stats, acts)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				progress.Snapshot
				Achievements []achievements.Achievement `json:"achievements"`
			}{snap, badges})
		}

		s := snap.Stats
		sep := strings.Repeat("─", 52)

		fmt.Printf("Progress for %s\n%s\n", rt.user, sep)
		fmt.Printf("%-22s %d (quiz %d, writing %d, speaking %d)\n", "Activities", s.TotalActivities, s.QuizCount, s.WritingCount, s.SpeakingCount)
		fmt.Printf("%-22s %d%% (best %d%%)\n", "Average score", s.AverageScore, s.BestScore)
		fmt.Printf("%-22s %d / %d / %d\n", "Quiz / writing / speak", s.AverageQuizScore, s.AverageWritingScore, s.AverageSpeakingScore)
		fmt.Printf("%-22s %d (%d points, %d%% to level %d)\n", "Level", s.Level, s.TotalPoints, progress.LevelProgress(s.TotalPoints), s.Level+1)
		fmt.Printf("%-22s %d days (longest %d)\n", "Streak", s.CurrentStreak, s.LongestStreak)
		fmt.Printf("%-22s %d\n", "Words written", s.TotalWords)
		fmt.Printf("%-22s %d\n", "Minutes spoken", s.TotalSpeakingMinutes)

		fmt.Printf("\nSkills\n%s\n", sep)
		for _, sk := range snap.Skills {
			fmt.Printf("%-12s %3d%%  %s\n", sk.Name, sk.Score, strings.Repeat("█", sk.Score/5))
		}

		if len(snap.Weaknesses.Suggestions) > 0 {
			fmt.Printf("\nSuggestions\n%s\n", sep)
			for _, sg := range snap.Weaknesses.Suggestions {
				fmt.Printf("• %s\n", sg)
			}
		}

		fmt.Printf("\nAchievements (%d/%d)\n%s\n", achievements.Unlocked(badges), len(badges), sep)
		for _, a := range badges {
			mark := " "
			if a.Unlocked {
				mark = "✓"
			}
			fmt.Printf("%s %s %-18s %3d%%  %d/%d\n", mark, a.Icon, a.Title, a.Progress, a.Current, a.Requirement)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the full snapshot as JSON")
}
