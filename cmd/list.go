package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/activity"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded activities, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		typeFilter, _ := cmd.Flags().GetString("type")
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

		if typeFilter != "" {
			t, err := activity.ParseType(typeFilter)
			if err != nil {
				return err
			}
			acts = activity.OfType(acts, t)
		}
		sort.SliceStable(acts, func(i, j int) bool { return acts[i].Date.After(acts[j].Date) })
		if limit > 0 && len(acts) > limit {
			acts = acts[:limit]
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(acts)
		}

		if len(acts) == 0 {
			fmt.Println("No activities recorded yet.")
			return nil
		}

		fmt.Printf("%-24s  %-16s  %-9s  %5s  %-28s  %s\n",
			"ID", "Date", "Type", "Score", "Course", "Detail")
		fmt.Println(strings.Repeat("─", 100))
		for _, a := range acts {
			course := a.CourseTitle
			if course == "" {
				course = a.CourseID
			}
			fmt.Printf("%-24s  %-16s  %-9s  %4d%%  %-28s  %s\n",
				truncate(a.ID, 24),
				a.Date.Local().Format("2006-01-02 15:04"),
				a.Type,
				a.Score,
				truncate(course, 28),
				detail(a),
			)
		}
		return nil
	},
}

func detail(a activity.UserActivity) string {
	switch a.Type {
	case activity.Quiz:
		if a.TotalQuestions > 0 {
			return fmt.Sprintf("%d/%d correct", a.CorrectAnswers, a.TotalQuestions)
		}
	case activity.Writing:
		s := fmt.Sprintf("%d words", a.WordCount)
		if a.CEFRLevel != "" {
			s += " " + a.CEFRLevel
		}
		return s
	case activity.Speaking:
		return fmt.Sprintf("%ds", a.Duration)
	}
	return ""
}

func init() {
	listCmd.Flags().IntP("limit", "n", 20, "Number of activities to show (0 for all)")
	listCmd.Flags().StringP("type", "t", "", "Filter by type: quiz, writing or speaking")
	listCmd.Flags().Bool("json", false, "Print JSON")
}
