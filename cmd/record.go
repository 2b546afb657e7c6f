package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/activity"
)

var recordCmd = &cobra.Command{
	Use:   "record <quiz|writing|speaking> <score>",
	Short: "Record a completed activity",
	Example: "  assessai record quiz 80 --course grammar-101 --title \"Past Simple\" --correct 8 --total 10\n" +
		"  assessai record writing 72 --essay essay.txt --cefr B1\n" +
		"  assessai record speaking 85 --duration 95",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := activityInputFromFlags(cmd, args)
		if err != nil {
			return err
		}

		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		a, err := rt.activities.For(rt.user).Save(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("save activity: %w", err)
		}
		fmt.Printf("Recorded %s %d%% for %s (id %s)\n", a.Type, a.Score, rt.user, a.ID)
		return nil
	},
}

func activityInputFromFlags(cmd *cobra.Command, args []string) (activity.ActivityInput, error) {
	t, err := activity.ParseType(args[0])
	if err != nil {
		return activity.ActivityInput{}, err
	}
	score, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return activity.ActivityInput{}, fmt.Errorf("invalid score %q: must be a whole number", args[1])
	}

	f := cmd.Flags()
	in := activity.ActivityInput{Type: t, Score: score}
	in.CourseID, _ = f.GetString("course")
	in.CourseTitle, _ = f.GetString("title")
	category, _ := f.GetString("category")
	if in.Category, err = activity.ParseCategory(category); err != nil {
		return activity.ActivityInput{}, err
	}
	in.CEFRLevel, _ = f.GetString("cefr")
	in.Duration, _ = f.GetInt("duration")
	in.CorrectAnswers, _ = f.GetInt("correct")
	in.TotalQuestions, _ = f.GetInt("total")
	in.WordCount, _ = f.GetInt("words")

	if path, _ := f.GetString("essay"); path != "" {
		text, err := os.ReadFile(path)
		if err != nil {
			return activity.ActivityInput{}, fmt.Errorf("read essay: %w", err)
		}
		in.EssayText = string(text)
		if in.WordCount == 0 {
			in.WordCount = len(strings.Fields(in.EssayText))
		}
	}
	if raw, _ := f.GetString("feedback"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return activity.ActivityInput{}, fmt.Errorf("--feedback must be valid JSON")
		}
		in.Feedback = json.RawMessage(raw)
	}

	return in, in.Validate()
}

func init() {
	defineRecordFlags(recordCmd)
}

func defineRecordFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("course", "", "Course id")
	f.String("title", "", "Course title")
	f.String("category", "", "Quiz skill category: grammar, vocabulary, reading or listening")
	f.String("cefr", "", "CEFR level awarded (A1-C2)")
	f.Int("duration", 0, "Speaking duration in seconds")
	f.Int("correct", 0, "Correct quiz answers")
	f.Int("total", 0, "Total quiz questions")
	f.Int("words", 0, "Essay word count (counted from --essay when omitted)")
	f.String("essay", "", "Path to the essay text")
	f.String("feedback", "", "Feedback JSON to store with the activity")
}
