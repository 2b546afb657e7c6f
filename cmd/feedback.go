package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/feedback"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Get AI feedback and learning analyses",
}

var feedbackWritingCmd = &cobra.Command{
	Use:   "writing <essay-file|->",
	Short: "Score an essay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		prompt, _ := cmd.Flags().GetString("prompt")
		level, _ := cmd.Flags().GetString("level")

		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		fb, err := rt.feedback(cmd.Context(), nil).AnalyzeWriting(cmd.Context(),
			feedback.WritingInput{Text: text, Prompt: prompt, TargetLevel: level})
		if err != nil {
			return err
		}
		return printJSON(fb)
	},
}

var feedbackSpeakingCmd = &cobra.Command{
	Use:   "speaking <transcript-file|->",
	Short: "Score a speaking transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		prompt, _ := cmd.Flags().GetString("prompt")
		duration, _ := cmd.Flags().GetInt("duration")

		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		fb, err := rt.feedback(cmd.Context(), nil).AnalyzeSpeaking(cmd.Context(),
			feedback.SpeakingInput{Transcript: text, Prompt: prompt, DurationSeconds: duration})
		if err != nil {
			return err
		}
		return printJSON(fb)
	},
}

// analysisCmd builds a subcommand that runs one learner-wide analysis.
func analysisCmd(use, short string, run func(cmd *cobra.Command, rt *runtime, svc *feedback.Service) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := rt.feedback(cmd.Context(), nil)
			if fresh, _ := cmd.Flags().GetBool("fresh"); fresh {
				if err := svc.Invalidate(cmd.Context(), rt.user); err != nil {
					return fmt.Errorf("clear cached analyses: %w", err)
				}
			}
			out, err := run(cmd, rt, svc)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

var feedbackRecommendationsCmd = analysisCmd("recommendations", "Suggest what to practice next",
	func(cmd *cobra.Command, rt *runtime, svc *feedback.Service) (any, error) {
		acts, err := rt.activities.For(rt.user).List(cmd.Context())
		if err != nil {
			return nil, err
		}
		return svc.Recommendations(cmd.Context(), rt.user, acts)
	})

var feedbackDifficultyCmd = analysisCmd("difficulty", "Recommend a CEFR level",
	func(cmd *cobra.Command, rt *runtime, svc *feedback.Service) (any, error) {
		acts, err := rt.activities.For(rt.user).List(cmd.Context())
		if err != nil {
			return nil, err
		}
		return svc.DifficultyAnalysis(cmd.Context(), rt.user, acts)
	})

var feedbackMistakesCmd = analysisCmd("mistakes", "Find recurring mistakes in recent essays",
	func(cmd *cobra.Command, rt *runtime, svc *feedback.Service) (any, error) {
		acts, err := rt.activities.For(rt.user).List(cmd.Context())
		if err != nil {
			return nil, err
		}
		return svc.MistakeAnalysis(cmd.Context(), rt.user, acts)
	})

// readInput reads a file, or stdin when path is "-".
func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	feedbackWritingCmd.Flags().String("prompt", "", "The writing task the essay answers")
	feedbackWritingCmd.Flags().String("level", "", "Target CEFR level")
	feedbackSpeakingCmd.Flags().String("prompt", "", "The question the learner answered")
	feedbackSpeakingCmd.Flags().Int("duration", 0, "Recording length in seconds")

	for _, c := range []*cobra.Command{feedbackRecommendationsCmd, feedbackDifficultyCmd, feedbackMistakesCmd} {
		c.Flags().Bool("fresh", false, "Ignore cached results")
		feedbackCmd.AddCommand(c)
	}
	feedbackCmd.AddCommand(feedbackWritingCmd)
	feedbackCmd.AddCommand(feedbackSpeakingCmd)
}
