package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export activities and progress to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = fmt.Sprintf("assessai-%s.xlsx", rt.user)
		}

		acts, err := rt.activities.For(rt.user).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		if err := export.Save(out, rt.user, acts, rt.activities.Now()); err != nil {
			return err
		}
		fmt.Printf("Exported %d activities to %s\n", len(acts), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Output path (default assessai-<user>.xlsx)")
}
