package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Extract text from a PNG, JPEG or PDF with Cloud Vision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		rec, err := ocr.NewVision(cmd.Context(), ocr.VisionOptions{CredentialsFile: rt.cfg.OCR.CredentialsFile}, rt.log)
		if err != nil {
			return err
		}
		svc := ocr.NewService(rec, rt.cfg.OCR.MaxUploadBytes)
		defer svc.Close()

		res, err := svc.Extract(cmd.Context(), data, "", filepath.Base(args[0]))
		if err != nil {
			return err
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return printJSON(res)
		}
		fmt.Println(res.Text)
		warnf("confidence %.2f", res.Confidence)
		return nil
	},
}

func init() {
	ocrCmd.Flags().Bool("json", false, "Print {text, source, confidence} as JSON")
}
