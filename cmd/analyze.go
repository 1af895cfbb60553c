package cmd

import (
	"context"
	"fmt"
	"io"

	"emotion/internal/logging"
	"emotion/internal/models"
	"emotion/processing/capture"
	"emotion/processing/detector"

	"github.com/spf13/cobra"
)

var analyzeOut string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Upload an image file and print the detected emotions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), newDetector(), args[0], analyzeOut, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "result.jpg", "Where to save the annotated image (empty to skip)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(ctx context.Context, sub detector.Submitter, path, out string, stdout, stderr io.Writer) error {
	payload, err := capture.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	selector := capture.NewSelector(nil)
	selector.SelectFile(payload)

	return analyze(ctx, selector, sub, out, stdout, stderr, func(p *detector.Processor) error {
		return p.UploadAndAnalyze(ctx)
	})
}

func analyze(ctx context.Context, src detector.Source, sub detector.Submitter, out string, stdout, stderr io.Writer, run func(*detector.Processor) error) error {
	p := detector.NewProcessor(src, spinnerSubmitter{next: sub, out: stderr}, consoleNotifier(stderr), logging.Logger)

	var renderErr error
	p.OnResult = func(res *models.EmotionResult) {
		renderErr = renderResult(stdout, res, out)
	}

	if err := run(p); err != nil {
		return err
	}
	return renderErr
}
