package cmd

import (
	"context"
	"io"
	"time"

	"emotion/internal/logging"
	"emotion/processing/capture"
	"emotion/processing/detector"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	captureOut    string
	captureWarmup time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take one still from the configured camera and print the detected emotions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cam := newCamera()
		if err := cam.Open(); err != nil {
			return err
		}
		defer cam.Close()

		return runCapture(cmd.Context(), cam, newDetector(), captureWarmup, captureOut, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "result.jpg", "Where to save the annotated image (empty to skip)")
	captureCmd.Flags().DurationVarP(&captureWarmup, "warmup", "w", 3*time.Second, "How long to wait for the first camera frame")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(ctx context.Context, cam *capture.Camera, sub detector.Submitter, warmup time.Duration, out string, stdout, stderr io.Writer) error {
	waitCtx, cancel := context.WithTimeout(ctx, warmup)
	defer cancel()

	if err := cam.WaitReady(waitCtx); err != nil {
		logging.Logger.Warn("camera produced no frame", zap.Duration("warmup", warmup), zap.Error(err))
	}

	return analyze(ctx, capture.NewSelector(cam), sub, out, stdout, stderr, func(p *detector.Processor) error {
		return p.CaptureAndAnalyze(ctx)
	})
}
