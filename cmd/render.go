package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"emotion/internal/models"
	"emotion/processing/detector"

	"github.com/schollz/progressbar/v3"
)

// spinnerSubmitter shows a spinner on out while the server is working.
type spinnerSubmitter struct {
	next detector.Submitter
	out  io.Writer
}

func (s spinnerSubmitter) Submit(ctx context.Context, p models.ImagePayload) (*models.EmotionResult, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("🔍 Analyzing "+p.Filename),
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	res, err := s.next.Submit(ctx, p)
	close(done)
	<-stopped
	_ = bar.Finish()

	return res, err
}

func consoleNotifier(w io.Writer) detector.NotifierFunc {
	return func(message string) {
		fmt.Fprintf(w, "⚠️  %s\n", message)
	}
}

// renderResult prints the labels in order and saves the annotated image to out.
func renderResult(w io.Writer, res *models.EmotionResult, out string) error {
	fmt.Fprintln(w, "Detected Emotions:")
	for _, emo := range res.Emotions {
		fmt.Fprintf(w, "  - %s\n", emo)
	}

	if out == "" {
		return nil
	}

	data, err := res.ImageBytes()
	if err != nil {
		return fmt.Errorf("failed to decode annotated image: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to save annotated image: %w", err)
	}
	fmt.Fprintf(w, "🖼  Annotated image saved to %s\n", out)

	return nil
}
