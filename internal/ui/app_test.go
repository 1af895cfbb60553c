package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"emotion/internal/config"
	"emotion/internal/models"
	"emotion/processing/capture"
	"emotion/processing/detector"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubSubmitter struct {
	calls  int
	result *models.EmotionResult
	err    error
}

func (s *stubSubmitter) Submit(context.Context, models.ImagePayload) (*models.EmotionResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestApp(t *testing.T, sub detector.Submitter) *DetectApp {
	t.Helper()

	noCamera := func() (capture.VideoStreamer, error) { return nil, errors.New("no camera") }
	a := newDetectApp(test.NewTempApp(t), Options{
		Config:    config.NewDefaultConfig(),
		Camera:    capture.NewCamera(noCamera, 90, nil),
		Submitter: sub,
		Logger:    zaptest.NewLogger(t),
	})
	a.mainWin.SetContent(a.buildContent())
	t.Cleanup(a.shutdown)
	return a
}

func TestCameraOffControls(t *testing.T) {
	a := newTestApp(t, &stubSubmitter{})

	a.toggleCamera()

	assert.Equal(t, openCameraLabel, a.toggleBtn.Text)
	assert.False(t, a.captureBtn.Visible())
}

func TestCaptureWithoutCameraNeverSubmits(t *testing.T) {
	sub := &stubSubmitter{}
	a := newTestApp(t, sub)

	err := a.processor.CaptureAndAnalyze(context.Background())

	assert.ErrorIs(t, err, capture.ErrCaptureUnavailable)
	assert.Zero(t, sub.calls)
	assert.False(t, a.resultView.Visible())
}

func TestUploadSelectedFileRendersResult(t *testing.T) {
	sub := &stubSubmitter{result: &models.EmotionResult{Image: "QUJD", Emotions: []string{"happy", "neutral"}}}
	a := newTestApp(t, sub)

	a.selectFile(models.ImagePayload{Filename: "face.jpg", Data: []byte("not really a jpeg")})
	assert.Equal(t, "face.jpg (17 bytes)", a.fileLabel.Text)
	assert.Nil(t, a.filePreview.Image)

	require.NoError(t, a.processor.UploadAndAnalyze(context.Background()))
	assert.Equal(t, 1, sub.calls)

	require.Eventually(t, func() bool { return a.resultView.Visible() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"happy", "neutral"}, a.resultView.Emotions())
	assert.Equal(t, "data:image/jpeg;base64,QUJD", a.resultView.Source())
}

func TestCancelledContextShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	path := filepath.Join(t.TempDir(), "config.json")

	noCamera := func() (capture.VideoStreamer, error) { return nil, errors.New("no camera") }
	a := newDetectApp(test.NewTempApp(t), Options{
		Context:    ctx,
		Config:     config.NewDefaultConfig(),
		ConfigPath: path,
		Camera:     capture.NewCamera(noCamera, 90, nil),
		Submitter:  &stubSubmitter{},
		Logger:     zaptest.NewLogger(t),
	})
	a.mainWin.SetContent(a.buildContent())

	done := make(chan struct{})
	go func() {
		a.quitOnCancel()
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("app did not react to cancellation")
	}
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond, "config saved on shutdown")
	assert.False(t, a.camera.IsOn())
}

func TestShutdownStopsWatcherWithoutQuit(t *testing.T) {
	a := newTestApp(t, &stubSubmitter{})

	done := make(chan struct{})
	go func() {
		a.quitOnCancel()
		close(done)
	}()

	a.shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not exit after shutdown")
	}
	assert.NoError(t, a.parent.Err())
}

func TestEndpointFromSubmitter(t *testing.T) {
	det := detector.NewRemoteDetector("http://emotion.test:8000/predict-emotion", nil, nil)
	a := newTestApp(t, det)

	assert.Equal(t, "http://emotion.test:8000/predict-emotion", a.endpoint())
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "Latency: 250 ms", formatLatency(250*time.Millisecond))
}
