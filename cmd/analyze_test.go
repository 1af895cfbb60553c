package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"emotion/internal/models"
	"emotion/processing/capture"
	"emotion/processing/detector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emotionServer(t *testing.T, status int, body any) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if _, _, err := r.FormFile(detector.FileField); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "face.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0644))
	return path
}

func TestRunAnalyzePrintsEmotionsAndSavesImage(t *testing.T) {
	annotated := []byte{0xFF, 0xD8, 0x42, 0xFF, 0xD9}
	srv, calls := emotionServer(t, http.StatusOK, map[string]any{
		"image":    base64.StdEncoding.EncodeToString(annotated),
		"emotions": []string{"happy", "neutral"},
	})

	out := filepath.Join(t.TempDir(), "result.jpg")
	var stdout bytes.Buffer

	det := detector.NewRemoteDetector(srv.URL+"/predict-emotion", srv.Client(), nil)
	err := runAnalyze(context.Background(), det, writeImage(t), out, &stdout, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, stdout.String(), "Detected Emotions:\n  - happy\n  - neutral\n")

	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, annotated, saved)
}

func TestRunAnalyzeServerError(t *testing.T) {
	srv, calls := emotionServer(t, http.StatusInternalServerError, map[string]string{"detail": "boom"})

	out := filepath.Join(t.TempDir(), "result.jpg")
	var stdout, stderr bytes.Buffer

	det := detector.NewRemoteDetector(srv.URL+"/predict-emotion", srv.Client(), nil)
	err := runAnalyze(context.Background(), det, writeImage(t), out, &stdout, &stderr)

	assert.ErrorIs(t, err, detector.ErrSubmission)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), detector.NoticeServerError)
	assert.NoFileExists(t, out)
}

func TestRunAnalyzeMissingFile(t *testing.T) {
	srv, calls := emotionServer(t, http.StatusOK, map[string]any{})

	det := detector.NewRemoteDetector(srv.URL+"/predict-emotion", srv.Client(), nil)
	err := runAnalyze(context.Background(), det, filepath.Join(t.TempDir(), "nope.jpg"), "", io.Discard, io.Discard)

	assert.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestRenderResultWithoutImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.jpg")
	var buf bytes.Buffer

	require.NoError(t, renderResult(&buf, &models.EmotionResult{Emotions: []string{"sad"}}, out))

	assert.Equal(t, "Detected Emotions:\n  - sad\n", buf.String())
	assert.NoFileExists(t, out)
}

func TestRenderResultBadImageStillPrintsLabels(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.jpg")
	var buf bytes.Buffer

	err := renderResult(&buf, &models.EmotionResult{Image: "%%not-base64%%", Emotions: []string{"angry", "surprised"}}, out)

	assert.Error(t, err)
	assert.Equal(t, "Detected Emotions:\n  - angry\n  - surprised\n", buf.String())
	assert.NoFileExists(t, out)
}

type idleStreamer struct {
	frames chan image.Image
	errs   chan error
}

func (s *idleStreamer) Start() error                  { return nil }
func (s *idleStreamer) Stop()                         {}
func (s *idleStreamer) FrameChan() <-chan image.Image { return s.frames }
func (s *idleStreamer) ErrorChan() <-chan error       { return s.errs }

func TestRunCaptureWithoutFrameNeverSubmits(t *testing.T) {
	srv, calls := emotionServer(t, http.StatusOK, map[string]any{})

	cam := capture.NewCamera(func() (capture.VideoStreamer, error) {
		return &idleStreamer{frames: make(chan image.Image), errs: make(chan error)}, nil
	}, 90, nil)
	require.NoError(t, cam.Open())
	defer cam.Close()

	var stderr bytes.Buffer
	det := detector.NewRemoteDetector(srv.URL+"/predict-emotion", srv.Client(), nil)
	err := runCapture(context.Background(), cam, det, 20*time.Millisecond, "", io.Discard, &stderr)

	assert.ErrorIs(t, err, capture.ErrCaptureUnavailable)
	assert.Zero(t, calls.Load())
	assert.Contains(t, stderr.String(), detector.NoticeCaptureUnavailable)
}
