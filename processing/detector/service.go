package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"emotion/internal/models"

	"go.uber.org/zap"
)

// FileField is the multipart field the emotion server reads the image from.
const FileField = "file"

type Submitter interface {
	Submit(ctx context.Context, payload models.ImagePayload) (*models.EmotionResult, error)
}

// RemoteDetector posts one image per call to the emotion server. It never retries.
type RemoteDetector struct {
	predictURL string
	client     *http.Client
	log        *zap.Logger
}

func NewRemoteDetector(predictURL string, client *http.Client, log *zap.Logger) *RemoteDetector {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &RemoteDetector{
		predictURL: predictURL,
		client:     client,
		log:        log.Named("detector"),
	}
}

func (d *RemoteDetector) URL() string { return d.predictURL }

func (d *RemoteDetector) Submit(ctx context.Context, payload models.ImagePayload) (*models.EmotionResult, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, &SubmissionError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.predictURL, body)
	if err != nil {
		return nil, &SubmissionError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	d.log.Debug("submitting image",
		zap.String("url", d.predictURL),
		zap.String("filename", payload.Filename),
		zap.Int("size", len(payload.Data)))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &SubmissionError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.log.Debug("server rejected image",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return nil, &SubmissionError{Op: "status", StatusCode: resp.StatusCode}
	}

	var result models.EmotionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &SubmissionError{Op: "decode", Err: err}
	}

	d.log.Debug("prediction received",
		zap.Strings("emotions", result.Emotions),
		zap.Bool("has_image", result.Image != ""),
		zap.Duration("cost", time.Since(start)))

	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(payload models.ImagePayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := payload.Filename
	if filename == "" {
		filename = "blob"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", http.DetectContentType(payload.Data))

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
