package models

import "encoding/base64"

const (
	CaptureFilename = "capture.jpg"
	ImageDataPrefix = "data:image/jpeg;base64,"
)

// ImagePayload is one image on its way to the emotion server.
type ImagePayload struct {
	Filename string
	Data     []byte
}

// EmotionResult is the decoded /predict-emotion response.
// Image stays base64 as received; missing fields are left empty.
type EmotionResult struct {
	Image    string   `json:"image"`
	Emotions []string `json:"emotions"`
}

func (r *EmotionResult) DataURI() string {
	if r == nil || r.Image == "" {
		return ""
	}
	return ImageDataPrefix + r.Image
}

func (r *EmotionResult) ImageBytes() ([]byte, error) {
	if r == nil || r.Image == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(r.Image)
}
