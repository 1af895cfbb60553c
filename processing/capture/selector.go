package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"emotion/internal/models"
)

var ErrNoFileSelected = errors.New("no image file selected")

// Snapshotter produces one still image on demand.
type Snapshotter interface {
	Capture() (models.ImagePayload, error)
}

// Selector is the image source: a camera snapshot or the pending user file.
type Selector struct {
	camera Snapshotter

	mu      sync.Mutex
	pending *models.ImagePayload
}

func NewSelector(camera Snapshotter) *Selector {
	return &Selector{camera: camera}
}

func (s *Selector) CaptureFromCamera() (models.ImagePayload, error) {
	if s.camera == nil {
		return models.ImagePayload{}, ErrCaptureUnavailable
	}
	return s.camera.Capture()
}

// SelectFile replaces any previously selected file. Content is not validated.
func (s *Selector) SelectFile(file models.ImagePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &file
}

func (s *Selector) PendingFile() (models.ImagePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return models.ImagePayload{}, ErrNoFileSelected
	}
	return *s.pending, nil
}

func ReadFile(name string, r io.Reader) (models.ImagePayload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("read %s: %w", name, err)
	}
	return models.ImagePayload{Filename: name, Data: data}, nil
}

func LoadFile(path string) (models.ImagePayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ImagePayload{}, err
	}
	defer f.Close()

	return ReadFile(filepath.Base(path), f)
}
