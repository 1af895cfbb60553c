package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"emotion/internal/models"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// ErrCaptureUnavailable means the camera is off or has not produced a frame
// since it was last opened.
var ErrCaptureUnavailable = errors.New("camera frame not ready")

type StreamerFactory func() (VideoStreamer, error)

// Camera owns one live feed at a time and remembers its latest frame.
type Camera struct {
	mu sync.Mutex

	factory StreamerFactory
	quality int
	log     *zap.Logger

	streamer  VideoStreamer
	stopChan  chan struct{}
	lastFrame image.Image
	on        bool
	onEnded   func()

	preview chan image.Image
}

func NewCamera(factory StreamerFactory, jpegQuality int, log *zap.Logger) *Camera {
	if log == nil {
		log = zap.NewNop()
	}

	return &Camera{
		factory: factory,
		quality: jpegQuality,
		log:     log.Named("camera"),
		preview: make(chan image.Image, 1),
	}
}

func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.on {
		return nil
	}

	streamer, err := c.factory()
	if err != nil {
		return fmt.Errorf("camera source: %w", err)
	}

	if err := streamer.Start(); err != nil {
		return fmt.Errorf("camera start: %w", err)
	}

	stop := make(chan struct{})

	c.streamer = streamer
	c.stopChan = stop
	c.lastFrame = nil
	c.on = true

	go c.readLoop(streamer, stop)

	c.log.Debug("camera opened")
	return nil
}

func (c *Camera) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.on {
		return
	}

	c.releaseLocked()
	c.log.Debug("camera closed")
}

func (c *Camera) releaseLocked() {
	close(c.stopChan)
	c.streamer.Stop()

	c.streamer = nil
	c.stopChan = nil
	c.lastFrame = nil
	c.on = false
}

// SetOnEnded registers fn to run when the feed stops on its own, e.g. ffmpeg exited.
func (c *Camera) SetOnEnded(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnded = fn
}

// Toggle switches the feed and reports whether it is now on.
func (c *Camera) Toggle() (bool, error) {
	if c.IsOn() {
		c.Close()
		return false, nil
	}

	if err := c.Open(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Camera) IsOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

func (c *Camera) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on && c.lastFrame != nil
}

// Preview delivers frames for display. Frames are dropped if the reader lags.
func (c *Camera) Preview() <-chan image.Image {
	return c.preview
}

// Capture encodes the latest frame as a JPEG payload named capture.jpg.
func (c *Camera) Capture() (models.ImagePayload, error) {
	c.mu.Lock()
	frame := c.lastFrame
	on := c.on
	c.mu.Unlock()

	if !on || frame == nil {
		return models.ImagePayload{}, ErrCaptureUnavailable
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return models.ImagePayload{}, fmt.Errorf("jpeg encode: %w", err)
	}

	return models.ImagePayload{Filename: models.CaptureFilename, Data: buf.Bytes()}, nil
}

// WaitReady blocks until a frame is available or ctx ends.
func (c *Camera) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.Ready() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrCaptureUnavailable, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Camera) readLoop(s VideoStreamer, stop chan struct{}) {
	frames := s.FrameChan()
	errs := s.ErrorChan()

	for {
		select {
		case <-stop:
			return

		case frame, ok := <-frames:
			if !ok {
				c.feedEnded(stop)
				return
			}
			if frame == nil {
				continue
			}

			c.mu.Lock()
			// a frame from a feed that was closed meanwhile must not leak into the next one
			if c.stopChan == stop {
				c.lastFrame = frame
			}
			c.mu.Unlock()

			select {
			case c.preview <- frame:
			default:
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.log.Error("camera stream failed", zap.Error(err))

			c.mu.Lock()
			if c.stopChan == stop {
				c.lastFrame = nil
			}
			c.mu.Unlock()
		}
	}
}

func (c *Camera) feedEnded(stop chan struct{}) {
	c.mu.Lock()
	if c.stopChan != stop {
		c.mu.Unlock()
		return
	}
	c.releaseLocked()
	onEnded := c.onEnded
	c.mu.Unlock()

	c.log.Warn("camera feed ended")
	if onEnded != nil {
		onEnded()
	}
}
