package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"
)

type VideoStreamer interface {
	Start() error
	Stop()
	FrameChan() <-chan image.Image
	ErrorChan() <-chan error
}

const (
	bytesPerPixel = 4
	standardFps   uint = 30
)

// FFmpegStreamer decodes any ffmpeg input into scaled RGBA frames.
type FFmpegStreamer struct {
	stopOnce sync.Once
	killOnce sync.Once

	inputArgs []string
	targetFPS uint
	width     int
	height    int

	// paced streamers emit at targetFPS and block until the frame is taken;
	// live ones drop frames nobody is waiting for.
	paced bool

	cmd       *exec.Cmd
	stderr    bytes.Buffer
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func newFFmpegStreamer(inputArgs []string, targetFPS uint, width, height int, paced bool) *FFmpegStreamer {
	if targetFPS == 0 {
		targetFPS = standardFps
	}

	return &FFmpegStreamer{
		inputArgs: inputArgs,
		targetFPS: targetFPS,
		width:     width,
		height:    height,
		paced:     paced,
		frameChan: make(chan image.Image, 1),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
}

func ffmpegArgs(inputArgs []string, fps uint, width, height int) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, inputArgs...)
	return append(args,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", fps, width, height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	)
}

func (s *FFmpegStreamer) Args() []string {
	return ffmpegArgs(s.inputArgs, s.targetFPS, s.width, s.height)
}

func (s *FFmpegStreamer) Start() error {
	if s.width <= 0 || s.height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", s.width, s.height)
	}

	s.cmd = exec.Command("ffmpeg", s.Args()...)
	s.cmd.Stderr = &s.stderr

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w. Details: %s", err, s.stderr.String())
	}

	go s.readLoop(stdout)

	return nil
}

func (s *FFmpegStreamer) readLoop(stdout io.ReadCloser) {
	defer close(s.frameChan)
	defer close(s.errChan)
	defer stdout.Close()
	defer s.stopCmdOut()

	frameSize := s.width * s.height * bytesPerPixel
	buffer := make([]byte, frameSize)

	var tick <-chan time.Time
	if s.paced {
		ticker := time.NewTicker(time.Second / time.Duration(s.targetFPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-s.stopChan:
				return
			case <-tick:
			}
		}

		select {
		case <-s.stopChan:
			return
		default:
		}

		if _, err := io.ReadFull(stdout, buffer); err != nil {
			select {
			case <-s.stopChan:
			default:
				s.errChan <- fmt.Errorf("read error: %w", err)
			}
			return
		}

		img := rgbaFrame(buffer, s.width, s.height)

		if s.paced {
			select {
			case s.frameChan <- img:
			case <-s.stopChan:
				return
			}
			continue
		}

		select {
		case s.frameChan <- img:
		default:
		}
	}
}

func rgbaFrame(raw []byte, width, height int) *image.RGBA {
	pixelData := make([]byte, len(raw))
	copy(pixelData, raw)

	return &image.RGBA{
		Pix:    pixelData,
		Stride: width * bytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func (s *FFmpegStreamer) stopCmdOut() {
	s.killOnce.Do(func() {
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Kill()
			s.cmd.Wait()
		}
	})
}

func (s *FFmpegStreamer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.stopCmdOut()
	})
}

func (s *FFmpegStreamer) FrameChan() <-chan image.Image { return s.frameChan }
func (s *FFmpegStreamer) ErrorChan() <-chan error       { return s.errChan }
