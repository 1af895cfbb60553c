package capture

import (
	"testing"

	"emotion/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFmpegArgs(t *testing.T) {
	s := newFFmpegStreamer(webcamInputArgs("linux", "/dev/video0"), 24, 640, 480, false)

	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", "/dev/video0",
		"-vf", "fps=24,scale=640:480",
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}, s.Args())
}

func TestFFmpegStreamerDefaultsFPS(t *testing.T) {
	s := newFFmpegStreamer(nil, 0, 10, 10, true)
	assert.Equal(t, standardFps, s.targetFPS)
}

func TestFFmpegStreamerRejectsEmptySize(t *testing.T) {
	s := newFFmpegStreamer(nil, 10, 0, 10, false)
	assert.Error(t, s.Start())
}

func TestWebcamInputArgs(t *testing.T) {
	assert.Equal(t, []string{"-f", "dshow", "-i", "video=Integrated Camera"}, webcamInputArgs("windows", "Integrated Camera"))
	assert.Equal(t, []string{"-f", "avfoundation", "-framerate", "30", "-i", "0"}, webcamInputArgs("darwin", "0"))
	assert.Equal(t, []string{"-f", "v4l2", "-i", "/dev/video1"}, webcamInputArgs("linux", "/dev/video1"))
}

func TestRGBAFrameCopiesBuffer(t *testing.T) {
	raw := make([]byte, 2*2*bytesPerPixel)
	raw[0] = 7

	img := rgbaFrame(raw, 2, 2)
	raw[0] = 9

	assert.Equal(t, uint8(7), img.Pix[0])
	assert.Equal(t, 8, img.Stride)
}

func TestParseProbe(t *testing.T) {
	w, h, err := parseProbe([]byte(`{"streams":[{"width":1280,"height":720}]}`))
	require.NoError(t, err)
	assert.Equal(t, uint16(1280), w)
	assert.Equal(t, uint16(720), h)

	_, _, err = parseProbe([]byte(`{"streams":[]}`))
	assert.Error(t, err)
}

func TestParseDshowDevices(t *testing.T) {
	out := `[dshow @ 000001] "Integrated Camera" (video)
[dshow @ 000001]   Alternative name "@device_pnp_..."
[dshow @ 000001] "Microphone Array" (audio)
[dshow @ 000001] "OBS Virtual Camera" (video)
[dshow @ 000001] "Integrated Camera" (video)`

	assert.Equal(t, []string{"Integrated Camera", "OBS Virtual Camera"}, parseDshowDevices(out))
	assert.Empty(t, parseDshowDevices("nothing here"))
}

func TestNewStreamerSources(t *testing.T) {
	cfg := config.NewDefaultConfig()

	s, err := NewStreamer(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FFmpegStreamer{}, s)

	cfg.SetSource(config.SourceLocal)
	cfg.SetLocalPath("")
	_, err = NewStreamer(cfg)
	assert.Error(t, err, "local source needs a file")

	cfg.SetSource("YouTube")
	_, err = NewStreamer(cfg)
	assert.Error(t, err)
}
