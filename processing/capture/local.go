package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// NewLocalStreamer plays a video file as if it were a camera. A zero scaled
// size keeps the file's own dimensions.
func NewLocalStreamer(path string, targetFPS uint, scaledWidth int, scaledHeight int) (*FFmpegStreamer, error) {
	if path == "" {
		return nil, errors.New("no video file configured")
	}

	w, h, err := probeVideoDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	if scaledWidth <= 0 || scaledHeight <= 0 {
		scaledWidth, scaledHeight = int(w), int(h)
	}

	args := []string{"-stream_loop", "-1", "-i", path}

	return newFFmpegStreamer(args, targetFPS, scaledWidth, scaledHeight, true), nil
}

type probeData struct {
	Streams []struct {
		Width  uint16 `json:"width"`
		Height uint16 `json:"height"`
	} `json:"streams"`
}

func probeVideoDimensions(path string) (uint16, uint16, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}

	return parseProbe(output)
}

func parseProbe(output []byte) (uint16, uint16, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, 0, err
	}

	if len(data.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video streams found")
	}

	return data.Streams[0].Width, data.Streams[0].Height, nil
}
