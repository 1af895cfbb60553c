package capture

import (
	"fmt"
	"runtime"
)

func NewWebcamStreamer(deviceName string, targetFps uint, scaledWidth int, scaledHeight int) *FFmpegStreamer {
	return newFFmpegStreamer(webcamInputArgs(runtime.GOOS, deviceName), targetFps, scaledWidth, scaledHeight, false)
}

func webcamInputArgs(goos, deviceName string) []string {
	switch goos {
	case "windows":
		return []string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", deviceName)}
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", "30", "-i", deviceName}
	default:
		return []string{"-f", "v4l2", "-i", deviceName}
	}
}
