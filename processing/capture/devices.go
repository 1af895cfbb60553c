package capture

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
)

var dshowVideoDevice = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

func ListCameras() ([]string, error) {
	switch runtime.GOOS {
	case "windows":
		cmd := exec.Command("ffmpeg", "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		// ffmpeg always exits non-zero here; the listing is on stderr.
		_ = cmd.Run()

		return parseDshowDevices(stderr.String()), nil
	case "darwin":
		return []string{"0"}, nil
	default:
		devices, err := filepath.Glob("/dev/video*")
		if err != nil {
			return nil, err
		}
		sort.Strings(devices)
		return devices, nil
	}
}

func parseDshowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)

	for _, m := range dshowVideoDevice.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}

	return cameras
}
