package config

import "runtime"

func defaultDevice() string {
	switch runtime.GOOS {
	case "windows":
		return ""
	case "darwin":
		return "0"
	default:
		return "/dev/video0"
	}
}
