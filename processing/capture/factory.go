package capture

import (
	"fmt"

	"emotion/internal/config"
)

func NewStreamer(cfg *config.Config) (VideoStreamer, error) {
	switch cfg.GetSource() {
	case config.SourceWebcam:
		return NewWebcamStreamer(cfg.GetDeviceID(), cfg.GetFPS(), cfg.GetWidth(), cfg.GetHeight()), nil
	case config.SourceLocal:
		return NewLocalStreamer(cfg.GetLocalPath(), cfg.GetFPS(), cfg.GetWidth(), cfg.GetHeight())
	default:
		return nil, fmt.Errorf("unknown source: %s", cfg.GetSource())
	}
}

// FactoryFor binds NewStreamer to cfg so every Camera.Open reads the current settings.
func FactoryFor(cfg *config.Config) StreamerFactory {
	return func() (VideoStreamer, error) {
		return NewStreamer(cfg)
	}
}
