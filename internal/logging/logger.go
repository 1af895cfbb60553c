package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ReleaseMode = "release"

// Logger is the process-wide logger. It is a no-op until Init is called.
var Logger = zap.NewNop()

func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	if mode == ReleaseMode {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}

func Init(mode string) error {
	logger, err := New(mode)
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
