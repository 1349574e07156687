package logsvc

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mugilan0610/institute-management-system/core"
)

// NewZap builds the process logger from the log settings.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	var zapCfg zap.Config

	switch conf.Log.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(conf.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", conf.Log.Level)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(zap.Fields(
		zap.String("app", conf.AppName),
		zap.String("env", conf.Env),
	))
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}
