package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/vidsearch/internal/version"
)

// Components tag which binary emitted a line.
const (
	ComponentAPI = "api"
	ComponentCtl = "ctl"
)

// Options tune NewLogger beyond the environment preset.
type Options struct {
	Level     string // debug, info, warn, error; empty keeps the preset level
	Component string // ComponentAPI or ComponentCtl
}

// NewLogger creates a zap logger for the given environment.
// prod uses JSON output, local/dev/docker use colored console output.
// Every line carries service, component and version fields.
func NewLogger(env string, opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if opts.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(baseFields(opts.Component)...))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func baseFields(component string) []zap.Field {
	fields := []zap.Field{
		zap.String("service", "vidsearch"),
		zap.String("version", version.Version),
	}
	if component != "" {
		fields = append(fields, zap.String("component", component))
	}
	return fields
}
