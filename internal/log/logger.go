package log

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger.
type Options struct {
	// FilePath, when set, duplicates log output into this file.
	FilePath string
	// JSON switches the encoding from console to JSON.
	JSON bool
	// Level is a zap level name ("debug", "info", ...); empty means info.
	Level string
}

// New builds the application logger: console output on stderr, optionally
// duplicated into a log file.
func New(opts Options) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "console"
	if opts.JSON {
		zapCfg.Encoding = "json"
	}

	if opts.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(opts.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg.OutputPaths = []string{"stderr"}
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return nil, err
		}
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, opts.FilePath)
	}

	return zapCfg.Build()
}
