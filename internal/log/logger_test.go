package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_WritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "tidy.log")

	logger, err := New(Options{FilePath: logFile, JSON: true})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	logger.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing message: %q", data)
	}
	if !strings.Contains(string(data), "timestamp") {
		t.Errorf("expected JSON encoding with timestamp key: %q", data)
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Options{Level: "verbose"})
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be enabled")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should stay disabled on fallback")
	}
}
