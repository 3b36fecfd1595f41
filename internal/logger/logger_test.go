package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("hidden")
	l.Warn("shown", zap.String("category", "Mesh"))
	_ = l.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "Mesh") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestNewWithoutSinks(t *testing.T) {
	l, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("discarded")
}

func TestNewRejectsLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "viewer.log")
	defer func(l *zap.Logger) {
		Log, Sugar = l, l.Sugar()
	}(Log)

	if err := InitWithOptions(Options{Level: "debug", File: FileConfig{Path: logFile, MaxSizeMB: 1}}); err != nil {
		t.Fatal(err)
	}
	Named("texture").Debug("bound camera texture", zap.Int("unit", 1))
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{"DEBUG", "texture", "bound camera texture", "unit"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")
	defer func(l *zap.Logger) {
		Log, Sugar = l, l.Sugar()
	}(Log)

	// 1MB is the smallest size lumberjack rotates at.
	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
	}
	if err := InitWithOptions(Options{Level: "debug", File: cfg}); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("frame %d: %s", i, longMessage)
	}
	Sync()

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	var rotated []string
	sawMain := false
	for _, f := range files {
		switch {
		case f.Name() == "test.log":
			sawMain = true
		case strings.HasPrefix(f.Name(), "test-") && strings.HasSuffix(f.Name(), ".log"):
			rotated = append(rotated, f.Name())
		}
	}
	if !sawMain {
		t.Error("main log file does not exist")
	}
	if len(rotated) == 0 {
		t.Errorf("expected rotated files, got %v", files)
	}
}
