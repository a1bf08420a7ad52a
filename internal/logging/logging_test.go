package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
		{"", LevelInfo, true},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != test.expected {
				t.Fatalf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestNewWriterFiltersByLevelAndTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, Config{Level: LevelWarn, Component: "session"})
	logger.Info("hidden")
	logger.Warn("shown", "symbol", "H")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	for _, want := range []string{"shown", "component=session", "symbol=H"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "eyetalk.log")
	logger, err := New(Config{Level: LevelInfo, FilePath: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.WithComponent("store").Info("saved transcript")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "component=store") {
		t.Fatalf("expected component attribute, got %q", data)
	}
}

func TestEmptyPathDiscards(t *testing.T) {
	logger, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Error("nowhere")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWithComponentReplacesTag(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, Config{Level: LevelInfo, Component: "eyetalk"})
	logger.WithComponent("tui").Info("started")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=tui") {
		t.Fatalf("expected a single tui component tag: %q", out)
	}
}
