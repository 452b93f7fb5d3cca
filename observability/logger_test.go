package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger_Development(t *testing.T) {
	InitLogger(false)

	if Logger == nil {
		t.Error("Logger should not be nil after initialization")
	}
}

func TestInitLogger_Production(t *testing.T) {
	InitLogger(true)

	if Logger == nil {
		t.Error("Logger should not be nil after initialization")
	}
}

func TestInitLoggerWithLevel(t *testing.T) {
	InitLoggerWithLevel(false, slog.LevelDebug)

	if Logger == nil {
		t.Error("Logger should not be nil after initialization")
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	Logger = slog.New(handler)

	Info("info message", "key", "value")
	if !strings.Contains(buf.String(), "info message") {
		t.Error("expected info message in output")
	}

	buf.Reset()
	Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("expected warn message in output")
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("expected error message in output")
	}

	buf.Reset()
	Debug("debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Error("expected debug message in output")
	}
}

func TestLazyInitialization(t *testing.T) {
	Logger = nil
	Info("lazy init message")

	if Logger == nil {
		t.Error("Logger should be initialized on first use")
	}
}

func TestWithSymbol(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, nil))

	WithSymbol("AAPL").Info("resolving")
	if !strings.Contains(buf.String(), "symbol=AAPL") {
		t.Errorf("expected symbol field in output, got %q", buf.String())
	}
}

func TestWithProvider(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, nil))

	WithProvider("yahoo").Warn("slow response")
	if !strings.Contains(buf.String(), "provider=yahoo") {
		t.Errorf("expected provider field in output, got %q", buf.String())
	}
}
