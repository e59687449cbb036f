package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func parseEntry(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	return entry
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	logger.Info("solve finished", map[string]interface{}{
		"iterations": 100,
		"converged":  true,
	})

	entry := parseEntry(t, buf.Bytes())
	if entry["level"] != "INFO" {
		t.Errorf("level: got %v, want INFO", entry["level"])
	}
	if entry["message"] != "solve finished" {
		t.Errorf("message: got %v", entry["message"])
	}
	if entry["iterations"] != float64(100) {
		t.Errorf("iterations field: got %v", entry["iterations"])
	}
	if entry["converged"] != true {
		t.Errorf("converged field: got %v", entry["converged"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("missing timestamp field")
	}
	if _, ok := entry["caller"]; !ok {
		t.Error("missing caller field")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("low-severity entries were written: %s", buf.String())
	}

	logger.Warn("visible")
	if buf.Len() == 0 {
		t.Fatal("warn entry was suppressed")
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf).WithFields(map[string]interface{}{
		"service": "vqe-server",
	})

	logger.Info("ready")
	entry := parseEntry(t, buf.Bytes())
	if entry["service"] != "vqe-server" {
		t.Errorf("service field: got %v", entry["service"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"Warn", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZapAdapterForwardsFields(t *testing.T) {
	var buf bytes.Buffer
	zlogger := NewZapLogger(New(DebugLevel, &buf))

	zlogger.Info("iteration",
		zap.Int("n", 7),
		zap.Float64("energy", -1.125),
		zap.Bool("converged", false),
		zap.String("phase", "descent"),
	)

	entry := parseEntry(t, buf.Bytes())
	if entry["message"] != "iteration" {
		t.Errorf("message: got %v", entry["message"])
	}
	if entry["n"] != float64(7) {
		t.Errorf("n field: got %v", entry["n"])
	}
	if entry["energy"] != -1.125 {
		t.Errorf("energy field: got %v", entry["energy"])
	}
	if entry["converged"] != false {
		t.Errorf("converged field: got %v", entry["converged"])
	}
	if entry["phase"] != "descent" {
		t.Errorf("phase field: got %v", entry["phase"])
	}
}

func TestZapAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	zlogger := NewZapLogger(New(ErrorLevel, &buf))

	zlogger.Debug("hidden")
	zlogger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("low-severity zap entries were written: %s", buf.String())
	}
}
