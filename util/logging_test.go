package util

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestLogInitJSON(t *testing.T) {
	var buf bytes.Buffer
	LogOutput = &buf
	Config.Set("log_format", "json")
	defer func() {
		LogOutput = os.Stderr
		Config.Set("log_format", nil)
		LogInit("info")
	}()

	LogInit("warn")
	Logger.Info().Msg("hidden")
	Logger.Warn().Str("pin", "GPIO17").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// the init record is info, so only the warning passes the filter
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["message"] != "visible" || rec["pin"] != "GPIO17" || rec["level"] != "warn" {
		t.Errorf("record = %v", rec)
	}
}

func TestLogInitConsole(t *testing.T) {
	var buf bytes.Buffer
	LogOutput = &buf
	defer func() {
		LogOutput = os.Stderr
		LogInit("info")
	}()

	LogInit("debug")
	Logger.Debug().Msg("probe")

	if !strings.Contains(buf.String(), "probe") {
		t.Errorf("console output missing record: %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Error("console writer should not emit raw JSON")
	}
}
