package util

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	Logger zerolog.Logger
	// LogOutput is where LogInit sends records.
	LogOutput io.Writer = os.Stderr
)

func parseLevel(in string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LogInit (re)builds Logger. log_format "json" emits raw JSON lines for log
// collectors; anything else gets the console writer.
func LogInit(inlevel string) {
	level := parseLevel(inlevel)

	out := LogOutput
	if !strings.EqualFold(Config.GetString("log_format"), "json") {
		out = zerolog.ConsoleWriter{Out: LogOutput, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()

	Logger.Info().Msgf("logging initialized at level %v", level)
}
