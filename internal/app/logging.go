package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/version"
)

// NewLogger returns a JSON logger at the named level (debug, info, warn, error).
// Unknown levels fall back to info. Every record carries the release version.
func NewLogger(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(h).With("version", version.Current)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
