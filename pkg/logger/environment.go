package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Environment names accepted by WithEnvironment.
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// ParseLevel converts a level name (debug, info, warn, error) to slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return l, nil
}

// ParseFormat converts a format name to Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("invalid log format %q: must be %q or %q", name, FormatJSON, FormatText)
	}
}
