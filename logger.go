package main

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured slog.Logger with the given level. format
// "text" selects the human-readable handler; anything else logs JSON.
func NewLogger(level slog.Leveler, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
