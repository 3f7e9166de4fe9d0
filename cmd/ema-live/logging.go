package main

import (
	"io"
	"log/slog"

	"github.com/koscakluka/ema-live/internal/config"
)

func newLogger(out io.Writer, cfg config.LogConfig) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
