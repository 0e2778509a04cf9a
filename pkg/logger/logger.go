package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns an info-level JSON logger writing to stdout.
func New(extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(NewLogHandlerDecorator(h, extractors...))
}

// NewNope returns a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Open builds a logger from cfg writing to w. The returned flush function
// drains buffered Sentry events and must be called before exit.
func Open(cfg Config, w io.Writer, extractors ...ContextExtractor) (*slog.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		out = slog.NewJSONHandler(w, opts)
	case "text":
		out = slog.NewTextHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	if cfg.SentryDSN == "" {
		return slog.New(NewLogHandlerDecorator(out, extractors...)), func() {}, nil
	}

	minLevel, err := ParseLevel(cfg.SentryLevel)
	if err != nil {
		return nil, nil, err
	}
	sentryHandler, flush, err := newSentryHandler(cfg.SentryDSN, cfg.Environment, minLevel)
	if err != nil {
		// Sentry is optional; keep logging locally.
		log := slog.New(NewLogHandlerDecorator(out, extractors...))
		log.Error("sentry disabled", slog.String("error", err.Error()))
		return log, func() {}, nil
	}

	return slog.New(NewLogHandlerDecorator(fanout{out, sentryHandler}, extractors...)), flush, nil
}
