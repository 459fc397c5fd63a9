package slogutil

import (
	"fmt"
	"io"
	"log/slog"
)

// Options describes a logger built from configuration and CLI flags.
type Options struct {
	// Format is "text" (the line format) or "json".
	Format string
	Level  slog.Level
	// File, when set, receives a copy of every record at debug level or
	// above in the same format, with size-based rotation.
	File       string
	MaxSize    string
	MaxBackups int
}

// New builds a logger writing to console and, optionally, to a rotating
// file. The returned closer releases the file and is never nil.
func New(console io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	handler, err := newHandler(console, opts.Format, opts.Level)
	if err != nil {
		return nil, nopCloser{}, err
	}
	if opts.File == "" {
		return slog.New(handler), nopCloser{}, nil
	}

	var maxSize int64
	if opts.MaxSize != "" {
		if maxSize, err = ParseSize(opts.MaxSize); err != nil {
			return nil, nopCloser{}, err
		}
	}
	rf, err := OpenRotatingFile(opts.File, maxSize, opts.MaxBackups)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	fileHandler, _ := newHandler(rf, opts.Format, slog.LevelDebug)
	return slog.New(TeeHandler{handler, fileHandler}), rf, nil
}

func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	ho := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return NewLineHandler(w, ho), nil
	case "json":
		return slog.NewJSONHandler(w, ho), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
