// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log level, format and destination.
type Options struct {
	Level  string // trace, debug, info, warn, error (default: warn)
	Format string // console or json (default: console)

	// File, when set, receives every log line instead of Out. The file is
	// rotated at 10 MB with three backups kept for 28 days.
	File string

	// Out is the destination when File is empty (default: os.Stderr).
	Out io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init replaces log.Logger and sets the global level. The returned closer
// flushes and closes the log file, if any.
func Init(opts Options) (io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	color := true

	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = lj
		closer = lj
		color = false
	}

	var w io.Writer
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console", "text":
		w = zerolog.ConsoleWriter{Out: out, NoColor: !color, TimeFormat: time.RFC3339}
	case "json":
		w = out
	default:
		return nil, errors.Errorf("unknown log format %q (want console or json)", opts.Format)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer, nil
}

// ParseLevel parses a level name. Empty means warn.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", s)
	}
	return level, nil
}
