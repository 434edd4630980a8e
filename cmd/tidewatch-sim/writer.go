package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"

	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/fleet"
)

// newWriters assembles the writer stack from flags and environment. The
// TUI writer is returned separately so the caller can wire fleet controls
// into it; it is nil unless --tui was requested.
func newWriters(cfg *config.FleetConfig, printOnly, tui bool, logFile string) (fleet.ReadingWriter, *fleet.TUIWriter, func(), error) {
	var writers []fleet.ReadingWriter
	var tuiW *fleet.TUIWriter

	switch {
	case tui:
		tuiW = fleet.NewTUIWriter(cfg)
		writers = append(writers, tuiW)
	case term.IsTerminal(int(os.Stdout.Fd())):
		writers = append(writers, fleet.NewColorStdoutWriter(cfg))
	default:
		writers = append(writers, fleet.NewJSONStdoutWriter())
	}

	if !printOnly {
		sinks, err := envSinks()
		if err != nil {
			return nil, nil, nil, err
		}
		writers = append(writers, sinks...)
	}

	if logFile != "" {
		fw, err := fleet.NewFileWriter(logFile, logFile+".alerts", logFile+".events", logFile+".state")
		if err != nil {
			return nil, nil, nil, err
		}
		writers = append(writers, fw)
	}

	var writer fleet.ReadingWriter = writers[0]
	if len(writers) > 1 {
		writer = fleet.NewMultiWriter(writers...)
	}
	cleanup := func() {
		if c, ok := writer.(io.Closer); ok {
			c.Close()
		}
	}
	return writer, tuiW, cleanup, nil
}

// envSinks builds the storage sinks configured through the environment:
// GreptimeDB for time series, Redis for live state, SQLite for a local
// archive. Unset variables skip their sink.
func envSinks() ([]fleet.ReadingWriter, error) {
	var sinks []fleet.ReadingWriter

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		w, err := fleet.NewGreptimeDBWriter(endpoint, database)
		if err != nil {
			return nil, fmt.Errorf("greptimedb writer: %w", err)
		}
		sinks = append(sinks, w)
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		db := 0
		if v := os.Getenv("REDIS_DB"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
			}
			db = parsed
		}
		ttl := time.Hour
		if v := os.Getenv("REDIS_TTL"); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_TTL: %w", err)
			}
			ttl = parsed
		}
		w, err := fleet.NewRedisWriter(addr, os.Getenv("REDIS_PASSWORD"), db, ttl)
		if err != nil {
			return nil, fmt.Errorf("redis writer: %w", err)
		}
		sinks = append(sinks, w)
	}

	if path := os.Getenv("SQLITE_PATH"); path != "" {
		w, err := fleet.NewSQLiteWriter(path)
		if err != nil {
			return nil, fmt.Errorf("sqlite writer: %w", err)
		}
		sinks = append(sinks, w)
	}

	return sinks, nil
}

// newReadingWriter picks the replay output: the configured sinks when
// available, STDOUT otherwise.
func newReadingWriter(printOnly bool) (fleet.ReadingWriter, func(), error) {
	if !printOnly {
		sinks, err := envSinks()
		if err != nil {
			return nil, nil, err
		}
		if len(sinks) > 0 {
			w := fleet.NewMultiWriter(sinks...)
			return w, func() { w.Close() }, nil
		}
	}
	return fleet.NewJSONStdoutWriter(), func() {}, nil
}
