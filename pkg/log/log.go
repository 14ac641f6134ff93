package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger every package's With* helper derives
// its child logger from. cmd/revstore sets it once in Init before any
// RAPI call runs.
var Logger zerolog.Logger

// Level is a logging verbosity accepted from the REVSTORE_LOG_LEVEL env
// var or the --log-level flag.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls how Init builds the global logger. There is no
// Output override here: revstore is a single local CLI process, always
// writing to stdout, not a service with multiple log sinks to pick
// between.
type Config struct {
	Level      Level
	JSONOutput bool
}

// Init builds the global Logger from cfg. JSON output is for feeding a
// log aggregator when revstore runs as a long-lived `serve` process;
// console output is for interactive use of the one-shot subcommands
// (put, get, delete, timemap, index).
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(string(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if !cfg.JSONOutput {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(output).With().Timestamp().Logger()
}

// WithComponent tags log lines with the storage-engine layer that
// produced them (hashdir, changelog, blobstore, delta, revision).
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithRepo tags log lines with the repo a RAPI call is operating on.
func WithRepo(repo int64) zerolog.Logger {
	return Logger.With().Int64("repo", repo).Logger()
}

// WithKeyHash tags log lines with a key's hex-encoded KeyHash, never the
// raw key bytes, so a log stream never leaks a key's original content.
func WithKeyHash(hash fmt.Stringer) zerolog.Logger {
	return Logger.With().Str("key_hash", hash.String()).Logger()
}
