// Package logging provides structured logging for cratedocs using zerolog.
//
// Loggers travel through context.Context: command setup builds a logger from
// configuration, attaches it with WithContext, and every component retrieves
// it with FromContext and tags its events with a component name. File output
// is rotated with lumberjack; when the log file cannot be prepared the logger
// falls back to stderr and records why.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logger behavior.
type Config struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string
	// Format is "console" for human-readable output or "json" for structured.
	Format string
	// Output selects the destination: "stderr", "stdout", or "file".
	Output string
	// File is the log file path, used when Output is "file".
	File string
	// Caller adds file:line caller annotations to each event.
	Caller bool
}

// Log rotation limits for file output.
const (
	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// LogPathResult reports how the logger was actually wired, so the CLI can
// tell the user where logs are going and close handles on shutdown.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	closer io.Closer
}

// Close releases the log file writer, if any.
func (r *LogPathResult) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// NewLoggerWithPath builds a logger from cfg and reports the resolved output.
// A file destination that cannot be prepared degrades to stderr rather than
// failing the command.
func NewLoggerWithPath(cfg Config) LogPathResult {
	result := LogPathResult{}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer
	switch cfg.Output {
	case "file":
		rotator, prepErr := fileWriter(cfg.File)
		if prepErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = prepErr.Error()
			out = os.Stderr
		} else {
			result.UsingFile = true
			result.FilePath = cfg.File
			result.closer = rotator
			out = rotator
		}
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}

	// Console format only makes sense on a live stream; file output stays JSON.
	if cfg.Format == "console" && !result.UsingFile {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logCtx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}
	result.Logger = logCtx.Logger()
	return result
}

// fileWriter prepares a rotating writer for path, creating the parent
// directory if needed.
func fileWriter(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithContext attaches logger to ctx for retrieval by FromContext.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger attached to ctx. When none is attached it
// returns a disabled logger, so library code can log unconditionally.
func FromContext(ctx context.Context) zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	return *logger
}

// PrintLogPathMessage tells the user where file logging is going.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user why file logging was not available.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: logging to stderr (%s)\n", reason)
}
