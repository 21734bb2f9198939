// Package output provides console and file logging for arkfeed.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// simpleHandler writes messages without timestamps, levels, or attributes
type simpleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	debugMode bool
	quiet     *bool
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *simpleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *simpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *simpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// LogConfig configures the rotating log file
type LogConfig struct {
	// File is the log file path; empty disables file logging
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Debug      bool
}

// DefaultLogConfig returns the default log settings with environment overrides applied
func DefaultLogConfig() LogConfig {
	cfg := LogConfig{
		File:       GetLogFilePath(),
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     30,
		Debug:      os.Getenv("DEBUG") != "",
	}

	if maxSizeStr := os.Getenv("ARKFEED_LOG_MAX_SIZE"); maxSizeStr != "" {
		if maxSize, err := strconv.Atoi(maxSizeStr); err == nil && maxSize > 0 {
			cfg.MaxSize = maxSize
		}
	}
	if maxBackupsStr := os.Getenv("ARKFEED_LOG_MAX_BACKUPS"); maxBackupsStr != "" {
		if maxBackups, err := strconv.Atoi(maxBackupsStr); err == nil && maxBackups >= 0 {
			cfg.MaxBackups = maxBackups
		}
	}
	if maxAgeStr := os.Getenv("ARKFEED_LOG_MAX_AGE"); maxAgeStr != "" {
		if maxAge, err := strconv.Atoi(maxAgeStr); err == nil && maxAge > 0 {
			cfg.MaxAge = maxAge
		}
	}

	return cfg
}

// Splog provides human console output plus a structured, rotating log file
type Splog struct {
	logger    *slog.Logger
	writer    io.Writer
	logWriter io.WriteCloser
	// quiet is shared with the console handler and every With child
	quiet *bool
}

// NewSplog creates a console-only splog writing to stdout
func NewSplog() *Splog {
	return NewSplogWriter(os.Stdout, os.Getenv("DEBUG") != "")
}

// NewSplogWriter creates a console-only splog writing to w
func NewSplogWriter(w io.Writer, debug bool) *Splog {
	splog, _ := NewSplogWithConfig(w, LogConfig{Debug: debug})
	return splog
}

// NewSplogWithConfig creates a splog writing to w and, if cfg.File is set, to a rotating file
func NewSplogWithConfig(w io.Writer, cfg LogConfig) (*Splog, error) {
	splog := &Splog{writer: w, quiet: new(bool)}

	var handlers []slog.Handler
	handlers = append(handlers, &simpleHandler{
		mu:        &sync.Mutex{},
		writer:    w,
		debugMode: cfg.Debug,
		quiet:     splog.quiet,
	})

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   false,
		}
		splog.logWriter = lj

		handlers = append(handlers, slog.NewTextHandler(lj, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		}))
	}

	splog.logger = slog.New(&multiHandler{handlers: handlers})
	return splog, nil
}

// Logger returns the underlying structured logger.
// Attributes reach the log file only; the console shows messages.
func (s *Splog) Logger() *slog.Logger {
	return s.logger
}

// With returns a splog whose records carry the given attributes
func (s *Splog) With(args ...any) *Splog {
	return &Splog{
		logger:    s.logger.With(args...),
		writer:    s.writer,
		logWriter: s.logWriter,
		quiet:     s.quiet,
	}
}

// SetQuiet suppresses console output (the log file still receives records)
func (s *Splog) SetQuiet(quiet bool) {
	*s.quiet = quiet
}

func (s *Splog) logMessage(level slog.Level, msg string) {
	s.logger.Log(context.Background(), level, msg)
}

func format(prefix, f string, args []interface{}) string {
	if len(args) == 0 {
		return prefix + f
	}
	return fmt.Sprintf(prefix+f, args...)
}

// Info writes an info message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Info(f string, args ...interface{}) {
	s.logMessage(slog.LevelInfo, format("", f, args))
}

// Warn writes a warning message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Warn(f string, args ...interface{}) {
	s.logMessage(slog.LevelWarn, format("⚠️  ", f, args))
}

// Error writes an error message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Error(f string, args ...interface{}) {
	s.logMessage(slog.LevelError, format("❌ ", f, args))
}

// Debug writes a debug message
// nolint // format string validation is handled internally via fmt.Sprintf
func (s *Splog) Debug(f string, args ...interface{}) {
	s.logMessage(slog.LevelDebug, format("", f, args))
}

// Newline writes a newline to the console
func (s *Splog) Newline() {
	if !*s.quiet {
		_, _ = fmt.Fprintln(s.writer)
	}
}

// Page writes raw content to the console
func (s *Splog) Page(content string) {
	if !*s.quiet {
		_, _ = fmt.Fprint(s.writer, content)
	}
}

// Close closes the log file if one was opened
func (s *Splog) Close() error {
	if s.logWriter != nil {
		return s.logWriter.Close()
	}
	return nil
}
