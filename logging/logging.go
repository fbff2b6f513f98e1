// Package logging configures the process logger and adapts it to the
// middleware.Logger interface.
//
// Logs always go to stderr (optionally duplicated to a file); stdout is
// reserved for the stdio transport.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/felixgeelhaar/ghsearch-mcp/middleware"
)

// Options configures New.
type Options struct {
	Level  string
	Format string
	// File, when set, receives a copy of every entry.
	File   string
	Output io.Writer
}

// New builds a logger from opts. The returned closer releases the log file,
// if any, and is always non-nil.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	logger.SetLevel(parsed)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(out, f)
		closer = f
	}
	logger.SetOutput(out)

	return logger, closer, nil
}

func openLogFile(path string) (*os.File, error) {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Adapter implements middleware.Logger on top of logrus.
type Adapter struct {
	entry *logrus.Entry
}

var _ middleware.Logger = (*Adapter)(nil)

// NewAdapter wraps logger.
func NewAdapter(logger logrus.FieldLogger) *Adapter {
	return &Adapter{entry: logger.WithFields(logrus.Fields{})}
}

// With returns an adapter that adds fields to every entry.
func (a *Adapter) With(fields ...middleware.Field) *Adapter {
	return &Adapter{entry: a.entry.WithFields(toFields(fields))}
}

func (a *Adapter) Info(msg string, fields ...middleware.Field) {
	a.entry.WithFields(toFields(fields)).Info(msg)
}

func (a *Adapter) Error(msg string, fields ...middleware.Field) {
	a.entry.WithFields(toFields(fields)).Error(msg)
}

func (a *Adapter) Debug(msg string, fields ...middleware.Field) {
	a.entry.WithFields(toFields(fields)).Debug(msg)
}

func (a *Adapter) Warn(msg string, fields ...middleware.Field) {
	a.entry.WithFields(toFields(fields)).Warn(msg)
}

func toFields(fields []middleware.Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
