package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Out receives command results, Logger receives diagnostics
	Out    io.Writer
	Logger *slog.Logger

	// Common timeouts
	DefaultTimeout time.Duration

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context writing results to stdout
// and diagnostics to stderr
func NewContext() *Context {
	return &Context{
		Context:        context.Background(),
		OutputFormat:   "table",
		Out:            os.Stdout,
		Logger:         NewLogger(os.Stderr, false, false),
		DefaultTimeout: 5 * time.Minute,
	}
}

// NewLogger returns a text logger at Debug when verbose, Error when quiet
// and Info otherwise
func NewLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithTimeout creates a context with timeout
func (c *Context) WithTimeout(timeout time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// Log writes a debug message, shown with --verbose
func (c *Context) Log(message string, args ...any) {
	c.logger().Debug(message, args...)
}

// Error writes an error message unless quiet
func (c *Context) Error(message string, args ...any) {
	c.logger().Error(message, args...)
}

// Printf writes command output unless quiet
func (c *Context) Printf(format string, args ...any) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.output(), format, args...)
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		c.Logger = NewLogger(io.Discard, false, false)
	}
	return c.Logger
}

func (c *Context) output() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Output returns the writer command results are written to
func (c *Context) Output() io.Writer {
	return c.output()
}
