// Package notify delivers user-facing success and error messages from the
// order engine to whatever surface the terminal uses.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Sink receives engine notifications. Implementations must not block.
type Sink interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Discard drops every notification.
var Discard Sink = discard{}

type discard struct{}

func (discard) Success(context.Context, string) {}
func (discard) Error(context.Context, string)   {}

var _ Sink = (*Logger)(nil)

// Logger writes notifications to a zap logger.
type Logger struct {
	lg *zap.Logger
}

// NewLogger returns a Logger sink.
func NewLogger(lg *zap.Logger) *Logger {
	return &Logger{lg: lg.Named("notify")}
}

func (l *Logger) Success(_ context.Context, msg string) {
	l.lg.Info(msg)
}

func (l *Logger) Error(_ context.Context, msg string) {
	l.lg.Warn(msg)
}

var _ Sink = (*Writer)(nil)

// Writer prints notifications as lines, for terminal output.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer sink printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Success(_ context.Context, msg string) {
	p.print("ok", msg)
}

func (p *Writer) Error(_ context.Context, msg string) {
	p.print("error", msg)
}

func (p *Writer) print(prefix, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "%s: %s\n", prefix, msg)
}

// Level distinguishes recorded notifications.
type Level int

const (
	LevelSuccess Level = iota + 1
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is a recorded notification.
type Message struct {
	Level Level
	Text  string
}

var _ Sink = (*Recorder)(nil)

// Recorder keeps notifications in memory, in order.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Success(_ context.Context, msg string) {
	r.add(LevelSuccess, msg)
}

func (r *Recorder) Error(_ context.Context, msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Level: level, Text: msg})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Drain returns the recorded messages and forgets them.
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}
