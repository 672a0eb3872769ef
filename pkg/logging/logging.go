package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Event collects the attributes of one alignment job so they can be logged
// as a single entry when the job finishes.
type Event struct {
	mu    sync.Mutex
	attrs []any
}

// Attrs returns the collected attributes in the order they were added.
func (e *Event) Attrs() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]any(nil), e.attrs...)
}

type eventKey struct{}

// Init installs the process logger on stderr. format is "json" or "text".
func Init(level, format string) *slog.Logger {
	logger := New(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("service", "vecalign"))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewEventContext returns a context carrying a fresh Event.
func NewEventContext(ctx context.Context) (context.Context, *Event) {
	e := &Event{}
	return context.WithValue(ctx, eventKey{}, e), e
}

// AddToEvent appends attrs to the Event carried by ctx. Contexts without an
// Event are ignored.
func AddToEvent(ctx context.Context, attrs ...slog.Attr) {
	e, ok := ctx.Value(eventKey{}).(*Event)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range attrs {
		e.attrs = append(e.attrs, a)
	}
}
