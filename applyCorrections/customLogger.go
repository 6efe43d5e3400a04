package main

// https://stackoverflow.com/questions/77422213/how-to-hide-all-keys-when-using-slog-in-golang

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Handler prints the attribute values between brackets, without keys:
// [2006/01/02 15:04:05] [run] [id] [module] message
type Handler struct {
	h     slog.Handler
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out: o,
		h: slog.NewTextHandler(o, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: nil,
		}),
		mu: &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	all := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	all = append(all, h.attrs...)
	all = append(all, attrs...)
	return &Handler{h: h.h.WithAttrs(attrs), out: h.out, mu: h.mu, attrs: all}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h: h.h.WithGroup(name), out: h.out, mu: h.mu, attrs: h.attrs}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	formattedTime := r.Time.Format("[2006/01/02 15:04:05]")
	strs := []string{formattedTime}

	for _, a := range h.attrs {
		strs = append(strs, fmt.Sprintf("[%s]", a.Value.String()))
	}
	r.Attrs(func(a slog.Attr) bool {
		strs = append(strs, fmt.Sprintf("[%s]", a.Value.String()))
		return true
	})
	strs = append(strs, r.Message)

	result := strings.Join(strs, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.out.Write([]byte(result))
	return err
}

// Logger sends info messages to stdout and errors to stderr as JSON.
// Info messages are only printed with verbosity > 0.
type Logger struct {
	InfoLog   *slog.Logger
	ErrorLog  *slog.Logger
	Verbosity int
}

func NewLogger(stdout io.Writer, stderr io.Writer, verbosity int) Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return Logger{
		InfoLog:   slog.New(NewHandler(stdout, opts)),
		ErrorLog:  slog.New(slog.NewJSONHandler(stderr, opts)),
		Verbosity: verbosity,
	}
}

func (l Logger) Info(message string, module string) {
	if l.Verbosity > 0 {
		l.InfoLog.Info(message, "module", module)
	}
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

// WithRun tags every message with the run name and id.
func (l Logger) WithRun(name string, id string) Logger {
	return Logger{
		InfoLog:   l.InfoLog.With("run", name, "id", id),
		ErrorLog:  l.ErrorLog.With("run", name, "id", id),
		Verbosity: l.Verbosity,
	}
}
