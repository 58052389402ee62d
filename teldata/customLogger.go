package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
)

const bracketTimeFormat = "[2006/01/02 15:04:05]"

// Handler writes records as "[time] [value]... message". Keys are dropped,
// so "module", "reader" shows up as "[reader]".
type Handler struct {
	level  slog.Leveler
	prefix []byte // values bound with WithAttrs, already bracketed
	mu     *sync.Mutex
	out    io.Writer
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{out: o, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := append([]byte{}, h.prefix...)
	for _, a := range attrs {
		prefix = appendValue(prefix, a)
	}
	return &Handler{level: h.level, prefix: prefix, mu: h.mu, out: h.out}
}

// Groups only qualify keys, which are not printed.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(bracketTimeFormat))
	}
	line := append(buf.Bytes(), h.prefix...)
	r.Attrs(func(a slog.Attr) bool {
		line = appendValue(line, a)
		return true
	})
	if len(line) > 0 {
		line = append(line, ' ')
	}
	line = append(line, r.Message...)
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(line)
	return err
}

func appendValue(b []byte, a slog.Attr) []byte {
	if a.Equal(slog.Attr{}) {
		return b
	}
	if len(b) > 0 {
		b = append(b, ' ')
	}
	b = append(b, '[')
	b = append(b, a.Value.Resolve().String()...)
	return append(b, ']')
}
