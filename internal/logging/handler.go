package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lyndonlyu/dtdaily/internal/redact"
)

const timeLayout = "2006-01-02 15:04:05,000"

// LineHandler is a slog.Handler producing one "time - LEVEL - msg k=v" line
// per record. Output passes through the redactor before it is written.
type LineHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	red    *redact.Redactor
	attrs  []slog.Attr
	prefix string
}

func NewLineHandler(w io.Writer, level slog.Leveler, red *redact.Redactor) *LineHandler {
	return &LineHandler{mu: &sync.Mutex{}, w: w, level: level, red: red}
}

func (h *LineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var b bytes.Buffer
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&b, "%s - %s - %s", ts.Format(timeLayout), levelName(r.Level), r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})

	line := h.red.Redact(b.String()) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func writeAttr(b *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(b, " %s%s=%s", prefix, a.Key, val)
}
