package mcresp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultComponent is the component name this package logs under.
const DefaultComponent = "mcresp"

// ComponentKey is the attribute naming the component a record comes from.
const ComponentKey = "component"

var componentAttr = slog.String(ComponentKey, DefaultComponent)

const diagnosticTimeFormat = "2006-01-02 15:04:05"

// DiagnosticHandler is a slog.Handler writing one plain line per record:
//
//	2006-01-02 15:04:05 DEBUG [mcresp] message key=value ...
//
// Records below the configured level are dropped, and so are records whose
// component attribute is missing or not in the allowed set. This keeps
// diagnostics from libraries out of a tool's output unless asked for.
type DiagnosticHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Leveler
	components []string

	component string // set through WithAttrs
	prefix    string // open groups, dot separated
	attrs     string // preformatted attributes from WithAttrs
}

var _ slog.Handler = (*DiagnosticHandler)(nil)

// NewDiagnosticHandler creates a handler writing to w. A nil level means
// slog.LevelDebug. With no components, only DefaultComponent is allowed.
func NewDiagnosticHandler(w io.Writer, level slog.Leveler, components ...string) *DiagnosticHandler {
	if level == nil {
		level = slog.LevelDebug
	}
	if len(components) == 0 {
		components = []string{DefaultComponent}
	}
	return &DiagnosticHandler{
		mu:         &sync.Mutex{},
		w:          w,
		level:      level,
		components: components,
	}
}

// NewDiagnosticLogger returns a logger tagged with the first allowed
// component (DefaultComponent when none are given).
func NewDiagnosticLogger(w io.Writer, level slog.Leveler, components ...string) *slog.Logger {
	h := NewDiagnosticHandler(w, level, components...)
	return slog.New(h).With(slog.String(ComponentKey, h.components[0]))
}

func (h *DiagnosticHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *DiagnosticHandler) Handle(_ context.Context, r slog.Record) error {
	component := h.component
	var attrs strings.Builder
	attrs.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == ComponentKey && h.prefix == "" {
			component = a.Value.String()
			return true
		}
		writeAttr(&attrs, h.prefix, a)
		return true
	})

	if !slices.Contains(h.components, component) {
		return nil
	}

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}

	line := fmt.Sprintf("%s %-5s [%s] %s%s\n", t.Format(diagnosticTimeFormat), r.Level.String(), component, r.Message, attrs.String())

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

func (h *DiagnosticHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		if a.Key == ComponentKey && h.prefix == "" {
			h2.component = a.Value.String()
			continue
		}
		writeAttr(&sb, h.prefix, a)
	}
	h2.attrs = sb.String()
	return &h2
}

func (h *DiagnosticHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix = prefix + a.Key + "."
		}
		for _, ga := range group {
			writeAttr(sb, prefix, ga)
		}
		return
	}

	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')

	v := a.Value.String()
	if strings.ContainsAny(v, " \t\r\n\"=") || v == "" {
		v = fmt.Sprintf("%q", v)
	}
	sb.WriteString(v)
}
