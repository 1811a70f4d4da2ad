package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset   = "\033[0m"
	ansiDim     = "\033[2m"
	ansiBold    = "\033[1m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiMagenta = "\033[35m"
)

// TerminalHandler formats log records as coloured key=value terminal output:
//
//	15:04:05.000 INF job submitted job_id=abc file_id=3
//
// Attributes added via WithAttrs are pre-rendered once, so loggers carrying a
// fixed component attribute pay no per-record formatting cost for it.
type TerminalHandler struct {
	mu       *sync.Mutex
	writer   io.Writer
	level    slog.Leveler
	preamble string
	prefix   string
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *TerminalHandler {
	h := &TerminalHandler{
		mu:     &sync.Mutex{},
		writer: w,
		level:  slog.LevelInfo,
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle renders the record and writes it as a single line.
func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(256)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ansiDim + ts.Format("15:04:05.000") + ansiReset + " ")
	b.WriteString(levelTag(r.Level))
	b.WriteString(" " + ansiBold + r.Message + ansiReset)
	b.WriteString(h.preamble)

	r.Attrs(func(a slog.Attr) bool {
		renderAttr(&b, h.prefix, a)
		return true
	})

	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

// WithAttrs returns a handler that renders attrs before every record.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.preamble)
	for _, a := range attrs {
		renderAttr(&b, h.prefix, a)
	}

	clone := *h
	clone.preamble = b.String()
	return &clone
}

// WithGroup returns a handler that qualifies subsequent attribute keys with
// the group name.
func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func levelTag(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return ansiMagenta + "DBG" + ansiReset
	case level < slog.LevelWarn:
		return ansiGreen + "INF" + ansiReset
	case level < slog.LevelError:
		return ansiYellow + "WRN" + ansiReset
	default:
		return ansiRed + "ERR" + ansiReset
	}
}

func renderAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := prefix
		if a.Key != "" {
			nested += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			renderAttr(b, nested, ga)
		}
		return
	}

	b.WriteString(" " + ansiDim + prefix + a.Key + "=" + ansiReset)
	b.WriteString(renderValue(a.Value))
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"\\=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return strconv.Quote(err.Error())
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}
