package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiGray   = "\x1b[90m"
)

// consoleOutput is shared by a console handler and every handler derived from
// it with WithAttrs or WithGroup.
type consoleOutput struct {
	mu     sync.Mutex
	w      io.Writer
	level  *slog.LevelVar
	source bool
	color  bool
}

// prettyHandler prints one header line per record followed by an indented
// "- key: value" line per attribute. Handler attributes are flattened once, when
// they are attached.
type prettyHandler struct {
	out    *consoleOutput
	groups []string
	fields []kv
}

type kv struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource, color bool) slog.Handler {
	return &prettyHandler{out: &consoleOutput{w: w, level: lvl, source: addSource, color: color}}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.out.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fields := make([]kv, len(h.fields), len(h.fields)+len(attrs))
	copy(fields, h.fields)
	for _, attr := range attrs {
		fields = appendFlat(fields, h.groups, attr)
	}
	return &prettyHandler{out: h.out, groups: h.groups, fields: fields}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, len(h.groups), len(h.groups)+1)
	copy(groups, h.groups)
	return &prettyHandler{out: h.out, groups: append(groups, name), fields: h.fields}
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}
	fields := make([]kv, len(h.fields), len(h.fields)+record.NumAttrs())
	copy(fields, h.fields)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlat(fields, h.groups, attr)
		return true
	})

	var subj subject
	body := make([]kv, 0, len(fields))
	for _, f := range fields {
		if !subj.take(f) {
			body = append(body, f)
		}
	}
	body = lastWins(body)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	h.writeLevel(&buf, record.Level)
	if subj.component != "" {
		buf.WriteString(" [" + subj.component + "]")
	}
	if s := subj.String(); s != "" {
		buf.WriteString(" " + s + ":")
	}
	buf.WriteByte(' ')
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if src := record.Source(); h.out.source && src != nil && src.File != "" {
		buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
	}
	buf.WriteByte('\n')
	for _, f := range body {
		value := redacted
		if !isSecretKey(f.key) {
			value = formatValue(f.value)
		}
		buf.WriteString("    - " + f.key + ": " + value + "\n")
	}

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) writeLevel(buf *bytes.Buffer, level slog.Level) {
	label := levelLabel(level)
	if !h.out.color {
		buf.WriteString(label)
		return
	}
	color := ansiGray
	switch {
	case level >= slog.LevelError:
		color = ansiRed
	case level >= slog.LevelWarn:
		color = ansiYellow
	case level >= slog.LevelInfo:
		color = ansiCyan
	}
	buf.WriteString(color + label + ansiReset)
}

// subject holds the fields promoted into the header line. The first value of
// each wins.
type subject struct {
	component, workflow, row, stage string
}

func (s *subject) take(f kv) bool {
	var slot *string
	switch f.key {
	case FieldComponent:
		slot = &s.component
	case FieldWorkflow:
		slot = &s.workflow
	case FieldRow:
		slot = &s.row
	case FieldStage:
		slot = &s.stage
	default:
		return false
	}
	if *slot == "" {
		*slot = strings.TrimSpace(attrString(f.value))
	}
	return true
}

// String renders "Books · Row 4 (resolving)" from whichever parts are set.
func (s subject) String() string {
	var parts []string
	if s.workflow != "" {
		parts = append(parts, strings.ToUpper(s.workflow[:1])+strings.ToLower(s.workflow[1:]))
	}
	switch {
	case s.row != "" && s.stage != "":
		parts = append(parts, "Row "+s.row+" ("+s.stage+")")
	case s.row != "":
		parts = append(parts, "Row "+s.row)
	case s.stage != "":
		parts = append(parts, s.stage)
	}
	return strings.Join(parts, " · ")
}

// lastWins drops earlier duplicates of a key, keeping the first position and
// the last value.
func lastWins(fields []kv) []kv {
	pos := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := pos[f.key]; ok {
			out[i].value = f.value
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

// appendFlat appends attr to dst, expanding groups into dotted keys.
func appendFlat(dst []kv, groups []string, attr slog.Attr) []kv {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		key := strings.Join(append(append([]string(nil), groups...), attr.Key), ".")
		if attr.Key == "" {
			key = strings.Join(groups, ".")
		}
		return append(dst, kv{key: key, value: value})
	}
	inner := groups
	if attr.Key != "" {
		inner = append(append([]string(nil), groups...), attr.Key)
	}
	for _, a := range value.Group() {
		dst = appendFlat(dst, inner, a)
	}
	return dst
}
