package logging

import (
	"log/slog"
	"slices"
	"strings"
)

// field is one leaf attribute qualified by the groups open when it was added.
type field struct {
	path []string
	val  slog.Value
}

func (f field) key(sep string) string {
	return strings.Join(f.path, sep)
}

// scope holds what WithAttrs and WithGroup accumulate for handlers that
// flatten records into key/value pairs.
type scope struct {
	level  slog.Leveler
	fields []field
	groups []string
}

func (s scope) enabled(level slog.Level) bool {
	return level >= s.level.Level()
}

func (s scope) withAttrs(attrs []slog.Attr) scope {
	next := s
	next.fields = slices.Clip(s.fields)
	for _, a := range attrs {
		next.fields = appendField(next.fields, s.groups, a)
	}
	return next
}

func (s scope) withGroup(name string) scope {
	if name == "" {
		return s
	}
	next := s
	next.groups = append(slices.Clip(s.groups), name)
	return next
}

// collect returns the scope's fields followed by the record's.
func (s scope) collect(r slog.Record) []field {
	out := make([]field, len(s.fields), len(s.fields)+r.NumAttrs())
	copy(out, s.fields)
	r.Attrs(func(a slog.Attr) bool {
		out = appendField(out, s.groups, a)
		return true
	})
	return out
}

func appendField(dst []field, groups []string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = appendField(dst, inner, ga)
		}
		return dst
	}
	return append(dst, field{path: append(slices.Clip(groups), a.Key), val: a.Value})
}
