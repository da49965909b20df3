/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log sets up the slog logger shared by godiagram's packages. Console
// output is a compact one-line format for people watching a replay; the
// optional file output is JSON and rotated by lumberjack. Records logged with
// a context from WithDiagram carry the diagram name.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"godiagram/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "GDG_LOG_LEVEL"
	EnvFormat = "GDG_LOG_FORMAT"
	EnvSource = "GDG_LOG_SOURCE"
	EnvFile   = "GDG_LOG_FILE"
)

// Rotation of the log file, sizes in megabytes.
const (
	fileMaxSize    = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Options controls Init. Format is "console" (default) or "json" and only
// applies to the console; the file is always JSON.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
	// Console replaces stderr. NoConsole drops console output entirely, the
	// terminal editor needs that because the screen belongs to tcell.
	Console   io.Writer
	NoConsole bool
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	file    *lj.Logger
)

// L returns the application logger. Before Init it is built from FromEnv.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	return Init(FromEnv())
}

// Init replaces the application logger and slog.Default. A log file opened by
// an earlier Init is closed.
func Init(opts Options) *slog.Logger {
	lvl := parseLevel(opts.Level)

	var handlers []slog.Handler
	if !opts.NoConsole {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
			handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
		} else {
			handlers = append(handlers, &consoleHandler{level: lvl, source: opts.AddSource, w: out})
		}
	}
	var w *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		w = &lj.Logger{Filename: path, MaxSize: fileMaxSize, MaxBackups: fileMaxBackups, MaxAge: fileMaxAgeDays, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}
	l := slog.New(diagramHandler{h}).With(
		slog.String("app", "godiagram"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	prev := file
	current, file = l, w
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(l)
	return l
}

// Close flushes and closes the log file, if any. Logging keeps working; a
// later record reopens the file.
func Close() error {
	mu.RLock()
	f := file
	mu.RUnlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// FromEnv reads Options from the GDG_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with the package or subsystem name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with the operation in progress.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type diagramKey struct{}

// WithDiagram stores the diagram name in ctx; records logged with that
// context carry it as the "diagram" attribute.
func WithDiagram(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, diagramKey{}, name)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// diagramHandler adds the diagram name from the context.
type diagramHandler struct{ next slog.Handler }

func (d diagramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.next.Enabled(ctx, level)
}

func (d diagramHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if name, ok := ctx.Value(diagramKey{}).(string); ok && name != "" {
			r = r.Clone()
			r.AddAttrs(slog.String("diagram", name))
		}
	}
	return d.next.Handle(ctx, r)
}

func (d diagramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return diagramHandler{d.next.WithAttrs(attrs)}
}

func (d diagramHandler) WithGroup(name string) slog.Handler {
	return diagramHandler{d.next.WithGroup(name)}
}

// fanout sends every record to all handlers and reports the first error.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// consoleHandler writes "15:04:05.000 LVL message key=value ..." lines.
// Attributes added under a group are written as group.key.
type consoleHandler struct {
	level  slog.Level
	source bool
	w      io.Writer
	// attrs are preformatted " key=value" pairs from WithAttrs
	attrs  string
	prefix string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	if h.source && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if f.File != "" {
			b.WriteString(" src=")
			b.WriteString(f.File)
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(f.Line))
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	c.attrs = b.String()
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			writeAttr(b, p, g)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(valueString(a.Value))
}

func levelTag(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	}
	return l.String()
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindString:
		if s := v.String(); strings.ContainsAny(s, " =\"") {
			return strconv.Quote(s)
		}
	}
	return v.String()
}
