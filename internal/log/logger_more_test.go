/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSource, "true")
	t.Setenv(EnvFile, "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv: got %+v", opts)
	}
	t.Setenv(EnvLevel, "")
	if got := FromEnv().Level; got != "info" {
		t.Fatalf("default level: got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		" Warning": slog.LevelWarn,
		"ERROR":    slog.LevelError,
		"":         slog.LevelInfo,
		"chatty":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q): got %v want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	var h slog.Handler = &consoleHandler{level: slog.LevelWarn, w: &buf}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}

	h = h.WithAttrs([]slog.Attr{slog.String("component", "tool")}).WithGroup("drag")
	r := slog.NewRecord(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), slog.LevelError, "move rejected", 0)
	r.AddAttrs(slog.Int("dx", 40), slog.Float64("zoom", 1.5), slog.String("shape", "Rounded Box"))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := strings.TrimSpace(buf.String())
	want := `09:30:00.000 ERR move rejected component=tool drag.dx=40 drag.zoom=1.5 drag.shape="Rounded Box"`
	if got != want {
		t.Fatalf("line:\n got %s\nwant %s", got, want)
	}
}

func TestConsoleWriterAndDiagramContext(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Console: &buf})
	t.Cleanup(func() { Init(Options{NoConsole: true}) })

	ctx := WithDiagram(context.Background(), "flow")
	WithComponent("tool").InfoContext(ctx, "gesture committed", slog.String("mode", "MoveShape"))
	out := buf.String()
	for _, want := range []string{"INF gesture committed", "component=tool", "diagram=flow", "mode=MoveShape", "app=godiagram"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestNoConsoleDiscards(t *testing.T) {
	l := Init(Options{NoConsole: true})
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("logger without outputs reports enabled")
	}
	if L() != l {
		t.Fatalf("L does not return the initialized logger")
	}
	if err := Close(); err != nil {
		t.Fatalf("close without file: %v", err)
	}
}
