/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "GoDiagram Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportDescribesSession(t *testing.T) {
	dir := t.TempDir()
	d := diagram.New("flow", 100, 100)
	d.AddTopMost(diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(50, 50), 20, 20))

	path, err := writeReport(&Session{Dir: dir, Diagram: d, Source: "move.yaml"}, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, ReportDirName) {
		t.Fatalf("report in %s, want %s", filepath.Dir(path), filepath.Join(dir, ReportDirName))
	}
	b, _ := os.ReadFile(path)
	for _, want := range []string{"Source: move.yaml", "Diagram: flow (1 shapes)"} {
		if !bytes.Contains(b, []byte(want)) {
			t.Fatalf("report missing %q: %s", want, b)
		}
	}
}

// Recover must write the report and the snapshot and request exit code 2.
func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	d := diagram.New("flow", 120, 80)
	d.AddTopMost(diagram.NewPlanarShape(diagram.EllipseType, geometry.Pt(60, 40), 40, 20))

	func() {
		defer Recover(&Session{Dir: dir, Diagram: d})
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	files, _ := os.ReadDir(filepath.Join(dir, ReportDirName))
	var logs, pngs int
	for _, f := range files {
		switch filepath.Ext(f.Name()) {
		case ".log":
			logs++
		case ".png":
			pngs++
		}
	}
	if logs != 1 || pngs != 1 {
		t.Fatalf("got %d reports and %d snapshots, want 1 each", logs, pngs)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	oldExit := exitFn
	exitFn = func(code int) { t.Fatalf("unexpected exit %d", code) }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
}
