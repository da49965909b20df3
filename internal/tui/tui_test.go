/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"godiagram/internal/diagram"
	"godiagram/internal/display"
	"godiagram/internal/geometry"
	"godiagram/internal/library"
	"godiagram/internal/snap"
	"godiagram/internal/tool"
)

func newHost(t *testing.T) (*Host, tcell.SimulationScreen, *diagram.PlanarShape) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(60, 30)

	d := diagram.New("flow", 600, 300)
	r := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(100, 100), 80, 80)
	d.AddTopMost(r)
	p := display.New(d, nil, nil, snap.Grid{Size: 10, SnapDistance: 5, Enabled: true})
	h := NewHost(screen, p, library.Builtin(), tool.DefaultSettings())
	// every call is a second later so presses never pair into double clicks
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return h, screen, r
}

func mouse(h *Host, x, y int, b tcell.ButtonMask, m tcell.ModMask) {
	h.HandleMouse(tcell.NewEventMouse(x, y, b, m))
}

func key(h *Host, k tcell.Key, r rune) bool {
	return h.HandleKey(tcell.NewEventKey(k, r, tcell.ModNone))
}

func cellAt(s tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func statusLine(s tcell.SimulationScreen) string {
	w, rows := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		b.WriteRune(cellAt(s, x, rows-1))
	}
	return strings.TrimSpace(b.String())
}

func TestCellSettings(t *testing.T) {
	got := CellSettings(tool.Settings{MinRotateRange: 30, EnableQuickRotate: true, GripSize: 3, DragThreshold: 2})
	want := tool.Settings{MinRotateRange: 3, EnableQuickRotate: true, GripSize: 1, DragThreshold: 0}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if got := CellSettings(tool.Settings{}); got.GripSize != 1 || got.MinRotateRange != 2 {
		t.Fatalf("minimums not applied: %+v", got)
	}
}

func TestHostZoomFollowsGrid(t *testing.T) {
	h, _, _ := newHost(t)
	if h.cell != 10 {
		t.Fatalf("cell size: got %d want 10", h.cell)
	}
	if got := h.p.ScreenToDiagram(geometry.Pt(3, 4)); got != geometry.Pt(30, 40) {
		t.Fatalf("cell (3,4) maps to %v", got)
	}
}

func TestClickSelectsAndDragMoves(t *testing.T) {
	h, _, r := newHost(t)
	mouse(h, 8, 8, tcell.Button1, tcell.ModNone)
	mouse(h, 8, 8, tcell.ButtonNone, tcell.ModNone)
	if !h.p.IsSelected(r) {
		t.Fatalf("click did not select the rectangle")
	}
	mouse(h, 8, 8, tcell.Button1, tcell.ModNone)
	mouse(h, 10, 9, tcell.Button1, tcell.ModNone)
	mouse(h, 10, 9, tcell.ButtonNone, tcell.ModNone)
	if got := r.Location(); got != geometry.Pt(120, 110) {
		t.Fatalf("after drag: got %v want (120,110)", got)
	}
	if h.buttons != tool.ButtonNone {
		t.Fatalf("buttons still held: %v", h.buttons)
	}
	if !h.p.Executor().CanUndo() {
		t.Fatalf("move was not executed")
	}
	if key(h, tcell.KeyRune, 'u') {
		t.Fatalf("undo must not quit")
	}
	if got := r.Location(); got != geometry.Pt(100, 100) {
		t.Fatalf("after undo: got %v", got)
	}
	key(h, tcell.KeyCtrlY, 0)
	if got := r.Location(); got != geometry.Pt(120, 110) {
		t.Fatalf("after redo: got %v", got)
	}
}

func TestDoubleClickCounting(t *testing.T) {
	h, _, _ := newHost(t)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return at }
	if n := h.countClick(geometry.Pt(1, 1), tool.ButtonLeft); n != 1 {
		t.Fatalf("first press: %d", n)
	}
	if n := h.countClick(geometry.Pt(1, 1), tool.ButtonLeft); n != 2 {
		t.Fatalf("second press: %d", n)
	}
	if n := h.countClick(geometry.Pt(1, 1), tool.ButtonLeft); n != 1 {
		t.Fatalf("third press starts over: %d", n)
	}
	at = at.Add(time.Second)
	if n := h.countClick(geometry.Pt(1, 1), tool.ButtonLeft); n != 1 {
		t.Fatalf("late press: %d", n)
	}
	if n := h.countClick(geometry.Pt(2, 1), tool.ButtonLeft); n != 1 {
		t.Fatalf("other cell: %d", n)
	}
}

func TestModifierChangesBecomeKeys(t *testing.T) {
	h, _, _ := newHost(t)
	mouse(h, 1, 1, tcell.ButtonNone, tcell.ModShift|tcell.ModAlt)
	if h.mods != tool.ModShift|tool.ModAlt {
		t.Fatalf("mods: got %v", h.mods)
	}
	mouse(h, 2, 1, tcell.ButtonNone, tcell.ModNone)
	if h.mods != tool.ModNone {
		t.Fatalf("mods not released: %v", h.mods)
	}
}

func TestDeleteKeyRemovesSelection(t *testing.T) {
	h, _, r := newHost(t)
	mouse(h, 8, 8, tcell.Button1, tcell.ModNone)
	mouse(h, 8, 8, tcell.ButtonNone, tcell.ModNone)
	key(h, tcell.KeyDelete, 0)
	if h.p.Diagram().Contains(r) {
		t.Fatalf("delete key did not remove the rectangle")
	}
}

func TestTemplateKeyPlacesShape(t *testing.T) {
	h, _, _ := newHost(t)
	key(h, tcell.KeyRune, '2')
	if got := h.p.Tool().Title(); got != "Rectangle" {
		t.Fatalf("tool: got %q", got)
	}
	mouse(h, 30, 20, tcell.Button1, tcell.ModNone)
	mouse(h, 30, 20, tcell.ButtonNone, tcell.ModNone)
	if n := len(h.p.Diagram().Shapes()); n != 2 {
		t.Fatalf("shapes: got %d want 2", n)
	}
	key(h, tcell.KeyRune, '9')
	if !strings.Contains(h.Message(), "no template") {
		t.Fatalf("message: %q", h.Message())
	}
	key(h, tcell.KeyRune, '1')
	if got := h.p.Tool().Title(); got != "Pointer" {
		t.Fatalf("tool: got %q", got)
	}
}

func TestCaptionLineEditor(t *testing.T) {
	h, screen, r := newHost(t)
	var got string
	var ok bool
	h.p.OpenCaptionEditor(r, 0, func(text string, confirmed bool) { got, ok = text, confirmed })
	if !h.Editing() {
		t.Fatalf("editor not open")
	}
	for _, c := range "Startx" {
		key(h, tcell.KeyRune, c)
	}
	key(h, tcell.KeyBackspace2, 0)
	h.Draw()
	if line := statusLine(screen); line != "Caption: Start_" {
		t.Fatalf("status: %q", line)
	}
	if key(h, tcell.KeyRune, 'q') {
		t.Fatalf("q inside the editor must not quit")
	}
	key(h, tcell.KeyBackspace2, 0)
	key(h, tcell.KeyEnter, 0)
	if h.Editing() || !ok || got != "Start" {
		t.Fatalf("editor result: %q %v", got, ok)
	}
}

func TestDrawCells(t *testing.T) {
	h, screen, r := newHost(t)
	h.Draw()
	if c := cellAt(screen, 6, 10); c != glyphBorder {
		t.Fatalf("left edge: got %q", c)
	}
	if c := cellAt(screen, 10, 10); c != glyphFill {
		t.Fatalf("body: got %q", c)
	}
	if c := cellAt(screen, 5, 10); c != ' ' {
		t.Fatalf("outside: got %q", c)
	}
	if line := statusLine(screen); !strings.HasPrefix(line, "Pointer | default") {
		t.Fatalf("status: %q", line)
	}

	h.p.SelectShape(r, false)
	h.Draw()
	if c := cellAt(screen, 6, 6); c != glyphGrip {
		t.Fatalf("corner grip: got %q", c)
	}
}

func TestDrawLinearShape(t *testing.T) {
	h, screen, _ := newHost(t)
	l := diagram.NewLinearShape(diagram.LineType, geometry.Pt(200, 50), geometry.Pt(250, 50))
	h.p.Diagram().AddTopMost(l)
	h.Draw()
	for x := 20; x <= 25; x++ {
		if c := cellAt(screen, x, 5); c != glyphLine {
			t.Fatalf("cell %d: got %q", x, c)
		}
	}
}

func TestScrollShiftsView(t *testing.T) {
	h, _, _ := newHost(t)
	key(h, tcell.KeyRight, 0)
	key(h, tcell.KeyDown, 0)
	if got := h.p.ScreenToDiagram(geometry.Pt(0, 0)); got != geometry.Pt(40, 40) {
		t.Fatalf("origin after scroll: got %v", got)
	}
	mouse(h, 0, 0, tcell.WheelUp, tcell.ModNone)
	if got := h.p.ScreenToDiagram(geometry.Pt(0, 0)); got != geometry.Pt(40, 0) {
		t.Fatalf("origin after wheel: got %v", got)
	}
}

func TestLoopQuits(t *testing.T) {
	h, screen, _ := newHost(t)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	done := make(chan struct{})
	go func() {
		h.Loop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not quit")
	}
}
