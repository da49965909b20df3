/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

import (
	"testing"

	"godiagram/internal/command"
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/security"
	"godiagram/internal/snap"
)

// fakeDisplay is a 1:1 display over a diagram.
type fakeDisplay struct {
	d      *diagram.Diagram
	sel    []diagram.Shape
	grid   snap.Grid
	exec   *command.Executor
	sec    security.Manager
	cursor Cursor

	invalidated int
	editorText  string
	editorOK    bool
	editorCalls int
}

func newFakeDisplay(sec security.Manager) *fakeDisplay {
	return &fakeDisplay{
		d:    diagram.New("test", 1000, 1000),
		grid: snap.Grid{Size: 20, SnapDistance: 5},
		exec: command.NewExecutor(sec, nil),
		sec:  sec,
	}
}

func (f *fakeDisplay) Diagram() *diagram.Diagram          { return f.d }
func (f *fakeDisplay) SelectedShapes() []diagram.Shape    { return append([]diagram.Shape(nil), f.sel...) }
func (f *fakeDisplay) Grid() snap.Grid                    { return f.grid }
func (f *fakeDisplay) ScreenToDiagramDistance(px int) int { return px }
func (f *fakeDisplay) SetCursor(c Cursor)                 { f.cursor = c }
func (f *fakeDisplay) Invalidate(geometry.Rect)           { f.invalidated++ }
func (f *fakeDisplay) Executor() *command.Executor        { return f.exec }
func (f *fakeDisplay) Security() security.Manager         { return f.sec }

func (f *fakeDisplay) IsSelected(s diagram.Shape) bool {
	for _, x := range f.sel {
		if x == s {
			return true
		}
	}
	return false
}

func (f *fakeDisplay) SelectShape(s diagram.Shape, add bool) {
	if !add {
		f.sel = nil
	}
	if !f.IsSelected(s) {
		f.sel = append(f.sel, s)
	}
}

func (f *fakeDisplay) SelectShapes(shapes []diagram.Shape, add bool) {
	if !add {
		f.sel = nil
	}
	for _, s := range shapes {
		f.SelectShape(s, true)
	}
}

func (f *fakeDisplay) UnselectShape(s diagram.Shape) {
	for i, x := range f.sel {
		if x == s {
			f.sel = append(f.sel[:i], f.sel[i+1:]...)
			return
		}
	}
}

func (f *fakeDisplay) ClearSelection() { f.sel = nil }

func (f *fakeDisplay) OpenCaptionEditor(s diagram.Shape, index int, done func(string, bool)) {
	f.editorCalls++
	done(f.editorText, f.editorOK)
}

// recorder collects tool events.
type recorder struct{ events []ExecutedEvent }

func (r *recorder) listen(t Tool) { t.OnExecuted(func(e ExecutedEvent) { r.events = append(r.events, e) }) }

func (r *recorder) last(t *testing.T) ExecutedEvent {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatalf("no tool event raised")
	}
	return r.events[len(r.events)-1]
}

func rect(d *diagram.Diagram, x, y, w, h int) *diagram.PlanarShape {
	s := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(x, y), w, h)
	d.Add(s)
	return s
}

func state(x, y int, b MouseButtons, m KeyModifiers) MouseState {
	return MouseState{Position: geometry.Pt(x, y), Buttons: b, Modifiers: m}
}

func down(x, y int) MouseEventArgs {
	return MouseEventArgs{Kind: MouseDown, State: state(x, y, ButtonLeft, ModNone), Button: ButtonLeft, Clicks: 1}
}

func downN(x, y, clicks int) MouseEventArgs {
	e := down(x, y)
	e.Clicks = clicks
	return e
}

func rightDown(x, y int) MouseEventArgs {
	return MouseEventArgs{Kind: MouseDown, State: state(x, y, ButtonRight, ModNone), Button: ButtonRight, Clicks: 1}
}

func drag(x, y int) MouseEventArgs {
	return MouseEventArgs{Kind: MouseMove, State: state(x, y, ButtonLeft, ModNone)}
}

func hover(x, y int) MouseEventArgs {
	return MouseEventArgs{Kind: MouseMove, State: state(x, y, ButtonNone, ModNone)}
}

func up(x, y int) MouseEventArgs {
	return MouseEventArgs{Kind: MouseUp, State: state(x, y, ButtonNone, ModNone), Button: ButtonLeft, Clicks: 1}
}

// feed sends events and fails on the first error.
func feed(t *testing.T, tl Tool, d Display, events ...MouseEventArgs) {
	t.Helper()
	for _, e := range events {
		if _, err := tl.ProcessMouseEvent(d, e); err != nil {
			t.Fatalf("%v event at %v: %v", e.Kind, e.State.Position, err)
		}
	}
}
