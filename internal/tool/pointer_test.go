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

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/security"
)

func TestClickSelectsShape(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	pt := NewPointerTool(DefaultSettings())
	var rec recorder
	rec.listen(pt)

	feed(t, pt, d, down(110, 110))
	if pt.Mode() != PointerSelect {
		t.Fatalf("mode: got %v want Select", pt.Mode())
	}
	feed(t, pt, d, up(110, 110))
	if !d.IsSelected(r) || len(d.sel) != 1 {
		t.Fatalf("rectangle not selected: %v", d.sel)
	}
	if ev := rec.last(t); ev.Result != Executed || ev.Command != nil {
		t.Fatalf("event: got %+v", ev)
	}
	if pt.IsToolActionPending() {
		t.Fatalf("action still pending")
	}

	feed(t, pt, d, down(500, 500), up(500, 500))
	if len(d.sel) != 0 {
		t.Fatalf("click on empty space should clear the selection")
	}
}

func TestDragMovesShapeThroughPreview(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())

	feed(t, pt, d, down(110, 110), drag(133, 127))
	if pt.Mode() != PointerMoveShape {
		t.Fatalf("mode: got %v want MoveShape", pt.Mode())
	}
	if got := pt.Previews().Preview(r).Location(); got != geometry.Pt(123, 117) {
		t.Fatalf("preview: got %v want (123,117)", got)
	}
	if r.Location() != geometry.Pt(100, 100) {
		t.Fatalf("original moved before commit: %v", r.Location())
	}
	if !pt.WantsAutoScroll() {
		t.Fatalf("moving should request auto-scroll")
	}
	feed(t, pt, d, up(133, 127))
	if r.Location() != geometry.Pt(123, 117) {
		t.Fatalf("after commit: got %v want (123,117)", r.Location())
	}
	if !pt.Previews().IsEmpty() {
		t.Fatalf("previews survived the gesture")
	}
	if err := d.exec.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if r.Location() != geometry.Pt(100, 100) {
		t.Fatalf("after undo: got %v", r.Location())
	}
}

func TestDragBelowThresholdStaysSelect(t *testing.T) {
	d := newFakeDisplay(nil)
	rect(d.d, 100, 100, 40, 40)
	pt := NewPointerTool(DefaultSettings())
	feed(t, pt, d, down(110, 110), drag(111, 111))
	if pt.Mode() != PointerSelect {
		t.Fatalf("mode: got %v want Select", pt.Mode())
	}
}

func TestMoveSnapsToGrid(t *testing.T) {
	d := newFakeDisplay(nil)
	d.grid.Enabled = true
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	// the center lands on (123,117), three units from the corner (120,120)
	feed(t, pt, d, down(110, 110), drag(133, 127), up(133, 127))
	if r.Location() != geometry.Pt(120, 120) {
		t.Fatalf("got %v want (120,120)", r.Location())
	}
}

func TestFrameSelection(t *testing.T) {
	d := newFakeDisplay(nil)
	a := rect(d.d, 100, 100, 40, 40)
	b := rect(d.d, 200, 100, 40, 40)
	rect(d.d, 600, 600, 40, 40)
	pt := NewPointerTool(DefaultSettings())
	feed(t, pt, d, down(10, 10), drag(300, 300))
	if pt.Mode() != PointerSelectWithFrame {
		t.Fatalf("mode: got %v want SelectWithFrame", pt.Mode())
	}
	feed(t, pt, d, up(300, 300))
	if len(d.sel) != 2 || !d.IsSelected(a) || !d.IsSelected(b) {
		t.Fatalf("selection: got %d shapes", len(d.sel))
	}
}

func TestRightButtonCancels(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	var rec recorder
	rec.listen(pt)
	feed(t, pt, d, down(110, 110), drag(150, 150), rightDown(150, 150))
	if pt.IsToolActionPending() || !pt.Previews().IsEmpty() {
		t.Fatalf("cancel left state behind")
	}
	if rec.last(t).Result != Canceled {
		t.Fatalf("want Canceled event")
	}
	if r.Location() != geometry.Pt(100, 100) {
		t.Fatalf("canceled move changed the shape")
	}
	if d.exec.CanUndo() {
		t.Fatalf("canceled gesture reached the history")
	}
}

func TestEscapeCancels(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	feed(t, pt, d, down(110, 110), drag(150, 150))
	if ok, _ := pt.ProcessKeyEvent(d, KeyEventArgs{Kind: KeyDown, Key: KeyEscape}); !ok {
		t.Fatalf("escape not handled")
	}
	if pt.IsToolActionPending() {
		t.Fatalf("escape did not cancel")
	}
}

func TestRotateGesture(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())

	feed(t, pt, d, down(100, 100), drag(100, 110))
	if pt.Mode() != PointerPrepareRotate {
		t.Fatalf("inside the range: got %v want PrepareRotate", pt.Mode())
	}
	feed(t, pt, d, drag(140, 100), drag(100, 140))
	if pt.Mode() != PointerRotate {
		t.Fatalf("outside the range: got %v want Rotate", pt.Mode())
	}
	if got := pt.Previews().Preview(r).(*diagram.PlanarShape).Angle(); got != 900 {
		t.Fatalf("preview angle: got %d want 900", got)
	}
	// back inside: the previews return to the original
	feed(t, pt, d, drag(105, 100))
	if pt.Mode() != PointerPrepareRotate || pt.Previews().Preview(r).(*diagram.PlanarShape).Angle() != 0 {
		t.Fatalf("re-entering the range must reset the rotation")
	}
	feed(t, pt, d, drag(140, 100), drag(100, 140), up(100, 140))
	if r.Angle() != 900 {
		t.Fatalf("angle: got %d want 900", r.Angle())
	}
	if err := d.exec.Undo(); err != nil || r.Angle() != 0 {
		t.Fatalf("undo: angle %d err %v", r.Angle(), err)
	}
}

func TestRotateWithoutSweepEndsGesture(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	var rec recorder
	rec.listen(pt)

	// a click on the rotate grip never leaves the minimum range
	feed(t, pt, d, down(100, 100), up(100, 100))
	if pt.IsToolActionPending() {
		t.Fatalf("click on the rotate grip left a gesture pending")
	}
	if len(rec.events) != 1 {
		t.Fatalf("events: got %d want 1", len(rec.events))
	}
	if e := rec.last(t); e.Result != Executed || e.Command != nil {
		t.Fatalf("event: got %v %v want Executed without command", e.Result, e.Command)
	}
	if d.cursor != CursorDefault {
		t.Fatalf("cursor: got %v want default", d.cursor)
	}

	// rotating out and back to the start angle
	d.cursor = CursorRotate
	feed(t, pt, d, down(100, 100), drag(140, 100), drag(100, 140), drag(140, 100))
	if pt.Mode() != PointerRotate {
		t.Fatalf("mode: got %v want Rotate", pt.Mode())
	}
	feed(t, pt, d, up(140, 100))
	if pt.IsToolActionPending() || len(rec.events) != 2 {
		t.Fatalf("pending %v events %d, want ended with 2 events", pt.IsToolActionPending(), len(rec.events))
	}
	if e := rec.last(t); e.Result != Executed || e.Command != nil {
		t.Fatalf("event: got %v %v want Executed without command", e.Result, e.Command)
	}
	if r.Angle() != 0 || d.exec.CanUndo() {
		t.Fatalf("angle %d undo %v, want unchanged", r.Angle(), d.exec.CanUndo())
	}
	if d.cursor != CursorDefault {
		t.Fatalf("cursor: got %v want default", d.cursor)
	}
}

func TestRotateAlignmentFollowsModifiers(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	// 40 units right, then a point at about 21.8° below
	feed(t, pt, d, down(100, 100), drag(140, 100), drag(150, 120))
	if got := pt.Previews().Preview(r).(*diagram.PlanarShape).Angle(); got != 150 {
		t.Fatalf("no modifier: got %d want 150", got)
	}
	if ok, _ := pt.ProcessKeyEvent(d, KeyEventArgs{Kind: KeyDown, Key: KeyControl, Modifiers: ModCtrl}); !ok {
		t.Fatalf("modifier change not handled while rotating")
	}
	if got := pt.Previews().Preview(r).(*diagram.PlanarShape).Angle(); got != 220 {
		t.Fatalf("ctrl: got %d want 220", got)
	}
}

func TestAlignAngle(t *testing.T) {
	cases := []struct {
		in   int
		mods KeyModifiers
		want int
	}{
		{218, ModNone, 150},
		{218, ModShift, 200},
		{218, ModCtrl, 220},
		{218, ModCtrl | ModShift, 218},
		{3590, ModNone, 0},
		{76, ModNone, 150},
	}
	for _, c := range cases {
		if got := alignAngle(c.in, c.mods); got != c.want {
			t.Fatalf("alignAngle(%d, %v): got %d want %d", c.in, c.mods, got, c.want)
		}
	}
}

func TestQuickRotate(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	var rec recorder
	rec.listen(pt)

	feed(t, pt, d, down(100, 100), up(100, 100), downN(100, 100, 2))
	if r.Angle() != 900 {
		t.Fatalf("double click: got %d want 900", r.Angle())
	}
	if ev := rec.last(t); ev.Result != Executed || ev.Command == nil {
		t.Fatalf("event: got %+v", ev)
	}
	feed(t, pt, d, up(100, 100), downN(100, 100, 5))
	if r.Angle() != 900 {
		t.Fatalf("five clicks make a full turn and must not rotate: got %d", r.Angle())
	}
}

func TestResizeHandle(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	feed(t, pt, d, down(120, 120), drag(140, 130))
	if pt.Mode() != PointerMoveHandle {
		t.Fatalf("mode: got %v want MoveHandle", pt.Mode())
	}
	feed(t, pt, d, up(140, 130))
	if r.Width() != 60 || r.Height() != 50 {
		t.Fatalf("size: got %dx%d want 60x50", r.Width(), r.Height())
	}
}

func TestDraggedGluePointConnects(t *testing.T) {
	d := newFakeDisplay(nil)
	b := rect(d.d, 100, 0, 40, 40)
	l := diagram.NewLinearShape(diagram.LineType, geometry.Pt(0, 0), geometry.Pt(50, 0))
	d.d.Add(l)
	d.SelectShape(l, false)
	pt := NewPointerTool(DefaultSettings())

	feed(t, pt, d, down(50, 0), drag(79, 1))
	if d.cursor != CursorConnect {
		t.Fatalf("cursor: got %v want connect", d.cursor)
	}
	feed(t, pt, d, up(79, 1))
	ci := diagram.GlueConnection(l, diagram.LastVertex)
	if ci.OtherShape != b || ci.OtherPointID != diagram.MiddleLeftPoint {
		t.Fatalf("connection: got %+v", ci)
	}
	if got := l.ControlPointPosition(diagram.LastVertex); got != geometry.Pt(80, 0) {
		t.Fatalf("end: got %v want (80,0)", got)
	}

	// dragging it away again releases the connection
	feed(t, pt, d, down(80, 0), drag(60, 60), up(60, 60))
	if !diagram.GlueConnection(l, diagram.LastVertex).IsEmpty() {
		t.Fatalf("glue point still connected")
	}
}

func TestMoveHandleFeasibility(t *testing.T) {
	d := newFakeDisplay(nil)
	a := rect(d.d, 100, 100, 40, 40)
	e := diagram.NewPlanarShape(diagram.EllipseType, geometry.Pt(300, 100), 40, 40)
	d.d.Add(e)
	l1 := diagram.NewLinearShape(diagram.LineType, geometry.Pt(0, 0), geometry.Pt(50, 0))
	l2 := diagram.NewLinearShape(diagram.LineType, geometry.Pt(0, 50), geometry.Pt(50, 50))
	d.d.Add(l1)
	d.d.Add(l2)

	d.SelectShapes([]diagram.Shape{a, e}, false)
	if IsMoveHandleFeasible(d, a, diagram.BottomRightPoint) {
		t.Fatalf("mixed types must not resize together")
	}
	d.SelectShapes([]diagram.Shape{l1, l2}, false)
	if IsMoveHandleFeasible(d, l1, diagram.LastVertex) {
		t.Fatalf("glue points move alone")
	}
	d.SelectShapes([]diagram.Shape{l1}, false)
	if !IsMoveHandleFeasible(d, l1, diagram.LastVertex) {
		t.Fatalf("single glue point should be movable")
	}
	if IsMoveHandleFeasible(d, a, diagram.ReferencePoint) {
		t.Fatalf("reference point is no handle")
	}
}

func TestConnectedLineNeedsBothPartners(t *testing.T) {
	d := newFakeDisplay(nil)
	a := rect(d.d, 100, 100, 40, 40)
	b := rect(d.d, 300, 100, 40, 40)
	l := diagram.NewLinearShape(diagram.LineType, geometry.Pt(0, 0), geometry.Pt(1, 1))
	d.d.Add(l)
	if err := diagram.Connect(l, diagram.FirstVertex, a, diagram.MiddleRightPoint); err != nil {
		t.Fatal(err)
	}
	if err := diagram.Connect(l, diagram.LastVertex, b, diagram.MiddleLeftPoint); err != nil {
		t.Fatal(err)
	}
	p := geometry.Pt(200, 100)
	if IsMoveShapeFeasible(d, l, []diagram.Shape{a, l}, p) {
		t.Fatalf("line with one partner outside the selection must not move")
	}
	if !IsMoveShapeFeasible(d, l, []diagram.Shape{a, b, l}, p) {
		t.Fatalf("line with both partners selected should move")
	}
	if IsMoveShapeFeasible(d, l, []diagram.Shape{a, b, l}, geometry.Pt(200, 150)) {
		t.Fatalf("a point off the stroke does not grab the line")
	}

	// dragging the line itself falls back to a frame selection
	pt := NewPointerTool(DefaultSettings())
	feed(t, pt, d, down(200, 100), drag(220, 120))
	if pt.Mode() != PointerSelectWithFrame {
		t.Fatalf("mode: got %v want SelectWithFrame", pt.Mode())
	}
}

func TestLayoutDenialBlocksMove(t *testing.T) {
	sec := security.NewRoleManager(security.Operator)
	d := newFakeDisplay(sec)
	r := rect(d.d, 100, 100, 40, 40)
	if IsMoveShapeFeasible(d, r, []diagram.Shape{r}, geometry.Pt(110, 110)) {
		t.Fatalf("operator must not move shapes")
	}
	sec.SetRole(security.Designer)
	sec.Deny(r, security.Layout)
	if IsMoveShapeFeasible(d, r, []diagram.Shape{r}, geometry.Pt(110, 110)) {
		t.Fatalf("per-shape denial ignored")
	}
}

func TestPerformSelectionChildren(t *testing.T) {
	d := newFakeDisplay(nil)
	c1 := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(0, 0), 20, 20)
	c2 := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(40, 0), 20, 20)
	g := diagram.NewGroup(c1, c2)
	d.d.Add(g)
	pt := NewPointerTool(DefaultSettings())

	d.SelectShape(g, false)
	pt.PerformSelection(d, state(40, 0, ButtonLeft, ModNone))
	if len(d.sel) != 1 || d.sel[0] != g {
		t.Fatalf("without child selection the group stays selected")
	}

	g.ChildSelection = true
	pt.PerformSelection(d, state(40, 0, ButtonLeft, ModNone))
	if len(d.sel) != 1 || d.sel[0] != c2 {
		t.Fatalf("drill-down: got %v", d.sel)
	}
	pt.PerformSelection(d, state(0, 0, ButtonLeft, ModNone))
	if len(d.sel) != 1 || d.sel[0] != c1 {
		t.Fatalf("sibling: got %v", d.sel)
	}
}

func TestPerformSelectionCyclesAndToggles(t *testing.T) {
	d := newFakeDisplay(nil)
	back := rect(d.d, 100, 100, 40, 40)
	front := rect(d.d, 110, 110, 40, 40)
	pt := NewPointerTool(DefaultSettings())
	p := state(115, 115, ButtonLeft, ModNone)

	pt.PerformSelection(d, p)
	if d.sel[0] != front {
		t.Fatalf("first click selects the front-most shape")
	}
	pt.PerformSelection(d, p)
	if len(d.sel) != 1 || d.sel[0] != back {
		t.Fatalf("second click selects the shape below")
	}

	multi := state(115, 115, ButtonLeft, ModCtrl)
	pt.PerformSelection(d, multi)
	if len(d.sel) != 2 {
		t.Fatalf("ctrl click adds: got %d", len(d.sel))
	}
	pt.PerformSelection(d, multi)
	if len(d.sel) != 1 || d.sel[0] != back {
		t.Fatalf("ctrl click toggles: got %v", d.sel)
	}
}

func TestEditCaption(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	if err := r.SetCaptionText(0, "Hello"); err != nil {
		t.Fatal(err)
	}
	d.SelectShape(r, false)
	d.editorText, d.editorOK = "World", true
	pt := NewPointerTool(DefaultSettings())

	feed(t, pt, d, down(115, 105))
	if pt.Mode() != PointerEditCaption {
		t.Fatalf("mode: got %v want EditCaption", pt.Mode())
	}
	feed(t, pt, d, up(115, 105))
	if d.editorCalls != 1 || r.CaptionText(0) != "World" {
		t.Fatalf("caption: got %q after %d editor calls", r.CaptionText(0), d.editorCalls)
	}
	if err := d.exec.Undo(); err != nil || r.CaptionText(0) != "Hello" {
		t.Fatalf("undo caption: %q %v", r.CaptionText(0), err)
	}

	d.editorOK = false
	if ok, _ := pt.ProcessKeyEvent(d, KeyEventArgs{Kind: KeyDown, Key: KeyF2}); !ok {
		t.Fatalf("F2 not handled")
	}
	if r.CaptionText(0) != "Hello" {
		t.Fatalf("dismissed editor changed the caption")
	}
}

func TestDeleteKey(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	d.SelectShape(r, false)
	pt := NewPointerTool(DefaultSettings())
	ok, err := pt.ProcessKeyEvent(d, KeyEventArgs{Kind: KeyDown, Key: KeyDelete})
	if !ok || err != nil {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if d.d.Len() != 0 || len(d.sel) != 0 {
		t.Fatalf("shape not deleted")
	}
	if err := d.exec.Undo(); err != nil || !d.d.Contains(r) {
		t.Fatalf("undo delete: %v", err)
	}
}

func TestHoverCursor(t *testing.T) {
	d := newFakeDisplay(nil)
	r := rect(d.d, 100, 100, 40, 40)
	pt := NewPointerTool(DefaultSettings())
	feed(t, pt, d, hover(110, 110))
	if d.cursor != CursorMoveShape {
		t.Fatalf("over a shape: got %v", d.cursor)
	}
	d.SelectShape(r, false)
	feed(t, pt, d, hover(100, 100))
	if d.cursor != CursorRotate {
		t.Fatalf("over the rotate grip: got %v", d.cursor)
	}
	feed(t, pt, d, hover(500, 500))
	if d.cursor != CursorDefault {
		t.Fatalf("over nothing: got %v", d.cursor)
	}
}

func TestActionStackPanicsWhenEmpty(t *testing.T) {
	var s actionStack[PointerMode]
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	s.current()
}
