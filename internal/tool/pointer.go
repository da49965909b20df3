/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

import (
	"fmt"
	"log/slog"

	"godiagram/internal/command"
	"godiagram/internal/connect"
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/preview"
	"godiagram/internal/security"
	"godiagram/internal/snap"
)

// PointerMode is a phase of a pointer tool gesture.
type PointerMode uint8

const (
	PointerNone PointerMode = iota
	PointerSelect
	PointerSelectWithFrame
	PointerEditCaption
	PointerMoveShape
	PointerMoveHandle
	PointerPrepareRotate
	PointerRotate
)

func (m PointerMode) String() string {
	switch m {
	case PointerNone:
		return "None"
	case PointerSelect:
		return "Select"
	case PointerSelectWithFrame:
		return "SelectWithFrame"
	case PointerEditCaption:
		return "EditCaption"
	case PointerMoveShape:
		return "MoveShape"
	case PointerMoveHandle:
		return "MoveHandle"
	case PointerPrepareRotate:
		return "PrepareRotate"
	case PointerRotate:
		return "Rotate"
	}
	return fmt.Sprintf("PointerMode(%d)", uint8(m))
}

// ShapeAtCursor describes what lies under the pointer.
type ShapeAtCursor struct {
	Shape        diagram.Shape
	PointID      diagram.ControlPointID
	CaptionIndex int
}

var EmptyShapeAtCursor = ShapeAtCursor{PointID: diagram.NoPoint, CaptionIndex: -1}

func (i ShapeAtCursor) IsEmpty() bool { return i.Shape == nil }

// IsOnGrip reports a hit on a named control point.
func (i ShapeAtCursor) IsOnGrip() bool {
	return i.Shape != nil && i.PointID != diagram.NoPoint && i.PointID != diagram.ReferencePoint
}

func (i ShapeAtCursor) IsOnCaption() bool { return i.Shape != nil && i.CaptionIndex >= 0 }

const gripCaps = diagram.CapResize | diagram.CapGlue | diagram.CapRotate

// PointerTool selects, moves, resizes, rotates and connects shapes.
type PointerTool struct {
	toolBase

	actions  actionStack[PointerMode]
	previews *preview.Manager
	disp     Display

	atCursor  ShapeAtCursor
	lastMouse MouseState

	frame geometry.Rect
	// pivot of a rotation and the sweep of the current frame
	pivot geometry.Point
	sweep int
	// delta of the current move and the connection target of a dragged glue point
	dx, dy int
	mods   diagram.ResizeModifiers
	target snap.Target
}

func NewPointerTool(settings Settings) *PointerTool {
	t := &PointerTool{atCursor: EmptyShapeAtCursor, target: snap.NoTarget}
	t.toolBase = newToolBase(t, "Pointer", settings)
	t.previews = preview.NewManager(func(s diagram.Shape) {
		if t.disp != nil {
			t.disp.Invalidate(s.Bounds().Inflate(gripRadius(t.disp, t.settings)))
		}
	})
	return t
}

// Mode returns the phase of the pending gesture or PointerNone.
func (t *PointerTool) Mode() PointerMode { return t.actions.mode() }

func (t *PointerTool) IsToolActionPending() bool { return !t.actions.isEmpty() }

func (t *PointerTool) WantsAutoScroll() bool {
	return !t.actions.isEmpty() && t.actions.current().wantsAutoScroll
}

// Previews exposes the preview shapes of the pending gesture.
func (t *PointerTool) Previews() *preview.Manager { return t.previews }

func (t *PointerTool) EnterDisplay(d Display) { t.disp = d }
func (t *PointerTool) LeaveDisplay(Display)   {}

func (t *PointerTool) startAction(d Display, m PointerMode, mouse MouseState, autoScroll bool) {
	t.disp = d
	t.actions.push(action[PointerMode]{display: d, mode: m, mouse: mouse, wantsAutoScroll: autoScroll})
	t.log.Debug("gesture started", slog.String("mode", m.String()))
}

// endAction pops the current phase; the previews go with the last one.
func (t *PointerTool) endAction() {
	a := t.actions.pop()
	t.Invalidate(a.display)
	if t.actions.isEmpty() {
		t.previews.Clear()
		t.atCursor = EmptyShapeAtCursor
		t.frame = geometry.Rect{}
		t.sweep, t.dx, t.dy, t.mods = 0, 0, 0, diagram.ResizeNone
		t.target = snap.NoTarget
	}
}

func (t *PointerTool) endAll() {
	for !t.actions.isEmpty() {
		t.endAction()
	}
}

// Cancel unwinds the pending gesture without issuing a command.
func (t *PointerTool) Cancel() {
	if t.actions.isEmpty() {
		return
	}
	d := t.actions.current().display
	t.log.Debug("gesture canceled", slog.String("mode", t.actions.mode().String()))
	t.endAll()
	d.SetCursor(CursorDefault)
	t.emit(Canceled, nil)
}

// commit executes c, which may be nil for selection-only gestures, and ends
// the gesture. A failing command cancels the gesture.
func (t *PointerTool) commit(d Display, c command.Command) error {
	if c != nil {
		if err := execute(d, c); err != nil {
			t.log.Debug("commit failed", slog.String("command", c.Description()), slog.Any("err", err))
			t.Cancel()
			return err
		}
		t.log.Debug("gesture committed", slog.String("command", c.Description()))
	}
	t.endAll()
	t.emit(Executed, c)
	return nil
}

func (t *PointerTool) ProcessMouseEvent(d Display, e MouseEventArgs) (bool, error) {
	t.disp = d
	t.lastMouse = e.State
	switch e.Kind {
	case MouseDown:
		if e.Button == ButtonRight {
			if t.actions.isEmpty() {
				return false, nil
			}
			t.Cancel()
			return true, nil
		}
		if e.Button != ButtonLeft || !t.actions.isEmpty() {
			return false, nil
		}
		return t.mouseDown(d, e)
	case MouseMove:
		if t.actions.isEmpty() {
			t.updateCursor(d, e.State)
			return false, nil
		}
		t.mouseMove(d, e.State)
		return true, nil
	case MouseUp:
		if e.Button != ButtonLeft || t.actions.isEmpty() {
			return false, nil
		}
		return true, t.mouseUp(d, e.State)
	}
	return false, nil
}

func (t *PointerTool) mouseDown(d Display, e MouseEventArgs) (bool, error) {
	p := e.State.Position
	sel := d.SelectedShapes()
	if grip := t.findGrip(d, p); grip.IsOnGrip() {
		if grip.Shape.HasControlPointCapability(grip.PointID, diagram.CapRotate) {
			if !granted(d, security.Layout, sel...) {
				d.SetCursor(CursorNotAllowed)
				return true, nil
			}
			pivot := grip.Shape.ControlPointPosition(grip.PointID)
			if e.Clicks >= 2 && t.settings.EnableQuickRotate {
				return true, t.quickRotate(d, pivot, e.Clicks)
			}
			t.atCursor, t.pivot = grip, pivot
			t.startAction(d, PointerPrepareRotate, e.State, false)
			t.previews.CreatePreviewShapes(sel, nil, diagram.NoPoint)
			d.SetCursor(CursorRotate)
			return true, nil
		}
		if IsMoveHandleFeasible(d, grip.Shape, grip.PointID) {
			t.atCursor = grip
			t.startAction(d, PointerMoveHandle, e.State, true)
			t.previews.CreatePreviewShapes(sel, grip.Shape, grip.PointID)
			d.SetCursor(CursorMoveHandle)
			return true, nil
		}
	}
	if c := t.findCaption(d, p); c.IsOnCaption() && !e.State.multiSelect() && granted(d, security.ModifyData, c.Shape) {
		t.atCursor = c
		t.startAction(d, PointerEditCaption, e.State, false)
		return true, nil
	}
	t.atCursor = EmptyShapeAtCursor
	if s := t.movableShapeAt(d, p); s != nil {
		t.atCursor = ShapeAtCursor{Shape: s, PointID: diagram.ReferencePoint, CaptionIndex: -1}
	}
	t.startAction(d, PointerSelect, e.State, false)
	return true, nil
}

// quickRotate turns the selection by a quarter per extra click.
func (t *PointerTool) quickRotate(d Display, pivot geometry.Point, clicks int) error {
	angle := (900 * (clicks - 1)) % geometry.FullCircle
	if angle == 0 {
		return nil
	}
	c := command.NewRotateShapes(d.SelectedShapes(), angle, pivot)
	if err := execute(d, c); err != nil {
		return err
	}
	t.emit(Executed, c)
	return nil
}

func (t *PointerTool) mouseMove(d Display, st MouseState) {
	a := t.actions.current()
	switch a.mode {
	case PointerSelect, PointerEditCaption:
		t.dragFromSelect(d, a, st)
	case PointerSelectWithFrame:
		d.Invalidate(t.frame)
		t.frame = geometry.RectFromPoints(a.mouse.Position, st.Position)
		d.Invalidate(t.frame)
	case PointerMoveShape:
		t.moveShapes(d, a, st)
	case PointerMoveHandle:
		t.moveHandle(d, a, st)
	case PointerPrepareRotate:
		if t.outsideRotateRange(d, st.Position) {
			t.startAction(d, PointerRotate, st, false)
		}
	case PointerRotate:
		if !t.outsideRotateRange(d, st.Position) {
			t.endAction()
			t.invalidatePreviews(d)
			t.previews.Reset()
			t.sweep = 0
			return
		}
		t.rotate(d, a, st)
	default:
		panic(fmt.Errorf("tool: unexpected pointer mode %v", a.mode))
	}
}

func (t *PointerTool) outsideRotateRange(d Display, p geometry.Point) bool {
	return geometry.Distance(t.pivot, p) >= float64(d.ScreenToDiagramDistance(t.settings.MinRotateRange))
}

// dragFromSelect turns a pressed Select or EditCaption into a move, or a
// Select into a frame selection, once the pointer passed the drag threshold.
func (t *PointerTool) dragFromSelect(d Display, a action[PointerMode], st MouseState) {
	if !st.IsButtonDown(ButtonLeft) {
		return
	}
	if geometry.Distance(a.mouse.Position, st.Position) <= float64(d.ScreenToDiagramDistance(t.settings.DragThreshold)) {
		return
	}
	s := t.movableShapeAt(d, a.mouse.Position)
	if s != nil {
		sel := candidateSelection(d, s, a.mouse.multiSelect())
		if IsMoveShapeFeasible(d, s, sel, a.mouse.Position) {
			if !d.IsSelected(s) {
				d.SelectShape(s, a.mouse.multiSelect())
			}
			t.endAction()
			t.atCursor = ShapeAtCursor{Shape: s, PointID: diagram.ReferencePoint, CaptionIndex: -1}
			t.startAction(d, PointerMoveShape, a.mouse, true)
			t.previews.CreatePreviewShapes(d.SelectedShapes(), nil, diagram.NoPoint)
			d.SetCursor(CursorMoveShape)
			t.moveShapes(d, t.actions.current(), st)
			return
		}
	}
	if a.mode == PointerEditCaption {
		return
	}
	t.endAction()
	t.startAction(d, PointerSelectWithFrame, a.mouse, true)
	t.frame = geometry.RectFromPoints(a.mouse.Position, st.Position)
	d.Invalidate(t.frame)
}

func (t *PointerTool) moveShapes(d Display, a action[PointerMode], st MouseState) {
	delta := st.Position.Sub(a.mouse.Position)
	dx, dy := delta.X, delta.Y
	if r := d.Grid().FindNearestSnapPointForShape(t.atCursor.Shape, dx, dy); r.Snapped() {
		dx += r.DX
		dy += r.DY
	}
	t.invalidatePreviews(d)
	t.previews.Reset()
	diagram.MoveShapesBy(t.previews.PreviewsOf(d.SelectedShapes()), dx, dy)
	t.dx, t.dy = dx, dy
	t.invalidatePreviews(d)
}

func resizeModifiers(m KeyModifiers) diagram.ResizeModifiers {
	mods := diagram.ResizeNone
	if m&ModShift != 0 {
		mods |= diagram.MaintainAspect
	}
	if m&ModCtrl != 0 {
		mods |= diagram.MirroredResize
	}
	return mods
}

func (t *PointerTool) moveHandle(d Display, a action[PointerMode], st MouseState) {
	s, id := t.atCursor.Shape, t.atCursor.PointID
	delta := st.Position.Sub(a.mouse.Position)
	dx, dy := delta.X, delta.Y
	t.target = snap.NoTarget
	if s.HasControlPointCapability(id, diagram.CapGlue) && granted(d, security.Connect, s) {
		pv := t.previews.Preview(s)
		f := connectionFinder(d, t.settings, func(x diagram.Shape) bool { return x == s })
		tgt := f.FindConnectionTarget(pv, id, s.ControlPointPosition(id).Add(dx, dy))
		if !tgt.IsEmpty() {
			dx += tgt.DX
			dy += tgt.DY
		}
		if tgt.IsShape() {
			t.target = tgt
		}
	} else if r := d.Grid().FindNearestSnapPointForControlPoint(s, id, dx, dy); r.Snapped() {
		dx += r.DX
		dy += r.DY
	}
	t.mods = resizeModifiers(st.Modifiers)
	t.invalidatePreviews(d)
	t.previews.Reset()
	diagram.MoveControlPoints(t.previews.PreviewsOf(d.SelectedShapes()), id, dx, dy, t.mods)
	t.dx, t.dy = dx, dy
	t.invalidatePreviews(d)
	if t.target.IsShape() {
		d.SetCursor(CursorConnect)
	} else {
		d.SetCursor(CursorMoveHandle)
	}
}

// alignAngle rounds a sweep by modifier: Ctrl+Shift keeps tenths, Ctrl
// rounds to degrees, Shift to 5° and no modifier to 15°.
func alignAngle(tenths int, m KeyModifiers) int {
	step := 150
	switch {
	case m&ModCtrl != 0 && m&ModShift != 0:
		step = 1
	case m&ModCtrl != 0:
		step = 10
	case m&ModShift != 0:
		step = 50
	}
	return geometry.NormalizeAngle(geometry.RoundToMultiple(tenths, step))
}

func (t *PointerTool) rotate(d Display, a action[PointerMode], st MouseState) {
	sweep := alignAngle(geometry.SweepAngle(t.pivot, a.mouse.Position, st.Position), st.Modifiers)
	t.invalidatePreviews(d)
	// previews restart from the originals so rounding never accumulates
	t.previews.Reset()
	if sweep != 0 {
		diagram.RotateShapes(t.previews.PreviewsOf(d.SelectedShapes()), sweep, t.pivot)
	}
	t.sweep = sweep
	t.invalidatePreviews(d)
}

func (t *PointerTool) mouseUp(d Display, st MouseState) error {
	a := t.actions.current()
	switch a.mode {
	case PointerSelect:
		t.PerformSelection(d, a.mouse)
		return t.commit(d, nil)
	case PointerSelectWithFrame:
		shapes := d.Diagram().FindShapesInRect(t.frame, true)
		if !a.mouse.multiSelect() {
			d.ClearSelection()
		}
		d.SelectShapes(shapes, true)
		return t.commit(d, nil)
	case PointerEditCaption:
		s, idx := t.atCursor.Shape, t.atCursor.CaptionIndex
		t.endAll()
		t.editCaption(d, s, idx)
		return nil
	case PointerMoveShape:
		if t.dx == 0 && t.dy == 0 {
			return t.commit(d, nil)
		}
		return t.commit(d, t.moveShapesCommand(d))
	case PointerMoveHandle:
		if t.dx == 0 && t.dy == 0 && !t.target.IsShape() {
			return t.commit(d, nil)
		}
		return t.commit(d, t.moveHandleCommand(d))
	case PointerPrepareRotate:
		return t.commitUnrotated(d)
	case PointerRotate:
		if t.sweep == 0 {
			return t.commitUnrotated(d)
		}
		return t.commit(d, command.NewRotateShapes(d.SelectedShapes(), t.sweep, t.pivot))
	}
	panic(fmt.Errorf("tool: unexpected pointer mode %v", a.mode))
}

// commitUnrotated ends a rotate gesture that left the angle unchanged.
func (t *PointerTool) commitUnrotated(d Display) error {
	err := t.commit(d, nil)
	d.SetCursor(CursorDefault)
	return err
}

// moveShapesCommand releases moved glue points, moves the selection and
// glues the moved points to the targets found at their new positions.
func (t *PointerTool) moveShapesCommand(d Display) command.Command {
	sel := d.SelectedShapes()
	agg := command.NewAggregated(fmt.Sprintf("move %d shape(s)", len(sel)))
	for _, c := range connect.DisconnectGluePoints(sel, t.previews.Preview) {
		agg.Add(c)
	}
	agg.Add(command.NewMoveShapes(sel, t.dx, t.dy))
	if granted(d, security.Connect, sel...) {
		for _, c := range connect.ConnectGluePoints(connectionFinder(d, t.settings, nil), sel, t.previews.Preview) {
			agg.Add(c)
		}
	}
	return agg
}

func (t *PointerTool) moveHandleCommand(d Display) command.Command {
	s, id := t.atCursor.Shape, t.atCursor.PointID
	agg := command.NewAggregated("move control point")
	glue := s.HasControlPointCapability(id, diagram.CapGlue)
	if glue {
		if c, ok := command.NewDisconnect(s, id); ok {
			agg.Add(c)
		}
	}
	agg.Add(command.NewMoveControlPoint(d.SelectedShapes(), id, t.dx, t.dy, t.mods))
	if glue && t.target.IsShape() {
		agg.Add(command.NewConnect(s, id, t.target.Shape, t.target.PointID))
	}
	return agg
}

func (t *PointerTool) editCaption(d Display, s diagram.Shape, idx int) {
	d.OpenCaptionEditor(s, idx, func(text string, ok bool) {
		if !ok || text == s.CaptionText(idx) {
			t.emit(Canceled, nil)
			return
		}
		c := command.NewSetCaptionText(s, idx, text)
		if err := execute(d, c); err != nil {
			t.log.Warn("caption not changed", slog.Any("err", err))
			t.emit(Canceled, nil)
			return
		}
		t.emit(Executed, c)
	})
}

// PerformSelection applies a click at st to the selection of d.
func (t *PointerTool) PerformSelection(d Display, st MouseState) {
	multi := st.multiSelect()
	target := selectionTarget(d, st.Position, multi)
	if target == nil {
		if !multi {
			d.ClearSelection()
		}
		return
	}
	target = effectiveSelectionTarget(target)
	switch {
	case !multi:
		d.SelectShape(target, false)
	case d.IsSelected(target):
		d.UnselectShape(target)
	default:
		d.SelectShape(target, true)
	}
}

// selectionTarget finds the shape a click at p selects: a child of a
// selected group, a sibling of a selected child, the shape below the
// selected one, or the front-most shape.
func selectionTarget(d Display, p geometry.Point, multi bool) diagram.Shape {
	if !multi {
		for _, s := range d.SelectedShapes() {
			if g, ok := s.(*diagram.GroupShape); ok && g.ChildSelection {
				if hits := g.FindChildren(p, diagram.CapNone, 0); len(hits) > 0 {
					return hits[0]
				}
			}
			if g, ok := s.Parent().(*diagram.GroupShape); ok {
				switch hits := g.FindChildren(p, diagram.CapNone, 0); {
				case len(hits) == 0:
				case hits[0] != s:
					return hits[0]
				case len(hits) > 1:
					return hits[1]
				default:
					return s
				}
			}
		}
	}
	hits := d.Diagram().FindShapes(p, diagram.CapNone, 0)
	if len(hits) == 0 {
		return nil
	}
	if !multi {
		for i, s := range hits {
			if d.IsSelected(s) {
				return hits[(i+1)%len(hits)]
			}
		}
	}
	return hits[0]
}

// effectiveSelectionTarget maps a child to the outermost group that does
// not allow child selection.
func effectiveSelectionTarget(s diagram.Shape) diagram.Shape {
	out := s
	for cur := s; cur.Parent() != nil; cur = cur.Parent() {
		if g, ok := cur.Parent().(*diagram.GroupShape); ok && !g.ChildSelection {
			out = g
		}
	}
	return out
}

// candidateSelection is the selection a drag of s would move.
func candidateSelection(d Display, s diagram.Shape, multi bool) []diagram.Shape {
	sel := d.SelectedShapes()
	switch {
	case d.IsSelected(s):
		return sel
	case multi:
		return append(sel, s)
	}
	return []diagram.Shape{s}
}

// IsMoveShapeFeasible reports whether s can be dragged from p together with
// selection. A linear shape glued at every end moves only with all of its
// partners.
func IsMoveShapeFeasible(d Display, s diagram.Shape, selection []diagram.Shape, p geometry.Point) bool {
	if s == nil || !s.ContainsPoint(p) {
		return false
	}
	if !granted(d, security.Layout, s) || !granted(d, security.Layout, selection...) {
		return false
	}
	for _, x := range selection {
		if _, ok := x.(*diagram.LinearShape); !ok {
			continue
		}
		gps := x.ControlPointIDs(diagram.CapGlue)
		var partners []diagram.Shape
		for _, gp := range gps {
			if ci := diagram.GlueConnection(x, gp); !ci.IsEmpty() {
				partners = append(partners, ci.OtherShape)
			}
		}
		if len(gps) == 0 || len(partners) < len(gps) {
			continue
		}
		for _, o := range partners {
			if !connect.InSelection(selection, o) {
				return false
			}
		}
	}
	return true
}

// IsMoveHandleFeasible reports whether control point id of s may be dragged
// with the current selection. Glue points move alone and resizing needs a
// selection of one shape type.
func IsMoveHandleFeasible(d Display, s diagram.Shape, id diagram.ControlPointID) bool {
	if s == nil || !s.HasControlPointCapability(id, diagram.CapResize|diagram.CapGlue) {
		return false
	}
	sel := d.SelectedShapes()
	if !granted(d, security.Layout, sel...) || !granted(d, security.Layout, s) {
		return false
	}
	if len(sel) > 1 {
		for _, x := range sel {
			if x.HasControlPointCapability(id, diagram.CapGlue) || x.Type().Name != s.Type().Name {
				return false
			}
		}
	}
	return true
}

// findGrip searches the control points of the selected shapes, front-most first.
func (t *PointerTool) findGrip(d Display, p geometry.Point) ShapeAtCursor {
	r := gripRadius(d, t.settings)
	sel := d.SelectedShapes()
	for i := len(sel) - 1; i >= 0; i-- {
		s := sel[i]
		if id := s.HitTest(p, gripCaps, r); id != diagram.NoPoint && id != diagram.ReferencePoint {
			return ShapeAtCursor{Shape: s, PointID: id, CaptionIndex: -1}
		}
	}
	return EmptyShapeAtCursor
}

// findCaption returns the caption of a selected shape under p.
func (t *PointerTool) findCaption(d Display, p geometry.Point) ShapeAtCursor {
	for _, s := range d.SelectedShapes() {
		if idx := s.CaptionIndexAt(p); idx >= 0 {
			return ShapeAtCursor{Shape: s, PointID: diagram.ReferencePoint, CaptionIndex: idx}
		}
	}
	return EmptyShapeAtCursor
}

// movableShapeAt returns the front-most shape under p, or the selected child
// of it when one contains p.
func (t *PointerTool) movableShapeAt(d Display, p geometry.Point) diagram.Shape {
	top := d.Diagram().FindShape(p, diagram.CapNone, 0)
	if top == nil {
		return nil
	}
	for _, s := range d.SelectedShapes() {
		if s != top && diagram.TopLevel(s) == top && s.ContainsPoint(p) {
			return s
		}
	}
	return top
}

func (t *PointerTool) updateCursor(d Display, st MouseState) {
	p := st.Position
	if grip := t.findGrip(d, p); grip.IsOnGrip() {
		switch {
		case grip.Shape.HasControlPointCapability(grip.PointID, diagram.CapRotate):
			if granted(d, security.Layout, d.SelectedShapes()...) {
				d.SetCursor(CursorRotate)
			} else {
				d.SetCursor(CursorNotAllowed)
			}
		case IsMoveHandleFeasible(d, grip.Shape, grip.PointID):
			d.SetCursor(CursorMoveHandle)
		default:
			d.SetCursor(CursorNotAllowed)
		}
		return
	}
	if c := t.findCaption(d, p); c.IsOnCaption() && granted(d, security.ModifyData, c.Shape) {
		d.SetCursor(CursorEditCaption)
		return
	}
	if s := t.movableShapeAt(d, p); s != nil && IsMoveShapeFeasible(d, s, candidateSelection(d, s, st.multiSelect()), p) {
		d.SetCursor(CursorMoveShape)
		return
	}
	d.SetCursor(CursorDefault)
}

func (t *PointerTool) ProcessKeyEvent(d Display, e KeyEventArgs) (bool, error) {
	t.disp = d
	switch e.Key {
	case KeyShift, KeyControl, KeyAlt:
		return t.modifiersChanged(d, e.Modifiers), nil
	}
	if e.Kind != KeyDown {
		return false, nil
	}
	switch e.Key {
	case KeyEscape:
		if t.actions.isEmpty() {
			return false, nil
		}
		t.Cancel()
		return true, nil
	case KeyDelete:
		if !t.actions.isEmpty() {
			return false, nil
		}
		return t.deleteSelection(d)
	case KeyF2:
		sel := d.SelectedShapes()
		if !t.actions.isEmpty() || len(sel) != 1 || sel[0].CaptionCount() == 0 || !granted(d, security.ModifyData, sel[0]) {
			return false, nil
		}
		t.editCaption(d, sel[0], 0)
		return true, nil
	}
	return false, nil
}

// modifiersChanged re-evaluates a rotation or resize with the new modifiers.
func (t *PointerTool) modifiersChanged(d Display, m KeyModifiers) bool {
	if t.actions.isEmpty() {
		return false
	}
	st := t.lastMouse
	st.Modifiers = m
	t.lastMouse = st
	a := t.actions.current()
	switch a.mode {
	case PointerRotate:
		t.rotate(d, a, st)
	case PointerMoveHandle:
		t.moveHandle(d, a, st)
	default:
		return false
	}
	return true
}

func (t *PointerTool) deleteSelection(d Display) (bool, error) {
	var shapes []diagram.Shape
	for _, s := range d.SelectedShapes() {
		if s.Parent() == nil {
			shapes = append(shapes, s)
		}
	}
	if len(shapes) == 0 || !granted(d, security.Delete, shapes...) {
		return false, nil
	}
	c := command.NewDeleteShapes(d.Diagram(), shapes...)
	if err := execute(d, c); err != nil {
		return true, err
	}
	d.ClearSelection()
	t.emit(Executed, c)
	return true, nil
}

func (t *PointerTool) invalidatePreviews(d Display) {
	invalidateShapes(d, gripRadius(d, t.settings), t.previews.Previews()...)
}

// Invalidate requests a redraw of everything the tool paints.
func (t *PointerTool) Invalidate(d Display) {
	if d == nil {
		return
	}
	m := gripRadius(d, t.settings)
	invalidateShapes(d, m, d.SelectedShapes()...)
	t.invalidatePreviews(d)
	if !t.frame.IsEmpty() {
		d.Invalidate(t.frame)
	}
	if t.Mode() == PointerPrepareRotate || t.Mode() == PointerRotate {
		r := max(d.ScreenToDiagramDistance(t.settings.MinRotateRange), int(geometry.Distance(t.pivot, t.lastMouse.Position)))
		d.Invalidate(geometry.R(t.pivot.X-r, t.pivot.Y-r, 2*r, 2*r).Inflate(m))
	}
}

func (t *PointerTool) Draw(c Canvas) {
	d := t.disp
	if d == nil {
		return
	}
	switch t.Mode() {
	case PointerNone, PointerSelect, PointerEditCaption:
		t.drawGrips(c, d)
	case PointerSelectWithFrame:
		t.drawGrips(c, d)
		c.DrawFrame(t.frame)
	case PointerMoveShape:
		t.drawPreviews(c)
	case PointerMoveHandle:
		t.drawPreviews(c)
		if t.target.IsShape() {
			pv := t.previews.Preview(t.atCursor.Shape)
			c.DrawConnectionTarget(pv.ControlPointPosition(t.atCursor.PointID))
		}
	case PointerPrepareRotate:
		t.drawGrips(c, d)
		c.DrawRotateHint(t.pivot, d.ScreenToDiagramDistance(t.settings.MinRotateRange), 0)
	case PointerRotate:
		t.drawPreviews(c)
		c.DrawRotateHint(t.pivot, int(geometry.Distance(t.pivot, t.lastMouse.Position)), t.sweep)
	}
}

func (t *PointerTool) drawPreviews(c Canvas) {
	for _, p := range t.previews.Previews() {
		c.DrawShape(p, diagram.PreviewStyle(p.Style()))
	}
}

func (t *PointerTool) drawGrips(c Canvas, d Display) {
	size := t.settings.GripSize
	for _, s := range d.SelectedShapes() {
		for _, id := range s.ControlPointIDs(gripCaps) {
			kind := GripResize
			switch {
			case s.HasControlPointCapability(id, diagram.CapRotate):
				kind = GripRotate
			case s.HasControlPointCapability(id, diagram.CapGlue):
				kind = GripGlue
				if !diagram.GlueConnection(s, id).IsEmpty() {
					kind = GripConnected
				}
			}
			c.DrawGrip(s.ControlPointPosition(id), kind, size)
		}
	}
}
