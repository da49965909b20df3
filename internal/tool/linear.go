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
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/library"
	"godiagram/internal/security"
	"godiagram/internal/snap"
)

// LinearMode is a phase of the linear shape creation tool. DrawLine and
// MovePoint are reserved and reaching them is a bug.
type LinearMode uint8

const (
	LinearNone LinearMode = iota
	LinearAddPoint
	LinearDrawLine
	LinearMovePoint
)

func (m LinearMode) String() string {
	switch m {
	case LinearNone:
		return "None"
	case LinearAddPoint:
		return "AddPoint"
	case LinearDrawLine:
		return "DrawLine"
	case LinearMovePoint:
		return "MovePoint"
	}
	return fmt.Sprintf("LinearMode(%d)", uint8(m))
}

// LinearShapeCreationTool draws lines and polylines point by point. The last
// vertex of the preview floats with the pointer.
type LinearShapeCreationTool struct {
	toolBase

	template *library.Template
	actions  actionStack[LinearMode]
	disp     Display

	preview *diagram.LinearShape
	// connection target under the floating vertex
	target   snap.Target
	ignoreUp bool
}

func NewLinearShapeCreationTool(tmpl *library.Template, settings Settings) *LinearShapeCreationTool {
	if !tmpl.IsLinear() {
		panic(fmt.Errorf("tool: template %q does not create linear shapes", tmpl.Name))
	}
	t := &LinearShapeCreationTool{template: tmpl, target: snap.NoTarget}
	t.toolBase = newToolBase(t, tmpl.DisplayTitle(), settings)
	return t
}

func (t *LinearShapeCreationTool) Template() *library.Template { return t.template }
func (t *LinearShapeCreationTool) Mode() LinearMode            { return t.actions.mode() }

// Preview returns the shape being drawn, or nil.
func (t *LinearShapeCreationTool) Preview() *diagram.LinearShape { return t.preview }

func (t *LinearShapeCreationTool) IsToolActionPending() bool { return !t.actions.isEmpty() }

func (t *LinearShapeCreationTool) WantsAutoScroll() bool {
	return !t.actions.isEmpty() && t.actions.current().wantsAutoScroll
}

func (t *LinearShapeCreationTool) EnterDisplay(d Display) { t.disp = d }
func (t *LinearShapeCreationTool) LeaveDisplay(Display)   {}

func (t *LinearShapeCreationTool) checkMode() LinearMode {
	m := t.actions.mode()
	switch m {
	case LinearNone, LinearAddPoint:
		return m
	case LinearDrawLine, LinearMovePoint:
		panic(fmt.Errorf("tool: linear mode %v is not implemented", m))
	}
	panic(fmt.Errorf("tool: unexpected linear mode %v", m))
}

func (t *LinearShapeCreationTool) ProcessMouseEvent(d Display, e MouseEventArgs) (bool, error) {
	t.disp = d
	mode := t.checkMode()
	switch e.Kind {
	case MouseDown:
		if mode == LinearNone {
			if e.Button != ButtonLeft {
				return false, nil
			}
			// the second press of the double click that finished a line
			if e.Clicks >= 2 {
				return true, nil
			}
			if !granted(d, security.Insert) {
				d.SetCursor(CursorNotAllowed)
				return true, nil
			}
			t.start(d, e.State)
			return true, nil
		}
		switch {
		case e.Button == ButtonRight:
			if t.preview.VertexCount() <= t.preview.MinVertexCount() {
				t.Cancel()
				return true, nil
			}
			return true, t.finish(d, true)
		case e.Button == ButtonLeft && e.Clicks >= 2:
			return true, t.finish(d, true)
		}
		return true, nil
	case MouseMove:
		if mode == LinearNone {
			if granted(d, security.Insert) {
				d.SetCursor(CursorPen)
			} else {
				d.SetCursor(CursorNotAllowed)
			}
			return false, nil
		}
		t.trackFloating(d, e.State.Position)
		return true, nil
	case MouseUp:
		if mode == LinearNone || e.Button != ButtonLeft {
			return false, nil
		}
		if t.ignoreUp {
			t.ignoreUp = false
			return true, nil
		}
		return true, t.addPoint(d)
	}
	return false, nil
}

func (t *LinearShapeCreationTool) ProcessKeyEvent(d Display, e KeyEventArgs) (bool, error) {
	t.disp = d
	mode := t.checkMode()
	if e.Kind != KeyDown || mode == LinearNone {
		return false, nil
	}
	switch e.Key {
	case KeyEscape:
		t.Cancel()
		return true, nil
	case KeyEnter:
		return true, t.finish(d, true)
	}
	return false, nil
}

// start places the first vertex, glued to a shape when one is in reach.
func (t *LinearShapeCreationTool) start(d Display, st MouseState) {
	p := st.Position
	pv := t.template.CreateLinearShape(p, p).CreatePreview().(*diagram.LinearShape)
	t.preview = pv
	t.actions.push(action[LinearMode]{display: d, mode: LinearAddPoint, mouse: st, wantsAutoScroll: true})
	t.log.Debug("gesture started", slog.String("mode", LinearAddPoint.String()))

	tgt := connectionFinder(d, t.settings, nil).FindConnectionTarget(pv, diagram.FirstVertex, p)
	if !tgt.IsEmpty() {
		pv.MoveBy(tgt.DX, tgt.DY)
	}
	if tgt.IsShape() && granted(d, security.Connect, tgt.Shape) {
		if err := diagram.Connect(pv, diagram.FirstVertex, tgt.Shape, tgt.PointID); err != nil {
			t.log.Debug("start not glued", slog.Any("err", err))
		}
	}
	t.ignoreUp = true
	t.Invalidate(d)
}

func (t *LinearShapeCreationTool) trackFloating(d Display, p geometry.Point) {
	pv := t.preview
	tgt := connectionFinder(d, t.settings, nil).FindConnectionTarget(pv, diagram.LastVertex, p)
	pos := p
	if !tgt.IsEmpty() {
		pos = p.Add(tgt.DX, tgt.DY)
	}
	t.target = snap.NoTarget
	if tgt.IsShape() && granted(d, security.Connect, tgt.Shape) {
		t.target = tgt
	}
	t.Invalidate(d)
	cur := pv.ControlPointPosition(diagram.LastVertex)
	pv.MoveControlPointBy(diagram.LastVertex, pos.X-cur.X, pos.Y-cur.Y, diagram.ResizeNone)
	// a start glued to a body slides along with the floating end
	if ci := diagram.GlueConnection(pv, diagram.FirstVertex); !ci.IsEmpty() {
		pv.FollowConnectionPointWithGluePoint(ci.OwnPointID, ci.OtherShape, ci.OtherPointID)
	}
	t.Invalidate(d)
	if t.target.IsShape() {
		d.SetCursor(CursorConnect)
	} else {
		d.SetCursor(CursorPen)
	}
}

// addPoint fixes the floating vertex. The shape is finished when it is full
// or the point lands on a connection point of another shape.
func (t *LinearShapeCreationTool) addPoint(d Display) error {
	pv := t.preview
	if pv.VertexCount() >= pv.MaxVertexCount() {
		return t.finish(d, false)
	}
	pos := pv.ControlPointPosition(diagram.LastVertex)
	if _, err := pv.InsertVertex(diagram.LastVertex, pos); err != nil {
		return t.finish(d, false)
	}
	if t.target.IsShape() && !t.target.Shape.HasControlPointCapability(t.target.PointID, diagram.CapGlue) {
		return t.finish(d, true)
	}
	t.Invalidate(d)
	return nil
}

// finish builds the real shape from the preview. The floating vertex is kept
// when the shape is full and ignorePointAtMouse is unset, or when dropping it
// would leave too few vertices.
func (t *LinearShapeCreationTool) finish(d Display, ignorePointAtMouse bool) error {
	pv := t.preview
	ids := pv.Vertices()
	n := len(ids)
	keepLast := (n >= pv.MaxVertexCount() && !ignorePointAtMouse) || n <= pv.MinVertexCount()
	pts := make([]geometry.Point, 0, n)
	for _, id := range ids[:n-1] {
		pts = append(pts, pv.ControlPointPosition(id))
	}
	if keepLast {
		pts = append(pts, pv.ControlPointPosition(ids[n-1]))
	}
	if len(pts) < max(2, pv.MinVertexCount()) {
		t.Cancel()
		return nil
	}

	s := t.template.CreateLinearShape(pts...)
	agg := command.NewAggregated("create " + t.template.DisplayTitle())
	agg.Add(command.NewInsertShapes(d.Diagram(), s))
	if granted(d, security.Connect) {
		var first diagram.ConnectionInfo
		for _, end := range []diagram.ControlPointID{diagram.FirstVertex, diagram.LastVertex} {
			ci := t.endConnection(d, s, end)
			if ci.IsEmpty() || !granted(d, security.Connect, ci.OtherShape) {
				continue
			}
			// one end per body
			if end == diagram.LastVertex && ci.OtherPointID == diagram.ReferencePoint &&
				first.OtherShape == ci.OtherShape && first.OtherPointID == diagram.ReferencePoint {
				continue
			}
			if end == diagram.FirstVertex {
				first = ci
			}
			agg.Add(command.NewConnect(s, end, ci.OtherShape, ci.OtherPointID))
		}
	}
	return t.commit(d, agg)
}

// endConnection takes the connection of the preview vertex at the same
// position, or searches a new target there.
func (t *LinearShapeCreationTool) endConnection(d Display, s *diagram.LinearShape, end diagram.ControlPointID) diagram.ConnectionInfo {
	pv := t.preview
	pos := s.ControlPointPosition(end)
	if pos == pv.ControlPointPosition(diagram.FirstVertex) {
		if ci := diagram.GlueConnection(pv, diagram.FirstVertex); !ci.IsEmpty() {
			return ci
		}
	}
	if pos == pv.ControlPointPosition(diagram.LastVertex) && t.target.IsShape() {
		return diagram.ConnectionInfo{OwnPointID: end, OtherShape: t.target.Shape, OtherPointID: t.target.PointID}
	}
	tgt := connectionFinder(d, t.settings, nil).FindConnectionTarget(s, end, pos)
	if !tgt.IsShape() {
		return diagram.EmptyConnection
	}
	return diagram.ConnectionInfo{OwnPointID: end, OtherShape: tgt.Shape, OtherPointID: tgt.PointID}
}

func (t *LinearShapeCreationTool) commit(d Display, c command.Command) error {
	if err := execute(d, c); err != nil {
		t.log.Debug("commit failed", slog.String("command", c.Description()), slog.Any("err", err))
		t.Cancel()
		return err
	}
	t.log.Debug("gesture committed", slog.String("command", c.Description()))
	t.endAll()
	t.emit(Executed, c)
	return nil
}

func (t *LinearShapeCreationTool) endAll() {
	for !t.actions.isEmpty() {
		a := t.actions.pop()
		t.Invalidate(a.display)
	}
	if t.preview != nil {
		diagram.DisconnectAll(t.preview)
		t.preview = nil
	}
	t.target = snap.NoTarget
	t.ignoreUp = false
}

func (t *LinearShapeCreationTool) Cancel() {
	if t.actions.isEmpty() {
		return
	}
	d := t.actions.current().display
	t.log.Debug("gesture canceled")
	t.endAll()
	d.SetCursor(CursorDefault)
	t.emit(Canceled, nil)
}

func (t *LinearShapeCreationTool) Invalidate(d Display) {
	if d == nil || t.preview == nil {
		return
	}
	d.Invalidate(t.preview.Bounds().Inflate(gripRadius(d, t.settings) + diagram.LineTolerance))
}

func (t *LinearShapeCreationTool) Draw(c Canvas) {
	pv := t.preview
	if pv == nil {
		return
	}
	c.DrawShape(pv, diagram.PreviewStyle(pv.Style()))
	if !diagram.GlueConnection(pv, diagram.FirstVertex).IsEmpty() {
		c.DrawGrip(pv.ControlPointPosition(diagram.FirstVertex), GripConnected, t.settings.GripSize)
	}
	if t.target.IsShape() {
		c.DrawConnectionTarget(pv.ControlPointPosition(diagram.LastVertex))
	}
}
