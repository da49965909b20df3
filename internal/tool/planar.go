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
	"godiagram/internal/library"
	"godiagram/internal/security"
)

type PlanarMode uint8

const (
	PlanarNone PlanarMode = iota
	PlanarPlace
)

// PlanarShapeCreationTool places a shape with one click. Its preview follows
// the pointer while it is over the display.
type PlanarShapeCreationTool struct {
	toolBase

	template *library.Template
	actions  actionStack[PlanarMode]
	disp     Display
	preview  diagram.Shape

	// suspended after a right click until the pointer re-enters or clicks
	suspended bool
	lastMouse MouseState
	hasMouse  bool
}

func NewPlanarShapeCreationTool(tmpl *library.Template, settings Settings) *PlanarShapeCreationTool {
	if tmpl.IsLinear() {
		panic(fmt.Errorf("tool: template %q creates linear shapes", tmpl.Name))
	}
	t := &PlanarShapeCreationTool{template: tmpl}
	t.toolBase = newToolBase(t, tmpl.DisplayTitle(), settings)
	return t
}

func (t *PlanarShapeCreationTool) Template() *library.Template { return t.template }
func (t *PlanarShapeCreationTool) Mode() PlanarMode            { return t.actions.mode() }
func (t *PlanarShapeCreationTool) Preview() diagram.Shape      { return t.preview }
func (t *PlanarShapeCreationTool) IsToolActionPending() bool   { return !t.actions.isEmpty() }
func (t *PlanarShapeCreationTool) WantsAutoScroll() bool       { return false }

func (t *PlanarShapeCreationTool) EnterDisplay(d Display) {
	t.disp = d
	t.suspended = false
	if t.hasMouse {
		t.track(d, t.lastMouse)
	}
}

// LeaveDisplay hides the preview without raising an event.
func (t *PlanarShapeCreationTool) LeaveDisplay(Display) {
	t.suspended = false
	t.endAll()
}

func (t *PlanarShapeCreationTool) ProcessMouseEvent(d Display, e MouseEventArgs) (bool, error) {
	t.disp = d
	switch e.Kind {
	case MouseEnter:
		t.lastMouse, t.hasMouse = e.State, true
		t.EnterDisplay(d)
		return true, nil
	case MouseLeave:
		t.LeaveDisplay(d)
		return true, nil
	case MouseMove:
		t.lastMouse, t.hasMouse = e.State, true
		if t.suspended {
			return false, nil
		}
		t.track(d, e.State)
		return true, nil
	case MouseDown:
		t.lastMouse, t.hasMouse = e.State, true
		switch e.Button {
		case ButtonRight:
			t.Cancel()
			t.suspended = true
			return true, nil
		case ButtonLeft:
			if t.suspended || t.actions.isEmpty() {
				t.suspended = false
				t.track(d, e.State)
				return true, nil
			}
			return true, t.place(d)
		}
	}
	return false, nil
}

func (t *PlanarShapeCreationTool) ProcessKeyEvent(d Display, e KeyEventArgs) (bool, error) {
	if e.Kind == KeyDown && e.Key == KeyEscape && !t.actions.isEmpty() {
		t.Cancel()
		t.suspended = true
		return true, nil
	}
	return false, nil
}

// track moves the preview to st, snapped to the grid.
func (t *PlanarShapeCreationTool) track(d Display, st MouseState) {
	if !granted(d, security.Insert) {
		d.SetCursor(CursorNotAllowed)
		return
	}
	if t.actions.isEmpty() {
		t.preview = t.template.CreatePreviewShape()
		t.actions.push(action[PlanarMode]{display: d, mode: PlanarPlace, mouse: st})
		t.log.Debug("gesture started", slog.String("mode", "Place"))
	}
	t.Invalidate(d)
	p := st.Position
	t.preview.MoveTo(p.X, p.Y)
	if r := d.Grid().FindNearestSnapPointForShape(t.preview, 0, 0); r.Snapped() {
		t.preview.MoveBy(r.DX, r.DY)
	}
	t.Invalidate(d)
	d.SetCursor(CursorCrosshair)
}

func (t *PlanarShapeCreationTool) place(d Display) error {
	s := t.template.CreateShape()
	loc := t.preview.Location()
	s.MoveTo(loc.X, loc.Y)
	c := command.NewInsertShapes(d.Diagram(), s)
	if err := execute(d, c); err != nil {
		t.log.Debug("commit failed", slog.Any("err", err))
		t.Cancel()
		return err
	}
	t.log.Debug("gesture committed", slog.String("command", c.Description()))
	t.endAll()
	t.emit(Executed, c)
	return nil
}

func (t *PlanarShapeCreationTool) endAll() {
	for !t.actions.isEmpty() {
		a := t.actions.pop()
		t.Invalidate(a.display)
	}
	t.preview = nil
}

func (t *PlanarShapeCreationTool) Cancel() {
	if t.actions.isEmpty() {
		return
	}
	d := t.actions.current().display
	t.log.Debug("gesture canceled")
	t.endAll()
	d.SetCursor(CursorDefault)
	t.emit(Canceled, nil)
}

func (t *PlanarShapeCreationTool) Invalidate(d Display) {
	if d == nil || t.preview == nil {
		return
	}
	d.Invalidate(t.preview.Bounds().Inflate(gripRadius(d, t.settings)))
}

func (t *PlanarShapeCreationTool) Draw(c Canvas) {
	if t.preview != nil {
		c.DrawShape(t.preview, diagram.PreviewStyle(t.preview.Style()))
	}
}
