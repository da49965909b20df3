/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package display holds the presenter that connects a diagram, its
// selection and the active tool to a host window.
package display

import (
	"math"
	"slices"

	"godiagram/internal/command"
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/security"
	"godiagram/internal/snap"
	"godiagram/internal/tool"
)

// CaptionEditor asks the user for a caption text and reports the result
// through done, now or later.
type CaptionEditor func(s diagram.Shape, index int, current string, done func(text string, ok bool))

// Presenter implements tool.Display for every host.
type Presenter struct {
	diagram  *diagram.Diagram
	executor *command.Executor
	security security.Manager
	grid     snap.Grid

	selection []diagram.Shape

	zoom             float64
	scrollX, scrollY int
	toScreen         geometry.Affine2D
	toDiagram        geometry.Affine2D

	tool   tool.Tool
	cursor tool.Cursor
	dirty  geometry.Rect

	// host callbacks, all optional
	OnCursor      func(tool.Cursor)
	OnInvalidate  func(geometry.Rect)
	CaptionEditor CaptionEditor
}

// New creates a presenter at 100% zoom. A nil executor gets one with a
// default history.
func New(d *diagram.Diagram, exec *command.Executor, sec security.Manager, grid snap.Grid) *Presenter {
	if exec == nil {
		exec = command.NewExecutor(sec, nil)
	}
	p := &Presenter{diagram: d, executor: exec, security: sec, grid: grid}
	p.SetZoom(1)
	exec.AddListener(func(command.EventKind, command.Command) {
		p.PruneSelection()
		p.InvalidateAll()
	})
	return p
}

func (p *Presenter) Diagram() *diagram.Diagram       { return p.diagram }
func (p *Presenter) Executor() *command.Executor     { return p.executor }
func (p *Presenter) Security() security.Manager      { return p.security }
func (p *Presenter) Grid() snap.Grid                 { return p.grid }
func (p *Presenter) SetGrid(g snap.Grid)             { p.grid = g; p.InvalidateAll() }
func (p *Presenter) Cursor() tool.Cursor             { return p.cursor }
func (p *Presenter) SelectedShapes() []diagram.Shape { return slices.Clone(p.selection) }

func (p *Presenter) IsSelected(s diagram.Shape) bool { return slices.Contains(p.selection, s) }

func (p *Presenter) SelectShape(s diagram.Shape, add bool) {
	if !add {
		p.clearSelection()
	}
	if s != nil && !p.IsSelected(s) {
		p.selection = append(p.selection, s)
		p.invalidateShape(s)
	}
}

func (p *Presenter) SelectShapes(shapes []diagram.Shape, add bool) {
	if !add {
		p.clearSelection()
	}
	for _, s := range shapes {
		p.SelectShape(s, true)
	}
}

func (p *Presenter) UnselectShape(s diagram.Shape) {
	if i := slices.Index(p.selection, s); i >= 0 {
		p.selection = slices.Delete(p.selection, i, i+1)
		p.invalidateShape(s)
	}
}

func (p *Presenter) ClearSelection() { p.clearSelection() }

func (p *Presenter) clearSelection() {
	for _, s := range p.selection {
		p.invalidateShape(s)
	}
	p.selection = nil
}

// PruneSelection drops selected shapes that left the diagram.
func (p *Presenter) PruneSelection() {
	p.selection = slices.DeleteFunc(p.selection, func(s diagram.Shape) bool {
		return !p.diagram.Contains(diagram.TopLevel(s))
	})
}

// SetZoom sets the scale factor; values below 0.05 are clamped.
func (p *Presenter) SetZoom(z float64) {
	p.zoom = math.Max(z, 0.05)
	p.updateTransform()
}

func (p *Presenter) Zoom() float64 { return p.zoom }

// ScrollTo makes the diagram point (x, y) the top-left corner of the view.
func (p *Presenter) ScrollTo(x, y int) {
	p.scrollX, p.scrollY = x, y
	p.updateTransform()
}

func (p *Presenter) updateTransform() {
	p.toScreen = geometry.Scale(p.zoom, p.zoom).Mul(geometry.Translate(float64(-p.scrollX), float64(-p.scrollY)))
	inv, ok := p.toScreen.Invert()
	if !ok {
		panic("display: view transform is not invertible")
	}
	p.toDiagram = inv
	p.InvalidateAll()
}

func (p *Presenter) ScreenToDiagram(pt geometry.Point) geometry.Point { return p.toDiagram.Apply(pt) }
func (p *Presenter) DiagramToScreen(pt geometry.Point) geometry.Point { return p.toScreen.Apply(pt) }

// ScreenToDiagramDistance converts a pixel distance, rounding up.
func (p *Presenter) ScreenToDiagramDistance(px int) int {
	return int(math.Ceil(float64(px) * p.toDiagram.ScaleFactor()))
}

func (p *Presenter) SetCursor(c tool.Cursor) {
	p.cursor = c
	if p.OnCursor != nil {
		p.OnCursor(c)
	}
}

// Invalidate records a dirty diagram region and forwards it to the host.
func (p *Presenter) Invalidate(r geometry.Rect) {
	p.dirty = p.dirty.Union(r)
	if p.OnInvalidate != nil {
		p.OnInvalidate(r)
	}
}

// InvalidateAll marks the whole diagram dirty.
func (p *Presenter) InvalidateAll() {
	p.Invalidate(geometry.R(0, 0, p.diagram.Width, p.diagram.Height))
}

// TakeDirty returns and resets the accumulated dirty region.
func (p *Presenter) TakeDirty() geometry.Rect {
	r := p.dirty
	p.dirty = geometry.Rect{}
	return r
}

func (p *Presenter) invalidateShape(s diagram.Shape) { p.Invalidate(s.Bounds().Inflate(4)) }

func (p *Presenter) OpenCaptionEditor(s diagram.Shape, index int, done func(string, bool)) {
	if p.CaptionEditor == nil {
		done("", false)
		return
	}
	p.CaptionEditor(s, index, s.CaptionText(index), done)
}

// SetTool cancels the current tool and activates t.
func (p *Presenter) SetTool(t tool.Tool) {
	if p.tool != nil {
		p.tool.Cancel()
		p.tool.LeaveDisplay(p)
	}
	p.tool = t
	if t != nil {
		t.EnterDisplay(p)
	}
}

func (p *Presenter) Tool() tool.Tool { return p.tool }

// MouseEvent feeds an event given in screen coordinates to the active tool.
func (p *Presenter) MouseEvent(e tool.MouseEventArgs) (bool, error) {
	if p.tool == nil {
		return false, nil
	}
	e.State.Position = p.ScreenToDiagram(e.State.Position)
	return p.tool.ProcessMouseEvent(p, e)
}

// DiagramMouseEvent feeds an event already in diagram coordinates.
func (p *Presenter) DiagramMouseEvent(e tool.MouseEventArgs) (bool, error) {
	if p.tool == nil {
		return false, nil
	}
	return p.tool.ProcessMouseEvent(p, e)
}

func (p *Presenter) KeyEvent(e tool.KeyEventArgs) (bool, error) {
	if p.tool == nil {
		return false, nil
	}
	return p.tool.ProcessKeyEvent(p, e)
}

// Draw paints the diagram back to front followed by the tool overlay.
func (p *Presenter) Draw(c tool.Canvas) {
	for _, s := range p.diagram.Shapes() {
		c.DrawShape(s, s.Style())
	}
	if p.tool != nil {
		p.tool.Draw(c)
	}
}

// Undo and Redo go through the executor so listeners see them.
func (p *Presenter) Undo() error {
	if p.tool != nil {
		p.tool.Cancel()
	}
	return p.executor.Undo()
}

func (p *Presenter) Redo() error {
	if p.tool != nil {
		p.tool.Cancel()
	}
	return p.executor.Redo()
}

var _ tool.Display = (*Presenter)(nil)
