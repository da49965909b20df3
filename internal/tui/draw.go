/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/tool"
)

// Cell glyphs.
const (
	glyphBorder    = '#'
	glyphFill      = '.'
	glyphPreview   = ':'
	glyphLine      = '*'
	glyphGrip      = '+'
	glyphRotate    = '@'
	glyphGlue      = 'o'
	glyphConnected = 'O'
	glyphFrame     = '~'
	glyphPivot     = 'x'
	glyphTarget    = '%'
)

var (
	styleStatus = tcell.StyleDefault.Reverse(true)
	styleGrip   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0, 120, 215)).Bold(true)
)

func toColor(c diagram.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Draw paints the diagram, the tool overlay and the status row.
func (h *Host) Draw() {
	h.screen.Clear()
	h.p.Draw(&cellCanvas{h: h})
	h.drawStatus()
}

func (h *Host) drawStatus() {
	w, rows := h.screen.Size()
	if rows == 0 {
		return
	}
	var line string
	if h.edit != nil {
		line = "Caption: " + string(h.edit.text) + "_"
	} else {
		line = fmt.Sprintf("%s | %s", h.p.Tool().Title(), h.p.Cursor())
		if h.message != "" {
			line += " | " + h.message
		}
	}
	y := rows - 1
	x := 0
	for _, r := range line {
		if x >= w {
			break
		}
		h.screen.SetContent(x, y, r, nil, styleStatus)
		x++
	}
	for ; x < w; x++ {
		h.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
}

// cellCanvas renders into terminal cells. Diagram points map to cells through
// the presenter transform.
type cellCanvas struct {
	h *Host
}

var _ tool.Canvas = (*cellCanvas)(nil)

func (c *cellCanvas) cell(p geometry.Point) geometry.Point { return c.h.p.DiagramToScreen(p) }

// set writes r unless the cell is off screen or part of the status row.
func (c *cellCanvas) set(x, y int, r rune, st tcell.Style) {
	w, rows := c.h.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= rows-1 {
		return
	}
	c.h.screen.SetContent(x, y, r, nil, st)
}

func (c *cellCanvas) line(a, b geometry.Point, r rune, st tcell.Style) {
	dx, dy := geometry.Abs(b.X-a.X), -geometry.Abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(a.X, a.Y, r, st)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func (c *cellCanvas) text(center geometry.Point, s string, st tcell.Style) {
	runes := []rune(s)
	x := center.X - len(runes)/2
	for i, r := range runes {
		c.set(x+i, center.Y, r, st)
	}
}

func (c *cellCanvas) DrawShape(s diagram.Shape, style diagram.Style) {
	st := tcell.StyleDefault
	if style.Stroke.Enabled {
		st = st.Foreground(toColor(style.Stroke.Color))
	}
	switch sh := s.(type) {
	case *diagram.PlanarShape:
		c.drawPlanar(sh, style, st)
	case *diagram.LinearShape:
		ids := sh.Vertices()
		for i := 1; i < len(ids); i++ {
			c.line(c.cell(sh.ControlPointPosition(ids[i-1])), c.cell(sh.ControlPointPosition(ids[i])), glyphLine, st)
		}
	case *diagram.GroupShape:
		for _, child := range sh.Children() {
			c.DrawShape(child, child.Style())
		}
	}
}

// drawPlanar marks every cell whose origin lies inside the shape. Cells with
// an outside neighbour form the border.
func (c *cellCanvas) drawPlanar(s *diagram.PlanarShape, style diagram.Style, st tcell.Style) {
	p := c.h.p
	b := s.Bounds()
	tl, br := c.cell(geometry.Pt(b.Left(), b.Top())), c.cell(geometry.Pt(b.Right(), b.Bottom()))
	inside := func(x, y int) bool { return s.ContainsPoint(p.ScreenToDiagram(geometry.Pt(x, y))) }
	fill := glyphFill
	if style.Stroke.Dashed {
		fill = glyphPreview
	}
	painted := false
	for y := tl.Y; y <= br.Y; y++ {
		for x := tl.X; x <= br.X; x++ {
			if !inside(x, y) {
				continue
			}
			painted = true
			switch {
			case !inside(x-1, y) || !inside(x+1, y) || !inside(x, y-1) || !inside(x, y+1):
				c.set(x, y, glyphBorder, st)
			case style.Fill.Enabled || style.Stroke.Dashed:
				c.set(x, y, fill, st)
			}
		}
	}
	center := c.cell(s.Center())
	if !painted {
		c.set(center.X, center.Y, glyphBorder, st)
	}
	for i := 0; i < s.CaptionCount(); i++ {
		if t := s.CaptionText(i); t != "" {
			c.text(c.cell(s.CaptionBounds(i).Center()), t, st)
		}
	}
}

func (c *cellCanvas) DrawGrip(p geometry.Point, kind tool.GripKind, _ int) {
	r := glyphGrip
	switch kind {
	case tool.GripRotate:
		r = glyphRotate
	case tool.GripGlue:
		r = glyphGlue
	case tool.GripConnected:
		r = glyphConnected
	}
	q := c.cell(p)
	c.set(q.X, q.Y, r, styleGrip)
}

func (c *cellCanvas) DrawFrame(r geometry.Rect) {
	corners := r.Corners()
	for i := range corners {
		c.line(c.cell(corners[i]), c.cell(corners[(i+1)%len(corners)]), glyphFrame, styleGrip)
	}
}

func (c *cellCanvas) DrawRotateHint(pivot geometry.Point, radius int, sweep int) {
	q := c.cell(pivot)
	c.set(q.X, q.Y, glyphPivot, styleGrip)
	if sweep != 0 {
		c.text(geometry.Pt(q.X, q.Y+1), fmt.Sprintf("%d.%d°", sweep/10, sweep%10), styleGrip)
	}
}

func (c *cellCanvas) DrawConnectionTarget(p geometry.Point) {
	q := c.cell(p)
	c.set(q.X, q.Y, glyphTarget, styleGrip)
}
