/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"math"
	"unicode/utf8"

	"godiagram/internal/geometry"
)

// Control points of planar shapes.
const (
	TopLeftPoint ControlPointID = iota + 1
	TopCenterPoint
	TopRightPoint
	MiddleLeftPoint
	MiddleRightPoint
	BottomLeftPoint
	BottomCenterPoint
	BottomRightPoint
	CenterPoint
)

const (
	captionLineHeight = 16
	captionCharWidth  = 8
)

// handleFactors maps resize handles to their local unit offsets.
var handleFactors = [...][2]int{
	TopLeftPoint:      {-1, -1},
	TopCenterPoint:    {0, -1},
	TopRightPoint:     {1, -1},
	MiddleLeftPoint:   {-1, 0},
	MiddleRightPoint:  {1, 0},
	BottomLeftPoint:   {-1, 1},
	BottomCenterPoint: {0, 1},
	BottomRightPoint:  {1, 1},
	CenterPoint:       {0, 0},
}

// PlanarShape is a rectangle, ellipse or rounded rectangle that may be rotated.
type PlanarShape struct {
	shapeBase
	center        geometry.Point
	width, height int
	angle         int
}

// NewPlanarShape creates a planar shape centered at c.
func NewPlanarShape(t *ShapeType, c geometry.Point, width, height int) *PlanarShape {
	if t == nil || t.Kind != Planar {
		panic("diagram: NewPlanarShape needs a planar type")
	}
	s := &PlanarShape{center: c, width: width, height: height}
	s.self = s
	s.typ = t
	s.style = DefaultStyle
	s.captions = []string{""}
	return s
}

func (s *PlanarShape) Width() int    { return s.width }
func (s *PlanarShape) Height() int   { return s.height }
func (s *PlanarShape) Angle() int    { return s.angle }
func (s *PlanarShape) Center() geometry.Point { return s.center }

// CornerRadius of the rounded rectangle outline.
func (s *PlanarShape) CornerRadius() int {
	r := min(s.width, s.height) / 5
	return max(r, 0)
}

func (s *PlanarShape) referenceCaps() Capabilities { return CapReference | CapConnect }

func (s *PlanarShape) resolvePoint(id ControlPointID) ControlPointID {
	if id == ReferencePoint {
		return CenterPoint
	}
	return id
}

func (s *PlanarShape) Location() geometry.Point { return s.center }

func (s *PlanarShape) pointCaps(id ControlPointID) Capabilities {
	switch {
	case id == ReferencePoint:
		return s.referenceCaps()
	case id == CenterPoint:
		return CapRotate | CapReference | CapConnect
	case id >= TopLeftPoint && id <= BottomRightPoint:
		return CapResize | CapConnect
	}
	return CapNone
}

func (s *PlanarShape) ControlPointIDs(caps Capabilities) []ControlPointID {
	var out []ControlPointID
	for id := TopLeftPoint; id <= CenterPoint; id++ {
		if s.pointCaps(id).Any(caps) {
			out = append(out, id)
		}
	}
	return out
}

func (s *PlanarShape) HasControlPointCapability(id ControlPointID, caps Capabilities) bool {
	return s.pointCaps(id).Any(caps)
}

// toWorld maps a local offset from the center into diagram coordinates.
func (s *PlanarShape) toWorld(lx, ly float64) geometry.Point {
	x, y := geometry.RotateFloat(float64(s.center.X)+lx, float64(s.center.Y)+ly, float64(s.center.X), float64(s.center.Y), s.angle)
	return geometry.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// toLocal maps p into the unrotated frame centered at the shape center.
func (s *PlanarShape) toLocal(p geometry.Point) (float64, float64) {
	x, y := geometry.RotateFloat(float64(p.X), float64(p.Y), float64(s.center.X), float64(s.center.Y), -s.angle)
	return x - float64(s.center.X), y - float64(s.center.Y)
}

func (s *PlanarShape) ControlPointPosition(id ControlPointID) geometry.Point {
	id = s.resolvePoint(id)
	if id < TopLeftPoint || id > CenterPoint {
		return s.center
	}
	f := handleFactors[id]
	return s.toWorld(float64(f[0])*float64(s.width)/2, float64(f[1])*float64(s.height)/2)
}

func (s *PlanarShape) Bounds() geometry.Rect {
	pts := make([]geometry.Point, 0, 4)
	for _, id := range []ControlPointID{TopLeftPoint, TopRightPoint, BottomRightPoint, BottomLeftPoint} {
		pts = append(pts, s.ControlPointPosition(id))
	}
	return geometry.BoundsOf(pts...)
}

func (s *PlanarShape) MoveBy(dx, dy int) bool {
	s.center = s.center.Add(dx, dy)
	s.notifyFollowers(nil)
	return true
}

func (s *PlanarShape) MoveTo(x, y int) bool {
	return s.MoveBy(x-s.center.X, y-s.center.Y)
}

func (s *PlanarShape) MoveControlPointBy(id ControlPointID, dx, dy int, mods ResizeModifiers) bool {
	id = s.resolvePoint(id)
	if id == CenterPoint {
		return s.MoveBy(dx, dy)
	}
	if id < TopLeftPoint || id > BottomRightPoint {
		return false
	}
	f := handleFactors[id]
	ldx, ldy := geometry.RotateFloat(float64(dx), float64(dy), 0, 0, -s.angle)
	mirrored := mods&MirroredResize != 0
	grow := 1.0
	if mirrored {
		grow = 2
	}
	w := float64(s.width) + float64(f[0])*ldx*grow
	h := float64(s.height) + float64(f[1])*ldy*grow
	if mods&MaintainAspect != 0 && f[0] != 0 && f[1] != 0 && s.width > 0 && s.height > 0 {
		ratio := float64(s.width) / float64(s.height)
		if math.Abs(w-float64(s.width))*float64(s.height) >= math.Abs(h-float64(s.height))*float64(s.width) {
			h = w / ratio
		} else {
			w = h * ratio
		}
	}
	w = math.Max(0, math.Round(w))
	h = math.Max(0, math.Round(h))
	if !mirrored {
		// keep the opposite edge fixed
		cx := float64(f[0]) * (w - float64(s.width)) / 2
		cy := float64(f[1]) * (h - float64(s.height)) / 2
		wx, wy := geometry.RotateFloat(cx, cy, 0, 0, s.angle)
		s.center = s.center.Add(int(math.Round(wx)), int(math.Round(wy)))
	}
	s.width, s.height = int(w), int(h)
	s.notifyFollowers(nil)
	return true
}

func (s *PlanarShape) Rotate(tenths int, pivot geometry.Point) bool {
	s.center = geometry.RotatePoint(s.center, pivot, tenths)
	s.angle = geometry.NormalizeAngle(s.angle + tenths)
	s.notifyFollowers(nil)
	return true
}

func (s *PlanarShape) ContainsPoint(p geometry.Point) bool {
	lx, ly := s.toLocal(p)
	hw, hh := float64(s.width)/2, float64(s.height)/2
	if math.Abs(lx) > hw || math.Abs(ly) > hh {
		return false
	}
	switch s.typ.Outline {
	case OutlineEllipse:
		if hw == 0 || hh == 0 {
			return false
		}
		dx, dy := lx/hw, ly/hh
		return dx*dx+dy*dy <= 1
	case OutlineRoundedRect:
		r := float64(s.CornerRadius())
		ax, ay := math.Abs(lx), math.Abs(ly)
		// inside the core cross
		if ax <= hw-r || ay <= hh-r {
			return true
		}
		dx, dy := ax-(hw-r), ay-(hh-r)
		return dx*dx+dy*dy <= r*r
	}
	return true
}

func (s *PlanarShape) HitTest(p geometry.Point, caps Capabilities, radius int) ControlPointID {
	if caps != CapNone {
		best, bestD := NoPoint, math.Inf(1)
		for _, id := range s.ControlPointIDs(caps) {
			d := geometry.Distance(p, s.ControlPointPosition(id))
			if d <= float64(radius) && d < bestD {
				best, bestD = id, d
			}
		}
		if best != NoPoint {
			return best
		}
	}
	if (caps == CapNone || s.referenceCaps().Any(caps)) && s.ContainsPoint(p) {
		return ReferencePoint
	}
	return NoPoint
}

// CaptionBounds is the centered text box; empty captions have no area.
func (s *PlanarShape) CaptionBounds(index int) geometry.Rect {
	if index != 0 || s.captions[0] == "" {
		return geometry.Rect{}
	}
	w := min(s.width, utf8.RuneCountInString(s.captions[0])*captionCharWidth+captionCharWidth)
	h := min(s.height, captionLineHeight)
	return geometry.Rect{X: s.center.X - w/2, Y: s.center.Y - h/2, Width: w, Height: h}
}

func (s *PlanarShape) CaptionIndexAt(p geometry.Point) int {
	r := s.CaptionBounds(0)
	if r.IsEmpty() {
		return -1
	}
	// caption boxes rotate with the shape
	lx, ly := s.toLocal(p)
	q := geometry.Point{X: s.center.X + int(math.Round(lx)), Y: s.center.Y + int(math.Round(ly))}
	if r.Contains(q) {
		return 0
	}
	return -1
}

func (s *PlanarShape) FollowConnectionPointWithGluePoint(ControlPointID, Shape, ControlPointID) {}

// CalculateConnectionFoot returns the outline point on the ray from the center towards from.
func (s *PlanarShape) CalculateConnectionFoot(from geometry.Point) geometry.Point {
	lx, ly := s.toLocal(from)
	if lx == 0 && ly == 0 {
		return s.center
	}
	hw, hh := float64(s.width)/2, float64(s.height)/2
	var t float64
	switch s.typ.Outline {
	case OutlineEllipse:
		if hw == 0 || hh == 0 {
			return s.center
		}
		t = 1 / math.Sqrt((lx/hw)*(lx/hw)+(ly/hh)*(ly/hh))
	default:
		t = math.Inf(1)
		if lx != 0 {
			t = math.Min(t, hw/math.Abs(lx))
		}
		if ly != 0 {
			t = math.Min(t, hh/math.Abs(ly))
		}
	}
	return s.toWorld(lx*t, ly*t)
}

func (s *PlanarShape) Clone() Shape {
	c := &PlanarShape{center: s.center, width: s.width, height: s.height, angle: s.angle}
	c.self = c
	s.copyBase(&c.shapeBase)
	return c
}

func (s *PlanarShape) CreatePreview() Shape {
	c := s.Clone()
	c.base().preview = true
	return c
}

func (s *PlanarShape) AssignGeometry(src Shape) {
	o := src.(*PlanarShape)
	s.center, s.width, s.height, s.angle = o.center, o.width, o.height, o.angle
}
