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

	"godiagram/internal/geometry"
)

// GroupCenterPoint is the only control point of a group.
const GroupCenterPoint ControlPointID = 1

// GroupShape is a composite of child shapes.
type GroupShape struct {
	shapeBase
	children []Shape
	// ChildSelection permits selecting children instead of the group.
	ChildSelection bool
}

// NewGroup wraps children, which must not belong to another group.
func NewGroup(children ...Shape) *GroupShape {
	g := &GroupShape{}
	g.self = g
	g.typ = GroupType
	g.style = DefaultStyle
	for _, c := range children {
		g.AddChild(c)
	}
	return g
}

// AddChild attaches c as the front-most child.
func (g *GroupShape) AddChild(c Shape) {
	c.base().parent = g
	c.base().preview = g.preview
	g.children = append(g.children, c)
}

func (g *GroupShape) Children() []Shape {
	return append([]Shape(nil), g.children...)
}

func (g *GroupShape) resolvePoint(id ControlPointID) ControlPointID {
	if id == ReferencePoint {
		return GroupCenterPoint
	}
	return id
}

func (g *GroupShape) Location() geometry.Point { return g.Bounds().Center() }

func (g *GroupShape) Bounds() geometry.Rect {
	var r geometry.Rect
	for _, c := range g.children {
		r = r.Union(c.Bounds())
	}
	return r
}

func (g *GroupShape) pointCaps(id ControlPointID) Capabilities {
	switch id {
	case ReferencePoint:
		return g.referenceCaps()
	case GroupCenterPoint:
		return CapRotate | CapReference
	}
	return CapNone
}

func (g *GroupShape) ControlPointIDs(caps Capabilities) []ControlPointID {
	if g.pointCaps(GroupCenterPoint).Any(caps) {
		return []ControlPointID{GroupCenterPoint}
	}
	return nil
}

func (g *GroupShape) HasControlPointCapability(id ControlPointID, caps Capabilities) bool {
	return g.pointCaps(id).Any(caps)
}

func (g *GroupShape) ControlPointPosition(ControlPointID) geometry.Point { return g.Location() }

func (g *GroupShape) MoveBy(dx, dy int) bool {
	MoveShapesBy(g.children, dx, dy)
	g.notifyFollowers(nil)
	return true
}

func (g *GroupShape) MoveTo(x, y int) bool {
	l := g.Location()
	return g.MoveBy(x-l.X, y-l.Y)
}

func (g *GroupShape) MoveControlPointBy(id ControlPointID, dx, dy int, _ ResizeModifiers) bool {
	if g.resolvePoint(id) != GroupCenterPoint {
		return false
	}
	return g.MoveBy(dx, dy)
}

func (g *GroupShape) Rotate(tenths int, pivot geometry.Point) bool {
	RotateShapes(g.children, tenths, pivot)
	g.notifyFollowers(nil)
	return true
}

func (g *GroupShape) ContainsPoint(p geometry.Point) bool {
	for _, c := range g.children {
		if c.ContainsPoint(p) {
			return true
		}
	}
	return false
}

func (g *GroupShape) HitTest(p geometry.Point, caps Capabilities, radius int) ControlPointID {
	if caps != CapNone && g.pointCaps(GroupCenterPoint).Any(caps) {
		if geometry.Distance(p, g.Location()) <= float64(radius) {
			return GroupCenterPoint
		}
	}
	if caps == CapNone || g.referenceCaps().Any(caps) {
		for _, c := range g.children {
			if c.HitTest(p, CapNone, radius) != NoPoint {
				return ReferencePoint
			}
		}
	}
	return NoPoint
}

func (g *GroupShape) CaptionBounds(int) geometry.Rect   { return geometry.Rect{} }
func (g *GroupShape) CaptionIndexAt(geometry.Point) int { return -1 }

func (g *GroupShape) FollowConnectionPointWithGluePoint(ControlPointID, Shape, ControlPointID) {}

func (g *GroupShape) CalculateConnectionFoot(from geometry.Point) geometry.Point {
	best := g.Location()
	bestD := math.Inf(1)
	for _, c := range g.children {
		q := c.CalculateConnectionFoot(from)
		if d := geometry.Distance(from, q); d < bestD {
			best, bestD = q, d
		}
	}
	return best
}

// FindChildren returns the children hit at p, front-most first.
func (g *GroupShape) FindChildren(p geometry.Point, caps Capabilities, radius int) []Shape {
	var out []Shape
	for i := len(g.children) - 1; i >= 0; i-- {
		if g.children[i].HitTest(p, caps, radius) != NoPoint {
			out = append(out, g.children[i])
		}
	}
	return out
}

func (g *GroupShape) clone(preview bool) *GroupShape {
	c := &GroupShape{ChildSelection: g.ChildSelection}
	c.self = c
	g.copyBase(&c.shapeBase)
	c.preview = preview
	for _, ch := range g.children {
		var cc Shape
		if preview {
			cc = ch.CreatePreview()
		} else {
			cc = ch.Clone()
		}
		c.AddChild(cc)
	}
	return c
}

func (g *GroupShape) Clone() Shape         { return g.clone(false) }
func (g *GroupShape) CreatePreview() Shape { return g.clone(true) }

func (g *GroupShape) AssignGeometry(src Shape) {
	o := src.(*GroupShape)
	for i, c := range g.children {
		if i < len(o.children) {
			c.AssignGeometry(o.children[i])
		}
	}
}
