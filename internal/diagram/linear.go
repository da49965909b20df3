/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"godiagram/internal/geometry"
)

// LineTolerance is the stroke hit distance of linear shapes in diagram units.
const LineTolerance = 3

var (
	ErrVertexLimit   = errors.New("vertex count limit reached")
	ErrUnknownVertex = errors.New("unknown vertex")
	ErrEndVertex     = errors.New("end vertices cannot be removed or preceded")
)

// Vertex ids of linear shapes: the ends keep 1 and 2, interior vertices get 3, 4, ...
const (
	firstVertexID ControlPointID = 1
	lastVertexID  ControlPointID = 2
)

type vertex struct {
	id  ControlPointID
	pos geometry.Point
}

// LinearShape is a line or polyline. Its ends are glue points.
type LinearShape struct {
	shapeBase
	vertices []vertex
	nextID   ControlPointID
}

// NewLinearShape creates a linear shape through pts (at least two).
func NewLinearShape(t *ShapeType, pts ...geometry.Point) *LinearShape {
	if t == nil || t.Kind != Linear {
		panic("diagram: NewLinearShape needs a linear type")
	}
	if len(pts) < 2 {
		panic("diagram: a linear shape needs two vertices")
	}
	s := &LinearShape{nextID: lastVertexID + 1}
	s.self = s
	s.typ = t
	s.style = DefaultStyle
	s.style.Fill.Enabled = false
	s.vertices = append(s.vertices, vertex{id: firstVertexID, pos: pts[0]})
	for _, p := range pts[1 : len(pts)-1] {
		s.vertices = append(s.vertices, vertex{id: s.nextID, pos: p})
		s.nextID++
	}
	s.vertices = append(s.vertices, vertex{id: lastVertexID, pos: pts[len(pts)-1]})
	return s
}

func (s *LinearShape) VertexCount() int    { return len(s.vertices) }
func (s *LinearShape) MinVertexCount() int { return s.typ.MinVertexCount }
func (s *LinearShape) MaxVertexCount() int { return s.typ.MaxVertexCount }

// Vertices returns the vertex ids from first to last.
func (s *LinearShape) Vertices() []ControlPointID {
	out := make([]ControlPointID, len(s.vertices))
	for i, v := range s.vertices {
		out[i] = v.id
	}
	return out
}

func (s *LinearShape) indexOf(id ControlPointID) int {
	id = s.resolvePoint(id)
	for i, v := range s.vertices {
		if v.id == id {
			return i
		}
	}
	return -1
}

func (s *LinearShape) resolvePoint(id ControlPointID) ControlPointID {
	switch id {
	case FirstVertex, ReferencePoint:
		return firstVertexID
	case LastVertex:
		return lastVertexID
	}
	return id
}

// NeighbourOf returns the adjacent vertex towards the inside of the line.
func (s *LinearShape) NeighbourOf(id ControlPointID) ControlPointID {
	i := s.indexOf(id)
	switch {
	case i < 0:
		return NoPoint
	case i == len(s.vertices)-1:
		return s.vertices[i-1].id
	}
	return s.vertices[i+1].id
}

// IsEndPoint reports whether id is the first or the last vertex.
func (s *LinearShape) IsEndPoint(id ControlPointID) bool {
	id = s.resolvePoint(id)
	return id == firstVertexID || id == lastVertexID
}

func (s *LinearShape) Location() geometry.Point { return s.vertices[0].pos }

func (s *LinearShape) pointCaps(id ControlPointID) Capabilities {
	if id == ReferencePoint {
		return s.referenceCaps()
	}
	i := s.indexOf(id)
	switch {
	case i < 0:
		return CapNone
	case i == 0 || i == len(s.vertices)-1:
		return CapGlue | CapResize
	}
	return CapResize | CapConnect
}

func (s *LinearShape) ControlPointIDs(caps Capabilities) []ControlPointID {
	var out []ControlPointID
	for _, v := range s.vertices {
		if s.pointCaps(v.id).Any(caps) {
			out = append(out, v.id)
		}
	}
	return out
}

func (s *LinearShape) HasControlPointCapability(id ControlPointID, caps Capabilities) bool {
	return s.pointCaps(id).Any(caps)
}

func (s *LinearShape) ControlPointPosition(id ControlPointID) geometry.Point {
	if i := s.indexOf(id); i >= 0 {
		return s.vertices[i].pos
	}
	return s.vertices[0].pos
}

func (s *LinearShape) Bounds() geometry.Rect {
	pts := make([]geometry.Point, len(s.vertices))
	for i, v := range s.vertices {
		pts[i] = v.pos
	}
	return geometry.BoundsOf(pts...)
}

// InsertVertex adds a vertex in front of before and returns its id.
func (s *LinearShape) InsertVertex(before ControlPointID, p geometry.Point) (ControlPointID, error) {
	if len(s.vertices) >= s.typ.MaxVertexCount {
		return NoPoint, ErrVertexLimit
	}
	i := s.indexOf(before)
	if i < 0 {
		return NoPoint, fmt.Errorf("%w: %s", ErrUnknownVertex, before)
	}
	if i == 0 {
		return NoPoint, ErrEndVertex
	}
	id := s.nextID
	s.nextID++
	s.vertices = slices.Insert(s.vertices, i, vertex{id: id, pos: p})
	return id, nil
}

// AddVertex inserts a vertex in front of the last one.
func (s *LinearShape) AddVertex(p geometry.Point) (ControlPointID, error) {
	return s.InsertVertex(lastVertexID, p)
}

// RemoveVertex deletes an interior vertex.
func (s *LinearShape) RemoveVertex(id ControlPointID) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, id)
	}
	if i == 0 || i == len(s.vertices)-1 {
		return ErrEndVertex
	}
	if len(s.vertices) <= s.typ.MinVertexCount {
		return ErrVertexLimit
	}
	s.vertices = slices.Delete(s.vertices, i, i+1)
	return nil
}

func (s *LinearShape) MoveBy(dx, dy int) bool {
	for i := range s.vertices {
		s.vertices[i].pos = s.vertices[i].pos.Add(dx, dy)
	}
	s.notifyFollowers(nil)
	return true
}

func (s *LinearShape) MoveTo(x, y int) bool {
	l := s.Location()
	return s.MoveBy(x-l.X, y-l.Y)
}

func (s *LinearShape) MoveControlPointBy(id ControlPointID, dx, dy int, _ ResizeModifiers) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.vertices[i].pos = s.vertices[i].pos.Add(dx, dy)
	s.notifyFollowers(nil)
	return true
}

func (s *LinearShape) Rotate(tenths int, pivot geometry.Point) bool {
	for i := range s.vertices {
		s.vertices[i].pos = geometry.RotatePoint(s.vertices[i].pos, pivot, tenths)
	}
	s.notifyFollowers(nil)
	return true
}

func (s *LinearShape) distance(p geometry.Point) float64 {
	d := math.Inf(1)
	for i := 1; i < len(s.vertices); i++ {
		d = math.Min(d, geometry.DistancePointSegment(p, s.vertices[i-1].pos, s.vertices[i].pos))
	}
	return d
}

func (s *LinearShape) tolerance() float64 {
	return math.Max(LineTolerance, s.style.Stroke.Width/2)
}

func (s *LinearShape) ContainsPoint(p geometry.Point) bool {
	return s.distance(p) <= s.tolerance()
}

func (s *LinearShape) HitTest(p geometry.Point, caps Capabilities, radius int) ControlPointID {
	if caps != CapNone {
		best, bestD := NoPoint, math.Inf(1)
		for _, v := range s.vertices {
			if !s.pointCaps(v.id).Any(caps) {
				continue
			}
			d := geometry.Distance(p, v.pos)
			if d <= float64(radius) && d < bestD {
				best, bestD = v.id, d
			}
		}
		if best != NoPoint {
			return best
		}
	}
	if (caps == CapNone || s.referenceCaps().Any(caps)) && s.distance(p) <= math.Max(s.tolerance(), float64(radius)) {
		return ReferencePoint
	}
	return NoPoint
}

func (s *LinearShape) CaptionBounds(int) geometry.Rect { return geometry.Rect{} }
func (s *LinearShape) CaptionIndexAt(geometry.Point) int { return -1 }

// FollowConnectionPointWithGluePoint moves a glued end onto its target.
func (s *LinearShape) FollowConnectionPointWithGluePoint(gluePoint ControlPointID, target Shape, targetPoint ControlPointID) {
	if s.following {
		return
	}
	i := s.indexOf(gluePoint)
	if i < 0 {
		return
	}
	from := s.ControlPointPosition(s.NeighbourOf(s.vertices[i].id))
	pos := ConnectionTargetPosition(target, targetPoint, from)
	if pos == s.vertices[i].pos {
		return
	}
	s.following = true
	defer func() { s.following = false }()
	s.vertices[i].pos = pos
	s.notifyFollowers(nil)
}

// CalculateConnectionFoot returns the nearest point on the polyline.
func (s *LinearShape) CalculateConnectionFoot(from geometry.Point) geometry.Point {
	best := s.vertices[0].pos
	bestD := math.Inf(1)
	for i := 1; i < len(s.vertices); i++ {
		q := geometry.NearestPointOnSegment(from, s.vertices[i-1].pos, s.vertices[i].pos)
		if d := geometry.Distance(from, q); d < bestD {
			best, bestD = q, d
		}
	}
	return best
}

func (s *LinearShape) Clone() Shape {
	c := &LinearShape{vertices: slices.Clone(s.vertices), nextID: s.nextID}
	c.self = c
	s.copyBase(&c.shapeBase)
	return c
}

func (s *LinearShape) CreatePreview() Shape {
	c := s.Clone()
	c.base().preview = true
	return c
}

func (s *LinearShape) AssignGeometry(src Shape) {
	o := src.(*LinearShape)
	s.vertices = slices.Clone(o.vertices)
	s.nextID = o.nextID
}
