/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"slices"

	"godiagram/internal/geometry"
)

// Diagram owns the top-level shapes ordered by z-order.
type Diagram struct {
	Name   string
	Width  int
	Height int

	shapes []Shape
	nextID int
}

// New creates an empty diagram.
func New(name string, width, height int) *Diagram {
	return &Diagram{Name: name, Width: width, Height: height, nextID: 1}
}

// NextZOrder returns a z-order above every shape of the diagram.
func (d *Diagram) NextZOrder() int {
	if len(d.shapes) == 0 {
		return 1
	}
	return d.shapes[len(d.shapes)-1].ZOrder() + 1
}

// Add inserts s keeping the z ordering. Shapes without id get one.
func (d *Diagram) Add(s Shape) {
	if d.Contains(s) {
		return
	}
	b := s.base()
	if b.id == 0 {
		b.id = d.nextID
		d.nextID++
	} else if b.id >= d.nextID {
		d.nextID = b.id + 1
	}
	i, _ := slices.BinarySearchFunc(d.shapes, s, func(e, t Shape) int {
		if e.ZOrder() != t.ZOrder() {
			return e.ZOrder() - t.ZOrder()
		}
		return e.ID() - t.ID()
	})
	d.shapes = slices.Insert(d.shapes, i, s)
}

// AddTopMost assigns the next z-order and adds s.
func (d *Diagram) AddTopMost(s Shape) {
	s.SetZOrder(d.NextZOrder())
	d.Add(s)
}

// Remove detaches s; connections are left to the caller.
func (d *Diagram) Remove(s Shape) bool {
	i := slices.Index(d.shapes, s)
	if i < 0 {
		return false
	}
	d.shapes = slices.Delete(d.shapes, i, i+1)
	return true
}

func (d *Diagram) Contains(s Shape) bool { return slices.Contains(d.shapes, s) }

// Shapes returns the top-level shapes with ascending z-order.
func (d *Diagram) Shapes() []Shape { return slices.Clone(d.shapes) }

func (d *Diagram) Len() int { return len(d.shapes) }

// ShapeByID searches top-level shapes and their descendants.
func (d *Diagram) ShapeByID(id int) Shape {
	var found Shape
	var walk func(ss []Shape)
	walk = func(ss []Shape) {
		for _, s := range ss {
			if found != nil {
				return
			}
			if s.ID() == id {
				found = s
				return
			}
			walk(s.Children())
		}
	}
	walk(d.shapes)
	return found
}

// FindShapes returns the top-level shapes whose hit test at p succeeds,
// front-most first.
func (d *Diagram) FindShapes(p geometry.Point, caps Capabilities, radius int) []Shape {
	reach := max(radius, LineTolerance)
	var out []Shape
	for i := len(d.shapes) - 1; i >= 0; i-- {
		s := d.shapes[i]
		if !s.Bounds().Inflate(reach).Contains(p) {
			continue
		}
		if s.HitTest(p, caps, radius) != NoPoint {
			out = append(out, s)
		}
	}
	return out
}

// FindShape returns the front-most shape hit at p, or nil.
func (d *Diagram) FindShape(p geometry.Point, caps Capabilities, radius int) Shape {
	if ss := d.FindShapes(p, caps, radius); len(ss) > 0 {
		return ss[0]
	}
	return nil
}

// FindShapesInRect returns shapes inside r (completely, or touching when
// complete is false), in ascending z-order.
func (d *Diagram) FindShapesInRect(r geometry.Rect, complete bool) []Shape {
	var out []Shape
	for _, s := range d.shapes {
		b := s.Bounds()
		if complete && r.ContainsRect(b) || !complete && r.Intersects(b) {
			out = append(out, s)
		}
	}
	return out
}
