/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"math"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

// Index answers spatial queries over the diagram.
type Index interface {
	FindShapes(p geometry.Point, caps diagram.Capabilities, radius int) []diagram.Shape
}

// Request describes the point searching for a connection target.
type Request struct {
	// Shape and PointID identify the moving point; Shape is never a target.
	Shape   diagram.Shape
	PointID diagram.ControlPointID
	// Position is the tentative position of the point.
	Position geometry.Point
	Radius   int
	// Capabilities of target points; zero means CapConnect.
	Capabilities diagram.Capabilities
	Exclude      func(diagram.Shape) bool
	Accept       func(target diagram.Shape, targetPoint diagram.ControlPointID) bool
}

// Target is the result of FindNearestControlPoint. Shape is nil when only
// the grid matched.
type Target struct {
	Shape    diagram.Shape
	PointID  diagram.ControlPointID
	Distance float64
	DX, DY   int
}

// NoTarget is neither a shape nor a grid match.
var NoTarget = Target{PointID: diagram.NoPoint, Distance: math.Inf(1)}

func (t Target) IsShape() bool { return t.Shape != nil }
func (t Target) IsEmpty() bool { return t.Shape == nil && math.IsInf(t.Distance, 1) }

// FindNearestControlPoint searches connectable points near req.Position.
// A body hit on any shape beats every point match; among points the closest
// wins and ties go to the front-most shape. Without any shape match the grid
// is used.
func FindNearestControlPoint(index Index, grid Grid, req Request) Target {
	caps := req.Capabilities
	if caps == diagram.CapNone {
		caps = diagram.CapConnect
	}
	pos := req.Position
	body := NoTarget
	best := NoTarget
	for _, s := range index.FindShapes(pos, caps, req.Radius) {
		if s == req.Shape || (req.Exclude != nil && req.Exclude(s)) {
			continue
		}
		id := s.HitTest(pos, caps, req.Radius)
		switch id {
		case diagram.NoPoint:
			continue
		case diagram.ReferencePoint:
			if body.Shape == nil && accept(req, s, id) {
				body = Target{Shape: s, PointID: id}
			}
		default:
			if !accept(req, s, id) {
				continue
			}
			p := s.ControlPointPosition(id)
			// strict comparison keeps the front-most shape on ties
			if d := geometry.Distance(pos, p); d < best.Distance {
				best = Target{Shape: s, PointID: id, Distance: d, DX: p.X - pos.X, DY: p.Y - pos.Y}
			}
		}
	}
	if body.Shape != nil {
		return body
	}
	if best.Shape != nil {
		return best
	}
	r := grid.FindNearestSnapPoint(pos.X, pos.Y)
	if !r.Snapped() {
		return NoTarget
	}
	return Target{PointID: diagram.NoPoint, Distance: r.Distance, DX: r.DX, DY: r.DY}
}

func accept(req Request, s diagram.Shape, id diagram.ControlPointID) bool {
	return req.Accept == nil || req.Accept(s, id)
}
