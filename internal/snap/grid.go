/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap finds where a dragged point should land: on grid lines and
// intersections, or on control points of other shapes.
package snap

import (
	"math"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

// Grid is the snapping configuration of a display.
type Grid struct {
	Size         int
	SnapDistance int
	Enabled      bool
}

// Result is a snap proposal: moving by (DX, DY) lands on the target.
type Result struct {
	Distance float64
	DX, DY   int
}

// NoSnap has infinite distance and zero deltas.
var NoSnap = Result{Distance: math.Inf(1)}

func (r Result) Snapped() bool { return !math.IsInf(r.Distance, 1) }

func floorDiv(v, d int) int {
	q := v / d
	if v%d != 0 && (v < 0) != (d < 0) {
		q--
	}
	return q
}

type lineCandidate struct {
	dist   int
	dx, dy int
}

// FindNearestSnapPoint checks the four surrounding grid lines and their
// intersections. When both axes are within the snap distance and the
// intersection is too, the intersection wins; otherwise the nearest single
// line does, ties resolved in the order above, right, below, left.
func (g Grid) FindNearestSnapPoint(x, y int) Result {
	if !g.Enabled || g.Size <= 0 || g.SnapDistance < 0 {
		return NoSnap
	}
	left := floorDiv(x, g.Size) * g.Size
	top := floorDiv(y, g.Size) * g.Size
	right, bottom := left+g.Size, top+g.Size

	lines := [4]lineCandidate{
		{dist: y - top, dy: top - y},       // above
		{dist: right - x, dx: right - x},   // right
		{dist: bottom - y, dy: bottom - y}, // below
		{dist: x - left, dx: left - x},     // left
	}
	s := g.SnapDistance

	// nearest line per axis, keeping evaluation order on ties
	bestY := lines[0]
	if lines[2].dist < bestY.dist {
		bestY = lines[2]
	}
	bestX := lines[1]
	if lines[3].dist < bestX.dist {
		bestX = lines[3]
	}
	if bestX.dist <= s && bestY.dist <= s {
		d := math.Hypot(float64(bestX.dx), float64(bestY.dy))
		if d <= float64(s) {
			return Result{Distance: d, DX: bestX.dx, DY: bestY.dy}
		}
	}
	res := NoSnap
	for _, l := range lines {
		if l.dist <= s && float64(l.dist) < res.Distance {
			res = Result{Distance: float64(l.dist), DX: l.dx, DY: l.dy}
		}
	}
	return res
}

// FindNearestSnapPointForShape snaps a shape displaced by (dx, dy). The
// bounding box center is sampled first, then the corners clockwise from
// top-left; the globally nearest sample wins.
func (g Grid) FindNearestSnapPointForShape(s diagram.Shape, dx, dy int) Result {
	b := s.Bounds().Offset(dx, dy)
	samples := []geometry.Point{b.Center()}
	for _, c := range b.Corners() {
		samples = append(samples, c)
	}
	res := NoSnap
	for _, p := range samples {
		if r := g.FindNearestSnapPoint(p.X, p.Y); r.Distance < res.Distance {
			res = r
		}
	}
	return res
}

// FindNearestSnapPointForControlPoint snaps one control point displaced by (dx, dy).
func (g Grid) FindNearestSnapPointForControlPoint(s diagram.Shape, id diagram.ControlPointID, dx, dy int) Result {
	p := s.ControlPointPosition(id).Add(dx, dy)
	return g.FindNearestSnapPoint(p.X, p.Y)
}

// SnapPoint returns p moved onto the nearest snap target, or p itself.
func (g Grid) SnapPoint(p geometry.Point) geometry.Point {
	r := g.FindNearestSnapPoint(p.X, p.Y)
	return p.Add(r.DX, r.DY)
}
