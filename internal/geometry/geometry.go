/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry holds the integer 2D primitives shared by the diagram model,
// the snap engine and the tools. Diagram coordinates are integers; angles are
// integer tenths of a degree, clockwise in screen space (y grows downwards).
package geometry

import "math"

// FullCircle is 360° in tenths of a degree.
const FullCircle = 3600

// Point is a 2D point in diagram coordinates.
type Point struct{ X, Y int }

// Pt is a short constructor for Point.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) Add(dx, dy int) Point { return Point{p.X + dx, p.Y + dy} }
func (p Point) Sub(o Point) Point    { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) IsZero() bool         { return p.X == 0 && p.Y == 0 }

// Rect is an axis-aligned rectangle defined by its min corner and size.
type Rect struct {
	X, Y          int
	Width, Height int
}

func R(x, y, w, h int) Rect { return Rect{X: x, Y: y, Width: w, Height: h} }

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	x0, x1 := minInt(a.X, b.X), maxInt(a.X, b.X)
	y0, y1 := minInt(a.Y, b.Y), maxInt(a.Y, b.Y)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (r Rect) Left() int    { return r.X }
func (r Rect) Top() int     { return r.Y }
func (r Rect) Right() int   { return r.X + r.Width }
func (r Rect) Bottom() int  { return r.Y + r.Height }
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }
func (r Rect) IsEmpty() bool { return r.Width <= 0 && r.Height <= 0 }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.Width && p.Y <= r.Y+r.Height
}

// ContainsRect reports whether o lies completely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether both rectangles overlap (touching edges count).
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.Right() && o.X <= r.Right() && r.Y <= o.Bottom() && o.Y <= r.Bottom()
}

// Inflate returns a rectangle grown by d on every side (negative shrinks).
func (r Rect) Inflate(d int) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Offset returns r moved by dx, dy.
func (r Rect) Offset(dx, dy int) Rect { return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height} }

// Union returns the minimal rect containing both. An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	minX := minInt(r.X, o.X)
	minY := minInt(r.Y, o.Y)
	maxX := maxInt(r.Right(), o.Right())
	maxY := maxInt(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Corners returns the corners clockwise starting at top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{r.X, r.Y},
		{r.Right(), r.Y},
		{r.Right(), r.Bottom()},
		{r.X, r.Bottom()},
	}
}

// BoundsOf returns the bounding rectangle of the given points.
func BoundsOf(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = minInt(minX, p.X)
		minY = minInt(minY, p.Y)
		maxX = maxInt(maxX, p.X)
		maxY = maxInt(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Hypot(dx, dy)
}

// DistanceSquared avoids the square root for comparisons.
func DistanceSquared(a, b Point) int {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// NormalizeAngle maps any angle in tenths of a degree into [0, 3600).
func NormalizeAngle(tenths int) int {
	a := tenths % FullCircle
	if a < 0 {
		a += FullCircle
	}
	return a
}

// AngleTenths returns the direction of p as seen from center, in tenths of a
// degree within [0, 3600). The angle of center itself is 0.
func AngleTenths(center, p Point) int {
	if center == p {
		return 0
	}
	rad := math.Atan2(float64(p.Y-center.Y), float64(p.X-center.X))
	return NormalizeAngle(int(math.Round(RadiansToTenths(rad))))
}

// SweepAngle is the signed angle from pivot→from to pivot→to, normalized to [0, 3600).
func SweepAngle(pivot, from, to Point) int {
	return NormalizeAngle(AngleTenths(pivot, to) - AngleTenths(pivot, from))
}

func TenthsToRadians(tenths int) float64 { return float64(tenths) * math.Pi / 1800 }
func RadiansToTenths(rad float64) float64 { return rad * 1800 / math.Pi }

// RotatePoint rotates p around pivot by the given angle and rounds to the
// nearest integer position.
func RotatePoint(p, pivot Point, tenths int) Point {
	if NormalizeAngle(tenths) == 0 {
		return p
	}
	x, y := RotateFloat(float64(p.X), float64(p.Y), float64(pivot.X), float64(pivot.Y), tenths)
	return Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// RotateFloat rotates (x, y) around (px, py) without rounding.
func RotateFloat(x, y, px, py float64, tenths int) (float64, float64) {
	// exact quarter turns avoid sin/cos noise
	switch NormalizeAngle(tenths) {
	case 0:
		return x, y
	case 900:
		return px - (y - py), py + (x - px)
	case 1800:
		return px - (x - px), py - (y - py)
	case 2700:
		return px + (y - py), py - (x - px)
	}
	rad := TenthsToRadians(tenths)
	s, c := math.Sincos(rad)
	dx, dy := x-px, y-py
	return px + dx*c - dy*s, py + dx*s + dy*c
}

// RoundToMultiple rounds v to the nearest multiple of step (step <= 1 returns v).
func RoundToMultiple(v, step int) int {
	if step <= 1 {
		return v
	}
	if v >= 0 {
		return ((v + step/2) / step) * step
	}
	return -(((-v) + step/2) / step) * step
}

// NearestPointOnSegment returns the point on segment a-b closest to p.
func NearestPointOnSegment(p, a, b Point) Point {
	abx := float64(b.X - a.X)
	aby := float64(b.Y - a.Y)
	l2 := abx*abx + aby*aby
	if l2 == 0 {
		return a
	}
	t := (float64(p.X-a.X)*abx + float64(p.Y-a.Y)*aby) / l2
	t = math.Max(0, math.Min(1, t))
	return Point{X: a.X + int(math.Round(t*abx)), Y: a.Y + int(math.Round(t*aby))}
}

// DistancePointSegment is the distance from p to the segment a-b.
func DistancePointSegment(p, a, b Point) float64 {
	abx := float64(b.X - a.X)
	aby := float64(b.Y - a.Y)
	l2 := abx*abx + aby*aby
	if l2 == 0 {
		return Distance(p, a)
	}
	t := (float64(p.X-a.X)*abx + float64(p.Y-a.Y)*aby) / l2
	t = math.Max(0, math.Min(1, t))
	cx := float64(a.X) + t*abx
	cy := float64(a.Y) + t*aby
	return math.Hypot(float64(p.X)-cx, float64(p.Y)-cy)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
