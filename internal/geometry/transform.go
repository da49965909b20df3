/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
// Hosts use it to map screen pixels to diagram units and back.
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// ApplyXY transforms a float coordinate pair.
func (m Affine2D) ApplyXY(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// Apply transforms p and rounds to the nearest integer point.
func (m Affine2D) Apply(p Point) Point {
	x, y := m.ApplyXY(float64(p.X), float64(p.Y))
	return Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// Invert returns the inverse transform. ok is false for singular matrices.
func (m Affine2D) Invert() (Affine2D, bool) {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Affine2D{}, false
	}
	inv := 1 / det
	a := m.D * inv
	b := -m.B * inv
	c := -m.C * inv
	d := m.A * inv
	return Affine2D{
		A: a, B: b, C: c, D: d,
		E: -(a*m.E + c*m.F),
		F: -(b*m.E + d*m.F),
	}, true
}

// ScaleFactor is the uniform scale of m, assuming no shear.
func (m Affine2D) ScaleFactor() float64 { return math.Hypot(m.A, m.B) }

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }
func Rotate(tenths int) Affine2D {
	s, c := math.Sincos(TenthsToRadians(tenths))
	return Affine2D{A: c, B: s, C: -s, D: c}
}
