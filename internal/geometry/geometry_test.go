/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"testing"
)

func TestRectContainsAndInflate(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt(10, 20)) || !r.Contains(Pt(110, 70)) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inflate(-5)
	if in.X != 15 || in.Y != 25 || in.Width != 90 || in.Height != 40 {
		t.Fatalf("unexpected inflate: %+v", in)
	}
}

func TestRectFromPointsNormalizes(t *testing.T) {
	r := RectFromPoints(Pt(50, 10), Pt(10, 40))
	if r != R(10, 10, 40, 30) {
		t.Fatalf("got %+v", r)
	}
	if got := r.Union(Rect{}); got != r {
		t.Fatalf("union with empty changed rect: %+v", got)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt(1, 1))
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	inv, ok := m.Invert()
	if !ok {
		t.Fatalf("expected invertible")
	}
	if back := inv.Apply(p); back != Pt(1, 1) {
		t.Fatalf("inverse mismatch: %+v", back)
	}
}

func TestAngleTenths(t *testing.T) {
	c := Pt(0, 0)
	cases := []struct {
		p    Point
		want int
	}{
		{Pt(10, 0), 0},
		{Pt(0, 10), 900},
		{Pt(-10, 0), 1800},
		{Pt(0, -10), 2700},
		{Pt(10, 10), 450},
	}
	for _, tc := range cases {
		if got := AngleTenths(c, tc.p); got != tc.want {
			t.Fatalf("AngleTenths(%v) = %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestSweepAngleNormalized(t *testing.T) {
	if got := SweepAngle(Pt(0, 0), Pt(0, 10), Pt(10, 0)); got != 2700 {
		t.Fatalf("got %d want 2700", got)
	}
	if got := NormalizeAngle(-900); got != 2700 {
		t.Fatalf("got %d", got)
	}
}

func TestRotatePointRoundTrip(t *testing.T) {
	pivot := Pt(100, 100)
	p := Pt(140, 120)
	for _, a := range []int{900, 450, 150, 10, 1} {
		r := RotatePoint(p, pivot, a)
		back := RotatePoint(r, pivot, -a)
		if Abs(back.X-p.X) > 1 || Abs(back.Y-p.Y) > 1 {
			t.Fatalf("angle %d: got %v want %v", a, back, p)
		}
	}
	if got := RotatePoint(Pt(110, 100), pivot, 900); got != Pt(100, 110) {
		t.Fatalf("quarter turn: %v", got)
	}
}

func TestDistancePointSegment(t *testing.T) {
	d := DistancePointSegment(Pt(5, 5), Pt(0, 0), Pt(10, 0))
	if math.Abs(d-5) > 1e-9 {
		t.Fatalf("got %v", d)
	}
	if got := NearestPointOnSegment(Pt(20, 3), Pt(0, 0), Pt(10, 0)); got != Pt(10, 0) {
		t.Fatalf("clamp failed: %v", got)
	}
}

func TestRoundToMultiple(t *testing.T) {
	cases := map[[2]int]int{{14, 10}: 10, {15, 10}: 20, {-14, 10}: -10, {7, 1}: 7, {449, 150}: 450}
	for in, want := range cases {
		if got := RoundToMultiple(in[0], in[1]); got != want {
			t.Fatalf("RoundToMultiple(%d,%d)=%d want %d", in[0], in[1], got, want)
		}
	}
}
