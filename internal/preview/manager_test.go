/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

// fixture: a and b are rectangles, l is glued from a's right edge to b's left edge.
func fixture(t *testing.T) (a, b *diagram.PlanarShape, l *diagram.LinearShape) {
	t.Helper()
	a = diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(100, 100), 40, 40)
	b = diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(300, 100), 40, 40)
	l = diagram.NewLinearShape(diagram.LineType, geometry.Pt(0, 0), geometry.Pt(10, 10))
	if err := diagram.Connect(l, diagram.FirstVertex, a, diagram.MiddleRightPoint); err != nil {
		t.Fatalf("connect a: %v", err)
	}
	if err := diagram.Connect(l, diagram.LastVertex, b, diagram.MiddleLeftPoint); err != nil {
		t.Fatalf("connect b: %v", err)
	}
	return a, b, l
}

func TestBiMapKeepsBothDirections(t *testing.T) {
	m := NewBiMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	if k, ok := m.Key(2); !ok || k != "b" {
		t.Fatalf("key of 2: got %q %v", k, ok)
	}
	m.Delete("a")
	if _, ok := m.Key(1); ok {
		t.Fatalf("reverse entry survived delete")
	}
	if !m.Consistent() || m.Len() != 1 {
		t.Fatalf("inconsistent after delete")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate value")
		}
	}()
	m.Put("c", 2)
}

func TestFollowerIsPreviewed(t *testing.T) {
	a, b, l := fixture(t)
	m := NewManager(nil)
	m.CreatePreviewShapes([]diagram.Shape{a}, nil, diagram.NoPoint)

	if !m.HasPreview(l) || m.HasPreview(b) {
		t.Fatalf("want line previewed and b not")
	}
	if got := m.Original(m.Preview(a)); got != a {
		t.Fatalf("original of preview mismatch")
	}
	pa, pl := m.Preview(a), m.Preview(l)
	if ci := diagram.GlueConnection(pl, diagram.FirstVertex); ci.OtherShape != pa {
		t.Fatalf("first vertex should follow preview of a, got %v", ci.OtherShape)
	}
	if ci := diagram.GlueConnection(pl, diagram.LastVertex); ci.OtherShape != b {
		t.Fatalf("last vertex should stay on real b, got %v", ci.OtherShape)
	}
	if diagram.IsConnected(b, diagram.AnyPoint, pl) {
		t.Fatalf("real shape must not know about previews")
	}

	pa.MoveBy(10, 0)
	if got := pl.ControlPointPosition(diagram.FirstVertex); got != geometry.Pt(130, 100) {
		t.Fatalf("preview line start: got %v want (130,100)", got)
	}
	if got := l.ControlPointPosition(diagram.FirstVertex); got != geometry.Pt(120, 100) {
		t.Fatalf("original line moved: %v", got)
	}
	if !m.Consistent() {
		t.Fatalf("mapping inconsistent")
	}
}

// chain: p1 starts on a's right edge, p2 starts on p1's middle vertex and
// p1 ends on p2's middle vertex, closing a loop between the polylines.
func chain(t *testing.T) (a *diagram.PlanarShape, p1, p2 *diagram.LinearShape) {
	t.Helper()
	a = diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(100, 100), 40, 40)
	p1 = diagram.NewLinearShape(diagram.PolylineType, geometry.Pt(0, 0), geometry.Pt(200, 100), geometry.Pt(250, 150))
	p2 = diagram.NewLinearShape(diagram.PolylineType, geometry.Pt(0, 0), geometry.Pt(250, 200), geometry.Pt(300, 250))
	if err := diagram.Connect(p1, diagram.FirstVertex, a, diagram.MiddleRightPoint); err != nil {
		t.Fatalf("connect p1 to a: %v", err)
	}
	if err := diagram.Connect(p2, diagram.FirstVertex, p1, p1.Vertices()[1]); err != nil {
		t.Fatalf("connect p2 to p1: %v", err)
	}
	if err := diagram.Connect(p1, diagram.LastVertex, p2, p2.Vertices()[1]); err != nil {
		t.Fatalf("connect p1 to p2: %v", err)
	}
	return a, p1, p2
}

func TestSecondOrderFollowersInLoop(t *testing.T) {
	a, p1, p2 := chain(t)
	m := NewManager(nil)
	m.CreatePreviewShapes([]diagram.Shape{a}, nil, diagram.NoPoint)

	if m.Len() != 3 || !m.HasPreview(p1) || !m.HasPreview(p2) {
		t.Fatalf("len %d, want a, p1 and p2 previewed", m.Len())
	}
	if !m.Consistent() {
		t.Fatalf("mapping inconsistent")
	}
	pa, pp1, pp2 := m.Preview(a), m.Preview(p1), m.Preview(p2)
	if ci := diagram.GlueConnection(pp1, diagram.FirstVertex); ci.OtherShape != pa {
		t.Fatalf("p1 start: got %v want preview of a", ci.OtherShape)
	}
	ci := diagram.GlueConnection(pp2, diagram.FirstVertex)
	if ci.OtherShape != pp1 || ci.OtherPointID != p1.Vertices()[1] {
		t.Fatalf("p2 start: got %v/%v want preview of p1 at its middle vertex", ci.OtherShape, ci.OtherPointID)
	}
	if ci := diagram.GlueConnection(pp1, diagram.LastVertex); ci.OtherShape != pp2 {
		t.Fatalf("p1 end: got %v want preview of p2", ci.OtherShape)
	}
	if diagram.IsConnected(p1, diagram.AnyPoint, pp2) || diagram.IsConnected(p2, diagram.AnyPoint, pp1) {
		t.Fatalf("real shapes must not know about previews")
	}

	m.Clear()
	if !m.IsEmpty() || m.pairs.Len() != 0 {
		t.Fatalf("clear left %d entries", m.pairs.Len())
	}
	for _, pv := range []diagram.Shape{pa, pp1, pp2} {
		if _, ok := m.pairs.Key(pv); ok {
			t.Fatalf("reverse entry survived clear")
		}
		if diagram.IsConnected(pv, diagram.AnyPoint, nil) {
			t.Fatalf("cleared preview still connected")
		}
	}
	if !diagram.IsConnected(p2, diagram.FirstVertex, p1) {
		t.Fatalf("clear touched the originals")
	}
}

func TestSelectedPairWithOutsideGlue(t *testing.T) {
	a, b, l := fixture(t)
	m := NewManager(nil)
	m.CreatePreviewShapes([]diagram.Shape{a, l}, nil, diagram.NoPoint)

	pl := m.Preview(l)
	if ci := diagram.GlueConnection(pl, diagram.FirstVertex); ci.OtherShape != m.Preview(a) {
		t.Fatalf("line glued outside the selection must link previews")
	}
	if ci := diagram.GlueConnection(pl, diagram.LastVertex); ci.OtherShape != b {
		t.Fatalf("last vertex: got %v", ci.OtherShape)
	}
}

func TestFullySelectedConnectionIsSkipped(t *testing.T) {
	a, b, l := fixture(t)
	m := NewManager(nil)
	m.CreatePreviewShapes([]diagram.Shape{a, b, l}, nil, diagram.NoPoint)
	if diagram.IsConnected(m.Preview(l), diagram.AnyPoint, nil) {
		t.Fatalf("previews moving together need no connections")
	}
}

func TestMovedGluePointStaysLoose(t *testing.T) {
	a, _, l := fixture(t)
	m := NewManager(nil)
	m.CreatePreviewShapes([]diagram.Shape{l}, l, diagram.LastVertex)
	pl := m.Preview(l)
	if !diagram.GlueConnection(pl, diagram.LastVertex).IsEmpty() {
		t.Fatalf("dragged glue point must not be connected")
	}
	if ci := diagram.GlueConnection(pl, diagram.FirstVertex); ci.OtherShape != a {
		t.Fatalf("other end should stay on real a")
	}
}

func TestResetAndClear(t *testing.T) {
	a, _, l := fixture(t)
	var invalidated int
	m := NewManager(func(diagram.Shape) { invalidated++ })
	m.CreatePreviewShapes([]diagram.Shape{a}, nil, diagram.NoPoint)

	pa := m.Preview(a)
	pa.MoveBy(25, 5)
	m.Reset()
	if pa.Location() != a.Location() {
		t.Fatalf("reset: got %v want %v", pa.Location(), a.Location())
	}
	if got := m.Preview(l).ControlPointPosition(diagram.FirstVertex); got != geometry.Pt(120, 100) {
		t.Fatalf("reset line: got %v", got)
	}

	m.Clear()
	if invalidated != 2 {
		t.Fatalf("invalidated %d previews, want 2", invalidated)
	}
	if !m.IsEmpty() || m.HasPreview(a) {
		t.Fatalf("clear left entries")
	}
	if diagram.IsConnected(pa, diagram.AnyPoint, nil) {
		t.Fatalf("cleared preview still connected")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for missing preview")
		}
	}()
	m.Preview(a)
}

func TestGroupChildrenAreMapped(t *testing.T) {
	c1 := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(0, 0), 10, 10)
	c2 := diagram.NewPlanarShape(diagram.EllipseType, geometry.Pt(40, 0), 10, 10)
	g := diagram.NewGroup(c1, c2)
	m := NewManager(nil)
	m.CreatePreviewShapes([]diagram.Shape{g}, nil, diagram.NoPoint)
	if m.Len() != 3 {
		t.Fatalf("len: got %d want 3", m.Len())
	}
	if !m.Preview(c2).IsPreview() || m.Preview(c2).Parent() != m.Preview(g) {
		t.Fatalf("child preview not under group preview")
	}
	if got := len(m.Originals()); got != 1 {
		t.Fatalf("originals: got %d want 1", got)
	}
}
