/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"errors"
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/security"
)

func newRect(d *diagram.Diagram, cx, cy int) *diagram.PlanarShape {
	s := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(cx, cy), 20, 20)
	d.AddTopMost(s)
	return s
}

func TestHistoryUndoRedoBasic(t *testing.T) {
	h := NewHistory(10)
	a := NewMoveShapes(nil, 1, 0)
	b := NewMoveShapes(nil, 2, 0)
	h.Push(a)
	h.Push(b)
	if u, r := h.Stats(); u != 2 || r != 0 {
		t.Fatalf("stats = %d/%d", u, r)
	}
	c, ok := h.Undo()
	if !ok || c != b {
		t.Fatalf("undo expected b, got %v", c)
	}
	c, ok = h.Redo()
	if !ok || c != b {
		t.Fatalf("redo expected b, got %v", c)
	}
	h.Undo()
	h.Push(a)
	if h.CanRedo() {
		t.Fatalf("push must clear redo")
	}
}

func TestHistoryDepthCap(t *testing.T) {
	h := NewHistory(2)
	for i := 0; i < 10; i++ {
		h.Push(NewMoveShapes(nil, i, 0))
	}
	if u, _ := h.Stats(); u != 2 {
		t.Fatalf("expected cap to limit to 2, got %d", u)
	}
}

func TestExecutorUndoRedoMove(t *testing.T) {
	d := diagram.New("d", 100, 100)
	s := newRect(d, 10, 10)
	ex := NewExecutor(security.NewRoleManager(security.Designer), nil)
	var events []EventKind
	ex.AddListener(func(k EventKind, _ Command) { events = append(events, k) })

	if err := ex.Execute(NewMoveShapes([]diagram.Shape{s}, 5, 7)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if s.Center() != geometry.Pt(15, 17) {
		t.Fatalf("center = %v", s.Center())
	}
	if err := ex.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if s.Center() != geometry.Pt(10, 10) {
		t.Fatalf("undo center = %v", s.Center())
	}
	if err := ex.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if s.Center() != geometry.Pt(15, 17) {
		t.Fatalf("redo center = %v", s.Center())
	}
	if err := ex.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
	if len(events) != 3 || events[0] != Executed || events[1] != Undone || events[2] != Redone {
		t.Fatalf("events = %v", events)
	}
}

func TestExecutorDeniesWithoutApplying(t *testing.T) {
	d := diagram.New("d", 100, 100)
	s := newRect(d, 10, 10)
	sec := security.NewRoleManager(security.Designer)
	sec.Deny(s, security.Layout)
	ex := NewExecutor(sec, nil)
	err := ex.Execute(NewAggregated("move", NewMoveShapes([]diagram.Shape{s}, 5, 0)))
	var pe *security.PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if s.Center() != geometry.Pt(10, 10) || ex.CanUndo() {
		t.Fatalf("denied command must not apply")
	}
}

func TestAggregatedRollsBackOnFailure(t *testing.T) {
	d := diagram.New("d", 100, 100)
	a := newRect(d, 10, 10)
	b := newRect(d, 50, 10)
	l := diagram.NewLinearShape(diagram.LineType, geometry.Pt(20, 10), geometry.Pt(40, 10))
	d.AddTopMost(l)
	agg := NewAggregated("connect both",
		NewMoveShapes([]diagram.Shape{a}, 0, 5),
		NewConnect(l, diagram.FirstVertex, a, diagram.MiddleRightPoint),
		// a planar handle is not a glue point
		NewConnect(b, diagram.TopLeftPoint, a, diagram.CenterPoint),
	)
	if err := agg.Execute(); !errors.Is(err, diagram.ErrNotGluePoint) {
		t.Fatalf("expected glue error, got %v", err)
	}
	if a.Center() != geometry.Pt(10, 10) {
		t.Fatalf("move not rolled back: %v", a.Center())
	}
	if diagram.IsConnected(l, diagram.AnyPoint, nil) {
		t.Fatalf("connect not rolled back")
	}
	if l.ControlPointPosition(diagram.FirstVertex) != geometry.Pt(20, 10) {
		t.Fatalf("glue point not restored: %v", l.ControlPointPosition(diagram.FirstVertex))
	}
}

func TestDeleteShapesRestoresConnections(t *testing.T) {
	d := diagram.New("d", 100, 100)
	a := newRect(d, 10, 10)
	l := diagram.NewLinearShape(diagram.LineType, geometry.Pt(20, 10), geometry.Pt(60, 10))
	d.AddTopMost(l)
	if err := diagram.Connect(l, diagram.FirstVertex, a, diagram.MiddleRightPoint); err != nil {
		t.Fatalf("connect: %v", err)
	}
	ex := NewExecutor(nil, nil)
	if err := ex.Execute(NewDeleteShapes(d, a)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if d.Contains(a) || diagram.IsConnected(l, diagram.AnyPoint, nil) {
		t.Fatalf("delete must remove and disconnect")
	}
	if err := ex.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !d.Contains(a) || !diagram.IsConnected(l, diagram.FirstVertex, a) || !diagram.IsConnected(a, diagram.AnyPoint, l) {
		t.Fatalf("undo must restore shape and connection")
	}
}

func TestDisconnectOnlyForConnectedPoints(t *testing.T) {
	d := diagram.New("d", 100, 100)
	a := newRect(d, 10, 10)
	l := diagram.NewLinearShape(diagram.LineType, geometry.Pt(20, 10), geometry.Pt(60, 10))
	d.AddTopMost(l)
	if c, ok := NewDisconnect(l, diagram.LastVertex); ok || c != nil {
		t.Fatalf("loose end: got %v %v", c, ok)
	}
	if err := diagram.Connect(l, diagram.FirstVertex, a, diagram.MiddleRightPoint); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c, ok := NewDisconnect(l, diagram.FirstVertex)
	if !ok || c.Target != a {
		t.Fatalf("glued end: got %v %v", c, ok)
	}

	agg := NewAggregated("release", c, nil)
	if agg.Len() != 1 {
		t.Fatalf("aggregated len: got %d want 1", agg.Len())
	}
	ex := NewExecutor(nil, nil)
	if err := ex.Execute(agg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if diagram.IsConnected(l, diagram.AnyPoint, nil) || diagram.IsConnected(a, diagram.AnyPoint, nil) {
		t.Fatalf("disconnect left an edge")
	}
	if err := ex.Undo(); err != nil || !diagram.IsConnected(l, diagram.FirstVertex, a) {
		t.Fatalf("undo: %v", err)
	}
}

func TestInsertAssignsTopMostZOrder(t *testing.T) {
	d := diagram.New("d", 100, 100)
	newRect(d, 10, 10)
	s := diagram.NewPlanarShape(diagram.EllipseType, geometry.Pt(30, 30), 10, 10)
	if err := NewInsertShapes(d, s).Execute(); err != nil {
		t.Fatalf("insert: %v", err)
	}
	shapes := d.Shapes()
	if shapes[len(shapes)-1] != s || s.ZOrder() != 2 {
		t.Fatalf("inserted shape must be top-most, z=%d", s.ZOrder())
	}
	if err := NewInsertShapes(d, s.CreatePreview()).Execute(); err == nil {
		t.Fatalf("previews must not be inserted")
	}
}

func TestSetCaptionTextRevert(t *testing.T) {
	s := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(0, 0), 40, 40)
	c := NewSetCaptionText(s, 0, "hello")
	if err := c.Execute(); err != nil || s.CaptionText(0) != "hello" {
		t.Fatalf("execute: %v %q", err, s.CaptionText(0))
	}
	if err := c.Revert(); err != nil || s.CaptionText(0) != "" {
		t.Fatalf("revert: %v %q", err, s.CaptionText(0))
	}
	if err := NewSetCaptionText(s, 3, "x").Execute(); !errors.Is(err, diagram.ErrCaptionOutOfRange) {
		t.Fatalf("expected range error, got %v", err)
	}
}
