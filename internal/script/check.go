/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"slices"

	"godiagram/internal/diagram"
)

func (rn *run) expectf(format string, args ...any) error {
	return &ExpectationError{Step: rn.step, Msg: fmt.Sprintf(format, args...)}
}

// shape resolves a script id or "top".
func (rn *run) shape(ref string) (diagram.Shape, error) {
	if ref == "top" {
		shapes := rn.p.Diagram().Shapes()
		if len(shapes) == 0 {
			return nil, rn.expectf("diagram has no shapes")
		}
		return shapes[len(shapes)-1], nil
	}
	s, ok := rn.refs[ref]
	if !ok {
		return nil, rn.expectf("unknown shape %q", ref)
	}
	return s, nil
}

func (rn *run) check(e *Expect) error {
	p := rn.p
	if e.Shapes != nil && p.Diagram().Len() != *e.Shapes {
		return rn.expectf("shapes = %d, want %d", p.Diagram().Len(), *e.Shapes)
	}
	if e.Selected != nil && len(p.SelectedShapes()) != *e.Selected {
		return rn.expectf("selected = %d, want %d", len(p.SelectedShapes()), *e.Selected)
	}
	if e.Pending != nil && p.Tool().IsToolActionPending() != *e.Pending {
		return rn.expectf("pending = %t, want %t", !*e.Pending, *e.Pending)
	}
	if e.CanUndo != nil && p.Executor().CanUndo() != *e.CanUndo {
		return rn.expectf("can_undo = %t, want %t", !*e.CanUndo, *e.CanUndo)
	}
	if e.CanRedo != nil && p.Executor().CanRedo() != *e.CanRedo {
		return rn.expectf("can_redo = %t, want %t", !*e.CanRedo, *e.CanRedo)
	}
	if e.Errors != nil && len(rn.res.Errors) != *e.Errors {
		return rn.expectf("errors = %d, want %d", len(rn.res.Errors), *e.Errors)
	}
	if e.Cursor != "" && p.Cursor().String() != e.Cursor {
		return rn.expectf("cursor = %s, want %s", p.Cursor(), e.Cursor)
	}
	for _, se := range e.Shape {
		if err := rn.checkShape(se); err != nil {
			return err
		}
	}
	for _, ce := range e.Connected {
		if err := rn.checkConnection(ce); err != nil {
			return err
		}
	}
	return nil
}

func (rn *run) checkShape(se ShapeExpect) error {
	s, err := rn.shape(se.Ref)
	if err != nil {
		return err
	}
	if se.At != nil && s.Location() != se.At.Point() {
		return rn.expectf("%s at %v, want %v", se.Ref, s.Location(), se.At.Point())
	}
	if se.Template != "" && s.Template() != se.Template {
		return rn.expectf("%s template %q, want %q", se.Ref, s.Template(), se.Template)
	}
	if se.Caption != nil && s.CaptionText(0) != *se.Caption {
		return rn.expectf("%s caption %q, want %q", se.Ref, s.CaptionText(0), *se.Caption)
	}
	if se.Selected != nil && rn.p.IsSelected(s) != *se.Selected {
		return rn.expectf("%s selected = %t, want %t", se.Ref, !*se.Selected, *se.Selected)
	}
	if se.Size != nil || se.Angle != nil {
		ps, ok := s.(*diagram.PlanarShape)
		if !ok {
			return rn.expectf("%s is not planar", se.Ref)
		}
		if se.Size != nil && (ps.Width() != se.Size.X || ps.Height() != se.Size.Y) {
			return rn.expectf("%s size %dx%d, want %dx%d", se.Ref, ps.Width(), ps.Height(), se.Size.X, se.Size.Y)
		}
		if se.Angle != nil && ps.Angle() != *se.Angle {
			return rn.expectf("%s angle %d, want %d", se.Ref, ps.Angle(), *se.Angle)
		}
	}
	if se.Vertices != nil {
		ls, ok := s.(*diagram.LinearShape)
		if !ok {
			return rn.expectf("%s is not linear", se.Ref)
		}
		var got, want []string
		for _, id := range ls.Vertices() {
			got = append(got, fmt.Sprint(ls.ControlPointPosition(id)))
		}
		for _, v := range se.Vertices {
			want = append(want, fmt.Sprint(v.Point()))
		}
		if !slices.Equal(got, want) {
			return rn.expectf("%s vertices %v, want %v", se.Ref, got, want)
		}
	}
	return nil
}

func (rn *run) checkConnection(ce ConnExpect) error {
	s, err := rn.shape(ce.Ref)
	if err != nil {
		return err
	}
	ci := diagram.GlueConnection(s, ce.Point.ID)
	if ce.To == "" {
		if !ci.IsEmpty() {
			return rn.expectf("%s %s is connected to shape %d", ce.Ref, ce.Point.ID, ci.OtherShape.ID())
		}
		return nil
	}
	target, err := rn.shape(ce.To)
	if err != nil {
		return err
	}
	if ci.OtherShape != target {
		return rn.expectf("%s %s is not connected to %s", ce.Ref, ce.Point.ID, ce.To)
	}
	if ce.ToPoint.Set && ci.OtherPointID != ce.ToPoint.ID {
		return rn.expectf("%s %s connected to point %s, want %s", ce.Ref, ce.Point.ID, ci.OtherPointID, ce.ToPoint.ID)
	}
	return nil
}
