/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package security

import (
	"errors"
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

func TestRoleTable(t *testing.T) {
	if !NewRoleManager(Designer).IsGranted(Layout | Insert) {
		t.Fatalf("designer must lay out and insert")
	}
	if NewRoleManager(Guest).IsGranted(Layout) {
		t.Fatalf("guest must not lay out")
	}
	if NewRoleManager(Role("nobody")).Role() != Guest {
		t.Fatalf("unknown role must fall back to guest")
	}
}

func TestDenyOverridesPerShape(t *testing.T) {
	m := NewRoleManager(Administrator)
	a := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(0, 0), 10, 10)
	b := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(20, 0), 10, 10)
	m.Deny(a, Layout)
	if m.IsGranted(Layout, a, b) {
		t.Fatalf("denied shape in list must fail")
	}
	if !m.IsGranted(Layout, b) || !m.IsGranted(Connect, a) {
		t.Fatalf("denial must be specific to shape and permission")
	}
	err := Check(m, Layout, b, a)
	var pe *PermissionError
	if !errors.As(err, &pe) || pe.Shape != a || pe.Permission != Layout {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Allow(a, Layout)
	if err := Check(m, Layout, a); err != nil {
		t.Fatalf("allow did not restore: %v", err)
	}
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("layout|connect")
	if err != nil || p != Layout|Connect {
		t.Fatalf("got %v, %v", p, err)
	}
	if p.String() != "layout|connect" {
		t.Fatalf("string = %q", p.String())
	}
	if _, err := ParsePermission("fly"); err == nil {
		t.Fatalf("expected error")
	}
	if r, err := ParseRole("Designer"); err != nil || r != Designer {
		t.Fatalf("role parse: %v %v", r, err)
	}
}
