/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package library is the static registry of shape templates. Templates are
// built in or loaded from JSON / YAML files validated against an embedded
// schema.
package library

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrDuplicate       = errors.New("duplicate template")
)

// StyleDef is the serialized form of a template style.
type StyleDef struct {
	Fill        string  `json:"fill,omitempty" yaml:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty"`
	Dashed      bool    `json:"dashed,omitempty" yaml:"dashed,omitempty"`
}

// Template describes how to create a shape.
type Template struct {
	Name           string    `json:"name" yaml:"name"`
	Title          string    `json:"title,omitempty" yaml:"title,omitempty"`
	Category       string    `json:"category,omitempty" yaml:"category,omitempty"`
	ShapeType      string    `json:"shape_type" yaml:"shape_type"`
	Width          int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height         int       `json:"height,omitempty" yaml:"height,omitempty"`
	MinVertexCount int       `json:"min_vertices,omitempty" yaml:"min_vertices,omitempty"`
	MaxVertexCount int       `json:"max_vertices,omitempty" yaml:"max_vertices,omitempty"`
	Caption        string    `json:"caption,omitempty" yaml:"caption,omitempty"`
	Style          *StyleDef `json:"style,omitempty" yaml:"style,omitempty"`

	typ   *diagram.ShapeType
	style diagram.Style
}

// Type returns the resolved shape type, including vertex count overrides.
func (t *Template) Type() *diagram.ShapeType { return t.typ }

func (t *Template) IsLinear() bool { return t.typ != nil && t.typ.Kind == diagram.Linear }

// DisplayTitle falls back to the name.
func (t *Template) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// resolve checks the template and derives its type and style.
func (t *Template) resolve() error {
	base, ok := diagram.LookupType(t.ShapeType)
	if !ok || base.Kind == diagram.Composite {
		return fmt.Errorf("template %q: unsupported shape type %q", t.Name, t.ShapeType)
	}
	typ := base
	if base.Kind == diagram.Linear {
		lo, hi := base.MinVertexCount, base.MaxVertexCount
		if t.MinVertexCount > 0 {
			lo = t.MinVertexCount
		}
		if t.MaxVertexCount > 0 {
			hi = t.MaxVertexCount
		}
		if lo < 2 || hi < lo {
			return fmt.Errorf("template %q: invalid vertex range %d..%d", t.Name, lo, hi)
		}
		if lo != base.MinVertexCount || hi != base.MaxVertexCount {
			derived := *base
			derived.MinVertexCount, derived.MaxVertexCount = lo, hi
			typ = &derived
		}
		t.MinVertexCount, t.MaxVertexCount = lo, hi
	}
	if t.Width <= 0 {
		t.Width = 80
	}
	if t.Height <= 0 {
		t.Height = 50
		if base.Kind == diagram.Linear {
			t.Height = 1
		}
	}
	st, err := t.Style.toStyle()
	if err != nil {
		return fmt.Errorf("template %q: %w", t.Name, err)
	}
	t.typ, t.style = typ, st
	return nil
}

func (d *StyleDef) toStyle() (diagram.Style, error) {
	st := diagram.DefaultStyle
	if d == nil {
		return st, nil
	}
	if d.Fill != "" {
		c, err := ParseColor(d.Fill)
		if err != nil {
			return st, err
		}
		st.Fill = diagram.Fill{Color: c, Enabled: c.A > 0}
	}
	if d.Stroke != "" {
		c, err := ParseColor(d.Stroke)
		if err != nil {
			return st, err
		}
		st.Stroke.Color = c
		st.Stroke.Enabled = c.A > 0
	}
	if d.StrokeWidth > 0 {
		st.Stroke.Width = d.StrokeWidth
	}
	st.Stroke.Dashed = d.Dashed
	return st, nil
}

// ParseColor reads #rrggbb or #rrggbbaa.
func ParseColor(s string) (diagram.Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return diagram.Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return diagram.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return diagram.Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// CreateShape builds a real shape centered on the origin. Linear shapes run
// horizontally over the template width with the minimum vertex count.
func (t *Template) CreateShape() diagram.Shape {
	switch t.typ.Kind {
	case diagram.Planar:
		s := diagram.NewPlanarShape(t.typ, geometry.Pt(0, 0), t.Width, t.Height)
		t.decorate(s)
		return s
	case diagram.Linear:
		n := t.typ.MinVertexCount
		pts := make([]geometry.Point, n)
		for i := range pts {
			pts[i] = geometry.Pt(t.Width*i/(n-1)-t.Width/2, 0)
		}
		return t.CreateLinearShape(pts...)
	}
	panic(fmt.Errorf("library: template %q has unsupported kind %v", t.Name, t.typ.Kind))
}

// CreateLinearShape builds a shape of a linear template through pts.
func (t *Template) CreateLinearShape(pts ...geometry.Point) *diagram.LinearShape {
	if !t.IsLinear() {
		panic(fmt.Errorf("library: template %q is not linear", t.Name))
	}
	s := diagram.NewLinearShape(t.typ, pts...)
	t.decorate(s)
	return s
}

func (t *Template) decorate(s diagram.Shape) {
	s.SetStyle(t.style)
	s.SetName(t.DisplayTitle())
	diagram.SetTemplate(s, t.Name)
	if t.Caption != "" && s.CaptionCount() > 0 {
		_ = s.SetCaptionText(0, t.Caption)
	}
}

// CreatePreviewShape builds the preview variant used by creation tools.
func (t *Template) CreatePreviewShape() diagram.Shape {
	return t.CreateShape().CreatePreview()
}

// Registry holds templates by name in registration order.
type Registry struct {
	byName map[string]*Template
	order  []*Template
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Template)}
}

// Add resolves and registers t.
func (r *Registry) Add(t Template) error {
	if t.Name == "" {
		return errors.New("template without name")
	}
	if _, ok := r.byName[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, t.Name)
	}
	if err := t.resolve(); err != nil {
		return err
	}
	tt := &t
	r.byName[t.Name] = tt
	r.order = append(r.order, tt)
	return nil
}

// Lookup returns the template with the given name.
func (r *Registry) Lookup(name string) (*Template, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return t, nil
}

func (r *Registry) Templates() []*Template { return append([]*Template(nil), r.order...) }

func (r *Registry) Len() int { return len(r.order) }

// Builtin returns a registry holding the default templates.
func Builtin() *Registry {
	r := NewRegistry()
	for _, t := range []Template{
		{Name: "rectangle", Title: "Rectangle", Category: "Basic", ShapeType: "Rectangle", Width: 80, Height: 50},
		{Name: "ellipse", Title: "Ellipse", Category: "Basic", ShapeType: "Ellipse", Width: 80, Height: 50},
		{Name: "box", Title: "Rounded Box", Category: "Basic", ShapeType: "RoundedRectangle", Width: 100, Height: 60},
		{Name: "line", Title: "Line", Category: "Connectors", ShapeType: "Line", Width: 80},
		{Name: "polyline", Title: "Polyline", Category: "Connectors", ShapeType: "Polyline", Width: 80},
	} {
		if err := r.Add(t); err != nil {
			panic(err)
		}
	}
	return r
}
