/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package diagram contains the shape model: control points and their
// capabilities, the connection graph between shapes, and the Diagram
// collection that answers spatial queries for the tools.
package diagram

import (
	"fmt"
	"sort"
)

// ControlPointID identifies a control point local to one shape. Regular
// points are positive; the negative values are reserved.
type ControlPointID int

const (
	NoPoint        ControlPointID = 0
	ReferencePoint ControlPointID = -1
	AnyPoint       ControlPointID = -2
	FirstVertex    ControlPointID = -3
	LastVertex     ControlPointID = -4
)

func (id ControlPointID) String() string {
	switch id {
	case NoPoint:
		return "None"
	case ReferencePoint:
		return "Reference"
	case AnyPoint:
		return "Any"
	case FirstVertex:
		return "FirstVertex"
	case LastVertex:
		return "LastVertex"
	}
	return fmt.Sprintf("%d", int(id))
}

// Capabilities is a bit set describing what a control point supports.
type Capabilities uint8

const (
	CapConnect Capabilities = 1 << iota
	CapGlue
	CapResize
	CapRotate
	CapReference

	CapNone Capabilities = 0
	CapAll               = CapConnect | CapGlue | CapResize | CapRotate | CapReference
)

// Any reports whether c shares at least one flag with o.
func (c Capabilities) Any(o Capabilities) bool { return c&o != 0 }

// Has reports whether c contains every flag of o.
func (c Capabilities) Has(o Capabilities) bool { return c&o == o }

// ConnectionInfo describes one edge of the connection graph as seen from the
// shape that stores it.
type ConnectionInfo struct {
	OwnPointID   ControlPointID
	OtherShape   Shape
	OtherPointID ControlPointID
}

// EmptyConnection is returned when a point has no connection.
var EmptyConnection = ConnectionInfo{}

func (c ConnectionInfo) IsEmpty() bool { return c.OtherShape == nil }

// ResizeModifiers change how a handle drag resizes a planar shape.
type ResizeModifiers uint8

const (
	// MaintainAspect keeps the width/height ratio on corner handles.
	MaintainAspect ResizeModifiers = 1 << iota
	// MirroredResize resizes symmetrically around the center.
	MirroredResize

	ResizeNone ResizeModifiers = 0
)

// Kind groups shape types by geometry.
type Kind int

const (
	Planar Kind = iota
	Linear
	Composite
)

func (k Kind) String() string {
	switch k {
	case Planar:
		return "planar"
	case Linear:
		return "linear"
	case Composite:
		return "composite"
	}
	return "unknown"
}

// Outline selects the body geometry of planar types.
type Outline int

const (
	OutlineRect Outline = iota
	OutlineEllipse
	OutlineRoundedRect
)

// ShapeType is an entry of the static type registry.
type ShapeType struct {
	Name           string
	Kind           Kind
	Outline        Outline
	MinVertexCount int
	MaxVertexCount int
}

var (
	RectangleType        = &ShapeType{Name: "Rectangle", Kind: Planar, Outline: OutlineRect}
	EllipseType          = &ShapeType{Name: "Ellipse", Kind: Planar, Outline: OutlineEllipse}
	RoundedRectangleType = &ShapeType{Name: "RoundedRectangle", Kind: Planar, Outline: OutlineRoundedRect}
	LineType             = &ShapeType{Name: "Line", Kind: Linear, MinVertexCount: 2, MaxVertexCount: 2}
	PolylineType         = &ShapeType{Name: "Polyline", Kind: Linear, MinVertexCount: 2, MaxVertexCount: 16}
	GroupType            = &ShapeType{Name: "Group", Kind: Composite}
)

var registry = map[string]*ShapeType{
	RectangleType.Name:        RectangleType,
	EllipseType.Name:          EllipseType,
	RoundedRectangleType.Name: RoundedRectangleType,
	LineType.Name:             LineType,
	PolylineType.Name:         PolylineType,
	GroupType.Name:            GroupType,
}

// LookupType resolves a registered shape type by name.
func LookupType(name string) (*ShapeType, bool) {
	t, ok := registry[name]
	return t, ok
}

// Types returns all registered types sorted by name.
func Types() []*ShapeType {
	out := make([]*ShapeType, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
