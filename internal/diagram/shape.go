/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"errors"
	"fmt"

	"godiagram/internal/geometry"
)

var (
	ErrNotGluePoint      = errors.New("control point is not a glue point")
	ErrNotConnectable    = errors.New("control point does not accept connections")
	ErrGluePointInUse    = errors.New("glue point is already connected")
	ErrSelfConnection    = errors.New("shape cannot connect to itself")
	ErrNotConnected      = errors.New("glue point is not connected to the given target")
	ErrCaptionOutOfRange = errors.New("caption index out of range")
)

// Shape is a diagram entity. The set of implementations is closed: planar
// shapes, linear shapes and groups.
type Shape interface {
	ID() int
	Type() *ShapeType
	Name() string
	SetName(string)
	Template() string
	Parent() Shape
	Children() []Shape
	ZOrder() int
	SetZOrder(int)
	IsPreview() bool
	Style() Style
	SetStyle(Style)

	// Location is the position of the reference point.
	Location() geometry.Point
	Bounds() geometry.Rect

	// ControlPointIDs lists the points sharing at least one flag with caps.
	ControlPointIDs(caps Capabilities) []ControlPointID
	ControlPointPosition(id ControlPointID) geometry.Point
	HasControlPointCapability(id ControlPointID, caps Capabilities) bool

	MoveBy(dx, dy int) bool
	MoveTo(x, y int) bool
	MoveControlPointBy(id ControlPointID, dx, dy int, mods ResizeModifiers) bool
	Rotate(tenths int, pivot geometry.Point) bool

	// ContainsPoint tests the fill region, or the stroke for linear shapes.
	ContainsPoint(p geometry.Point) bool
	// HitTest returns the nearest point within radius that matches caps, else
	// ReferencePoint when the body is hit, else NoPoint. CapNone tests the body only.
	HitTest(p geometry.Point, caps Capabilities, radius int) ControlPointID

	CaptionCount() int
	CaptionText(index int) string
	SetCaptionText(index int, text string) error
	CaptionBounds(index int) geometry.Rect
	CaptionIndexAt(p geometry.Point) int

	// Connections filters the stored edges. AnyPoint and nil act as wildcards.
	Connections(own ControlPointID, other Shape) []ConnectionInfo
	FollowConnectionPointWithGluePoint(gluePoint ControlPointID, target Shape, targetPoint ControlPointID)
	CalculateConnectionFoot(from geometry.Point) geometry.Point

	// Clone copies geometry, style and captions but no connections or id.
	Clone() Shape
	CreatePreview() Shape
	// AssignGeometry copies only the geometry of src, which must have the same type.
	AssignGeometry(src Shape)

	base() *shapeBase
	resolvePoint(id ControlPointID) ControlPointID
	referenceCaps() Capabilities
}

type shapeBase struct {
	self        Shape
	id          int
	typ         *ShapeType
	name        string
	template    string
	parent      Shape
	z           int
	style       Style
	preview     bool
	captions    []string
	connections []ConnectionInfo

	suspended int
	following bool
}

func (b *shapeBase) ID() int               { return b.id }
func (b *shapeBase) Type() *ShapeType      { return b.typ }
func (b *shapeBase) Name() string          { return b.name }
func (b *shapeBase) SetName(n string)      { b.name = n }
func (b *shapeBase) Template() string      { return b.template }
func (b *shapeBase) Parent() Shape         { return b.parent }
func (b *shapeBase) ZOrder() int           { return b.z }
func (b *shapeBase) SetZOrder(z int)       { b.z = z }
func (b *shapeBase) IsPreview() bool       { return b.preview }
func (b *shapeBase) Style() Style          { return b.style }
func (b *shapeBase) SetStyle(s Style)      { b.style = s }
func (b *shapeBase) base() *shapeBase      { return b }
func (b *shapeBase) CaptionCount() int     { return len(b.captions) }
func (b *shapeBase) Children() []Shape     { return nil }
func (b *shapeBase) referenceCaps() Capabilities { return CapReference }

// SetTemplate records the template a shape was created from.
func SetTemplate(s Shape, name string) { s.base().template = name }

func (b *shapeBase) CaptionText(index int) string {
	if index < 0 || index >= len(b.captions) {
		return ""
	}
	return b.captions[index]
}

func (b *shapeBase) SetCaptionText(index int, text string) error {
	if index < 0 || index >= len(b.captions) {
		return fmt.Errorf("%w: %d", ErrCaptionOutOfRange, index)
	}
	b.captions[index] = text
	return nil
}

func (b *shapeBase) Connections(own ControlPointID, other Shape) []ConnectionInfo {
	if own != AnyPoint && own != ReferencePoint {
		own = b.self.resolvePoint(own)
	}
	var out []ConnectionInfo
	for _, ci := range b.connections {
		if own != AnyPoint && ci.OwnPointID != own {
			continue
		}
		if other != nil && ci.OtherShape != other {
			continue
		}
		out = append(out, ci)
	}
	return out
}

// copyBase copies the non-geometry state shared by clones.
func (b *shapeBase) copyBase(dst *shapeBase) {
	dst.typ = b.typ
	dst.name = b.name
	dst.template = b.template
	dst.z = b.z
	dst.style = b.style
	dst.captions = append([]string(nil), b.captions...)
}

// notifyFollowers lets every shape glued to this one follow its new geometry.
// skip excludes shapes that were transformed in the same batch.
func (b *shapeBase) notifyFollowers(skip map[Shape]bool) {
	if b.suspended > 0 {
		return
	}
	// followers may connect or disconnect while following
	edges := append([]ConnectionInfo(nil), b.connections...)
	for _, ci := range edges {
		if skip[ci.OtherShape] {
			continue
		}
		if !ci.OtherShape.HasControlPointCapability(ci.OtherPointID, CapGlue) {
			continue
		}
		ci.OtherShape.FollowConnectionPointWithGluePoint(ci.OtherPointID, b.self, ci.OwnPointID)
	}
}

// GlueConnection returns the connection of a glue point, or EmptyConnection.
func GlueConnection(s Shape, gluePoint ControlPointID) ConnectionInfo {
	cs := s.Connections(gluePoint, nil)
	for _, ci := range cs {
		if s.HasControlPointCapability(ci.OwnPointID, CapGlue) {
			return ci
		}
	}
	return EmptyConnection
}

// IsConnected reports whether any point of s is connected to other (nil matches any shape).
func IsConnected(s Shape, own ControlPointID, other Shape) bool {
	return len(s.Connections(own, other)) > 0
}

// Connect glues gluePoint of s to targetPoint of target and lets the glue
// point follow the target. The reciprocal edge is stored only when both
// shapes are previews or both are real.
func Connect(s Shape, gluePoint ControlPointID, target Shape, targetPoint ControlPointID) error {
	if s == target {
		return ErrSelfConnection
	}
	gluePoint = s.resolvePoint(gluePoint)
	if !s.HasControlPointCapability(gluePoint, CapGlue) {
		return fmt.Errorf("%w: %s of %s", ErrNotGluePoint, gluePoint, s.Type().Name)
	}
	if targetPoint != ReferencePoint {
		targetPoint = target.resolvePoint(targetPoint)
	}
	if !target.HasControlPointCapability(targetPoint, CapConnect) {
		return fmt.Errorf("%w: %s of %s", ErrNotConnectable, targetPoint, target.Type().Name)
	}
	if !GlueConnection(s, gluePoint).IsEmpty() {
		return fmt.Errorf("%w: %s", ErrGluePointInUse, gluePoint)
	}
	sb := s.base()
	sb.connections = append(sb.connections, ConnectionInfo{OwnPointID: gluePoint, OtherShape: target, OtherPointID: targetPoint})
	if s.IsPreview() == target.IsPreview() {
		tb := target.base()
		tb.connections = append(tb.connections, ConnectionInfo{OwnPointID: targetPoint, OtherShape: s, OtherPointID: gluePoint})
	}
	s.FollowConnectionPointWithGluePoint(gluePoint, target, targetPoint)
	return nil
}

// Disconnect removes the connection of gluePoint to target and its reciprocal edge.
func Disconnect(s Shape, gluePoint ControlPointID, target Shape, targetPoint ControlPointID) error {
	gluePoint = s.resolvePoint(gluePoint)
	if targetPoint != ReferencePoint {
		targetPoint = target.resolvePoint(targetPoint)
	}
	if !removeEdge(s.base(), gluePoint, target, targetPoint) {
		return fmt.Errorf("%w: %s -> %s", ErrNotConnected, gluePoint, targetPoint)
	}
	removeEdge(target.base(), targetPoint, s, gluePoint)
	return nil
}

// DisconnectAll removes every edge of s in both directions and returns the
// edges that were stored on s.
func DisconnectAll(s Shape) []ConnectionInfo {
	b := s.base()
	removed := b.connections
	b.connections = nil
	for _, ci := range removed {
		removeEdge(ci.OtherShape.base(), ci.OtherPointID, s, ci.OwnPointID)
	}
	return removed
}

func removeEdge(b *shapeBase, own ControlPointID, other Shape, otherPoint ControlPointID) bool {
	for i, ci := range b.connections {
		if ci.OwnPointID == own && ci.OtherShape == other && ci.OtherPointID == otherPoint {
			b.connections = append(b.connections[:i], b.connections[i+1:]...)
			return true
		}
	}
	return false
}

// ConnectionTargetPosition is where a glue point attached to target ends up.
// from is used for body connections and is usually the glue point's neighbour.
func ConnectionTargetPosition(target Shape, targetPoint ControlPointID, from geometry.Point) geometry.Point {
	if targetPoint == ReferencePoint {
		return target.CalculateConnectionFoot(from)
	}
	return target.ControlPointPosition(targetPoint)
}

// TopLevel walks up the parent chain.
func TopLevel(s Shape) Shape {
	for s.Parent() != nil {
		s = s.Parent()
	}
	return s
}

// ResolvePoint maps reserved ids such as FirstVertex to the concrete control
// point of s. ReferencePoint is kept as is.
func ResolvePoint(s Shape, id ControlPointID) ControlPointID {
	if id == ReferencePoint || id == AnyPoint || id == NoPoint {
		return id
	}
	return s.resolvePoint(id)
}
