/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package command holds the undoable edit operations the tools emit and the
// executor that applies them under permission checks.
package command

import (
	"errors"
	"fmt"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/security"
)

// Command is one reversible edit.
type Command interface {
	Description() string
	Execute() error
	Revert() error
	RequiredPermission() security.Permission
	// Shapes are the shapes the permission is checked against.
	Shapes() []diagram.Shape
}

// composite is implemented by commands that bundle others.
type composite interface {
	Commands() []Command
}

// geometryChange snapshots geometry on execute and restores it on revert,
// so undo never accumulates rounding errors.
type geometryChange struct {
	shapes   []diagram.Shape
	snapshot []diagram.Shape
}

func (g *geometryChange) remember() { g.snapshot = diagram.Snapshot(g.shapes) }

func (g *geometryChange) restore() error {
	if g.snapshot == nil {
		return errors.New("command was not executed")
	}
	diagram.RestoreGeometry(g.shapes, g.snapshot)
	g.snapshot = nil
	return nil
}

func (g *geometryChange) Shapes() []diagram.Shape { return g.shapes }

// MoveShapes translates shapes by a delta.
type MoveShapes struct {
	geometryChange
	DX, DY int
}

func NewMoveShapes(shapes []diagram.Shape, dx, dy int) *MoveShapes {
	return &MoveShapes{geometryChange: geometryChange{shapes: shapes}, DX: dx, DY: dy}
}

func (c *MoveShapes) Description() string {
	return fmt.Sprintf("Move %d shape(s) by (%d, %d)", len(c.shapes), c.DX, c.DY)
}
func (c *MoveShapes) RequiredPermission() security.Permission { return security.Layout }
func (c *MoveShapes) Execute() error {
	c.remember()
	diagram.MoveShapesBy(c.shapes, c.DX, c.DY)
	return nil
}
func (c *MoveShapes) Revert() error { return c.restore() }

// MoveControlPoint moves the same control point of one or more shapes.
type MoveControlPoint struct {
	geometryChange
	PointID   diagram.ControlPointID
	DX, DY    int
	Modifiers diagram.ResizeModifiers
}

func NewMoveControlPoint(shapes []diagram.Shape, id diagram.ControlPointID, dx, dy int, mods diagram.ResizeModifiers) *MoveControlPoint {
	return &MoveControlPoint{geometryChange: geometryChange{shapes: shapes}, PointID: id, DX: dx, DY: dy, Modifiers: mods}
}

func (c *MoveControlPoint) Description() string {
	return fmt.Sprintf("Move point %s of %d shape(s) by (%d, %d)", c.PointID, len(c.shapes), c.DX, c.DY)
}
func (c *MoveControlPoint) RequiredPermission() security.Permission { return security.Layout }
func (c *MoveControlPoint) Execute() error {
	c.remember()
	diagram.MoveControlPoints(c.shapes, c.PointID, c.DX, c.DY, c.Modifiers)
	return nil
}
func (c *MoveControlPoint) Revert() error { return c.restore() }

// RotateShapes rotates shapes around a pivot by an angle in tenths of a degree.
type RotateShapes struct {
	geometryChange
	Angle int
	Pivot geometry.Point
}

func NewRotateShapes(shapes []diagram.Shape, tenths int, pivot geometry.Point) *RotateShapes {
	return &RotateShapes{geometryChange: geometryChange{shapes: shapes}, Angle: tenths, Pivot: pivot}
}

func (c *RotateShapes) Description() string {
	return fmt.Sprintf("Rotate %d shape(s) by %d.%d°", len(c.shapes), c.Angle/10, geometry.Abs(c.Angle%10))
}
func (c *RotateShapes) RequiredPermission() security.Permission { return security.Layout }
func (c *RotateShapes) Execute() error {
	c.remember()
	diagram.RotateShapes(c.shapes, c.Angle, c.Pivot)
	return nil
}
func (c *RotateShapes) Revert() error { return c.restore() }

// Connect glues a point of Shape to a point of Target.
type Connect struct {
	Shape       diagram.Shape
	GluePoint   diagram.ControlPointID
	Target      diagram.Shape
	TargetPoint diagram.ControlPointID
	geom        geometryChange
}

func NewConnect(s diagram.Shape, gluePoint diagram.ControlPointID, target diagram.Shape, targetPoint diagram.ControlPointID) *Connect {
	return &Connect{Shape: s, GluePoint: gluePoint, Target: target, TargetPoint: targetPoint, geom: geometryChange{shapes: []diagram.Shape{s}}}
}

func (c *Connect) Description() string {
	return fmt.Sprintf("Connect %s #%d point %s to %s #%d point %s", c.Shape.Type().Name, c.Shape.ID(), c.GluePoint, c.Target.Type().Name, c.Target.ID(), c.TargetPoint)
}
func (c *Connect) RequiredPermission() security.Permission { return security.Connect }
func (c *Connect) Shapes() []diagram.Shape                 { return []diagram.Shape{c.Shape, c.Target} }
func (c *Connect) Execute() error {
	c.geom.remember()
	return diagram.Connect(c.Shape, c.GluePoint, c.Target, c.TargetPoint)
}
func (c *Connect) Revert() error {
	if err := diagram.Disconnect(c.Shape, c.GluePoint, c.Target, c.TargetPoint); err != nil {
		return err
	}
	return c.geom.restore()
}

// Disconnect detaches a glue point.
type Disconnect struct {
	Shape       diagram.Shape
	GluePoint   diagram.ControlPointID
	Target      diagram.Shape
	TargetPoint diagram.ControlPointID
}

// NewDisconnect builds the command from the glue point's current connection.
// ok is false when the point is not connected.
func NewDisconnect(s diagram.Shape, gluePoint diagram.ControlPointID) (c *Disconnect, ok bool) {
	ci := diagram.GlueConnection(s, gluePoint)
	if ci.IsEmpty() {
		return nil, false
	}
	return &Disconnect{Shape: s, GluePoint: ci.OwnPointID, Target: ci.OtherShape, TargetPoint: ci.OtherPointID}, true
}

func (c *Disconnect) Description() string {
	return fmt.Sprintf("Disconnect %s #%d point %s", c.Shape.Type().Name, c.Shape.ID(), c.GluePoint)
}
func (c *Disconnect) RequiredPermission() security.Permission { return security.Connect }
func (c *Disconnect) Shapes() []diagram.Shape                 { return []diagram.Shape{c.Shape, c.Target} }
func (c *Disconnect) Execute() error {
	return diagram.Disconnect(c.Shape, c.GluePoint, c.Target, c.TargetPoint)
}
func (c *Disconnect) Revert() error {
	return diagram.Connect(c.Shape, c.GluePoint, c.Target, c.TargetPoint)
}

// InsertShapes adds shapes on top of the diagram.
type InsertShapes struct {
	Diagram *diagram.Diagram
	shapes  []diagram.Shape
}

func NewInsertShapes(d *diagram.Diagram, shapes ...diagram.Shape) *InsertShapes {
	return &InsertShapes{Diagram: d, shapes: shapes}
}

func (c *InsertShapes) Description() string {
	if len(c.shapes) == 1 {
		return fmt.Sprintf("Insert %s", c.shapes[0].Type().Name)
	}
	return fmt.Sprintf("Insert %d shapes", len(c.shapes))
}
func (c *InsertShapes) RequiredPermission() security.Permission { return security.Insert }
func (c *InsertShapes) Shapes() []diagram.Shape                 { return c.shapes }
func (c *InsertShapes) Execute() error {
	for _, s := range c.shapes {
		if s.IsPreview() {
			return fmt.Errorf("cannot insert preview %s", s.Type().Name)
		}
	}
	for _, s := range c.shapes {
		c.Diagram.AddTopMost(s)
	}
	return nil
}
func (c *InsertShapes) Revert() error {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		diagram.DisconnectAll(c.shapes[i])
		c.Diagram.Remove(c.shapes[i])
	}
	return nil
}

// glueEdge is a connection seen from its glue point.
type glueEdge struct {
	shape       diagram.Shape
	gluePoint   diagram.ControlPointID
	target      diagram.Shape
	targetPoint diagram.ControlPointID
}

// DeleteShapes removes shapes after disconnecting them.
type DeleteShapes struct {
	Diagram *diagram.Diagram
	shapes  []diagram.Shape
	edges   []glueEdge
}

func NewDeleteShapes(d *diagram.Diagram, shapes ...diagram.Shape) *DeleteShapes {
	return &DeleteShapes{Diagram: d, shapes: shapes}
}

func (c *DeleteShapes) Description() string {
	return fmt.Sprintf("Delete %d shape(s)", len(c.shapes))
}
func (c *DeleteShapes) RequiredPermission() security.Permission { return security.Delete }
func (c *DeleteShapes) Shapes() []diagram.Shape                 { return c.shapes }
func (c *DeleteShapes) Execute() error {
	c.edges = c.edges[:0]
	seen := map[glueEdge]bool{}
	for _, s := range c.shapes {
		for _, ci := range diagram.DisconnectAll(s) {
			e := glueEdge{s, ci.OwnPointID, ci.OtherShape, ci.OtherPointID}
			if !s.HasControlPointCapability(ci.OwnPointID, diagram.CapGlue) {
				e = glueEdge{ci.OtherShape, ci.OtherPointID, s, ci.OwnPointID}
			}
			if !seen[e] {
				seen[e] = true
				c.edges = append(c.edges, e)
			}
		}
		c.Diagram.Remove(s)
	}
	return nil
}
func (c *DeleteShapes) Revert() error {
	for _, s := range c.shapes {
		c.Diagram.Add(s)
	}
	var errs []error
	for _, e := range c.edges {
		if err := diagram.Connect(e.shape, e.gluePoint, e.target, e.targetPoint); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetCaptionText replaces the text of one caption.
type SetCaptionText struct {
	Shape   diagram.Shape
	Index   int
	Text    string
	oldText string
}

func NewSetCaptionText(s diagram.Shape, index int, text string) *SetCaptionText {
	return &SetCaptionText{Shape: s, Index: index, Text: text}
}

func (c *SetCaptionText) Description() string {
	return fmt.Sprintf("Change caption %d of %s #%d", c.Index, c.Shape.Type().Name, c.Shape.ID())
}
func (c *SetCaptionText) RequiredPermission() security.Permission { return security.ModifyData }
func (c *SetCaptionText) Shapes() []diagram.Shape                 { return []diagram.Shape{c.Shape} }
func (c *SetCaptionText) Execute() error {
	c.oldText = c.Shape.CaptionText(c.Index)
	return c.Shape.SetCaptionText(c.Index, c.Text)
}
func (c *SetCaptionText) Revert() error {
	return c.Shape.SetCaptionText(c.Index, c.oldText)
}

// Aggregated executes its children all-or-nothing.
type Aggregated struct {
	description string
	children    []Command
}

func NewAggregated(description string, cmds ...Command) *Aggregated {
	a := &Aggregated{description: description}
	for _, c := range cmds {
		a.Add(c)
	}
	return a
}

// Add appends c; nil commands are ignored.
func (a *Aggregated) Add(c Command) {
	if c == nil {
		return
	}
	a.children = append(a.children, c)
}

func (a *Aggregated) Len() int             { return len(a.children) }
func (a *Aggregated) Commands() []Command  { return a.children }
func (a *Aggregated) Description() string  { return a.description }

func (a *Aggregated) RequiredPermission() security.Permission {
	var p security.Permission
	for _, c := range a.children {
		p |= c.RequiredPermission()
	}
	return p
}

func (a *Aggregated) Shapes() []diagram.Shape {
	var out []diagram.Shape
	seen := map[diagram.Shape]bool{}
	for _, c := range a.children {
		for _, s := range c.Shapes() {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func (a *Aggregated) Execute() error {
	for i, c := range a.children {
		if err := c.Execute(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := a.children[j].Revert(); rerr != nil {
					err = errors.Join(err, fmt.Errorf("rollback %q: %w", a.children[j].Description(), rerr))
				}
			}
			return fmt.Errorf("%s: %w", a.description, err)
		}
	}
	return nil
}

func (a *Aggregated) Revert() error {
	var errs []error
	for i := len(a.children) - 1; i >= 0; i-- {
		if err := a.children[i].Revert(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
