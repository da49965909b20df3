/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package connect holds the rules deciding which glue points may attach where
// and builds the connect and disconnect commands of a move.
package connect

import (
	"godiagram/internal/command"
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/snap"
)

// CanConnectTo reports whether gluePoint of shape may attach to targetPoint of
// target. A shape may be glued to the body of another shape with one end only.
func CanConnectTo(shape diagram.Shape, gluePoint diagram.ControlPointID, target diagram.Shape, targetPoint diagram.ControlPointID) bool {
	if shape == nil || target == nil || shape == target || related(shape, target) {
		return false
	}
	if !shape.HasControlPointCapability(gluePoint, diagram.CapGlue) {
		return false
	}
	if !target.HasControlPointCapability(targetPoint, diagram.CapConnect) {
		return false
	}
	if targetPoint != diagram.ReferencePoint {
		return true
	}
	for _, gp := range shape.ControlPointIDs(diagram.CapGlue) {
		if sameGluePoint(shape, gp, gluePoint) {
			continue
		}
		ci := diagram.GlueConnection(shape, gp)
		if ci.OtherShape == target && ci.OtherPointID == diagram.ReferencePoint {
			return false
		}
	}
	return true
}

// CanConnectEnds extends CanConnectTo for two-vertex linear shapes: when the
// unmoved end is glued to the body of a shape, the moved end may not land on
// the body of the same shape.
func CanConnectEnds(shape diagram.Shape, unmoved diagram.ConnectionInfo, movedPoint diagram.ControlPointID, target diagram.Shape, targetPoint diagram.ControlPointID) bool {
	if !CanConnectTo(shape, movedPoint, target, targetPoint) {
		return false
	}
	if ls, ok := shape.(*diagram.LinearShape); ok && ls.VertexCount() == 2 {
		if unmoved.OtherShape == target && unmoved.OtherPointID == diagram.ReferencePoint && targetPoint == diagram.ReferencePoint {
			return false
		}
	}
	return true
}

func sameGluePoint(s diagram.Shape, a, b diagram.ControlPointID) bool {
	return diagram.ResolvePoint(s, a) == diagram.ResolvePoint(s, b)
}

// related reports whether one shape is an ancestor of the other.
func related(a, b diagram.Shape) bool {
	for p := a.Parent(); p != nil; p = p.Parent() {
		if p == b {
			return true
		}
	}
	for p := b.Parent(); p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

// Finder searches connection targets for glue points.
type Finder struct {
	Index  snap.Index
	Grid   snap.Grid
	Radius int
	// Exclude removes shapes that must not become targets, such as the
	// originals of moving previews.
	Exclude func(diagram.Shape) bool
}

// FindConnectionTarget returns the best target for gluePoint of shape placed at pos.
// The result is a grid proposal or empty when no shape qualifies.
func (f Finder) FindConnectionTarget(shape diagram.Shape, gluePoint diagram.ControlPointID, pos geometry.Point) snap.Target {
	var unmoved diagram.ConnectionInfo
	if ls, ok := shape.(*diagram.LinearShape); ok && ls.VertexCount() == 2 {
		other := diagram.LastVertex
		if sameGluePoint(shape, gluePoint, diagram.LastVertex) {
			other = diagram.FirstVertex
		}
		unmoved = diagram.GlueConnection(shape, other)
	}
	return snap.FindNearestControlPoint(f.Index, f.Grid, snap.Request{
		Shape:        shape,
		PointID:      gluePoint,
		Position:     pos,
		Radius:       f.Radius,
		Capabilities: diagram.CapConnect,
		Exclude:      f.Exclude,
		Accept: func(t diagram.Shape, tp diagram.ControlPointID) bool {
			return CanConnectEnds(shape, unmoved, gluePoint, t, tp)
		},
	})
}

// PreviewOf maps an original shape to its preview.
type PreviewOf func(diagram.Shape) diagram.Shape

// InSelection reports membership of a shape or one of its ancestors.
func InSelection(selection []diagram.Shape, s diagram.Shape) bool {
	for cur := s; cur != nil; cur = cur.Parent() {
		for _, sel := range selection {
			if sel == cur {
				return true
			}
		}
	}
	return false
}

// DisconnectGluePoints emits a Disconnect for every connected glue point of
// the selection whose preview position differs from its committed position,
// unless its partner moves along as part of the selection.
func DisconnectGluePoints(selection []diagram.Shape, previewOf PreviewOf) []command.Command {
	var out []command.Command
	for _, s := range selection {
		pv := previewOf(s)
		for _, gp := range s.ControlPointIDs(diagram.CapGlue) {
			ci := diagram.GlueConnection(s, gp)
			if ci.IsEmpty() || InSelection(selection, ci.OtherShape) {
				continue
			}
			if pv.ControlPointPosition(gp) == s.ControlPointPosition(gp) {
				continue
			}
			if c, ok := command.NewDisconnect(s, gp); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// ConnectGluePoints searches new targets for every moved glue point of the
// selection and emits Connect commands for the ones found. Glue points whose
// partner is selected keep their connection.
func ConnectGluePoints(f Finder, selection []diagram.Shape, previewOf PreviewOf) []command.Command {
	var out []command.Command
	exclude := f.Exclude
	f.Exclude = func(t diagram.Shape) bool {
		return InSelection(selection, t) || (exclude != nil && exclude(t))
	}
	for _, s := range selection {
		pv := previewOf(s)
		for _, gp := range s.ControlPointIDs(diagram.CapGlue) {
			ci := diagram.GlueConnection(s, gp)
			if !ci.IsEmpty() && InSelection(selection, ci.OtherShape) {
				continue
			}
			pos := pv.ControlPointPosition(gp)
			if pos == s.ControlPointPosition(gp) {
				continue
			}
			t := f.FindConnectionTarget(pv, gp, pos)
			if !t.IsShape() {
				continue
			}
			out = append(out, command.NewConnect(s, gp, t.Shape, t.PointID))
		}
	}
	return out
}
