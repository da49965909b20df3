/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preview maintains the disposable clones shown while a gesture is in
// progress, wired to each other the same way their originals are connected.
package preview

import (
	"fmt"

	"godiagram/internal/diagram"
)

// Manager owns the preview shapes of one tool.
type Manager struct {
	pairs *BiMap[diagram.Shape, diagram.Shape]
	// roots are the top-level originals in creation order
	roots      []diagram.Shape
	invalidate func(diagram.Shape)
}

// NewManager creates a manager; invalidate is called for every preview that
// is discarded and may be nil.
func NewManager(invalidate func(diagram.Shape)) *Manager {
	return &Manager{pairs: NewBiMap[diagram.Shape, diagram.Shape](), invalidate: invalidate}
}

// Len returns the number of mapped pairs, children included.
func (m *Manager) Len() int { return m.pairs.Len() }

func (m *Manager) IsEmpty() bool { return m.pairs.Len() == 0 }

// HasPreview reports whether original has a preview.
func (m *Manager) HasPreview(original diagram.Shape) bool {
	_, ok := m.pairs.Value(original)
	return ok
}

// Preview returns the preview of original. A missing entry is a bug.
func (m *Manager) Preview(original diagram.Shape) diagram.Shape {
	p, ok := m.pairs.Value(original)
	if !ok {
		panic(fmt.Errorf("preview: no preview for %s #%d", original.Type().Name, original.ID()))
	}
	return p
}

// Original returns the original of a preview. A missing entry is a bug.
func (m *Manager) Original(preview diagram.Shape) diagram.Shape {
	o, ok := m.pairs.Key(preview)
	if !ok {
		panic(fmt.Errorf("preview: no original for preview %s", preview.Type().Name))
	}
	return o
}

// Originals returns the previewed top-level originals in creation order.
func (m *Manager) Originals() []diagram.Shape { return append([]diagram.Shape(nil), m.roots...) }

// Previews returns the previews of Originals in the same order.
func (m *Manager) Previews() []diagram.Shape {
	out := make([]diagram.Shape, len(m.roots))
	for i, o := range m.roots {
		out[i] = m.Preview(o)
	}
	return out
}

// PreviewsOf maps originals to previews.
func (m *Manager) PreviewsOf(originals []diagram.Shape) []diagram.Shape {
	out := make([]diagram.Shape, len(originals))
	for i, o := range originals {
		out[i] = m.Preview(o)
	}
	return out
}

// Consistent reports whether the bijection holds.
func (m *Manager) Consistent() bool { return m.pairs.Consistent() }

func (m *Manager) add(original diagram.Shape) diagram.Shape {
	p := original.CreatePreview()
	m.roots = append(m.roots, original)
	m.mapTree(original, p)
	return p
}

func (m *Manager) mapTree(original, preview diagram.Shape) {
	m.pairs.Put(original, preview)
	oc, pc := original.Children(), preview.Children()
	for i := range oc {
		m.mapTree(oc[i], pc[i])
	}
}

// CreatePreviewShapes previews the selection and every shape glued to a
// previewed shape, transitively, then connects the previews like their
// originals. movedShape and movedPoint name the glue point being dragged,
// which is left unconnected.
func (m *Manager) CreatePreviewShapes(selection []diagram.Shape, movedShape diagram.Shape, movedPoint diagram.ControlPointID) {
	selected := make(map[diagram.Shape]bool)
	var queue []diagram.Shape
	var mark func(s diagram.Shape)
	mark = func(s diagram.Shape) {
		selected[s] = true
		queue = append(queue, s)
		for _, c := range s.Children() {
			mark(c)
		}
	}
	for _, s := range selection {
		if m.HasPreview(s) {
			continue
		}
		m.add(s)
		mark(s)
	}

	// followers: shapes owning a glue point attached to a previewed shape
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, ci := range q.Connections(diagram.AnyPoint, nil) {
			other := diagram.TopLevel(ci.OtherShape)
			if m.HasPreview(other) || !ci.OtherShape.HasControlPointCapability(ci.OtherPointID, diagram.CapGlue) {
				continue
			}
			m.add(other)
			queue = appendTree(queue, other)
		}
	}

	m.pairs.Range(func(original, preview diagram.Shape) bool {
		m.connectPreview(original, preview, selected, movedShape, movedPoint)
		return true
	})
}

func appendTree(queue []diagram.Shape, s diagram.Shape) []diagram.Shape {
	queue = append(queue, s)
	for _, c := range s.Children() {
		queue = appendTree(queue, c)
	}
	return queue
}

func (m *Manager) connectPreview(original, pv diagram.Shape, selected map[diagram.Shape]bool, movedShape diagram.Shape, movedPoint diagram.ControlPointID) {
	for _, gp := range original.ControlPointIDs(diagram.CapGlue) {
		ci := diagram.GlueConnection(original, gp)
		if ci.IsEmpty() {
			continue
		}
		if !diagram.GlueConnection(pv, gp).IsEmpty() {
			continue
		}
		if partner, ok := m.pairs.Value(ci.OtherShape); ok {
			if selected[original] && selected[ci.OtherShape] && !connectedOutside(original, selected) {
				continue
			}
			mustConnect(pv, gp, partner, ci.OtherPointID)
			continue
		}
		if original == movedShape && samePoint(original, gp, movedPoint) {
			continue
		}
		mustConnect(pv, gp, ci.OtherShape, ci.OtherPointID)
	}
}

// connectedOutside reports whether a glue point of s is attached to a shape
// outside the selection.
func connectedOutside(s diagram.Shape, selected map[diagram.Shape]bool) bool {
	for _, gp := range s.ControlPointIDs(diagram.CapGlue) {
		ci := diagram.GlueConnection(s, gp)
		if !ci.IsEmpty() && !selected[ci.OtherShape] {
			return true
		}
	}
	return false
}

func samePoint(s diagram.Shape, a, b diagram.ControlPointID) bool {
	return diagram.ResolvePoint(s, a) == diagram.ResolvePoint(s, b)
}

func mustConnect(s diagram.Shape, gp diagram.ControlPointID, target diagram.Shape, tp diagram.ControlPointID) {
	if err := diagram.Connect(s, gp, target, tp); err != nil {
		panic(fmt.Errorf("preview: mirror connection: %w", err))
	}
}

// Reset copies the geometry of every original back onto its preview.
func (m *Manager) Reset() {
	for _, o := range m.roots {
		m.Preview(o).AssignGeometry(o)
	}
}

// Clear invalidates and disconnects all previews and drops both directions
// of the mapping together.
func (m *Manager) Clear() {
	for _, o := range m.roots {
		p := m.Preview(o)
		if m.invalidate != nil {
			m.invalidate(p)
		}
		diagram.DisconnectAll(p)
	}
	m.pairs.Clear()
	m.roots = nil
}
