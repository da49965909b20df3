/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import "godiagram/internal/geometry"

// withDescendants returns shapes plus all their children, recursively.
func withDescendants(shapes []Shape) map[Shape]bool {
	set := make(map[Shape]bool, len(shapes))
	var add func(s Shape)
	add = func(s Shape) {
		if set[s] {
			return
		}
		set[s] = true
		for _, c := range s.Children() {
			add(c)
		}
	}
	for _, s := range shapes {
		add(s)
	}
	return set
}

// batch transforms shapes with follower notifications suspended, then
// notifies only the followers outside the batch.
func batch(shapes []Shape, transform func(Shape)) {
	set := withDescendants(shapes)
	for s := range set {
		s.base().suspended++
	}
	for _, s := range shapes {
		transform(s)
	}
	for s := range set {
		s.base().suspended--
	}
	for _, s := range orderedMembers(shapes, set) {
		s.base().notifyFollowers(set)
	}
}

// orderedMembers lists the set in a deterministic order: shapes first, then
// their descendants depth first.
func orderedMembers(shapes []Shape, set map[Shape]bool) []Shape {
	out := make([]Shape, 0, len(set))
	seen := make(map[Shape]bool, len(set))
	var walk func(s Shape)
	walk = func(s Shape) {
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
		for _, c := range s.Children() {
			walk(c)
		}
	}
	for _, s := range shapes {
		walk(s)
	}
	return out
}

// MoveShapesBy translates shapes as one unit.
func MoveShapesBy(shapes []Shape, dx, dy int) {
	batch(shapes, func(s Shape) { s.MoveBy(dx, dy) })
}

// RotateShapes rotates shapes around pivot as one unit.
func RotateShapes(shapes []Shape, tenths int, pivot geometry.Point) {
	batch(shapes, func(s Shape) { s.Rotate(tenths, pivot) })
}

// MoveControlPoints moves the same control point of several shapes.
func MoveControlPoints(shapes []Shape, id ControlPointID, dx, dy int, mods ResizeModifiers) {
	batch(shapes, func(s Shape) { s.MoveControlPointBy(id, dx, dy, mods) })
}

// BoundsOf returns the union of the shapes' bounds.
func BoundsOf(shapes []Shape) geometry.Rect {
	var r geometry.Rect
	for _, s := range shapes {
		r = r.Union(s.Bounds())
	}
	return r
}

// RestoreGeometry assigns the geometry of snapshots[i] to shapes[i] and lets
// followers outside the set catch up.
func RestoreGeometry(shapes, snapshots []Shape) {
	i := 0
	batch(shapes, func(s Shape) {
		s.AssignGeometry(snapshots[i])
		i++
	})
}

// Snapshot clones shapes for a later RestoreGeometry.
func Snapshot(shapes []Shape) []Shape {
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}
