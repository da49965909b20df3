/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

import (
	"godiagram/internal/command"
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/security"
	"godiagram/internal/snap"
)

// Display is what a tool needs from the presenter showing a diagram.
type Display interface {
	Diagram() *diagram.Diagram

	SelectedShapes() []diagram.Shape
	IsSelected(s diagram.Shape) bool
	// SelectShape replaces the selection unless add is set.
	SelectShape(s diagram.Shape, add bool)
	SelectShapes(shapes []diagram.Shape, add bool)
	UnselectShape(s diagram.Shape)
	ClearSelection()

	Grid() snap.Grid
	ScreenToDiagramDistance(px int) int

	SetCursor(c Cursor)
	Invalidate(r geometry.Rect)

	Executor() *command.Executor
	Security() security.Manager

	// OpenCaptionEditor asks the host for a caption text. done receives the
	// text and whether it was confirmed.
	OpenCaptionEditor(s diagram.Shape, index int, done func(text string, ok bool))
}

// GripKind tells a canvas how to paint a grip.
type GripKind uint8

const (
	GripResize GripKind = iota
	GripRotate
	GripGlue
	GripConnected
)

// Canvas receives the overlay of a tool.
type Canvas interface {
	DrawShape(s diagram.Shape, style diagram.Style)
	DrawGrip(p geometry.Point, kind GripKind, size int)
	DrawFrame(r geometry.Rect)
	// DrawRotateHint shows the pivot, the minimum rotate radius and the
	// current sweep in tenths of a degree.
	DrawRotateHint(pivot geometry.Point, radius int, sweep int)
	DrawConnectionTarget(p geometry.Point)
}
