//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"godiagram/internal/diagram"
	"godiagram/internal/display"
	"godiagram/internal/geometry"
	"godiagram/internal/snap"
	"godiagram/internal/tool"
)

func newCanvas(t *testing.T) (*DiagramCanvas, *diagram.PlanarShape) {
	t.Helper()
	test.NewTempApp(t)
	d := diagram.New("flow", 400, 300)
	r := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(100, 100), 40, 40)
	d.AddTopMost(r)
	p := display.New(d, nil, nil, snap.Grid{Size: 20, SnapDistance: 5})
	p.SetTool(tool.NewPointerTool(tool.DefaultSettings()))
	return NewDiagramCanvas(p), r
}

func press(x, y float32, b desktop.MouseButton, m fyne.KeyModifier) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: b, Modifier: m}
}

func TestDiagramCanvasMinSizeFollowsZoom(t *testing.T) {
	dc, _ := newCanvas(t)
	if sz := dc.MinSize(); sz.Width != 400 || sz.Height != 300 {
		t.Fatalf("unexpected MinSize: %v", sz)
	}
	dc.p.SetZoom(2)
	if sz := dc.MinSize(); sz.Width != 800 || sz.Height != 600 {
		t.Fatalf("unexpected zoomed MinSize: %v", sz)
	}
}

func TestDiagramCanvasClickSelects(t *testing.T) {
	dc, r := newCanvas(t)
	dc.MouseDown(press(110, 110, desktop.MouseButtonPrimary, 0))
	dc.MouseUp(press(110, 110, desktop.MouseButtonPrimary, 0))
	if !dc.p.IsSelected(r) {
		t.Fatalf("click did not select the rectangle")
	}
	if dc.buttons != tool.ButtonNone {
		t.Fatalf("buttons still held: %v", dc.buttons)
	}
}

func TestDiagramCanvasDragMoves(t *testing.T) {
	dc, r := newCanvas(t)
	dc.MouseDown(press(110, 110, desktop.MouseButtonPrimary, 0))
	dc.MouseUp(press(110, 110, desktop.MouseButtonPrimary, 0))
	dc.MouseDown(press(110, 110, desktop.MouseButtonPrimary, 0))
	dc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(130, 120)}})
	dc.MouseUp(press(130, 120, desktop.MouseButtonPrimary, 0))
	if got := r.Location(); got != geometry.Pt(120, 110) {
		t.Fatalf("after drag: got %v want (120,110)", got)
	}
}

func TestDiagramCanvasModifierKeys(t *testing.T) {
	dc, _ := newCanvas(t)
	dc.KeyDown(&fyne.KeyEvent{Name: desktop.KeyControlLeft})
	if dc.mods != tool.ModCtrl {
		t.Fatalf("mods = %v, want ctrl", dc.mods)
	}
	dc.KeyUp(&fyne.KeyEvent{Name: desktop.KeyControlLeft})
	if dc.mods != tool.ModNone {
		t.Fatalf("mods = %v, want none", dc.mods)
	}
	if got := toModifiers(fyne.KeyModifierShift | fyne.KeyModifierAlt); got != tool.ModShift|tool.ModAlt {
		t.Fatalf("toModifiers = %v", got)
	}
}

func TestDiagramCanvasDeleteKey(t *testing.T) {
	dc, _ := newCanvas(t)
	dc.MouseDown(press(110, 110, desktop.MouseButtonPrimary, 0))
	dc.MouseUp(press(110, 110, desktop.MouseButtonPrimary, 0))
	dc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	if dc.p.Diagram().Len() != 0 {
		t.Fatalf("delete key kept the shape")
	}
}

func TestDiagramCanvasRenders(t *testing.T) {
	dc, _ := newCanvas(t)
	img, err := dc.render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("image size = %v", b)
	}
	w := test.NewWindow(dc)
	defer w.Close()
	w.Resize(fyne.NewSize(400, 300))
}
