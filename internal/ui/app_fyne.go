//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"godiagram/internal/diagram"
	"godiagram/internal/display"
	"godiagram/internal/export"
	"godiagram/internal/geometry"
	"godiagram/internal/library"
	applog "godiagram/internal/log"
	"godiagram/internal/tool"
	"godiagram/internal/version"
)

// Run opens a window editing the diagram of p until it is closed.
func Run(p *display.Presenter, lib *library.Registry, settings tool.Settings) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("diagram", p.Diagram().Name))

	fyneApp := app.NewWithID("godiagram")
	w := fyneApp.NewWindow("GoDiagram " + version.String() + " - " + p.Diagram().Name)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	dc := NewDiagramCanvas(p)
	p.CaptionEditor = func(_ diagram.Shape, _ int, current string, done func(string, bool)) {
		entry := widget.NewEntry()
		entry.SetText(current)
		dialog.ShowForm("Caption", "OK", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)},
			func(ok bool) {
				done(entry.Text, ok)
				dc.Refresh()
			}, w)
	}
	p.OnCursor = func(c tool.Cursor) { status.SetText(fmt.Sprintf("%s | %s", p.Tool().Title(), c)) }

	selectTool := func(t tool.Tool) {
		t.OnExecuted(func(e tool.ExecutedEvent) {
			if e.Command != nil {
				status.SetText(e.Command.Description())
			}
		})
		p.SetTool(t)
		status.SetText(t.Title())
		w.Canvas().Focus(dc)
	}
	tools := container.NewHBox(widget.NewButton("Pointer", func() { selectTool(tool.NewPointerTool(settings)) }))
	for _, tmpl := range lib.Templates() {
		tools.Add(widget.NewButton(tmpl.DisplayTitle(), func() {
			if tmpl.IsLinear() {
				selectTool(tool.NewLinearShapeCreationTool(tmpl, settings))
				return
			}
			selectTool(tool.NewPlanarShapeCreationTool(tmpl, settings))
		}))
	}
	report := func(err error) {
		if err != nil {
			status.SetText(err.Error())
		}
	}
	tools.Add(widget.NewSeparator())
	tools.Add(widget.NewButton("Undo", func() { report(p.Undo()); dc.Refresh() }))
	tools.Add(widget.NewButton("Redo", func() { report(p.Redo()); dc.Refresh() }))
	tools.Add(widget.NewButton("Export PNG", func() {
		dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				report(err)
				return
			}
			defer func() { _ = wc.Close() }()
			if err := export.PNG(p.Diagram(), wc, export.Options{}); err != nil {
				l.Error("export failed", slog.Any("err", err))
				report(err)
				return
			}
			status.SetText("Exported " + wc.URI().Name())
		}, w)
	}))

	selectTool(tool.NewPointerTool(settings))
	w.SetContent(container.NewBorder(tools, status, nil, nil, container.NewScroll(dc)))
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// DiagramCanvas is a widget that feeds desktop input into a presenter and
// shows the diagram with the tool overlay.
type DiagramCanvas struct {
	widget.BaseWidget
	p       *display.Presenter
	buttons tool.MouseButtons
	mods    tool.KeyModifiers
	last    geometry.Point
}

var (
	_ desktop.Mouseable   = (*DiagramCanvas)(nil)
	_ desktop.Hoverable   = (*DiagramCanvas)(nil)
	_ desktop.Keyable     = (*DiagramCanvas)(nil)
	_ fyne.Draggable      = (*DiagramCanvas)(nil)
	_ fyne.DoubleTappable = (*DiagramCanvas)(nil)
	_ fyne.Focusable      = (*DiagramCanvas)(nil)
)

func NewDiagramCanvas(p *display.Presenter) *DiagramCanvas {
	dc := &DiagramCanvas{p: p}
	p.OnInvalidate = func(geometry.Rect) { dc.Refresh() }
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *DiagramCanvas) MinSize() fyne.Size {
	d := dc.p.Diagram()
	z := float32(dc.p.Zoom())
	return fyne.NewSize(float32(d.Width)*z, float32(d.Height)*z)
}

func (dc *DiagramCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.White)
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillStretch
	return &diagramRenderer{dc: dc, bg: bg, img: img}
}

func toPoint(pos fyne.Position) geometry.Point {
	return geometry.Pt(int(pos.X+0.5), int(pos.Y+0.5))
}

func toButton(b desktop.MouseButton) tool.MouseButtons {
	switch b {
	case desktop.MouseButtonSecondary:
		return tool.ButtonRight
	case desktop.MouseButtonTertiary:
		return tool.ButtonMiddle
	}
	return tool.ButtonLeft
}

func toModifiers(m fyne.KeyModifier) tool.KeyModifiers {
	var out tool.KeyModifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= tool.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= tool.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= tool.ModAlt
	}
	return out
}

func (dc *DiagramCanvas) mouse(kind tool.MouseEventKind, pos geometry.Point, button tool.MouseButtons, clicks int) {
	dc.last = pos
	e := tool.MouseEventArgs{
		Kind:   kind,
		State:  tool.MouseState{Position: pos, Buttons: dc.buttons, Modifiers: dc.mods},
		Button: button,
		Clicks: clicks,
	}
	if _, err := dc.p.MouseEvent(e); err != nil {
		applog.WithComponent("ui").Warn("gesture failed", slog.Any("err", err))
	}
	dc.Refresh()
}

func (dc *DiagramCanvas) MouseDown(e *desktop.MouseEvent) {
	b := toButton(e.Button)
	dc.mods = toModifiers(e.Modifier)
	dc.buttons |= b
	dc.mouse(tool.MouseDown, toPoint(e.Position), b, 1)
}

func (dc *DiagramCanvas) MouseUp(e *desktop.MouseEvent) {
	b := toButton(e.Button)
	dc.mods = toModifiers(e.Modifier)
	dc.buttons &^= b
	dc.mouse(tool.MouseUp, toPoint(e.Position), b, 1)
}

func (dc *DiagramCanvas) DoubleTapped(e *fyne.PointEvent) {
	pos := toPoint(e.Position)
	dc.buttons |= tool.ButtonLeft
	dc.mouse(tool.MouseDown, pos, tool.ButtonLeft, 2)
	dc.buttons &^= tool.ButtonLeft
	dc.mouse(tool.MouseUp, pos, tool.ButtonLeft, 2)
}

func (dc *DiagramCanvas) MouseIn(e *desktop.MouseEvent) {
	dc.mouse(tool.MouseEnter, toPoint(e.Position), tool.ButtonNone, 0)
}

func (dc *DiagramCanvas) MouseMoved(e *desktop.MouseEvent) {
	dc.mouse(tool.MouseMove, toPoint(e.Position), tool.ButtonNone, 0)
}

func (dc *DiagramCanvas) MouseOut() {
	dc.mouse(tool.MouseLeave, dc.last, tool.ButtonNone, 0)
}

// Dragged keeps reporting moves while a button is held.
func (dc *DiagramCanvas) Dragged(e *fyne.DragEvent) {
	dc.mouse(tool.MouseMove, toPoint(e.Position), tool.ButtonNone, 0)
}

func (dc *DiagramCanvas) DragEnd() {}

func (dc *DiagramCanvas) FocusGained() {}
func (dc *DiagramCanvas) FocusLost()   {}
func (dc *DiagramCanvas) TypedRune(r rune) {
	dc.key(tool.KeyDown, tool.KeyRune, r)
}

func (dc *DiagramCanvas) TypedKey(e *fyne.KeyEvent) {
	switch e.Name {
	case fyne.KeyEscape:
		dc.key(tool.KeyDown, tool.KeyEscape, 0)
	case fyne.KeyReturn, fyne.KeyEnter:
		dc.key(tool.KeyDown, tool.KeyEnter, 0)
	case fyne.KeyDelete:
		dc.key(tool.KeyDown, tool.KeyDelete, 0)
	case fyne.KeyF2:
		dc.key(tool.KeyDown, tool.KeyF2, 0)
	}
}

// modifierKeys maps desktop modifier keys to tool keys and flags.
var modifierKeys = map[fyne.KeyName]struct {
	key tool.Key
	mod tool.KeyModifiers
}{
	desktop.KeyShiftLeft:    {tool.KeyShift, tool.ModShift},
	desktop.KeyShiftRight:   {tool.KeyShift, tool.ModShift},
	desktop.KeyControlLeft:  {tool.KeyControl, tool.ModCtrl},
	desktop.KeyControlRight: {tool.KeyControl, tool.ModCtrl},
	desktop.KeyAltLeft:      {tool.KeyAlt, tool.ModAlt},
	desktop.KeyAltRight:     {tool.KeyAlt, tool.ModAlt},
}

func (dc *DiagramCanvas) KeyDown(e *fyne.KeyEvent) {
	if m, ok := modifierKeys[e.Name]; ok {
		dc.mods |= m.mod
		dc.key(tool.KeyDown, m.key, 0)
	}
}

func (dc *DiagramCanvas) KeyUp(e *fyne.KeyEvent) {
	if m, ok := modifierKeys[e.Name]; ok {
		dc.mods &^= m.mod
		dc.key(tool.KeyUp, m.key, 0)
	}
}

func (dc *DiagramCanvas) key(kind tool.KeyEventKind, k tool.Key, r rune) {
	if _, err := dc.p.KeyEvent(tool.KeyEventArgs{Kind: kind, Key: k, Rune: r, Modifiers: dc.mods}); err != nil {
		applog.WithComponent("ui").Warn("key command failed", slog.Any("err", err))
	}
	dc.Refresh()
}

// render paints the presenter into a fresh raster image.
func (dc *DiagramCanvas) render() (image.Image, error) {
	r, err := export.NewRaster(dc.p.Diagram(), export.Options{Scale: dc.p.Zoom()})
	if err != nil {
		return nil, err
	}
	dc.p.Draw(r)
	return r.Image(), nil
}

type diagramRenderer struct {
	dc  *DiagramCanvas
	bg  *canvas.Rectangle
	img *canvas.Image
}

func (r *diagramRenderer) Destroy()                     {}
func (r *diagramRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.bg, r.img} }
func (r *diagramRenderer) MinSize() fyne.Size           { return r.dc.MinSize() }

func (r *diagramRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.img.Move(fyne.NewPos(0, 0))
	r.img.Resize(r.dc.MinSize())
}

func (r *diagramRenderer) Refresh() {
	img, err := r.dc.render()
	if err != nil {
		applog.WithComponent("ui").Error("render failed", slog.Any("err", err))
		return
	}
	r.img.Image = img
	r.Layout(r.dc.Size())
	canvas.Refresh(r.img)
}
