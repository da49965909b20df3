/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tui hosts a presenter in a terminal. One cell is one grid unit:
// the presenter zoom is set so that screen coordinates are cell coordinates.
//
// Keys: 1 selects the pointer, 2-9 the templates in registry order, u and r
// undo and redo, arrows scroll, q quits. Esc, Enter, Delete and F2 go to the
// active tool.
package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"godiagram/internal/diagram"
	"godiagram/internal/display"
	"godiagram/internal/geometry"
	"godiagram/internal/library"
	applog "godiagram/internal/log"
	"godiagram/internal/tool"
)

const (
	defaultCellSize  = 10
	doubleClickDelay = 400 * time.Millisecond
	scrollStep       = 4
)

// CellSettings converts pixel based tool settings for a cell grid.
func CellSettings(s tool.Settings) tool.Settings {
	s.GripSize = max(1, s.GripSize/3)
	s.MinRotateRange = max(2, s.MinRotateRange/10)
	s.DragThreshold = 0
	return s
}

// Host feeds terminal events into a presenter and draws it into a screen.
type Host struct {
	screen   tcell.Screen
	p        *display.Presenter
	lib      *library.Registry
	settings tool.Settings
	log      *slog.Logger

	cell    int
	scrollX int
	scrollY int

	buttons tool.MouseButtons
	mods    tool.KeyModifiers
	last    geometry.Point

	lastClick     time.Time
	lastClickCell geometry.Point
	clicks        int
	now           func() time.Time

	edit    *captionEdit
	message string
}

type captionEdit struct {
	text []rune
	done func(string, bool)
}

// NewHost wires p to screen. The screen must already be initialised.
func NewHost(screen tcell.Screen, p *display.Presenter, lib *library.Registry, settings tool.Settings) *Host {
	h := &Host{
		screen:   screen,
		p:        p,
		lib:      lib,
		settings: CellSettings(settings),
		log:      applog.WithComponent("tui"),
		cell:     defaultCellSize,
		now:      time.Now,
	}
	if g := p.Grid(); g.Size > 0 {
		h.cell = g.Size
	}
	p.SetZoom(1 / float64(h.cell))
	p.CaptionEditor = func(_ diagram.Shape, _ int, current string, done func(string, bool)) {
		h.edit = &captionEdit{text: []rune(current), done: done}
	}
	h.selectTool(tool.NewPointerTool(h.settings))
	return h
}

// Run opens a terminal screen and edits the diagram of p until the user quits.
func Run(p *display.Presenter, lib *library.Registry, settings tool.Settings) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.Clear()
	NewHost(screen, p, lib, settings).Loop()
	return nil
}

// Loop draws and dispatches events until quit.
func (h *Host) Loop() {
	h.log.Info("terminal host started", slog.String("diagram", h.p.Diagram().Name))
	for {
		h.Draw()
		h.screen.Show()
		switch ev := h.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			h.screen.Sync()
		case *tcell.EventKey:
			if h.HandleKey(ev) {
				h.log.Info("terminal host closed")
				return
			}
		case *tcell.EventMouse:
			h.HandleMouse(ev)
		}
	}
}

func (h *Host) selectTool(t tool.Tool) {
	t.OnExecuted(func(e tool.ExecutedEvent) {
		if e.Command != nil {
			h.message = e.Command.Description()
		}
	})
	h.p.SetTool(t)
	h.message = t.Title()
}

func (h *Host) report(err error) {
	if err != nil {
		h.log.Warn("command failed", slog.Any("err", err))
		h.message = err.Error()
	}
}

func (h *Host) scroll(dx, dy int) {
	h.scrollX += dx * h.cell
	h.scrollY += dy * h.cell
	h.p.ScrollTo(h.scrollX, h.scrollY)
}

func toModifiers(m tcell.ModMask) tool.KeyModifiers {
	var out tool.KeyModifiers
	if m&tcell.ModShift != 0 {
		out |= tool.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= tool.ModCtrl
	}
	if m&(tcell.ModAlt|tcell.ModMeta) != 0 {
		out |= tool.ModAlt
	}
	return out
}

// syncModifiers turns a modifier change reported with an event into key
// events, since terminals do not report modifier keys on their own.
func (h *Host) syncModifiers(m tool.KeyModifiers) {
	for _, k := range []struct {
		mod tool.KeyModifiers
		key tool.Key
	}{{tool.ModShift, tool.KeyShift}, {tool.ModCtrl, tool.KeyControl}, {tool.ModAlt, tool.KeyAlt}} {
		was, is := h.mods&k.mod != 0, m&k.mod != 0
		if was == is {
			continue
		}
		kind := tool.KeyUp
		if is {
			kind = tool.KeyDown
			h.mods |= k.mod
		} else {
			h.mods &^= k.mod
		}
		h.toolKey(kind, k.key, 0)
	}
}

// HandleMouse maps button transitions to down, up and move events.
func (h *Host) HandleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pos := geometry.Pt(x, y)
	h.syncModifiers(toModifiers(ev.Modifiers()))
	btn := ev.Buttons()

	if btn&tcell.WheelUp != 0 {
		h.scroll(0, -scrollStep)
		return
	}
	if btn&tcell.WheelDown != 0 {
		h.scroll(0, scrollStep)
		return
	}

	var now tool.MouseButtons
	if btn&tcell.Button1 != 0 {
		now |= tool.ButtonLeft
	}
	if btn&tcell.Button2 != 0 {
		now |= tool.ButtonRight
	}
	if btn&tcell.Button3 != 0 {
		now |= tool.ButtonMiddle
	}

	if pos != h.last {
		h.mouse(tool.MouseMove, pos, tool.ButtonNone, 0)
	}
	for _, b := range []tool.MouseButtons{tool.ButtonLeft, tool.ButtonRight, tool.ButtonMiddle} {
		switch {
		case now&b != 0 && h.buttons&b == 0:
			h.buttons |= b
			h.mouse(tool.MouseDown, pos, b, h.countClick(pos, b))
		case now&b == 0 && h.buttons&b != 0:
			h.buttons &^= b
			h.mouse(tool.MouseUp, pos, b, h.clicks)
		}
	}
}

// countClick returns 2 for a second left press on the same cell in time.
func (h *Host) countClick(pos geometry.Point, b tool.MouseButtons) int {
	t := h.now()
	if b == tool.ButtonLeft && h.clicks == 1 && pos == h.lastClickCell && t.Sub(h.lastClick) <= doubleClickDelay {
		h.clicks = 2
	} else {
		h.clicks = 1
	}
	h.lastClick, h.lastClickCell = t, pos
	return h.clicks
}

func (h *Host) mouse(kind tool.MouseEventKind, pos geometry.Point, button tool.MouseButtons, clicks int) {
	h.last = pos
	e := tool.MouseEventArgs{
		Kind:   kind,
		State:  tool.MouseState{Position: pos, Buttons: h.buttons, Modifiers: h.mods},
		Button: button,
		Clicks: clicks,
	}
	if _, err := h.p.MouseEvent(e); err != nil {
		h.report(err)
	}
}

func (h *Host) toolKey(kind tool.KeyEventKind, k tool.Key, r rune) {
	if _, err := h.p.KeyEvent(tool.KeyEventArgs{Kind: kind, Key: k, Rune: r, Modifiers: h.mods}); err != nil {
		h.report(err)
	}
}

// HandleKey dispatches one key and reports whether the host should quit.
func (h *Host) HandleKey(ev *tcell.EventKey) bool {
	if h.edit != nil {
		h.editKey(ev)
		return false
	}
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape:
		h.toolKey(tool.KeyDown, tool.KeyEscape, 0)
	case tcell.KeyEnter:
		h.toolKey(tool.KeyDown, tool.KeyEnter, 0)
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		h.toolKey(tool.KeyDown, tool.KeyDelete, 0)
	case tcell.KeyF2:
		h.toolKey(tool.KeyDown, tool.KeyF2, 0)
	case tcell.KeyCtrlZ:
		h.report(h.p.Undo())
	case tcell.KeyCtrlY:
		h.report(h.p.Redo())
	case tcell.KeyLeft:
		h.scroll(-scrollStep, 0)
	case tcell.KeyRight:
		h.scroll(scrollStep, 0)
	case tcell.KeyUp:
		h.scroll(0, -scrollStep)
	case tcell.KeyDown:
		h.scroll(0, scrollStep)
	case tcell.KeyRune:
		return h.runeKey(ev.Rune())
	}
	return false
}

func (h *Host) runeKey(r rune) bool {
	switch {
	case r == 'q':
		return true
	case r == 'u':
		h.report(h.p.Undo())
	case r == 'r':
		h.report(h.p.Redo())
	case r == '1':
		h.selectTool(tool.NewPointerTool(h.settings))
	case r >= '2' && r <= '9':
		templates := h.lib.Templates()
		i := int(r - '2')
		if i >= len(templates) {
			h.message = fmt.Sprintf("no template %c", r)
			return false
		}
		tmpl := templates[i]
		if tmpl.IsLinear() {
			h.selectTool(tool.NewLinearShapeCreationTool(tmpl, h.settings))
		} else {
			h.selectTool(tool.NewPlanarShapeCreationTool(tmpl, h.settings))
		}
	default:
		h.toolKey(tool.KeyDown, tool.KeyRune, r)
	}
	return false
}

// editKey is a one-line editor in the status row.
func (h *Host) editKey(ev *tcell.EventKey) {
	e := h.edit
	switch ev.Key() {
	case tcell.KeyEnter:
		h.edit = nil
		e.done(string(e.text), true)
	case tcell.KeyEscape:
		h.edit = nil
		e.done("", false)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(e.text) > 0 {
			e.text = e.text[:len(e.text)-1]
		}
	case tcell.KeyRune:
		e.text = append(e.text, ev.Rune())
	}
}

// Editing reports whether the caption line editor is open.
func (h *Host) Editing() bool { return h.edit != nil }

// Message is the text of the status row after the tool state.
func (h *Host) Message() string { return h.message }
