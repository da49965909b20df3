/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

import "godiagram/internal/geometry"

type MouseButtons uint8

const (
	ButtonLeft MouseButtons = 1 << iota
	ButtonMiddle
	ButtonRight

	ButtonNone MouseButtons = 0
)

type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModCtrl
	ModAlt

	ModNone KeyModifiers = 0
)

// MouseState is an immutable snapshot of the pointer. Equal states compare equal.
type MouseState struct {
	Position  geometry.Point
	Buttons   MouseButtons
	Modifiers KeyModifiers
}

func (s MouseState) IsButtonDown(b MouseButtons) bool { return s.Buttons&b != 0 }
func (s MouseState) IsKeyPressed(m KeyModifiers) bool { return s.Modifiers&m != 0 }

// multiSelect reports whether Ctrl or Shift is held.
func (s MouseState) multiSelect() bool { return s.Modifiers&(ModCtrl|ModShift) != 0 }

type MouseEventKind uint8

const (
	MouseDown MouseEventKind = iota
	MouseUp
	MouseMove
	MouseEnter
	MouseLeave
	MouseWheel
)

func (k MouseEventKind) String() string {
	switch k {
	case MouseDown:
		return "down"
	case MouseUp:
		return "up"
	case MouseMove:
		return "move"
	case MouseEnter:
		return "enter"
	case MouseLeave:
		return "leave"
	case MouseWheel:
		return "wheel"
	}
	return "unknown"
}

// MouseEventArgs carries one pointer event in diagram coordinates. Button is
// the button that changed on down and up events; State.Buttons holds the
// buttons pressed after the event.
type MouseEventArgs struct {
	Kind   MouseEventKind
	State  MouseState
	Button MouseButtons
	Clicks int
	Wheel  int
}

type KeyEventKind uint8

const (
	KeyDown KeyEventKind = iota
	KeyUp
)

type Key int

const (
	KeyNone Key = iota
	KeyEscape
	KeyEnter
	KeyDelete
	KeyF2
	KeyShift
	KeyControl
	KeyAlt
	KeyRune
)

type KeyEventArgs struct {
	Kind      KeyEventKind
	Key       Key
	Rune      rune
	Modifiers KeyModifiers
}
