/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tool

// Cursor names a pointer shape. Hosts map cursors to their own resources.
type Cursor uint8

const (
	CursorDefault Cursor = iota
	CursorNotAllowed
	CursorMoveShape
	CursorMoveHandle
	CursorRotate
	CursorConnect
	CursorDisconnect
	CursorEditCaption
	CursorPen
	CursorCrosshair
)

var cursorNames = [...]string{
	CursorDefault:     "default",
	CursorNotAllowed:  "not-allowed",
	CursorMoveShape:   "move-shape",
	CursorMoveHandle:  "move-handle",
	CursorRotate:      "rotate",
	CursorConnect:     "connect",
	CursorDisconnect:  "disconnect",
	CursorEditCaption: "edit-caption",
	CursorPen:         "pen",
	CursorCrosshair:   "crosshair",
}

func (c Cursor) String() string {
	if int(c) < len(cursorNames) {
		return cursorNames[c]
	}
	return "unknown"
}
