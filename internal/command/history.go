/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"sync"
	"time"
)

// Entry is one executed command in the history.
type Entry struct {
	Command Command
	TS      time.Time
}

// History provides undo and redo stacks with a depth cap.
// It is safe for concurrent use.
type History struct {
	mu       sync.Mutex
	maxDepth int
	undo     []Entry
	redo     []Entry
}

// NewHistory creates a history keeping at most maxDepth undo entries (0 means 100).
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = 100
	}
	return &History{maxDepth: maxDepth}
}

// Push records an executed command and clears the redo stack.
func (h *History) Push(c Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = append(h.undo, Entry{Command: c, TS: time.Now()})
	h.redo = nil
	h.enforceCapLocked()
}

// PeekUndo returns the command Undo would pop.
func (h *History) PeekUndo() (Command, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) == 0 {
		return nil, false
	}
	return h.undo[len(h.undo)-1].Command, true
}

// PeekRedo returns the command Redo would pop.
func (h *History) PeekRedo() (Command, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redo) == 0 {
		return nil, false
	}
	return h.redo[len(h.redo)-1].Command, true
}

// Undo pops from the undo stack and pushes to the redo stack.
func (h *History) Undo() (Command, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) == 0 {
		return nil, false
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	return e.Command, true
}

// Redo pops from redo and pushes back to undo.
func (h *History) Redo() (Command, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redo) == 0 {
		return nil, false
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	h.enforceCapLocked()
	return e.Command, true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo, h.redo = nil, nil
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (undo, redo int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}

func (h *History) enforceCapLocked() {
	if len(h.undo) > h.maxDepth {
		// drop the oldest extras
		toDrop := len(h.undo) - h.maxDepth
		h.undo = append([]Entry{}, h.undo[toDrop:]...)
	}
}
