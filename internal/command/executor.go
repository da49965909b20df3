/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	applog "godiagram/internal/log"
	"godiagram/internal/security"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// EventKind tells listeners what happened to a command.
type EventKind int

const (
	Executed EventKind = iota
	Undone
	Redone
)

func (k EventKind) String() string {
	switch k {
	case Executed:
		return "executed"
	case Undone:
		return "undone"
	case Redone:
		return "redone"
	}
	return "unknown"
}

// Listener is notified after a command changed the diagram.
type Listener func(kind EventKind, c Command)

// Executor applies commands transactionally: a command either executes
// completely and lands in the history, or returns an error and leaves the
// diagram untouched.
type Executor struct {
	history   *History
	security  security.Manager
	mu        sync.Mutex
	listeners []Listener
}

// NewExecutor creates an executor. A nil history gets a default one; a nil
// security manager grants everything.
func NewExecutor(sec security.Manager, h *History) *Executor {
	if h == nil {
		h = NewHistory(0)
	}
	return &Executor{history: h, security: sec}
}

func (e *Executor) History() *History { return e.history }

// AddListener registers l for all later events.
func (e *Executor) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Check verifies the permissions of c and, for aggregated commands, of every child.
func (e *Executor) Check(c Command) error {
	if e.security == nil {
		return nil
	}
	if comp, ok := c.(composite); ok {
		for _, child := range comp.Commands() {
			if err := e.Check(child); err != nil {
				return err
			}
		}
		return nil
	}
	return security.Check(e.security, c.RequiredPermission(), c.Shapes()...)
}

// Execute checks, applies and records c.
func (e *Executor) Execute(c Command) error {
	l := applog.WithOperation(applog.WithComponent("command"), "execute")
	if err := e.Check(c); err != nil {
		l.Warn("command denied", slog.String("cmd", c.Description()), slog.Any("err", err))
		return err
	}
	if err := c.Execute(); err != nil {
		l.Warn("command failed", slog.String("cmd", c.Description()), slog.Any("err", err))
		return fmt.Errorf("execute %q: %w", c.Description(), err)
	}
	e.history.Push(c)
	l.Debug("command executed", slog.String("cmd", c.Description()))
	e.notify(Executed, c)
	return nil
}

// Undo reverts the most recent command.
func (e *Executor) Undo() error {
	c, ok := e.history.PeekUndo()
	if !ok {
		return ErrNothingToUndo
	}
	if err := e.Check(c); err != nil {
		return err
	}
	if err := c.Revert(); err != nil {
		applog.WithOperation(applog.WithComponent("command"), "undo").Warn("undo failed", slog.String("cmd", c.Description()), slog.Any("err", err))
		return fmt.Errorf("undo %q: %w", c.Description(), err)
	}
	e.history.Undo()
	e.notify(Undone, c)
	return nil
}

// Redo executes the most recently undone command again.
func (e *Executor) Redo() error {
	c, ok := e.history.PeekRedo()
	if !ok {
		return ErrNothingToRedo
	}
	if err := e.Check(c); err != nil {
		return err
	}
	if err := c.Execute(); err != nil {
		applog.WithOperation(applog.WithComponent("command"), "redo").Warn("redo failed", slog.String("cmd", c.Description()), slog.Any("err", err))
		return fmt.Errorf("redo %q: %w", c.Description(), err)
	}
	e.history.Redo()
	e.notify(Redone, c)
	return nil
}

func (e *Executor) CanUndo() bool { return e.history.CanUndo() }
func (e *Executor) CanRedo() bool { return e.history.CanRedo() }

func (e *Executor) notify(kind EventKind, c Command) {
	e.mu.Lock()
	ls := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range ls {
		l(kind, c)
	}
}
