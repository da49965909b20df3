/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tool turns pointer and keyboard events into editing gestures and
// the commands that commit them. Tools run on the event thread of their host.
package tool

import (
	"log/slog"

	"godiagram/internal/command"
	"godiagram/internal/connect"
	"godiagram/internal/diagram"
	applog "godiagram/internal/log"
	"godiagram/internal/security"
)

// Tool is implemented by PointerTool, LinearShapeCreationTool and
// PlanarShapeCreationTool.
type Tool interface {
	Title() string
	// ProcessMouseEvent reports whether the event was consumed. An error means
	// a commit failed and the gesture was cancelled.
	ProcessMouseEvent(d Display, e MouseEventArgs) (bool, error)
	ProcessKeyEvent(d Display, e KeyEventArgs) (bool, error)
	EnterDisplay(d Display)
	LeaveDisplay(d Display)
	Draw(c Canvas)
	Invalidate(d Display)
	Cancel()
	IsToolActionPending() bool
	WantsAutoScroll() bool
	OnExecuted(fn func(ExecutedEvent))
}

type Result uint8

const (
	Executed Result = iota
	Canceled
)

func (r Result) String() string {
	if r == Canceled {
		return "canceled"
	}
	return "executed"
}

// ExecutedEvent is raised when a gesture ends. Command is nil for gestures
// that only changed the selection.
type ExecutedEvent struct {
	Tool    Tool
	Result  Result
	Command command.Command
}

type toolBase struct {
	self      Tool
	title     string
	settings  Settings
	listeners []func(ExecutedEvent)
	log       *slog.Logger
}

func newToolBase(self Tool, title string, settings Settings) toolBase {
	return toolBase{self: self, title: title, settings: settings, log: applog.WithComponent("tool").With(slog.String("tool", title))}
}

func (b *toolBase) Title() string { return b.title }

func (b *toolBase) OnExecuted(fn func(ExecutedEvent)) {
	if fn != nil {
		b.listeners = append(b.listeners, fn)
	}
}

func (b *toolBase) emit(r Result, c command.Command) {
	ev := ExecutedEvent{Tool: b.self, Result: r, Command: c}
	for _, fn := range b.listeners {
		fn(ev)
	}
}

// Settings returns the options the tool was created with.
func (b *toolBase) Settings() Settings { return b.settings }

// helpers shared by all tools; they only use the display they are given

func gripRadius(d Display, s Settings) int {
	return max(1, d.ScreenToDiagramDistance(s.GripSize))
}

func granted(d Display, p security.Permission, shapes ...diagram.Shape) bool {
	sec := d.Security()
	return sec == nil || sec.IsGranted(p, shapes...)
}

func connectionFinder(d Display, s Settings, exclude func(diagram.Shape) bool) connect.Finder {
	return connect.Finder{Index: d.Diagram(), Grid: d.Grid(), Radius: gripRadius(d, s), Exclude: exclude}
}

func invalidateShapes(d Display, margin int, shapes ...diagram.Shape) {
	for _, s := range shapes {
		d.Invalidate(s.Bounds().Inflate(margin))
	}
}

func execute(d Display, c command.Command) error {
	return d.Executor().Execute(c)
}
