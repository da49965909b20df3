/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"godiagram/internal/command"
	"godiagram/internal/diagram"
	"godiagram/internal/display"
	"godiagram/internal/geometry"
	"godiagram/internal/library"
	applog "godiagram/internal/log"
	"godiagram/internal/security"
	"godiagram/internal/snap"
	"godiagram/internal/tool"
)

// DefaultDragSteps is the number of move events of a drag step.
const DefaultDragSteps = 4

// Runner replays scripts. The zero value is not usable; use NewRunner.
type Runner struct {
	Library  *library.Registry
	Settings tool.Settings
	Grid     snap.Grid
	// Role applies when the script names none.
	Role security.Role
	// Dir resolves relative library paths of scripts.
	Dir string
	// Listeners are attached to the executor of every run.
	Listeners []command.Listener
}

// NewRunner creates a runner with the built-in templates.
func NewRunner(settings tool.Settings, grid snap.Grid) *Runner {
	return &Runner{Library: library.Builtin(), Settings: settings, Grid: grid, Role: security.Designer}
}

// StepError is a tool or executor failure during a step. Scripts continue
// after these; expectations can count them.
type StepError struct {
	Step int
	Err  error
}

func (e StepError) Error() string { return fmt.Sprintf("step %d: %v", e.Step, e.Err) }
func (e StepError) Unwrap() error { return e.Err }

// ExpectationError stops a run at the first unmet expectation.
type ExpectationError struct {
	Step int
	Msg  string
}

func (e *ExpectationError) Error() string { return fmt.Sprintf("step %d: %s", e.Step, e.Msg) }

// Result summarizes a run. Presenter and Diagram stay usable for snapshots.
type Result struct {
	Presenter *display.Presenter
	Diagram   *diagram.Diagram
	Steps     int
	Executed  int
	Canceled  int
	Errors    []StepError
}

// run is the state of one replay.
type run struct {
	runner *Runner
	reg    *library.Registry
	p      *display.Presenter
	refs   map[string]diagram.Shape
	res    *Result
	mouse  tool.MouseState
	step   int

	captionAnswer *string
	captionSet    bool
}

// Run replays s from a fresh diagram. The returned result is non-nil
// whenever the diagram could be built, even if an expectation failed.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	l := applog.WithOperation(applog.WithComponent("script"), "run")
	reg, err := r.registry(s)
	if err != nil {
		return nil, err
	}
	name := s.Diagram.Name
	if name == "" {
		name = "script"
	}
	d := diagram.New(name, s.Diagram.Width, s.Diagram.Height)

	role := r.Role
	if s.Role != "" {
		if role, err = security.ParseRole(s.Role); err != nil {
			return nil, err
		}
	}
	if role == "" {
		role = security.Designer
	}
	sec := security.NewRoleManager(role)

	rn := &run{runner: r, reg: reg, refs: map[string]diagram.Shape{}}
	if err := rn.populate(d, s.Shapes); err != nil {
		return nil, err
	}
	for _, dn := range s.Deny {
		sh, ok := rn.refs[dn.Shape]
		if !ok {
			return nil, fmt.Errorf("deny: unknown shape %q", dn.Shape)
		}
		perm, err := security.ParsePermission(dn.Permission)
		if err != nil {
			return nil, fmt.Errorf("deny: %w", err)
		}
		sec.Deny(sh, perm)
	}

	grid := r.Grid
	if s.Grid != nil {
		grid = snap.Grid{Size: s.Grid.Size, SnapDistance: s.Grid.SnapDistance, Enabled: s.Grid.Enabled}
	}
	exec := command.NewExecutor(sec, nil)
	for _, li := range r.Listeners {
		exec.AddListener(li)
	}
	rn.p = display.New(d, exec, sec, grid)
	rn.p.CaptionEditor = rn.editCaption
	rn.res = &Result{Presenter: rn.p, Diagram: d}
	rn.setTool(tool.NewPointerTool(r.Settings))

	ctx = applog.WithDiagram(ctx, name)
	l.DebugContext(ctx, "replay started", slog.Int("shapes", d.Len()), slog.Int("steps", len(s.Steps)))
	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			return rn.res, err
		}
		rn.step = i + 1
		if err := rn.apply(&s.Steps[i]); err != nil {
			l.WarnContext(ctx, "replay stopped", slog.Int("step", rn.step), slog.Any("err", err))
			return rn.res, err
		}
		rn.res.Steps++
	}
	l.DebugContext(ctx, "replay finished", slog.Int("executed", rn.res.Executed), slog.Int("errors", len(rn.res.Errors)))
	return rn.res, nil
}

func (r *Runner) registry(s *Script) (*library.Registry, error) {
	base := r.Library
	if base == nil {
		base = library.Builtin()
	}
	if s.Library == "" {
		return base, nil
	}
	reg := library.NewRegistry()
	for _, t := range base.Templates() {
		if err := reg.Add(*t); err != nil {
			return nil, err
		}
	}
	path := s.Library
	if !filepath.IsAbs(path) && r.Dir != "" {
		path = filepath.Join(r.Dir, path)
	}
	if err := reg.LoadFile(path); err != nil {
		return nil, err
	}
	return reg, nil
}

func (rn *run) populate(d *diagram.Diagram, defs []ShapeDef) error {
	for i, def := range defs {
		tmpl, err := rn.reg.Lookup(def.Template)
		if err != nil {
			return fmt.Errorf("shape %d: %w", i+1, err)
		}
		var s diagram.Shape
		switch {
		case tmpl.IsLinear() && len(def.Vertices) > 0:
			pts := make([]geometry.Point, len(def.Vertices))
			for j, v := range def.Vertices {
				pts[j] = v.Point()
			}
			if len(pts) < tmpl.Type().MinVertexCount || len(pts) > tmpl.Type().MaxVertexCount {
				return fmt.Errorf("shape %d: %s needs %d to %d vertices", i+1, tmpl.Name, tmpl.Type().MinVertexCount, tmpl.Type().MaxVertexCount)
			}
			s = tmpl.CreateLinearShape(pts...)
		case !tmpl.IsLinear() && def.Size != nil:
			proto := tmpl.CreateShape()
			s = diagram.NewPlanarShape(tmpl.Type(), def.At.Point(), def.Size.X, def.Size.Y)
			s.SetStyle(proto.Style())
			s.SetName(proto.Name())
			diagram.SetTemplate(s, tmpl.Name)
			_ = s.SetCaptionText(0, proto.CaptionText(0))
		default:
			s = tmpl.CreateShape()
			s.MoveTo(def.At.X, def.At.Y)
		}
		if def.Angle != 0 {
			s.Rotate(def.Angle, s.Location())
		}
		if def.Caption != "" {
			if err := s.SetCaptionText(0, def.Caption); err != nil {
				return fmt.Errorf("shape %d: %w", i+1, err)
			}
		}
		d.AddTopMost(s)
		if def.ID != "" {
			rn.refs[def.ID] = s
		}
	}
	for i, def := range defs {
		for _, c := range def.Connect {
			if err := diagram.Connect(rn.refs[def.ID], c.Point.ID, rn.refs[c.To], c.ToPoint.ID); err != nil {
				return fmt.Errorf("shape %d: connect to %s: %w", i+1, c.To, err)
			}
		}
	}
	return nil
}

func (rn *run) setTool(t tool.Tool) {
	t.OnExecuted(func(e tool.ExecutedEvent) {
		if e.Result == tool.Canceled {
			rn.res.Canceled++
			return
		}
		rn.res.Executed++
	})
	rn.p.SetTool(t)
}

func (rn *run) toolFor(name string) (tool.Tool, error) {
	if name == "pointer" {
		return tool.NewPointerTool(rn.runner.Settings), nil
	}
	tmpl, err := rn.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if tmpl.IsLinear() {
		return tool.NewLinearShapeCreationTool(tmpl, rn.runner.Settings), nil
	}
	return tool.NewPlanarShapeCreationTool(tmpl, rn.runner.Settings), nil
}

func (rn *run) editCaption(_ diagram.Shape, _ int, _ string, done func(string, bool)) {
	answer, ok := rn.captionAnswer, rn.captionSet
	rn.captionAnswer, rn.captionSet = nil, false
	if !ok || answer == nil {
		done("", false)
		return
	}
	done(*answer, true)
}

func (rn *run) fail(err error) {
	if err != nil {
		rn.res.Errors = append(rn.res.Errors, StepError{Step: rn.step, Err: err})
	}
}

func (rn *run) apply(st *Step) error {
	action, err := st.action()
	if err != nil {
		return err
	}
	if st.Caption != nil {
		rn.captionAnswer, rn.captionSet = st.Caption, true
	}
	button, err := parseButton(st.Button)
	if err != nil {
		return err
	}
	mods, err := parseMods(st.Mods)
	if err != nil {
		return err
	}
	if action != "" && action != "tool" && action != "undo" && action != "redo" {
		rn.setModifiers(mods)
	}

	switch action {
	case "tool":
		t, err := rn.toolFor(st.Tool)
		if err != nil {
			return err
		}
		rn.setTool(t)
	case "down":
		rn.send(tool.MouseDown, st.Down.Point(), button, 1)
	case "up":
		rn.send(tool.MouseUp, st.Up.Point(), button, 1)
	case "move":
		rn.send(tool.MouseMove, st.Move.Point(), tool.ButtonNone, 0)
	case "click":
		rn.send(tool.MouseDown, st.Click.Point(), button, 1)
		rn.send(tool.MouseUp, st.Click.Point(), button, 1)
	case "dblclick":
		for clicks := 1; clicks <= 2; clicks++ {
			rn.send(tool.MouseDown, st.DoubleClick.Point(), button, clicks)
			rn.send(tool.MouseUp, st.DoubleClick.Point(), button, clicks)
		}
	case "drag":
		rn.drag(st.Drag, button)
	case "key":
		key, ch, err := parseKey(st.Key)
		if err != nil {
			return err
		}
		rn.key(tool.KeyDown, key, ch)
		rn.key(tool.KeyUp, key, ch)
	case "undo":
		rn.fail(rn.p.Undo())
	case "redo":
		rn.fail(rn.p.Redo())
	}
	if st.Expect != nil {
		return rn.check(st.Expect)
	}
	return nil
}

func (rn *run) send(kind tool.MouseEventKind, pos geometry.Point, button tool.MouseButtons, clicks int) {
	rn.mouse.Position = pos
	switch kind {
	case tool.MouseDown:
		rn.mouse.Buttons |= button
	case tool.MouseUp:
		rn.mouse.Buttons &^= button
	}
	_, err := rn.p.DiagramMouseEvent(tool.MouseEventArgs{Kind: kind, State: rn.mouse, Button: button, Clicks: clicks})
	rn.fail(err)
}

func (rn *run) drag(d *Drag, button tool.MouseButtons) {
	n := d.Steps
	if n <= 0 {
		n = DefaultDragSteps
	}
	from, to := d.From.Point(), d.To.Point()
	rn.send(tool.MouseDown, from, button, 1)
	for i := 1; i <= n; i++ {
		p := geometry.Point{X: from.X + (to.X-from.X)*i/n, Y: from.Y + (to.Y-from.Y)*i/n}
		rn.send(tool.MouseMove, p, tool.ButtonNone, 0)
	}
	rn.send(tool.MouseUp, to, button, 1)
}

func (rn *run) key(kind tool.KeyEventKind, key tool.Key, ch rune) {
	_, err := rn.p.KeyEvent(tool.KeyEventArgs{Kind: kind, Key: key, Rune: ch, Modifiers: rn.mouse.Modifiers})
	rn.fail(err)
}

// setModifiers emits modifier key events the way a host does when the
// held modifiers change between steps.
func (rn *run) setModifiers(m tool.KeyModifiers) {
	old := rn.mouse.Modifiers
	if old == m {
		return
	}
	rn.mouse.Modifiers = m
	for _, k := range []struct {
		mod tool.KeyModifiers
		key tool.Key
	}{{tool.ModShift, tool.KeyShift}, {tool.ModCtrl, tool.KeyControl}, {tool.ModAlt, tool.KeyAlt}} {
		switch {
		case m&k.mod != 0 && old&k.mod == 0:
			rn.key(tool.KeyDown, k.key, 0)
		case m&k.mod == 0 && old&k.mod != 0:
			rn.key(tool.KeyUp, k.key, 0)
		}
	}
}
