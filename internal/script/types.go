/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script replays YAML gesture scripts against the interactive
// tools: it builds a diagram, switches tools, feeds mouse and key events
// and checks expectations along the way.
package script

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/tool"
)

// Script is the root of a gesture script file.
type Script struct {
	Diagram DiagramDef `yaml:"diagram"`
	Role    string     `yaml:"role,omitempty"`
	Grid    *GridDef   `yaml:"grid,omitempty"`
	// Library names an extra template file loaded before the shapes.
	Library string     `yaml:"library,omitempty"`
	Shapes  []ShapeDef `yaml:"shapes,omitempty"`
	Deny    []DenyDef  `yaml:"deny,omitempty"`
	Steps   []Step     `yaml:"steps"`
}

type DiagramDef struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type GridDef struct {
	Size         int  `yaml:"size"`
	SnapDistance int  `yaml:"snap_distance"`
	Enabled      bool `yaml:"snap_to_grid"`
}

// ShapeDef places a shape before the first step. Planar shapes use At as
// center; linear shapes use Vertices.
type ShapeDef struct {
	ID       string       `yaml:"id"`
	Template string       `yaml:"template"`
	At       Pos          `yaml:"at,omitempty"`
	Size     *Pos         `yaml:"size,omitempty"`
	Angle    int          `yaml:"angle,omitempty"`
	Caption  string       `yaml:"caption,omitempty"`
	Vertices []Pos        `yaml:"vertices,omitempty"`
	Connect  []ConnectDef `yaml:"connect,omitempty"`
}

// ConnectDef glues Point of the enclosing shape to ToPoint of To.
type ConnectDef struct {
	Point   PointRef `yaml:"point"`
	To      string   `yaml:"to"`
	ToPoint PointRef `yaml:"to_point"`
}

// DenyDef withholds a permission for one shape.
type DenyDef struct {
	Shape      string `yaml:"shape"`
	Permission string `yaml:"permission"`
}

// Step is one action, optionally followed by expectations. Positions are in
// diagram coordinates.
type Step struct {
	Tool        string `yaml:"tool,omitempty"`
	Down        *Pos   `yaml:"down,omitempty"`
	Up          *Pos   `yaml:"up,omitempty"`
	Move        *Pos   `yaml:"move,omitempty"`
	Click       *Pos   `yaml:"click,omitempty"`
	DoubleClick *Pos   `yaml:"dblclick,omitempty"`
	Drag        *Drag  `yaml:"drag,omitempty"`
	Key         string `yaml:"key,omitempty"`
	Undo        bool   `yaml:"undo,omitempty"`
	Redo        bool   `yaml:"redo,omitempty"`

	Button string   `yaml:"button,omitempty"`
	Mods   []string `yaml:"mods,omitempty"`
	// Caption answers the next caption editor request; nil dismisses it.
	Caption *string `yaml:"caption,omitempty"`
	Expect  *Expect `yaml:"expect,omitempty"`
}

// Drag presses at From, moves in Steps increments and releases at To.
type Drag struct {
	From  Pos `yaml:"from"`
	To    Pos `yaml:"to"`
	Steps int `yaml:"steps,omitempty"`
}

// Expect is checked after the action of its step.
type Expect struct {
	Shapes    *int          `yaml:"shapes,omitempty"`
	Selected  *int          `yaml:"selected,omitempty"`
	Pending   *bool         `yaml:"pending,omitempty"`
	CanUndo   *bool         `yaml:"can_undo,omitempty"`
	CanRedo   *bool         `yaml:"can_redo,omitempty"`
	Errors    *int          `yaml:"errors,omitempty"`
	Cursor    string        `yaml:"cursor,omitempty"`
	Shape     []ShapeExpect `yaml:"shape,omitempty"`
	Connected []ConnExpect  `yaml:"connected,omitempty"`
}

// ShapeExpect checks one shape. Ref is a script id or "top" for the
// top-most shape of the diagram.
type ShapeExpect struct {
	Ref      string  `yaml:"ref"`
	At       *Pos    `yaml:"at,omitempty"`
	Size     *Pos    `yaml:"size,omitempty"`
	Angle    *int    `yaml:"angle,omitempty"`
	Caption  *string `yaml:"caption,omitempty"`
	Template string  `yaml:"template,omitempty"`
	Vertices []Pos   `yaml:"vertices,omitempty"`
	Selected *bool   `yaml:"selected,omitempty"`
}

// ConnExpect checks the glue connection of Point of Ref. An empty To
// expects no connection.
type ConnExpect struct {
	Ref     string   `yaml:"ref"`
	Point   PointRef `yaml:"point"`
	To      string   `yaml:"to,omitempty"`
	ToPoint PointRef `yaml:"to_point,omitempty"`
}

// Pos is written as [x, y] or {x: .., y: ..}.
type Pos struct{ X, Y int }

func (p Pos) Point() geometry.Point { return geometry.Pt(p.X, p.Y) }

func (p *Pos) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var v []int
		if err := n.Decode(&v); err != nil {
			return err
		}
		if len(v) != 2 {
			return fmt.Errorf("line %d: position needs two coordinates, got %d", n.Line, len(v))
		}
		p.X, p.Y = v[0], v[1]
		return nil
	case yaml.MappingNode:
		var v struct {
			X int `yaml:"x"`
			Y int `yaml:"y"`
		}
		if err := n.Decode(&v); err != nil {
			return err
		}
		p.X, p.Y = v.X, v.Y
		return nil
	}
	return fmt.Errorf("line %d: position must be [x, y] or {x, y}", n.Line)
}

var pointNames = map[string]diagram.ControlPointID{
	"reference":     diagram.ReferencePoint,
	"first":         diagram.FirstVertex,
	"last":          diagram.LastVertex,
	"top_left":      diagram.TopLeftPoint,
	"top_center":    diagram.TopCenterPoint,
	"top_right":     diagram.TopRightPoint,
	"middle_left":   diagram.MiddleLeftPoint,
	"middle_right":  diagram.MiddleRightPoint,
	"bottom_left":   diagram.BottomLeftPoint,
	"bottom_center": diagram.BottomCenterPoint,
	"bottom_right":  diagram.BottomRightPoint,
	"center":        diagram.CenterPoint,
}

// PointRef is a control point given by name or number.
type PointRef struct {
	ID  diagram.ControlPointID
	Set bool
}

func (r *PointRef) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	id, err := ParsePoint(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	r.ID, r.Set = id, true
	return nil
}

// ParsePoint resolves a point name such as "middle_left" or a number.
func ParsePoint(s string) (diagram.ControlPointID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if id, ok := pointNames[s]; ok {
		return id, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return diagram.NoPoint, fmt.Errorf("unknown control point %q", s)
	}
	return diagram.ControlPointID(n), nil
}

func parseButton(s string) (tool.MouseButtons, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return tool.ButtonLeft, nil
	case "right":
		return tool.ButtonRight, nil
	case "middle":
		return tool.ButtonMiddle, nil
	}
	return tool.ButtonNone, fmt.Errorf("unknown button %q", s)
}

func parseMods(names []string) (tool.KeyModifiers, error) {
	var m tool.KeyModifiers
	for _, n := range names {
		switch strings.ToLower(n) {
		case "shift":
			m |= tool.ModShift
		case "ctrl", "control":
			m |= tool.ModCtrl
		case "alt":
			m |= tool.ModAlt
		default:
			return tool.ModNone, fmt.Errorf("unknown modifier %q", n)
		}
	}
	return m, nil
}

// parseKey maps a key name to a key event; single characters become runes.
func parseKey(s string) (tool.Key, rune, error) {
	switch strings.ToLower(s) {
	case "escape", "esc":
		return tool.KeyEscape, 0, nil
	case "enter", "return":
		return tool.KeyEnter, 0, nil
	case "delete", "del":
		return tool.KeyDelete, 0, nil
	case "f2":
		return tool.KeyF2, 0, nil
	}
	if r := []rune(s); len(r) == 1 {
		return tool.KeyRune, r[0], nil
	}
	return tool.KeyNone, 0, fmt.Errorf("unknown key %q", s)
}

// action names the single action of a step, "" for pure expectation steps.
func (s *Step) action() (string, error) {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(s.Tool != "", "tool")
	add(s.Down != nil, "down")
	add(s.Up != nil, "up")
	add(s.Move != nil, "move")
	add(s.Click != nil, "click")
	add(s.DoubleClick != nil, "dblclick")
	add(s.Drag != nil, "drag")
	add(s.Key != "", "key")
	add(s.Undo, "undo")
	add(s.Redo, "redo")
	switch len(set) {
	case 0:
		if s.Expect == nil && s.Caption == nil {
			return "", fmt.Errorf("step has no action")
		}
		return "", nil
	case 1:
		return set[0], nil
	}
	return "", fmt.Errorf("step has several actions: %s", strings.Join(set, ", "))
}
