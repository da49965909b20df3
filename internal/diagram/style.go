/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

// Styles and paint definitions used by renderers and exporters.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
	Gray        = Color{128, 128, 128, 255}
	Highlight   = Color{0, 120, 215, 255}
)

type Fill struct {
	Color   Color
	Enabled bool
}

type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

type Stroke struct {
	Color   Color
	Width   float64
	Cap     LineCap
	Dashed  bool
	Enabled bool
}

// Style bundles fill and stroke of a shape.
type Style struct {
	Fill   Fill
	Stroke Stroke
}

// DefaultStyle is applied to shapes created without a template style.
var DefaultStyle = Style{
	Fill:   Fill{Color: White, Enabled: true},
	Stroke: Stroke{Color: Black, Width: 1, Enabled: true},
}

// PreviewStyle returns a washed-out variant of s for tentative edits.
func PreviewStyle(s Style) Style {
	s.Fill.Color.A = s.Fill.Color.A / 3
	s.Stroke.Color.A = s.Stroke.Color.A / 2
	s.Stroke.Dashed = true
	return s
}
