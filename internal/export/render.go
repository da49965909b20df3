/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes diagram snapshots as PNG, PDF or SVG files.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

// Options controls the snapshot frame.
type Options struct {
	// Scale maps diagram units to output units (pixels or points). Zero means 1.
	Scale float64
	// Padding is added around the content in diagram units.
	Padding int
	// Crop limits the output to the content bounds instead of the diagram size.
	Crop bool
	// Title is written into document metadata where the format supports it.
	Title string
}

// ellipseSegments is the number of polygon edges used for ellipse outlines.
const ellipseSegments = 48

type fpoint struct{ X, Y float64 }

// frame maps diagram coordinates into output coordinates.
type frame struct {
	origin geometry.Point
	scale  float64
	width  float64
	height float64
}

func newFrame(d *diagram.Diagram, opt Options) frame {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	area := geometry.Rect{Width: d.Width, Height: d.Height}
	if opt.Crop || area.IsEmpty() {
		area = diagram.BoundsOf(d.Shapes())
	}
	area = area.Inflate(opt.Padding)
	if area.Width <= 0 {
		area.Width = 1
	}
	if area.Height <= 0 {
		area.Height = 1
	}
	return frame{
		origin: geometry.Point{X: area.X, Y: area.Y},
		scale:  scale,
		width:  float64(area.Width) * scale,
		height: float64(area.Height) * scale,
	}
}

func (f frame) pt(x, y float64) fpoint {
	return fpoint{(x - float64(f.origin.X)) * f.scale, (y - float64(f.origin.Y)) * f.scale}
}

func (f frame) point(p geometry.Point) fpoint { return f.pt(float64(p.X), float64(p.Y)) }

// outline returns the closed body polygon of a planar shape in diagram
// coordinates, rotation applied.
func outline(s *diagram.PlanarShape) []fpoint {
	c := s.Center()
	hw, hh := float64(s.Width())/2, float64(s.Height())/2
	var local []fpoint
	switch s.Type().Outline {
	case diagram.OutlineEllipse:
		for i := range ellipseSegments {
			a := 2 * math.Pi * float64(i) / ellipseSegments
			local = append(local, fpoint{hw * math.Cos(a), hh * math.Sin(a)})
		}
	case diagram.OutlineRoundedRect:
		r := float64(s.CornerRadius())
		corners := []struct{ cx, cy, start float64 }{
			{hw - r, -hh + r, -math.Pi / 2},
			{hw - r, hh - r, 0},
			{-hw + r, hh - r, math.Pi / 2},
			{-hw + r, -hh + r, math.Pi},
		}
		for _, k := range corners {
			for i := 0; i <= 6; i++ {
				a := k.start + math.Pi/2*float64(i)/6
				local = append(local, fpoint{k.cx + r*math.Cos(a), k.cy + r*math.Sin(a)})
			}
		}
	default:
		local = []fpoint{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	}
	cx, cy := float64(c.X), float64(c.Y)
	out := make([]fpoint, len(local))
	for i, p := range local {
		x, y := geometry.RotateFloat(cx+p.X, cy+p.Y, cx, cy, s.Angle())
		out[i] = fpoint{x, y}
	}
	return out
}

// polyline returns the vertex positions of a linear shape.
func polyline(s *diagram.LinearShape) []fpoint {
	ids := s.Vertices()
	out := make([]fpoint, len(ids))
	for i, id := range ids {
		p := s.ControlPointPosition(id)
		out[i] = fpoint{float64(p.X), float64(p.Y)}
	}
	return out
}

// painter is the per-format drawing backend used by render.
type painter interface {
	polygon(pts []fpoint, style diagram.Style)
	polyline(pts []fpoint, stroke diagram.Stroke)
	text(s string, center fpoint, angle int)
}

// render paints the shapes in z-order; groups paint their children.
func render(p painter, f frame, shapes []diagram.Shape) {
	for _, s := range shapes {
		paintShape(p, f, s, s.Style())
	}
}

func paintShape(p painter, f frame, s diagram.Shape, style diagram.Style) {
	switch v := s.(type) {
	case *diagram.PlanarShape:
		pts := outline(v)
		for i := range pts {
			pts[i] = f.pt(pts[i].X, pts[i].Y)
		}
		p.polygon(pts, style)
		if txt := v.CaptionText(0); txt != "" {
			p.text(txt, f.point(v.Center()), v.Angle())
		}
	case *diagram.LinearShape:
		pts := polyline(v)
		for i := range pts {
			pts[i] = f.pt(pts[i].X, pts[i].Y)
		}
		p.polyline(pts, style.Stroke)
	case *diagram.GroupShape:
		for _, c := range v.Children() {
			paintShape(p, f, c, c.Style())
		}
	}
}

// Format is a snapshot file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "png":
		return FormatPNG, nil
	case "pdf":
		return FormatPDF, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", ext)
	}
}

// WriteFile exports d to path in the format given by its extension.
func WriteFile(d *diagram.Diagram, path string, opt Options) error {
	if d == nil {
		return fmt.Errorf("diagram is nil")
	}
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatPDF:
		return PDFFile(d, path, opt)
	case FormatSVG:
		return SVGFile(d, path, opt)
	default:
		return PNGFile(d, path, opt)
	}
}
