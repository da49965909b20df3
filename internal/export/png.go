/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
	"godiagram/internal/tool"
)

const captionFontSize = 11

var (
	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

// captionFace returns the Go Mono face at the given size.
func captionFace(size float64) (font.Face, error) {
	monoOnce.Do(func() { monoFont, monoErr = truetype.Parse(gomono.TTF) })
	if monoErr != nil {
		return nil, fmt.Errorf("parse caption font: %w", monoErr)
	}
	return truetype.NewFace(monoFont, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// Raster paints diagrams and tool overlays into an image. It implements
// tool.Canvas so a presenter can draw into it directly.
type Raster struct {
	dc    *gg.Context
	frame frame
}

// NewRaster prepares a white canvas sized to the frame of d.
func NewRaster(d *diagram.Diagram, opt Options) (*Raster, error) {
	f := newFrame(d, opt)
	dc := gg.NewContext(int(math.Ceil(f.width)), int(math.Ceil(f.height)))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	face, err := captionFace(captionFontSize * f.scale)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	return &Raster{dc: dc, frame: f}, nil
}

// Image returns the painted image.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// WritePNG encodes the image.
func (r *Raster) WritePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

func (r *Raster) setColor(c diagram.Color) { r.dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(c.A)) }

func (r *Raster) applyStroke(s diagram.Stroke) {
	r.setColor(s.Color)
	r.dc.SetLineWidth(math.Max(s.Width, 1) * r.frame.scale)
	switch s.Cap {
	case diagram.CapRound:
		r.dc.SetLineCapRound()
	case diagram.CapSquare:
		r.dc.SetLineCapSquare()
	default:
		r.dc.SetLineCapButt()
	}
	if s.Dashed {
		r.dc.SetDash(4*r.frame.scale, 3*r.frame.scale)
	} else {
		r.dc.SetDash()
	}
}

func (r *Raster) path(pts []fpoint, closed bool) {
	r.dc.NewSubPath()
	for i, p := range pts {
		if i == 0 {
			r.dc.MoveTo(p.X, p.Y)
			continue
		}
		r.dc.LineTo(p.X, p.Y)
	}
	if closed {
		r.dc.ClosePath()
	}
}

func (r *Raster) polygon(pts []fpoint, style diagram.Style) {
	if len(pts) < 3 {
		return
	}
	if style.Fill.Enabled {
		r.path(pts, true)
		r.setColor(style.Fill.Color)
		r.dc.Fill()
	}
	if style.Stroke.Enabled {
		r.path(pts, true)
		r.applyStroke(style.Stroke)
		r.dc.Stroke()
	}
}

func (r *Raster) polyline(pts []fpoint, s diagram.Stroke) {
	if len(pts) < 2 || !s.Enabled {
		return
	}
	r.path(pts, false)
	r.applyStroke(s)
	r.dc.Stroke()
}

func (r *Raster) text(s string, c fpoint, angle int) {
	r.dc.Push()
	defer r.dc.Pop()
	if angle != 0 {
		r.dc.RotateAbout(geometry.TenthsToRadians(angle), c.X, c.Y)
	}
	r.dc.SetRGB(0, 0, 0)
	r.dc.DrawStringAnchored(s, c.X, c.Y, 0.5, 0.35)
}

// DrawShape paints s with the given style.
func (r *Raster) DrawShape(s diagram.Shape, style diagram.Style) { paintShape(r, r.frame, s, style) }

func (r *Raster) DrawGrip(p geometry.Point, kind tool.GripKind, size int) {
	c := r.frame.point(p)
	half := float64(size) / 2
	r.dc.SetDash()
	r.dc.SetLineWidth(1)
	switch kind {
	case tool.GripRotate:
		r.dc.DrawCircle(c.X, c.Y, half)
	case tool.GripGlue, tool.GripConnected:
		r.dc.MoveTo(c.X, c.Y-half)
		r.dc.LineTo(c.X+half, c.Y)
		r.dc.LineTo(c.X, c.Y+half)
		r.dc.LineTo(c.X-half, c.Y)
		r.dc.ClosePath()
	default:
		r.dc.DrawRectangle(c.X-half, c.Y-half, float64(size), float64(size))
	}
	if kind == tool.GripConnected {
		r.setColor(diagram.Highlight)
	} else {
		r.setColor(diagram.White)
	}
	r.dc.FillPreserve()
	r.setColor(diagram.Highlight)
	r.dc.Stroke()
}

func (r *Raster) DrawFrame(rect geometry.Rect) {
	tl := r.frame.pt(float64(rect.X), float64(rect.Y))
	r.dc.DrawRectangle(tl.X, tl.Y, float64(rect.Width)*r.frame.scale, float64(rect.Height)*r.frame.scale)
	r.applyStroke(diagram.Stroke{Color: diagram.Highlight, Width: 1, Dashed: true, Enabled: true})
	r.dc.Stroke()
}

func (r *Raster) DrawRotateHint(pivot geometry.Point, radius int, sweep int) {
	c := r.frame.point(pivot)
	rad := float64(radius) * r.frame.scale
	r.applyStroke(diagram.Stroke{Color: diagram.Gray, Width: 1, Dashed: true, Enabled: true})
	r.dc.DrawCircle(c.X, c.Y, rad)
	r.dc.Stroke()
	if sweep != 0 {
		r.dc.NewSubPath()
		r.dc.MoveTo(c.X, c.Y)
		r.dc.DrawArc(c.X, c.Y, rad, 0, geometry.TenthsToRadians(sweep))
		r.dc.ClosePath()
		r.setColor(diagram.Color{R: 0, G: 120, B: 215, A: 64})
		r.dc.Fill()
	}
}

func (r *Raster) DrawConnectionTarget(p geometry.Point) {
	c := r.frame.point(p)
	r.applyStroke(diagram.Stroke{Color: diagram.Highlight, Width: 2, Enabled: true})
	r.dc.DrawCircle(c.X, c.Y, 6)
	r.dc.Stroke()
}

var _ tool.Canvas = (*Raster)(nil)

// PNG renders all shapes of d into w.
func PNG(d *diagram.Diagram, w io.Writer, opt Options) error {
	r, err := NewRaster(d, opt)
	if err != nil {
		return err
	}
	render(r, r.frame, d.Shapes())
	return r.WritePNG(w)
}

// PNGFile renders d into a PNG file, creating parent directories as needed.
func PNGFile(d *diagram.Diagram, path string, opt Options) error {
	return writeAtomic(path, func(w io.Writer) error { return PNG(d, w, opt) })
}

// writeAtomic writes through a temp file next to path and renames it into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
