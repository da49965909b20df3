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
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"godiagram/internal/diagram"
)

// svgPainter emits shapes through an svgo canvas. svgo works in integer
// units, so points are rounded after scaling.
type svgPainter struct {
	canvas *svg.SVG
	scale  float64
}

func svgColor(c diagram.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func svgCoords(pts []fpoint) ([]int, []int) {
	xs, ys := make([]int, len(pts)), make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = int(math.Round(p.X)), int(math.Round(p.Y))
	}
	return xs, ys
}

func (p *svgPainter) strokeAttrs(s diagram.Stroke) string {
	if !s.Enabled {
		return `stroke="none"`
	}
	a := []string{fmt.Sprintf(`stroke="%s" stroke-width="%.2f"`, svgColor(s.Color), max(s.Width, 1)*p.scale)}
	if s.Color.A < 255 {
		a = append(a, fmt.Sprintf(`stroke-opacity="%.3f"`, float64(s.Color.A)/255))
	}
	switch s.Cap {
	case diagram.CapRound:
		a = append(a, `stroke-linecap="round"`)
	case diagram.CapSquare:
		a = append(a, `stroke-linecap="square"`)
	}
	if s.Dashed {
		a = append(a, fmt.Sprintf(`stroke-dasharray="%.2f %.2f"`, 4*p.scale, 3*p.scale))
	}
	return strings.Join(a, " ")
}

func (p *svgPainter) polygon(pts []fpoint, style diagram.Style) {
	if len(pts) < 3 {
		return
	}
	fill := `fill="none"`
	if style.Fill.Enabled {
		fill = fmt.Sprintf(`fill="%s"`, svgColor(style.Fill.Color))
		if style.Fill.Color.A < 255 {
			fill += fmt.Sprintf(` fill-opacity="%.3f"`, float64(style.Fill.Color.A)/255)
		}
	}
	xs, ys := svgCoords(pts)
	p.canvas.Polygon(xs, ys, fill, p.strokeAttrs(style.Stroke))
}

func (p *svgPainter) polyline(pts []fpoint, s diagram.Stroke) {
	if len(pts) < 2 || !s.Enabled {
		return
	}
	xs, ys := svgCoords(pts)
	p.canvas.Polyline(xs, ys, `fill="none"`, p.strokeAttrs(s))
}

func (p *svgPainter) text(s string, c fpoint, angle int) {
	x, y := int(math.Round(c.X)), int(math.Round(c.Y))
	if angle != 0 {
		p.canvas.Gtransform(fmt.Sprintf("rotate(%.1f %d %d)", float64(angle)/10, x, y))
		defer p.canvas.Gend()
	}
	p.canvas.Text(x, y, s, fmt.Sprintf("font-family:monospace;font-size:%.1fpx;text-anchor:middle;dominant-baseline:middle", captionFontSize*p.scale))
}

// SVG writes d as a standalone SVG document.
func SVG(d *diagram.Diagram, w io.Writer, opt Options) error {
	f := newFrame(d, opt)
	ew := &errWriter{w: w}
	p := &svgPainter{canvas: svg.New(ew), scale: f.scale}
	width, height := int(math.Ceil(f.width)), int(math.Ceil(f.height))
	p.canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))
	title := opt.Title
	if title == "" {
		title = d.Name
	}
	if title != "" {
		p.canvas.Title(title)
	}
	p.canvas.Rect(0, 0, width, height, fmt.Sprintf(`fill="%s"`, svgColor(diagram.White)))
	render(p, f, d.Shapes())
	p.canvas.End()
	return ew.err
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(b)
	e.err = err
	return n, err
}

// SVGFile writes d into an SVG file.
func SVGFile(d *diagram.Diagram, path string, opt Options) error {
	return writeAtomic(path, func(w io.Writer) error { return SVG(d, w, opt) })
}
