/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"godiagram/internal/diagram"
	"godiagram/internal/version"
)

// pdfPainter draws onto a single gofpdf page in points.
type pdfPainter struct {
	pdf   *gofpdf.Fpdf
	scale float64
}

func setDrawColor(pdf *gofpdf.Fpdf, c diagram.Color) { pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func setFillColor(pdf *gofpdf.Fpdf, c diagram.Color) { pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }

func (p *pdfPainter) applyStroke(s diagram.Stroke) {
	setDrawColor(p.pdf, s.Color)
	p.pdf.SetLineWidth(max(s.Width, 1) * p.scale)
	switch s.Cap {
	case diagram.CapRound:
		p.pdf.SetLineCapStyle("round")
	case diagram.CapSquare:
		p.pdf.SetLineCapStyle("square")
	default:
		p.pdf.SetLineCapStyle("butt")
	}
	if s.Dashed {
		p.pdf.SetDashPattern([]float64{4 * p.scale, 3 * p.scale}, 0)
	} else {
		p.pdf.SetDashPattern(nil, 0)
	}
}

func (p *pdfPainter) polygon(pts []fpoint, style diagram.Style) {
	if len(pts) < 3 {
		return
	}
	mode := ""
	if style.Fill.Enabled && style.Fill.Color.A > 0 {
		setFillColor(p.pdf, style.Fill.Color)
		mode += "F"
	}
	if style.Stroke.Enabled {
		p.applyStroke(style.Stroke)
		mode = "D" + mode
	}
	if mode == "" {
		return
	}
	if a := style.Fill.Color.A; style.Fill.Enabled && a < 255 {
		p.pdf.SetAlpha(float64(a)/255, "Normal")
		defer p.pdf.SetAlpha(1, "Normal")
	}
	poly := make([]gofpdf.PointType, len(pts))
	for i, q := range pts {
		poly[i] = gofpdf.PointType{X: q.X, Y: q.Y}
	}
	p.pdf.Polygon(poly, mode)
}

func (p *pdfPainter) polyline(pts []fpoint, s diagram.Stroke) {
	if len(pts) < 2 || !s.Enabled {
		return
	}
	p.applyStroke(s)
	p.pdf.MoveTo(pts[0].X, pts[0].Y)
	for _, q := range pts[1:] {
		p.pdf.LineTo(q.X, q.Y)
	}
	p.pdf.DrawPath("D")
}

func (p *pdfPainter) text(s string, c fpoint, angle int) {
	size := captionFontSize * p.scale
	p.pdf.SetFont("Courier", "", size)
	p.pdf.SetTextColor(0, 0, 0)
	if angle != 0 {
		p.pdf.TransformBegin()
		// gofpdf rotates counter-clockwise
		p.pdf.TransformRotate(-float64(angle)/10, c.X, c.Y)
		defer p.pdf.TransformEnd()
	}
	w := p.pdf.GetStringWidth(s)
	p.pdf.Text(c.X-w/2, c.Y+size*0.35, s)
}

// PDF renders d onto a single page sized to the frame.
func PDF(d *diagram.Diagram, w io.Writer, opt Options) error {
	f := newFrame(d, opt)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: f.width, Ht: f.height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	title := opt.Title
	if title == "" {
		title = d.Name
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("godiagram "+version.String(), true)
	pdf.AddPage()
	render(&pdfPainter{pdf: pdf, scale: f.scale}, f, d.Shapes())
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// PDFFile renders d into a PDF file.
func PDFFile(d *diagram.Diagram, path string, opt Options) error {
	return writeAtomic(path, func(w io.Writer) error { return PDF(d, w, opt) })
}
