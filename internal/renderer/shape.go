package renderer

import (
	"image/color"

	"github.com/fogleman/gg"
	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

var (
	textColor      = color.Black
	guideColor     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	selectionColor = color.RGBA{R: 0, G: 120, B: 215, A: 255}
	haloColor      = color.RGBA{R: 0, G: 120, B: 215, A: 80}
)

const (
	defaultStrokeColor = "#000000"
	defaultStrokeWidth = 2.0
	handleSize         = 6.0
)

func (r *Renderer) stroke(el *labelformat.Element) float64 {
	w := el.StrokeWidth
	if w <= 0 {
		w = defaultStrokeWidth
	}
	return w * r.scale
}

func (r *Renderer) strokeColor(el *labelformat.Element) {
	c := el.StrokeColor
	if c == "" {
		c = defaultStrokeColor
	}
	r.ctx.SetHexColor(c)
}

// renderShape draws an unfilled rectangle with the stroke inside the box
func (r *Renderer) renderShape(el *labelformat.Element) error {
	x, y, w, h := r.box(el)
	sw := r.stroke(el)

	r.strokeColor(el)
	r.ctx.SetLineWidth(sw)
	r.ctx.DrawRectangle(x+sw/2, y+sw/2, w-sw, h-sw)
	r.ctx.Stroke()
	return nil
}

func (r *Renderer) renderLine(el *labelformat.Element) error {
	a, b := geometry.ScaledLineEndpoints(*el, r.scale)
	sw := r.stroke(el)

	if r.editing() && r.selected[el.ID] {
		r.ctx.SetColor(haloColor)
		r.ctx.SetLineWidth(sw + 6*r.scale)
		r.ctx.SetLineCap(gg.LineCapRound)
		r.ctx.DrawLine(a.X, a.Y, b.X, b.Y)
		r.ctx.Stroke()
	}

	r.strokeColor(el)
	r.ctx.SetLineWidth(sw)
	r.ctx.SetLineCap(gg.LineCapButt)
	r.ctx.DrawLine(a.X, a.Y, b.X, b.Y)
	r.ctx.Stroke()
	return nil
}

// drawSelection outlines a selected element in edit mode. Lines carry
// their own halo; a single selection also gets corner handles.
func (r *Renderer) drawSelection(el *labelformat.Element) {
	if !r.editing() || !r.selected[el.ID] {
		return
	}

	x, y, w, h := r.box(el)
	if el.Type != labelformat.TypeLine {
		r.ctx.SetColor(selectionColor)
		r.ctx.SetLineWidth(hairline(r.scale))
		r.ctx.SetDash(4*r.scale, 3*r.scale)
		r.ctx.DrawRectangle(x, y, w, h)
		r.ctx.Stroke()
		r.ctx.SetDash()
	}

	if len(r.selected) != 1 || el.Locked {
		return
	}
	hs := handleSize * r.scale
	for _, c := range [][2]float64{{x, y}, {x + w, y}, {x, y + h}, {x + w, y + h}} {
		r.ctx.DrawRectangle(c[0]-hs/2, c[1]-hs/2, hs, hs)
		r.ctx.SetColor(color.White)
		r.ctx.FillPreserve()
		r.ctx.SetColor(selectionColor)
		r.ctx.Stroke()
	}
}
