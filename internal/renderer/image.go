package renderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

var placeholderFill = color.RGBA{R: 235, G: 235, B: 235, A: 255}

func (r *Renderer) renderImage(el *labelformat.Element) error {
	src, ok := r.opts.Logos[el.VariableField]
	if !ok || src == "" {
		r.drawPlaceholder(el, el.VariableField)
		return nil
	}

	img, err := r.loadLogo(src)
	if err != nil {
		return err
	}

	x, y, w, h := r.box(el)
	bw, bh := int(math.Round(w)), int(math.Round(h))
	if bw <= 0 || bh <= 0 {
		return nil
	}

	// Keep the aspect ratio and centre within the box
	fitted := imaging.Fit(img, bw, bh, imaging.Lanczos)
	ix := x + (w-float64(fitted.Bounds().Dx()))/2
	iy := y + (h-float64(fitted.Bounds().Dy()))/2
	r.ctx.DrawImage(fitted, int(math.Round(ix)), int(math.Round(iy)))
	return nil
}

// loadLogo opens a logo from a file path or a base64 data URL, caching
// the decoded image for the renderer's lifetime
func (r *Renderer) loadLogo(src string) (image.Image, error) {
	if img, ok := r.logos[src]; ok {
		return img, nil
	}

	var (
		img image.Image
		err error
	)
	if strings.HasPrefix(src, "data:") {
		comma := strings.IndexByte(src, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		data, derr := base64.StdEncoding.DecodeString(src[comma+1:])
		if derr != nil {
			return nil, fmt.Errorf("failed to decode logo: %w", derr)
		}
		img, err = imaging.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Open(src)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load logo: %w", err)
	}

	r.logos[src] = img
	return img, nil
}

// drawPlaceholder fills the box in grey with a cross and a caption
func (r *Renderer) drawPlaceholder(el *labelformat.Element, caption string) {
	x, y, w, h := r.box(el)

	r.ctx.SetColor(placeholderFill)
	r.ctx.DrawRectangle(x, y, w, h)
	r.ctx.Fill()

	r.ctx.SetColor(guideColor)
	r.ctx.SetLineWidth(hairline(r.scale))
	r.ctx.DrawRectangle(x, y, w, h)
	r.ctx.DrawLine(x, y, x+w, y+h)
	r.ctx.DrawLine(x, y+h, x+w, y)
	r.ctx.Stroke()

	if caption != "" {
		r.setFont(&labelformat.Element{}, 9*96/72*r.scale)
		r.ctx.SetColor(textColor)
		r.ctx.DrawStringAnchored(caption, x+w/2, y+h/2, 0.5, 0.5)
	}
}
