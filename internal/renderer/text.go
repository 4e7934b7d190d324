package renderer

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/thereceipt/label-designer/pkg/labelformat"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSet holds the font files of one family
type FontSet struct {
	Regular    string `yaml:"regular" json:"regular"`
	Bold       string `yaml:"bold" json:"bold"`
	Italic     string `yaml:"italic" json:"italic"`
	BoldItalic string `yaml:"bold_italic" json:"bold_italic"`
}

// systemFonts are tried when a family has no configured files
var systemFonts = []string{
	"/System/Library/Fonts/Helvetica.ttc",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

const (
	defaultFontSize = 12 // points
	lineSpacing     = 1.2
	textPadding     = 2 // pixels at scale 1
)

// faceCache keeps parsed font faces by path and pixel size
type faceCache struct {
	mu    sync.Mutex
	faces map[string]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: make(map[string]font.Face)}
}

func (c *faceCache) load(path string, size float64) (font.Face, error) {
	key := fmt.Sprintf("%s@%.2f", path, size)

	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	f, err := gg.LoadFontFace(path, size)
	if err != nil {
		return nil, err
	}
	c.faces[key] = f
	return f, nil
}

func (r *Renderer) renderText(el *labelformat.Element) error {
	text := r.content(el, false)

	size := el.FontSize
	if size == 0 {
		size = defaultFontSize
	}
	// Points to canvas pixels
	pixels := size * 96 / 72 * r.scale

	r.setFont(el, pixels)

	x, y, w, h := r.box(el)
	pad := textPadding * r.scale

	r.ctx.Push()
	r.ctx.DrawRectangle(x, y, w, h)
	r.ctx.Clip()

	r.ctx.SetColor(textColor)
	lines := r.ctx.WordWrap(text, w-2*pad)
	lineHeight := r.ctx.FontHeight() * lineSpacing
	total := float64(len(lines)) * lineHeight

	top := y + pad
	switch el.VerticalAlign {
	case "middle":
		top = y + (h-total)/2
	case "bottom":
		top = y + h - pad - total
	}

	ax, lx := 0.0, x+pad
	switch el.TextAlign {
	case "center":
		ax, lx = 0.5, x+w/2
	case "right":
		ax, lx = 1, x+w-pad
	}

	for i, line := range lines {
		ly := top + float64(i)*lineHeight
		r.ctx.DrawStringAnchored(line, lx, ly, ax, 1)

		if el.TextDecoration == "underline" {
			lw, lh := r.ctx.MeasureString(line)
			ux := lx - ax*lw
			uy := ly + lh + r.scale
			r.ctx.SetLineWidth(hairline(r.scale))
			r.ctx.DrawLine(ux, uy, ux+lw, uy)
			r.ctx.Stroke()
		}
	}

	r.ctx.ResetClip()
	r.ctx.Pop()

	if el.ShowBorder {
		r.ctx.SetColor(textColor)
		r.ctx.SetLineWidth(hairline(r.scale))
		r.ctx.DrawRectangle(x, y, w, h)
		r.ctx.Stroke()
	}
	return nil
}

// setFont loads the element's face, falling back to system fonts and
// finally to the built-in bitmap face
func (r *Renderer) setFont(el *labelformat.Element, pixels float64) {
	family := el.FontFamily
	if family == "" {
		family = "default"
	}

	candidates := []string{}
	if path := r.getFontPath(family, el.FontWeight, el.FontStyle == "italic"); path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, systemFonts...)

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		face, err := r.faces.load(path, pixels)
		if err != nil {
			r.logger.Debug("font load failed", "path", path, "error", err)
			continue
		}
		r.ctx.SetFontFace(face)
		return
	}

	r.ctx.SetFontFace(basicfont.Face7x13)
}

func (r *Renderer) getFontPath(family, weight string, italic bool) string {
	set, ok := r.opts.Fonts[strings.ToLower(family)]
	if !ok {
		set, ok = r.opts.Fonts[family]
	}
	if !ok {
		return ""
	}

	bold := weight == "bold"
	switch {
	case bold && italic && set.BoldItalic != "":
		return set.BoldItalic
	case bold && set.Bold != "":
		return set.Bold
	case italic && set.Italic != "":
		return set.Italic
	}
	return set.Regular
}

// hairline is a one pixel line width at scale, never thinner than one pixel
func hairline(scale float64) float64 {
	if scale < 1 {
		return 1
	}
	return scale
}
