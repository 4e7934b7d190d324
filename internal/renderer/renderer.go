// Package renderer rasterizes label documents
package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/internal/preview"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// ErrEmptyCanvas is returned when the label size rounds to zero pixels
var ErrEmptyCanvas = errors.New("label size is empty")

// Options controls how a document is drawn
type Options struct {
	// Scale multiplies the 96 DPI canvas resolution. Zero means 1.
	Scale float64
	// Preview substitutes sample values for {Variable} tokens and hides
	// editing decorations
	Preview bool
	// Selected element ids get a dashed outline or halo in edit mode
	Selected []string
	// Resolver supplies sample values. Nil uses preview.New().
	Resolver *preview.Resolver
	// Fonts maps a font_family to its font files
	Fonts map[string]FontSet
	// Logos maps an image element's variable_field to a file path or data URL
	Logos  map[string]string
	Logger *slog.Logger
}

// Renderer draws label documents onto a white canvas
type Renderer struct {
	width    int // Canvas width in pixels
	height   int
	scale    float64
	ctx      *gg.Context
	opts     Options
	resolver *preview.Resolver
	selected map[string]bool
	logger   *slog.Logger

	faces *faceCache
	logos map[string]image.Image
}

// New creates a renderer for a label of the given physical size
func New(size geometry.Size, opts Options) (*Renderer, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	width := int(math.Round(geometry.ScaledPixels(size.Width, scale)))
	height := int(math.Round(geometry.ScaledPixels(size.Height, scale)))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %.3fx%.3f in", ErrEmptyCanvas, size.Width, size.Height)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = preview.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	selected := make(map[string]bool, len(opts.Selected))
	for _, id := range opts.Selected {
		selected[id] = true
	}

	return &Renderer{
		width:    width,
		height:   height,
		scale:    scale,
		ctx:      gg.NewContext(width, height),
		opts:     opts,
		resolver: resolver,
		selected: selected,
		logger:   logger,
		faces:    newFaceCache(),
		logos:    make(map[string]image.Image),
	}, nil
}

// Render draws a document at the given label size
func Render(doc labelformat.Document, size geometry.Size, opts Options) (image.Image, error) {
	r, err := New(size, opts)
	if err != nil {
		return nil, err
	}
	return r.Render(doc)
}

// Render draws every visible element in stacking order. An element whose
// content cannot be drawn, such as digits an EAN symbol rejects, is drawn
// as a placeholder and logged instead of failing the whole label.
func (r *Renderer) Render(doc labelformat.Document) (image.Image, error) {
	r.ctx.SetColor(color.White)
	r.ctx.Clear()

	for i := range doc.Elements {
		el := &doc.Elements[i]
		if el.Hidden {
			continue
		}
		if err := r.renderElement(el); err != nil {
			r.logger.Warn("element not rendered", "id", el.ID, "type", string(el.Type), "error", err)
			r.drawPlaceholder(el, string(el.Type))
		}
		r.drawSelection(el)
	}

	return r.ctx.Image(), nil
}

// Size returns the canvas size in pixels
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func (r *Renderer) renderElement(el *labelformat.Element) error {
	switch el.Type {
	case labelformat.TypeText:
		return r.renderText(el)
	case labelformat.TypeBarcode:
		return r.renderBarcode(el)
	case labelformat.TypeQRCode:
		return r.renderQRCode(el)
	case labelformat.TypeImage:
		return r.renderImage(el)
	case labelformat.TypeShape:
		return r.renderShape(el)
	case labelformat.TypeLine:
		return r.renderLine(el)
	default:
		return fmt.Errorf("unsupported element type: %s", el.Type)
	}
}

// box returns the element's bounding box in canvas pixels
func (r *Renderer) box(el *labelformat.Element) (x, y, w, h float64) {
	return geometry.ScaledPixels(el.X, r.scale),
		geometry.ScaledPixels(el.Y, r.scale),
		geometry.ScaledPixels(el.Width, r.scale),
		geometry.ScaledPixels(el.Height, r.scale)
}

// content returns the element's text with tokens resolved. Codes always
// encode sample values since raw tokens are not valid symbol content.
func (r *Renderer) content(el *labelformat.Element, always bool) string {
	if r.opts.Preview || always {
		return r.resolver.Resolve(el.TextContent)
	}
	return el.TextContent
}

func (r *Renderer) editing() bool {
	return !r.opts.Preview
}
