package renderer

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/twooffive"
	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

func (r *Renderer) renderBarcode(el *labelformat.Element) error {
	value := r.content(el, true)
	if value == "" {
		return nil
	}

	format := el.BarcodeType
	if format == "" {
		format = labelformat.DefaultBarcodeType
	}

	code, err := EncodeBarcode(format, value)
	if err != nil {
		return err
	}

	x, y, w, h := r.box(el)
	img, err := fitBarcode(code, int(math.Round(w)), int(math.Round(h)))
	if err != nil {
		return err
	}

	r.ctx.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
	return nil
}

// EncodeBarcode encodes value in the named 1D symbology
func EncodeBarcode(format, value string) (barcode.Barcode, error) {
	var (
		code barcode.Barcode
		err  error
	)

	switch strings.ToUpper(format) {
	case "CODE128":
		code, err = code128.Encode(value)
	case "CODE39":
		code, err = code39.Encode(value, false, true)
	case "CODE93":
		code, err = code93.Encode(value, true, true)
	case "EAN13", "EAN8":
		code, err = ean.Encode(value)
	case "CODABAR":
		code, err = codabar.Encode(codabarFrame(value))
	case "ITF":
		code, err = twooffive.Encode(evenDigits(value), true)
	default:
		return nil, fmt.Errorf("unsupported barcode type: %s", format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to encode %s barcode: %w", format, err)
	}
	return code, nil
}

// fitBarcode stretches a symbol to the box. Boxes narrower than the
// symbol's module count are resampled since Scale cannot shrink.
func fitBarcode(code barcode.Barcode, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("barcode box is empty")
	}
	if code.Bounds().Dx() <= w {
		scaled, err := barcode.Scale(code, w, h)
		if err == nil {
			return scaled, nil
		}
	}
	return imaging.Resize(code, w, h, imaging.NearestNeighbor), nil
}

// codabarFrame adds A start and stop characters when the value has none
func codabarFrame(value string) string {
	v := strings.ToUpper(value)
	if len(v) >= 2 && strings.ContainsRune("ABCD", rune(v[0])) && strings.ContainsRune("ABCD", rune(v[len(v)-1])) {
		return v
	}
	return "A" + v + "A"
}

// evenDigits left-pads with a zero since interleaved 2 of 5 encodes digit pairs
func evenDigits(value string) string {
	if len(value)%2 == 1 {
		return "0" + value
	}
	return value
}

func (r *Renderer) renderQRCode(el *labelformat.Element) error {
	value := r.content(el, true)
	if value == "" {
		return nil
	}

	qr, err := qrcode.New(value, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to encode qr code: %w", err)
	}
	qr.DisableBorder = true

	x, y, w, h := r.box(el)
	size := int(math.Floor(math.Min(w, h)))
	if size <= 0 {
		return fmt.Errorf("qr code box is empty")
	}

	img := qr.Image(size)
	// Centre the square symbol in the box
	qx := x + (w-float64(img.Bounds().Dx()))/2
	qy := y + (h-float64(img.Bounds().Dy()))/2
	r.ctx.DrawImage(img, int(math.Round(qx)), int(math.Round(qy)))
	return nil
}
