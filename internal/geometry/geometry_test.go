package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/thereceipt/label-designer/pkg/labelformat"
)

func TestInchesToPixels(t *testing.T) {
	tests := []struct {
		inches float64
		want   int
	}{
		{0, 0},
		{1, 96},
		{0.5, 48},
		{2.625, 252},
		{0.01, 1},
		{0.004, 0},
	}

	for _, tt := range tests {
		if got := InchesToPixels(tt.inches); got != tt.want {
			t.Errorf("InchesToPixels(%g) = %d, want %d", tt.inches, got, tt.want)
		}
	}
}

func TestPixelsToInches(t *testing.T) {
	tests := []struct {
		pixels float64
		want   float64
	}{
		{96, 1},
		{48, 0.5},
		{100, 1.042},
		{1, 0.01},
		{0, 0},
	}

	for _, tt := range tests {
		if got := PixelsToInches(tt.pixels); got != tt.want {
			t.Errorf("PixelsToInches(%g) = %g, want %g", tt.pixels, got, tt.want)
		}
	}
}

func TestSnap(t *testing.T) {
	tests := []struct {
		v, step, want float64
	}{
		{1.06, 0.125, 1.0},
		{1.07, 0.125, 1.125},
		{0.3, 0.125, 0.25},
		{2.2, 0, 2.2},
	}

	for _, tt := range tests {
		if got := Snap(tt.v, tt.step); got != tt.want {
			t.Errorf("Snap(%g, %g) = %g, want %g", tt.v, tt.step, got, tt.want)
		}
	}
}

func TestLabelSize_Direct(t *testing.T) {
	size, err := LabelSize(labelformat.Stock{Name: "4x6", LabelWidth: 4, LabelHeight: 6, ColsPerPage: 0})
	if err != nil {
		t.Fatalf("Expected direct dimensions, got error: %v", err)
	}
	if size.Width != 4 || size.Height != 6 {
		t.Errorf("Expected 4x6, got %gx%g", size.Width, size.Height)
	}
}

func TestLabelSize_PageGrid(t *testing.T) {
	// Avery 5160 style sheet
	stock := labelformat.Stock{
		Name:        "Address",
		PageWidth:   8.5,
		PageHeight:  11,
		ColsPerPage: 3,
		RowsPerPage: 10,
		LeftMargin:  0.1875,
		TopMargin:   0.5,
		ColSpacing:  0.125,
	}

	size, err := LabelSize(stock)
	if err != nil {
		t.Fatalf("Expected grid dimensions, got error: %v", err)
	}
	if size.Width != 2.625 {
		t.Errorf("Expected width 2.625, got %g", size.Width)
	}
	if size.Height != 1 {
		t.Errorf("Expected height 1, got %g", size.Height)
	}
}

func TestLabelSize_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		stock labelformat.Stock
	}{
		{"zero columns", labelformat.Stock{PageWidth: 8.5, PageHeight: 11, RowsPerPage: 10}},
		{"negative rows", labelformat.Stock{PageWidth: 8.5, PageHeight: 11, ColsPerPage: 2, RowsPerPage: -1}},
		{"margins exceed page", labelformat.Stock{PageWidth: 1, PageHeight: 1, ColsPerPage: 1, RowsPerPage: 1, LeftMargin: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := LabelSize(tt.stock)
			if !errors.Is(err, ErrDegenerateStock) {
				t.Fatalf("Expected ErrDegenerateStock, got %v", err)
			}
			if math.IsInf(size.Width, 0) || math.IsNaN(size.Width) {
				t.Errorf("Expected no Inf/NaN dimensions, got %g", size.Width)
			}
		})
	}
}

func TestSegmentDistance(t *testing.T) {
	a, b := Point{0, 0}, Point{10, 0}

	if d := SegmentDistance(Point{5, 3}, a, b); d != 3 {
		t.Errorf("Expected distance 3, got %g", d)
	}
	if d := SegmentDistance(Point{13, 4}, a, b); d != 5 {
		t.Errorf("Expected distance to endpoint 5, got %g", d)
	}
}

func TestLineEndpoints(t *testing.T) {
	up := labelformat.Element{Type: labelformat.TypeLine, X: 1, Y: 1, Width: 1, Height: 1, LineDirection: labelformat.LineUp}
	p1, p2 := LineEndpoints(up)
	if p1 != (Point{96, 192}) || p2 != (Point{192, 96}) {
		t.Errorf("Unexpected up endpoints %v %v", p1, p2)
	}

	up.LineDirection = labelformat.LineDown
	p1, p2 = LineEndpoints(up)
	if p1 != (Point{96, 96}) || p2 != (Point{192, 192}) {
		t.Errorf("Unexpected down endpoints %v %v", p1, p2)
	}

	flat := labelformat.Element{Type: labelformat.TypeLine, X: 0, Y: 1, Width: 2, Height: FlatLine, LineDirection: labelformat.LineUp}
	p1, p2 = LineEndpoints(flat)
	if p1.Y != p2.Y {
		t.Errorf("Expected flattened line to be horizontal, got %v %v", p1, p2)
	}
}
