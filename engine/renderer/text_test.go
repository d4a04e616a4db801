package renderer

import (
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy2d/common"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func newTestRasterizer(t *testing.T) *textRasterizer {
	t.Helper()
	r, err := newTextRasterizer(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// inked reports whether any pixel inside r has non-zero alpha.
func inked(img *image.RGBA, r image.Rectangle) bool {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				return true
			}
		}
	}
	return false
}

func TestNewTextRasterizerDefaults(t *testing.T) {
	r := newTestRasterizer(t)
	if r.size != DefaultFontSize {
		t.Errorf("size = %v, want %v", r.size, DefaultFontSize)
	}
	if _, err := newTextRasterizer([]byte("not a font"), 12); err == nil {
		t.Error("expected an error for invalid font data")
	}
}

func TestRasterizeDrawsInsideSection(t *testing.T) {
	r := newTestRasterizer(t)
	img, err := r.Rasterize([]common.Section{{
		Text:     "Hello",
		Position: common.Point2{X: 20, Y: 20},
		Colour:   common.White,
	}}, 200, 100)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect != image.Rect(0, 0, 200, 100) {
		t.Fatalf("overlay bounds = %v", img.Rect)
	}
	if !inked(img, image.Rect(20, 20, 120, 45)) {
		t.Error("no glyph pixels near the section position")
	}
	if inked(img, image.Rect(0, 0, 200, 18)) || inked(img, image.Rect(0, 0, 18, 100)) {
		t.Error("glyph pixels above or left of the section position")
	}
}

func TestRasterizeClearsBetweenFrames(t *testing.T) {
	r := newTestRasterizer(t)
	first, err := r.Rasterize([]common.Section{{Text: "Frame", Position: common.Point2{X: 4, Y: 4}, Colour: common.White}}, 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	if !inked(first, first.Rect) {
		t.Fatal("first frame drew nothing")
	}
	second, err := r.Rasterize(nil, 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("overlay of the same size was reallocated")
	}
	if inked(second, second.Rect) {
		t.Error("overlay was not cleared")
	}
}

func TestRasterizeClipsToBounds(t *testing.T) {
	r := newTestRasterizer(t)
	img, err := r.Rasterize([]common.Section{{
		Text:     "WWWWWWWWWW",
		Position: common.Point2{X: 10, Y: 10},
		Colour:   common.White,
		Bounds:   common.Vector2{X: 12, Y: 12},
	}}, 200, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !inked(img, image.Rect(10, 10, 22, 22)) {
		t.Error("nothing drawn inside the bounds")
	}
	if inked(img, image.Rect(22, 0, 200, 100)) || inked(img, image.Rect(0, 22, 200, 100)) {
		t.Error("pixels drawn outside the bounds")
	}
}

func TestLayoutLines(t *testing.T) {
	r := newTestRasterizer(t)
	face, err := r.face(DefaultFontSize)
	if err != nil {
		t.Fatal(err)
	}
	twoWords := font.MeasureString(face, "aaa bbb")

	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"unbounded keeps newlines", "one\ntwo", 0, []string{"one", "two"}},
		{"fits on one line", "aaa bbb", twoWords.Ceil() + 1, []string{"aaa bbb"}},
		{"wraps at spaces", "aaa bbb ccc", twoWords.Ceil() + 1, []string{"aaa bbb", "ccc"}},
		{"long word keeps its line", "aaaaaaaaaaaa b", 5, []string{"aaaaaaaaaaaa", "b"}},
		{"blank paragraph", "a\n\nb", 100, []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layoutLines(face, tt.text, fixed.I(tt.width))
			if len(got) != len(tt.want) {
				t.Fatalf("layoutLines = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSectionClip(t *testing.T) {
	overlay := image.Rect(0, 0, 100, 50)
	tests := []struct {
		name string
		s    common.Section
		want image.Rectangle
	}{
		{"unbounded", common.Section{Position: common.Point2{X: 10, Y: 10}}, overlay},
		{"width only", common.Section{Position: common.Point2{X: 10, Y: 10}, Bounds: common.Vector2{X: 20}}, image.Rect(10, 0, 30, 50)},
		{"both", common.Section{Position: common.Point2{X: 10, Y: 5}, Bounds: common.Vector2{X: 20, Y: 10}}, image.Rect(10, 5, 30, 15)},
		{"past the edge", common.Section{Position: common.Point2{X: 90, Y: 40}, Bounds: common.Vector2{X: 50, Y: 50}}, image.Rect(90, 40, 100, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sectionClip(tt.s, overlay); got != tt.want {
				t.Errorf("sectionClip = %v, want %v", got, tt.want)
			}
		})
	}
}
