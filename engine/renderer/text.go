package renderer

import (
	"fmt"
	"image"
	"strings"

	"github.com/Carmen-Shannon/oxy2d/common"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize is the pixel size used for sections with no Scale.
const DefaultFontSize = 16

// textRasterizer draws text sections into a surface-sized RGBA overlay on the CPU. The overlay is
// uploaded and composited by the text pipeline once per text batch.
type textRasterizer struct {
	font    *opentype.Font
	size    float64
	faces   map[float64]font.Face
	overlay *image.RGBA
}

// newTextRasterizer parses an OpenType or TrueType font. A nil ttf selects Go Regular.
func newTextRasterizer(ttf []byte, size float64) (*textRasterizer, error) {
	if ttf == nil {
		ttf = goregular.TTF
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	if size <= 0 {
		size = DefaultFontSize
	}
	return &textRasterizer{
		font:  f,
		size:  size,
		faces: make(map[float64]font.Face),
	}, nil
}

// face returns the cached face for a pixel size.
func (t *textRasterizer) face(size float64) (font.Face, error) {
	if f, ok := t.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: face at %vpx: %w", size, err)
	}
	t.faces[size] = f
	return f, nil
}

// Rasterize clears the overlay and draws every section into it, in order. Sections with bounds
// are wrapped at word boundaries to the bounds' width and clipped to the bounds' rectangle.
//
// Parameters:
//   - sections: the sections to draw
//   - width: overlay width in pixels
//   - height: overlay height in pixels
//
// Returns:
//   - *image.RGBA: the overlay, reused between calls of the same size
//   - error: error if a face cannot be created
func (t *textRasterizer) Rasterize(sections []common.Section, width, height int) (*image.RGBA, error) {
	if t.overlay == nil || t.overlay.Rect.Dx() != width || t.overlay.Rect.Dy() != height {
		t.overlay = image.NewRGBA(image.Rect(0, 0, width, height))
	} else {
		clear(t.overlay.Pix)
	}

	for _, s := range sections {
		size := float64(s.Scale)
		if size <= 0 {
			size = t.size
		}
		face, err := t.face(size)
		if err != nil {
			return nil, err
		}

		dst := t.overlay
		if clip := sectionClip(s, t.overlay.Rect); clip != t.overlay.Rect {
			dst = t.overlay.SubImage(clip).(*image.RGBA)
		}

		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(s.Colour.NRGBA()),
			Face: face,
		}
		m := face.Metrics()
		x := fixed.I(int(s.Position.X))
		y := fixed.I(int(s.Position.Y)) + m.Ascent
		for i, line := range layoutLines(face, s.Text, fixed.I(int(s.Bounds.X))) {
			d.Dot = fixed.Point26_6{X: x, Y: y + m.Height*fixed.Int26_6(i)}
			d.DrawString(line)
		}
	}
	return t.overlay, nil
}

// sectionClip is the section's bounds rectangle intersected with the overlay. Unbounded axes
// extend to the overlay edge.
func sectionClip(s common.Section, overlay image.Rectangle) image.Rectangle {
	r := overlay
	if s.Bounds.X > 0 {
		r.Min.X = int(s.Position.X)
		r.Max.X = int(s.Position.X + s.Bounds.X)
	}
	if s.Bounds.Y > 0 {
		r.Min.Y = int(s.Position.Y)
		r.Max.Y = int(s.Position.Y + s.Bounds.Y)
	}
	return r.Intersect(overlay)
}

// layoutLines splits text at newlines and, when maxWidth is positive, greedily wraps each line at
// spaces so no line is wider than maxWidth. A single word wider than maxWidth keeps its own line.
func layoutLines(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 {
			lines = append(lines, para)
			continue
		}
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := words[0]
		for _, w := range words[1:] {
			candidate := current + " " + w
			if font.MeasureString(face, candidate) > maxWidth {
				lines = append(lines, current)
				current = w
				continue
			}
			current = candidate
		}
		lines = append(lines, current)
	}
	return lines
}
