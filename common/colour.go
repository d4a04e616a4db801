package common

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Colour is a straight-alpha RGBA colour with components in [0, 1].
type Colour struct {
	R, G, B, A float32
}

var (
	Transparent = Colour{}
	Black       = Colour{A: 1}
	White       = Colour{R: 1, G: 1, B: 1, A: 1}
)

// RGBA builds a Colour from its four components.
func RGBA(r, g, b, a float32) Colour {
	return Colour{R: r, G: g, B: b, A: a}
}

// ColourFromHex parses a "#rrggbb" string into an opaque Colour.
//
// Parameters:
//   - hex: the colour in "#rrggbb" form
//
// Returns:
//   - Colour: the parsed colour with alpha 1
//   - error: error if the string is not a valid hex colour
func ColourFromHex(hex string) (Colour, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Colour{}, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	return fromColorful(c, 1), nil
}

// ColourFromHSV builds a Colour from hue (degrees), saturation and value in [0, 1].
//
// Parameters:
//   - h: hue in degrees [0, 360)
//   - s: saturation in [0, 1]
//   - v: value in [0, 1]
//   - a: alpha in [0, 1]
//
// Returns:
//   - Colour: the equivalent sRGB colour, clamped to the displayable gamut
func ColourFromHSV(h, s, v, a float64) Colour {
	return fromColorful(colorful.Hsv(h, s, v).Clamped(), float32(a))
}

// Linear converts the sRGB colour channels to linear light, leaving alpha untouched.
// Clear colours are written straight to an sRGB surface and need this conversion to match
// colours produced by shaders.
func (c Colour) Linear() Colour {
	r, g, b := c.colorful().LinearRgb()
	return Colour{R: float32(r), G: float32(g), B: float32(b), A: c.A}
}

// Floats returns the colour as a GPU-ready RGBA quadruple.
func (c Colour) Floats() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// NRGBA returns the colour as 8-bit straight-alpha components for CPU-side drawing.
func (c Colour) NRGBA() color.NRGBA {
	r, g, b := c.colorful().Clamped().RGB255()
	a := min(max(c.A, 0), 1)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}

// Hex returns the "#rrggbb" form of the colour, ignoring alpha.
func (c Colour) Hex() string {
	return c.colorful().Clamped().Hex()
}

func (c Colour) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

func fromColorful(c colorful.Color, a float32) Colour {
	return Colour{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: a}
}
