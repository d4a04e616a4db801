// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Point2 is a position in screen space, measured in pixels from the top-left corner of the surface.
type Point2 struct {
	X, Y float32
}

// Vector2 is a 2D extent or direction in pixels.
type Vector2 struct {
	X, Y float32
}

// Add returns the component-wise sum of p and v.
func (p Point2) Add(v Vector2) Point2 {
	return Point2{X: p.X + v.X, Y: p.Y + v.Y}
}

// Floats returns the point as a GPU-ready pair.
func (p Point2) Floats() [2]float32 {
	return [2]float32{p.X, p.Y}
}

// Floats returns the vector as a GPU-ready pair.
func (v Vector2) Floats() [2]float32 {
	return [2]float32{v.X, v.Y}
}

// Section is a single run of text queued for the text pass. Layout and rasterization are
// delegated to the text collaborator; the batching core only stores and forwards sections.
type Section struct {
	// Text is the UTF-8 string to draw.
	Text string
	// Position is the top-left corner of the run in pixels.
	Position Point2
	// Colour is the fill colour of the glyphs.
	Colour Colour
	// Scale is the font size in pixels. Zero selects the renderer's default size.
	Scale float32
	// Bounds optionally limits the width and height of the run. A zero component means unbounded.
	Bounds Vector2
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Valid reports whether the pixel buffer holds exactly Width*Height RGBA texels.
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && uint64(len(t.Pixels)) == uint64(t.Width)*uint64(t.Height)*4
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero-valued fields fall back to the backend defaults (clamp-to-edge, linear filtering).
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}
