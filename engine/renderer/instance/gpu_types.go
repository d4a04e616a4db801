package instance

import (
	"encoding/binary"
	"math"
)

// ShapeKind is the shape tag consumed by the shapes fragment shader.
type ShapeKind uint32

const (
	ShapeRectangle ShapeKind = iota + 1
	ShapeCircle
	ShapeTriangle
	ShapeHexagon
)

const (
	// LineInstanceSize is the byte size of one marshalled LineInstance.
	LineInstanceSize = 36
	// ShapeInstanceSize is the byte size of one marshalled ShapeInstance.
	ShapeInstanceSize = 68
)

// LineInstance is the GPU layout of a single line segment.
// Matches the WGSL LineInstance struct in lines.wgsl (36 bytes, tightly packed vertex attributes).
type LineInstance struct {
	Start  [2]float32 // offset  0: first endpoint in pixels
	End    [2]float32 // offset  8: second endpoint in pixels
	Colour [4]float32 // offset 16: straight-alpha RGBA
	Width  float32    // offset 32: stroke width in pixels
}

// Marshal writes the instance into dst, which must be at least LineInstanceSize bytes.
//
// Parameters:
//   - dst: destination buffer
func (l *LineInstance) Marshal(dst []byte) {
	_ = dst[LineInstanceSize-1]
	putFloats(dst[0:], l.Start[:]...)
	putFloats(dst[8:], l.End[:]...)
	putFloats(dst[16:], l.Colour[:]...)
	putFloats(dst[32:], l.Width)
}

// ShapeInstance is the GPU layout of a single shape quad.
// Matches the WGSL ShapeInstance struct in shapes.wgsl (68 bytes, tightly packed vertex attributes).
type ShapeInstance struct {
	Position     [2]float32 // offset  0: top-left corner in pixels
	Size         [2]float32 // offset  8: width and height in pixels
	Colour       [4]float32 // offset 16: straight-alpha RGBA
	UV           [4]float32 // offset 32: sub-texture rect (x, y, w, h) in atlas texels; zero when untextured
	Opacity      float32    // offset 48: texture blend weight
	LineWidth    float32    // offset 52: outline width in pixels; zero fills the shape
	CornerRadius float32    // offset 56: rounded corner radius in pixels
	Rotation     float32    // offset 60: rotation about the centre in radians
	Shape        ShapeKind  // offset 64: shape tag
}

// Marshal writes the instance into dst, which must be at least ShapeInstanceSize bytes.
//
// Parameters:
//   - dst: destination buffer
func (s *ShapeInstance) Marshal(dst []byte) {
	_ = dst[ShapeInstanceSize-1]
	putFloats(dst[0:], s.Position[:]...)
	putFloats(dst[8:], s.Size[:]...)
	putFloats(dst[16:], s.Colour[:]...)
	putFloats(dst[32:], s.UV[:]...)
	putFloats(dst[48:], s.Opacity, s.LineWidth, s.CornerRadius, s.Rotation)
	binary.LittleEndian.PutUint32(dst[64:68], uint32(s.Shape))
}

func putFloats(dst []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(v))
	}
}
