// Package instance holds the per-frame instance record arrays. Index order within each array is
// draw order; the arrays are truncated, not freed, between frames.
package instance

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
)

// DefaultCapacity is the number of instances a bounded GPU instance buffer holds.
const DefaultCapacity = 500

// Store is the frame-scoped append-only record store for line and shape instances.
// It is not safe for concurrent use; a single frame owns it.
type Store struct {
	lines   []LineInstance
	shapes  []ShapeInstance
	scratch []byte
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// PushLine appends a line instance and returns its index.
func (s *Store) PushLine(l LineInstance) uint32 {
	s.lines = append(s.lines, l)
	return uint32(len(s.lines) - 1)
}

// PushShape appends a shape instance and returns its index.
func (s *Store) PushShape(sh ShapeInstance) uint32 {
	s.shapes = append(s.shapes, sh)
	return uint32(len(s.shapes) - 1)
}

// ClearShapeUV zeroes the sub-texture rectangle of shapes [r.Start, r.End), so they draw untextured.
// Indices past the stored shapes are ignored.
func (s *Store) ClearShapeUV(r gpu.Range) {
	end := min(r.End, uint32(len(s.shapes)))
	for i := r.Start; i < end; i++ {
		s.shapes[i].UV = [4]float32{}
	}
}

// Line returns the line instance at index i.
func (s *Store) Line(i uint32) LineInstance {
	return s.lines[i]
}

// Shape returns the shape instance at index i.
func (s *Store) Shape(i uint32) ShapeInstance {
	return s.shapes[i]
}

// Count returns how many instances of the given pipeline kind were pushed this frame.
// Text has no instance records and always reports zero.
//
// Parameters:
//   - kind: the pipeline kind to count
//
// Returns:
//   - uint32: the instance count
func (s *Store) Count(kind gpu.PipelineKind) uint32 {
	switch kind {
	case gpu.PipelineLines:
		return uint32(len(s.lines))
	case gpu.PipelineShapes:
		return uint32(len(s.shapes))
	default:
		return 0
	}
}

// Stride returns the marshalled size of one instance of the given kind.
func Stride(kind gpu.PipelineKind) uint64 {
	switch kind {
	case gpu.PipelineLines:
		return LineInstanceSize
	case gpu.PipelineShapes:
		return ShapeInstanceSize
	default:
		return 0
	}
}

// Bytes marshals instances [r.Start, r.End) of the given kind into a contiguous GPU-ready buffer.
// The returned slice is reused by the next call and must be consumed before then.
//
// Parameters:
//   - kind: the pipeline kind whose records to marshal
//   - r: the absolute index range to marshal
//
// Returns:
//   - []byte: the marshalled records
//   - error: error if the range exceeds the stored records or the kind has no records
func (s *Store) Bytes(kind gpu.PipelineKind, r gpu.Range) ([]byte, error) {
	count := s.Count(kind)
	stride := Stride(kind)
	if stride == 0 {
		return nil, fmt.Errorf("pipeline %s has no instance records", kind)
	}
	if r.End > count || r.Start > r.End {
		return nil, fmt.Errorf("range %v out of bounds for %d %s instances", r, count, kind)
	}

	size := int(uint64(r.Len()) * stride)
	if cap(s.scratch) < size {
		s.scratch = make([]byte, size)
	}
	buf := s.scratch[:size]

	for i := r.Start; i < r.End; i++ {
		off := uint64(i-r.Start) * stride
		switch kind {
		case gpu.PipelineLines:
			s.lines[i].Marshal(buf[off:])
		case gpu.PipelineShapes:
			s.shapes[i].Marshal(buf[off:])
		}
	}
	return buf, nil
}

// Reset truncates both arrays, keeping their capacity for the next frame.
func (s *Store) Reset() {
	s.lines = s.lines[:0]
	s.shapes = s.shapes[:0]
}
