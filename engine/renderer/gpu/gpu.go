// Package gpu declares the contract between the batching core and a GPU backend. It holds plain
// value types only, so the command and executor packages can be exercised without a device.
package gpu

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy2d/common"
)

// ErrFrameNotAcquired is returned by backends asked to draw outside of an acquired frame.
var ErrFrameNotAcquired = errors.New("gpu: no frame acquired")

// BufferRef is an opaque handle to a GPU buffer owned by the backend.
type BufferRef uint32

// TextureRef is an opaque handle to a GPU-resident texture owned by the backend.
// The zero value never names a live texture.
type TextureRef uint32

// PipelineKind identifies which render pipeline a draw targets.
type PipelineKind int

const (
	// PipelineLines draws LineInstance records as oriented quads.
	PipelineLines PipelineKind = iota
	// PipelineShapes draws ShapeInstance records as SDF quads, optionally textured.
	PipelineShapes
	// PipelineText draws the rasterized text overlay.
	PipelineText
)

func (k PipelineKind) String() string {
	switch k {
	case PipelineLines:
		return "lines"
	case PipelineShapes:
		return "shapes"
	case PipelineText:
		return "text"
	default:
		return fmt.Sprintf("PipelineKind(%d)", int(k))
	}
}

// Range is a half-open [Start, End) span of instance indices.
type Range struct {
	Start, End uint32
}

// Len returns the number of indices covered by the range.
func (r Range) Len() uint32 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range covers no indices.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether o lies entirely inside r. An empty r contains nothing.
func (r Range) Contains(o Range) bool {
	return !r.Empty() && o.Start >= r.Start && o.End <= r.End
}

// Offset shifts the range down by base, turning absolute indices into buffer-relative ones.
func (r Range) Offset(base uint32) Range {
	return Range{Start: r.Start - base, End: r.End - base}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// LoadOp describes what a render pass does with the existing contents of the target.
type LoadOp struct {
	// Clear requests the target be cleared to Colour before drawing. When false the
	// previous contents are loaded and drawn over.
	Clear  bool
	Colour common.Colour
}

// Load keeps the existing contents of the render target.
func Load() LoadOp {
	return LoadOp{}
}

// ClearTo clears the render target to c.
func ClearTo(c common.Colour) LoadOp {
	return LoadOp{Clear: true, Colour: c}
}

// DrawCall is one instanced draw submitted to the backend as its own render pass.
type DrawCall struct {
	Pipeline PipelineKind
	// Buffer is the bounded instance buffer bound at vertex slot 0.
	Buffer BufferRef
	// Vertices is the per-instance vertex range (a 4-vertex strip for every pipeline).
	Vertices Range
	// Instances is relative to the start of Buffer, not to the frame's instance store.
	// An empty range issues a pass that only applies Load.
	Instances Range
	Load      LoadOp
}

// QuadVertices is the vertex range of the unit quad every pipeline draws per instance.
var QuadVertices = Range{Start: 0, End: 4}

// Device is the GPU capability set the frame executor needs.
type Device interface {
	// CreateBuffer allocates a vertex buffer of the given size in bytes.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - size: capacity in bytes
	//
	// Returns:
	//   - BufferRef: handle to the new buffer
	//   - error: error if allocation fails
	CreateBuffer(label string, size uint64) (BufferRef, error)

	// WriteBuffer copies data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: byte offset into the buffer
	//   - data: the bytes to write
	WriteBuffer(buf BufferRef, offset uint64, data []byte)

	// BindTextureView copies tex into the texture slot bound to the given pipeline.
	//
	// Parameters:
	//   - pipeline: the pipeline whose bound texture is replaced
	//   - tex: the source texture
	BindTextureView(pipeline PipelineKind, tex TextureRef)

	// SubmitDraw records and submits one render pass containing call.
	//
	// Parameters:
	//   - call: the draw to submit
	//
	// Returns:
	//   - error: error if no frame is acquired or submission fails
	SubmitDraw(call DrawCall) error
}

// TextureUploader uploads decoded RGBA pixels to GPU-resident textures.
type TextureUploader interface {
	// UploadTexture creates a GPU texture from tightly packed RGBA pixels.
	//
	// Parameters:
	//   - pixels: RGBA bytes, 4 per texel, row-major
	//   - width: texture width in texels
	//   - height: texture height in texels
	//
	// Returns:
	//   - TextureRef: handle to the resident texture
	//   - error: error if creation fails
	UploadTexture(pixels []byte, width, height uint32) (TextureRef, error)

	// ReleaseTexture frees a texture previously returned by UploadTexture.
	//
	// Parameters:
	//   - tex: the texture to release
	ReleaseTexture(tex TextureRef)
}

// TextDrawer renders queued text sections in one combined pass.
type TextDrawer interface {
	// DrawSections lays out, rasterizes and draws every section.
	//
	// Parameters:
	//   - sections: the sections to draw, in submission order
	//   - load: the load operation for the pass
	//
	// Returns:
	//   - error: error if submission fails
	DrawSections(sections []common.Section, load LoadOp) error
}
