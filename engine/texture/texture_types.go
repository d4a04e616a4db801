package texture

import (
	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
)

// Handle identifies a sub-texture: a rectangular window into a backing texture.
// Handles are plain values and stay valid for the lifetime of the Manager.
type Handle uint32

// NullHandle is never assigned to a sub-texture. Draws referencing it are untextured.
const NullHandle Handle = 0

// BackingID identifies a backing texture internally. It is distinct from Handle so
// several sub-textures can share one backing texture.
type BackingID uint32

// NoBacking is the zero BackingID and never names a backing texture.
const NoBacking BackingID = 0

// State is the upload state of a backing texture.
type State int

const (
	// StateUnprepared means the pixels are held on the CPU awaiting the next Prepare.
	StateUnprepared State = iota
	// StateLoaded means the texture is GPU-resident. A loaded texture never returns to unprepared.
	StateLoaded
	// StateFailed means the upload failed. The pixels are dropped and the texture never resolves.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unprepared"
	}
}

// SubTexture is the immutable record behind a Handle.
type SubTexture struct {
	Backing BackingID
	X, Y    uint32
	Width   uint32
	Height  uint32
}

// UV returns the sub-texture rectangle in backing texels as (x, y, w, h), the layout the
// shapes shader expects in ShapeInstance.UV.
func (s SubTexture) UV() [4]float32 {
	return [4]float32{float32(s.X), float32(s.Y), float32(s.Width), float32(s.Height)}
}

// contains reports whether the rectangle (x, y, w, h) relative to s fits inside s.
func (s SubTexture) contains(x, y, w, h uint32) bool {
	return uint64(x)+uint64(w) <= uint64(s.Width) && uint64(y)+uint64(h) <= uint64(s.Height)
}

// backingEntry is one registered backing texture. staging is released once uploaded.
type backingEntry struct {
	state   State
	staging common.TextureStagingData
	ref     gpu.TextureRef
	width   uint32
	height  uint32
}
