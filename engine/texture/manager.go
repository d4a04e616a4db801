// Package texture is the texture and atlas allocator. It hands out integer handles for
// textures and sub-textures, tracks which backing textures still need uploading, and
// reports the atlas size the shape pipeline must bind.
package texture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/loader"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
)

const (
	// DefaultAtlasWidth is the initial required atlas width.
	DefaultAtlasWidth = 256
	// DefaultAtlasHeight is the initial required atlas height.
	DefaultAtlasHeight = 256
)

// manager is the implementation of the Manager interface.
type manager struct {
	mu sync.RWMutex

	subTextures map[Handle]SubTexture
	backings    map[BackingID]*backingEntry
	pending     []BackingID

	nextHandle  Handle
	nextBacking BackingID

	atlasWidth, atlasHeight uint32

	loader loader.Loader
}

// Manager is the texture and atlas allocator.
//
// Textures are registered as Unprepared and uploaded on the next Prepare call. Handles are
// plain integers so they can be copied freely into draw commands; resolving a handle to a
// GPU texture goes through the Manager.
type Manager interface {
	// CreateTexture registers a backing texture from RGBA pixels and returns a handle to a
	// sub-texture covering all of it. The required atlas size grows to fit the texture.
	//
	// Parameters:
	//   - pixels: RGBA bytes, 4 per texel, row-major
	//   - width: width in texels
	//   - height: height in texels
	//
	// Returns:
	//   - Handle: the full-extent sub-texture handle
	//   - error: error if the pixel buffer does not match the dimensions
	CreateTexture(pixels []byte, width, height uint32) (Handle, error)

	// CreateTextureFromFile decodes an image file through the loader and registers it.
	// A decode failure fails only this call.
	//
	// Parameters:
	//   - path: the image file path
	//
	// Returns:
	//   - Handle: the full-extent sub-texture handle
	//   - error: error wrapping loader.ErrDecode if decoding fails
	CreateTextureFromFile(path string) (Handle, error)

	// CreateTexturesFromFiles decodes the files in parallel and registers them in argument
	// order. Files that fail to decode get NullHandle; the others are still registered.
	//
	// Parameters:
	//   - paths: the image file paths
	//
	// Returns:
	//   - []Handle: handles index-aligned with paths
	//   - error: the joined decode errors, or nil
	CreateTexturesFromFiles(paths ...string) ([]Handle, error)

	// CreateSubTexture registers a window into an existing sub-texture. The rectangle is
	// relative to the parent and must fit inside it; otherwise NullHandle is returned.
	// Offsets compose, so a sub-texture of a sub-texture addresses the same backing texture.
	//
	// Parameters:
	//   - parent: the parent sub-texture
	//   - x, y: offset inside the parent
	//   - width, height: size of the window
	//
	// Returns:
	//   - Handle: the new handle, or NullHandle if the parent is unknown or the window does not fit
	CreateSubTexture(parent Handle, x, y, width, height uint32) Handle

	// SubTexture returns the record behind a handle.
	//
	// Parameters:
	//   - h: the handle to look up
	//
	// Returns:
	//   - SubTexture: the record
	//   - bool: false for NullHandle or an unknown handle
	SubTexture(h Handle) (SubTexture, bool)

	// Prepare uploads every Unprepared backing texture and marks it Loaded. Calling it with
	// nothing pending is a no-op. A texture whose upload fails is marked Failed and its handles
	// are dropped, so draws using them go untextured; the other textures are still uploaded.
	//
	// Parameters:
	//   - uploader: the GPU texture uploader
	//
	// Returns:
	//   - error: the joined upload errors, or nil
	Prepare(uploader gpu.TextureUploader) error

	// NeedsPreparing reports whether any backing texture awaits upload.
	NeedsPreparing() bool

	// Resolve returns the GPU texture behind a handle's backing texture.
	//
	// Parameters:
	//   - h: the sub-texture handle
	//
	// Returns:
	//   - gpu.TextureRef: the resident texture
	//   - bool: false if the handle is unknown or its backing texture is not Loaded
	Resolve(h Handle) (gpu.TextureRef, bool)

	// ResolveBacking is Resolve keyed by backing texture.
	//
	// Parameters:
	//   - id: the backing texture
	//
	// Returns:
	//   - gpu.TextureRef: the resident texture
	//   - bool: false if the backing texture is unknown or not Loaded
	ResolveBacking(id BackingID) (gpu.TextureRef, bool)

	// State returns the upload state of a backing texture.
	//
	// Parameters:
	//   - id: the backing texture
	//
	// Returns:
	//   - State: the current state
	//   - bool: false if the backing texture is unknown
	State(id BackingID) (State, bool)

	// BufferDimensionsRequired returns the atlas size the shape pipeline must bind: the largest
	// width and height of any texture registered so far, never below the configured minimum.
	//
	// Returns:
	//   - uint32: required width
	//   - uint32: required height
	BufferDimensionsRequired() (uint32, uint32)

	// Release drops the backing texture behind h and frees its GPU texture if one was uploaded.
	// Every sub-texture sharing that backing texture is forgotten, so its handle behaves like
	// NullHandle afterwards.
	//
	// Parameters:
	//   - h: any handle addressing the backing texture
	//   - uploader: the uploader that owns the GPU texture
	Release(h Handle, uploader gpu.TextureUploader)
}

var _ Manager = &manager{}

// NewManager creates an empty Manager with the options applied.
//
// Parameters:
//   - options: a variadic list of ManagerBuilderOption functions
//
// Returns:
//   - Manager: a new Manager
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &manager{
		subTextures: make(map[Handle]SubTexture),
		backings:    make(map[BackingID]*backingEntry),
		nextHandle:  1,
		nextBacking: 1,
		atlasWidth:  DefaultAtlasWidth,
		atlasHeight: DefaultAtlasHeight,
	}
	for _, option := range options {
		option(m)
	}
	if m.loader == nil {
		m.loader = loader.NewLoader()
	}
	return m
}

func (m *manager) CreateTexture(pixels []byte, width, height uint32) (Handle, error) {
	staging := common.TextureStagingData{Pixels: pixels, Width: width, Height: height}
	if !staging.Valid() {
		return NullHandle, fmt.Errorf("texture: %d bytes do not describe a %dx%d RGBA image", len(pixels), width, height)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register(staging), nil
}

func (m *manager) CreateTextureFromFile(path string) (Handle, error) {
	staging, err := m.loader.Decode(path)
	if err != nil {
		return NullHandle, err
	}
	return m.CreateTexture(staging.Pixels, staging.Width, staging.Height)
}

func (m *manager) CreateTexturesFromFiles(paths ...string) ([]Handle, error) {
	decoded, err := m.loader.DecodeAll(paths...)

	handles := make([]Handle, len(paths))
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, staging := range decoded {
		if !staging.Valid() {
			continue
		}
		handles[i] = m.register(staging)
	}
	return handles, err
}

// register adds a backing texture and its full-extent sub-texture. Callers hold mu.
func (m *manager) register(staging common.TextureStagingData) Handle {
	id := m.nextBacking
	m.nextBacking++
	m.backings[id] = &backingEntry{
		state:   StateUnprepared,
		staging: staging,
		width:   staging.Width,
		height:  staging.Height,
	}
	m.pending = append(m.pending, id)

	m.atlasWidth = max(m.atlasWidth, staging.Width)
	m.atlasHeight = max(m.atlasHeight, staging.Height)

	h := m.nextHandle
	m.nextHandle++
	m.subTextures[h] = SubTexture{Backing: id, Width: staging.Width, Height: staging.Height}

	common.Logger().Debug("texture registered", "handle", h, "backing", id, "width", staging.Width, "height", staging.Height)
	return h
}

func (m *manager) CreateSubTexture(parent Handle, x, y, width, height uint32) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.subTextures[parent]
	if !ok {
		common.Logger().Warn("sub-texture parent unknown", "parent", parent)
		return NullHandle
	}
	if !p.contains(x, y, width, height) {
		common.Logger().Warn("sub-texture exceeds parent",
			"parent", parent, "x", x, "y", y, "width", width, "height", height,
			"parentWidth", p.Width, "parentHeight", p.Height)
		return NullHandle
	}

	h := m.nextHandle
	m.nextHandle++
	m.subTextures[h] = SubTexture{
		Backing: p.Backing,
		X:       p.X + x,
		Y:       p.Y + y,
		Width:   width,
		Height:  height,
	}
	return h
}

func (m *manager) SubTexture(h Handle) (SubTexture, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subTextures[h]
	return s, ok
}

func (m *manager) Prepare(uploader gpu.TextureUploader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return nil
	}

	var errs []error
	loaded := 0
	for _, id := range m.pending {
		entry, ok := m.backings[id]
		if !ok || entry.state != StateUnprepared {
			continue
		}
		ref, err := uploader.UploadTexture(entry.staging.Pixels, entry.width, entry.height)
		entry.staging = common.TextureStagingData{}
		if err != nil {
			common.Logger().Warn("texture upload failed, drawing untextured", "backing", id, "err", err)
			entry.state = StateFailed
			m.dropSubTextures(id)
			errs = append(errs, fmt.Errorf("texture: upload backing %d: %w", id, err))
			continue
		}
		entry.ref = ref
		entry.state = StateLoaded
		loaded++
	}

	common.Logger().Info("textures prepared", "count", loaded, "failed", len(errs), "atlasWidth", m.atlasWidth, "atlasHeight", m.atlasHeight)
	m.pending = m.pending[:0]
	return errors.Join(errs...)
}

// dropSubTextures forgets every sub-texture of a backing texture, so their handles resolve
// like NullHandle. Callers hold mu.
func (m *manager) dropSubTextures(id BackingID) {
	for h, s := range m.subTextures {
		if s.Backing == id {
			delete(m.subTextures, h)
		}
	}
}

func (m *manager) NeedsPreparing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending) > 0
}

func (m *manager) Resolve(h Handle) (gpu.TextureRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subTextures[h]
	if !ok {
		return 0, false
	}
	return m.resolveBacking(s.Backing)
}

func (m *manager) ResolveBacking(id BackingID) (gpu.TextureRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolveBacking(id)
}

func (m *manager) resolveBacking(id BackingID) (gpu.TextureRef, bool) {
	entry, ok := m.backings[id]
	if !ok || entry.state != StateLoaded {
		return 0, false
	}
	return entry.ref, true
}

func (m *manager) State(id BackingID) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.backings[id]
	if !ok {
		return StateUnprepared, false
	}
	return entry.state, true
}

func (m *manager) BufferDimensionsRequired() (uint32, uint32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.atlasWidth, m.atlasHeight
}

func (m *manager) Release(h Handle, uploader gpu.TextureUploader) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subTextures[h]
	if !ok {
		return
	}
	entry, ok := m.backings[s.Backing]
	if !ok {
		return
	}
	if entry.state == StateLoaded && uploader != nil {
		uploader.ReleaseTexture(entry.ref)
	}
	delete(m.backings, s.Backing)
	m.dropSubTextures(s.Backing)

	for i, id := range m.pending {
		if id == s.Backing {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
}
