package renderer

import (
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/pipeline"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	gpu.Device
	gpu.TextureUploader
	gpu.TextDrawer

	// ConfigureSurface configures the surface for a new size and rewrites the screen-size uniform
	// every pipeline reads. Zero dimensions are clamped to one pixel.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: error if a size-dependent resource cannot be recreated
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RegisterPipeline creates the GPU pipeline for p together with the bind groups it draws with.
	// Pipelines must be registered after the first ConfigureSurface so the surface format is known.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: error if shader, layout or pipeline creation fails
	RegisterPipeline(p pipeline.Pipeline) error

	// GrowAtlas grows the texture bound to the shapes pipeline so it is at least width by height.
	// The atlas never shrinks.
	//
	// Parameters:
	//   - width: the required atlas width in texels
	//   - height: the required atlas height in texels
	//
	// Returns:
	//   - bool: true if the atlas texture was recreated
	//   - error: error if the new texture cannot be created
	GrowAtlas(width, height uint32) (bool, error)

	// BeginFrame acquires the next surface texture. Draws submitted before BeginFrame fail with
	// gpu.ErrFrameNotAcquired.
	//
	// Returns:
	//   - error: error if the surface texture could not be acquired
	BeginFrame() error

	// Present presents the acquired surface texture and releases it.
	Present()

	// AbandonFrame releases the acquired surface texture without presenting it.
	AbandonFrame()

	// Release frees every GPU object owned by the backend.
	Release()
}
