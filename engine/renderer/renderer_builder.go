package renderer

import (
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
// When not specified, the default is PresentModeVSync.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithInstanceCapacity sets how many instances each bounded instance buffer holds. Batches larger
// than this are streamed through the buffer in several draws. Zero keeps the default.
//
// Parameters:
//   - n: the per-buffer instance capacity
//
// Returns:
//   - RendererBuilderOption: a function that applies the capacity option to a renderer
func WithInstanceCapacity(n uint32) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithFont sets the OpenType or TrueType font used for text. When not specified, Go Regular is used.
//
// Parameters:
//   - ttf: the raw font file
//
// Returns:
//   - RendererBuilderOption: a function that applies the font option to a renderer
func WithFont(ttf []byte) RendererBuilderOption {
	return func(r *renderer) {
		r.font = ttf
	}
}

// WithFontSize sets the pixel size used for text sections without a Scale.
//
// Parameters:
//   - size: the default font size in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the font size option to a renderer
func WithFontSize(size float64) RendererBuilderOption {
	return func(r *renderer) {
		if size > 0 {
			r.fontSize = size
		}
	}
}

// WithTextureOptions passes options through to the renderer's texture manager.
//
// Parameters:
//   - options: the texture.ManagerBuilderOption functions to apply
//
// Returns:
//   - RendererBuilderOption: a function that applies the texture options to a renderer
func WithTextureOptions(options ...texture.ManagerBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.textureOptions = append(r.textureOptions, options...)
	}
}
