package engine

import (
	"github.com/Carmen-Shannon/oxy2d/engine/renderer"
	"github.com/Carmen-Shannon/oxy2d/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithUpdateRate runs App.Update on its own goroutine at a fixed rate in updates per second
// instead of once per frame. Values <= 0 keep the per-frame default.
//
// Parameters:
//   - hz: target updates per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUpdateRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		e.updateRate = rateInterval(hz, 0)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions passes options to the window the engine creates. Ignored when WithWindow is used.
//
// Parameters:
//   - options: the window.WindowBuilderOption functions to apply
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithRendererOptions passes options to the renderer the engine creates.
//
// Parameters:
//   - options: the renderer.RendererBuilderOption functions to apply
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithFrameLimit sets the render frame rate cap in frames per second.
// Pass 0 to uncap the render loop. The default is DefaultFrameLimit.
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit.Store(int64(rateInterval(fps, 0)))
	}
}

// withRenderer injects an already created renderer.
func withRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}
