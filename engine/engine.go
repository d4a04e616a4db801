// Package engine runs an App: it owns the window and renderer and drives the
// update, draw and submit cycle until the window closes.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/profiler"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
	"github.com/Carmen-Shannon/oxy2d/engine/window"
)

// DefaultFrameLimit is the minimum duration of a render frame unless WithFrameLimit changes it.
const DefaultFrameLimit = 16 * time.Millisecond

// App is the application driven by the engine.
//
// All App methods are called with the engine's app lock held, so an App never sees two of its
// methods run concurrently even though input, updates and drawing come from different goroutines.
type App interface {
	// Init is called once before the first frame.
	//
	// Parameters:
	//   - size: the initial surface size in pixels
	//   - textures: the texture manager that texture handles for draw commands come from
	//
	// Returns:
	//   - error: error aborts NewEngine
	Init(size common.Vector2, textures texture.Manager) error

	// HandleInput receives keyboard and mouse events from the window.
	//
	// Parameters:
	//   - event: the input event
	HandleInput(event window.Event)

	// Update advances the application state.
	//
	// Parameters:
	//   - dt: seconds since the previous update
	Update(dt float32)

	// Resize is called after the surface has been resized.
	//
	// Parameters:
	//   - size: the new surface size in pixels
	Resize(size common.Vector2)

	// Draw queues the frame's render commands.
	//
	// Parameters:
	//   - r: the renderer to queue commands on
	Draw(r command.Renderer)
}

// engine implements the Engine interface.
// Coordinates the update, render, and window threads.
type engine struct {
	updateRateChannel chan time.Duration // Channel for dynamic update rate changes

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window        window.Window
	windowOptions []window.WindowBuilderOption
	closed        bool

	renderer        renderer.Renderer
	rendererOptions []renderer.RendererBuilderOption

	app   App
	appMu sync.Mutex

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	// updateRate is the fixed update interval; 0 runs one update per frame.
	updateRate time.Duration

	frameLimit atomic.Int64 // minimum frame duration in nanoseconds; 0 = uncapped

	errMu sync.Mutex
	err   error
}

// Engine is the main entry point for the engine.
// It orchestrates the update loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer drawing into the window.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetUpdateRate sets a fixed update rate in updates per second.
	// Only takes effect when the engine was built with a fixed update rate.
	//
	// Parameters:
	//   - hz: target updates per second (defaults to 60 if <= 0)
	SetUpdateRate(hz float64)

	// SetFrameLimit sets the render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// Run starts the engine and blocks until the window closes or a frame fails.
	// Releases the renderer and closes the window before returning.
	//
	// Returns:
	//   - error: the error that stopped the render loop, or nil on a normal exit
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine running app.
// A window and a renderer are created unless provided through options. The window's resize and
// input callbacks are forwarded to the renderer and app, then app.Init is called.
//
// Parameters:
//   - app: the application to run
//   - options: functional options for engine configuration (window, profiling, rates, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if the window, renderer or app fails to initialize
func NewEngine(app App, options ...EngineBuilderOption) (Engine, error) {
	e := newEngine(app, options...)

	if e.window == nil {
		w, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.window = w
	}
	if e.renderer == nil {
		r, err := renderer.NewRenderer(e.window, e.rendererOptions...)
		if err != nil {
			e.window.Close()
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.renderer = r
	}

	if err := e.init(); err != nil {
		e.renderer.Release()
		e.window.Close()
		return nil, err
	}
	return e, nil
}

// newEngine applies defaults and options without touching the platform.
func newEngine(app App, options ...EngineBuilderOption) *engine {
	e := &engine{
		updateRateChannel: make(chan time.Duration, 1),
		quitChannel:       make(chan struct{}),
		app:               app,
		profiler:          profiler.NewProfiler(),
	}
	e.frameLimit.Store(int64(DefaultFrameLimit))

	for _, opt := range options {
		opt(e)
	}
	return e
}

// init wires the window callbacks and initializes the app.
func (e *engine) init() error {
	e.window.SetResizeCallback(e.resize)
	e.window.SetEventCallback(e.handleInput)
	e.window.SetUpdateCallback(e.pollQuit)

	w, h := e.renderer.Size()
	e.appMu.Lock()
	defer e.appMu.Unlock()
	if err := e.app.Init(common.Vector2{X: float32(w), Y: float32(h)}, e.renderer.Textures()); err != nil {
		return fmt.Errorf("engine: init app: %w", err)
	}
	return nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.running.Store(false)

	e.renderer.Release()
	if !e.closed {
		e.closed = true
		if err := e.window.Close(); err != nil {
			common.Logger().Warn("engine: close window", "err", err)
		}
	}
	return e.failure()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// fail records the first error that stopped the engine and signals quit.
func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()
	e.signalQuit()
}

func (e *engine) failure() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// pollQuit runs on the window thread each message loop iteration and closes the window once quit
// has been signalled, which ends ProcessMessages.
func (e *engine) pollQuit() {
	select {
	case <-e.quitChannel:
		if !e.closed {
			e.closed = true
			if err := e.window.Close(); err != nil {
				common.Logger().Warn("engine: close window", "err", err)
			}
		}
	default:
	}
}

// resize forwards a framebuffer resize to the renderer and the app.
func (e *engine) resize(width, height int) {
	e.renderer.Resize(width, height)
	w, h := e.renderer.Size()

	e.appMu.Lock()
	defer e.appMu.Unlock()
	e.app.Resize(common.Vector2{X: float32(w), Y: float32(h)})
}

// handleInput forwards a window event to the app.
func (e *engine) handleInput(event window.Event) {
	e.appMu.Lock()
	defer e.appMu.Unlock()
	e.app.HandleInput(event)
}

// update advances the app by dt seconds.
func (e *engine) update(dt float32) {
	e.appMu.Lock()
	defer e.appMu.Unlock()
	e.app.Update(dt)
}

// handle launches the update (when a fixed rate is set), render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	if e.updateRate > 0 {
		e.wg.Add(1)
		go e.handleUpdate()
	}
	e.wg.Add(2)
	go e.handleRender()
	go e.handleQuit()
}

// handleUpdate runs the fixed-rate update loop in its own goroutine.
// Fires App.Update at the configured rate and listens for dynamic rate changes
// via updateRateChannel. Exits when the quit channel is closed.
func (e *engine) handleUpdate() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.updateRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.update(dt)
		case newRate := <-e.updateRateChannel:
			ticker.Reset(newRate)
			e.updateRate = newRate
		}
	}
}

// handleRender runs the frame-limited render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("engine: render goroutine panic: %v", r))
		}
	}()

	lastRender := time.Now()
	fixedUpdates := e.updateRate > 0

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if !fixedUpdates {
				e.update(dt)
			}
			if err := e.renderFrame(); err != nil {
				common.Logger().Error("engine: frame failed", "err", err)
				e.fail(err)
				return
			}

			if limit := time.Duration(e.frameLimit.Load()); limit > 0 {
				if remaining := limit - time.Since(lastRender); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame runs one frame: acquire the surface, let the app queue its commands, then build
// and present. Failures to acquire or submit are returned and stop the engine.
func (e *engine) renderFrame() error {
	if err := e.renderer.InitFrame(); err != nil {
		return err
	}

	e.appMu.Lock()
	e.app.Draw(e.renderer)
	e.appMu.Unlock()

	stats, err := e.renderer.BuildAndSubmit()
	if err != nil {
		return err
	}

	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick(stats)
	}
	return nil
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetUpdateRate sets the fixed update rate in updates per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetUpdateRate(hz float64) {
	newRate := rateInterval(hz, 60)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.updateRateChannel <- newRate:
		default:
			select {
			case <-e.updateRateChannel:
			default:
			}
			e.updateRateChannel <- newRate
		}
	} else {
		e.updateRate = newRate
	}
}

// SetFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetFrameLimit(fps float64) {
	e.frameLimit.Store(int64(rateInterval(fps, 0)))
}

// rateInterval converts a per-second rate to an interval. Rates <= 0 use fallback, and a zero
// fallback yields a zero interval.
func rateInterval(hz, fallback float64) time.Duration {
	if hz <= 0 {
		hz = fallback
	}
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}
