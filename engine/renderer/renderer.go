package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/executor"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/instance"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
	"github.com/Carmen-Shannon/oxy2d/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	textures  texture.Manager
	processor *command.Processor
	executor  executor.Executor

	width, height int
	stats         executor.FrameStats

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	capacity             uint32
	font                 []byte
	fontSize             float64
	textureOptions       []texture.ManagerBuilderOption
}

// Renderer is the 2D frame renderer.
//
// A frame runs InitFrame, then any number of Add calls, then BuildAndSubmit. Commands are
// batched as they arrive; BuildAndSubmit uploads pending textures, streams the instance records
// through the bounded GPU buffers and presents the frame.
type Renderer interface {
	command.Renderer

	// Textures returns the texture and atlas allocator that texture handles come from.
	//
	// Returns:
	//   - texture.Manager: the renderer's texture manager
	Textures() texture.Manager

	// InitFrame clears the previous frame's commands and acquires the next surface texture.
	// A failed acquisition reconfigures the surface and retries once.
	//
	// Returns:
	//   - error: error if the retry also fails
	InitFrame() error

	// BuildAndSubmit prepares pending textures, executes the frame's batches and presents.
	// A texture that fails to upload is logged and drawn untextured. On error the frame is
	// abandoned without presenting.
	//
	// Returns:
	//   - executor.FrameStats: counts of the GPU work issued
	//   - error: error if atlas growth or submission fails
	BuildAndSubmit() (executor.FrameStats, error)

	// AbandonFrame drops the acquired surface texture without presenting it.
	AbandonFrame()

	// Resize reconfigures the surface for a new size. This should be called when re-sizing the
	// window. Zero dimensions are clamped to one pixel.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Size returns the current surface size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Stats returns the statistics of the last submitted frame.
	//
	// Returns:
	//   - executor.FrameStats: the last frame's statistics
	Stats() executor.FrameStats

	// Release frees every GPU resource held by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing to the window's surface with the WebGPU backend.
//
// Parameters:
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new Renderer
//   - error: error if no adapter or device is available, or if pipeline creation fails
func NewRenderer(window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(options...)

	text, err := newTextRasterizer(r.font, r.fontSize)
	if err != nil {
		return nil, err
	}

	var backend RendererBackend
	switch r.backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, text)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	if err := r.init(backend, window.Width(), window.Height()); err != nil {
		backend.Release()
		return nil, err
	}
	return r, nil
}

// newRenderer applies options and creates the CPU-side state.
func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: BackendTypeWGPU,
		presentMode: PresentModeVSync,
		capacity:    instance.DefaultCapacity,
		fontSize:    DefaultFontSize,
	}
	for _, opt := range options {
		opt(r)
	}
	r.textures = texture.NewManager(r.textureOptions...)
	r.processor = command.NewProcessor(r.textures)
	return r
}

// init configures backend, registers the built-in pipelines and creates the executor.
func (r *renderer) init(backend RendererBackend, width, height int) error {
	r.backend = backend
	r.width, r.height = max(width, 1), max(height, 1)

	backend.SetPresentMode(r.presentMode)
	if err := backend.ConfigureSurface(r.width, r.height); err != nil {
		return err
	}

	pipelines, err := builtinPipelines()
	if err != nil {
		return err
	}
	for _, p := range pipelines {
		if err := backend.RegisterPipeline(p); err != nil {
			return err
		}
	}

	exec, err := executor.NewExecutor(backend,
		executor.WithCapacity(r.capacity),
		executor.WithTextDrawer(backend),
	)
	if err != nil {
		return err
	}
	r.executor = exec
	return nil
}

// builtinPipelines describes the lines, shapes and text pipelines from the embedded shaders.
func builtinPipelines() ([]pipeline.Pipeline, error) {
	specs := []struct {
		kind   gpu.PipelineKind
		source string
		blend  wgpu.BlendState
	}{
		{gpu.PipelineLines, LinesShaderSource, pipeline.AlphaBlend},
		{gpu.PipelineShapes, ShapesShaderSource, pipeline.AlphaBlend},
		{gpu.PipelineText, TextShaderSource, pipeline.PremultipliedBlend},
	}

	pipelines := make([]pipeline.Pipeline, 0, len(specs))
	for _, s := range specs {
		key := s.kind.String()
		vs, err := shader.NewShader(key+" vertex", shader.ShaderTypeVertex, s.source)
		if err != nil {
			return nil, err
		}
		fs, err := shader.NewShader(key+" fragment", shader.ShaderTypeFragment, s.source)
		if err != nil {
			return nil, err
		}
		blend := s.blend
		pipelines = append(pipelines, pipeline.NewPipeline(key, s.kind,
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithBlendState(&blend),
		))
	}
	return pipelines, nil
}

func (r *renderer) Textures() texture.Manager {
	return r.textures
}

func (r *renderer) Add(cmd command.RenderCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processor.Add(cmd)
}

func (r *renderer) InitFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processor.Reset()
	err := r.backend.BeginFrame()
	if err == nil {
		return nil
	}

	common.Logger().Warn("surface acquisition failed, reconfiguring", "error", err)
	if cerr := r.backend.ConfigureSurface(r.width, r.height); cerr != nil {
		return fmt.Errorf("renderer: reconfigure surface: %w", cerr)
	}
	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("renderer: acquire frame: %w", err)
	}
	return nil
}

func (r *renderer) BuildAndSubmit() (executor.FrameStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.textures.Prepare(r.backend); err != nil {
		// failed textures are dropped by Prepare; their draws go untextured
		common.Logger().Warn("texture uploads failed, continuing frame", "error", err)
	}

	grown, err := r.backend.GrowAtlas(r.textures.BufferDimensionsRequired())
	if err != nil {
		r.backend.AbandonFrame()
		return executor.FrameStats{}, fmt.Errorf("renderer: grow atlas: %w", err)
	}
	if grown {
		r.executor.InvalidateBoundTexture()
	}

	stats, err := r.executor.Execute(
		r.processor.Batches().Batches(),
		r.processor.Store(),
		r.processor.Sections(),
		r.textures,
	)
	if err != nil {
		r.backend.AbandonFrame()
		return stats, fmt.Errorf("renderer: execute frame: %w", err)
	}

	r.backend.Present()
	r.stats = stats
	common.Logger().Debug("frame submitted",
		"batches", stats.Batches,
		"uploads", stats.Uploads,
		"instances", stats.UploadedInstances,
		"draws", stats.DrawCalls,
	)
	return stats, nil
}

func (r *renderer) AbandonFrame() {
	r.backend.AbandonFrame()
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.width, r.height = max(width, 1), max(height, 1)
	if err := r.backend.ConfigureSurface(r.width, r.height); err != nil {
		common.Logger().Error("resize failed", "width", r.width, "height", r.height, "error", err)
	}
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presentMode = mode
	r.backend.SetPresentMode(mode)
	if err := r.backend.ConfigureSurface(r.width, r.height); err != nil {
		common.Logger().Error("present mode change failed", "error", err)
	}
}

func (r *renderer) Stats() executor.FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}
