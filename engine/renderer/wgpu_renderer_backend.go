package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// globalsSize is the byte size of the Globals uniform: screen size plus padding.
	globalsSize = 16

	// textureFormat is the format of every sampled texture. Texels are stored in sRGB and
	// read back linear, matching the sRGB surface.
	textureFormat = wgpu.TextureFormatRGBA8UnormSrgb
)

// residentTexture is an uploaded texture and its extent.
type residentTexture struct {
	texture       *wgpu.Texture
	width, height uint32
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeFifo (VSync)
	width, height uint32

	pipelines map[gpu.PipelineKind]pipeline.Pipeline
	// providers holds the bind groups each pipeline draws with, indexed by group.
	providers map[gpu.PipelineKind][]bind_group_provider.BindGroupProvider

	buffers    map[gpu.BufferRef]*wgpu.Buffer
	nextBuffer gpu.BufferRef

	textures    map[gpu.TextureRef]residentTexture
	nextTexture gpu.TextureRef

	atlasWidth, atlasHeight     uint32
	overlayWidth, overlayHeight uint32

	text *textRasterizer

	// Frame state between BeginFrame and Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, text *textRasterizer) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		pipelines:   make(map[gpu.PipelineKind]pipeline.Pipeline),
		providers:   make(map[gpu.PipelineKind][]bind_group_provider.BindGroupProvider),
		buffers:     make(map[gpu.BufferRef]*wgpu.Buffer),
		textures:    make(map[gpu.TextureRef]residentTexture),
		atlasWidth:  1,
		atlasHeight: 1,
		text:        text,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	common.Logger().Info("device acquired", "fallback", forceFallbackAdapter)
	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width = uint32(max(width, 1))
	b.height = uint32(max(height, 1))

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = preferredSurfaceFormat(capabilities.Formats)

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	var writes []bind_group_provider.BufferWrite
	for _, kind := range []gpu.PipelineKind{gpu.PipelineLines, gpu.PipelineShapes} {
		if groups := b.providers[kind]; len(groups) > 0 {
			writes = append(writes, bind_group_provider.BufferWrite{Provider: groups[0], Binding: 0, Data: b.globalsBytes()})
		}
	}
	b.writeBuffers(writes)

	if _, ok := b.pipelines[gpu.PipelineText]; ok {
		if err := b.createOverlay(); err != nil {
			return err
		}
	}

	common.Logger().Info("surface configured", "width", b.width, "height", b.height, "format", b.surfaceFormat)
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) RegisterPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("renderer: both vertex and fragment shaders must be set to create a render pipeline")
	}
	if _, exists := b.pipelines[p.Kind()]; exists {
		return nil
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("renderer: %s vertex module: %w", p.PipelineKey(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("renderer: %s fragment module: %w", p.PipelineKey(), err)
	}
	defer fs.Release()

	descriptors, err := p.BindGroupLayoutDescriptors()
	if err != nil {
		return err
	}
	layouts := make([]*wgpu.BindGroupLayout, len(descriptors))
	for g := range descriptors {
		layout, layoutErr := b.device.CreateBindGroupLayout(&descriptors[g])
		if layoutErr != nil {
			return fmt.Errorf("renderer: bind group layout %d of %s: %w", g, p.PipelineKey(), layoutErr)
		}
		layouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("renderer: pipeline layout of %s: %w", p.PipelineKey(), err)
	}
	defer pipelineLayout.Release()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				WriteMask: p.WriteMask(),
				Blend:     p.BlendState(),
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: render pipeline %s: %w", p.PipelineKey(), err)
	}
	p.SetRenderPipeline(created, layouts)
	b.pipelines[p.Kind()] = p

	if err := b.createProviders(p); err != nil {
		return err
	}
	common.Logger().Info("pipeline registered", "key", p.PipelineKey(), "groups", len(layouts))
	return nil
}

// createProviders builds the resources and bind groups p draws with.
func (b *wgpuRendererBackendImpl) createProviders(p pipeline.Pipeline) error {
	switch p.Kind() {
	case gpu.PipelineLines:
		globals, err := b.createGlobals(p)
		if err != nil {
			return err
		}
		b.providers[p.Kind()] = []bind_group_provider.BindGroupProvider{globals}

	case gpu.PipelineShapes:
		globals, err := b.createGlobals(p)
		if err != nil {
			return err
		}
		sampler, err := b.createSampler(p.PipelineKey()+" atlas", common.SamplerStagingData{})
		if err != nil {
			return err
		}
		atlas := bind_group_provider.NewBindGroupProvider(p.PipelineKey()+" atlas",
			bind_group_provider.WithGroup(1),
			bind_group_provider.WithSampler(1, sampler),
		)
		b.providers[p.Kind()] = []bind_group_provider.BindGroupProvider{globals, atlas}
		if err := b.createAtlas(b.atlasWidth, b.atlasHeight); err != nil {
			return err
		}

	case gpu.PipelineText:
		sampler, err := b.createSampler(p.PipelineKey()+" overlay", common.SamplerStagingData{
			MagFilter: wgpu.FilterModeNearest,
			MinFilter: wgpu.FilterModeNearest,
		})
		if err != nil {
			return err
		}
		overlay := bind_group_provider.NewBindGroupProvider(p.PipelineKey()+" overlay",
			bind_group_provider.WithGroup(0),
			bind_group_provider.WithSampler(1, sampler),
		)
		b.providers[p.Kind()] = []bind_group_provider.BindGroupProvider{overlay}
		if err := b.createOverlay(); err != nil {
			return err
		}

	default:
		return fmt.Errorf("renderer: no bind groups known for %s", p.Kind())
	}
	return nil
}

// createGlobals creates a provider holding the screen-size uniform for p.
func (b *wgpuRendererBackendImpl) createGlobals(p pipeline.Pipeline) (bind_group_provider.BindGroupProvider, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.PipelineKey() + " globals",
		Size:  globalsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: globals buffer: %w", err)
	}
	globals := bind_group_provider.NewBindGroupProvider(p.PipelineKey()+" globals",
		bind_group_provider.WithGroup(0),
		bind_group_provider.WithBuffer(0, buf),
	)
	b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: globals, Binding: 0, Data: b.globalsBytes()}})
	if err := b.buildBindGroup(p, globals); err != nil {
		return nil, err
	}
	return globals, nil
}

func (b *wgpuRendererBackendImpl) createSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(staging.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(staging.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(staging.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(staging.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(staging.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(staging.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(staging.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(staging.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(staging.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: sampler %s: %w", label, err)
	}
	return samp, nil
}

// createTexture creates a 2D sampled texture in textureFormat.
func (b *wgpuRendererBackendImpl) createTexture(label string, width, height uint32, usage wgpu.TextureUsage) (*wgpu.Texture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        textureFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: texture %s: %w", label, err)
	}
	return tex, nil
}

// createAtlas replaces the texture in the shapes pipeline's atlas slot.
func (b *wgpuRendererBackendImpl) createAtlas(width, height uint32) error {
	p, ok := b.pipelines[gpu.PipelineShapes]
	if !ok {
		return nil
	}
	atlas := b.providers[gpu.PipelineShapes][1]
	tex, err := b.createTexture(atlas.Label(), width, height, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("renderer: atlas view: %w", err)
	}
	atlas.SetTexture(0, tex, view)
	return b.buildBindGroup(p, atlas)
}

// createOverlay replaces the surface-sized text overlay texture.
func (b *wgpuRendererBackendImpl) createOverlay() error {
	p, ok := b.pipelines[gpu.PipelineText]
	if !ok {
		return nil
	}
	overlay := b.providers[gpu.PipelineText][0]
	if overlay.Texture(0) != nil && b.overlayWidth == b.width && b.overlayHeight == b.height {
		return nil
	}
	tex, err := b.createTexture(overlay.Label(), b.width, b.height, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("renderer: overlay view: %w", err)
	}
	overlay.SetTexture(0, tex, view)
	b.overlayWidth, b.overlayHeight = b.width, b.height
	return b.buildBindGroup(p, overlay)
}

// buildBindGroup creates the bind group of provider from its current resources.
func (b *wgpuRendererBackendImpl) buildBindGroup(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) error {
	layout := p.BindGroupLayout(provider.Group())
	if layout == nil {
		return fmt.Errorf("renderer: %s has no bind group %d", p.PipelineKey(), provider.Group())
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: provider.Entries(),
	})
	if err != nil {
		return fmt.Errorf("renderer: bind group %s: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bg)
	return nil
}

func (b *wgpuRendererBackendImpl) globalsBytes() []byte {
	data := make([]byte, globalsSize)
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(float32(b.width)))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(float32(b.height)))
	return data
}

func (b *wgpuRendererBackendImpl) writeBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) GrowAtlas(width, height uint32) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= b.atlasWidth && height <= b.atlasHeight {
		return false, nil
	}
	w, h := max(width, b.atlasWidth), max(height, b.atlasHeight)
	if err := b.createAtlas(w, h); err != nil {
		return false, err
	}
	b.atlasWidth, b.atlasHeight = w, h
	common.Logger().Info("atlas resized", "width", w, "height", h)
	return true, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size uint64) (gpu.BufferRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, err
	}
	b.nextBuffer++
	b.buffers[b.nextBuffer] = buf
	return b.nextBuffer, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(ref gpu.BufferRef, offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[ref]
	if !ok {
		common.Logger().Warn("write to unknown buffer", "buffer", ref)
		return
	}
	b.queue.WriteBuffer(buf, offset, data)
}

func (b *wgpuRendererBackendImpl) UploadTexture(pixels []byte, width, height uint32) (gpu.TextureRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextTexture++
	ref := b.nextTexture
	tex, err := b.createTexture(fmt.Sprintf("Texture %d", ref), width, height,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst|wgpu.TextureUsageCopySrc)
	if err != nil {
		return 0, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	b.textures[ref] = residentTexture{texture: tex, width: width, height: height}
	return ref, nil
}

func (b *wgpuRendererBackendImpl) ReleaseTexture(ref gpu.TextureRef) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.textures[ref]; ok {
		t.texture.Release()
		delete(b.textures, ref)
	}
}

func (b *wgpuRendererBackendImpl) BindTextureView(kind gpu.PipelineKind, ref gpu.TextureRef) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if kind != gpu.PipelineShapes {
		common.Logger().Warn("pipeline has no texture slot", "pipeline", kind)
		return
	}
	src, ok := b.textures[ref]
	groups := b.providers[kind]
	if !ok || len(groups) < 2 || groups[1].Texture(0) == nil {
		common.Logger().Warn("cannot bind texture", "texture", ref, "pipeline", kind)
		return
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		common.Logger().Warn("texture bind encoder", "error", err)
		return
	}
	encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: src.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: groups[1].Texture(0), Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{
			Width:              min(src.width, b.atlasWidth),
			Height:             min(src.height, b.atlasHeight),
			DepthOrArrayLayers: 1,
		},
	)
	if err := b.submit(encoder); err != nil {
		common.Logger().Warn("texture bind submit", "error", err)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("renderer: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) SubmitDraw(call gpu.DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf *wgpu.Buffer
	if !call.Instances.Empty() {
		var ok bool
		if buf, ok = b.buffers[call.Buffer]; !ok {
			return fmt.Errorf("renderer: draw from unknown buffer %d", call.Buffer)
		}
	}
	return b.draw(call.Pipeline, call.Load, func(pass *wgpu.RenderPassEncoder) {
		if buf == nil {
			return
		}
		pass.SetVertexBuffer(0, buf, 0, wgpu.WholeSize)
		pass.Draw(call.Vertices.Len(), call.Instances.Len(), call.Vertices.Start, call.Instances.Start)
	})
}

func (b *wgpuRendererBackendImpl) DrawSections(sections []common.Section, load gpu.LoadOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups := b.providers[gpu.PipelineText]
	if len(groups) == 0 || b.text == nil {
		return errors.New("renderer: text pipeline not registered")
	}
	overlay, err := b.text.Rasterize(sections, int(b.width), int(b.height))
	if err != nil {
		return err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  groups[0].Texture(0),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		overlay.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(overlay.Stride),
			RowsPerImage: b.height,
		},
		&wgpu.Extent3D{
			Width:              b.width,
			Height:             b.height,
			DepthOrArrayLayers: 1,
		},
	)

	return b.draw(gpu.PipelineText, load, func(pass *wgpu.RenderPassEncoder) {
		pass.Draw(gpu.QuadVertices.Len(), 1, 0, 0)
	})
}

// draw records one render pass on the acquired frame with kind's pipeline and bind groups set,
// lets record add the draw, and submits it. A pass with nothing recorded still applies load.
func (b *wgpuRendererBackendImpl) draw(kind gpu.PipelineKind, load gpu.LoadOp, record func(pass *wgpu.RenderPassEncoder)) error {
	if b.frameView == nil {
		return gpu.ErrFrameNotAcquired
	}
	p, ok := b.pipelines[kind]
	if !ok {
		return fmt.Errorf("renderer: %s pipeline not registered", kind)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("renderer: command encoder: %w", err)
	}

	attachment := wgpu.RenderPassColorAttachment{
		View:    b.frameView,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if load.Clear {
		c := load.Colour.Linear()
		attachment.LoadOp = wgpu.LoadOpClear
		attachment.ClearValue = wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})

	pass.SetPipeline(p.RenderPipeline())
	for _, provider := range b.providers[kind] {
		pass.SetBindGroup(uint32(provider.Group()), provider.BindGroup(), nil)
	}
	record(pass)
	pass.End()

	return b.submit(encoder)
}

// submit finishes encoder and submits the command buffer.
func (b *wgpuRendererBackendImpl) submit(encoder *wgpu.CommandEncoder) error {
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return fmt.Errorf("renderer: finish commands: %w", err)
	}
	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	encoder.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) AbandonFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	for kind, groups := range b.providers {
		for _, provider := range groups {
			provider.Release()
		}
		delete(b.providers, kind)
	}
	for kind, p := range b.pipelines {
		p.Release()
		delete(b.pipelines, kind)
	}
	for ref, buf := range b.buffers {
		buf.Release()
		delete(b.buffers, ref)
	}
	for ref, t := range b.textures {
		t.texture.Release()
		delete(b.textures, ref)
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

// preferredSurfaceFormat picks the first sRGB format so blending happens in linear space,
// falling back to the first format offered.
func preferredSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		switch f {
		case wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
			return f
		}
	}
	if len(formats) == 0 {
		return wgpu.TextureFormatBGRA8UnormSrgb
	}
	return formats[0]
}
