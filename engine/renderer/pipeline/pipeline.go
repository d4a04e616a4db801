// Package pipeline describes the render pipelines of the 2D renderer: which shaders they run, how
// they blend and which bind group layouts they need. Creating the GPU object is left to the backend.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	kind gpu.PipelineKind
	key  string

	vertexShader, fragmentShader shader.Shader

	renderPipeline   *wgpu.RenderPipeline
	bindGroupLayouts []*wgpu.BindGroupLayout

	cullMode   wgpu.CullMode
	topology   wgpu.PrimitiveTopology
	frontFace  wgpu.FrontFace
	writeMask  wgpu.ColorWriteMask
	blendState *wgpu.BlendState
}

// Pipeline is the configuration and GPU state of one render pipeline.
type Pipeline interface {
	// Kind returns which batch kind this pipeline draws.
	//
	// Returns:
	//   - gpu.PipelineKind: the pipeline kind
	Kind() gpu.PipelineKind

	// PipelineKey returns the unique key of the pipeline, also used as its GPU label.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader retrieves the shader for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// BindGroupLayoutDescriptors merges the vertex and fragment declarations into one descriptor per
	// group, ordered by group index. A binding declared by both stages is visible to both.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutDescriptor: descriptors indexed by group
	//   - error: error if the declared groups are not contiguous from zero
	BindGroupLayoutDescriptors() ([]wgpu.BindGroupLayoutDescriptor, error)

	// RenderPipeline returns the GPU pipeline, or nil before the backend created it.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the GPU layout created for a group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if the group does not exist
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// CullMode returns the configured cull mode.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns the configured primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the configured winding order.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face
	FrontFace() wgpu.FrontFace

	// WriteMask returns the configured colour write mask.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the write mask
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the configured blend state, nil when blending is off.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// SetRenderPipeline stores the GPU pipeline and the bind group layouts it was created with.
	//
	// Parameters:
	//   - rp: the GPU pipeline
	//   - layouts: the bind group layouts, indexed by group
	SetRenderPipeline(rp *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout)

	// Release frees the GPU pipeline and its bind group layouts.
	Release()
}

var _ Pipeline = &pipeline{}

// AlphaBlend is straight-alpha "over" blending, the default for every pipeline.
var AlphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// PremultipliedBlend is "over" blending for sources whose colour is already multiplied by alpha.
var PremultipliedBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// NewPipeline creates a render pipeline description. Every pipeline draws a four vertex triangle
// strip per instance, so the defaults are a strip topology with no culling and alpha blending.
//
// Parameters:
//   - key: the unique key for this pipeline
//   - kind: the batch kind the pipeline draws
//   - opts: a variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the new pipeline description
func NewPipeline(key string, kind gpu.PipelineKind, opts ...PipelineBuilderOption) Pipeline {
	blend := AlphaBlend
	p := &pipeline{
		kind:       kind,
		key:        key,
		cullMode:   wgpu.CullModeNone,
		topology:   wgpu.PrimitiveTopologyTriangleStrip,
		frontFace:  wgpu.FrontFaceCCW,
		writeMask:  wgpu.ColorWriteMaskAll,
		blendState: &blend,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Kind() gpu.PipelineKind {
	return p.kind
}

func (p *pipeline) PipelineKey() string {
	return p.key
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) BindGroupLayoutDescriptors() ([]wgpu.BindGroupLayoutDescriptor, error) {
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertex = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragment = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	merged := mergeBindGroupLayouts(vertex, fragment)

	out := make([]wgpu.BindGroupLayoutDescriptor, len(merged))
	for g, desc := range merged {
		if g < 0 || g >= len(merged) {
			return nil, fmt.Errorf("pipeline: %s declares group %d but only %d groups", p.key, g, len(merged))
		}
		desc.Label = fmt.Sprintf("%s group %d", p.key, g)
		out[g] = desc
	}
	return out, nil
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout) {
	p.renderPipeline = rp
	p.bindGroupLayouts = layouts
}

func (p *pipeline) Release() {
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}

// mergeBindGroupLayouts combines per-stage descriptors. Entries sharing a binding have their
// visibility ORed; entries are sorted by binding.
func mergeBindGroupLayouts(vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, max(len(vertex), len(fragment)))
	for _, stage := range []map[int]wgpu.BindGroupLayoutDescriptor{vertex, fragment} {
		for g, desc := range stage {
			byBinding := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range merged[g].Entries {
				byBinding[e.Binding] = e
			}
			for _, e := range desc.Entries {
				if existing, ok := byBinding[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					e = existing
				}
				byBinding[e.Binding] = e
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(byBinding))
			for _, e := range byBinding {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
			merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
		}
	}
	return merged
}
