// Package shader parses the WGSL sources the renderer embeds. A Shader knows its entry point, the
// vertex buffer layouts its input structs describe and the bind group layouts its resources need,
// which is everything a render pipeline requires besides the module itself.
package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is a shader with a @vertex entry point.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is a shader with a @fragment entry point.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// visibility is the wgpu stage flag for resources declared by a shader of this type.
func (t ShaderType) visibility() wgpu.ShaderStage {
	if t == ShaderTypeFragment {
		return wgpu.ShaderStageFragment
	}
	return wgpu.ShaderStageVertex
}

// shader is the implementation of the Shader interface.
type shader struct {
	key              string
	source           string
	shaderType       ShaderType
	entryPoint       string
	vertexLayouts    []wgpu.VertexBufferLayout
	bindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames  map[int]map[int]string
	module           *wgpu.ShaderModuleDescriptor
}

// Shader is one stage of a render pipeline, parsed from WGSL source.
type Shader interface {
	// Key retrieves the unique identifier of the shader, also used as the module label.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// ShaderType returns the stage the shader was parsed for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the name of the stage's entry function.
	//
	// Returns:
	//   - string: the entry point name, e.g. "vs_main"
	EntryPoint() string

	// VertexLayouts retrieves the vertex buffer layouts described by the shader's input structs.
	// The slice index is the vertex buffer slot. Fragment shaders have none.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts ordered by slot
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors retrieves the layout descriptors of every bind group the shader
	// declares, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is declared there
	BindGroupVarName(group, binding int) string

	// Module returns the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor carrying the WGSL code
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses source for the given stage.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage to parse for
//   - source: the WGSL source, usually embedded with go:embed
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if the source has no entry point for shaderType
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	cleaned := stripComments(source)
	entry := parseEntryPoint(cleaned, shaderType)
	if entry == "" {
		return nil, fmt.Errorf("shader: %s has no %s entry point", key, shaderType)
	}

	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: entry,
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
	}
	if shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(cleaned)
	}
	s.bindGroupLayouts, s.bindingVarNames = parseBindGroupLayouts(cleaned, shaderType.visibility())
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayouts
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
