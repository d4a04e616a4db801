package shader

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// attributeFormat pairs a wgpu vertex format with its packed byte size.
type attributeFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// typeLayout is the host-shareable size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// structField is one member of a WGSL struct. location is -1 when the member has no @location.
type structField struct {
	name     string
	typeName string
	location int
	builtin  bool
}

// wgslStruct is a struct block lifted out of WGSL source.
type wgslStruct struct {
	name   string
	fields []structField
}

// instanceStepped reports whether the struct feeds per-instance attributes. Every instance struct
// in the renderer's shaders is named with an Instance suffix.
func (s wgslStruct) instanceStepped() bool {
	return strings.HasSuffix(s.name, "Instance")
}
