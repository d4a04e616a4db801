package renderer

import (
	_ "embed"
)

// LinesShaderSource is the WGSL for the lines pipeline. Its LineInstance struct matches
// instance.LineInstance exactly (36 bytes).
//
//go:embed assets/lines.wgsl
var LinesShaderSource string

// ShapesShaderSource is the WGSL for the shapes pipeline. Its ShapeInstance struct matches
// instance.ShapeInstance exactly (68 bytes); group 1 holds the atlas texture and sampler.
//
//go:embed assets/shapes.wgsl
var ShapesShaderSource string

// TextShaderSource is the WGSL that composites the rasterized text overlay over the frame.
//
//go:embed assets/text.wgsl
var TextShaderSource string
