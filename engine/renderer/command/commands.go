// Package command turns the application's per-frame draw commands into instance records and an
// ordered batch list. The batch list is what the executor walks to issue GPU work.
package command

import (
	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/instance"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

// RenderCommand is one draw request from the application. The set is closed: Clear, DrawLine,
// DrawShape and DrawText are the only implementations.
type RenderCommand interface {
	renderCommand()
}

// Clear clears the render target to Colour. Clears always become their own batch.
type Clear struct {
	Colour common.Colour
}

// DrawLine draws a straight line segment between two points.
type DrawLine struct {
	Start  common.Point2
	End    common.Point2
	Width  float32
	Colour common.Colour
}

// DrawShape draws a rectangle, circle, triangle or hexagon, optionally sampling a sub-texture.
type DrawShape struct {
	// Position is the top-left corner of the bounding box in pixels.
	Position common.Point2
	// Size is the bounding box extent in pixels.
	Size   common.Vector2
	Colour common.Colour
	// Texture is the sub-texture to sample. NullHandle draws untextured.
	Texture texture.Handle
	// Opacity weights the sampled texel against Colour.
	Opacity float32
	// LineWidth draws an outline of that width instead of a filled shape when non-zero.
	LineWidth    float32
	CornerRadius float32
	// Rotation is in radians about the centre of the bounding box.
	Rotation float32
	Shape    instance.ShapeKind
}

// DrawText queues a run of text for the text pass.
type DrawText struct {
	Section common.Section
}

func (Clear) renderCommand()     {}
func (DrawLine) renderCommand()  {}
func (DrawShape) renderCommand() {}
func (DrawText) renderCommand()  {}

// DefaultShape returns a transparent, untextured, filled rectangle of zero size at the origin
// with full texture opacity. Callers set the fields they care about.
func DefaultShape() DrawShape {
	return DrawShape{
		Colour:  common.Transparent,
		Opacity: 1,
		Shape:   instance.ShapeRectangle,
	}
}

// Renderer is the draw surface an application submits commands to during its draw callback.
type Renderer interface {
	// Add queues cmd for the current frame. Commands are drawn in submission order.
	//
	// Parameters:
	//   - cmd: the command to queue
	Add(cmd RenderCommand)
}
