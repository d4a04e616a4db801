package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/instance"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

// SubTextureLookup resolves texture handles to their sub-texture records. texture.Manager
// satisfies it.
type SubTextureLookup interface {
	SubTexture(h texture.Handle) (texture.SubTexture, bool)
}

// Processor is the batching engine. It converts each command into instance records and
// either extends the open batch or starts a new one, keeping texture switches to a minimum.
//
// A Processor belongs to one frame at a time and is not safe for concurrent use.
type Processor struct {
	store    *instance.Store
	batches  *Manager
	sections *SectionStore
	textures SubTextureLookup
}

var _ Renderer = &Processor{}

// NewProcessor creates a Processor with empty per-frame stores.
//
// Parameters:
//   - textures: resolves the texture handles carried by DrawShape commands; may be nil if no
//     command will carry a texture
//
// Returns:
//   - *Processor: a new Processor
func NewProcessor(textures SubTextureLookup) *Processor {
	return &Processor{
		store:    instance.NewStore(),
		batches:  NewManager(),
		sections: NewSectionStore(),
		textures: textures,
	}
}

// Add implements Renderer.
func (p *Processor) Add(cmd RenderCommand) {
	p.Process(cmd)
}

// Process applies one command to the frame's stores and batch list.
//
// Parameters:
//   - cmd: the command to apply
func (p *Processor) Process(cmd RenderCommand) {
	switch c := cmd.(type) {
	case Clear:
		p.batches.Push(Batch{Kind: BatchClear, Colour: c.Colour})
	case DrawLine:
		p.drawLine(c)
	case DrawShape:
		p.drawShape(c)
	case DrawText:
		p.drawText(c)
	default:
		common.Logger().Warn("unknown render command ignored", "type", fmt.Sprintf("%T", cmd))
	}
}

func (p *Processor) drawLine(c DrawLine) {
	idx := p.store.PushLine(instance.LineInstance{
		Start:  c.Start.Floats(),
		End:    c.End.Floats(),
		Colour: c.Colour.Floats(),
		Width:  c.Width,
	})

	if open := p.batches.Extendable(BatchLines, idx); open != nil {
		open.Range.End++
		return
	}
	p.batches.Push(newRangeBatch(BatchLines, idx))
}

func (p *Processor) drawShape(c DrawShape) {
	backing := texture.NoBacking
	var uv [4]float32
	if c.Texture != texture.NullHandle && p.textures != nil {
		if sub, ok := p.textures.SubTexture(c.Texture); ok {
			backing = sub.Backing
			uv = sub.UV()
		}
	}

	shape := c.Shape
	if shape == 0 {
		shape = instance.ShapeRectangle
	}
	idx := p.store.PushShape(instance.ShapeInstance{
		Position:     c.Position.Floats(),
		Size:         c.Size.Floats(),
		Colour:       c.Colour.Floats(),
		UV:           uv,
		Opacity:      c.Opacity,
		LineWidth:    c.LineWidth,
		CornerRadius: c.CornerRadius,
		Rotation:     c.Rotation,
		Shape:        shape,
	})

	if open := p.batches.Extendable(BatchShapes, idx); open != nil {
		switch {
		case open.Texture == texture.NoBacking:
			// untextured so far: adopt whatever the new draw carries
			open.Texture = backing
			open.Range.End++
			return
		case backing == texture.NoBacking || backing == open.Texture:
			open.Range.End++
			return
		}
	}

	b := newRangeBatch(BatchShapes, idx)
	b.Texture = backing
	p.batches.Push(b)
}

func (p *Processor) drawText(c DrawText) {
	idx, ok := p.sections.Push(c.Section)
	if !ok {
		common.Logger().Warn("text section dropped", "max", MaxSections, "text", c.Section.Text)
		return
	}

	if open := p.batches.Extendable(BatchText, idx); open != nil {
		open.Range.End++
		return
	}
	p.batches.Push(newRangeBatch(BatchText, idx))
}

func newRangeBatch(kind BatchKind, idx uint32) Batch {
	return Batch{Kind: kind, Range: gpu.Range{Start: idx, End: idx + 1}}
}

// Store returns the frame's instance records.
func (p *Processor) Store() *instance.Store {
	return p.store
}

// Batches returns the frame's batch list.
func (p *Processor) Batches() *Manager {
	return p.batches
}

// Sections returns the frame's text sections.
func (p *Processor) Sections() *SectionStore {
	return p.sections
}

// Reset discards everything queued for the frame. It runs at the start of every frame and
// when a frame is abandoned.
func (p *Processor) Reset() {
	p.store.Reset()
	p.batches.Reset()
	p.sections.Reset()
}
