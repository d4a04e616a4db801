// Package executor walks a frame's batch list and turns it into GPU work. Instance data is streamed
// through one bounded buffer per instance kind, uploading a window of records only when the
// range about to be drawn is not already resident.
package executor

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/instance"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

// ErrNoDevice is returned by NewExecutor when no device is supplied.
var ErrNoDevice = errors.New("executor: no gpu device")

// TextureResolver maps backing textures to GPU-resident textures. texture.Manager satisfies it.
type TextureResolver interface {
	ResolveBacking(id texture.BackingID) (gpu.TextureRef, bool)
}

// FrameStats summarises the GPU work issued for one frame.
type FrameStats struct {
	Batches           int
	Uploads           int
	UploadedInstances uint32
	DrawCalls         int
	TextPasses        int
	TextureBinds      int
	DroppedSections   int
}

// streamed is one instance kind's bounded buffer and the window of records resident in it.
type streamed struct {
	kind     gpu.PipelineKind
	buffer   gpu.BufferRef
	resident gpu.Range
}

// executor is the implementation of the Executor interface.
type executor struct {
	device   gpu.Device
	text     gpu.TextDrawer
	capacity uint32

	lines  streamed
	shapes streamed

	boundTexture gpu.TextureRef
	hasBound     bool
}

// Executor issues the draw calls for a frame's batch list.
type Executor interface {
	// Execute walks batches in order and submits their draws.
	// Residency is reset at the start of every call, so the first range of each kind is always uploaded.
	// A Clear is applied as the load operation of the next pass; a trailing Clear is flushed on its own.
	//
	// Parameters:
	//   - batches: the frame's batch list
	//   - store: the frame's instance records
	//   - sections: the frame's text sections
	//   - textures: resolves the backing texture of textured shape batches
	//
	// Returns:
	//   - FrameStats: counts of the work issued
	//   - error: error if marshalling or submission fails; work issued before the failure stays issued
	Execute(batches []command.Batch, store *instance.Store, sections *command.SectionStore, textures TextureResolver) (FrameStats, error)

	// InvalidateBoundTexture forgets which texture the shapes pipeline has bound, forcing the next
	// textured batch to rebind. Call it whenever the pipeline's texture slot is recreated.
	InvalidateBoundTexture()

	// Capacity returns how many instances each bounded buffer holds.
	Capacity() uint32
}

var _ Executor = &executor{}

// NewExecutor creates the bounded instance buffers on device.
//
// Parameters:
//   - device: the GPU device to allocate buffers on and submit draws to
//   - options: a variadic list of ExecutorBuilderOption functions
//
// Returns:
//   - Executor: a new Executor
//   - error: ErrNoDevice if device is nil, or the buffer allocation error
func NewExecutor(device gpu.Device, options ...ExecutorBuilderOption) (Executor, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	e := &executor{
		device:   device,
		capacity: instance.DefaultCapacity,
		lines:    streamed{kind: gpu.PipelineLines},
		shapes:   streamed{kind: gpu.PipelineShapes},
	}
	for _, option := range options {
		option(e)
	}

	for _, s := range []*streamed{&e.lines, &e.shapes} {
		buf, err := device.CreateBuffer(s.kind.String()+" instance buffer", uint64(e.capacity)*instance.Stride(s.kind))
		if err != nil {
			return nil, fmt.Errorf("executor: create %s buffer: %w", s.kind, err)
		}
		s.buffer = buf
	}
	return e, nil
}

func (e *executor) Capacity() uint32 {
	return e.capacity
}

func (e *executor) InvalidateBoundTexture() {
	e.hasBound = false
	e.boundTexture = 0
}

func (e *executor) Execute(batches []command.Batch, store *instance.Store, sections *command.SectionStore, textures TextureResolver) (FrameStats, error) {
	stats := FrameStats{Batches: len(batches)}
	if sections != nil {
		stats.DroppedSections = sections.Dropped()
	}

	e.lines.resident = gpu.Range{}
	e.shapes.resident = gpu.Range{}

	load := gpu.Load()
	for _, b := range batches {
		switch b.Kind {
		case command.BatchClear:
			load = gpu.ClearTo(b.Colour)

		case command.BatchLines:
			if err := e.drawRange(&e.lines, b.Range, store, &load, &stats); err != nil {
				return stats, err
			}

		case command.BatchShapes:
			if b.Texture != texture.NoBacking && !e.bindTexture(b.Texture, textures, &stats) {
				e.untexture(b.Range, store)
			}
			if err := e.drawRange(&e.shapes, b.Range, store, &load, &stats); err != nil {
				return stats, err
			}

		case command.BatchText:
			if sections == nil || e.text == nil {
				common.Logger().Warn("text batch skipped, no text drawer", "range", b.Range.String())
				continue
			}
			queued := sections.Sections(b.Range)
			if len(queued) == 0 {
				continue
			}
			if err := e.text.DrawSections(queued, load); err != nil {
				return stats, fmt.Errorf("executor: draw text %v: %w", b.Range, err)
			}
			load = gpu.Load()
			stats.TextPasses++
		}
	}

	if load.Clear {
		call := gpu.DrawCall{
			Pipeline: gpu.PipelineLines,
			Buffer:   e.lines.buffer,
			Vertices: gpu.QuadVertices,
			Load:     load,
		}
		if err := e.device.SubmitDraw(call); err != nil {
			return stats, fmt.Errorf("executor: flush clear: %w", err)
		}
		stats.DrawCalls++
	}
	return stats, nil
}

// bindTexture resolves the backing texture once per batch and rebinds only on change.
// It reports false when the texture is not resident.
func (e *executor) bindTexture(id texture.BackingID, textures TextureResolver, stats *FrameStats) bool {
	if textures == nil {
		common.Logger().Warn("no texture resolver, drawing untextured", "backing", id)
		return false
	}
	ref, ok := textures.ResolveBacking(id)
	if !ok {
		common.Logger().Warn("backing texture not resident, drawing untextured", "backing", id)
		return false
	}
	if e.hasBound && e.boundTexture == ref {
		return true
	}
	e.device.BindTextureView(gpu.PipelineShapes, ref)
	e.boundTexture = ref
	e.hasBound = true
	stats.TextureBinds++
	return true
}

// untexture zeroes the UVs of r so the batch cannot sample whatever texture is bound. A resident
// window overlapping r holds the old UVs and is dropped so r is uploaded again.
func (e *executor) untexture(r gpu.Range, store *instance.Store) {
	store.ClearShapeUV(r)
	if e.shapes.resident.Start < r.End && r.Start < e.shapes.resident.End {
		e.shapes.resident = gpu.Range{}
	}
}

// drawRange draws r. When the rest of r is not wholly resident, a window starting at the next
// undrawn record is uploaded over the whole buffer. Every draw uses buffer-relative instance indices.
func (e *executor) drawRange(s *streamed, r gpu.Range, store *instance.Store, load *gpu.LoadOp, stats *FrameStats) error {
	total := store.Count(s.kind)
	if r.End > total {
		return fmt.Errorf("executor: %s batch %v exceeds %d instances", s.kind, r, total)
	}

	for start := r.Start; start < r.End; {
		want := gpu.Range{Start: start, End: r.End}
		if !s.resident.Contains(want) {
			chunk := nextWindow(start, total, e.capacity)
			data, err := store.Bytes(s.kind, chunk)
			if err != nil {
				return fmt.Errorf("executor: marshal %s %v: %w", s.kind, chunk, err)
			}
			e.device.WriteBuffer(s.buffer, 0, data)
			s.resident = chunk
			stats.Uploads++
			stats.UploadedInstances += chunk.Len()
		}

		end := min(s.resident.End, r.End)
		call := gpu.DrawCall{
			Pipeline:  s.kind,
			Buffer:    s.buffer,
			Vertices:  gpu.QuadVertices,
			Instances: gpu.Range{Start: start, End: end}.Offset(s.resident.Start),
			Load:      *load,
		}
		if err := e.device.SubmitDraw(call); err != nil {
			return fmt.Errorf("executor: draw %s %v: %w", s.kind, call.Instances, err)
		}
		*load = gpu.Load()
		stats.DrawCalls++
		start = end
	}
	return nil
}

// nextWindow returns the records to upload so drawing can continue from start: up to capacity
// records, never past the frame's total.
func nextWindow(start, total, capacity uint32) gpu.Range {
	return gpu.Range{Start: start, End: min(start+capacity, total)}
}
