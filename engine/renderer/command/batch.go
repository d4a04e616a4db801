package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

// BatchKind tags a Batch.
type BatchKind int

const (
	BatchClear BatchKind = iota
	BatchLines
	BatchShapes
	BatchText
)

func (k BatchKind) String() string {
	switch k {
	case BatchClear:
		return "clear"
	case BatchLines:
		return "lines"
	case BatchShapes:
		return "shapes"
	case BatchText:
		return "text"
	default:
		return fmt.Sprintf("BatchKind(%d)", int(k))
	}
}

// Pipeline returns the pipeline a batch of this kind draws with. Clears report false.
func (k BatchKind) Pipeline() (gpu.PipelineKind, bool) {
	switch k {
	case BatchLines:
		return gpu.PipelineLines, true
	case BatchShapes:
		return gpu.PipelineShapes, true
	case BatchText:
		return gpu.PipelineText, true
	default:
		return 0, false
	}
}

// Batch is one entry of the batch list: either a clear or a contiguous range of instances
// (sections, for text) drawn with a single draw call.
type Batch struct {
	Kind BatchKind
	// Colour is set for BatchClear only.
	Colour common.Colour
	// Range is the half-open instance range for lines and shapes, or the section range for text.
	Range gpu.Range
	// Texture is the backing texture shared by every textured instance of a BatchShapes batch.
	// NoBacking means no textured instance has joined the batch yet.
	Texture texture.BackingID
}

func (b Batch) String() string {
	switch b.Kind {
	case BatchClear:
		return fmt.Sprintf("clear(%s)", b.Colour.Hex())
	case BatchShapes:
		return fmt.Sprintf("shapes%s tex=%d", b.Range, b.Texture)
	default:
		return fmt.Sprintf("%s%s", b.Kind, b.Range)
	}
}

// Manager is the ordered batch list for one frame. The most recently appended batch is the
// open batch: the only one that can still be extended.
type Manager struct {
	batches []Batch
}

// NewManager creates an empty batch list.
func NewManager() *Manager {
	return &Manager{}
}

// Push appends b and makes it the open batch.
func (m *Manager) Push(b Batch) {
	m.batches = append(m.batches, b)
}

// Open returns the open batch for in-place extension, or nil when the list is empty.
// The pointer is invalidated by the next Push.
func (m *Manager) Open() *Batch {
	if len(m.batches) == 0 {
		return nil
	}
	return &m.batches[len(m.batches)-1]
}

// Extendable returns the open batch if it has the given kind and ends exactly at index,
// i.e. an instance at index would keep the batch contiguous.
//
// Parameters:
//   - kind: the kind the open batch must have
//   - index: the index of the instance about to join
//
// Returns:
//   - *Batch: the open batch, or nil if it cannot be extended
func (m *Manager) Extendable(kind BatchKind, index uint32) *Batch {
	open := m.Open()
	if open == nil || open.Kind != kind || open.Range.End != index {
		return nil
	}
	return open
}

// Batches returns the batch list in append order. The slice is owned by the Manager.
func (m *Manager) Batches() []Batch {
	return m.batches
}

// Len returns the number of batches.
func (m *Manager) Len() int {
	return len(m.batches)
}

// Reset empties the list, keeping its capacity.
func (m *Manager) Reset() {
	m.batches = m.batches[:0]
}
