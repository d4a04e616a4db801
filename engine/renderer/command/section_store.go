package command

import (
	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
)

// MaxSections is the number of text sections a frame can queue. Further sections are dropped.
const MaxSections = 32

// SectionStore is the fixed-capacity per-frame queue of text sections.
type SectionStore struct {
	sections [MaxSections]common.Section
	size     int
	dropped  int
}

// NewSectionStore creates an empty SectionStore.
func NewSectionStore() *SectionStore {
	return &SectionStore{}
}

// Push queues section and returns its index. When the store is full the section is dropped and
// ok is false.
func (s *SectionStore) Push(section common.Section) (index uint32, ok bool) {
	if s.size >= MaxSections {
		s.dropped++
		return 0, false
	}
	s.sections[s.size] = section
	s.size++
	return uint32(s.size - 1), true
}

// Sections returns the sections in r. r is clamped to the queued sections.
func (s *SectionStore) Sections(r gpu.Range) []common.Section {
	end := min(int(r.End), s.size)
	start := min(int(r.Start), end)
	return s.sections[start:end]
}

// Len returns the number of queued sections.
func (s *SectionStore) Len() int {
	return s.size
}

// Dropped returns how many sections were dropped this frame.
func (s *SectionStore) Dropped() int {
	return s.dropped
}

// Reset empties the store.
func (s *SectionStore) Reset() {
	clear(s.sections[:s.size])
	s.size = 0
	s.dropped = 0
}
