package instance

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestStorePushReturnsDrawOrderIndex(t *testing.T) {
	s := NewStore()
	for i := range 3 {
		if got := s.PushShape(ShapeInstance{}); got != uint32(i) {
			t.Fatalf("PushShape #%d returned %d", i, got)
		}
	}
	if got := s.PushLine(LineInstance{}); got != 0 {
		t.Fatalf("first PushLine returned %d, want 0", got)
	}
	if s.Count(gpu.PipelineShapes) != 3 || s.Count(gpu.PipelineLines) != 1 {
		t.Fatalf("counts = %d shapes, %d lines", s.Count(gpu.PipelineShapes), s.Count(gpu.PipelineLines))
	}
	if s.Count(gpu.PipelineText) != 0 {
		t.Fatal("text should never report instance records")
	}
}

func TestStoreResetKeepsNothing(t *testing.T) {
	s := NewStore()
	s.PushShape(ShapeInstance{})
	s.PushLine(LineInstance{})
	s.Reset()
	if s.Count(gpu.PipelineShapes) != 0 || s.Count(gpu.PipelineLines) != 0 {
		t.Fatal("Reset left records behind")
	}
	if got := s.PushShape(ShapeInstance{}); got != 0 {
		t.Fatalf("index after reset = %d, want 0", got)
	}
}

func TestStoreBytesMarshalsRequestedRange(t *testing.T) {
	s := NewStore()
	for i := range 5 {
		s.PushShape(ShapeInstance{Position: [2]float32{float32(i), 0}, Shape: ShapeCircle})
	}

	buf, err := s.Bytes(gpu.PipelineShapes, gpu.Range{Start: 2, End: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 2*ShapeInstanceSize {
		t.Fatalf("len = %d, want %d", len(buf), 2*ShapeInstanceSize)
	}
	if got := f32At(buf, 0); got != 2 {
		t.Errorf("first record x = %v, want 2", got)
	}
	if got := f32At(buf, ShapeInstanceSize); got != 3 {
		t.Errorf("second record x = %v, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(buf[64:68]); got != uint32(ShapeCircle) {
		t.Errorf("shape tag = %d, want %d", got, ShapeCircle)
	}
}

func TestStoreBytesRejectsOutOfBounds(t *testing.T) {
	s := NewStore()
	s.PushLine(LineInstance{})
	if _, err := s.Bytes(gpu.PipelineLines, gpu.Range{Start: 0, End: 2}); err == nil {
		t.Error("expected error for range past the end")
	}
	if _, err := s.Bytes(gpu.PipelineText, gpu.Range{}); err == nil {
		t.Error("expected error for text records")
	}
}

func TestLineInstanceLayout(t *testing.T) {
	l := LineInstance{Start: [2]float32{1, 2}, End: [2]float32{3, 4}, Colour: [4]float32{0.1, 0.2, 0.3, 0.4}, Width: 5}
	buf := make([]byte, LineInstanceSize)
	l.Marshal(buf)

	want := map[int]float32{0: 1, 4: 2, 8: 3, 12: 4, 16: 0.1, 28: 0.4, 32: 5}
	for off, v := range want {
		if got := f32At(buf, off); got != v {
			t.Errorf("offset %d = %v, want %v", off, got, v)
		}
	}
}

func TestShapeInstanceLayout(t *testing.T) {
	sh := ShapeInstance{
		UV:           [4]float32{8, 16, 32, 64},
		Opacity:      0.5,
		LineWidth:    2,
		CornerRadius: 3,
		Rotation:     1.5,
		Shape:        ShapeHexagon,
	}
	buf := make([]byte, ShapeInstanceSize)
	sh.Marshal(buf)

	want := map[int]float32{32: 8, 36: 16, 40: 32, 44: 64, 48: 0.5, 52: 2, 56: 3, 60: 1.5}
	for off, v := range want {
		if got := f32At(buf, off); got != v {
			t.Errorf("offset %d = %v, want %v", off, got, v)
		}
	}
	if got := binary.LittleEndian.Uint32(buf[64:]); got != uint32(ShapeHexagon) {
		t.Errorf("shape tag = %d, want %d", got, ShapeHexagon)
	}
}
