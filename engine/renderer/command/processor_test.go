package command

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/instance"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

func newTextures(t *testing.T, n int) (texture.Manager, []texture.Handle) {
	t.Helper()
	m := texture.NewManager()
	handles := make([]texture.Handle, n)
	for i := range handles {
		h, err := m.CreateTexture(make([]byte, 16*16*4), 16, 16)
		if err != nil {
			t.Fatal(err)
		}
		handles[i] = h
	}
	return m, handles
}

func shape(tex texture.Handle) DrawShape {
	s := DefaultShape()
	s.Size = common.Vector2{X: 10, Y: 10}
	s.Colour = common.White
	s.Texture = tex
	return s
}

func backingOf(t *testing.T, m texture.Manager, h texture.Handle) texture.BackingID {
	t.Helper()
	rec, ok := m.SubTexture(h)
	if !ok {
		t.Fatalf("handle %d unknown", h)
	}
	return rec.Backing
}

func TestUntexturedShapesFormOneBatch(t *testing.T) {
	for _, n := range []int{1, 2, 7, 600} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			p := NewProcessor(nil)
			for range n {
				p.Add(shape(texture.NullHandle))
			}
			batches := p.Batches().Batches()
			if len(batches) != 1 {
				t.Fatalf("got %d batches, want 1: %v", len(batches), batches)
			}
			want := gpu.Range{Start: 0, End: uint32(n)}
			if batches[0].Kind != BatchShapes || batches[0].Range != want || batches[0].Texture != texture.NoBacking {
				t.Errorf("batch = %v, want untextured shapes%v", batches[0], want)
			}
		})
	}
}

func TestAlternatingTexturesSplitBatches(t *testing.T) {
	m, h := newTextures(t, 2)
	a, b := backingOf(t, m, h[0]), backingOf(t, m, h[1])

	p := NewProcessor(m)
	p.Add(shape(h[0]))
	p.Add(shape(h[1]))
	p.Add(shape(h[0]))

	batches := p.Batches().Batches()
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3: %v", len(batches), batches)
	}
	for i, want := range []texture.BackingID{a, b, a} {
		if batches[i].Texture != want {
			t.Errorf("batch %d texture = %d, want %d", i, batches[i].Texture, want)
		}
		if batches[i].Range != (gpu.Range{Start: uint32(i), End: uint32(i + 1)}) {
			t.Errorf("batch %d range = %v", i, batches[i].Range)
		}
	}
}

func TestShapeBatchTextureRules(t *testing.T) {
	m, h := newTextures(t, 2)
	a, b := backingOf(t, m, h[0]), backingOf(t, m, h[1])
	subA := m.CreateSubTexture(h[0], 4, 4, 8, 8)

	tests := []struct {
		name  string
		draws []texture.Handle
		want  []texture.BackingID
	}{
		{"untextured after textured extends", []texture.Handle{h[0], 0}, []texture.BackingID{a}},
		{"textured adopts into untextured batch", []texture.Handle{0, 0, h[1]}, []texture.BackingID{b}},
		{"untextured rides between same texture", []texture.Handle{h[0], 0, h[0]}, []texture.BackingID{a}},
		{"sub-texture shares parent backing", []texture.Handle{h[0], subA}, []texture.BackingID{a}},
		{"mismatch after adoption splits", []texture.Handle{0, h[0], h[1]}, []texture.BackingID{a, b}},
		{"unknown handle is untextured", []texture.Handle{h[1], 99}, []texture.BackingID{b}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(m)
			for _, d := range tt.draws {
				p.Add(shape(d))
			}
			batches := p.Batches().Batches()
			if len(batches) != len(tt.want) {
				t.Fatalf("got %d batches, want %d: %v", len(batches), len(tt.want), batches)
			}
			for i, want := range tt.want {
				if batches[i].Texture != want {
					t.Errorf("batch %d texture = %d, want %d", i, batches[i].Texture, want)
				}
			}
			last := batches[len(batches)-1]
			if last.Range.End != uint32(len(tt.draws)) {
				t.Errorf("last batch ends at %d, want %d", last.Range.End, len(tt.draws))
			}
		})
	}
}

func TestShapeInstanceCarriesUV(t *testing.T) {
	m, h := newTextures(t, 1)
	sub := m.CreateSubTexture(h[0], 2, 3, 4, 5)

	p := NewProcessor(m)
	p.Add(shape(sub))
	p.Add(shape(texture.NullHandle))

	if got := p.Store().Shape(0).UV; got != [4]float32{2, 3, 4, 5} {
		t.Errorf("textured UV = %v", got)
	}
	if got := p.Store().Shape(1).UV; got != [4]float32{} {
		t.Errorf("untextured UV = %v, want zero", got)
	}
	if got := p.Store().Shape(1).Shape; got != instance.ShapeRectangle {
		t.Errorf("shape tag = %d, want rectangle", got)
	}
}

func TestClearsAreNeverMerged(t *testing.T) {
	line := DrawLine{Start: common.Point2{}, End: common.Point2{X: 5, Y: 5}, Width: 1, Colour: common.White}

	p := NewProcessor(nil)
	p.Add(Clear{Colour: common.Black})
	p.Add(Clear{Colour: common.White})
	p.Add(line)
	p.Add(line)
	p.Add(Clear{Colour: common.Black})
	p.Add(line)
	p.Add(shape(texture.NullHandle))
	p.Add(Clear{Colour: common.Black})

	want := []struct {
		kind BatchKind
		r    gpu.Range
	}{
		{BatchClear, gpu.Range{}},
		{BatchClear, gpu.Range{}},
		{BatchLines, gpu.Range{Start: 0, End: 2}},
		{BatchClear, gpu.Range{}},
		{BatchLines, gpu.Range{Start: 2, End: 3}},
		{BatchShapes, gpu.Range{Start: 0, End: 1}},
		{BatchClear, gpu.Range{}},
	}
	batches := p.Batches().Batches()
	if len(batches) != len(want) {
		t.Fatalf("got %d batches, want %d: %v", len(batches), len(want), batches)
	}
	for i, w := range want {
		if batches[i].Kind != w.kind || batches[i].Range != w.r {
			t.Errorf("batch %d = %v, want %s%v", i, batches[i], w.kind, w.r)
		}
	}
	if batches[1].Colour != common.White {
		t.Errorf("second clear colour = %v", batches[1].Colour)
	}
}

func TestInterleavedKindsKeepDrawOrder(t *testing.T) {
	line := DrawLine{End: common.Point2{X: 1}, Width: 1}
	p := NewProcessor(nil)
	p.Add(line)
	p.Add(shape(0))
	p.Add(line)
	p.Add(DrawText{Section: common.Section{Text: "a"}})
	p.Add(DrawText{Section: common.Section{Text: "b"}})

	batches := p.Batches().Batches()
	kinds := []BatchKind{BatchLines, BatchShapes, BatchLines, BatchText}
	if len(batches) != len(kinds) {
		t.Fatalf("got %v", batches)
	}
	for i, k := range kinds {
		if batches[i].Kind != k {
			t.Errorf("batch %d kind = %s, want %s", i, batches[i].Kind, k)
		}
	}
	if batches[2].Range != (gpu.Range{Start: 1, End: 2}) {
		t.Errorf("second line batch = %v", batches[2].Range)
	}
	if batches[3].Range != (gpu.Range{Start: 0, End: 2}) {
		t.Errorf("text batch = %v", batches[3].Range)
	}
}

func TestTextOverflowIsDropped(t *testing.T) {
	p := NewProcessor(nil)
	for i := range MaxSections + 5 {
		p.Add(DrawText{Section: common.Section{Text: fmt.Sprint(i)}})
	}

	batches := p.Batches().Batches()
	if len(batches) != 1 || batches[0].Range != (gpu.Range{Start: 0, End: MaxSections}) {
		t.Fatalf("batches = %v, want one text[0,%d)", batches, MaxSections)
	}
	if p.Sections().Dropped() != 5 {
		t.Errorf("dropped = %d, want 5", p.Sections().Dropped())
	}
	secs := p.Sections().Sections(batches[0].Range)
	if len(secs) != MaxSections || secs[0].Text != "0" || secs[MaxSections-1].Text != fmt.Sprint(MaxSections-1) {
		t.Errorf("unexpected sections kept")
	}

	// a dropped section must not open a batch either
	p.Add(Clear{})
	p.Add(DrawText{Section: common.Section{Text: "late"}})
	if n := p.Batches().Len(); n != 2 {
		t.Errorf("batch count = %d, want 2", n)
	}
}

func TestResetStartsAFreshFrame(t *testing.T) {
	p := NewProcessor(nil)
	p.Add(shape(0))
	p.Add(DrawText{Section: common.Section{Text: "x"}})
	p.Reset()

	if p.Batches().Len() != 0 || p.Store().Count(gpu.PipelineShapes) != 0 || p.Sections().Len() != 0 {
		t.Fatal("Reset left frame state behind")
	}
	p.Add(shape(0))
	if got := p.Batches().Batches()[0].Range; got != (gpu.Range{Start: 0, End: 1}) {
		t.Errorf("first batch after reset = %v", got)
	}
}
