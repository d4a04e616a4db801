package executor

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/instance"
	"github.com/Carmen-Shannon/oxy2d/engine/texture"
)

type upload struct {
	buf   gpu.BufferRef
	first float32 // Position.X / Start.X of the first record written
	count int
}

type recordingDevice struct {
	buffers  map[gpu.BufferRef]uint64
	strides  map[gpu.BufferRef]uint64
	uploads  []upload
	draws    []gpu.DrawCall
	binds    []gpu.TextureRef
	drawErr  error
	bufferID gpu.BufferRef
}

func newRecordingDevice() *recordingDevice {
	return &recordingDevice{
		buffers: make(map[gpu.BufferRef]uint64),
		strides: make(map[gpu.BufferRef]uint64),
	}
}

func (d *recordingDevice) CreateBuffer(label string, size uint64) (gpu.BufferRef, error) {
	d.bufferID++
	d.buffers[d.bufferID] = size
	if d.bufferID == 1 {
		d.strides[d.bufferID] = instance.LineInstanceSize
	} else {
		d.strides[d.bufferID] = instance.ShapeInstanceSize
	}
	return d.bufferID, nil
}

func (d *recordingDevice) WriteBuffer(buf gpu.BufferRef, offset uint64, data []byte) {
	if offset+uint64(len(data)) > d.buffers[buf] {
		panic("write past end of buffer")
	}
	stride := d.strides[buf]
	d.uploads = append(d.uploads, upload{
		buf:   buf,
		first: math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		count: int(uint64(len(data)) / stride),
	})
}

func (d *recordingDevice) BindTextureView(pipeline gpu.PipelineKind, tex gpu.TextureRef) {
	d.binds = append(d.binds, tex)
}

func (d *recordingDevice) SubmitDraw(call gpu.DrawCall) error {
	if d.drawErr != nil {
		return d.drawErr
	}
	d.draws = append(d.draws, call)
	return nil
}

type recordingText struct {
	passes [][]common.Section
	loads  []gpu.LoadOp
}

func (r *recordingText) DrawSections(sections []common.Section, load gpu.LoadOp) error {
	r.passes = append(r.passes, append([]common.Section(nil), sections...))
	r.loads = append(r.loads, load)
	return nil
}

type staticTextures map[texture.BackingID]gpu.TextureRef

func (s staticTextures) ResolveBacking(id texture.BackingID) (gpu.TextureRef, bool) {
	ref, ok := s[id]
	return ref, ok
}

// processor returns a Processor holding n untextured shapes whose X position equals their index.
func processor(n int) *command.Processor {
	p := command.NewProcessor(nil)
	for i := range n {
		s := command.DefaultShape()
		s.Position = common.Point2{X: float32(i)}
		p.Add(s)
	}
	return p
}

func run(t *testing.T, d *recordingDevice, p *command.Processor, textures TextureResolver, options ...ExecutorBuilderOption) FrameStats {
	t.Helper()
	e, err := NewExecutor(d, options...)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	stats, err := e.Execute(p.Batches().Batches(), p.Store(), p.Sections(), textures)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return stats
}

func TestSlidingWindowSplitsOversizedBatch(t *testing.T) {
	d := newRecordingDevice()
	stats := run(t, d, processor(1200), nil, WithCapacity(500))

	wantUploads := []upload{{2, 0, 500}, {2, 500, 500}, {2, 1000, 200}}
	if len(d.uploads) != len(wantUploads) {
		t.Fatalf("uploads = %+v, want %+v", d.uploads, wantUploads)
	}
	for i, want := range wantUploads {
		if d.uploads[i] != want {
			t.Errorf("upload %d = %+v, want %+v", i, d.uploads[i], want)
		}
	}

	if len(d.draws) != 3 {
		t.Fatalf("draws = %d, want 3", len(d.draws))
	}
	for i, call := range d.draws {
		if call.Pipeline != gpu.PipelineShapes || call.Vertices != gpu.QuadVertices {
			t.Errorf("draw %d = %+v", i, call)
		}
		if call.Instances.Start != 0 || int(call.Instances.Len()) != d.uploads[i].count {
			t.Errorf("draw %d instances %v do not match upload of %d", i, call.Instances, d.uploads[i].count)
		}
	}
	if stats.Uploads != 3 || stats.UploadedInstances != 1200 || stats.DrawCalls != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestResidentRangeIsNotReuploaded(t *testing.T) {
	m := texture.NewManager()
	a, _ := m.CreateTexture(make([]byte, 4*4*4), 4, 4)
	b, _ := m.CreateTexture(make([]byte, 4*4*4), 4, 4)

	p := command.NewProcessor(m)
	for _, h := range []texture.Handle{a, a, a, b, b} {
		s := command.DefaultShape()
		s.Texture = h
		p.Add(s)
	}
	if p.Batches().Len() != 2 {
		t.Fatalf("expected two batches, got %v", p.Batches().Batches())
	}

	d := newRecordingDevice()
	stats := run(t, d, p, staticTextures{1: 11, 2: 12})

	if len(d.uploads) != 1 || d.uploads[0].count != 5 {
		t.Fatalf("uploads = %+v, want one upload of 5", d.uploads)
	}
	if len(d.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(d.draws))
	}
	if d.draws[1].Instances != (gpu.Range{Start: 3, End: 5}) {
		t.Errorf("second draw = %v, want [3,5)", d.draws[1].Instances)
	}
	if len(d.binds) != 2 || d.binds[0] != 11 || d.binds[1] != 12 {
		t.Errorf("binds = %v, want [11 12]", d.binds)
	}
	if stats.Uploads != 1 || stats.TextureBinds != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWindowDrawsAreBufferRelative(t *testing.T) {
	// shapes [0,3) then lines then shapes [3,8): with capacity 4 the second shapes batch needs
	// windows [3,7) and [7,8)
	p := processor(3)
	p.Add(command.DrawLine{Width: 1})
	for i := 3; i < 8; i++ {
		s := command.DefaultShape()
		s.Position = common.Point2{X: float32(i)}
		p.Add(s)
	}

	d := newRecordingDevice()
	run(t, d, p, nil, WithCapacity(4))

	var shapeUploads []upload
	for _, u := range d.uploads {
		if u.buf == 2 {
			shapeUploads = append(shapeUploads, u)
		}
	}
	want := []upload{{2, 0, 4}, {2, 3, 4}, {2, 7, 1}}
	if len(shapeUploads) != len(want) {
		t.Fatalf("shape uploads = %+v, want %+v", shapeUploads, want)
	}
	for i := range want {
		if shapeUploads[i] != want[i] {
			t.Errorf("shape upload %d = %+v, want %+v", i, shapeUploads[i], want[i])
		}
	}

	wantDraws := []struct {
		pipeline gpu.PipelineKind
		r        gpu.Range
	}{
		{gpu.PipelineShapes, gpu.Range{Start: 0, End: 3}},
		{gpu.PipelineLines, gpu.Range{Start: 0, End: 1}},
		{gpu.PipelineShapes, gpu.Range{Start: 0, End: 4}},
		{gpu.PipelineShapes, gpu.Range{Start: 0, End: 1}},
	}
	if len(d.draws) != len(wantDraws) {
		t.Fatalf("draws = %+v", d.draws)
	}
	for i, w := range wantDraws {
		if d.draws[i].Pipeline != w.pipeline || d.draws[i].Instances != w.r {
			t.Errorf("draw %d = %s%v, want %s%v", i, d.draws[i].Pipeline, d.draws[i].Instances, w.pipeline, w.r)
		}
	}
}

func TestClearBecomesLoadOpOfNextPass(t *testing.T) {
	p := command.NewProcessor(nil)
	p.Add(command.Clear{Colour: common.Black})
	p.Add(command.Clear{Colour: common.White})
	for range 3 {
		p.Add(command.DrawLine{Width: 1})
	}

	d := newRecordingDevice()
	run(t, d, p, nil, WithCapacity(2))

	if len(d.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(d.draws))
	}
	if !d.draws[0].Load.Clear || d.draws[0].Load.Colour != common.White {
		t.Errorf("first pass load = %+v, want clear to white", d.draws[0].Load)
	}
	if d.draws[1].Load.Clear {
		t.Error("second chunk must load, not clear")
	}
}

func TestTrailingClearIsFlushed(t *testing.T) {
	p := processor(2)
	p.Add(command.Clear{Colour: common.Black})

	d := newRecordingDevice()
	stats := run(t, d, p, nil)

	if len(d.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(d.draws))
	}
	flush := d.draws[1]
	if !flush.Load.Clear || !flush.Instances.Empty() {
		t.Errorf("flush pass = %+v, want an empty clearing pass", flush)
	}
	if stats.DrawCalls != 2 {
		t.Errorf("DrawCalls = %d", stats.DrawCalls)
	}
}

func TestResidencyResetsEachExecute(t *testing.T) {
	p := processor(10)
	d := newRecordingDevice()
	e, err := NewExecutor(d)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := e.Execute(p.Batches().Batches(), p.Store(), p.Sections(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if len(d.uploads) != 2 {
		t.Errorf("uploads = %d, want one per frame", len(d.uploads))
	}
}

func TestBoundTextureIsMemoised(t *testing.T) {
	m := texture.NewManager()
	a, _ := m.CreateTexture(make([]byte, 4), 1, 1)
	p := command.NewProcessor(m)
	s := command.DefaultShape()
	s.Texture = a
	p.Add(s)

	d := newRecordingDevice()
	e, err := NewExecutor(d)
	if err != nil {
		t.Fatal(err)
	}
	textures := staticTextures{1: 7}
	exec := func() {
		if _, err := e.Execute(p.Batches().Batches(), p.Store(), p.Sections(), textures); err != nil {
			t.Fatal(err)
		}
	}
	exec()
	exec()
	if len(d.binds) != 1 {
		t.Errorf("binds = %v, want a single bind across frames", d.binds)
	}
	e.InvalidateBoundTexture()
	exec()
	if len(d.binds) != 2 {
		t.Errorf("binds = %v, want a rebind after invalidation", d.binds)
	}
}

// countingUploader hands out texture refs in order.
type countingUploader struct{ next gpu.TextureRef }

func (u *countingUploader) UploadTexture([]byte, uint32, uint32) (gpu.TextureRef, error) {
	u.next++
	return u.next, nil
}

func (u *countingUploader) ReleaseTexture(gpu.TextureRef) {}

func TestReleasedTextureDrawsUntextured(t *testing.T) {
	m := texture.NewManager()
	a, _ := m.CreateTexture(make([]byte, 8*8*4), 8, 8)
	b, _ := m.CreateTexture(make([]byte, 8*8*4), 8, 8)
	if err := m.Prepare(&countingUploader{}); err != nil {
		t.Fatal(err)
	}
	m.Release(b, nil)

	p := command.NewProcessor(m)
	for _, h := range []texture.Handle{a, b} {
		s := command.DefaultShape()
		s.Texture = h
		p.Add(s)
	}

	batches := p.Batches().Batches()
	if len(batches) != 1 || batches[0].Range != (gpu.Range{Start: 0, End: 2}) || batches[0].Texture != 1 {
		t.Fatalf("batches = %v, want one shapes[0,2) batch on backing 1", batches)
	}
	if uv := p.Store().Shape(1).UV; uv != [4]float32{} {
		t.Errorf("released texture instance UV = %v, want zero", uv)
	}

	d := newRecordingDevice()
	run(t, d, p, m)
	if len(d.binds) != 1 || d.binds[0] != 1 || len(d.draws) != 1 {
		t.Errorf("binds %v draws %d, want texture 1 bound for one draw", d.binds, len(d.draws))
	}
}

func TestUnresolvedTextureBatchDrawsUntextured(t *testing.T) {
	m := texture.NewManager()
	a, _ := m.CreateTexture(make([]byte, 8*8*4), 8, 8)
	b, _ := m.CreateTexture(make([]byte, 8*8*4), 8, 8)

	p := command.NewProcessor(m)
	for i, h := range []texture.Handle{a, b} {
		s := command.DefaultShape()
		s.Position = common.Point2{X: float32(i)}
		s.Texture = h
		p.Add(s)
	}
	if n := p.Batches().Len(); n != 2 {
		t.Fatalf("got %d batches, want 2", n)
	}
	if uv := p.Store().Shape(1).UV; uv == [4]float32{} {
		t.Fatal("textured instance should carry its UV before execution")
	}

	// only backing 1 is resident
	d := newRecordingDevice()
	run(t, d, p, staticTextures{1: 7})

	if len(d.binds) != 1 || d.binds[0] != 7 {
		t.Errorf("binds = %v, want only the resident texture", d.binds)
	}
	if uv := p.Store().Shape(1).UV; uv != [4]float32{} {
		t.Errorf("unresolved instance UV = %v, want zero", uv)
	}
	// the first window already held instance 1 with its old UV, so it is uploaded again
	wantUploads := []upload{{2, 0, 2}, {2, 1, 1}}
	if len(d.uploads) != len(wantUploads) {
		t.Fatalf("uploads = %+v, want %+v", d.uploads, wantUploads)
	}
	for i, want := range wantUploads {
		if d.uploads[i] != want {
			t.Errorf("upload %d = %+v, want %+v", i, d.uploads[i], want)
		}
	}
	if len(d.draws) != 2 {
		t.Errorf("draws = %d, want 2", len(d.draws))
	}
}

func TestTextBatchesUseTextDrawer(t *testing.T) {
	p := command.NewProcessor(nil)
	p.Add(command.Clear{Colour: common.Black})
	p.Add(command.DrawText{Section: common.Section{Text: "a"}})
	p.Add(command.DrawText{Section: common.Section{Text: "b"}})
	p.Add(command.DrawLine{Width: 1})

	d := newRecordingDevice()
	text := &recordingText{}
	stats := run(t, d, p, nil, WithTextDrawer(text))

	if len(text.passes) != 1 || len(text.passes[0]) != 2 || text.passes[0][1].Text != "b" {
		t.Fatalf("text passes = %+v", text.passes)
	}
	if !text.loads[0].Clear {
		t.Error("text pass should consume the pending clear")
	}
	if len(d.draws) != 1 || d.draws[0].Load.Clear {
		t.Errorf("line pass after text should load: %+v", d.draws)
	}
	if stats.TextPasses != 1 {
		t.Errorf("TextPasses = %d", stats.TextPasses)
	}
}

func TestExecutorErrors(t *testing.T) {
	if _, err := NewExecutor(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewExecutor(nil) error = %v, want ErrNoDevice", err)
	}

	d := newRecordingDevice()
	d.drawErr = gpu.ErrFrameNotAcquired
	e, err := NewExecutor(d)
	if err != nil {
		t.Fatal(err)
	}
	p := processor(1)
	if _, err := e.Execute(p.Batches().Batches(), p.Store(), p.Sections(), nil); !errors.Is(err, gpu.ErrFrameNotAcquired) {
		t.Errorf("Execute error = %v, want ErrFrameNotAcquired", err)
	}

	bogus := []command.Batch{{Kind: command.BatchShapes, Range: gpu.Range{Start: 0, End: 5}}}
	d.drawErr = nil
	if _, err := e.Execute(bogus, p.Store(), p.Sections(), nil); err == nil {
		t.Error("batch past the instance count should fail")
	}
}

func TestNextWindow(t *testing.T) {
	tests := []struct {
		start, total, capacity uint32
		want                   gpu.Range
	}{
		{0, 1200, 500, gpu.Range{Start: 0, End: 500}},
		{1000, 1200, 500, gpu.Range{Start: 1000, End: 1200}},
		{3, 5, 500, gpu.Range{Start: 3, End: 5}},
		{0, 500, 500, gpu.Range{Start: 0, End: 500}},
	}
	for _, tt := range tests {
		if got := nextWindow(tt.start, tt.total, tt.capacity); got != tt.want {
			t.Errorf("nextWindow(%d,%d,%d) = %v, want %v", tt.start, tt.total, tt.capacity, got, tt.want)
		}
	}
}
