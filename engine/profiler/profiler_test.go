package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy2d/engine/renderer/executor"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	p := NewProfiler()
	start := p.lastTime
	frame := executor.FrameStats{Batches: 2, Uploads: 1, DrawCalls: 3}

	if p.tick(start.Add(100*time.Millisecond), frame) {
		t.Fatal("logged before the interval elapsed")
	}
	if p.frameCount != 1 || p.totals.DrawCalls != 3 {
		t.Fatalf("frameCount %d totals %+v", p.frameCount, p.totals)
	}
	if p.tick(start.Add(500*time.Millisecond), frame) {
		t.Fatal("logged before the interval elapsed")
	}
	if p.totals.Batches != 4 || p.totals.Uploads != 2 {
		t.Errorf("totals = %+v, want two frames accumulated", p.totals)
	}

	end := start.Add(time.Second)
	if !p.tick(end, frame) {
		t.Fatal("did not log after the interval elapsed")
	}
	if p.frameCount != 0 || p.totals != (executor.FrameStats{}) || !p.lastTime.Equal(end) {
		t.Errorf("state not reset: frames %d totals %+v", p.frameCount, p.totals)
	}
}

func TestAccumulate(t *testing.T) {
	a := executor.FrameStats{Batches: 1, UploadedInstances: 10, TextPasses: 1, DroppedSections: 2}
	b := executor.FrameStats{Batches: 2, UploadedInstances: 5, TextureBinds: 3, DroppedSections: 1}
	got := accumulate(a, b)
	want := executor.FrameStats{Batches: 3, UploadedInstances: 15, TextPasses: 1, TextureBinds: 3, DroppedSections: 3}
	if got != want {
		t.Errorf("accumulate = %+v, want %+v", got, want)
	}
}
