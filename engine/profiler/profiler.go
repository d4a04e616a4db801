// Package profiler logs per-second frame rate, memory and batching statistics.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy2d/common"
	"github.com/Carmen-Shannon/oxy2d/engine/renderer/executor"
)

// Profiler tracks frame rate, memory and GPU work statistics for performance monitoring.
// Outputs stats through the shared logger at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	// totals accumulates the executor statistics of every frame in the interval.
	totals executor.FrameStats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Tick should be called once per submitted frame.
// Logs performance statistics when the update interval has elapsed: FPS, heap usage, allocation
// rate, GC count and pause times, and the per-frame averages of batches, uploads and draw calls.
//
// Parameters:
//   - stats: the statistics of the frame just submitted
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats executor.FrameStats) bool {
	return p.tick(time.Now(), stats)
}

func (p *Profiler) tick(now time.Time, stats executor.FrameStats) bool {
	p.frameCount++
	p.totals = accumulate(p.totals, stats)

	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	frames := float64(p.frameCount)
	common.Logger().Info("profiler",
		"fps", fps,
		"heapMB", allocMB,
		"allocRateMBs", allocRateMB,
		"gc", gcCount,
		"lastPauseUs", lastPauseUs,
		"maxPauseUs", maxPauseUs,
		"sysMB", sysMB,
		"batchesPerFrame", float64(p.totals.Batches)/frames,
		"uploadsPerFrame", float64(p.totals.Uploads)/frames,
		"drawsPerFrame", float64(p.totals.DrawCalls)/frames,
		"textureBinds", p.totals.TextureBinds,
		"droppedSections", p.totals.DroppedSections,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.totals = executor.FrameStats{}
	return true
}

// accumulate adds b's counters to a.
func accumulate(a, b executor.FrameStats) executor.FrameStats {
	a.Batches += b.Batches
	a.Uploads += b.Uploads
	a.UploadedInstances += b.UploadedInstances
	a.DrawCalls += b.DrawCalls
	a.TextPasses += b.TextPasses
	a.TextureBinds += b.TextureBinds
	a.DroppedSections += b.DroppedSections
	return a
}
