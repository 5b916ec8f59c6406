package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"
)

// StatsSource reports mixer pool sizes. mixer.Mixer, mixer.Group and scene.Scene satisfy it.
type StatsSource interface {
	Stats() mixer.Stats
}

// Report holds the statistics of one profiler interval.
type Report struct {
	Frames      int
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	Mixers      mixer.Stats
}

// Profiler tracks frame rate, memory and mixer statistics for performance monitoring.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now     func() time.Time
	sources []StatsSource
	last    Report
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory and the
// summed pool sizes of every stats source.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		Frames: p.frameCount,
		FPS:    float64(p.frameCount) / elapsed.Seconds(),
		// Alloc is live heap, Sys is the process footprint.
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}
	r.LastPauseUs, r.MaxPauseUs = gcPauses(&p.memStats, p.lastGCCount)
	for _, s := range p.sources {
		r.Mixers = r.Mixers.Add(s.Stats())
	}

	common.Logger().Info().
		Float64("fps", r.FPS).
		Float64("heapMB", r.HeapMB).
		Float64("allocRateMBps", r.AllocRateMB).
		Uint32("gc", r.GCCount).
		Uint64("gcLastPauseUs", r.LastPauseUs).
		Uint64("gcMaxPauseUs", r.MaxPauseUs).
		Float64("sysMB", r.SysMB).
		Int("actions", r.Mixers.Actions.InUse).
		Int("actionsTotal", r.Mixers.Actions.Total).
		Int("bindings", r.Mixers.Bindings.InUse).
		Int("bindingsTotal", r.Mixers.Bindings.Total).
		Int("controls", r.Mixers.ControlInterpolants.InUse).
		Msg("profiler")

	p.last = r
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the report of the most recent interval.
//
// Returns:
//   - Report: the last report, zero before the first interval elapsed
func (p *Profiler) Last() Report {
	return p.last
}

// gcPauses returns the last GC pause and the longest pause since the previous report, in µs.
func gcPauses(ms *runtime.MemStats, since uint32) (last, longest uint64) {
	gcCount := ms.NumGC
	if gcCount == 0 {
		return 0, 0
	}
	// PauseNs is a circular buffer of the last 256 pauses.
	last = ms.PauseNs[(gcCount-1)%256] / 1000
	start := since
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		longest = max(longest, ms.PauseNs[i%256]/1000)
	}
	return last, longest
}
