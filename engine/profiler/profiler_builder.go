package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval is an option builder that sets how often stats are logged.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithStatsSources is an option builder that adds mixer stats to every report.
//
// Parameters:
//   - sources: the mixers, groups or scenes to report on
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the sources option to a profiler
func WithStatsSources(sources ...StatsSource) ProfilerBuilderOption {
	return func(p *Profiler) {
		for _, s := range sources {
			if s != nil {
				p.sources = append(p.sources, s)
			}
		}
	}
}

// WithClock is an option builder that replaces the time source.
//
// Parameters:
//   - now: the function returning the current time
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the clock option to a profiler
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
