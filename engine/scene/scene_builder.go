package scene

import "github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is updated.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRoots registers initial roots, each with its own mixer.
//
// Parameters:
//   - roots: the roots to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRoots(roots ...Node) SceneBuilderOption {
	return func(s *scene) {
		s.pending = append(s.pending, roots...)
	}
}

// WithWorkers sets the number of worker goroutines used to update mixers in parallel.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}

// WithMixerOptions sets options applied to every mixer the scene creates, e.g. a shared meter.
//
// Parameters:
//   - options: the mixer options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMixerOptions(options ...mixer.MixerBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.mixerOptions = append(s.mixerOptions, options...)
	}
}
