package mixer

import "github.com/Carmen-Shannon/oxy-anim/engine/animation/track"

// ActionBuilderOption is a functional option for configuring an Action.
// Mixer.ClipAction applies the options only when it creates the action; WithBlendMode also selects
// which cached action ClipAction, ExistingAction and UncacheAction refer to.
type ActionBuilderOption func(a *action)

// WithBlendMode overrides the clip's blend mode.
//
// Parameters:
//   - mode: the blend mode
//
// Returns:
//   - ActionBuilderOption: option function to apply
func WithBlendMode(mode track.BlendMode) ActionBuilderOption {
	return func(a *action) {
		a.blendMode = mode
	}
}

// WithLoop sets the loop mode and repetitions. Defaults to LoopRepeat and Infinite.
//
// Parameters:
//   - mode: the loop mode
//   - repetitions: the number of plays
//
// Returns:
//   - ActionBuilderOption: option function to apply
func WithLoop(mode LoopMode, repetitions int) ActionBuilderOption {
	return func(a *action) {
		a.loop = mode
		a.repetitions = repetitions
	}
}

// WithWeight sets the initial weight. Defaults to 1.
//
// Parameters:
//   - weight: the weight
//
// Returns:
//   - ActionBuilderOption: option function to apply
func WithWeight(weight float64) ActionBuilderOption {
	return func(a *action) {
		a.weight = weight
	}
}

// WithTimeScale sets the initial time scale. Defaults to 1.
//
// Parameters:
//   - timeScale: the time scale
//
// Returns:
//   - ActionBuilderOption: option function to apply
func WithTimeScale(timeScale float64) ActionBuilderOption {
	return func(a *action) {
		a.timeScale = timeScale
	}
}

// WithClampWhenFinished makes the action hold its last frame when it finishes.
//
// Parameters:
//   - clamp: true to pause instead of disabling
//
// Returns:
//   - ActionBuilderOption: option function to apply
func WithClampWhenFinished(clamp bool) ActionBuilderOption {
	return func(a *action) {
		a.clampWhenFinished = clamp
	}
}

// WithZeroSlope sets how smooth tracks end when the action does not wrap. Both default to true.
//
// Parameters:
//   - atStart: zero slope at the start, otherwise zero curvature
//   - atEnd: zero slope at the end, otherwise zero curvature
//
// Returns:
//   - ActionBuilderOption: option function to apply
func WithZeroSlope(atStart, atEnd bool) ActionBuilderOption {
	return func(a *action) {
		a.zeroSlopeAtStart = atStart
		a.zeroSlopeAtEnd = atEnd
	}
}
