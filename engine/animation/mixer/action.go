package mixer

import (
	"math"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/interpolant"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

// LoopMode selects what an action does when its time leaves the clip.
type LoopMode int

const (
	// LoopOnce plays the clip once and finishes at either end.
	LoopOnce LoopMode = iota
	// LoopRepeat wraps around to the other end.
	LoopRepeat
	// LoopPingPong reverses direction at each end.
	LoopPingPong
)

// String returns the loop mode name.
func (l LoopMode) String() string {
	switch l {
	case LoopOnce:
		return "once"
	case LoopRepeat:
		return "repeat"
	case LoopPingPong:
		return "pingpong"
	default:
		return "unknown"
	}
}

// ParseLoopMode maps a loop mode name back to its value.
//
// Parameters:
//   - s: "once", "repeat" or "pingpong"
//
// Returns:
//   - LoopMode: the loop mode
//   - bool: false if s names no loop mode
func ParseLoopMode(s string) (LoopMode, bool) {
	for _, l := range []LoopMode{LoopOnce, LoopRepeat, LoopPingPong} {
		if l.String() == s {
			return l, true
		}
	}
	return LoopOnce, false
}

// Infinite is the repetition count of an action that loops forever.
const Infinite = math.MaxInt

// action is the implementation of the Action interface.
type action struct {
	slot

	mixer     *mixer
	clip      *track.Clip
	root      binding.Root
	blendMode track.BlendMode

	// known is true while the mixer's caches hold the action; knownIndex is its slot in the clip's list.
	known      bool
	knownIndex int
	bound      bool

	settings     interpolant.Settings
	interpolants []interpolant.Interpolant
	mixers       []*propertyMixer

	weightInterpolant    *controlInterpolant
	timeScaleInterpolant *controlInterpolant

	loop        LoopMode
	repetitions int
	loopCount   int
	startTime   float64
	hasStart    bool

	time               float64
	timeScale          float64
	effectiveTimeScale float64
	weight             float64
	effectiveWeight    float64

	paused            bool
	enabled           bool
	clampWhenFinished bool
	zeroSlopeAtStart  bool
	zeroSlopeAtEnd    bool

	events eventBus
}

// Action schedules the playback of one clip on one root.
//
// Actions are created by Mixer.ClipAction and driven by Mixer.Update. All methods must be called from
// the goroutine that updates the owning mixer. Chainable methods return the action itself.
type Action interface {
	// Play schedules the action on its mixer. Property bindings are resolved on the first call.
	//
	// Returns:
	//   - Action: the action
	Play() Action

	// Stop unschedules the action, restores properties no other action animates and resets the action.
	//
	// Returns:
	//   - Action: the action
	Stop() Action

	// Reset rewinds the action, re-enables it, clears a scheduled start and cancels fades and warps.
	//
	// Returns:
	//   - Action: the action
	Reset() Action

	// IsRunning reports whether the action is scheduled, enabled, not paused, started and has a
	// non-zero time scale.
	//
	// Returns:
	//   - bool: true if the action's time advances on the next update
	IsRunning() bool

	// IsScheduled reports whether the action is active in its mixer.
	//
	// Returns:
	//   - bool: true between Play and Stop
	IsScheduled() bool

	// StartAt delays the action until the mixer reaches the given time.
	//
	// Parameters:
	//   - mixerTime: the mixer time at which playback begins
	//
	// Returns:
	//   - Action: the action
	StartAt(mixerTime float64) Action

	// SetLoop sets the loop mode and the number of repetitions.
	//
	// Parameters:
	//   - mode: the loop mode
	//   - repetitions: the number of plays, Infinite to loop forever
	//
	// Returns:
	//   - Action: the action
	SetLoop(mode LoopMode, repetitions int) Action

	// SetEffectiveWeight sets the weight and cancels any fade. A disabled action keeps an effective weight of zero.
	//
	// Parameters:
	//   - weight: the new weight
	//
	// Returns:
	//   - Action: the action
	SetEffectiveWeight(weight float64) Action

	// EffectiveWeight returns the weight used by the last update, including fades.
	//
	// Returns:
	//   - float64: the effective weight
	EffectiveWeight() float64

	// FadeIn ramps the weight from 0 to 1 over duration, starting at the current mixer time.
	//
	// Parameters:
	//   - duration: the fade duration in mixer seconds
	//
	// Returns:
	//   - Action: the action
	FadeIn(duration float64) Action

	// FadeOut ramps the weight from 1 to 0 over duration. The action is disabled when the fade ends.
	//
	// Parameters:
	//   - duration: the fade duration in mixer seconds
	//
	// Returns:
	//   - Action: the action
	FadeOut(duration float64) Action

	// CrossFadeFrom fades other out and this action in over the same duration.
	//
	// Parameters:
	//   - other: the action to fade out
	//   - duration: the fade duration in mixer seconds
	//   - warp: also warp both time scales so the clip durations line up during the fade
	//
	// Returns:
	//   - Action: the action
	CrossFadeFrom(other Action, duration float64, warp bool) Action

	// CrossFadeTo fades this action out and other in over the same duration.
	//
	// Parameters:
	//   - other: the action to fade in
	//   - duration: the fade duration in mixer seconds
	//   - warp: also warp both time scales so the clip durations line up during the fade
	//
	// Returns:
	//   - Action: the other action
	CrossFadeTo(other Action, duration float64, warp bool) Action

	// StopFading cancels a scheduled fade, keeping the current weight.
	//
	// Returns:
	//   - Action: the action
	StopFading() Action

	// SetEffectiveTimeScale sets the time scale and cancels any warp. A paused action keeps an
	// effective time scale of zero.
	//
	// Parameters:
	//   - timeScale: the new time scale
	//
	// Returns:
	//   - Action: the action
	SetEffectiveTimeScale(timeScale float64) Action

	// EffectiveTimeScale returns the time scale used by the last update, including warps.
	//
	// Returns:
	//   - float64: the effective time scale
	EffectiveTimeScale() float64

	// SetDuration sets the time scale so one play of the clip takes duration seconds.
	//
	// Parameters:
	//   - duration: the target duration in mixer seconds
	//
	// Returns:
	//   - Action: the action
	SetDuration(duration float64) Action

	// SyncWith copies the time and time scale of other and cancels any warp.
	//
	// Parameters:
	//   - other: the action to synchronize with
	//
	// Returns:
	//   - Action: the action
	SyncWith(other Action) Action

	// Halt warps the time scale down to zero over duration, pausing the action at the end.
	//
	// Parameters:
	//   - duration: the warp duration in mixer seconds
	//
	// Returns:
	//   - Action: the action
	Halt(duration float64) Action

	// Warp ramps the effective time scale from start to end over duration.
	//
	// Parameters:
	//   - start: the time scale at the current mixer time
	//   - end: the time scale after duration
	//   - duration: the warp duration in mixer seconds
	//
	// Returns:
	//   - Action: the action
	Warp(start, end, duration float64) Action

	// StopWarping cancels a scheduled warp, keeping the current time scale.
	//
	// Returns:
	//   - Action: the action
	StopWarping() Action

	// Mixer returns the mixer that owns the action.
	//
	// Returns:
	//   - Mixer: the owning mixer
	Mixer() Mixer

	// Clip returns the clip the action plays.
	//
	// Returns:
	//   - *track.Clip: the clip
	Clip() *track.Clip

	// Root returns the root the action animates.
	//
	// Returns:
	//   - binding.Root: the root
	Root() binding.Root

	// BlendMode returns how the action combines with other actions.
	//
	// Returns:
	//   - track.BlendMode: the blend mode
	BlendMode() track.BlendMode

	// OnFinished subscribes h to the action's finished events.
	//
	// Parameters:
	//   - h: the handler
	OnFinished(h EventHandler)

	// OnLoop subscribes h to the action's loop events.
	//
	// Parameters:
	//   - h: the handler
	OnLoop(h EventHandler)

	// Time returns the local time in clip seconds.
	//
	// Returns:
	//   - float64: the local time
	Time() float64

	// SetTime moves the local time.
	//
	// Parameters:
	//   - t: the new local time in clip seconds
	//
	// Returns:
	//   - Action: the action
	SetTime(t float64) Action

	// TimeScale returns the time scale, not including warps.
	//
	// Returns:
	//   - float64: the time scale
	TimeScale() float64

	// SetTimeScale sets the time scale without cancelling a warp.
	//
	// Parameters:
	//   - timeScale: the new time scale; negative values play backwards
	//
	// Returns:
	//   - Action: the action
	SetTimeScale(timeScale float64) Action

	// Weight returns the weight, not including fades.
	//
	// Returns:
	//   - float64: the weight
	Weight() float64

	// SetWeight sets the weight without cancelling a fade.
	//
	// Parameters:
	//   - weight: the new weight
	//
	// Returns:
	//   - Action: the action
	SetWeight(weight float64) Action

	// Loop returns the loop mode.
	//
	// Returns:
	//   - LoopMode: the loop mode
	Loop() LoopMode

	// Repetitions returns the number of plays.
	//
	// Returns:
	//   - int: the repetitions, Infinite when looping forever
	Repetitions() int

	// ClampWhenFinished reports whether the action pauses on its last frame instead of disabling itself.
	//
	// Returns:
	//   - bool: the clamp flag
	ClampWhenFinished() bool

	// SetClampWhenFinished sets the clamp flag.
	//
	// Parameters:
	//   - clamp: true to hold the last frame when finished
	//
	// Returns:
	//   - Action: the action
	SetClampWhenFinished(clamp bool) Action

	// ZeroSlopeAtStart reports whether smooth tracks flatten at the start of a non-wrapping play.
	//
	// Returns:
	//   - bool: the flag
	ZeroSlopeAtStart() bool

	// SetZeroSlopeAtStart sets the start flattening flag.
	//
	// Parameters:
	//   - zeroSlope: true for zero slope, false for zero curvature
	//
	// Returns:
	//   - Action: the action
	SetZeroSlopeAtStart(zeroSlope bool) Action

	// ZeroSlopeAtEnd reports whether smooth tracks flatten at the end of a non-wrapping play.
	//
	// Returns:
	//   - bool: the flag
	ZeroSlopeAtEnd() bool

	// SetZeroSlopeAtEnd sets the end flattening flag.
	//
	// Parameters:
	//   - zeroSlope: true for zero slope, false for zero curvature
	//
	// Returns:
	//   - Action: the action
	SetZeroSlopeAtEnd(zeroSlope bool) Action

	// Paused reports whether the action's time is frozen.
	//
	// Returns:
	//   - bool: the paused flag
	Paused() bool

	// SetPaused freezes or resumes the action's time.
	//
	// Parameters:
	//   - paused: true to freeze
	//
	// Returns:
	//   - Action: the action
	SetPaused(paused bool) Action

	// Enabled reports whether the action contributes to the blend.
	//
	// Returns:
	//   - bool: the enabled flag
	Enabled() bool

	// SetEnabled enables or disables the action without unscheduling it.
	//
	// Parameters:
	//   - enabled: false to drop the action's contribution
	//
	// Returns:
	//   - Action: the action
	SetEnabled(enabled bool) Action
}

var _ Action = &action{}

func newAction(m *mixer, clip *track.Clip, root binding.Root, options ...ActionBuilderOption) *action {
	a := &action{
		slot:             slot{index: -1},
		mixer:            m,
		clip:             clip,
		root:             root,
		blendMode:        clip.BlendMode(),
		loop:             LoopRepeat,
		repetitions:      Infinite,
		loopCount:        -1,
		timeScale:        1,
		weight:           1,
		enabled:          true,
		zeroSlopeAtStart: true,
		zeroSlopeAtEnd:   true,
	}
	a.settings = interpolant.Settings{
		EndingStart: interpolant.EndingZeroCurvature,
		EndingEnd:   interpolant.EndingZeroCurvature,
	}
	for _, opt := range options {
		opt(a)
	}
	a.effectiveTimeScale = a.timeScale
	a.effectiveWeight = a.weight
	n := len(clip.Tracks())
	a.interpolants = make([]interpolant.Interpolant, n)
	a.mixers = make([]*propertyMixer, n)
	return a
}

func (a *action) Play() Action {
	a.mixer.activateAction(a)
	return a
}

func (a *action) Stop() Action {
	a.mixer.deactivateAction(a)
	return a.Reset()
}

func (a *action) Reset() Action {
	a.paused = false
	a.enabled = true
	a.time = 0
	a.loopCount = -1
	a.hasStart = false
	a.StopFading()
	return a.StopWarping()
}

func (a *action) IsRunning() bool {
	return a.enabled && !a.paused && a.timeScale != 0 && !a.hasStart && a.mixer.isActiveAction(a)
}

func (a *action) IsScheduled() bool {
	return a.mixer.isActiveAction(a)
}

func (a *action) StartAt(mixerTime float64) Action {
	a.startTime = mixerTime
	a.hasStart = true
	return a
}

func (a *action) SetLoop(mode LoopMode, repetitions int) Action {
	a.loop = mode
	a.repetitions = repetitions
	return a
}

func (a *action) SetEffectiveWeight(weight float64) Action {
	a.weight = weight
	a.effectiveWeight = 0
	if a.enabled {
		a.effectiveWeight = weight
	}
	return a.StopFading()
}

func (a *action) EffectiveWeight() float64 {
	return a.effectiveWeight
}

func (a *action) FadeIn(duration float64) Action {
	return a.scheduleFading(duration, 0, 1)
}

func (a *action) FadeOut(duration float64) Action {
	return a.scheduleFading(duration, 1, 0)
}

func (a *action) CrossFadeFrom(other Action, duration float64, warp bool) Action {
	other.FadeOut(duration)
	a.FadeIn(duration)
	if warp {
		inDuration := a.clip.Duration()
		outDuration := other.Clip().Duration()
		if inDuration > 0 && outDuration > 0 {
			other.Warp(1, outDuration/inDuration, duration)
			a.Warp(inDuration/outDuration, 1, duration)
		}
	}
	return a
}

func (a *action) CrossFadeTo(other Action, duration float64, warp bool) Action {
	return other.CrossFadeFrom(a, duration, warp)
}

func (a *action) StopFading() Action {
	if a.weightInterpolant != nil {
		a.mixer.takeBackControlInterpolant(a.weightInterpolant)
		a.weightInterpolant = nil
	}
	return a
}

func (a *action) SetEffectiveTimeScale(timeScale float64) Action {
	a.timeScale = timeScale
	a.effectiveTimeScale = timeScale
	if a.paused {
		a.effectiveTimeScale = 0
	}
	return a.StopWarping()
}

func (a *action) EffectiveTimeScale() float64 {
	return a.effectiveTimeScale
}

func (a *action) SetDuration(duration float64) Action {
	if duration != 0 {
		a.timeScale = a.clip.Duration() / duration
	}
	return a.StopWarping()
}

func (a *action) SyncWith(other Action) Action {
	a.time = other.Time()
	a.timeScale = other.TimeScale()
	return a.StopWarping()
}

func (a *action) Halt(duration float64) Action {
	return a.Warp(a.effectiveTimeScale, 0, duration)
}

func (a *action) Warp(start, end, duration float64) Action {
	if a.timeScaleInterpolant == nil {
		a.timeScaleInterpolant = a.mixer.lendControlInterpolant()
	}
	scale := a.timeScale
	if scale == 0 {
		scale = 1
	}
	now := a.mixer.time
	times := a.timeScaleInterpolant.Times()
	values := a.timeScaleInterpolant.Values()
	times[0], times[1] = now, now+duration
	values[0], values[1] = start/scale, end/scale
	return a
}

func (a *action) StopWarping() Action {
	if a.timeScaleInterpolant != nil {
		a.mixer.takeBackControlInterpolant(a.timeScaleInterpolant)
		a.timeScaleInterpolant = nil
	}
	return a
}

func (a *action) Mixer() Mixer {
	return a.mixer
}

func (a *action) Clip() *track.Clip {
	return a.clip
}

func (a *action) Root() binding.Root {
	return a.root
}

func (a *action) BlendMode() track.BlendMode {
	return a.blendMode
}

func (a *action) OnFinished(h EventHandler) {
	a.events.subscribe(EventFinished, h)
}

func (a *action) OnLoop(h EventHandler) {
	a.events.subscribe(EventLoop, h)
}

func (a *action) Time() float64 {
	return a.time
}

func (a *action) SetTime(t float64) Action {
	a.time = t
	return a
}

func (a *action) TimeScale() float64 {
	return a.timeScale
}

func (a *action) SetTimeScale(timeScale float64) Action {
	a.timeScale = timeScale
	return a
}

func (a *action) Weight() float64 {
	return a.weight
}

func (a *action) SetWeight(weight float64) Action {
	a.weight = weight
	return a
}

func (a *action) Loop() LoopMode {
	return a.loop
}

func (a *action) Repetitions() int {
	return a.repetitions
}

func (a *action) ClampWhenFinished() bool {
	return a.clampWhenFinished
}

func (a *action) SetClampWhenFinished(clamp bool) Action {
	a.clampWhenFinished = clamp
	return a
}

func (a *action) ZeroSlopeAtStart() bool {
	return a.zeroSlopeAtStart
}

func (a *action) SetZeroSlopeAtStart(zeroSlope bool) Action {
	a.zeroSlopeAtStart = zeroSlope
	return a
}

func (a *action) ZeroSlopeAtEnd() bool {
	return a.zeroSlopeAtEnd
}

func (a *action) SetZeroSlopeAtEnd(zeroSlope bool) Action {
	a.zeroSlopeAtEnd = zeroSlope
	return a
}

func (a *action) Paused() bool {
	return a.paused
}

func (a *action) SetPaused(paused bool) Action {
	a.paused = paused
	return a
}

func (a *action) Enabled() bool {
	return a.enabled
}

func (a *action) SetEnabled(enabled bool) Action {
	a.enabled = enabled
	return a
}

// --- Per-tick update ---

// update advances the action to mixer time and accumulates its sampled values.
func (a *action) update(time, deltaTime float64, direction, accuIndex int) {
	if !a.enabled {
		a.updateWeight(time)
		return
	}

	if a.hasStart {
		running := (time - a.startTime) * float64(direction)
		if running < 0 || direction == 0 {
			deltaTime = 0
		} else {
			a.hasStart = false
			deltaTime = float64(direction) * running
		}
	}

	deltaTime *= a.updateTimeScale(time)
	clipTime := a.updateTime(deltaTime)
	weight := a.updateWeight(time)
	if weight <= 0 {
		return
	}

	if a.blendMode == track.BlendModeAdditive {
		for i, ip := range a.interpolants {
			ip.Evaluate(clipTime)
			a.mixers[i].accumulateAdditive(weight)
		}
		return
	}
	for i, ip := range a.interpolants {
		ip.Evaluate(clipTime)
		a.mixers[i].accumulate(accuIndex, weight)
	}
}

func (a *action) updateWeight(time float64) float64 {
	weight := 0.0
	if a.enabled {
		weight = a.weight
		if ip := a.weightInterpolant; ip != nil {
			v := ip.Evaluate(time)[0]
			weight *= v
			if time >= ip.Times()[1] {
				a.StopFading()
				if v == 0 {
					a.enabled = false
				}
			}
		}
	}
	a.effectiveWeight = weight
	return weight
}

func (a *action) updateTimeScale(time float64) float64 {
	timeScale := 0.0
	if !a.paused {
		timeScale = a.timeScale
		if ip := a.timeScaleInterpolant; ip != nil {
			timeScale *= ip.Evaluate(time)[0]
			if time >= ip.Times()[1] {
				a.StopWarping()
				if timeScale == 0 {
					a.paused = true
				} else {
					a.timeScale = timeScale
				}
			}
		}
	}
	a.effectiveTimeScale = timeScale
	return timeScale
}

// updateTime advances the local time by deltaTime, applying the loop mode, and returns the time to
// sample the clip at.
func (a *action) updateTime(deltaTime float64) float64 {
	duration := a.clip.Duration()
	pingPong := a.loop == LoopPingPong
	time := a.time + deltaTime
	loopCount := a.loopCount

	if deltaTime == 0 {
		if loopCount == -1 {
			return time
		}
		if pingPong && loopCount&1 == 1 {
			return duration - time
		}
		return time
	}

	if a.loop == LoopOnce {
		if loopCount == -1 {
			a.loopCount = 0
			a.setEndings(true, true, false)
		}
		switch {
		case time >= duration:
			time = duration
		case time < 0:
			time = 0
		default:
			a.time = time
			return time
		}
		a.finish(time, deltaTime)
		return time
	}

	if duration <= 0 {
		a.time = 0
		return 0
	}

	if loopCount == -1 {
		if deltaTime >= 0 {
			loopCount = 0
			a.setEndings(true, a.repetitions == 0, pingPong)
		} else {
			a.setEndings(a.repetitions == 0, true, pingPong)
		}
	}

	if time >= duration || time < 0 {
		loopDelta := int(math.Floor(time / duration))
		time -= duration * float64(loopDelta)
		loopCount += abs(loopDelta)

		pending := a.repetitions - loopCount
		if pending <= 0 {
			time = 0
			if deltaTime > 0 {
				time = duration
			}
			a.finish(time, deltaTime)
		} else {
			if pending == 1 {
				atStart := deltaTime < 0
				a.setEndings(atStart, !atStart, pingPong)
			} else {
				a.setEndings(false, false, pingPong)
			}
			a.loopCount = loopCount
			a.time = time
			a.mixer.queueEvent(Event{Type: EventLoop, Action: a, Direction: direction(deltaTime), LoopDelta: loopDelta})
		}
	} else {
		a.time = time
	}

	if pingPong && loopCount&1 == 1 {
		return duration - time
	}
	return time
}

// finish stops the action at time and queues a finished event.
func (a *action) finish(time, deltaTime float64) {
	if a.clampWhenFinished {
		a.paused = true
	} else {
		a.enabled = false
	}
	a.time = time
	a.mixer.queueEvent(Event{Type: EventFinished, Action: a, Direction: direction(deltaTime)})
}

func (a *action) setEndings(atStart, atEnd, pingPong bool) {
	s := &a.settings
	if pingPong {
		s.EndingStart = interpolant.EndingZeroSlope
		s.EndingEnd = interpolant.EndingZeroSlope
		return
	}

	s.EndingStart = interpolant.EndingWrapAround
	if atStart {
		s.EndingStart = interpolant.EndingZeroCurvature
		if a.zeroSlopeAtStart {
			s.EndingStart = interpolant.EndingZeroSlope
		}
	}
	s.EndingEnd = interpolant.EndingWrapAround
	if atEnd {
		s.EndingEnd = interpolant.EndingZeroCurvature
		if a.zeroSlopeAtEnd {
			s.EndingEnd = interpolant.EndingZeroSlope
		}
	}
}

func (a *action) scheduleFading(duration, from, to float64) Action {
	if a.weightInterpolant == nil {
		a.weightInterpolant = a.mixer.lendControlInterpolant()
	}
	now := a.mixer.time
	times := a.weightInterpolant.Times()
	values := a.weightInterpolant.Values()
	times[0], times[1] = now, now+duration
	values[0], values[1] = from, to
	return a
}

func direction(deltaTime float64) int {
	if deltaTime < 0 {
		return -1
	}
	return 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
