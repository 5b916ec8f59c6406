package track

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// BlendMode selects how an action's samples are combined with the others on the same property.
type BlendMode int

const (
	// BlendModeNormal averages the contribution into the weighted blend.
	BlendModeNormal BlendMode = iota
	// BlendModeAdditive layers the contribution on top of the normal blend result.
	BlendModeAdditive
)

func (b BlendMode) String() string {
	if b == BlendModeAdditive {
		return "additive"
	}
	return "normal"
}

var nextClipID atomic.Uint64

// Clip is a named bundle of tracks forming one reusable animation. Clips are immutable and may be shared
// by any number of actions and mixers. Methods that transform a clip return a new clip with a new ID.
type Clip struct {
	id        uint64
	name      string
	duration  float64
	tracks    []*Track
	blendMode BlendMode
}

// NewClip creates a new Clip. A negative duration is derived from the last key time of all tracks.
// Nil tracks are dropped.
//
// Parameters:
//   - name: the clip name
//   - duration: the clip duration in seconds, or a negative value to derive it
//   - tracks: the tracks of the clip
//   - options: variadic list of ClipBuilderOption functions
//
// Returns:
//   - *Clip: the new clip
func NewClip(name string, duration float64, tracks []*Track, options ...ClipBuilderOption) *Clip {
	c := &Clip{
		id:       nextClipID.Add(1),
		name:     name,
		duration: duration,
		tracks:   slices.DeleteFunc(slices.Clone(tracks), func(t *Track) bool { return t == nil }),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.duration < 0 {
		c.duration = derivedDuration(c.tracks)
	}
	return c
}

func derivedDuration(tracks []*Track) float64 {
	d := 0.0
	for _, t := range tracks {
		d = max(d, t.End())
	}
	return d
}

// ID returns the process-unique identifier of the clip, used as a cache key by mixers.
func (c *Clip) ID() uint64 { return c.id }

// Name returns the clip name.
func (c *Clip) Name() string { return c.name }

// Duration returns the clip duration in seconds.
func (c *Clip) Duration() float64 { return c.duration }

// Tracks returns the tracks of the clip. The slice must not be modified.
func (c *Clip) Tracks() []*Track { return c.tracks }

// BlendMode returns the default blend mode for actions created from this clip.
func (c *Clip) BlendMode() BlendMode { return c.blendMode }

// FindTrack returns the track with the given name.
//
// Parameters:
//   - name: the track name
//
// Returns:
//   - *Track: the track, or nil if the clip has none with that name
func (c *Clip) FindTrack(name string) *Track {
	for _, t := range c.tracks {
		if t.name == name {
			return t
		}
	}
	return nil
}

// Validate checks every track of the clip.
//
// Returns:
//   - error: the first track error, wrapping ErrInvalidTrack
func (c *Clip) Validate() error {
	for _, t := range c.tracks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("clip %q: %w", c.name, err)
		}
	}
	return nil
}

// derive creates a new clip sharing the name and blend mode of c.
func (c *Clip) derive(name string, duration float64, tracks []*Track) *Clip {
	return NewClip(common.Coalesce(name, c.name), duration, tracks, WithBlendMode(c.blendMode))
}

// ResetDuration returns a copy of the clip whose duration is the last key time of its tracks.
//
// Returns:
//   - *Clip: the new clip
func (c *Clip) ResetDuration() *Clip {
	return c.derive("", -1, c.tracks)
}

// Trim returns a copy of the clip whose tracks only hold keys within [0, Duration].
//
// Returns:
//   - *Clip: the trimmed clip
func (c *Clip) Trim() *Clip {
	tracks := make([]*Track, len(c.tracks))
	for i, t := range c.tracks {
		tracks[i] = t.Trim(0, c.duration)
	}
	return c.derive("", c.duration, tracks)
}

// Optimize returns a copy of the clip with redundant keys removed from every track.
//
// Returns:
//   - *Clip: the optimized clip
func (c *Clip) Optimize() *Clip {
	tracks := make([]*Track, len(c.tracks))
	for i, t := range c.tracks {
		tracks[i] = t.Optimize()
	}
	return c.derive("", c.duration, tracks)
}

// SubClip cuts the frames [startFrame, endFrame) out of the clip and shifts them to start at zero.
// Tracks with no key in the range are dropped.
//
// Parameters:
//   - name: name of the new clip
//   - startFrame: first frame to keep
//   - endFrame: first frame to drop
//   - fps: frames per second used to convert key times to frames
//
// Returns:
//   - *Clip: the new clip
//   - error: an error wrapping ErrInvalidTrack if fps is not positive or the range holds no keys
func (c *Clip) SubClip(name string, startFrame, endFrame, fps float64) (*Clip, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("subclip %q of %q: fps must be positive: %w", name, c.name, ErrInvalidTrack)
	}

	tracks := make([]*Track, 0, len(c.tracks))
	minStart := math.Inf(1)
	for _, t := range c.tracks {
		var keys []int
		for k, tm := range t.times {
			frame := tm * fps
			if frame < startFrame || frame >= endFrame {
				continue
			}
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			continue
		}
		sub := t.selectKeys(keys)
		minStart = min(minStart, sub.times[0])
		tracks = append(tracks, sub)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("subclip %q of %q: no keys in frames [%g, %g): %w", name, c.name, startFrame, endFrame, ErrInvalidTrack)
	}

	for i, t := range tracks {
		tracks[i] = t.Shift(-minStart)
	}
	return c.derive(name, -1, tracks), nil
}

// MakeAdditive converts the clip into an additive clip relative to the pose of reference at
// referenceFrame. Numeric tracks have the reference value subtracted; quaternion tracks are premultiplied
// by the inverse reference rotation. Tracks without a same-named, same-typed reference track are copied.
//
// Parameters:
//   - referenceFrame: frame of the reference pose
//   - reference: clip holding the reference pose, nil to use c itself
//   - fps: frames per second used to convert referenceFrame to a time
//
// Returns:
//   - *Clip: a new clip with BlendModeAdditive
func (c *Clip) MakeAdditive(referenceFrame float64, reference *Clip, fps float64) *Clip {
	if reference == nil {
		reference = c
	}
	if fps <= 0 {
		fps = 30
	}
	refTime := referenceFrame / fps

	tracks := slices.Clone(c.tracks)
	for _, ref := range reference.tracks {
		if ref.valueType.Selects() {
			continue
		}
		idx := slices.IndexFunc(tracks, func(t *Track) bool {
			return t.name == ref.name && t.valueType == ref.valueType
		})
		if idx < 0 {
			continue
		}
		target := tracks[idx]
		refValue := ref.sampleAt(refTime)
		if len(refValue) != target.valueSize {
			continue
		}

		values := slices.Clone(target.values)
		stride := target.stride()
		valueOffset := 0
		if target.interpolation == InterpolationCubicSpline {
			valueOffset = target.valueSize
		}

		if target.valueType == ValueTypeQuaternion {
			common.NormalizeQuatFlat(refValue, 0)
			common.PutQuat(refValue, 0, common.QuatAt(refValue, 0).Conjugate())
			for k := range target.times {
				start := k*stride + valueOffset
				common.MultiplyQuatFlat(values, start, refValue, 0, values, start)
			}
		} else {
			for k := range target.times {
				start := k*stride + valueOffset
				for j := 0; j < target.valueSize; j++ {
					values[start+j] -= refValue[j]
				}
			}
		}
		tracks[idx] = target.withValues(values)
	}

	return NewClip(c.name, c.duration, tracks, WithBlendMode(BlendModeAdditive))
}
