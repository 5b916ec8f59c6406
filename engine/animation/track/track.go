package track

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/interpolant"
)

// ValueType identifies what a track's samples represent. It decides how samples are blended.
type ValueType int

const (
	// ValueTypeNumber is a scalar property.
	ValueTypeNumber ValueType = iota
	// ValueTypeVector is a fixed-size vector property blended per component.
	ValueTypeVector
	// ValueTypeQuaternion is a rotation stored as (x, y, z, w), blended with slerp.
	ValueTypeQuaternion
	// ValueTypeColor is a color blended per component.
	ValueTypeColor
	// ValueTypeBool is a boolean carried as 0 or 1, never interpolated.
	ValueTypeBool
	// ValueTypeString is a string carried as a label index, never interpolated.
	ValueTypeString
)

var valueTypeNames = [...]string{"number", "vector", "quaternion", "color", "bool", "string"}

func (v ValueType) String() string {
	if v < 0 || int(v) >= len(valueTypeNames) {
		return fmt.Sprintf("ValueType(%d)", int(v))
	}
	return valueTypeNames[v]
}

// Selects reports whether values of this type are picked rather than interpolated.
func (v ValueType) Selects() bool {
	return v == ValueTypeBool || v == ValueTypeString
}

// Interpolation is the interpolation mode stored on a track.
type Interpolation int

const (
	// InterpolationLinear is the default: per-component lerp, slerp for quaternions.
	InterpolationLinear Interpolation = iota
	// InterpolationDiscrete holds the left key until the next one.
	InterpolationDiscrete
	// InterpolationSmooth is a cubic through the keys with configurable endings.
	InterpolationSmooth
	// InterpolationCubicSpline is Hermite interpolation over (inTangent, value, outTangent) keys.
	InterpolationCubicSpline
)

var interpolationNames = [...]string{"linear", "discrete", "smooth", "cubicspline"}

func (i Interpolation) String() string {
	if i < 0 || int(i) >= len(interpolationNames) {
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
	return interpolationNames[i]
}

// ParseInterpolation converts the textual name produced by Interpolation.String back into an Interpolation.
//
// Parameters:
//   - s: the interpolation name
//
// Returns:
//   - Interpolation: the matching mode
//   - bool: false if s names no interpolation mode
func ParseInterpolation(s string) (Interpolation, bool) {
	i := slices.Index(interpolationNames[:], s)
	return Interpolation(max(i, 0)), i >= 0
}

// ParseValueType converts the textual name produced by ValueType.String back into a ValueType.
//
// Parameters:
//   - s: the value type name
//
// Returns:
//   - ValueType: the matching type
//   - bool: false if s names no value type
func ParseValueType(s string) (ValueType, bool) {
	i := slices.Index(valueTypeNames[:], s)
	return ValueType(max(i, 0)), i >= 0
}

// Interner maps strings to stable integer labels. String tracks are evaluated as label indices.
type Interner interface {
	Intern(s string) int
}

// Track is the time-sampled data for one animated property. A Track is immutable after construction;
// the slices returned by its accessors must not be modified.
type Track struct {
	name          string
	path          PropertyPath
	valueType     ValueType
	interpolation Interpolation
	times         []float64
	values        []float64
	strings       []string
	valueSize     int
}

// New creates a numeric track and validates its keys.
// For InterpolationCubicSpline each key holds three values of valueSize: in tangent, value, out tangent.
//
// Parameters:
//   - name: the track name, parsed into a PropertyPath
//   - valueType: the value type; Bool and String tracks are always discrete
//   - times: key times in seconds, non-decreasing and finite
//   - values: flat key values, valueSize per key (three times that for cubic splines)
//   - interpolation: the interpolation mode
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func New(name string, valueType ValueType, times, values []float64, interpolation Interpolation) (*Track, error) {
	path, err := ParsePath(name)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", name, err)
	}
	if valueType.Selects() {
		interpolation = InterpolationDiscrete
	}

	t := &Track{
		name:          name,
		path:          path,
		valueType:     valueType,
		interpolation: interpolation,
		times:         slices.Clone(times),
		values:        slices.Clone(values),
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewNumberTrack creates a scalar track.
//
// Parameters:
//   - name: the track name
//   - times: key times in seconds
//   - values: one value per key
//   - interpolation: the interpolation mode
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func NewNumberTrack(name string, times, values []float64, interpolation Interpolation) (*Track, error) {
	return New(name, ValueTypeNumber, times, values, interpolation)
}

// NewVectorTrack creates a vector track. The vector size is inferred from the number of values per key.
//
// Parameters:
//   - name: the track name
//   - times: key times in seconds
//   - values: flat vector components
//   - interpolation: the interpolation mode
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func NewVectorTrack(name string, times, values []float64, interpolation Interpolation) (*Track, error) {
	return New(name, ValueTypeVector, times, values, interpolation)
}

// NewQuaternionTrack creates a rotation track with (x, y, z, w) keys.
//
// Parameters:
//   - name: the track name
//   - times: key times in seconds
//   - values: four components per key
//   - interpolation: the interpolation mode; Linear slerps between keys
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func NewQuaternionTrack(name string, times, values []float64, interpolation Interpolation) (*Track, error) {
	return New(name, ValueTypeQuaternion, times, values, interpolation)
}

// NewColorTrack creates a color track.
//
// Parameters:
//   - name: the track name
//   - times: key times in seconds
//   - values: color components per key
//   - interpolation: the interpolation mode
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func NewColorTrack(name string, times, values []float64, interpolation Interpolation) (*Track, error) {
	return New(name, ValueTypeColor, times, values, interpolation)
}

// NewBoolTrack creates a discrete boolean track.
//
// Parameters:
//   - name: the track name
//   - times: key times in seconds
//   - values: one boolean per key
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func NewBoolTrack(name string, times []float64, values []bool) (*Track, error) {
	flat := make([]float64, len(values))
	for i, v := range values {
		if v {
			flat[i] = 1
		}
	}
	return New(name, ValueTypeBool, times, flat, InterpolationDiscrete)
}

// NewStringTrack creates a discrete string track.
//
// Parameters:
//   - name: the track name
//   - times: key times in seconds
//   - values: one string per key
//
// Returns:
//   - *Track: the new track
//   - error: an error wrapping ErrInvalidTrack or ErrInvalidPath if the data is malformed
func NewStringTrack(name string, times []float64, values []string) (*Track, error) {
	path, err := ParsePath(name)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", name, err)
	}
	t := &Track{
		name:          name,
		path:          path,
		valueType:     ValueTypeString,
		interpolation: InterpolationDiscrete,
		times:         slices.Clone(times),
		strings:       slices.Clone(values),
		values:        make([]float64, len(values)),
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

// init derives the value size and validates the keys.
func (t *Track) init() error {
	n := len(t.times)
	if n == 0 {
		return fmt.Errorf("track %q has no keys: %w", t.name, ErrInvalidTrack)
	}
	if t.valueType == ValueTypeString && len(t.strings) != n {
		return fmt.Errorf("track %q has %d strings for %d keys: %w", t.name, len(t.strings), n, ErrInvalidTrack)
	}

	perKey := n
	if t.interpolation == InterpolationCubicSpline {
		perKey = n * 3
	}
	if len(t.values) == 0 || len(t.values)%perKey != 0 {
		return fmt.Errorf("track %q has %d values for %d keys: %w", t.name, len(t.values), n, ErrInvalidTrack)
	}
	t.valueSize = len(t.values) / perKey

	switch t.valueType {
	case ValueTypeQuaternion:
		if t.valueSize != 4 {
			return fmt.Errorf("track %q: quaternion keys need 4 values, got %d: %w", t.name, t.valueSize, ErrInvalidTrack)
		}
	case ValueTypeNumber, ValueTypeBool, ValueTypeString:
		if t.valueSize != 1 {
			return fmt.Errorf("track %q: %s keys need 1 value, got %d: %w", t.name, t.valueType, t.valueSize, ErrInvalidTrack)
		}
	}

	return t.Validate()
}

// Validate checks that key times are finite and non-decreasing and that every value is finite.
// Tracks returned by the constructors are always valid.
//
// Returns:
//   - error: an error wrapping ErrInvalidTrack describing the first problem found
func (t *Track) Validate() error {
	prev := 0.0
	for i, tm := range t.times {
		if !common.Finite(tm) {
			return fmt.Errorf("track %q: time %d is not finite: %w", t.name, i, ErrInvalidTrack)
		}
		if i > 0 && tm < prev {
			return fmt.Errorf("track %q: time %d (%g) is before time %d (%g): %w", t.name, i, tm, i-1, prev, ErrInvalidTrack)
		}
		prev = tm
	}
	for i, v := range t.values {
		if !common.Finite(v) {
			return fmt.Errorf("track %q: value %d is not finite: %w", t.name, i, ErrInvalidTrack)
		}
	}
	return nil
}

// Name returns the textual track name.
func (t *Track) Name() string { return t.name }

// Path returns the parsed track name.
func (t *Track) Path() PropertyPath { return t.path }

// ValueType returns the kind of value the track animates.
func (t *Track) ValueType() ValueType { return t.valueType }

// Interpolation returns the interpolation mode.
func (t *Track) Interpolation() Interpolation { return t.interpolation }

// Times returns the key times. The slice must not be modified.
func (t *Track) Times() []float64 { return t.times }

// Values returns the flat key values. For string tracks the values are zero; use Strings.
func (t *Track) Values() []float64 { return t.values }

// Strings returns the keys of a string track, nil for other types.
func (t *Track) Strings() []string { return t.strings }

// ValueSize returns the number of components of one sampled value.
func (t *Track) ValueSize() int { return t.valueSize }

// KeyCount returns the number of keys.
func (t *Track) KeyCount() int { return len(t.times) }

// Start returns the time of the first key.
func (t *Track) Start() float64 { return t.times[0] }

// End returns the time of the last key.
func (t *Track) End() float64 { return t.times[len(t.times)-1] }

// stride is the number of values stored per key.
func (t *Track) stride() int {
	return len(t.values) / len(t.times)
}

// NewInterpolant creates an evaluator for this track. Every caller gets its own interpolant since the
// search cursor is mutable.
//
// Parameters:
//   - settings: ending settings shared with the owning action, nil for the defaults
//   - labels: interns string keys; only used by string tracks and may be nil otherwise
//   - options: extra interpolant options, e.g. interpolant.WithResultBuffer
//
// Returns:
//   - interpolant.Interpolant: the new interpolant
func (t *Track) NewInterpolant(settings *interpolant.Settings, labels Interner, options ...interpolant.InterpolantBuilderOption) interpolant.Interpolant {
	values := t.values
	if t.valueType == ValueTypeString && labels != nil {
		values = make([]float64, len(t.strings))
		for i, s := range t.strings {
			values[i] = float64(labels.Intern(s))
		}
	}

	var kind interpolant.Kind
	switch t.interpolation {
	case InterpolationDiscrete:
		kind = interpolant.KindDiscrete
	case InterpolationSmooth:
		kind = interpolant.KindSmooth
		if t.valueType == ValueTypeQuaternion {
			kind = interpolant.KindQuaternionLinear
		}
	case InterpolationCubicSpline:
		kind = interpolant.KindCubicSpline
	default:
		kind = interpolant.KindLinear
		if t.valueType == ValueTypeQuaternion {
			kind = interpolant.KindQuaternionLinear
		}
	}

	opts := append([]interpolant.InterpolantBuilderOption{
		interpolant.WithSettings(settings),
		interpolant.WithNormalize(t.valueType == ValueTypeQuaternion),
	}, options...)
	return interpolant.New(kind, t.times, values, t.valueSize, opts...)
}

// --- Derived tracks ---

// clone copies t with fresh key slices.
func (t *Track) clone() *Track {
	c := *t
	c.times = slices.Clone(t.times)
	c.values = slices.Clone(t.values)
	c.strings = slices.Clone(t.strings)
	return &c
}

// selectKeys returns a copy of t holding only the keys at the given indices, in order.
func (t *Track) selectKeys(keys []int) *Track {
	stride := t.stride()
	c := *t
	c.times = make([]float64, 0, len(keys))
	c.values = make([]float64, 0, len(keys)*stride)
	if t.strings != nil {
		c.strings = make([]string, 0, len(keys))
	}
	for _, k := range keys {
		c.times = append(c.times, t.times[k])
		c.values = append(c.values, t.values[k*stride:(k+1)*stride]...)
		if t.strings != nil {
			c.strings = append(c.strings, t.strings[k])
		}
	}
	return &c
}

// Shift returns a copy of the track with every key moved by offset seconds.
//
// Parameters:
//   - offset: seconds to add to every key time
//
// Returns:
//   - *Track: the shifted track
func (t *Track) Shift(offset float64) *Track {
	c := t.clone()
	if offset != 0 {
		for i := range c.times {
			c.times[i] += offset
		}
	}
	return c
}

// Scale returns a copy of the track with every key time multiplied by factor.
//
// Parameters:
//   - factor: the time scale factor, must be positive to keep times ordered
//
// Returns:
//   - *Track: the scaled track
func (t *Track) Scale(factor float64) *Track {
	c := t.clone()
	if factor != 1 {
		for i := range c.times {
			c.times[i] *= factor
		}
	}
	return c
}

// Trim returns a copy of the track holding only the keys within [start, end]. At least one key is kept:
// if no key lies inside the window, the key nearest the end of the window is kept.
//
// Parameters:
//   - start: window start in seconds
//   - end: window end in seconds
//
// Returns:
//   - *Track: the trimmed track
func (t *Track) Trim(start, end float64) *Track {
	n := len(t.times)
	from := 0
	for from < n && t.times[from] < start {
		from++
	}
	to := n - 1
	for to > -1 && t.times[to] > end {
		to--
	}
	to++

	if from == 0 && to == n {
		return t.clone()
	}
	if from >= to {
		to = max(to, 1)
		from = to - 1
	}

	keys := make([]int, 0, to-from)
	for k := from; k < to; k++ {
		keys = append(keys, k)
	}
	return t.selectKeys(keys)
}

// Optimize returns a copy of the track without redundant keys: keys sharing a time with their neighbour
// and, unless the track is smooth, keys equal to both neighbours. The first and last keys are kept.
//
// Returns:
//   - *Track: the optimized track
func (t *Track) Optimize() *Track {
	n := len(t.times)
	if n <= 2 {
		return t.clone()
	}

	stride := t.stride()
	smooth := t.interpolation == InterpolationSmooth
	last := n - 1
	keys := []int{0}

	for i := 1; i < last; i++ {
		tm := t.times[i]
		if tm == t.times[i+1] || (i == 1 && tm == t.times[0]) {
			continue
		}

		keep := smooth
		if !keep {
			off := i * stride
			for j := 0; j < stride; j++ {
				v := t.values[off+j]
				if v != t.values[off-stride+j] || v != t.values[off+stride+j] {
					keep = true
					break
				}
			}
			if t.strings != nil && (t.strings[i] != t.strings[i-1] || t.strings[i] != t.strings[i+1]) {
				keep = true
			}
		}
		if keep {
			keys = append(keys, i)
		}
	}
	keys = append(keys, last)

	return t.selectKeys(keys)
}

// sampleAt evaluates the value part of the track at time tm without the tangents of a cubic spline.
func (t *Track) sampleAt(tm float64) []float64 {
	ip := t.NewInterpolant(nil, nil)
	return slices.Clone(ip.Evaluate(tm))
}

// withValues returns a copy of t whose values are replaced.
func (t *Track) withValues(values []float64) *Track {
	c := t.clone()
	c.values = values
	return c
}
