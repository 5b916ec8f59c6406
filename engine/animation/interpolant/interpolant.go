package interpolant

import (
	"sort"
)

// Kind selects the interpolation backend of an Interpolant.
type Kind int

const (
	// KindDiscrete returns the left key verbatim.
	KindDiscrete Kind = iota
	// KindLinear interpolates every component linearly.
	KindLinear
	// KindSmooth is a cubic through the keys using the Settings endings.
	KindSmooth
	// KindCubicSpline is Hermite interpolation over (inTangent, value, outTangent) keys.
	KindCubicSpline
	// KindQuaternionLinear slerps between adjacent (x, y, z, w) keys.
	KindQuaternionLinear
)

// Ending selects how a smooth interpolant extrapolates the tangent at the first or last key.
type Ending int

const (
	// EndingZeroCurvature continues the curve with zero second derivative.
	EndingZeroCurvature Ending = iota
	// EndingZeroSlope flattens the curve at the key.
	EndingZeroSlope
	// EndingWrapAround uses the key at the other end of the track, for seamless loops.
	EndingWrapAround
)

// Settings holds the endings used by smooth interpolants. One Settings value is shared by all the
// interpolants of an action so the action can switch endings as it loops.
type Settings struct {
	EndingStart Ending
	EndingEnd   Ending
}

var defaultSettings = Settings{}

// interpolant is the implementation of the Interpolant interface.
type interpolant struct {
	kind      Kind
	backend   interpolantBackend
	times     []float64
	values    []float64
	valueSize int
	result    []float64
	settings  *Settings
	normalize bool

	// sampleStride and sampleOffset locate the value of key i at values[i*sampleStride+sampleOffset].
	sampleStride int
	sampleOffset int

	cachedIndex int
}

// Interpolant samples keyed data at arbitrary times.
//
// An Interpolant keeps a cursor to the last interval it evaluated, so monotonic queries find their
// bracketing keys in constant time. Jumps (seeks, loop wraps) fall back to a binary search.
// Interpolants are not safe for concurrent use.
type Interpolant interface {
	// Evaluate samples the data at time t. Times before the first key hold the first value and times at or
	// after the last key hold the last value.
	//
	// Parameters:
	//   - t: the query time
	//
	// Returns:
	//   - []float64: the result buffer holding ValueSize components, overwritten by the next call
	Evaluate(t float64) []float64

	// ResultBuffer returns the buffer Evaluate writes into.
	//
	// Returns:
	//   - []float64: the result buffer
	ResultBuffer() []float64

	// Times returns the key times. Control interpolants rewrite them in place to reschedule.
	//
	// Returns:
	//   - []float64: the key times
	Times() []float64

	// Values returns the flat key values. Control interpolants rewrite them in place to reschedule.
	//
	// Returns:
	//   - []float64: the key values
	Values() []float64

	// ValueSize returns the number of components of one sampled value.
	//
	// Returns:
	//   - int: the value size
	ValueSize() int

	// Kind returns the interpolation backend in use.
	//
	// Returns:
	//   - Kind: the interpolation kind
	Kind() Kind

	// Settings returns the ending settings this interpolant reads.
	//
	// Returns:
	//   - *Settings: the shared settings, never nil
	Settings() *Settings
}

var _ Interpolant = &interpolant{}

// New creates a new Interpolant over times and values. The slices are referenced, not copied.
//
// Parameters:
//   - kind: the interpolation backend
//   - times: key times, non-decreasing, at least one
//   - values: flat key values; valueSize per key, or three times that for KindCubicSpline
//   - valueSize: the number of components per sampled value
//   - options: variadic list of InterpolantBuilderOption functions
//
// Returns:
//   - Interpolant: the new interpolant
func New(kind Kind, times, values []float64, valueSize int, options ...InterpolantBuilderOption) Interpolant {
	ip := &interpolant{
		kind:         kind,
		times:        times,
		values:       values,
		valueSize:    valueSize,
		sampleStride: valueSize,
	}

	switch kind {
	case KindDiscrete:
		ip.backend = discreteBackend{}
	case KindSmooth:
		ip.backend = &smoothBackend{}
	case KindCubicSpline:
		ip.backend = cubicSplineBackend{}
		ip.sampleStride = valueSize * 3
		ip.sampleOffset = valueSize
	case KindQuaternionLinear:
		ip.backend = quaternionBackend{}
	case KindLinear:
		fallthrough
	default:
		ip.backend = linearBackend{}
	}

	for _, opt := range options {
		opt(ip)
	}
	if ip.settings == nil {
		ip.settings = &defaultSettings
	}
	if len(ip.result) < valueSize {
		ip.result = make([]float64, valueSize)
	}
	return ip
}

// NewControl creates the two-key scalar linear interpolant used to drive fades and warps.
// Both keys start at zero; callers schedule it by writing Times and Values.
//
// Returns:
//   - Interpolant: the new control interpolant
func NewControl() Interpolant {
	return New(KindLinear, make([]float64, 2), make([]float64, 2), 1)
}

func (ip *interpolant) Evaluate(t float64) []float64 {
	pp := ip.times
	n := len(pp)
	i1 := ip.cachedIndex

	if i1 > 0 && i1 < n && t >= pp[i1-1] && t < pp[i1] {
		return ip.backend.interpolate(ip, i1, pp[i1-1], t, pp[i1])
	}

	if !(t >= pp[0]) {
		ip.cachedIndex = 0
		return ip.copySample(0)
	}
	if t >= pp[n-1] {
		ip.cachedIndex = n
		return ip.copySample(n - 1)
	}

	i1 = ip.seek(t, i1)
	ip.cachedIndex = i1
	ip.backend.intervalChanged(ip, i1, pp[i1-1], pp[i1])
	return ip.backend.interpolate(ip, i1, pp[i1-1], t, pp[i1])
}

// seek returns the index i1 of the first key after t, with pp[0] <= t < pp[n-1].
// It scans up to two intervals away from the cursor before falling back to a binary search.
func (ip *interpolant) seek(t float64, from int) int {
	pp := ip.times
	n := len(pp)
	i1 := min(max(from, 1), n-1)

	if t >= pp[i1] {
		for giveUp := i1 + 2; i1 < n-1 && i1 < giveUp; {
			i1++
			if t < pp[i1] {
				return i1
			}
		}
	} else {
		for giveUp := i1 - 2; i1 >= 1 && i1 > giveUp; i1-- {
			if t >= pp[i1-1] {
				return i1
			}
		}
	}

	return sort.Search(n, func(i int) bool { return t < pp[i] })
}

func (ip *interpolant) copySample(i int) []float64 {
	off := i*ip.sampleStride + ip.sampleOffset
	copy(ip.result[:ip.valueSize], ip.values[off:off+ip.valueSize])
	return ip.result[:ip.valueSize]
}

func (ip *interpolant) ResultBuffer() []float64 {
	return ip.result[:ip.valueSize]
}

func (ip *interpolant) Times() []float64 {
	return ip.times
}

func (ip *interpolant) Values() []float64 {
	return ip.values
}

func (ip *interpolant) ValueSize() int {
	return ip.valueSize
}

func (ip *interpolant) Kind() Kind {
	return ip.kind
}

func (ip *interpolant) Settings() *Settings {
	return ip.settings
}
