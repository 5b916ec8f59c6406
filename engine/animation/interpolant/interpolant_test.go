package interpolant

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_Evaluate(t *testing.T) {
	ip := New(KindLinear, []float64{0, 1, 2}, []float64{0, 10, 10, 20, 30, 40}, 2)

	tests := []struct {
		name string
		t    float64
		want []float64
	}{
		{"before first key", -1, []float64{0, 10}},
		{"first key", 0, []float64{0, 10}},
		{"inside first interval", 0.25, []float64{2.5, 12.5}},
		{"middle key", 1, []float64{10, 20}},
		{"inside second interval", 1.5, []float64{20, 30}},
		{"last key", 2, []float64{30, 40}},
		{"after last key", 5, []float64{30, 40}},
		{"back to start", 0.5, []float64{5, 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ip.Evaluate(tt.t)
			require.Len(t, got, 2)
			assert.InDelta(t, tt.want[0], got[0], 1e-12)
			assert.InDelta(t, tt.want[1], got[1], 1e-12)
		})
	}
}

func TestEvaluate_SeekMatchesFreshSearch(t *testing.T) {
	times := make([]float64, 50)
	values := make([]float64, 50)
	for i := range times {
		times[i] = float64(i) * 0.1
		values[i] = float64(i * i)
	}
	cursor := New(KindLinear, times, values, 1)

	queries := []float64{0.05, 0.15, 0.33, 4.2, 0.01, 2.55, 2.45, 2.35, 4.89, 3.0, -1, 4.95}
	for _, q := range queries {
		fresh := New(KindLinear, times, values, 1)
		assert.InDelta(t, fresh.Evaluate(q)[0], cursor.Evaluate(q)[0], 1e-9, "t=%g", q)
	}
}

func TestEvaluate_SingleKey(t *testing.T) {
	ip := New(KindLinear, []float64{1}, []float64{7}, 1)
	assert.Equal(t, 7.0, ip.Evaluate(0)[0])
	assert.Equal(t, 7.0, ip.Evaluate(1)[0])
	assert.Equal(t, 7.0, ip.Evaluate(3)[0])
}

func TestEvaluate_DuplicateTimes(t *testing.T) {
	// A jump at t=1: values before come from the left segment, from t=1 on from the right one.
	ip := New(KindLinear, []float64{0, 1, 1, 2}, []float64{0, 1, 5, 6}, 1)
	assert.InDelta(t, 0.5, ip.Evaluate(0.5)[0], 1e-12)
	assert.InDelta(t, 5.0, ip.Evaluate(1)[0], 1e-12)
	assert.InDelta(t, 5.5, ip.Evaluate(1.5)[0], 1e-12)
}

func TestDiscrete_HoldsLeftKey(t *testing.T) {
	ip := New(KindDiscrete, []float64{0, 1, 2}, []float64{3, 4, 5}, 1)
	assert.Equal(t, 3.0, ip.Evaluate(0.99)[0])
	assert.Equal(t, 4.0, ip.Evaluate(1)[0])
	assert.Equal(t, 4.0, ip.Evaluate(1.7)[0])
	assert.Equal(t, 5.0, ip.Evaluate(2)[0])
}

func TestQuaternionLinear_Midpoint(t *testing.T) {
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	ip := New(KindQuaternionLinear, []float64{0, 1}, []float64{0, 0, 0, 1, q.V[0], q.V[1], q.V[2], q.W}, 4)

	got := ip.Evaluate(0.5)
	want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, want.V[1], got[1], 1e-9)
	assert.InDelta(t, want.W, got[3], 1e-9)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0, got[2], 1e-12)
}

func TestSmooth_PassesThroughKeys(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	values := []float64{0, 1, 4, 9}
	for _, ending := range []Ending{EndingZeroCurvature, EndingZeroSlope, EndingWrapAround} {
		settings := &Settings{EndingStart: ending, EndingEnd: ending}
		ip := New(KindSmooth, times, values, 1, WithSettings(settings))
		for i, tm := range times {
			assert.InDelta(t, values[i], ip.Evaluate(tm)[0], 1e-12, "ending %d key %d", ending, i)
		}
	}
}

func TestSmooth_LinearDataStaysLinear(t *testing.T) {
	ip := New(KindSmooth, []float64{0, 1, 2, 3}, []float64{0, 2, 4, 6}, 1)
	// Interior segment: Catmull-Rom reproduces straight lines.
	assert.InDelta(t, 3.0, ip.Evaluate(1.5)[0], 1e-12)
}

func TestSmooth_ZeroSlopeFlattensEnd(t *testing.T) {
	settings := &Settings{EndingStart: EndingZeroSlope, EndingEnd: EndingZeroSlope}
	ip := New(KindSmooth, []float64{0, 1}, []float64{0, 1}, 1, WithSettings(settings))

	// With flat tangents at both ends a two-key curve is the smoothstep 3p^2 - 2p^3.
	for _, p := range []float64{0.1, 0.25, 0.5, 0.8} {
		assert.InDelta(t, 3*p*p-2*p*p*p, ip.Evaluate(p)[0], 1e-12)
	}
}

func TestSmooth_SettingsAreShared(t *testing.T) {
	settings := &Settings{}
	a := New(KindSmooth, []float64{0, 1}, []float64{0, 1}, 1, WithSettings(settings))
	b := New(KindSmooth, []float64{0, 1}, []float64{0, 1}, 1, WithSettings(settings))
	settings.EndingEnd = EndingWrapAround
	assert.Same(t, a.Settings(), b.Settings())
	assert.Equal(t, EndingWrapAround, a.Settings().EndingEnd)
}

func TestSmooth_NormalizesQuaternions(t *testing.T) {
	y := mgl64.Vec3{0, 1, 0}
	var values []float64
	for _, angle := range []float64{0, math.Pi / 2, math.Pi} {
		q := mgl64.QuatRotate(angle, y)
		values = append(values, q.V[0], q.V[1], q.V[2], q.W)
	}
	ip := New(KindSmooth, []float64{0, 1, 2}, values, 4, WithNormalize(true))

	for _, tm := range []float64{0.5, 1.5} {
		got := ip.Evaluate(tm)
		length := math.Sqrt(got[0]*got[0] + got[1]*got[1] + got[2]*got[2] + got[3]*got[3])
		assert.InDelta(t, 1.0, length, 1e-12, "t=%v", tm)
	}

	raw := New(KindSmooth, []float64{0, 1, 2}, values, 4)
	got := raw.Evaluate(0.5)
	assert.Less(t, math.Sqrt(got[0]*got[0]+got[1]*got[1]+got[2]*got[2]+got[3]*got[3]), 0.99)
}

func TestCubicSpline_ValueAndTangents(t *testing.T) {
	// Two keys of a scalar: (in, value, out). Zero tangents give smoothstep between the values.
	values := []float64{
		0, 0, 0,
		0, 1, 0,
	}
	ip := New(KindCubicSpline, []float64{0, 2}, values, 1)

	assert.Equal(t, 0.0, ip.Evaluate(-1)[0])
	assert.InDelta(t, 0.5, ip.Evaluate(1)[0], 1e-12)
	assert.Equal(t, 1.0, ip.Evaluate(2)[0])

	// A constant slope of 0.5 per second on both keys reproduces the straight line.
	sloped := New(KindCubicSpline, []float64{0, 2}, []float64{0.5, 0, 0.5, 0.5, 1, 0.5}, 1)
	assert.InDelta(t, 0.25, sloped.Evaluate(0.5)[0], 1e-12)
	assert.InDelta(t, 0.75, sloped.Evaluate(1.5)[0], 1e-12)
}

func TestCubicSpline_NormalizesQuaternions(t *testing.T) {
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	values := []float64{
		0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0,
		0, 0, 0, 0, q.V[0], q.V[1], q.V[2], q.W, 0, 0, 0, 0,
	}
	ip := New(KindCubicSpline, []float64{0, 1}, values, 4, WithNormalize(true))

	got := ip.Evaluate(0.5)
	length := math.Sqrt(got[0]*got[0] + got[1]*got[1] + got[2]*got[2] + got[3]*got[3])
	assert.InDelta(t, 1.0, length, 1e-12)
}

func TestWithResultBuffer(t *testing.T) {
	buf := make([]float64, 3)
	ip := New(KindLinear, []float64{0, 1}, []float64{0, 2}, 1, WithResultBuffer(buf[1:]))
	ip.Evaluate(0.5)
	assert.Equal(t, []float64{0, 1, 0}, buf)
}

func TestNewControl(t *testing.T) {
	c := NewControl()
	times, values := c.Times(), c.Values()
	times[0], times[1] = 2, 4
	values[0], values[1] = 1, 0

	assert.Equal(t, 1.0, c.Evaluate(1)[0])
	assert.InDelta(t, 0.75, c.Evaluate(2.5)[0], 1e-12)
	assert.InDelta(t, 0.25, c.Evaluate(3.5)[0], 1e-12)
	assert.Equal(t, 0.0, c.Evaluate(10)[0])
	assert.Equal(t, KindLinear, c.Kind())
	assert.Equal(t, 1, c.ValueSize())
}
