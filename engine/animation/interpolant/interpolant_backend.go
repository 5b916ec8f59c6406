package interpolant

import "github.com/Carmen-Shannon/oxy-anim/common"

// interpolantBackend computes values inside a bracketing interval [t0, t1) ending at key i1.
type interpolantBackend interface {
	// intervalChanged is called once when the evaluated interval differs from the previous one.
	intervalChanged(ip *interpolant, i1 int, t0, t1 float64)

	// interpolate writes the value at t into the result buffer and returns it.
	interpolate(ip *interpolant, i1 int, t0, t, t1 float64) []float64
}

// --- Discrete ---

type discreteBackend struct{}

func (discreteBackend) intervalChanged(*interpolant, int, float64, float64) {}

func (discreteBackend) interpolate(ip *interpolant, i1 int, _, _, _ float64) []float64 {
	return ip.copySample(i1 - 1)
}

// --- Linear ---

type linearBackend struct{}

func (linearBackend) intervalChanged(*interpolant, int, float64, float64) {}

func (linearBackend) interpolate(ip *interpolant, i1 int, t0, t, t1 float64) []float64 {
	stride := ip.valueSize
	off1 := i1 * stride
	off0 := off1 - stride
	w1 := (t - t0) / (t1 - t0)
	w0 := 1 - w1

	res := ip.result[:stride]
	for i := range res {
		res[i] = ip.values[off0+i]*w0 + ip.values[off1+i]*w1
	}
	return res
}

// --- Quaternion ---

type quaternionBackend struct{}

func (quaternionBackend) intervalChanged(*interpolant, int, float64, float64) {}

func (quaternionBackend) interpolate(ip *interpolant, i1 int, t0, t, t1 float64) []float64 {
	stride := ip.valueSize
	alpha := (t - t0) / (t1 - t0)
	off := i1 * stride
	for q := 0; q+4 <= stride; q += 4 {
		common.SlerpFlat(ip.result, q, ip.values, off-stride+q, ip.values, off+q, alpha)
	}
	return ip.result[:stride]
}

// --- Smooth ---

// smoothBackend keeps the neighbour weights and offsets of the current interval.
type smoothBackend struct {
	weightPrev float64
	weightNext float64
	offsetPrev int
	offsetNext int
}

func (b *smoothBackend) intervalChanged(ip *interpolant, i1 int, t0, t1 float64) {
	pp := ip.times
	n := len(pp)
	iPrev, iNext := i1-2, i1+1

	var tPrev, tNext float64
	if iPrev < 0 {
		switch ip.settings.EndingStart {
		case EndingZeroSlope:
			// mirror the next key so f'(t0) = 0
			iPrev = i1
			tPrev = 2*t0 - t1
		case EndingWrapAround:
			iPrev = n - 2
			tPrev = t0 + pp[iPrev] - pp[iPrev+1]
		default:
			iPrev = i1
			tPrev = t1
		}
	} else {
		tPrev = pp[iPrev]
	}

	if iNext >= n {
		switch ip.settings.EndingEnd {
		case EndingZeroSlope:
			// mirror the previous key so f'(t1) = 0
			iNext = i1 - 1
			tNext = 2*t1 - t0
		case EndingWrapAround:
			iNext = 1
			tNext = t1 + pp[1] - pp[0]
		default:
			iNext = i1 - 1
			tNext = t0
		}
	} else {
		tNext = pp[iNext]
	}

	halfDt := (t1 - t0) * 0.5
	b.weightPrev = safeRatio(halfDt, t0-tPrev)
	b.weightNext = safeRatio(halfDt, tNext-t1)
	b.offsetPrev = iPrev * ip.valueSize
	b.offsetNext = iNext * ip.valueSize
}

func (b *smoothBackend) interpolate(ip *interpolant, i1 int, t0, t, t1 float64) []float64 {
	stride := ip.valueSize
	v := ip.values
	o1 := i1 * stride
	o0 := o1 - stride
	oP, oN := b.offsetPrev, b.offsetNext
	wP, wN := b.weightPrev, b.weightNext

	p := (t - t0) / (t1 - t0)
	pp := p * p
	ppp := pp * p

	sP := -wP*ppp + 2*wP*pp - wP*p
	s0 := (1+wP)*ppp + (-1.5-2*wP)*pp + (-0.5+wP)*p + 1
	s1 := (-1-wN)*ppp + (1.5+wN)*pp + 0.5*p
	sN := wN*ppp - wN*pp

	res := ip.result[:stride]
	for i := range res {
		res[i] = sP*v[oP+i] + s0*v[o0+i] + s1*v[o1+i] + sN*v[oN+i]
	}

	if ip.normalize {
		normalizeQuats(res)
	}
	return res
}

// normalizeQuats renormalizes every quaternion packed in res.
func normalizeQuats(res []float64) {
	for q := 0; q+4 <= len(res); q += 4 {
		common.NormalizeQuatFlat(res, q)
	}
}

// safeRatio divides a by b, yielding 0 for a zero-length neighbour interval.
func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// --- Cubic spline ---

type cubicSplineBackend struct{}

func (cubicSplineBackend) intervalChanged(*interpolant, int, float64, float64) {}

func (cubicSplineBackend) interpolate(ip *interpolant, i1 int, t0, t, t1 float64) []float64 {
	stride := ip.valueSize
	stride2 := stride * 2
	stride3 := stride * 3
	v := ip.values

	td := t1 - t0
	p := (t - t0) / td
	pp := p * p
	ppp := pp * p

	off1 := i1 * stride3
	off0 := off1 - stride3

	s2 := -2*ppp + 3*pp
	s3 := ppp - pp
	s0 := 1 - s2
	s1 := s3 - pp + p

	res := ip.result[:stride]
	for i := range res {
		p0 := v[off0+i+stride]
		m0 := v[off0+i+stride2] * td
		p1 := v[off1+i+stride]
		m1 := v[off1+i] * td
		res[i] = s0*p0 + s1*m0 + s2*p1 + s3*m1
	}

	if ip.normalize {
		normalizeQuats(res)
	}
	return res
}
