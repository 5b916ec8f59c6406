package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SlerpLinearThreshold is the quaternion dot product above which SlerpFlat falls back to a
// normalized linear interpolation. Nearly identical rotations make the slerp denominator
// (sin of the angle between them) vanish.
var SlerpLinearThreshold = 0.9995

// QuatAt reads the quaternion stored at offset in a flat (x, y, z, w) buffer.
//
// Parameters:
//   - src: the flat buffer
//   - offset: index of the x component
//
// Returns:
//   - mgl64.Quat: the quaternion
func QuatAt(src []float64, offset int) mgl64.Quat {
	return mgl64.Quat{W: src[offset+3], V: mgl64.Vec3{src[offset], src[offset+1], src[offset+2]}}
}

// PutQuat writes q into a flat (x, y, z, w) buffer at offset.
//
// Parameters:
//   - dst: the flat buffer
//   - offset: index of the x component
//   - q: the quaternion to store
func PutQuat(dst []float64, offset int, q mgl64.Quat) {
	dst[offset] = q.V[0]
	dst[offset+1] = q.V[1]
	dst[offset+2] = q.V[2]
	dst[offset+3] = q.W
}

// SlerpFlat spherically interpolates between the quaternions stored at src0[off0:] and
// src1[off1:], following the shortest arc, and writes the result to dst[dstOff:].
// dst may alias either source.
//
// Parameters:
//   - dst: destination buffer
//   - dstOff: destination offset
//   - src0: buffer holding the start rotation
//   - off0: offset of the start rotation
//   - src1: buffer holding the end rotation
//   - off1: offset of the end rotation
//   - t: interpolation amount, 0 yields the start and 1 the end exactly
func SlerpFlat(dst []float64, dstOff int, src0 []float64, off0 int, src1 []float64, off1 int, t float64) {
	q0 := QuatAt(src0, off0)
	q1 := QuatAt(src1, off1)

	if t <= 0 {
		PutQuat(dst, dstOff, q0)
		return
	}
	if t >= 1 {
		PutQuat(dst, dstOff, q1)
		return
	}
	if q0 == q1 {
		PutQuat(dst, dstOff, q0)
		return
	}

	dot := q0.Dot(q1)
	if dot < 0 {
		q1 = q1.Scale(-1)
		dot = -dot
	}

	if dot > SlerpLinearThreshold {
		PutQuat(dst, dstOff, mgl64.QuatNlerp(q0, q1, t))
		return
	}
	PutQuat(dst, dstOff, mgl64.QuatSlerp(q0, q1, t))
}

// MultiplyQuatFlat stores the Hamilton product a*b of two flat quaternions into dst[dstOff:].
// dst may alias either operand.
//
// Parameters:
//   - dst: destination buffer
//   - dstOff: destination offset
//   - a: buffer holding the left operand
//   - aOff: offset of the left operand
//   - b: buffer holding the right operand
//   - bOff: offset of the right operand
func MultiplyQuatFlat(dst []float64, dstOff int, a []float64, aOff int, b []float64, bOff int) {
	PutQuat(dst, dstOff, QuatAt(a, aOff).Mul(QuatAt(b, bOff)))
}

// PowQuatFlat raises the unit quaternion stored at src[off:] to the power t along its shortest arc
// and writes the result to dst[dstOff:]. The rotation angle is scaled by t, so t above 1
// extrapolates and a negative t reverses the rotation. dst may alias src.
//
// Parameters:
//   - dst: destination buffer
//   - dstOff: destination offset
//   - src: buffer holding the rotation
//   - off: offset of the rotation
//   - t: the exponent
func PowQuatFlat(dst []float64, dstOff int, src []float64, off int, t float64) {
	q := QuatAt(src, off)
	if t == 1 {
		PutQuat(dst, dstOff, q)
		return
	}
	if q.W < 0 {
		q = q.Scale(-1)
	}

	half := math.Acos(mgl64.Clamp(q.W, -1, 1))
	sinHalf := math.Sin(half)
	if sinHalf < 1e-9 {
		PutQuat(dst, dstOff, mgl64.Quat{W: 1, V: q.V.Mul(t)}.Normalize())
		return
	}
	scaled := half * t
	PutQuat(dst, dstOff, mgl64.Quat{W: math.Cos(scaled), V: q.V.Mul(math.Sin(scaled) / sinHalf)})
}

// NormalizeQuatFlat normalizes the quaternion stored at offset in place. A zero-length quaternion
// becomes the identity.
//
// Parameters:
//   - buf: the flat buffer
//   - offset: index of the x component
func NormalizeQuatFlat(buf []float64, offset int) {
	q := QuatAt(buf, offset)
	if q.Len() == 0 {
		PutQuat(buf, offset, mgl64.QuatIdent())
		return
	}
	PutQuat(buf, offset, q.Normalize())
}

// Finite reports whether v is neither NaN nor infinite.
//
// Parameters:
//   - v: the value to check
//
// Returns:
//   - bool: true if v is a finite number
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
