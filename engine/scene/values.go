package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
)

var (
	xyzNames  = map[string]int{"x": 0, "y": 1, "z": 2}
	xyzwNames = map[string]int{"x": 0, "y": 1, "z": 2, "w": 3}
	rgbNames  = map[string]int{"r": 0, "g": 1, "b": 2}
)

// Vector3 is an animatable 3D vector. Components are addressable by "x", "y" and "z".
type Vector3 struct {
	mgl64.Vec3
}

// Quaternion is an animatable rotation, packed as x, y, z, w.
type Quaternion struct {
	mgl64.Quat
}

// Color is an animatable linear RGB color. Components are addressable by "r", "g" and "b".
type Color struct {
	mgl64.Vec3
}

var (
	_ binding.ArrayConvertible = &Vector3{}
	_ binding.Addressable      = &Vector3{}
	_ binding.ArrayConvertible = &Quaternion{}
	_ binding.Addressable      = &Quaternion{}
	_ binding.ArrayConvertible = &Color{}
	_ binding.Addressable      = &Color{}
)

func (v *Vector3) Len() int                         { return 3 }
func (v *Vector3) ToArray(dst []float64, off int)   { copy(dst[off:off+3], v.Vec3[:]) }
func (v *Vector3) FromArray(src []float64, off int) { copy(v.Vec3[:], src[off:off+3]) }
func (v *Vector3) Element(i int) *float64 {
	if i < 0 || i >= 3 {
		return nil
	}
	return &v.Vec3[i]
}

func (q *Quaternion) Len() int { return 4 }

func (q *Quaternion) ToArray(dst []float64, off int) {
	dst[off], dst[off+1], dst[off+2], dst[off+3] = q.V[0], q.V[1], q.V[2], q.W
}

func (q *Quaternion) FromArray(src []float64, off int) {
	q.V[0], q.V[1], q.V[2], q.W = src[off], src[off+1], src[off+2], src[off+3]
}

func (q *Quaternion) Element(i int) *float64 {
	switch {
	case i >= 0 && i < 3:
		return &q.V[i]
	case i == 3:
		return &q.W
	}
	return nil
}

func (c *Color) Len() int                         { return 3 }
func (c *Color) ToArray(dst []float64, off int)   { copy(dst[off:off+3], c.Vec3[:]) }
func (c *Color) FromArray(src []float64, off int) { copy(c.Vec3[:], src[off:off+3]) }
func (c *Color) Element(i int) *float64 {
	if i < 0 || i >= 3 {
		return nil
	}
	return &c.Vec3[i]
}
