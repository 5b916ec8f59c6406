package loader

import (
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfReadFloats reads an accessor as a flat float64 slice.
// Normalized integer accessors are mapped to [0, 1] or [-1, 1] as glTF defines them.
//
// Returns:
//   - []float64: the flat values
//   - int: the number of components per element
//   - error: an error wrapping ErrInvalidDocument or ErrUnsupportedAccessor
func gltfReadFloats(doc *gltf.Document, index int) ([]float64, int, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("accessor %d out of range: %w", index, ErrInvalidDocument)
	}
	acr := doc.Accessors[index]

	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("accessor %d: %w", index, err)
	}

	norm := acr.Normalized
	switch v := data.(type) {
	case []float32:
		return gltfWiden(nil, v, 1, math.Inf(-1)), 1, nil
	case [][2]float32:
		out := make([]float64, 0, 2*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], 1, math.Inf(-1))
		}
		return out, 2, nil
	case [][3]float32:
		out := make([]float64, 0, 3*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], 1, math.Inf(-1))
		}
		return out, 3, nil
	case [][4]float32:
		out := make([]float64, 0, 4*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], 1, math.Inf(-1))
		}
		return out, 4, nil
	case []int8:
		scale, lo := gltfNorm(norm, 127, -1)
		return gltfWiden(nil, v, scale, lo), 1, nil
	case []uint8:
		scale, lo := gltfNorm(norm, 255, 0)
		return gltfWiden(nil, v, scale, lo), 1, nil
	case []int16:
		scale, lo := gltfNorm(norm, 32767, -1)
		return gltfWiden(nil, v, scale, lo), 1, nil
	case []uint16:
		scale, lo := gltfNorm(norm, 65535, 0)
		return gltfWiden(nil, v, scale, lo), 1, nil
	case [][4]int8:
		scale, lo := gltfNorm(norm, 127, -1)
		out := make([]float64, 0, 4*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], scale, lo)
		}
		return out, 4, nil
	case [][4]uint8:
		scale, lo := gltfNorm(norm, 255, 0)
		out := make([]float64, 0, 4*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], scale, lo)
		}
		return out, 4, nil
	case [][4]int16:
		scale, lo := gltfNorm(norm, 32767, -1)
		out := make([]float64, 0, 4*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], scale, lo)
		}
		return out, 4, nil
	case [][4]uint16:
		scale, lo := gltfNorm(norm, 65535, 0)
		out := make([]float64, 0, 4*len(v))
		for _, e := range v {
			out = gltfWiden(out, e[:], scale, lo)
		}
		return out, 4, nil
	}
	return nil, 0, fmt.Errorf("accessor %d holds %T: %w", index, data, ErrUnsupportedAccessor)
}

// gltfReadScalars reads an accessor that must hold one component per element.
func gltfReadScalars(doc *gltf.Document, index int) ([]float64, error) {
	values, components, err := gltfReadFloats(doc, index)
	if err != nil {
		return nil, err
	}
	if components != 1 {
		return nil, fmt.Errorf("accessor %d has %d components, want 1: %w", index, components, ErrUnsupportedAccessor)
	}
	return values, nil
}

func gltfNorm(normalized bool, maxValue, lo float64) (scale, floor float64) {
	if !normalized {
		return 1, math.Inf(-1)
	}
	return 1 / maxValue, lo
}

func gltfWiden[T float32 | int8 | uint8 | int16 | uint16](dst []float64, src []T, scale, lo float64) []float64 {
	for _, s := range src {
		dst = append(dst, max(float64(s)*scale, lo))
	}
	return dst
}
