package scene

import "github.com/go-gl/mathgl/mgl64"

// MaterialBuilderOption is a functional option for configuring a Material.
// Use the With* functions to create options.
type MaterialBuilderOption func(m *material)

// WithColor sets the base color of the Material.
//
// Parameters:
//   - c: the RGB color
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithColor(c mgl64.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.color.Vec3 = c
	}
}

// WithOpacity sets the opacity of the Material.
//
// Parameters:
//   - o: the opacity
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithOpacity(o float64) MaterialBuilderOption {
	return func(m *material) {
		m.opacity = o
	}
}

// WithMetallicRoughness sets the metallic and roughness factors of the Material.
//
// Parameters:
//   - metallic: the metallic factor
//   - roughness: the roughness factor
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithMetallicRoughness(metallic, roughness float64) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
		m.roughness = roughness
	}
}

// WithUniform adds a named uniform array to the Material.
//
// Parameters:
//   - name: the uniform name
//   - values: the initial values, copied
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithUniform(name string, values ...float64) MaterialBuilderOption {
	return func(m *material) {
		v := append([]float64(nil), values...)
		m.uniforms[name] = &v
	}
}
