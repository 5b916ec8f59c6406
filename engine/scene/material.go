package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	color     Color
	opacity   float64
	metallic  float64
	roughness float64
	visible   bool
	uniforms  map[string]*[]float64
	version   uint64
}

// Material holds the animatable surface properties of a node.
//
// Every write made through an animation binding bumps Version, so a renderer can re-upload only the
// materials that changed since it last looked.
type Material interface {
	binding.Object
	binding.NeedsUpdater

	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Color retrieves the base RGB color.
	//
	// Returns:
	//   - mgl64.Vec3: the color
	Color() mgl64.Vec3

	// SetColor sets the base RGB color.
	//
	// Parameters:
	//   - c: the color
	SetColor(c mgl64.Vec3)

	// Opacity retrieves the opacity, 1 is fully opaque.
	//
	// Returns:
	//   - float64: the opacity
	Opacity() float64

	// SetOpacity sets the opacity.
	//
	// Parameters:
	//   - o: the opacity
	SetOpacity(o float64)

	// Metallic retrieves the metallic factor.
	//
	// Returns:
	//   - float64: the metallic factor
	Metallic() float64

	// Roughness retrieves the roughness factor.
	//
	// Returns:
	//   - float64: the roughness factor
	Roughness() float64

	// Visible reports whether the material is drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible shows or hides the material.
	//
	// Parameters:
	//   - v: true to show
	SetVisible(v bool)

	// Uniform returns a named uniform array, animatable as a property of the same name.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - []float64: the uniform values
	//   - bool: false if the uniform does not exist
	Uniform(name string) ([]float64, bool)

	// SetUniform creates or replaces a named uniform array. The slice is copied.
	// Replacing a uniform with a different length invalidates bindings made against the old one.
	//
	// Parameters:
	//   - name: the uniform name
	//   - values: the uniform values
	SetUniform(name string, values []float64)

	// Version returns a counter incremented on every SetNeedsUpdate.
	//
	// Returns:
	//   - uint64: the version
	Version() uint64
}

var _ Material = &material{}

// NewMaterial creates a new Material. Defaults to white, fully opaque, visible and fully rough.
//
// Parameters:
//   - name: the material name
//   - options: variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the new material
func NewMaterial(name string, options ...MaterialBuilderOption) Material {
	m := &material{
		name:      name,
		color:     Color{mgl64.Vec3{1, 1, 1}},
		opacity:   1,
		roughness: 1,
		visible:   true,
		uniforms:  make(map[string]*[]float64),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *material) AnimatedProperty(name string) (binding.Property, bool) {
	switch name {
	case "color":
		return binding.Packed{Value: &m.color, Names: rgbNames}, true
	case "opacity":
		return binding.Number{Ptr: &m.opacity}, true
	case "metallic", "metalness":
		return binding.Number{Ptr: &m.metallic}, true
	case "roughness":
		return binding.Number{Ptr: &m.roughness}, true
	case "visible":
		return binding.Bool{Ptr: &m.visible}, true
	}
	if u, ok := m.uniforms[name]; ok {
		return binding.Array{Ptr: u}, true
	}
	return nil, false
}

func (m *material) SetNeedsUpdate() {
	m.version++
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Color() mgl64.Vec3 {
	return m.color.Vec3
}

func (m *material) SetColor(c mgl64.Vec3) {
	m.color.Vec3 = c
	m.version++
}

func (m *material) Opacity() float64 {
	return m.opacity
}

func (m *material) SetOpacity(o float64) {
	m.opacity = o
	m.version++
}

func (m *material) Metallic() float64 {
	return m.metallic
}

func (m *material) Roughness() float64 {
	return m.roughness
}

func (m *material) Visible() bool {
	return m.visible
}

func (m *material) SetVisible(v bool) {
	m.visible = v
	m.version++
}

func (m *material) Uniform(name string) ([]float64, bool) {
	u, ok := m.uniforms[name]
	if !ok {
		return nil, false
	}
	return *u, true
}

func (m *material) SetUniform(name string, values []float64) {
	v := append([]float64(nil), values...)
	if u, ok := m.uniforms[name]; ok && len(*u) == len(v) {
		copy(*u, v)
	} else {
		m.uniforms[name] = &v
	}
	m.version++
}

func (m *material) Version() uint64 {
	return m.version
}
