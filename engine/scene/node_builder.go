package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
)

// NodeBuilderOption is a functional option for configuring a Node during construction.
type NodeBuilderOption func(n *node)

// WithPosition sets the initial local translation of the Node.
//
// Parameters:
//   - p: the translation
//
// Returns:
//   - NodeBuilderOption: functional option to set the position
func WithPosition(p mgl64.Vec3) NodeBuilderOption {
	return func(n *node) {
		n.position.Vec3 = p
	}
}

// WithQuaternion sets the initial local rotation of the Node.
//
// Parameters:
//   - q: the rotation
//
// Returns:
//   - NodeBuilderOption: functional option to set the rotation
func WithQuaternion(q mgl64.Quat) NodeBuilderOption {
	return func(n *node) {
		n.quaternion.Quat = q
	}
}

// WithScale sets the initial local scale of the Node.
//
// Parameters:
//   - s: the scale
//
// Returns:
//   - NodeBuilderOption: functional option to set the scale
func WithScale(s mgl64.Vec3) NodeBuilderOption {
	return func(n *node) {
		n.scale.Vec3 = s
	}
}

// WithVisible sets whether the Node is drawn.
//
// Parameters:
//   - v: true to show
//
// Returns:
//   - NodeBuilderOption: functional option to set visibility
func WithVisible(v bool) NodeBuilderOption {
	return func(n *node) {
		n.visible = v
	}
}

// WithMorphTargets declares the morph targets of the Node, all weights starting at zero.
//
// Parameters:
//   - names: the morph target names in influence order
//
// Returns:
//   - NodeBuilderOption: functional option to set the morph targets
func WithMorphTargets(names ...string) NodeBuilderOption {
	return func(n *node) {
		n.SetMorphTargets(names...)
	}
}

// WithMaterials sets the materials of the Node.
//
// Parameters:
//   - materials: the materials
//
// Returns:
//   - NodeBuilderOption: functional option to set the materials
func WithMaterials(materials ...Material) NodeBuilderOption {
	return func(n *node) {
		n.materials = materials
	}
}

// WithChildren attaches children to the Node.
//
// Parameters:
//   - children: the child nodes
//
// Returns:
//   - NodeBuilderOption: functional option to attach children
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		n.Add(children...)
	}
}

// WithSkeleton binds a skeleton to the Node.
//
// Parameters:
//   - s: the skeleton
//
// Returns:
//   - NodeBuilderOption: functional option to set the skeleton
func WithSkeleton(s *Skeleton) NodeBuilderOption {
	return func(n *node) {
		n.skeleton = s
	}
}

// WithCustomProperty exposes an application property on the Node.
//
// Parameters:
//   - name: the property name
//   - p: the property
//
// Returns:
//   - NodeBuilderOption: functional option to add the property
func WithCustomProperty(name string, p binding.Property) NodeBuilderOption {
	return func(n *node) {
		n.SetCustomProperty(name, p)
	}
}
