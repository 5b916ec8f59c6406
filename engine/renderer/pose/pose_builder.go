package pose

import "github.com/Carmen-Shannon/oxy-anim/engine/scene"

// PoseBuilderOption is a functional option for configuring a Pose during construction.
type PoseBuilderOption func(*pose)

// WithLabel is an option builder that sets the label prefix of the GPU buffers.
//
// Parameters:
//   - label: the buffer label prefix
//
// Returns:
//   - PoseBuilderOption: a function that applies the label option to a pose
func WithLabel(label string) PoseBuilderOption {
	return func(p *pose) {
		p.label = label
	}
}

// WithNodes is an option builder that sets the packed nodes.
//
// Parameters:
//   - nodes: the nodes to pack, in buffer order
//
// Returns:
//   - PoseBuilderOption: a function that applies the nodes option to a pose
func WithNodes(nodes ...scene.Node) PoseBuilderOption {
	return func(p *pose) {
		p.nodes = append(p.nodes, nodes...)
	}
}

// WithHierarchy is an option builder that packs root and all of its descendants in depth-first order.
//
// Parameters:
//   - root: the root of the hierarchy
//
// Returns:
//   - PoseBuilderOption: a function that applies the hierarchy option to a pose
func WithHierarchy(root scene.Node) PoseBuilderOption {
	return func(p *pose) {
		root.Traverse(func(n scene.Node) {
			p.nodes = append(p.nodes, n)
		})
	}
}

// WithMinMorphStride is an option builder that reserves at least n morph weights per node, so nodes
// gaining morph targets later do not change the buffer layout.
//
// Parameters:
//   - n: the minimum number of weights per node
//
// Returns:
//   - PoseBuilderOption: a function that applies the stride option to a pose
func WithMinMorphStride(n int) PoseBuilderOption {
	return func(p *pose) {
		p.minMorphStride = max(n, 0)
	}
}
