package scene

import (
	"strconv"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
)

var nextNodeID atomic.Uint64

// node is the implementation of the Node interface.
type node struct {
	id       uint64
	name     string
	parent   *node
	children []Node

	position   Vector3
	quaternion Quaternion
	scale      Vector3
	visible    bool

	morphInfluences []float64
	morphDictionary map[string]int

	materials []Material
	skeleton  *Skeleton
	custom    map[string]binding.Property

	matrix                 mgl64.Mat4
	matrixWorld            mgl64.Mat4
	matrixWorldNeedsUpdate bool
}

// Node is a named element of a scene hierarchy with a local TRS transform.
//
// A Node is an animation root: every property, material and bone below it can be addressed by a
// track path, and writes made by a mixer flag the node's world matrix for recomputation.
// Nodes are not safe for concurrent use.
type Node interface {
	binding.Root
	binding.ObjectContainer
	binding.MatrixWorldNeedsUpdater

	// ID returns the process-unique node identifier.
	//
	// Returns:
	//   - uint64: the node ID
	ID() uint64

	// Name returns the node name used by track paths.
	//
	// Returns:
	//   - string: the name
	Name() string

	// SetName renames the node. Bindings already resolved keep pointing at it.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Parent returns the parent node, or nil for a root.
	//
	// Returns:
	//   - Node: the parent or nil
	Parent() Node

	// Children returns the direct children in insertion order.
	//
	// Returns:
	//   - []Node: the children
	Children() []Node

	// Add attaches children to this node, detaching them from any previous parent.
	// Panics if a child was not created by NewNode.
	//
	// Parameters:
	//   - children: the nodes to attach
	Add(children ...Node)

	// Remove detaches a direct child.
	//
	// Parameters:
	//   - child: the node to detach
	//
	// Returns:
	//   - bool: false if child was not a direct child of this node
	Remove(child Node) bool

	// NodeByName searches this node, its skeleton bones and then its descendants depth first.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Node: the first match
	//   - bool: false if nothing matched
	NodeByName(name string) (Node, bool)

	// Traverse calls fn for this node and every descendant, parents before children.
	//
	// Parameters:
	//   - fn: the visitor
	Traverse(fn func(n Node))

	// Position returns the local translation.
	//
	// Returns:
	//   - mgl64.Vec3: the translation
	Position() mgl64.Vec3

	// SetPosition sets the local translation.
	//
	// Parameters:
	//   - p: the translation
	SetPosition(p mgl64.Vec3)

	// Quaternion returns the local rotation.
	//
	// Returns:
	//   - mgl64.Quat: the rotation
	Quaternion() mgl64.Quat

	// SetQuaternion sets the local rotation.
	//
	// Parameters:
	//   - q: the rotation
	SetQuaternion(q mgl64.Quat)

	// Scale returns the local scale.
	//
	// Returns:
	//   - mgl64.Vec3: the scale
	Scale() mgl64.Vec3

	// SetScale sets the local scale.
	//
	// Parameters:
	//   - s: the scale
	SetScale(s mgl64.Vec3)

	// Visible reports whether the node is drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// SetVisible shows or hides the node.
	//
	// Parameters:
	//   - v: true to show
	SetVisible(v bool)

	// MorphTargetInfluences returns the live morph weights. The slice is owned by the node.
	//
	// Returns:
	//   - []float64: the weights
	MorphTargetInfluences() []float64

	// MorphTargetDictionary maps morph target names to influence indices.
	//
	// Returns:
	//   - map[string]int: the dictionary
	MorphTargetDictionary() map[string]int

	// SetMorphTargets resets the morph weights to zero, one per name. Empty names are only
	// addressable by index. Bindings made against the old weights become stale.
	//
	// Parameters:
	//   - names: the morph target names in influence order
	SetMorphTargets(names ...string)

	// Materials returns the node's materials.
	//
	// Returns:
	//   - []Material: the materials
	Materials() []Material

	// SetMaterials replaces the node's materials.
	//
	// Parameters:
	//   - materials: the new materials
	SetMaterials(materials ...Material)

	// Skeleton returns the skeleton bound to this node, or nil.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// SetSkeleton binds a skeleton to this node.
	//
	// Parameters:
	//   - s: the skeleton, nil to unbind
	SetSkeleton(s *Skeleton)

	// SetCustomProperty exposes an application property under a name so tracks can animate it.
	// Built-in property names take precedence.
	//
	// Parameters:
	//   - name: the property name
	//   - p: the property, nil to remove
	SetCustomProperty(name string, p binding.Property)

	// MatrixWorldNeedsUpdate reports whether the world matrix is stale.
	//
	// Returns:
	//   - bool: true if stale
	MatrixWorldNeedsUpdate() bool

	// UpdateMatrixWorld recomputes stale local and world matrices of this node and its descendants.
	//
	// Parameters:
	//   - force: recompute even if this node is not stale
	UpdateMatrixWorld(force bool)

	// Matrix returns the local matrix as of the last UpdateMatrixWorld.
	//
	// Returns:
	//   - mgl64.Mat4: the local matrix
	Matrix() mgl64.Mat4

	// MatrixWorld returns the world matrix as of the last UpdateMatrixWorld.
	//
	// Returns:
	//   - mgl64.Mat4: the world matrix
	MatrixWorld() mgl64.Mat4
}

var _ Node = &node{}

// NewNode creates a new Node at the origin with identity rotation and unit scale.
//
// Parameters:
//   - name: the node name
//   - options: variadic list of NodeBuilderOption functions
//
// Returns:
//   - Node: the new node
func NewNode(name string, options ...NodeBuilderOption) Node {
	n := &node{
		id:                     nextNodeID.Add(1),
		name:                   name,
		quaternion:             Quaternion{mgl64.QuatIdent()},
		scale:                  Vector3{mgl64.Vec3{1, 1, 1}},
		visible:                true,
		morphDictionary:        make(map[string]int),
		custom:                 make(map[string]binding.Property),
		matrix:                 mgl64.Ident4(),
		matrixWorld:            mgl64.Ident4(),
		matrixWorldNeedsUpdate: true,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *node) ID() uint64 {
	return n.id
}

func (n *node) RootID() uint64 {
	return n.id
}

func (n *node) Name() string {
	return n.name
}

func (n *node) SetName(name string) {
	n.name = name
}

func (n *node) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []Node {
	return n.children
}

func (n *node) Add(children ...Node) {
	for _, child := range children {
		c, ok := child.(*node)
		if !ok {
			panic("scene: Add requires a Node created by NewNode")
		}
		if c == n {
			panic("scene: a node cannot be its own child")
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		c.matrixWorldNeedsUpdate = true
		n.children = append(n.children, c)
	}
}

func (n *node) Remove(child Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.(*node).parent = nil
			c.(*node).matrixWorldNeedsUpdate = true
			return true
		}
	}
	return false
}

func (n *node) FindNode(name string) (binding.Object, bool) {
	found := n.find(name)
	if found == nil {
		return nil, false
	}
	return found, true
}

func (n *node) NodeByName(name string) (Node, bool) {
	found := n.find(name)
	if found == nil {
		return nil, false
	}
	return found, true
}

func (n *node) find(name string) Node {
	if n.name == name {
		return n
	}
	if n.skeleton != nil {
		if i, ok := n.skeleton.index[name]; ok {
			return n.skeleton.bones[i]
		}
	}
	for _, c := range n.children {
		if found := c.(*node).find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *node) Traverse(fn func(n Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

func (n *node) AnimatedProperty(name string) (binding.Property, bool) {
	switch name {
	case "position":
		return binding.Packed{Value: &n.position, Names: xyzNames}, true
	case "quaternion":
		return binding.Packed{Value: &n.quaternion, Names: xyzwNames}, true
	case "scale":
		return binding.Packed{Value: &n.scale, Names: xyzNames}, true
	case "visible":
		return binding.Bool{Ptr: &n.visible}, true
	case "morphTargetInfluences":
		if len(n.morphInfluences) == 0 {
			return nil, false
		}
		return binding.Array{Ptr: &n.morphInfluences, Names: n.morphDictionary}, true
	}
	p, ok := n.custom[name]
	return p, ok
}

func (n *node) AnimatedObject(name, index string) (binding.Object, bool) {
	switch name {
	case "material":
		if index == "" {
			if len(n.materials) == 0 {
				return nil, false
			}
			return n.materials[0], true
		}
		return n.material(index)
	case "materials":
		return n.material(index)
	case "bones":
		if n.skeleton == nil {
			return nil, false
		}
		return n.skeleton.Bone(index)
	}
	return nil, false
}

// material looks a material up by name, falling back to a numeric index.
func (n *node) material(key string) (binding.Object, bool) {
	for _, m := range n.materials {
		if m.Name() == key {
			return m, true
		}
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(n.materials) {
		return nil, false
	}
	return n.materials[i], true
}

func (n *node) Position() mgl64.Vec3 {
	return n.position.Vec3
}

func (n *node) SetPosition(p mgl64.Vec3) {
	n.position.Vec3 = p
	n.matrixWorldNeedsUpdate = true
}

func (n *node) Quaternion() mgl64.Quat {
	return n.quaternion.Quat
}

func (n *node) SetQuaternion(q mgl64.Quat) {
	n.quaternion.Quat = q
	n.matrixWorldNeedsUpdate = true
}

func (n *node) Scale() mgl64.Vec3 {
	return n.scale.Vec3
}

func (n *node) SetScale(s mgl64.Vec3) {
	n.scale.Vec3 = s
	n.matrixWorldNeedsUpdate = true
}

func (n *node) Visible() bool {
	return n.visible
}

func (n *node) SetVisible(v bool) {
	n.visible = v
}

func (n *node) MorphTargetInfluences() []float64 {
	return n.morphInfluences
}

func (n *node) MorphTargetDictionary() map[string]int {
	return n.morphDictionary
}

func (n *node) SetMorphTargets(names ...string) {
	n.morphInfluences = make([]float64, len(names))
	n.morphDictionary = make(map[string]int, len(names))
	for i, name := range names {
		if name != "" {
			n.morphDictionary[name] = i
		}
	}
}

func (n *node) Materials() []Material {
	return n.materials
}

func (n *node) SetMaterials(materials ...Material) {
	n.materials = materials
}

func (n *node) Skeleton() *Skeleton {
	return n.skeleton
}

func (n *node) SetSkeleton(s *Skeleton) {
	n.skeleton = s
}

func (n *node) SetCustomProperty(name string, p binding.Property) {
	if p == nil {
		delete(n.custom, name)
		return
	}
	n.custom[name] = p
}

func (n *node) SetMatrixWorldNeedsUpdate() {
	n.matrixWorldNeedsUpdate = true
}

func (n *node) MatrixWorldNeedsUpdate() bool {
	return n.matrixWorldNeedsUpdate
}

func (n *node) UpdateMatrixWorld(force bool) {
	if n.matrixWorldNeedsUpdate || force {
		n.matrix = composeMatrix(n.position.Vec3, n.quaternion.Quat, n.scale.Vec3)
		if n.parent == nil {
			n.matrixWorld = n.matrix
		} else {
			n.matrixWorld = n.parent.matrixWorld.Mul4(n.matrix)
		}
		n.matrixWorldNeedsUpdate = false
		force = true
	}
	for _, c := range n.children {
		c.UpdateMatrixWorld(force)
	}
}

func (n *node) Matrix() mgl64.Mat4 {
	return n.matrix
}

func (n *node) MatrixWorld() mgl64.Mat4 {
	return n.matrixWorld
}

// composeMatrix builds T * R * S from a normalized rotation.
func composeMatrix(t mgl64.Vec3, r mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	if r.Len() == 0 {
		r = mgl64.QuatIdent()
	}
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}
