package loader

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// gltfNodeExtractorImpl is the implementation of the gltfNodeExtractor interface.
type gltfNodeExtractorImpl struct {
	doc       *gltf.Document
	nodeNames []string
	materials gltfMaterialExtractor
}

// gltfNodeExtractor builds a scene graph from the node forest of a glTF document.
type gltfNodeExtractor interface {
	// ExtractNodes creates one scene.Node per glTF node, with transforms, morph targets and materials,
	// and links them into a hierarchy. Skins become skeletons of the nodes that use them.
	//
	// Returns:
	//   - []scene.Node: the nodes, indexed like doc.Nodes
	//   - error: error if the document references missing nodes or is not a forest
	ExtractNodes() ([]scene.Node, error)
}

var _ gltfNodeExtractor = &gltfNodeExtractorImpl{}

// newGLTFNodeExtractor creates a node extractor for one instantiation.
//
// Parameters:
//   - doc: the decoded document
//   - nodeNames: the unique node names, indexed like doc.Nodes
//
// Returns:
//   - gltfNodeExtractor: the node extractor
func newGLTFNodeExtractor(doc *gltf.Document, nodeNames []string) gltfNodeExtractor {
	return &gltfNodeExtractorImpl{
		doc:       doc,
		nodeNames: nodeNames,
		materials: newGLTFMaterialExtractor(doc),
	}
}

func (e *gltfNodeExtractorImpl) ExtractNodes() ([]scene.Node, error) {
	nodes := make([]scene.Node, len(e.doc.Nodes))
	for i, src := range e.doc.Nodes {
		n, err := e.extractNode(i, src)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}

	hasParent := make([]bool, len(nodes))
	for i, src := range e.doc.Nodes {
		for _, c := range src.Children {
			if c < 0 || c >= len(nodes) || c == i {
				return nil, fmt.Errorf("node %d: invalid child %d: %w", i, c, ErrInvalidDocument)
			}
			if hasParent[c] {
				return nil, fmt.Errorf("node %d has more than one parent: %w", c, ErrInvalidDocument)
			}
			hasParent[c] = true
			nodes[i].Add(nodes[c])
		}
	}
	if err := gltfCheckAcyclic(nodes); err != nil {
		return nil, err
	}

	for i, src := range e.doc.Nodes {
		if src.Skin == nil {
			continue
		}
		if *src.Skin < 0 || *src.Skin >= len(e.doc.Skins) {
			return nil, fmt.Errorf("node %d: skin %d out of range: %w", i, *src.Skin, ErrInvalidDocument)
		}
		joints := e.doc.Skins[*src.Skin].Joints
		bones := make([]scene.Node, len(joints))
		for j, nodeIndex := range joints {
			if nodeIndex < 0 || nodeIndex >= len(nodes) {
				return nil, fmt.Errorf("skin %d joint %d: node %d out of range: %w", *src.Skin, j, nodeIndex, ErrInvalidDocument)
			}
			bones[j] = nodes[nodeIndex]
		}
		nodes[i].SetSkeleton(scene.NewSkeleton(bones...))
	}

	return nodes, nil
}

func (e *gltfNodeExtractorImpl) extractNode(index int, src *gltf.Node) (scene.Node, error) {
	t, r, s := gltfNodeTRS(src)
	n := scene.NewNode(e.nodeNames[index],
		scene.WithPosition(t),
		scene.WithQuaternion(r),
		scene.WithScale(s),
	)

	if src.Mesh == nil {
		return n, nil
	}
	if *src.Mesh < 0 || *src.Mesh >= len(e.doc.Meshes) {
		return nil, fmt.Errorf("node %d: mesh %d out of range: %w", index, *src.Mesh, ErrInvalidDocument)
	}
	mesh := e.doc.Meshes[*src.Mesh]

	var materials []scene.Material
	targets := 0
	for _, prim := range mesh.Primitives {
		targets = max(targets, len(prim.Targets))
		if prim.Material == nil {
			continue
		}
		m, err := e.materials.ExtractMaterial(*prim.Material)
		if err != nil {
			return nil, fmt.Errorf("node %d mesh %d: %w", index, *src.Mesh, err)
		}
		materials = append(materials, m)
	}
	n.SetMaterials(materials...)

	if targets > 0 {
		n.SetMorphTargets(gltfTargetNames(mesh, targets)...)
		weights := src.Weights
		if len(weights) == 0 {
			weights = mesh.Weights
		}
		copy(n.MorphTargetInfluences(), weights)
	}
	return n, nil
}

// gltfNodeTRS returns the local transform of a node, decomposing its matrix when one is set.
func gltfNodeTRS(src *gltf.Node) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	if m := src.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return gltfDecompose(mgl64.Mat4(m))
	}
	rot := src.RotationOrDefault()
	return mgl64.Vec3(src.Translation),
		mgl64.Quat{W: rot[3], V: mgl64.Vec3{rot[0], rot[1], rot[2]}},
		mgl64.Vec3(src.ScaleOrDefault())
}

// gltfDecompose splits a column-major affine matrix into translation, rotation and scale.
func gltfDecompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	t := m.Col(3).Vec3()
	s := mgl64.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	if m.Det() < 0 {
		s[0] = -s[0]
	}

	rm := mgl64.Ident4()
	for c := range 3 {
		if s[c] == 0 {
			continue
		}
		col := m.Col(c).Vec3().Mul(1 / s[c])
		rm.SetCol(c, col.Vec4(0))
	}
	return t, mgl64.Mat4ToQuat(rm).Normalize(), s
}

// gltfTargetNames reads the de-facto "targetNames" mesh extra. Missing names stay empty.
func gltfTargetNames(mesh *gltf.Mesh, count int) []string {
	names := make([]string, count)
	extras, ok := mesh.Extras.(map[string]any)
	if !ok {
		return names
	}
	list, ok := extras["targetNames"].([]any)
	if !ok {
		return names
	}
	for i := 0; i < count && i < len(list); i++ {
		if s, ok := list[i].(string); ok {
			names[i] = s
		}
	}
	return names
}

// gltfCheckAcyclic rejects parent chains that loop back on themselves.
func gltfCheckAcyclic(nodes []scene.Node) error {
	for i, n := range nodes {
		steps := 0
		for p := n.Parent(); p != nil; p = p.Parent() {
			if steps++; steps > len(nodes) {
				return fmt.Errorf("node %d is part of a cycle: %w", i, ErrInvalidDocument)
			}
		}
	}
	return nil
}

// gltfNodeNames assigns every node a unique, path-safe name. Unnamed nodes become "node_<index>".
// Names listed in reserved are never handed out.
func gltfNodeNames(doc *gltf.Document, reserved ...string) []string {
	used := make(map[string]bool, len(doc.Nodes)+len(reserved))
	for _, r := range reserved {
		used[r] = true
	}

	names := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		base := track.SanitizeNodeName(n.Name)
		if base == "" {
			base = "node_" + strconv.Itoa(i)
		}
		name := base
		for suffix := 1; used[name]; suffix++ {
			name = base + "_" + strconv.Itoa(suffix)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// gltfSceneRoots returns the root node indices of the selected scene, or of every parentless node
// when the document has no scenes.
func gltfSceneRoots(doc *gltf.Document, sceneIndex int) ([]int, error) {
	if len(doc.Scenes) > 0 {
		idx := sceneIndex
		if idx < 0 {
			idx = 0
			if doc.Scene != nil {
				idx = *doc.Scene
			}
		}
		if idx >= len(doc.Scenes) {
			return nil, fmt.Errorf("scene %d out of range: %w", idx, ErrInvalidDocument)
		}
		return doc.Scenes[idx].Nodes, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}
