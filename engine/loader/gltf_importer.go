package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// importedAsset is the immutable, cacheable result of importing a document.
// Every instantiation builds a fresh node tree; clips are shared.
type importedAsset struct {
	name      string
	doc       *gltf.Document
	nodeNames []string
	roots     []int
	clips     []*track.Clip
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	sceneIndex int
	optimize   bool
}

// gltfImporter orchestrates the extractors over a decoded document.
type gltfImporter interface {
	// Import names the nodes and extracts the clips of a decoded document.
	//
	// Parameters:
	//   - doc: the decoded document
	//   - fallbackPath: file path or cache name used when the document names no scene
	//
	// Returns:
	//   - *importedAsset: the imported asset
	//   - error: error if import fails
	Import(doc *gltf.Document, fallbackPath string) (*importedAsset, error)

	// Instantiate builds a new scene graph for an imported asset.
	//
	// Parameters:
	//   - a: the imported asset
	//
	// Returns:
	//   - *Asset: the new instance
	//   - error: error if the node graph is invalid
	Instantiate(a *importedAsset) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - sceneIndex: the scene to instantiate, negative for the document's default scene
//   - optimize: whether to drop redundant keys from extracted tracks
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(sceneIndex int, optimize bool) gltfImporter {
	return &gltfImporterImpl{sceneIndex: sceneIndex, optimize: optimize}
}

func (imp *gltfImporterImpl) Import(doc *gltf.Document, fallbackPath string) (*importedAsset, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing: %w", ErrInvalidDocument)
	}

	name := gltfExtractModelName(doc, fallbackPath)
	roots, err := gltfSceneRoots(doc, imp.sceneIndex)
	if err != nil {
		return nil, err
	}
	for _, r := range roots {
		if r < 0 || r >= len(doc.Nodes) {
			return nil, fmt.Errorf("scene root %d out of range: %w", r, ErrInvalidDocument)
		}
	}

	nodeNames := gltfNodeNames(doc, name)
	clips, err := newGLTFAnimationExtractor(doc, nodeNames).ExtractAllAnimations()
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}
	if imp.optimize {
		for i, c := range clips {
			clips[i] = c.Optimize()
		}
	}

	common.Logger().Info().
		Str("asset", name).
		Int("nodes", len(doc.Nodes)).
		Int("clips", len(clips)).
		Msg("glTF imported")

	return &importedAsset{
		name:      name,
		doc:       doc,
		nodeNames: nodeNames,
		roots:     roots,
		clips:     clips,
	}, nil
}

func (imp *gltfImporterImpl) Instantiate(a *importedAsset) (*Asset, error) {
	nodes, err := newGLTFNodeExtractor(a.doc, a.nodeNames).ExtractNodes()
	if err != nil {
		return nil, fmt.Errorf("node extraction failed: %w", err)
	}

	root := scene.NewNode(a.name)
	for _, r := range a.roots {
		if nodes[r].Parent() != nil {
			return nil, fmt.Errorf("scene root %d has a parent: %w", r, ErrInvalidDocument)
		}
		root.Add(nodes[r])
	}

	return &Asset{
		Name:  a.name,
		Root:  root,
		Nodes: nodes,
		Clips: a.clips,
	}, nil
}

// gltfExtractModelName derives an asset name from the scene name or a file path fallback.
func gltfExtractModelName(doc *gltf.Document, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := track.SanitizeNodeName(doc.Scenes[*doc.Scene].Name); name != "" {
			return name
		}
	}

	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		if name := track.SanitizeNodeName(strings.TrimSuffix(base, filepath.Ext(base))); name != "" {
			return name
		}
	}

	return "unnamed_model"
}
