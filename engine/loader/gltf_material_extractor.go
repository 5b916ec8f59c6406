package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	doc   *gltf.Document
	cache map[int]scene.Material
}

// gltfMaterialExtractor creates animatable scene materials from glTF materials.
// Textures are not loaded; only the factors an animation can drive are kept.
type gltfMaterialExtractor interface {
	// ExtractMaterial returns the material at materialIndex, creating it on first use.
	// Nodes of one instance that reference the same glTF material share one scene.Material.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - scene.Material: the material
	//   - error: error if the index is out of range
	ExtractMaterial(materialIndex int) (scene.Material, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for one instantiation.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(doc *gltf.Document) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{doc: doc, cache: make(map[int]scene.Material)}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (scene.Material, error) {
	if m, ok := e.cache[materialIndex]; ok {
		return m, nil
	}
	if materialIndex < 0 || materialIndex >= len(e.doc.Materials) {
		return nil, fmt.Errorf("material index %d out of range: %w", materialIndex, ErrInvalidDocument)
	}
	src := e.doc.Materials[materialIndex]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("material_%d", materialIndex)
	}

	base := [4]float64{1, 1, 1, 1}
	metallic, roughness := 1.0, 1.0
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		base = pbr.BaseColorFactorOrDefault()
		metallic = pbr.MetallicFactorOrDefault()
		roughness = pbr.RoughnessFactorOrDefault()
	}

	m := scene.NewMaterial(name,
		scene.WithColor(mgl64.Vec3{base[0], base[1], base[2]}),
		scene.WithOpacity(base[3]),
		scene.WithMetallicRoughness(metallic, roughness),
		scene.WithUniform("emissive", src.EmissiveFactor[0], src.EmissiveFactor[1], src.EmissiveFactor[2]),
	)
	e.cache[materialIndex] = m
	return m, nil
}
