package loader

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
)

// gltfLoaderBackendImpl is the loaderBackend for glTF and GLB files.
// Decoding is done by qmuntal/gltf; extraction is delegated to the gltfImporter.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

var _ loaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - importer: the importer that turns decoded documents into assets
//
// Returns:
//   - loaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(importer gltfImporter) loaderBackend {
	return &gltfLoaderBackendImpl{importer: importer}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*importedAsset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return b.importer.Import(doc, path)
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader) (*importedAsset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return b.importer.Import(doc, name)
}

func (b *gltfLoaderBackendImpl) Instantiate(a *importedAsset) (*Asset, error) {
	return b.importer.Instantiate(a)
}
