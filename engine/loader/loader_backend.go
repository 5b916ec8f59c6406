package loader

import "io"

// loaderBackend defines the generic interface for importing animated assets from files or streams.
// Concrete implementations (e.g., gltfLoaderBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Load imports the asset at the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *importedAsset: the imported asset
	//   - error: error if loading fails
	Load(path string) (*importedAsset, error)

	// LoadReader imports an asset from a reader stream. External resources cannot be resolved.
	//
	// Parameters:
	//   - name: the name used when the asset names no scene
	//   - r: the reader providing the asset data
	//
	// Returns:
	//   - *importedAsset: the imported asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*importedAsset, error)

	// Instantiate builds a fresh scene graph for an asset this backend imported.
	//
	// Parameters:
	//   - a: the imported asset
	//
	// Returns:
	//   - *Asset: the new instance
	//   - error: error if instantiation fails
	Instantiate(a *importedAsset) (*Asset, error)
}
