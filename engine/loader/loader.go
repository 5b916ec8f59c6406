package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// LoaderBackendType identifies the asset file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Asset is one instance of an imported file: a fresh node tree plus the clips that animate it.
type Asset struct {
	// Name is the asset name, also the name of Root.
	Name string

	// Root is a node wrapping the roots of the imported scene. Use it as the mixer root.
	Root scene.Node

	// Nodes are the imported nodes in file order.
	Nodes []scene.Node

	// Clips are the imported animations, shared by every instance of the same file.
	Clips []*track.Clip
}

// Clip finds a clip by name.
//
// Parameters:
//   - name: the clip name
//
// Returns:
//   - *track.Clip: the clip, or nil if not found
func (a *Asset) Clip(name string) *track.Clip {
	for _, c := range a.Clips {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache map[string]*importedAsset

	sceneIndex int
	optimize   bool

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching animated assets.
// It abstracts the file format behind a generic backend. Imports are cached by path (or name, for
// readers); every Load or Instantiate returns a new node tree so several instances can be animated
// independently while sharing their clips.
type Loader interface {
	// Load imports an asset file, or reuses the cached import, and instantiates it.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the asset
	//
	// Returns:
	//   - *Asset: a new instance of the asset
	//   - error: error if loading fails
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the asset
	//   - r: the reader providing glTF JSON or GLB data
	//
	// Returns:
	//   - *Asset: a new instance of the asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*Asset, error)

	// Instantiate creates another instance of a cached asset.
	//
	// Parameters:
	//   - name: the cache key, i.e. the path or reader name used to load it
	//
	// Returns:
	//   - *Asset: a new instance
	//   - error: an error wrapping ErrNotLoaded if the asset is not cached
	Instantiate(name string) (*Asset, error)

	// Clips returns the clips of a cached asset without instantiating it.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - []*track.Clip: the clips, nil if the asset is not cached
	Clips(name string) []*track.Clip

	// Names returns the cache keys of all loaded assets, sorted.
	//
	// Returns:
	//   - []string: the cache keys
	Names() []string

	// Evict drops an asset from the cache. Existing instances stay valid.
	//
	// Parameters:
	//   - name: the cache key
	Evict(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache:      make(map[string]*importedAsset),
		sceneIndex: -1,
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(newGLTFImporter(l.sceneIndex, l.optimize))
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	l.mu.RLock()
	cached, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return l.backend.Instantiate(cached)
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.cache[path] = imported
	l.mu.Unlock()

	return backend.Instantiate(imported)
}

func (l *loader) LoadReader(name string, r io.Reader) (*Asset, error) {
	if l.backend == nil {
		return nil, fmt.Errorf("loader has no backend: %w", ErrUnsupportedFormat)
	}

	imported, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = imported
	l.mu.Unlock()

	return l.backend.Instantiate(imported)
}

func (l *loader) Instantiate(name string) (*Asset, error) {
	l.mu.RLock()
	cached, ok := l.cache[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotLoaded)
	}
	return l.backend.Instantiate(cached)
}

func (l *loader) Clips(name string) []*track.Clip {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if cached, ok := l.cache[name]; ok {
		return cached.clips
	}
	return nil
}

func (l *loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.cache))
	for k := range l.cache {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, name)
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend != nil {
			return l.backend, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
}
