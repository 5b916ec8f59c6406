package loader

import "errors"

var (
	// ErrUnsupportedAccessor is returned when an accessor's type or component type cannot be used for
	// the data it feeds, e.g. a matrix accessor as keyframe times.
	ErrUnsupportedAccessor = errors.New("unsupported accessor")

	// ErrInvalidDocument is returned when indices inside a document point nowhere or the node graph is
	// not a forest.
	ErrInvalidDocument = errors.New("invalid glTF document")

	// ErrUnsupportedFormat is returned for files that are neither .gltf nor .glb.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrEmptyAnimation is returned when none of an animation's channels can be turned into a track.
	ErrEmptyAnimation = errors.New("animation has no usable channels")

	// ErrNotLoaded is returned by Instantiate for names that were never loaded.
	ErrNotLoaded = errors.New("asset not loaded")
)
