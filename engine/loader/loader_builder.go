package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithSceneIndex is an option builder that selects which glTF scene is instantiated.
// By default the document's own default scene is used.
//
// Parameters:
//   - index: the scene index
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithSceneIndex(index int) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneIndex = index
	}
}

// WithOptimize is an option builder that drops redundant keys from imported clips.
//
// Parameters:
//   - optimize: true to optimize clips at import
//
// Returns:
//   - LoaderBuilderOption: a function that applies the optimize option to a loader
func WithOptimize(optimize bool) LoaderBuilderOption {
	return func(l *loader) {
		l.optimize = optimize
	}
}
