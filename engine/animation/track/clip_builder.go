package track

// ClipBuilderOption is a functional option for configuring a Clip during construction.
type ClipBuilderOption func(*Clip)

// WithBlendMode is an option builder that sets the default blend mode of the Clip.
//
// Parameters:
//   - mode: the blend mode actions created from the clip use unless overridden
//
// Returns:
//   - ClipBuilderOption: a function that applies the blend mode option to a clip
func WithBlendMode(mode BlendMode) ClipBuilderOption {
	return func(c *Clip) {
		c.blendMode = mode
	}
}
