package interpolant

// InterpolantBuilderOption is a functional option for configuring an Interpolant during construction.
type InterpolantBuilderOption func(*interpolant)

// WithSettings is an option builder that shares ending settings with the Interpolant.
// A nil settings pointer keeps the defaults (zero curvature at both ends).
//
// Parameters:
//   - settings: the shared settings
//
// Returns:
//   - InterpolantBuilderOption: a function that applies the settings option to an interpolant
func WithSettings(settings *Settings) InterpolantBuilderOption {
	return func(ip *interpolant) {
		ip.settings = settings
	}
}

// WithResultBuffer is an option builder that makes the Interpolant write into a caller-owned buffer.
// Mixers use this to evaluate straight into a property mixer's incoming region.
//
// Parameters:
//   - buf: the result buffer, at least ValueSize long
//
// Returns:
//   - InterpolantBuilderOption: a function that applies the result buffer option to an interpolant
func WithResultBuffer(buf []float64) InterpolantBuilderOption {
	return func(ip *interpolant) {
		ip.result = buf
	}
}

// WithNormalize is an option builder that renormalizes quaternion results of smooth and cubic spline
// interpolation. Ignored by the other kinds.
//
// Parameters:
//   - normalize: true for quaternion-valued data
//
// Returns:
//   - InterpolantBuilderOption: a function that applies the normalize option to an interpolant
func WithNormalize(normalize bool) InterpolantBuilderOption {
	return func(ip *interpolant) {
		ip.normalize = normalize
	}
}
