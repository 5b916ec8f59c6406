package loader

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	doc       *gltf.Document
	nodeNames []string
}

// gltfAnimationExtractor converts glTF animations into clips.
// Channels target nodes by the unique names assigned by the node extractor, so the clips bind
// against any instance of the same document.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - *track.Clip: the extracted clip
	//   - error: ErrEmptyAnimation if no channel could be used, or the extraction error
	ExtractAnimation(animIndex int) (*track.Clip, error)

	// ExtractAllAnimations extracts every animation from the document, skipping empty ones.
	//
	// Returns:
	//   - []*track.Clip: all extracted clips
	//   - error: error if extraction fails
	ExtractAllAnimations() ([]*track.Clip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor.
//
// Parameters:
//   - doc: the decoded document
//   - nodeNames: the unique node names, indexed like doc.Nodes
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(doc *gltf.Document, nodeNames []string) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{doc: doc, nodeNames: nodeNames}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (*track.Clip, error) {
	if animIndex < 0 || animIndex >= len(e.doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range: %w", animIndex, ErrInvalidDocument)
	}
	anim := e.doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	tracks := make([]*track.Track, 0, len(anim.Channels))
	for i, ch := range anim.Channels {
		// Channels without a node belong to extensions such as KHR_animation_pointer.
		if ch.Target.Node == nil {
			common.Logger().Warn().Str("animation", name).Int("channel", i).Msg("channel without target node skipped")
			continue
		}
		nodeIndex := *ch.Target.Node
		if nodeIndex < 0 || nodeIndex >= len(e.nodeNames) {
			return nil, fmt.Errorf("animation %q channel %d: node %d out of range: %w", name, i, nodeIndex, ErrInvalidDocument)
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d: %w", name, i, ch.Sampler, ErrInvalidDocument)
		}
		sampler := anim.Samplers[ch.Sampler]

		times, err := gltfReadScalars(e.doc, sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		values, _, err := gltfReadFloats(e.doc, sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read values: %w", name, i, err)
		}

		interpolation := gltfInterpolation(sampler.Interpolation)
		nodeName := e.nodeNames[nodeIndex]

		var t *track.Track
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			t, err = track.NewVectorTrack(nodeName+".position", times, values, interpolation)
		case gltf.TRSRotation:
			t, err = track.NewQuaternionTrack(nodeName+".quaternion", times, values, interpolation)
		case gltf.TRSScale:
			t, err = track.NewVectorTrack(nodeName+".scale", times, values, interpolation)
		case gltf.TRSWeights:
			t, err = track.NewVectorTrack(nodeName+".morphTargetInfluences", times, values, interpolation)
		default:
			common.Logger().Warn().Str("animation", name).Int("channel", i).Str("path", fmt.Sprint(ch.Target.Path)).Msg("unknown channel path skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
		tracks = append(tracks, t)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("animation %q: %w", name, ErrEmptyAnimation)
	}
	return track.NewClip(name, -1, tracks), nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]*track.Clip, error) {
	clips := make([]*track.Clip, 0, len(e.doc.Animations))
	for i := range e.doc.Animations {
		clip, err := e.ExtractAnimation(i)
		if errors.Is(err, ErrEmptyAnimation) {
			common.Logger().Warn().Int("animation", i).Msg("animation has no usable channels")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// gltfInterpolation maps a glTF sampler interpolation to a track interpolation.
func gltfInterpolation(i gltf.Interpolation) track.Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return track.InterpolationDiscrete
	case gltf.InterpolationCubicSpline:
		return track.InterpolationCubicSpline
	default:
		return track.InterpolationLinear
	}
}
