package loader

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// testDocument builds a small rig: a translated hip with a morphing child, a matrix node and a
// skinned node, plus one "walk" animation and one empty animation.
func testDocument() *gltf.Document {
	doc := &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0"},
		Buffers: []*gltf.Buffer{{}},
	}

	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 1})
	translations := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {2, 0, 0}})
	rotations := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{{0, 0, 0, 1}, {0, 0, 1, 0}})
	weights := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 0, 1, 0.5})

	doc.Materials = []*gltf.Material{{Name: "Skin"}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "face",
		Primitives: []*gltf.Primitive{{
			Material: gltf.Index(0),
			Targets:  []gltf.PrimitiveAttributes{{}, {}},
		}},
		Weights: []float64{0.25, 0.5},
		Extras:  map[string]any{"targetNames": []any{"smile", "blink"}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "Hips Bone", Children: []int{1}, Translation: [3]float64{0, 1, 0}},
		{Name: "Hips Bone", Mesh: gltf.Index(0)},
		{Matrix: [16]float64{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 5, 6, 7, 1}},
		{Name: "skinned", Skin: gltf.Index(0)},
	}
	doc.Skins = []*gltf.Skin{{Joints: []int{0, 1}}}
	doc.Scenes = []*gltf.Scene{{Name: "Level One", Nodes: []int{0, 2, 3}}}
	doc.Scene = gltf.Index(0)

	doc.Animations = []*gltf.Animation{
		{
			Name: "walk",
			Samplers: []*gltf.AnimationSampler{
				{Input: times, Output: translations},
				{Input: times, Output: rotations},
				{Input: times, Output: weights, Interpolation: gltf.InterpolationStep},
			},
			Channels: []*gltf.AnimationChannel{
				{Sampler: 0, Target: gltf.AnimationChannelTarget{Node: gltf.Index(0), Path: gltf.TRSTranslation}},
				{Sampler: 1, Target: gltf.AnimationChannelTarget{Node: gltf.Index(1), Path: gltf.TRSRotation}},
				{Sampler: 2, Target: gltf.AnimationChannelTarget{Node: gltf.Index(1), Path: gltf.TRSWeights}},
			},
		},
		{},
	}
	return doc
}

func importTest(t *testing.T, doc *gltf.Document) *Asset {
	t.Helper()
	imp := newGLTFImporter(-1, false)
	imported, err := imp.Import(doc, "rig.glb")
	require.NoError(t, err)
	asset, err := imp.Instantiate(imported)
	require.NoError(t, err)
	return asset
}

func TestImport_Hierarchy(t *testing.T) {
	asset := importTest(t, testDocument())

	assert.Equal(t, "Level_One", asset.Name)
	assert.Equal(t, "Level_One", asset.Root.Name())
	require.Len(t, asset.Nodes, 4)
	assert.Equal(t, []scene.Node{asset.Nodes[0], asset.Nodes[2], asset.Nodes[3]}, asset.Root.Children())

	hips, face, matrix, skinned := asset.Nodes[0], asset.Nodes[1], asset.Nodes[2], asset.Nodes[3]
	assert.Equal(t, "Hips_Bone", hips.Name())
	assert.Equal(t, "Hips_Bone_1", face.Name())
	assert.Equal(t, "node_2", matrix.Name())
	assert.Equal(t, hips, face.Parent())

	assert.Equal(t, mgl64.Vec3{0, 1, 0}, hips.Position())
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, hips.Scale())
	assert.True(t, hips.Quaternion().ApproxEqual(mgl64.QuatIdent()))

	assert.Equal(t, mgl64.Vec3{5, 6, 7}, matrix.Position())
	assert.True(t, matrix.Scale().ApproxEqual(mgl64.Vec3{2, 2, 2}))
	assert.True(t, matrix.Quaternion().ApproxEqual(mgl64.QuatIdent()))

	assert.Equal(t, map[string]int{"smile": 0, "blink": 1}, face.MorphTargetDictionary())
	assert.Equal(t, []float64{0.25, 0.5}, face.MorphTargetInfluences())
	require.Len(t, face.Materials(), 1)
	assert.Equal(t, "Skin", face.Materials()[0].Name())
	assert.Equal(t, 1.0, face.Materials()[0].Opacity())

	require.NotNil(t, skinned.Skeleton())
	assert.Equal(t, []scene.Node{hips, face}, skinned.Skeleton().Bones())
}

func TestImport_Clips(t *testing.T) {
	asset := importTest(t, testDocument())

	require.Len(t, asset.Clips, 1, "empty animations are skipped")
	walk := asset.Clip("walk")
	require.NotNil(t, walk)
	assert.Nil(t, asset.Clip("run"))
	assert.Equal(t, 1.0, walk.Duration())

	tracks := walk.Tracks()
	require.Len(t, tracks, 3)
	assert.Equal(t, "Hips_Bone.position", tracks[0].Name())
	assert.Equal(t, track.ValueTypeVector, tracks[0].ValueType())
	assert.Equal(t, "Hips_Bone_1.quaternion", tracks[1].Name())
	assert.Equal(t, track.ValueTypeQuaternion, tracks[1].ValueType())
	assert.Equal(t, "Hips_Bone_1.morphTargetInfluences", tracks[2].Name())
	assert.Equal(t, track.InterpolationDiscrete, tracks[2].Interpolation())
	assert.Equal(t, 2, tracks[2].ValueSize())
}

func TestImport_PlaysOnMixer(t *testing.T) {
	asset := importTest(t, testDocument())
	hips, face := asset.Nodes[0], asset.Nodes[1]

	m := mixer.NewMixer(asset.Root)
	m.ClipAction(asset.Clip("walk"), nil,
		mixer.WithLoop(mixer.LoopOnce, 1),
		mixer.WithClampWhenFinished(true),
	).Play()

	m.Update(0.5)
	assert.InDelta(t, 1.0, hips.Position().X(), 1e-6)
	assert.Equal(t, []float64{0, 0}, face.MorphTargetInfluences())

	m.Update(0.75)
	assert.InDelta(t, 2.0, hips.Position().X(), 1e-6)
	assert.InDelta(t, 1.0, face.MorphTargetInfluences()[0], 1e-6)
	assert.InDelta(t, 0.5, face.MorphTargetInfluences()[1], 1e-6)
	assert.InDelta(t, 1.0, face.Quaternion().V.Z(), 1e-6)
}

func TestImport_Errors(t *testing.T) {
	t.Run("sampler out of range", func(t *testing.T) {
		doc := testDocument()
		doc.Animations[0].Channels[0].Sampler = 9
		_, err := newGLTFImporter(-1, false).Import(doc, "")
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("vector timestamps", func(t *testing.T) {
		doc := testDocument()
		doc.Animations[0].Samplers[0].Input = doc.Animations[0].Samplers[0].Output
		_, err := newGLTFImporter(-1, false).Import(doc, "")
		assert.ErrorIs(t, err, ErrUnsupportedAccessor)
	})

	t.Run("mismatched key count", func(t *testing.T) {
		doc := testDocument()
		doc.Animations[0].Samplers[0].Output = modeler.WriteAccessor(doc, gltf.TargetNone, []float32{1, 2, 3})
		_, err := newGLTFImporter(-1, false).Import(doc, "")
		assert.ErrorIs(t, err, track.ErrInvalidTrack)
	})

	t.Run("scene out of range", func(t *testing.T) {
		_, err := newGLTFImporter(5, false).Import(testDocument(), "")
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("cycle", func(t *testing.T) {
		doc := testDocument()
		doc.Nodes[1].Children = []int{0}
		doc.Scenes[0].Nodes = []int{2}
		imp := newGLTFImporter(-1, false)
		imported, err := imp.Import(doc, "")
		require.NoError(t, err)
		_, err = imp.Instantiate(imported)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("two parents", func(t *testing.T) {
		doc := testDocument()
		doc.Nodes[2].Children = []int{1}
		imp := newGLTFImporter(-1, false)
		imported, err := imp.Import(doc, "")
		require.NoError(t, err)
		_, err = imp.Instantiate(imported)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestExtractAnimation_Empty(t *testing.T) {
	doc := testDocument()
	ex := newGLTFAnimationExtractor(doc, []string{"a", "b", "c", "d"})

	clip, err := ex.ExtractAnimation(1)
	assert.Nil(t, clip)
	assert.ErrorIs(t, err, ErrEmptyAnimation)

	clips, err := ex.ExtractAllAnimations()
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, "walk", clips[0].Name())
}

func TestReadFloats_Normalized(t *testing.T) {
	doc := &gltf.Document{Buffers: []*gltf.Buffer{{}}}
	u := modeler.WriteAccessor(doc, gltf.TargetNone, []uint8{0, 51, 255})
	s := modeler.WriteAccessor(doc, gltf.TargetNone, []int8{-128, 0, 127})
	doc.Accessors[u].Normalized = true
	doc.Accessors[s].Normalized = true

	values, components, err := gltfReadFloats(doc, u)
	require.NoError(t, err)
	assert.Equal(t, 1, components)
	assert.InDeltaSlice(t, []float64{0, 0.2, 1}, values, 1e-9)

	values, _, err = gltfReadFloats(doc, s)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, values, 1e-9)

	_, _, err = gltfReadFloats(doc, 7)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestLoader_ReaderCacheAndInstances(t *testing.T) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(testDocument()))

	l := NewLoader(BackendTypeGLTF, WithOptimize(true))
	first, err := l.LoadReader("walker", &buf)
	require.NoError(t, err)
	assert.Equal(t, "Level_One", first.Name)
	require.Len(t, first.Clips, 1)

	second, err := l.Instantiate("walker")
	require.NoError(t, err)
	assert.NotEqual(t, first.Root.ID(), second.Root.ID())
	assert.Same(t, first.Clips[0], second.Clips[0])
	assert.Equal(t, []string{"walker"}, l.Names())
	assert.Len(t, l.Clips("walker"), 1)

	l.Evict("walker")
	_, err = l.Instantiate("walker")
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Nil(t, l.Clips("walker"))

	_, err = l.Load("model.fbx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
