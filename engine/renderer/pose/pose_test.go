package pose

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestGPUTypes_Layout(t *testing.T) {
	assert.Equal(t, 16, (&GPUPoseGlobals{}).Size())
	assert.Equal(t, 112, (&GPUNodePose{}).Size())
	assert.Contains(t, GPUPoseSource, "struct NodePose")

	gp := GPUNodePose{
		Translation: [3]float32{1, 2, 3},
		Visible:     1,
		Rotation:    [4]float32{0, 0, 0, 1},
		Scale:       [3]float32{4, 5, 6},
		MorphOffset: 8,
	}
	gp.World[12] = 7
	buf := gp.Marshal()
	require.Len(t, buf, 112)
	assert.Equal(t, float32(7), f32At(buf, 48))
	assert.Equal(t, float32(1), f32At(buf, 64))
	assert.Equal(t, float32(3), f32At(buf, 72))
	assert.Equal(t, float32(1), f32At(buf, 76))
	assert.Equal(t, float32(1), f32At(buf, 92))
	assert.Equal(t, float32(6), f32At(buf, 104))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(buf[108:112]))

	g := GPUPoseGlobals{NodeCount: 3, MorphStride: 4, Time: 0.5}
	gb := g.Marshal()
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(gb[0:4]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(gb[4:8]))
	assert.Equal(t, float32(0.5), f32At(gb, 8))
}

func TestPose_MorphStride(t *testing.T) {
	plain := scene.NewNode("plain")
	face := scene.NewNode("face", scene.WithMorphTargets("a", "b", "c", "d", "e"))

	assert.Equal(t, 0, NewPose(WithNodes(plain)).MorphStride())
	assert.Equal(t, 8, NewPose(WithNodes(plain, face)).MorphStride())
	assert.Equal(t, 4, NewPose(WithNodes(plain), WithMinMorphStride(3)).MorphStride())

	p := NewPose(WithNodes(plain))
	p.SetNodes(face)
	assert.Equal(t, 8, p.MorphStride())
	assert.Len(t, p.Nodes(), 1)
}

func TestPose_StageWritesOnlyChanges(t *testing.T) {
	root := scene.NewNode("root")
	arm := scene.NewNode("arm", scene.WithMorphTargets("smile"))
	leg := scene.NewNode("leg")
	root.Add(arm, leg)

	p := NewPose(WithHierarchy(root))
	require.Len(t, p.Nodes(), 3)
	assert.Equal(t, 4, p.MorphStride())

	first := p.Stage(0)
	require.Len(t, first, 3)
	assert.Equal(t, BindingGlobals, first[0].Binding)
	assert.Equal(t, BindingNodes, first[1].Binding)
	assert.Equal(t, uint64(0), first[1].Offset)
	assert.Len(t, first[1].Data, 3*112)
	assert.Equal(t, BindingMorphs, first[2].Binding)
	assert.Len(t, first[2].Data, 3*16)

	assert.Empty(t, p.Stage(0))

	arm.SetPosition(mgl64.Vec3{1, 2, 3})
	writes := p.Stage(0)
	require.Len(t, writes, 1)
	assert.Equal(t, BindingNodes, writes[0].Binding)
	assert.Equal(t, uint64(112), writes[0].Offset)
	require.Len(t, writes[0].Data, 112)
	assert.Equal(t, float32(2), f32At(writes[0].Data, 68))

	arm.MorphTargetInfluences()[0] = 0.25
	leg.SetVisible(false)
	writes = p.Stage(1)
	require.Len(t, writes, 3)
	assert.Equal(t, BindingGlobals, writes[0].Binding)
	assert.Equal(t, float32(1), f32At(writes[0].Data, 8))
	assert.Equal(t, uint64(224), writes[1].Offset)
	assert.Equal(t, float32(0), f32At(writes[1].Data, 76))
	assert.Equal(t, BindingMorphs, writes[2].Binding)
	assert.Equal(t, uint64(16), writes[2].Offset)
	assert.Equal(t, float32(0.25), f32At(writes[2].Data, 0))
}

func TestPose_AdjacentChangesMerge(t *testing.T) {
	a, b, c := scene.NewNode("a"), scene.NewNode("b"), scene.NewNode("c")
	p := NewPose(WithNodes(a, b, c))
	p.Stage(0)

	a.SetScale(mgl64.Vec3{2, 2, 2})
	b.SetScale(mgl64.Vec3{2, 2, 2})
	writes := p.Stage(0)
	require.Len(t, writes, 1)
	assert.Equal(t, uint64(0), writes[0].Offset)
	assert.Len(t, writes[0].Data, 224)

	p.SetNodes(a, b, c)
	assert.Len(t, p.Stage(0), 2)
}

func TestPose_UploadRequiresAllocate(t *testing.T) {
	p := NewPose(WithNodes(scene.NewNode("a")))
	n, err := p.Upload(nil, 0)
	assert.ErrorIs(t, err, ErrNotAllocated)
	assert.Zero(t, n)
	assert.Nil(t, p.Buffer(BindingNodes))
	p.Release()
}
