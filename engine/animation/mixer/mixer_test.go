package mixer

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

type vec struct {
	v []float64
}

func (p *vec) Len() int                         { return len(p.v) }
func (p *vec) ToArray(dst []float64, off int)   { copy(dst[off:off+len(p.v)], p.v) }
func (p *vec) FromArray(src []float64, off int) { copy(p.v, src[off:off+len(p.v)]) }
func (p *vec) Element(i int) *float64           { return &p.v[i] }

type testNode struct {
	id         uint64
	name       string
	position   vec
	quaternion vec
	opacity    float64
	visible    bool
	label      string
	children   []*testNode
	writes     int
}

func newTestNode(id uint64, name string) *testNode {
	return &testNode{
		id:         id,
		name:       name,
		position:   vec{v: []float64{0, 0, 0}},
		quaternion: vec{v: []float64{0, 0, 0, 1}},
	}
}

func (n *testNode) AnimatedProperty(name string) (binding.Property, bool) {
	switch name {
	case "position":
		return binding.Packed{Value: &n.position, Names: map[string]int{"x": 0, "y": 1, "z": 2}}, true
	case "quaternion":
		return binding.Packed{Value: &n.quaternion}, true
	case "opacity":
		return binding.Number{Ptr: &n.opacity}, true
	case "visible":
		return binding.Bool{Ptr: &n.visible}, true
	case "label":
		return binding.String{Ptr: &n.label}, true
	}
	return nil, false
}

func (n *testNode) SetMatrixWorldNeedsUpdate() { n.writes++ }

func (n *testNode) RootID() uint64 { return n.id }

func (n *testNode) FindNode(name string) (binding.Object, bool) {
	if n.name == name {
		return n, true
	}
	for _, c := range n.children {
		if found, ok := c.FindNode(name); ok {
			return found, true
		}
	}
	return nil, false
}

func vectorTrack(t *testing.T, name string, times []float64, values ...float64) *track.Track {
	t.Helper()
	tr, err := track.NewVectorTrack(name, times, values, track.InterpolationLinear)
	require.NoError(t, err)
	return tr
}

func numberTrack(t *testing.T, name string, times []float64, values ...float64) *track.Track {
	t.Helper()
	tr, err := track.NewNumberTrack(name, times, values, track.InterpolationLinear)
	require.NoError(t, err)
	return tr
}

func quaternionTrack(t *testing.T, name string, times []float64, qs ...mgl64.Quat) *track.Track {
	t.Helper()
	values := make([]float64, 0, 4*len(qs))
	for _, q := range qs {
		values = append(values, q.V[0], q.V[1], q.V[2], q.W)
	}
	tr, err := track.NewQuaternionTrack(name, times, values, track.InterpolationLinear)
	require.NoError(t, err)
	return tr
}

func clipOf(name string, tracks ...*track.Track) *track.Clip {
	return track.NewClip(name, -1, tracks)
}

// constantPosition is a one second clip holding the root position at (x, y, z).
func constantPosition(t *testing.T, name string, x, y, z float64) *track.Clip {
	return clipOf(name, vectorTrack(t, ".position", []float64{0, 1}, x, y, z, x, y, z))
}

func quatOf(v []float64) mgl64.Quat {
	return mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}
}

func TestMixer_IdentityLaw(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("move", vectorTrack(t, ".position", []float64{0, 2}, 0, 0, 0, 4, 8, 12))

	m.ClipAction(clip, nil).Play()
	m.Update(0.5)

	assert.InDeltaSlice(t, []float64{1, 2, 3}, root.position.v, 1e-12)
}

func TestMixer_EqualWeightsBlendToMidpoint(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		root := newTestNode(1, "root")
		m := NewMixer(root)
		a := m.ClipAction(constantPosition(t, "a", 0, 0, 0), nil).SetEffectiveWeight(0.5)
		b := m.ClipAction(constantPosition(t, "b", 2, 4, 6), nil).SetEffectiveWeight(0.5)
		if reversed {
			b.Play()
			a.Play()
		} else {
			a.Play()
			b.Play()
		}
		m.Update(0.1)
		assert.InDeltaSlice(t, []float64{1, 2, 3}, root.position.v, 1e-12, "reversed=%v", reversed)
	}
}

func TestMixer_QuaternionMidpointOrderIndependent(t *testing.T) {
	quarter := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})

	for _, reversed := range []bool{false, true} {
		root := newTestNode(1, "root")
		m := NewMixer(root)
		id := clipOf("id", quaternionTrack(t, ".quaternion", []float64{0, 1}, mgl64.QuatIdent(), mgl64.QuatIdent()))
		turned := clipOf("turned", quaternionTrack(t, ".quaternion", []float64{0, 1}, quarter, quarter))
		a := m.ClipAction(id, nil).SetEffectiveWeight(0.5)
		b := m.ClipAction(turned, nil).SetEffectiveWeight(0.5)
		if reversed {
			b.Play()
			a.Play()
		} else {
			a.Play()
			b.Play()
		}
		m.Update(0.1)
		assert.True(t, quatOf(root.quaternion.v).ApproxEqualThreshold(want, 1e-9), "reversed=%v got %v", reversed, root.quaternion.v)
	}
}

func TestMixer_SlerpHalfway(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	quarter := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	clip := clipOf("turn", quaternionTrack(t, ".quaternion", []float64{0, 1}, mgl64.QuatIdent(), quarter))

	m.ClipAction(clip, nil).Play()
	m.Update(0.5)

	want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	got := quatOf(root.quaternion.v)
	assert.True(t, got.ApproxEqualThreshold(want, 1e-9), "got %v", root.quaternion.v)
	assert.InDelta(t, 1.0, got.Len(), 1e-12)
}

func TestMixer_PartialWeightMixesOriginal(t *testing.T) {
	root := newTestNode(1, "root")
	root.opacity = 1
	m := NewMixer(root)
	clip := clipOf("fade", numberTrack(t, ".opacity", []float64{0, 1}, 0, 0))

	m.ClipAction(clip, nil).SetEffectiveWeight(0.25).Play()
	m.Update(0.1)

	assert.InDelta(t, 0.75, root.opacity, 1e-12)
}

func TestMixer_AdditiveLayersOnTop(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	base := constantPosition(t, "base", 1, 0, 0)
	lean := constantPosition(t, "lean", 0, 2, 0)

	m.ClipAction(base, nil).Play()
	m.ClipAction(lean, nil, WithBlendMode(track.BlendModeAdditive), WithWeight(0.5)).Play()
	m.Update(0.1)

	assert.InDeltaSlice(t, []float64{1, 1, 0}, root.position.v, 1e-12)
}

func TestMixer_AdditiveQuaternionComposes(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	quarter := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	base := clipOf("base", quaternionTrack(t, ".quaternion", []float64{0, 1}, quarter, quarter))
	extra := clipOf("extra", quaternionTrack(t, ".quaternion", []float64{0, 1}, quarter, quarter))

	m.ClipAction(base, nil).Play()
	m.ClipAction(extra, nil, WithBlendMode(track.BlendModeAdditive)).Play()
	m.Update(0.1)

	want := mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 0, 1})
	assert.True(t, quatOf(root.quaternion.v).ApproxEqualThreshold(want, 1e-9), "got %v", root.quaternion.v)
}

func TestMixer_AdditiveWeightExtrapolates(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	y := mgl64.Vec3{0, 1, 0}
	turn := mgl64.QuatRotate(math.Pi/8, y)
	offset := clipOf("offset",
		quaternionTrack(t, ".quaternion", []float64{0, 1}, turn, turn),
		vectorTrack(t, ".position", []float64{0, 1}, 1, 0, 0, 1, 0, 0),
	)

	m.ClipAction(offset, nil, WithBlendMode(track.BlendModeAdditive), WithWeight(2)).Play()
	m.Update(0.1)

	assert.InDeltaSlice(t, []float64{2, 0, 0}, root.position.v, 1e-12)
	want := mgl64.QuatRotate(math.Pi/4, y)
	assert.True(t, quatOf(root.quaternion.v).ApproxEqualThreshold(want, 1e-9), "got %v", root.quaternion.v)
}

func TestMixer_SmoothQuaternionStaysUnit(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	y := mgl64.Vec3{0, 1, 0}
	var values []float64
	for _, angle := range []float64{0, math.Pi / 2, math.Pi} {
		q := mgl64.QuatRotate(angle, y)
		values = append(values, q.V[0], q.V[1], q.V[2], q.W)
	}
	tr, err := track.NewQuaternionTrack(".quaternion", []float64{0, 1, 2}, values, track.InterpolationSmooth)
	require.NoError(t, err)

	m.ClipAction(clipOf("turn", tr), nil).Play()
	for _, dt := range []float64{0.5, 1} {
		m.Update(dt)
		assert.InDelta(t, 1.0, quatOf(root.quaternion.v).Len(), 1e-12, "t=%v", m.Time())
	}
	want := mgl64.QuatRotate(3*math.Pi/4, y)
	assert.True(t, quatOf(root.quaternion.v).ApproxEqualThreshold(want, 1e-9), "got %v", root.quaternion.v)
}

func TestMixer_CrossFadeWeights(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	a := m.ClipAction(constantPosition(t, "a", 0, 0, 0), nil).Play()
	b := m.ClipAction(constantPosition(t, "b", 4, 0, 0), nil).Play()
	a.CrossFadeTo(b, 1, false)
	assert.Equal(t, 2, m.Stats().ControlInterpolants.InUse)

	m.Update(0.25)
	assert.InDelta(t, 0.75, a.EffectiveWeight(), 1e-12)
	assert.InDelta(t, 0.25, b.EffectiveWeight(), 1e-12)
	assert.InDelta(t, 1.0, root.position.v[0], 1e-12)

	m.Update(0.25)
	assert.InDelta(t, 0.5, a.EffectiveWeight(), 1e-12)
	assert.InDelta(t, 0.5, b.EffectiveWeight(), 1e-12)
	assert.InDelta(t, 2.0, root.position.v[0], 1e-12)

	m.Update(0.5)
	assert.False(t, a.Enabled())
	assert.Equal(t, 0.0, a.EffectiveWeight())
	assert.Equal(t, 1.0, b.EffectiveWeight())
	assert.InDelta(t, 4.0, root.position.v[0], 1e-12)
	assert.Equal(t, 0, m.Stats().ControlInterpolants.InUse)
	assert.Equal(t, 2, m.Stats().ControlInterpolants.Total)
}

func TestMixer_CrossFadeWithWarp(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	short := clipOf("short", vectorTrack(t, ".position", []float64{0, 1}, 0, 0, 0, 0, 0, 0))
	long := clipOf("long", vectorTrack(t, ".position", []float64{0, 2}, 0, 0, 0, 0, 0, 0))
	a := m.ClipAction(short, nil).Play()
	b := m.ClipAction(long, nil).Play()

	b.CrossFadeFrom(a, 1, true)
	m.Update(0)

	assert.InDelta(t, 1.0, a.EffectiveTimeScale(), 1e-12)
	assert.InDelta(t, 2.0, b.EffectiveTimeScale(), 1e-12)

	m.Update(1.5)
	assert.InDelta(t, 0.5, a.TimeScale(), 1e-12)
	assert.InDelta(t, 1.0, b.TimeScale(), 1e-12)
}

func TestMixer_FadeOutDisablesInSameTick(t *testing.T) {
	root := newTestNode(1, "root")
	root.position.v[0] = 7
	m := NewMixer(root)
	a := m.ClipAction(constantPosition(t, "a", 1, 1, 1), nil).Play()

	m.Update(0.1)
	assert.Equal(t, []float64{1, 1, 1}, root.position.v)

	a.FadeOut(0.5)
	m.Update(0.75)
	assert.False(t, a.Enabled())
	assert.True(t, a.IsScheduled())
	assert.Equal(t, []float64{7, 0, 0}, root.position.v)
}

func TestMixer_FadeOutEndingOnTickDisables(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	a := m.ClipAction(constantPosition(t, "a", 1, 1, 1), nil).Play()
	m.Update(0.25)

	a.FadeOut(0.5)
	m.Update(0.5)
	assert.Equal(t, 0.0, a.EffectiveWeight())
	assert.False(t, a.Enabled())
	assert.Equal(t, 0, m.Stats().ControlInterpolants.InUse)
}

func TestMixer_WarpEndingOnTickSettles(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	a := m.ClipAction(constantPosition(t, "a", 1, 1, 1), nil).Play()
	m.Update(0.25)

	a.Warp(1, 3, 0.5)
	m.Update(0.5)
	assert.Equal(t, 3.0, a.TimeScale())
	assert.Equal(t, 0, m.Stats().ControlInterpolants.InUse)
}

func TestMixer_LoopWrapEmitsOneEvent(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 2}, 0, 2))

	var mixerEvents, actionEvents []Event
	m.AddEventListener(EventLoop, func(e Event) { mixerEvents = append(mixerEvents, e) })
	a := m.ClipAction(clip, nil).Play()
	a.OnLoop(func(e Event) { actionEvents = append(actionEvents, e) })

	m.Update(2.5)

	assert.InDelta(t, 0.5, a.Time(), 1e-12)
	assert.InDelta(t, 0.5, root.opacity, 1e-12)
	require.Len(t, mixerEvents, 1)
	require.Len(t, actionEvents, 1)
	assert.Equal(t, EventLoop, mixerEvents[0].Type)
	assert.Equal(t, 1, mixerEvents[0].LoopDelta)
	assert.Equal(t, 1, mixerEvents[0].Direction)
	assert.Same(t, a, mixerEvents[0].Action)
}

func TestMixer_BackwardWrap(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 1}, 0, 1))

	var events []Event
	m.AddEventListener(EventLoop, func(e Event) { events = append(events, e) })
	a := m.ClipAction(clip, nil, WithTimeScale(-1)).Play()

	m.Update(0.25)
	assert.InDelta(t, 0.75, a.Time(), 1e-12)
	require.Len(t, events, 1)
	assert.Equal(t, -1, events[0].LoopDelta)
	assert.Equal(t, -1, events[0].Direction)
}

func TestMixer_RepetitionsFinish(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("twice", numberTrack(t, ".opacity", []float64{0, 1}, 0, 1))

	var loops, finished int
	m.AddEventListener(EventLoop, func(Event) { loops++ })
	m.AddEventListener(EventFinished, func(Event) { finished++ })
	a := m.ClipAction(clip, nil, WithLoop(LoopRepeat, 2)).Play()

	m.Update(0.5)
	m.Update(1.0)
	assert.Equal(t, 1, loops)
	assert.InDelta(t, 0.5, a.Time(), 1e-12)

	m.Update(1.0)
	assert.Equal(t, 1, loops)
	assert.Equal(t, 1, finished)
	assert.Equal(t, 1.0, a.Time())
	assert.False(t, a.Enabled())
}

func TestMixer_OnceFinishes(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("jump", numberTrack(t, ".opacity", []float64{0, 1}, 0, 1))

	var got []Event
	a := m.ClipAction(clip, nil, WithLoop(LoopOnce, 1)).Play()
	a.OnFinished(func(e Event) { got = append(got, e) })

	m.Update(1.5)
	require.Len(t, got, 1)
	assert.Equal(t, EventFinished, got[0].Type)
	assert.Equal(t, 1, got[0].Direction)
	assert.Equal(t, 1.0, a.Time())
	assert.False(t, a.Enabled())
	assert.False(t, a.IsRunning())
	assert.Equal(t, 0.0, root.opacity, "a disabled action no longer contributes")
}

func TestMixer_ClampWhenFinishedHoldsLastFrame(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("jump", numberTrack(t, ".opacity", []float64{0, 1}, 0, 1))

	finished := 0
	m.AddEventListener(EventFinished, func(Event) { finished++ })
	a := m.ClipAction(clip, nil, WithLoop(LoopOnce, 1), WithClampWhenFinished(true)).Play()

	m.Update(1.5)
	assert.True(t, a.Paused())
	assert.True(t, a.Enabled())
	assert.Equal(t, 1.0, root.opacity)

	m.Update(0.5)
	assert.Equal(t, 1.0, root.opacity)
	assert.Equal(t, 1, finished)
	assert.Equal(t, 0.0, a.EffectiveTimeScale())
}

func TestMixer_PingPong(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("swing", numberTrack(t, ".opacity", []float64{0, 1}, 0, 1))
	a := m.ClipAction(clip, nil).SetLoop(LoopPingPong, Infinite).Play()

	m.Update(1.25)
	assert.InDelta(t, 0.25, a.Time(), 1e-12)
	assert.InDelta(t, 0.75, root.opacity, 1e-12)

	m.Update(1.0)
	assert.InDelta(t, 0.25, a.Time(), 1e-12)
	assert.InDelta(t, 0.25, root.opacity, 1e-12)
}

func TestMixer_StartAt(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 2}, 0, 2))
	a := m.ClipAction(clip, nil).StartAt(1).Play()

	m.Update(0.5)
	assert.Equal(t, 0.0, a.Time())
	assert.False(t, a.IsRunning())

	m.Update(1.0)
	assert.InDelta(t, 0.5, a.Time(), 1e-12)
	assert.True(t, a.IsRunning())
}

func TestMixer_HaltPauses(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 4}, 0, 4))
	a := m.ClipAction(clip, nil).Play()

	a.Halt(1)
	m.Update(0.5)
	assert.InDelta(t, 0.5, a.EffectiveTimeScale(), 1e-12)
	assert.InDelta(t, 0.25, a.Time(), 1e-12)

	m.Update(0.75)
	assert.True(t, a.Paused())
	assert.Equal(t, 0.0, a.EffectiveTimeScale())
	assert.InDelta(t, 0.25, a.Time(), 1e-12)
	assert.Equal(t, 0, m.Stats().ControlInterpolants.InUse)
}

func TestMixer_TimeScaleHelpers(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 2}, 0, 2))
	a := m.ClipAction(clip, nil)
	b := m.ClipAction(clip, newTestNode(2, "other"))

	a.SetDuration(4)
	assert.Equal(t, 0.5, a.TimeScale())

	a.SetTime(1.5)
	b.SyncWith(a)
	assert.Equal(t, 1.5, b.Time())
	assert.Equal(t, 0.5, b.TimeScale())

	a.SetPaused(true)
	a.SetEffectiveTimeScale(3)
	assert.Equal(t, 3.0, a.TimeScale())
	assert.Equal(t, 0.0, a.EffectiveTimeScale())

	a.SetEnabled(false)
	a.SetEffectiveWeight(0.5)
	assert.Equal(t, 0.5, a.Weight())
	assert.Equal(t, 0.0, a.EffectiveWeight())
}

func TestMixer_StopRestoresOriginal(t *testing.T) {
	root := newTestNode(1, "root")
	root.position.v = []float64{1, 1, 1}
	m := NewMixer(root)
	a := m.ClipAction(constantPosition(t, "a", 5, 5, 5), nil).Play()

	m.Update(0.1)
	assert.Equal(t, []float64{5, 5, 5}, root.position.v)

	a.Stop()
	assert.Equal(t, []float64{1, 1, 1}, root.position.v)
	assert.False(t, a.IsScheduled())
	assert.Equal(t, 0.0, a.Time())
	assert.Equal(t, PoolStats{Total: 1, InUse: 0}, m.Stats().Bindings)
}

func TestMixer_WritesOnlyOnChange(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	m.ClipAction(constantPosition(t, "a", 5, 5, 5), nil).Play()

	m.Update(0.1)
	m.Update(0.1)
	m.Update(0.1)
	assert.Equal(t, 1, root.writes)
}

func TestMixer_ChildNodeAndComponents(t *testing.T) {
	root := newTestNode(1, "root")
	arm := newTestNode(0, "arm")
	root.children = []*testNode{arm}
	m := NewMixer(root)
	clip := clipOf("raise",
		numberTrack(t, "arm.position[y]", []float64{0, 1}, 0, 2),
		numberTrack(t, "arm.opacity", []float64{0, 1}, 1, 0),
	)

	m.ClipAction(clip, nil).Play()
	m.Update(0.5)

	assert.InDelta(t, 1.0, arm.position.v[1], 1e-12)
	assert.InDelta(t, 0.5, arm.opacity, 1e-12)
}

func TestMixer_BoolAndStringTracks(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	vis, err := track.NewBoolTrack(".visible", []float64{0, 1}, []bool{true, false})
	require.NoError(t, err)
	lbl, err := track.NewStringTrack(".label", []float64{0, 1}, []string{"idle", "run"})
	require.NoError(t, err)

	m.ClipAction(track.NewClip("state", 2, []*track.Track{vis, lbl}), nil).Play()
	m.Update(0.5)
	assert.True(t, root.visible)
	assert.Equal(t, "idle", root.label)

	m.Update(0.6)
	assert.False(t, root.visible)
	assert.Equal(t, "run", root.label)
}

func TestMixer_ClipActionCaching(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := constantPosition(t, "a", 1, 1, 1)

	a := m.ClipAction(clip, nil)
	assert.Same(t, a, m.ClipAction(clip, root))
	assert.Same(t, m, a.Mixer())
	assert.Same(t, root, a.Root())

	additive := m.ClipAction(clip, nil, WithBlendMode(track.BlendModeAdditive))
	assert.NotSame(t, a, additive)

	other := m.ClipAction(clip, newTestNode(2, "other"))
	assert.NotSame(t, a, other)

	found, ok := m.ExistingAction(clip, nil)
	assert.True(t, ok)
	assert.Same(t, a, found)

	_, ok = m.ExistingAction(constantPosition(t, "b", 0, 0, 0), nil)
	assert.False(t, ok)

	assert.Nil(t, m.ClipAction(nil, nil))
	assert.Equal(t, PoolStats{Total: 3, InUse: 0}, m.Stats().Actions)
}

func TestMixer_SharedBindingSurvivesUncache(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clipA := constantPosition(t, "a", 2, 2, 2)
	clipB := constantPosition(t, "b", 4, 4, 4)
	a := m.ClipAction(clipA, nil).Play()
	b := m.ClipAction(clipB, nil).Play()

	ia, ib := a.(*action), b.(*action)
	require.Len(t, ia.mixers, 1)
	assert.Same(t, ia.mixers[0], ib.mixers[0])
	assert.Equal(t, PoolStats{Total: 1, InUse: 1}, m.Stats().Bindings)

	m.UncacheAction(clipA, nil)
	assert.False(t, a.IsScheduled())
	_, ok := m.ExistingAction(clipA, nil)
	assert.False(t, ok)
	assert.Equal(t, PoolStats{Total: 1, InUse: 1}, m.Stats().Bindings)
	assert.Equal(t, 1, ib.mixers[0].referenceCount)

	m.Update(0.1)
	assert.Equal(t, []float64{4, 4, 4}, root.position.v)

	m.UncacheClip(clipB)
	assert.Equal(t, Stats{}, m.Stats().withoutControls())
	assert.Equal(t, []float64{0, 0, 0}, root.position.v)
}

func TestMixer_ReplayAfterUncache(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := constantPosition(t, "a", 3, 3, 3)
	a := m.ClipAction(clip, nil).Play()
	m.Update(0.1)

	m.UncacheAction(clip, nil)
	assert.Equal(t, 0, m.Stats().Bindings.Total)
	assert.Equal(t, []float64{0, 0, 0}, root.position.v)

	a.Play()
	m.Update(0.1)
	assert.Equal(t, []float64{3, 3, 3}, root.position.v)
	found, ok := m.ExistingAction(clip, nil)
	assert.True(t, ok)
	assert.Same(t, a, found)
	assert.Equal(t, PoolStats{Total: 1, InUse: 1}, m.Stats().Bindings)
}

func TestMixer_UncacheRoot(t *testing.T) {
	root := newTestNode(1, "root")
	other := newTestNode(2, "other")
	other.opacity = 0.3
	m := NewMixer(root)
	clip := clipOf("fade", numberTrack(t, ".opacity", []float64{0, 1}, 1, 1))

	m.ClipAction(clip, nil).Play()
	m.ClipAction(clip, other).Play()
	m.Update(0.1)
	assert.Equal(t, 1.0, other.opacity)
	assert.Equal(t, 2, m.Stats().Bindings.Total)

	m.UncacheRoot(other)
	assert.Equal(t, 0.3, other.opacity)
	assert.Equal(t, PoolStats{Total: 1, InUse: 1}, m.Stats().Actions)
	assert.Equal(t, PoolStats{Total: 1, InUse: 1}, m.Stats().Bindings)
	_, ok := m.ExistingAction(clip, other)
	assert.False(t, ok)
}

func TestMixer_UnresolvedTrackWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { common.SetLogger(zerolog.Nop()) })

	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("ghost",
		vectorTrack(t, "ghost.position", []float64{0, 1}, 1, 1, 1, 1, 1, 1),
		numberTrack(t, ".opacity", []float64{0, 1}, 1, 1),
	)

	m.ClipAction(clip, nil).Play()
	m.Update(0.1)
	assert.Equal(t, 1.0, root.opacity)

	m.UncacheClip(clip)
	m.ClipAction(clip, nil).Play()
	m.Update(0.1)

	assert.Equal(t, 1, strings.Count(buf.String(), "property not bound"))
	assert.Contains(t, buf.String(), "ghost.position")
}

func TestMixer_ConflictingTrackStaysPrivate(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	vector := constantPosition(t, "vector", 1, 2, 3)
	scalar := clipOf("scalar", numberTrack(t, ".position", []float64{0, 1}, 9, 9))

	m.ClipAction(vector, nil).Play()
	s := m.ClipAction(scalar, nil).Play()
	m.Update(0.1)

	assert.Equal(t, []float64{1, 2, 3}, root.position.v)
	assert.Equal(t, 2, m.Stats().Bindings.Total)
	assert.False(t, s.(*action).mixers[0].cached)

	m.UncacheClip(scalar)
	assert.Equal(t, 1, m.Stats().Bindings.Total)
}

func TestMixer_SetTime(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 2}, 0, 2))
	a := m.ClipAction(clip, nil).Play()

	m.Update(1.5)
	m.SetTime(0.5)
	assert.Equal(t, 0.5, m.Time())
	assert.InDelta(t, 0.5, a.Time(), 1e-12)
	assert.InDelta(t, 0.5, root.opacity, 1e-12)
}

func TestMixer_TimeScale(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root).SetTimeScale(2)
	clip := clipOf("walk", numberTrack(t, ".opacity", []float64{0, 2}, 0, 2))
	a := m.ClipAction(clip, nil).Play()

	m.Update(0.25)
	assert.Equal(t, 0.5, m.Time())
	assert.Equal(t, 0.5, a.Time())

	m.SetTimeScale(0)
	m.Update(1)
	assert.Equal(t, 0.5, a.Time())
}

func TestMixer_StopAllAndDispose(t *testing.T) {
	root := newTestNode(1, "root")
	root.opacity = 0.2
	m := NewMixer(root)
	m.ClipAction(constantPosition(t, "a", 1, 1, 1), nil).Play()
	m.ClipAction(clipOf("b", numberTrack(t, ".opacity", []float64{0, 1}, 1, 1)), nil).Play()
	m.Update(0.1)

	m.StopAllActions()
	assert.Equal(t, 0, m.Stats().Actions.InUse)
	assert.Equal(t, 0, m.Stats().Bindings.InUse)
	assert.Equal(t, 0.2, root.opacity)
	assert.Equal(t, []float64{0, 0, 0}, root.position.v)

	m.ClipAction(clipOf("c", numberTrack(t, ".opacity", []float64{0, 1}, 1, 1)), nil).Play()
	m.Update(0.1)
	m.Dispose()
	assert.Equal(t, 0.2, root.opacity)
	assert.Equal(t, Stats{}, m.Stats())
}

func TestMixer_HandlersRunAfterApply(t *testing.T) {
	root := newTestNode(1, "root")
	m := NewMixer(root)
	clip := clipOf("jump", numberTrack(t, ".opacity", []float64{0, 1}, 0, 1))
	a := m.ClipAction(clip, nil, WithLoop(LoopOnce, 1), WithClampWhenFinished(true)).Play()

	var seen float64
	a.OnFinished(func(e Event) {
		seen = root.opacity
		e.Action.Stop()
	})

	m.Update(2)
	assert.Equal(t, 1.0, seen)
	assert.False(t, a.IsScheduled())
	assert.Equal(t, 0.0, root.opacity)
}

func TestParseLoopMode(t *testing.T) {
	for _, l := range []LoopMode{LoopOnce, LoopRepeat, LoopPingPong} {
		got, ok := ParseLoopMode(l.String())
		assert.True(t, ok)
		assert.Equal(t, l, got)
	}
	_, ok := ParseLoopMode("bounce")
	assert.False(t, ok)
	assert.Equal(t, "finished", EventFinished.String())
}

// withoutControls drops the control interpolant counts, which outlive uncached actions.
func (s Stats) withoutControls() Stats {
	s.ControlInterpolants = PoolStats{}
	return s
}
