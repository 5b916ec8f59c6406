package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

func slideScene(t *testing.T, name string) (scene.Scene, scene.Node) {
	t.Helper()
	tr, err := track.NewVectorTrack(".position", []float64{0, 10}, []float64{0, 0, 0, 10, 0, 0}, track.InterpolationLinear)
	require.NoError(t, err)
	root := scene.NewNode(name)
	s := scene.NewScene(name, scene.WithWorkers(1), scene.WithRoots(root))
	t.Cleanup(s.Close)
	s.Mixer(root.ID()).ClipAction(track.NewClip("slide", -1, []*track.Track{tr}), nil).Play()
	return s, root
}

func TestEngine_StepOrder(t *testing.T) {
	bg, bgRoot := slideScene(t, "bg")
	fg, fgRoot := slideScene(t, "fg")
	fg.SetActive(false)

	var calls []string
	e := NewEngine(
		WithScene(1, fg),
		WithScene(0, bg),
		WithTickCallback(func(dt float64) {
			calls = append(calls, "tick")
			assert.Equal(t, mgl64.Vec3{}, bgRoot.Position())
		}),
	)
	e.SetFrameCallback(func(dt float64) {
		calls = append(calls, "frame")
		assert.InDelta(t, 2.0, bgRoot.Position().X(), 1e-9)
	})

	e.Step(2)

	assert.Equal(t, []string{"tick", "frame"}, calls)
	assert.Equal(t, mgl64.Vec3{}, fgRoot.Position(), "inactive scenes are skipped")
	assert.Len(t, e.Scenes(), 2)
	assert.Same(t, bg, e.Scene(0))

	e.RemoveScene(0)
	assert.Nil(t, e.Scene(0))
}

func TestEngine_TickRate(t *testing.T) {
	e := NewEngine(WithTickRate(0))
	assert.Equal(t, time.Second/60, e.TickRate())

	e.SetTickRate(50)
	assert.Equal(t, 20*time.Millisecond, e.TickRate())
}

func TestEngine_RunUntilQuit(t *testing.T) {
	s, root := slideScene(t, "main")
	e := NewEngine(WithTickRate(500), WithScene(0, s), WithProfiling(true))

	var ticks atomic.Int32
	e.SetTickCallback(func(float64) {
		if ticks.Add(1) == 5 {
			e.Quit()
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.GreaterOrEqual(t, ticks.Load(), int32(5))
	assert.Greater(t, root.Position().X(), 0.0)
	e.Quit()
}

func TestEngine_RunUntilContextDone(t *testing.T) {
	e := NewEngine(WithTickRate(1000))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	e.Run(ctx)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEngine_SceneChangesWhileRunning(t *testing.T) {
	s, _ := slideScene(t, "main")
	e := NewEngine(WithTickRate(1000), WithScene(0, s), WithProfiling(true))

	var ticks atomic.Int32
	e.SetTickCallback(func(float64) { ticks.Add(1) })

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()

	for i := 0; i < 20; i++ {
		extra, _ := slideScene(t, "extra")
		e.AddScene(1, extra)
		time.Sleep(time.Millisecond)
		e.RemoveScene(1)
	}
	e.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Greater(t, ticks.Load(), int32(0))
	assert.Len(t, e.Scenes(), 1)
}
