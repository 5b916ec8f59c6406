package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
	"github.com/Carmen-Shannon/oxy-anim/engine/library"
	"github.com/Carmen-Shannon/oxy-anim/engine/loader"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/engine/renderer/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// Output is the YAML document written by a bake.
type Output struct {
	Asset       string         `yaml:"asset"`
	Rate        float64        `yaml:"rate"`
	Frames      int            `yaml:"frames"`
	UploadBytes int            `yaml:"uploadBytes"`
	Tracks      []SampledTrack `yaml:"tracks"`
	Events      []EventRecord  `yaml:"events,omitempty"`
}

// SampledTrack holds the value of one property at every frame. Values are flattened, Size per frame.
// String properties are reported in Labels instead.
type SampledTrack struct {
	Name   string    `yaml:"name"`
	Size   int       `yaml:"size"`
	Values []float64 `yaml:"values,omitempty,flow"`
	Labels []string  `yaml:"labels,omitempty,flow"`
}

// EventRecord is one mixer event seen during the bake.
type EventRecord struct {
	Time      float64 `yaml:"time"`
	Type      string  `yaml:"type"`
	Clip      string  `yaml:"clip"`
	LoopDelta int     `yaml:"loopDelta,omitempty"`
}

// scheduled is an action waiting for its start time.
type scheduled struct {
	cfg    ActionConfig
	action mixer.Action
	played bool
}

// sampler reads one bound property every frame.
type sampler struct {
	binding binding.PropertyBinding
	labels  bool
	buf     []float64
	out     *SampledTrack
}

func bake(ctx context.Context, cfg Config) (*Output, error) {
	ld := loader.NewLoader(loader.BackendTypeGLTF, loader.WithOptimize(cfg.Optimize))
	asset, err := ld.Load(cfg.Input)
	if err != nil {
		return nil, err
	}

	clips := make(map[string]*track.Clip, len(asset.Clips))
	for _, c := range asset.Clips {
		clips[c.Name()] = c
	}
	if cfg.Library != "" {
		if err := resolveFromLibrary(ctx, cfg, asset.Clips, clips); err != nil {
			return nil, err
		}
	}

	sc := scene.NewScene(asset.Name, scene.WithWorkers(1))
	defer sc.Close()
	m := sc.Add(asset.Root, mixer.WithName(asset.Name))

	out := &Output{Asset: asset.Name, Rate: cfg.Rate}
	for _, t := range []mixer.EventType{mixer.EventLoop, mixer.EventFinished} {
		m.AddEventListener(t, func(e mixer.Event) {
			out.Events = append(out.Events, EventRecord{
				Time:      m.Time(),
				Type:      e.Type.String(),
				Clip:      e.Action.Clip().Name(),
				LoopDelta: e.LoopDelta,
			})
		})
	}

	pending, duration, err := scheduleActions(cfg, m, clips)
	if err != nil {
		return nil, err
	}
	if cfg.Duration > 0 {
		duration = cfg.Duration
	}

	samplers := bindSamplers(cfg.Tracks, pending, asset.Root, m.Labels(), out)
	ps := pose.NewPose(pose.WithHierarchy(asset.Root), pose.WithLabel(asset.Name))
	prof := profiler.NewProfiler(profiler.WithStatsSources(sc))

	dt := 1 / cfg.Rate
	frames := int(math.Floor(duration*cfg.Rate+1e-9)) + 1
	common.Logger().Info().Str("asset", asset.Name).Int("frames", frames).Float64("rate", cfg.Rate).
		Int("actions", len(pending)).Int("tracks", len(samplers)).Msg("baking")

	for f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		startDue(pending, m)
		step := dt
		if f == 0 {
			step = 0
		}
		sc.Update(step)
		for _, s := range samplers {
			s.sample(m.Labels())
		}
		for _, w := range ps.Stage(m.Time()) {
			out.UploadBytes += len(w.Data)
		}
		prof.Tick()
		out.Frames++
	}
	return out, nil
}

// resolveFromLibrary imports the asset clips if configured and loads the played clips the asset lacks.
func resolveFromLibrary(ctx context.Context, cfg Config, assetClips []*track.Clip, clips map[string]*track.Clip) error {
	lib, err := library.NewLibrary(library.WithPath(cfg.Library))
	if err != nil {
		return err
	}
	defer lib.Close()

	if cfg.Import {
		for _, c := range assetClips {
			if err := lib.Save(ctx, c); err != nil {
				return err
			}
		}
	}
	for _, a := range cfg.Actions {
		if _, ok := clips[a.Clip]; ok {
			continue
		}
		c, err := lib.Load(ctx, a.Clip)
		if err != nil {
			return err
		}
		clips[a.Clip] = c
	}
	return nil
}

// scheduleActions creates one action per configured clip and returns the baked duration: the latest
// end of one cycle of any action.
func scheduleActions(cfg Config, m mixer.Mixer, clips map[string]*track.Clip) ([]*scheduled, float64, error) {
	pending := make([]*scheduled, 0, len(cfg.Actions))
	duration := 0.0
	for i, ac := range cfg.Actions {
		clip := clips[ac.Clip]
		if clip == nil {
			return nil, 0, fmt.Errorf("action %d: clip %q not found", i, ac.Clip)
		}
		loop, _ := mixer.ParseLoopMode(ac.Loop)
		reps := ac.Repetitions
		if reps <= 0 {
			reps = math.MaxInt
		}
		blend := track.BlendModeNormal
		if ac.Blend == "additive" {
			blend = track.BlendModeAdditive
		}

		a := m.ClipAction(clip, nil,
			mixer.WithBlendMode(blend),
			mixer.WithLoop(loop, reps),
			mixer.WithWeight(ac.Weight),
			mixer.WithTimeScale(ac.TimeScale),
			mixer.WithClampWhenFinished(ac.Clamp),
		)
		pending = append(pending, &scheduled{cfg: ac, action: a})
		duration = max(duration, ac.Start+clip.Duration()/math.Abs(ac.TimeScale))
	}
	return pending, duration, nil
}

// startDue plays every action whose start time has been reached.
func startDue(pending []*scheduled, m mixer.Mixer) {
	for _, s := range pending {
		if s.played || m.Time() < s.cfg.Start-1e-9 {
			continue
		}
		s.played = true
		s.action.Play()

		var from mixer.Action
		if s.cfg.FadeFrom != "" {
			for _, o := range pending {
				if o.played && o != s && o.cfg.Clip == s.cfg.FadeFrom {
					from = o.action
					break
				}
			}
		}
		switch {
		case from != nil && s.cfg.FadeIn > 0:
			s.action.CrossFadeFrom(from, s.cfg.FadeIn, s.cfg.Warp)
		case s.cfg.FadeIn > 0:
			s.action.FadeIn(s.cfg.FadeIn)
		}
		common.Logger().Debug().Str("clip", s.cfg.Clip).Float64("time", m.Time()).Msg("action started")
	}
}

// bindSamplers binds the requested tracks, or every track of the scheduled clips, against root.
func bindSamplers(names []string, pending []*scheduled, root scene.Node, labels *binding.Labels, out *Output) []*sampler {
	types := make(map[string]track.ValueType)
	var order []string
	for _, s := range pending {
		for _, t := range s.action.Clip().Tracks() {
			if _, seen := types[t.Name()]; !seen {
				types[t.Name()] = t.ValueType()
				order = append(order, t.Name())
			}
		}
	}
	if len(names) == 0 {
		names = order
	}

	var bound []binding.PropertyBinding
	for _, name := range names {
		path, err := track.ParsePath(name)
		if err != nil {
			common.Logger().Warn().Err(err).Str("track", name).Msg("track skipped")
			continue
		}
		b := binding.NewPropertyBinding(root, name, path, labels)
		if !b.Resolved() {
			common.Logger().Warn().Err(b.Err()).Str("track", name).Msg("track skipped")
			continue
		}
		bound = append(bound, b)
		out.Tracks = append(out.Tracks, SampledTrack{Name: name, Size: b.ValueSize()})
	}

	samplers := make([]*sampler, len(bound))
	for i, b := range bound {
		st := &out.Tracks[i]
		samplers[i] = &sampler{
			binding: b,
			labels:  types[st.Name] == track.ValueTypeString,
			buf:     make([]float64, st.Size),
			out:     st,
		}
	}
	return samplers
}

func (s *sampler) sample(labels *binding.Labels) {
	s.binding.GetValue(s.buf, 0)
	if s.labels {
		s.out.Labels = append(s.out.Labels, labels.Label(int(s.buf[0])))
		return
	}
	s.out.Values = append(s.out.Values, s.buf...)
}

// writeOutput encodes out as YAML to path, or to stdout when path is "-" or empty.
func writeOutput(out *Output, path string, stdout io.Writer) error {
	w := stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
