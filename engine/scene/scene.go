package scene

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"
)

// entry pairs a registered root with the mixer that animates it.
type entry struct {
	root  Node
	mixer mixer.Mixer
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu     *sync.RWMutex
	name   string
	active bool

	registry map[uint64]*entry
	order    []uint64

	workers      int
	mixerOptions []mixer.MixerBuilderOption
	group        mixer.Group
	pending      []Node
}

// Scene owns a set of animated root nodes, one Mixer per root.
// Update advances every mixer on a shared worker pool and then refreshes the world matrices the
// mixers invalidated. Scenes can be toggled via the Active flag; inactive scenes ignore Update.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is updated.
	Active() bool

	// SetActive sets whether this scene is updated.
	SetActive(active bool)

	// Count returns the number of registered roots.
	//
	// Returns:
	//   - int: the number of roots
	Count() int

	// Add registers a root node and creates its Mixer. Adding a root twice returns the existing mixer.
	//
	// Parameters:
	//   - root: the root to animate
	//   - options: mixer options applied after the scene-wide ones
	//
	// Returns:
	//   - mixer.Mixer: the mixer animating root
	Add(root Node, options ...mixer.MixerBuilderOption) mixer.Mixer

	// Get retrieves a registered root by ID.
	//
	// Parameters:
	//   - id: the root's node ID
	//
	// Returns:
	//   - Node: the root or nil
	Get(id uint64) Node

	// Mixer retrieves the mixer of a registered root.
	//
	// Parameters:
	//   - id: the root's node ID
	//
	// Returns:
	//   - mixer.Mixer: the mixer or nil
	Mixer(id uint64) mixer.Mixer

	// Roots returns the registered roots in registration order.
	//
	// Returns:
	//   - []Node: the roots
	Roots() []Node

	// Remove unregisters a root and disposes its mixer, restoring its animated properties.
	//
	// Parameters:
	//   - id: the root's node ID
	Remove(id uint64)

	// Clear removes every root, disposing all mixers.
	Clear()

	// Update advances all mixers by deltaTime and recomputes stale world matrices.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Update(deltaTime float64)

	// Stats returns the summed pool sizes of every mixer in the scene.
	//
	// Returns:
	//   - mixer.Stats: the summed pool sizes
	Stats() mixer.Stats

	// Close disposes all mixers and shuts the worker pool down. The scene must not be used afterwards.
	Close()
}

var _ Scene = &scene{}

// NewScene creates a new, active Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		active:   true,
		registry: make(map[uint64]*entry),
		workers:  max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Created after options so WithWorkers can override the default.
	s.group = mixer.NewGroup(mixer.WithWorkers(s.workers))

	for _, r := range s.pending {
		s.Add(r)
	}
	s.pending = nil
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(root Node, options ...mixer.MixerBuilderOption) mixer.Mixer {
	if root == nil {
		panic("scene: cannot Add a nil root")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.registry[root.ID()]; exists {
		return e.mixer
	}

	opts := make([]mixer.MixerBuilderOption, 0, len(s.mixerOptions)+len(options)+1)
	opts = append(opts, mixer.WithName(root.Name()))
	opts = append(opts, s.mixerOptions...)
	opts = append(opts, options...)

	m := mixer.NewMixer(root, opts...)
	s.registry[root.ID()] = &entry{root: root, mixer: m}
	s.order = append(s.order, root.ID())
	s.group.Add(m)

	common.Logger().Debug().
		Str("scene", s.name).
		Str("root", root.Name()).
		Uint64("id", root.ID()).
		Msg("root added")
	return m
}

func (s *scene) Get(id uint64) Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.registry[id]; ok {
		return e.root
	}
	return nil
}

func (s *scene) Mixer(id uint64) mixer.Mixer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.registry[id]; ok {
		return e.mixer
	}
	return nil
}

func (s *scene) Roots() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		roots = append(roots, s.registry[id].root)
	}
	return roots
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.group.Remove(e.mixer)
	e.mixer.Dispose()
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *scene) clear() {
	for _, id := range s.order {
		e := s.registry[id]
		s.group.Remove(e.mixer)
		e.mixer.Dispose()
	}
	s.registry = make(map[uint64]*entry)
	s.order = nil
}

func (s *scene) Update(deltaTime float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return
	}

	s.group.Update(deltaTime)
	for _, id := range s.order {
		s.registry[id].root.UpdateMatrixWorld(false)
	}
}

func (s *scene) Stats() mixer.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.group.Stats()
}

func (s *scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.group.Stop()
}
