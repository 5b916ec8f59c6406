package mixer

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// group is the implementation of the Group interface.
type group struct {
	mixers  []Mixer
	workers int
	pool    worker.DynamicWorkerPool
}

// Group updates a set of independent mixers together, in parallel on a reusable worker pool.
// The mixers of a group must not share roots or label tables.
type Group interface {
	// Add appends mixers to the group.
	//
	// Parameters:
	//   - mixers: the mixers to add
	Add(mixers ...Mixer)

	// Remove drops a mixer from the group. The mixer itself is left untouched.
	//
	// Parameters:
	//   - m: the mixer to remove
	//
	// Returns:
	//   - bool: false if m was not in the group
	Remove(m Mixer) bool

	// Mixers returns the mixers of the group in insertion order.
	//
	// Returns:
	//   - []Mixer: the mixers
	Mixers() []Mixer

	// Update calls Update(deltaTime) on every mixer and returns once all of them are done.
	// Event handlers run on the worker that updated their mixer.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	Update(deltaTime float64)

	// Stats returns the summed pool sizes of every mixer. It must not be called during Update.
	//
	// Returns:
	//   - Stats: the summed pool sizes
	Stats() Stats

	// Stop shuts the worker pool down. The group must not be updated afterwards.
	Stop()
}

var _ Group = &group{}

// NewGroup creates a new Group.
//
// Parameters:
//   - options: variadic list of GroupBuilderOption functions
//
// Returns:
//   - Group: the new group
func NewGroup(options ...GroupBuilderOption) Group {
	g := &group{
		workers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(g)
	}

	// Created after options so WithWorkers can override the default.
	g.pool = worker.NewDynamicWorkerPool(g.workers, 256, 1*time.Second)
	return g
}

func (g *group) Add(mixers ...Mixer) {
	for _, m := range mixers {
		if m != nil {
			g.mixers = append(g.mixers, m)
		}
	}
}

func (g *group) Remove(m Mixer) bool {
	for i, existing := range g.mixers {
		if existing == m {
			g.mixers = append(g.mixers[:i], g.mixers[i+1:]...)
			return true
		}
	}
	return false
}

func (g *group) Mixers() []Mixer {
	return g.mixers
}

func (g *group) Update(deltaTime float64) {
	switch len(g.mixers) {
	case 0:
		return
	case 1:
		g.mixers[0].Update(deltaTime)
		return
	}

	// pool.Wait blocks until idle workers exit, so a WaitGroup is the per-frame barrier.
	var wg sync.WaitGroup
	for i, m := range g.mixers {
		wg.Add(1)
		g.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				m.Update(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (g *group) Stats() Stats {
	var total Stats
	for _, m := range g.mixers {
		total = total.Add(m.Stats())
	}
	return total
}

func (g *group) Stop() {
	g.pool.Stop()
}
