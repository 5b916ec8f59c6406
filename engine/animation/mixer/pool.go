package mixer

import "github.com/Carmen-Shannon/oxy-anim/engine/animation/interpolant"

// pooled is an item that records its own position in a pool.
type pooled interface {
	poolIndex() int
	setPoolIndex(i int)
}

// slot is embedded by pooled items.
type slot struct {
	index int
}

func (s *slot) poolIndex() int     { return s.index }
func (s *slot) setPoolIndex(i int) { s.index = i }

// pool partitions its items into an active prefix and an inactive suffix. Moving an item across the
// boundary is a single swap, so activation, deactivation and removal are constant time.
type pool[T pooled] struct {
	items  []T
	active int
}

// add appends item to the inactive partition.
func (p *pool[T]) add(item T) {
	item.setPoolIndex(len(p.items))
	p.items = append(p.items, item)
}

func (p *pool[T]) isActive(item T) bool {
	i := item.poolIndex()
	return i >= 0 && i < p.active
}

// activate moves an inactive item to the end of the active prefix.
func (p *pool[T]) activate(item T) {
	p.swap(item.poolIndex(), p.active)
	p.active++
}

// deactivate moves an active item to the start of the inactive suffix.
func (p *pool[T]) deactivate(item T) {
	p.active--
	p.swap(item.poolIndex(), p.active)
}

// remove drops an inactive item.
func (p *pool[T]) remove(item T) {
	last := len(p.items) - 1
	p.swap(item.poolIndex(), last)
	var zero T
	p.items[last] = zero
	p.items = p.items[:last]
	item.setPoolIndex(-1)
}

func (p *pool[T]) swap(i, j int) {
	if i == j {
		return
	}
	p.items[i], p.items[j] = p.items[j], p.items[i]
	p.items[i].setPoolIndex(i)
	p.items[j].setPoolIndex(j)
}

func (p *pool[T]) activeItems() []T {
	return p.items[:p.active]
}

func (p *pool[T]) len() int {
	return len(p.items)
}

func (p *pool[T]) reset() {
	for _, item := range p.items {
		item.setPoolIndex(-1)
	}
	clear(p.items)
	p.items = p.items[:0]
	p.active = 0
}

// controlInterpolant is a pooled fade or warp curve.
type controlInterpolant struct {
	slot
	interpolant.Interpolant
}

// lend activates the first inactive item, creating one if the pool is exhausted.
func (p *pool[T]) lend(create func() T) T {
	if p.active == len(p.items) {
		p.add(create())
	}
	item := p.items[p.active]
	p.active++
	return item
}

func newControlInterpolant() *controlInterpolant {
	return &controlInterpolant{Interpolant: interpolant.NewControl()}
}
