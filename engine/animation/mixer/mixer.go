package mixer

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/interpolant"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

// actionKey identifies the action of one clip on one root.
type actionKey struct {
	rootID    uint64
	blendMode track.BlendMode
}

// clipActions holds every known action of one clip.
type clipActions struct {
	known  []*action
	byRoot map[actionKey]*action
}

// bindingKey identifies a property of one root.
type bindingKey struct {
	rootID    uint64
	trackName string
}

// PoolStats counts the items of one mixer pool.
type PoolStats struct {
	Total int
	InUse int
}

// Stats reports the size of the mixer's caches.
type Stats struct {
	Actions             PoolStats
	Bindings            PoolStats
	ControlInterpolants PoolStats
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Actions:             PoolStats{Total: s.Actions.Total + o.Actions.Total, InUse: s.Actions.InUse + o.Actions.InUse},
		Bindings:            PoolStats{Total: s.Bindings.Total + o.Bindings.Total, InUse: s.Bindings.InUse + o.Bindings.InUse},
		ControlInterpolants: PoolStats{Total: s.ControlInterpolants.Total + o.ControlInterpolants.Total, InUse: s.ControlInterpolants.InUse + o.ControlInterpolants.InUse},
	}
}

// mixer is the implementation of the Mixer interface.
type mixer struct {
	name      string
	root      binding.Root
	time      float64
	timeScale float64
	accuIndex int
	labels    *binding.Labels

	actions  pool[*action]
	bindings pool[*propertyMixer]
	controls pool[*controlInterpolant]

	actionsByClip  map[uint64]*clipActions
	bindingsByRoot map[uint64]map[string]*propertyMixer
	warned         map[bindingKey]struct{}

	events eventBus
	queue  []Event

	meter   metric.Meter
	metrics *mixerMetrics
}

// Mixer plays clips on a root and blends the results into its properties.
//
// A Mixer owns the actions it creates and caches their property bindings per (root, track name), so
// every action animating the same property shares one blend buffer. Update evaluates all scheduled
// actions, writes the blended values and then delivers the events queued during the tick.
// A Mixer is not safe for concurrent use; independent mixers can be updated in parallel with a Group.
type Mixer interface {
	// ClipAction returns the action playing clip on root, creating it on first use.
	// Options other than WithBlendMode only apply when the action is created.
	//
	// Parameters:
	//   - clip: the clip to play
	//   - root: the root to animate, nil for the mixer's root
	//   - options: variadic list of ActionBuilderOption functions
	//
	// Returns:
	//   - Action: the cached or new action
	ClipAction(clip *track.Clip, root binding.Root, options ...ActionBuilderOption) Action

	// ExistingAction looks up the action playing clip on root without creating it.
	//
	// Parameters:
	//   - clip: the clip
	//   - root: the root, nil for the mixer's root
	//   - options: WithBlendMode selects the blend mode, others are ignored
	//
	// Returns:
	//   - Action: the action
	//   - bool: false if there is no such action
	ExistingAction(clip *track.Clip, root binding.Root, options ...ActionBuilderOption) (Action, bool)

	// StopAllActions stops every scheduled action.
	//
	// Returns:
	//   - Mixer: the mixer
	StopAllActions() Mixer

	// Update advances the mixer by deltaTime seconds, scaled by the mixer's time scale.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	//
	// Returns:
	//   - Mixer: the mixer
	Update(deltaTime float64) Mixer

	// SetTime rewinds the mixer and every action to zero and then updates by t.
	//
	// Parameters:
	//   - t: the new global time in seconds
	//
	// Returns:
	//   - Mixer: the mixer
	SetTime(t float64) Mixer

	// Root returns the default root.
	//
	// Returns:
	//   - binding.Root: the root
	Root() binding.Root

	// Time returns the global mixer time.
	//
	// Returns:
	//   - float64: the time in seconds
	Time() float64

	// TimeScale returns the global time scale.
	//
	// Returns:
	//   - float64: the time scale
	TimeScale() float64

	// SetTimeScale sets the global time scale.
	//
	// Parameters:
	//   - timeScale: the time scale, 0 freezes all actions
	//
	// Returns:
	//   - Mixer: the mixer
	SetTimeScale(timeScale float64) Mixer

	// Labels returns the label table string tracks and string properties are interned in.
	//
	// Returns:
	//   - *binding.Labels: the label table
	Labels() *binding.Labels

	// UncacheClip stops and forgets every action of clip and the bindings only they used.
	//
	// Parameters:
	//   - clip: the clip to forget
	UncacheClip(clip *track.Clip)

	// UncacheRoot stops and forgets every action on root and restores and forgets its bindings.
	//
	// Parameters:
	//   - root: the root to forget
	UncacheRoot(root binding.Root)

	// UncacheAction stops and forgets one action and the bindings only it used.
	//
	// Parameters:
	//   - clip: the clip of the action
	//   - root: the root of the action, nil for the mixer's root
	//   - options: WithBlendMode selects the blend mode, others are ignored
	UncacheAction(clip *track.Clip, root binding.Root, options ...ActionBuilderOption)

	// Stats returns the sizes of the action, binding and control interpolant pools.
	//
	// Returns:
	//   - Stats: the pool sizes
	Stats() Stats

	// AddEventListener subscribes h to events of the given type from every action of the mixer.
	// Handlers run after the values of the tick have been applied, in subscription order.
	//
	// Parameters:
	//   - t: the event type
	//   - h: the handler
	AddEventListener(t EventType, h EventHandler)

	// Dispose stops every action, restores all bound properties and releases the mixer's caches
	// and metric registrations.
	Dispose()
}

var _ Mixer = &mixer{}

// NewMixer creates a new Mixer for root.
//
// Parameters:
//   - root: the default root actions animate
//   - options: variadic list of MixerBuilderOption functions
//
// Returns:
//   - Mixer: the new mixer
func NewMixer(root binding.Root, options ...MixerBuilderOption) Mixer {
	if root == nil {
		panic("mixer: root must not be nil")
	}
	m := &mixer{
		name:           "mixer",
		root:           root,
		timeScale:      1,
		actionsByClip:  make(map[uint64]*clipActions),
		bindingsByRoot: make(map[uint64]map[string]*propertyMixer),
		warned:         make(map[bindingKey]struct{}),
	}

	for _, option := range options {
		option(m)
	}

	if m.labels == nil {
		m.labels = binding.NewLabels()
	}
	if m.meter == nil {
		m.meter = defaultMeter()
	}
	mm, err := newMixerMetrics(m.meter, m.name)
	if err != nil {
		common.Logger().Warn().Err(err).Str("mixer", m.name).Msg("metrics disabled")
		mm, _ = newMixerMetrics(noop.Meter{}, m.name)
	}
	m.metrics = mm
	return m
}

func (m *mixer) ClipAction(clip *track.Clip, root binding.Root, options ...ActionBuilderOption) Action {
	if clip == nil {
		return nil
	}
	if root == nil {
		root = m.root
	}

	a := newAction(m, clip, root, options...)
	if existing := m.lookupAction(clip, root, a.blendMode); existing != nil {
		return existing
	}
	m.addInactiveAction(a)
	return a
}

func (m *mixer) ExistingAction(clip *track.Clip, root binding.Root, options ...ActionBuilderOption) (Action, bool) {
	a := m.findAction(clip, root, options)
	if a == nil {
		return nil, false
	}
	return a, true
}

func (m *mixer) findAction(clip *track.Clip, root binding.Root, options []ActionBuilderOption) *action {
	if clip == nil {
		return nil
	}
	if root == nil {
		root = m.root
	}
	query := &action{blendMode: clip.BlendMode()}
	for _, opt := range options {
		opt(query)
	}
	return m.lookupAction(clip, root, query.blendMode)
}

func (m *mixer) lookupAction(clip *track.Clip, root binding.Root, mode track.BlendMode) *action {
	ca := m.actionsByClip[clip.ID()]
	if ca == nil {
		return nil
	}
	return ca.byRoot[actionKey{rootID: root.RootID(), blendMode: mode}]
}

func (m *mixer) StopAllActions() Mixer {
	active := m.actions.activeItems()
	for i := len(active) - 1; i >= 0; i-- {
		active[i].Stop()
	}
	return m
}

func (m *mixer) Update(deltaTime float64) Mixer {
	deltaTime *= m.timeScale
	m.time += deltaTime
	dir := sign(deltaTime)
	m.accuIndex ^= 1

	for _, a := range m.actions.activeItems() {
		a.update(m.time, deltaTime, dir, m.accuIndex)
	}
	for _, pm := range m.bindings.activeItems() {
		pm.apply(m.accuIndex)
	}

	m.metrics.snapshot(m.actions.active, m.bindings.active)
	m.dispatchEvents()
	return m
}

func (m *mixer) SetTime(t float64) Mixer {
	m.time = 0
	for _, a := range m.actions.items {
		a.time = 0
	}
	return m.Update(t)
}

func (m *mixer) Root() binding.Root {
	return m.root
}

func (m *mixer) Time() float64 {
	return m.time
}

func (m *mixer) TimeScale() float64 {
	return m.timeScale
}

func (m *mixer) SetTimeScale(timeScale float64) Mixer {
	m.timeScale = timeScale
	return m
}

func (m *mixer) Labels() *binding.Labels {
	return m.labels
}

func (m *mixer) UncacheClip(clip *track.Clip) {
	if clip == nil {
		return
	}
	ca := m.actionsByClip[clip.ID()]
	if ca == nil {
		return
	}
	for _, a := range ca.known {
		m.deactivateAction(a)
		m.actions.remove(a)
		a.known = false
		m.removeInactiveBindingsForAction(a)
	}
	delete(m.actionsByClip, clip.ID())
	common.Logger().Debug().Str("mixer", m.name).Str("clip", clip.Name()).Msg("clip uncached")
}

func (m *mixer) UncacheRoot(root binding.Root) {
	if root == nil {
		return
	}
	rootID := root.RootID()
	for _, ca := range m.actionsByClip {
		for key, a := range ca.byRoot {
			if key.rootID == rootID {
				m.deactivateAction(a)
				m.removeInactiveAction(a)
			}
		}
	}

	for _, pm := range m.bindingsByRoot[rootID] {
		if m.bindings.isActive(pm) {
			m.bindings.deactivate(pm)
		}
		pm.restoreOriginalState()
		pm.useCount = 0
		pm.referenceCount = 0
		m.removeInactiveBinding(pm)
	}
	for k := range m.warned {
		if k.rootID == rootID {
			delete(m.warned, k)
		}
	}
	common.Logger().Debug().Str("mixer", m.name).Uint64("root", rootID).Msg("root uncached")
}

func (m *mixer) UncacheAction(clip *track.Clip, root binding.Root, options ...ActionBuilderOption) {
	a := m.findAction(clip, root, options)
	if a == nil {
		return
	}
	m.deactivateAction(a)
	m.removeInactiveAction(a)
}

func (m *mixer) Stats() Stats {
	return Stats{
		Actions:             PoolStats{Total: m.actions.len(), InUse: m.actions.active},
		Bindings:            PoolStats{Total: m.bindings.len(), InUse: m.bindings.active},
		ControlInterpolants: PoolStats{Total: m.controls.len(), InUse: m.controls.active},
	}
}

func (m *mixer) AddEventListener(t EventType, h EventHandler) {
	m.events.subscribe(t, h)
}

func (m *mixer) Dispose() {
	m.StopAllActions()
	for _, a := range m.actions.items {
		a.known = false
		a.bound = false
	}
	for _, pm := range m.bindings.items {
		pm.referenceCount = 0
	}
	m.actions.reset()
	m.bindings.reset()
	m.controls.reset()
	clear(m.actionsByClip)
	clear(m.bindingsByRoot)
	clear(m.warned)
	m.queue = m.queue[:0]
	m.events.clear()
	m.metrics.snapshot(0, 0)
	m.metrics.close()
}

// --- Events ---

func (m *mixer) queueEvent(e Event) {
	m.queue = append(m.queue, e)
}

// dispatchEvents delivers the events queued during the last update. Events queued by handlers are
// delivered with the next update.
func (m *mixer) dispatchEvents() {
	if len(m.queue) == 0 {
		return
	}
	pending := m.queue
	m.queue = nil
	for _, e := range pending {
		m.metrics.recordEvent(e)
		m.events.publish(e)
		if a, ok := e.Action.(*action); ok {
			a.events.publish(e)
		}
	}
	if m.queue == nil {
		m.queue = pending[:0]
	}
}

// --- Action lifecycle ---

func (m *mixer) isActiveAction(a *action) bool {
	return a.known && m.actions.isActive(a)
}

func (m *mixer) activateAction(a *action) {
	if m.isActiveAction(a) {
		return
	}
	if !a.known {
		m.addInactiveAction(a)
	}
	if !a.bound {
		m.bindAction(a)
	}

	for _, pm := range a.mixers {
		if pm.useCount == 0 {
			m.bindings.activate(pm)
			pm.saveOriginalState()
		}
		pm.useCount++
	}
	m.actions.activate(a)
}

func (m *mixer) deactivateAction(a *action) {
	if !m.isActiveAction(a) {
		return
	}
	for _, pm := range a.mixers {
		pm.useCount--
		if pm.useCount == 0 {
			pm.restoreOriginalState()
			m.bindings.deactivate(pm)
		}
	}
	m.actions.deactivate(a)
}

func (m *mixer) addInactiveAction(a *action) {
	m.actions.add(a)
	a.known = true

	id := a.clip.ID()
	ca := m.actionsByClip[id]
	if ca == nil {
		ca = &clipActions{byRoot: make(map[actionKey]*action)}
		m.actionsByClip[id] = ca
	}
	a.knownIndex = len(ca.known)
	ca.known = append(ca.known, a)
	ca.byRoot[actionKey{rootID: a.root.RootID(), blendMode: a.blendMode}] = a
}

func (m *mixer) removeInactiveAction(a *action) {
	m.actions.remove(a)
	a.known = false

	id := a.clip.ID()
	if ca := m.actionsByClip[id]; ca != nil && a.knownIndex >= 0 {
		last := len(ca.known) - 1
		moved := ca.known[last]
		ca.known[a.knownIndex] = moved
		moved.knownIndex = a.knownIndex
		ca.known[last] = nil
		ca.known = ca.known[:last]

		key := actionKey{rootID: a.root.RootID(), blendMode: a.blendMode}
		if ca.byRoot[key] == a {
			delete(ca.byRoot, key)
		}
		if len(ca.known) == 0 {
			delete(m.actionsByClip, id)
		}
	}
	a.knownIndex = -1
	m.removeInactiveBindingsForAction(a)
}

// --- Bindings ---

// bindAction resolves the property mixers of every track of a, sharing cached ones.
func (m *mixer) bindAction(a *action) {
	rootID := a.root.RootID()
	byName := m.bindingsByRoot[rootID]
	if byName == nil {
		byName = make(map[string]*propertyMixer)
		m.bindingsByRoot[rootID] = byName
	}

	for i, tr := range a.clip.Tracks() {
		old := a.mixers[i]
		cached := byName[tr.Name()]

		var pm *propertyMixer
		switch {
		case cached != nil && compatible(cached, tr):
			pm = cached
			pm.referenceCount++
		case old != nil:
			// Rebinding an uncached action keeps its own mixer.
			pm = old
			pm.referenceCount++
			if pm.poolIndex() < 0 {
				m.addInactiveBinding(pm, cached == nil)
			}
		default:
			pm = m.newBinding(a.root, tr, cached == nil)
		}

		if pm != old {
			a.mixers[i] = pm
			a.interpolants[i] = tr.NewInterpolant(&a.settings, m.labels, interpolant.WithResultBuffer(pm.incoming()))
		}
	}
	a.bound = true
}

func compatible(pm *propertyMixer, tr *track.Track) bool {
	return pm.valueSize == tr.ValueSize() && pm.valueType == tr.ValueType()
}

// newBinding resolves one track against root. A mixer that conflicts with the cached one for the same
// track name is kept private to its action.
func (m *mixer) newBinding(root binding.Root, tr *track.Track, cache bool) *propertyMixer {
	rootID := root.RootID()
	name := tr.Name()
	b := binding.NewPropertyBinding(root, name, tr.Path(), m.labels, binding.WithValueSize(tr.ValueSize()))
	if err := b.Err(); err != nil {
		key := bindingKey{rootID: rootID, trackName: name}
		if _, seen := m.warned[key]; !seen {
			m.warned[key] = struct{}{}
			common.Logger().Warn().Err(err).Str("mixer", m.name).Uint64("root", rootID).Str("track", name).Msg("property not bound")
		}
	}
	if !cache {
		common.Logger().Warn().Str("mixer", m.name).Uint64("root", rootID).Str("track", name).
			Str("type", tr.ValueType().String()).Int("size", tr.ValueSize()).
			Msg("track conflicts with the cached binding of the same name")
	}

	pm := newPropertyMixer(b, rootID, name, tr.ValueType(), tr.ValueSize())
	pm.referenceCount = 1
	m.addInactiveBinding(pm, cache)
	common.Logger().Debug().Str("mixer", m.name).Uint64("root", rootID).Str("track", name).Bool("resolved", b.Resolved()).Msg("binding created")
	return pm
}

func (m *mixer) addInactiveBinding(pm *propertyMixer, cache bool) {
	m.bindings.add(pm)
	pm.cached = cache
	if !cache {
		return
	}
	byName := m.bindingsByRoot[pm.rootID]
	if byName == nil {
		byName = make(map[string]*propertyMixer)
		m.bindingsByRoot[pm.rootID] = byName
	}
	byName[pm.trackName] = pm
}

func (m *mixer) removeInactiveBinding(pm *propertyMixer) {
	m.bindings.remove(pm)
	if !pm.cached {
		return
	}
	if byName := m.bindingsByRoot[pm.rootID]; byName != nil && byName[pm.trackName] == pm {
		delete(byName, pm.trackName)
		if len(byName) == 0 {
			delete(m.bindingsByRoot, pm.rootID)
		}
	}
}

func (m *mixer) removeInactiveBindingsForAction(a *action) {
	if !a.bound {
		return
	}
	for _, pm := range a.mixers {
		pm.referenceCount--
		if pm.referenceCount == 0 {
			m.removeInactiveBinding(pm)
		}
	}
	a.bound = false
}

// --- Control interpolants ---

func (m *mixer) lendControlInterpolant() *controlInterpolant {
	return m.controls.lend(newControlInterpolant)
}

func (m *mixer) takeBackControlInterpolant(ci *controlInterpolant) {
	if m.controls.isActive(ci) {
		m.controls.deactivate(ci)
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
