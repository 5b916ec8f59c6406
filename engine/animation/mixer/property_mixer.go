package mixer

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

// Buffer regions of a propertyMixer, in units of valueSize.
const (
	regionIncoming = iota
	regionAccu0
	regionAccu1
	regionOriginal
	regionAdditive
	regionWork
)

type mixFunc func(pm *propertyMixer, dst, src int, t float64)

// propertyMixer blends the contributions of every action that animates one bound property.
//
// Its buffer holds the incoming sample, two accumulation regions that alternate between ticks, the
// original value, the additive accumulation and, for quaternions, a scratch region.
type propertyMixer struct {
	slot

	binding   binding.PropertyBinding
	rootID    uint64
	trackName string
	valueType track.ValueType
	valueSize int
	buffer    []float64
	cached    bool

	cumulativeWeight         float64
	cumulativeWeightAdditive float64

	// useCount is the number of active actions using this mixer.
	useCount int
	// referenceCount is the number of known actions using this mixer.
	referenceCount int

	mix         mixFunc
	mixAdditive mixFunc
	setIdentity func(pm *propertyMixer)
}

func newPropertyMixer(b binding.PropertyBinding, rootID uint64, trackName string, valueType track.ValueType, valueSize int) *propertyMixer {
	pm := &propertyMixer{
		binding:   b,
		rootID:    rootID,
		trackName: trackName,
		valueType: valueType,
		valueSize: valueSize,
	}

	regions := regionAdditive + 1
	switch {
	case valueType == track.ValueTypeQuaternion:
		regions = regionWork + 1
		pm.mix = mixSlerp
		pm.mixAdditive = mixSlerpAdditive
		pm.setIdentity = setIdentityQuaternion
	case valueType.Selects():
		pm.mix = mixSelect
		pm.mixAdditive = mixSelect
		pm.setIdentity = setIdentityOriginal
	default:
		pm.mix = mixLerp
		pm.mixAdditive = mixLerpAdditive
		pm.setIdentity = setIdentityNumeric
	}
	pm.buffer = make([]float64, valueSize*regions)
	return pm
}

// incoming is the region interpolants evaluate into.
func (pm *propertyMixer) incoming() []float64 {
	return pm.buffer[:pm.valueSize]
}

func (pm *propertyMixer) offset(region int) int {
	return region * pm.valueSize
}

func (pm *propertyMixer) accumulate(accuIndex int, weight float64) {
	offset := pm.offset(regionAccu0 + accuIndex)
	current := pm.cumulativeWeight
	if current == 0 {
		copy(pm.buffer[offset:offset+pm.valueSize], pm.buffer[:pm.valueSize])
		current = weight
	} else {
		current += weight
		pm.mix(pm, offset, 0, weight/current)
	}
	pm.cumulativeWeight = current
}

func (pm *propertyMixer) accumulateAdditive(weight float64) {
	if pm.cumulativeWeightAdditive == 0 {
		pm.setIdentity(pm)
	}
	pm.mixAdditive(pm, pm.offset(regionAdditive), 0, weight)
	pm.cumulativeWeightAdditive += weight
}

func (pm *propertyMixer) apply(accuIndex int) {
	offset := pm.offset(regionAccu0 + accuIndex)
	weight := pm.cumulativeWeight
	weightAdditive := pm.cumulativeWeightAdditive
	pm.cumulativeWeight = 0
	pm.cumulativeWeightAdditive = 0

	if weight < 1 {
		pm.mix(pm, offset, pm.offset(regionOriginal), 1-weight)
	}
	if weightAdditive > 0 {
		pm.mixAdditive(pm, offset, pm.offset(regionAdditive), 1)
	}

	a := pm.buffer[pm.offset(regionAccu0):pm.offset(regionAccu1)]
	b := pm.buffer[pm.offset(regionAccu1):pm.offset(regionOriginal)]
	for i := range a {
		if a[i] != b[i] {
			pm.binding.SetValue(pm.buffer, offset)
			return
		}
	}
}

func (pm *propertyMixer) saveOriginalState() {
	orig := pm.offset(regionOriginal)
	pm.binding.GetValue(pm.buffer, orig)
	for r := regionAccu0; r <= regionAccu1; r++ {
		o := pm.offset(r)
		copy(pm.buffer[o:o+pm.valueSize], pm.buffer[orig:orig+pm.valueSize])
	}
	pm.setIdentity(pm)
	pm.cumulativeWeight = 0
	pm.cumulativeWeightAdditive = 0
}

func (pm *propertyMixer) restoreOriginalState() {
	pm.binding.SetValue(pm.buffer, pm.offset(regionOriginal))
}

// --- Mix functions ---

func mixLerp(pm *propertyMixer, dst, src int, t float64) {
	s := 1 - t
	buf := pm.buffer
	for i := 0; i < pm.valueSize; i++ {
		buf[dst+i] = buf[dst+i]*s + buf[src+i]*t
	}
}

func mixLerpAdditive(pm *propertyMixer, dst, src int, t float64) {
	buf := pm.buffer
	for i := 0; i < pm.valueSize; i++ {
		buf[dst+i] += buf[src+i] * t
	}
}

func mixSelect(pm *propertyMixer, dst, src int, t float64) {
	if t >= 0.5 {
		copy(pm.buffer[dst:dst+pm.valueSize], pm.buffer[src:src+pm.valueSize])
	}
}

func mixSlerp(pm *propertyMixer, dst, src int, t float64) {
	common.SlerpFlat(pm.buffer, dst, pm.buffer, dst, pm.buffer, src, t)
}

// mixSlerpAdditive composes dst with src raised to t. Weights above 1 extrapolate the rotation the
// same way numeric additive tracks scale their offset.
func mixSlerpAdditive(pm *propertyMixer, dst, src int, t float64) {
	work := pm.offset(regionWork)
	common.PowQuatFlat(pm.buffer, work, pm.buffer, src, t)
	common.MultiplyQuatFlat(pm.buffer, dst, pm.buffer, dst, pm.buffer, work)
}

// --- Additive identities ---

func setIdentityNumeric(pm *propertyMixer) {
	o := pm.offset(regionAdditive)
	clear(pm.buffer[o : o+pm.valueSize])
}

func setIdentityQuaternion(pm *propertyMixer) {
	setIdentityNumeric(pm)
	pm.buffer[pm.offset(regionAdditive)+3] = 1
}

func setIdentityOriginal(pm *propertyMixer) {
	o := pm.offset(regionAdditive)
	orig := pm.offset(regionOriginal)
	copy(pm.buffer[o:o+pm.valueSize], pm.buffer[orig:orig+pm.valueSize])
}
