package pose

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
)

// Binding indices of the pose buffers.
const (
	BindingGlobals = 0
	BindingNodes   = 1
	BindingMorphs  = 2
)

// ErrNotAllocated is returned by Upload before Allocate has been called.
var ErrNotAllocated = errors.New("pose buffers not allocated")

// BufferWrite describes a single GPU buffer write operation targeting one pose binding at a given
// byte offset.
type BufferWrite struct {
	Binding int
	Offset  uint64
	Data    []byte
}

// pose is the implementation of the Pose interface.
type pose struct {
	mu *sync.Mutex

	label          string
	nodes          []scene.Node
	morphStride    int
	minMorphStride int

	// last staged contents per binding
	shadow map[int][]byte

	device   *wgpu.Device
	buffers  map[int]*wgpu.Buffer
	capacity map[int]uint64
}

// Pose packs the animated state of a set of scene nodes into GPU buffers.
//
// Every Stage compares the packed nodes against the previous stage and only emits writes for the
// nodes whose pose changed, so a mixer that animates a few nodes of a large hierarchy uploads only
// those. Three buffers are used: a uniform PoseGlobals header (BindingGlobals), a storage array of
// NodePose (BindingNodes) and a storage array of morph weights with MorphStride entries per node
// (BindingMorphs).
type Pose interface {
	// SetNodes replaces the packed nodes. The next Stage writes every buffer in full.
	//
	// Parameters:
	//   - nodes: the nodes to pack, in buffer order
	SetNodes(nodes ...scene.Node)

	// Nodes returns the packed nodes in buffer order.
	//
	// Returns:
	//   - []scene.Node: the nodes
	Nodes() []scene.Node

	// MorphStride returns the number of morph weights reserved per node.
	// It is the largest morph target count of the nodes rounded up to a multiple of 4.
	//
	// Returns:
	//   - int: the stride
	MorphStride() int

	// Stage packs the current node state and returns the writes needed to bring the GPU buffers up
	// to date. Nodes are read as they are; call UpdateMatrixWorld on the roots first.
	//
	// Parameters:
	//   - time: the mixer time stored in the globals header
	//
	// Returns:
	//   - []BufferWrite: the writes, empty if nothing changed
	Stage(time float64) []BufferWrite

	// Allocate creates the GPU buffers on device, sized for the current nodes.
	//
	// Parameters:
	//   - device: the device to create the buffers on
	//
	// Returns:
	//   - error: an error if a buffer could not be created
	Allocate(device *wgpu.Device) error

	// Buffer returns the GPU buffer of a binding.
	//
	// Parameters:
	//   - binding: one of BindingGlobals, BindingNodes or BindingMorphs
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Upload stages the pose and writes the result to queue, growing the buffers if the node set grew.
	//
	// Parameters:
	//   - queue: the queue to write to
	//   - time: the mixer time stored in the globals header
	//
	// Returns:
	//   - int: the number of buffer writes submitted
	//   - error: ErrNotAllocated before Allocate, or an error if a buffer could not be grown
	Upload(queue *wgpu.Queue, time float64) (int, error)

	// Release frees the GPU buffers.
	Release()
}

var _ Pose = &pose{}

// NewPose creates a new Pose.
//
// Parameters:
//   - options: variadic list of PoseBuilderOption functions
//
// Returns:
//   - Pose: the new pose
func NewPose(options ...PoseBuilderOption) Pose {
	p := &pose{
		mu:       &sync.Mutex{},
		label:    "Pose",
		shadow:   make(map[int][]byte),
		buffers:  make(map[int]*wgpu.Buffer),
		capacity: make(map[int]uint64),
	}
	for _, opt := range options {
		opt(p)
	}
	p.morphStride = p.computeMorphStride()
	return p
}

func (p *pose) SetNodes(nodes ...scene.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nodes = append(p.nodes[:0], nodes...)
	p.morphStride = p.computeMorphStride()
	clear(p.shadow)
}

func (p *pose) Nodes() []scene.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes
}

func (p *pose) MorphStride() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.morphStride
}

func (p *pose) computeMorphStride() int {
	n := p.minMorphStride
	for _, node := range p.nodes {
		n = max(n, len(node.MorphTargetInfluences()))
	}
	return (n + 3) &^ 3
}

func (p *pose) Stage(time float64) []BufferWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage(time)
}

func (p *pose) stage(time float64) []BufferWrite {
	globals := GPUPoseGlobals{
		NodeCount:   uint32(len(p.nodes)),
		MorphStride: uint32(p.morphStride),
		Time:        float32(time),
	}

	nodeSize := (&GPUNodePose{}).Size()
	nodes := make([]byte, 0, len(p.nodes)*nodeSize)
	morphs := make([]byte, 0, len(p.nodes)*p.morphStride*4)
	for i, n := range p.nodes {
		gp := packNode(n, uint32(i*p.morphStride))
		nodes = append(nodes, gp.Marshal()...)
		if p.morphStride > 0 {
			morphs = append(morphs, marshalWeights(n.MorphTargetInfluences(), p.morphStride)...)
		}
	}

	var writes []BufferWrite
	writes = p.diff(writes, BindingGlobals, globals.Marshal(), globals.Size())
	writes = p.diff(writes, BindingNodes, nodes, nodeSize)
	if p.morphStride > 0 {
		writes = p.diff(writes, BindingMorphs, morphs, p.morphStride*4)
	}
	return writes
}

// diff appends one write per run of consecutive changed units of next and records next as staged.
func (p *pose) diff(writes []BufferWrite, binding int, next []byte, unit int) []BufferWrite {
	prev := p.shadow[binding]
	start := -1
	flush := func(end int) {
		if start >= 0 {
			writes = append(writes, BufferWrite{
				Binding: binding,
				Offset:  uint64(start),
				Data:    next[start:end],
			})
			start = -1
		}
	}
	for off := 0; off < len(next); off += unit {
		end := off + unit
		if end <= len(prev) && bytes.Equal(prev[off:end], next[off:end]) {
			flush(off)
			continue
		}
		if start < 0 {
			start = off
		}
	}
	flush(len(next))
	p.shadow[binding] = next
	return writes
}

func packNode(n scene.Node, morphOffset uint32) GPUNodePose {
	var gp GPUNodePose
	world := n.MatrixWorld()
	for i, v := range world {
		gp.World[i] = float32(v)
	}
	pos, q, s := n.Position(), n.Quaternion(), n.Scale()
	gp.Translation = [3]float32{float32(pos[0]), float32(pos[1]), float32(pos[2])}
	gp.Rotation = [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)}
	gp.Scale = [3]float32{float32(s[0]), float32(s[1]), float32(s[2])}
	if n.Visible() {
		gp.Visible = 1
	}
	gp.MorphOffset = morphOffset
	return gp
}

func (p *pose) Allocate(device *wgpu.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.device = device
	return p.allocate()
}

// allocate (re)creates every buffer sized for the current nodes.
func (p *pose) allocate() error {
	p.release()

	sizes := p.requiredSizes()
	for _, binding := range []int{BindingGlobals, BindingNodes, BindingMorphs} {
		usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		if binding == BindingGlobals {
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		}
		buf, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("%s Buffer %d", p.label, binding),
			Size:             sizes[binding],
			Usage:            usage,
			MappedAtCreation: false,
		})
		if err != nil {
			p.release()
			return fmt.Errorf("creating %s buffer %d: %w", p.label, binding, err)
		}
		p.buffers[binding] = buf
		p.capacity[binding] = sizes[binding]
	}
	clear(p.shadow)

	common.Logger().Debug().Str("pose", p.label).Int("nodes", len(p.nodes)).
		Uint64("nodeBytes", sizes[BindingNodes]).Uint64("morphBytes", sizes[BindingMorphs]).Msg("pose buffers allocated")
	return nil
}

// requiredSizes returns the byte size of each buffer. Empty storage buffers keep 16 bytes since
// zero-sized bindings are invalid.
func (p *pose) requiredSizes() map[int]uint64 {
	nodeSize := uint64((&GPUNodePose{}).Size())
	return map[int]uint64{
		BindingGlobals: uint64((&GPUPoseGlobals{}).Size()),
		BindingNodes:   max(uint64(len(p.nodes))*nodeSize, 16),
		BindingMorphs:  max(uint64(len(p.nodes)*p.morphStride*4), 16),
	}
}

func (p *pose) Buffer(binding int) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding]
}

func (p *pose) Upload(queue *wgpu.Queue, time float64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil {
		return 0, ErrNotAllocated
	}
	for binding, size := range p.requiredSizes() {
		if size > p.capacity[binding] {
			if err := p.allocate(); err != nil {
				return 0, err
			}
			break
		}
	}

	writes := p.stage(time)
	for _, w := range writes {
		buf := p.buffers[w.Binding]
		if buf == nil {
			continue
		}
		queue.WriteBuffer(buf, w.Offset, w.Data)
	}
	return len(writes), nil
}

func (p *pose) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release()
}

func (p *pose) release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.capacity, i)
	}
}
