package pose

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPoseSource is the canonical WGSL definition of the PoseGlobals and NodePose structs.
// Matches the GPUPoseGlobals and GPUNodePose layouts exactly (std430 aligned).
//
//go:embed assets/pose.wgsl
var GPUPoseSource string

// GPUPoseGlobals is the GPU-aligned header of a pose upload.
// Size: 16 bytes (std430 aligned).
type GPUPoseGlobals struct {
	NodeCount   uint32  // offset 0: number of NodePose entries
	MorphStride uint32  // offset 4: morph weights per node, a multiple of 4
	Time        float32 // offset 8: mixer time of the pose in seconds
	_pad0       uint32  // offset 12
}

// Size returns the size of the GPUPoseGlobals struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUPoseGlobals) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPoseGlobals struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUPoseGlobals) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.NodeCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.MorphStride)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Time))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad0
	return buf
}

// GPUNodePose is the GPU-aligned pose of one animated node.
// Matches the WGSL NodePose struct layout exactly (see GPUPoseSource).
// Size: 112 bytes (mat4 + 3 × vec4, std430 aligned).
type GPUNodePose struct {
	World       [16]float32 // offset 0: world matrix, column-major
	Translation [3]float32  // offset 64: local position
	Visible     float32     // offset 76: 1 when visible, 0 otherwise
	Rotation    [4]float32  // offset 80: local rotation quaternion (x, y, z, w)
	Scale       [3]float32  // offset 96: local scale
	MorphOffset uint32      // offset 108: index of the node's first morph weight
}

// Size returns the size of the GPUNodePose struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUNodePose) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUNodePose struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload.
func (g *GPUNodePose) Marshal() []byte {
	buf := make([]byte, 112)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.World[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(g.Translation[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(g.Translation[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(g.Translation[2]))
	binary.LittleEndian.PutUint32(buf[76:80], math.Float32bits(g.Visible))
	binary.LittleEndian.PutUint32(buf[80:84], math.Float32bits(g.Rotation[0]))
	binary.LittleEndian.PutUint32(buf[84:88], math.Float32bits(g.Rotation[1]))
	binary.LittleEndian.PutUint32(buf[88:92], math.Float32bits(g.Rotation[2]))
	binary.LittleEndian.PutUint32(buf[92:96], math.Float32bits(g.Rotation[3]))
	binary.LittleEndian.PutUint32(buf[96:100], math.Float32bits(g.Scale[0]))
	binary.LittleEndian.PutUint32(buf[100:104], math.Float32bits(g.Scale[1]))
	binary.LittleEndian.PutUint32(buf[104:108], math.Float32bits(g.Scale[2]))
	binary.LittleEndian.PutUint32(buf[108:112], g.MorphOffset)
	return buf
}

// marshalWeights packs morph weights as float32, zero-filling up to stride entries.
func marshalWeights(weights []float64, stride int) []byte {
	buf := make([]byte, stride*4)
	for i := range min(len(weights), stride) {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(float32(weights[i])))
	}
	return buf
}
