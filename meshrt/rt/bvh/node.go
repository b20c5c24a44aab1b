package bvh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matches the tracer's storage buffer layout
// struct BvhNode {
//    min : vec3<f32>; (12)
//    l   : u32;       (4)
//    max : vec3<f32>; (12)
//    r   : u32;       (4)
// }; -> 32 bytes
//
// When l == r the node is a leaf and l is the triangle index. Otherwise l and r
// are the node indices of the two children.
type Node struct {
	Min mgl32.Vec3
	L   uint32
	Max mgl32.Vec3
	R   uint32
}

const NodeSize = 32

func (n Node) IsLeaf() bool {
	return n.L == n.R
}

func (n Node) Bounds() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}

func (n *Node) ToBytes() []byte {
	buf := make([]byte, NodeSize)
	n.put(buf)
	return buf
}

func (n *Node) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(n.Min.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(n.Min.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(n.Min.Z()))
	binary.LittleEndian.PutUint32(buf[12:16], n.L)

	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(n.Max.X()))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(n.Max.Y()))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(n.Max.Z()))
	binary.LittleEndian.PutUint32(buf[28:32], n.R)
}

// NodesToBytes packs nodes back to back for upload.
func NodesToBytes(nodes []Node) []byte {
	out := make([]byte, len(nodes)*NodeSize)
	for i := range nodes {
		nodes[i].put(out[i*NodeSize : (i+1)*NodeSize])
	}
	return out
}
