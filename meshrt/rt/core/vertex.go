package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matches the tracer's vertex storage buffer
// struct Vertex {
//    position     : vec3<f32>; (12)
//    object_index : u32;       (4)
//    normal       : vec3<f32>; (12)
//    _pad         : u32;       (4)
// }; -> 32 bytes
type Vertex struct {
	Position    mgl32.Vec3
	ObjectIndex uint32
	Normal      mgl32.Vec3
	_           uint32
}

const VertexSize = 32

func (v *Vertex) ToBytes() []byte {
	buf := make([]byte, VertexSize)
	v.put(buf)
	return buf
}

func (v *Vertex) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position.Z()))
	binary.LittleEndian.PutUint32(buf[12:16], v.ObjectIndex)

	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Normal.X()))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal.Y()))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.Normal.Z()))
	binary.LittleEndian.PutUint32(buf[28:32], 0)
}

func VerticesToBytes(vertices []Vertex) []byte {
	out := make([]byte, len(vertices)*VertexSize)
	for i := range vertices {
		vertices[i].put(out[i*VertexSize : (i+1)*VertexSize])
	}
	return out
}

// Vertices lets the BVH builder read positions without copying them out.
type Vertices []Vertex

func (v Vertices) Len() int                      { return len(v) }
func (v Vertices) Position(i uint32) mgl32.Vec3 { return v[i].Position }

// IndicesToBytes packs a u32 index buffer.
func IndicesToBytes(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}
