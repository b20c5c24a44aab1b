package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is a diffuse surface. On the GPU it is vec3<f32> albedo plus one pad
// word, 16 bytes.
type Material struct {
	Albedo mgl32.Vec3
}

const MaterialSize = 16

func NewMaterial(albedo mgl32.Vec3) Material {
	return Material{Albedo: albedo}
}

// Helper for default grey
func DefaultMaterial() Material {
	return Material{Albedo: mgl32.Vec3{0.8, 0.8, 0.8}}
}

func MaterialsToBytes(materials []Material) []byte {
	out := make([]byte, len(materials)*MaterialSize)
	for i, m := range materials {
		off := i * MaterialSize
		binary.LittleEndian.PutUint32(out[off+0:], math.Float32bits(m.Albedo.X()))
		binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(m.Albedo.Y()))
		binary.LittleEndian.PutUint32(out[off+8:], math.Float32bits(m.Albedo.Z()))
		binary.LittleEndian.PutUint32(out[off+12:], 0)
	}
	return out
}
