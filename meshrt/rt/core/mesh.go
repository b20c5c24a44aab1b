package core

import (
	"errors"
	"fmt"

	"github.com/gekko3d/lumen/meshrt/rt/bvh"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrNormalCount = errors.New("core: normal count does not match position count")
	ErrEmptyMesh   = errors.New("core: mesh has no triangles")
)

// MeshData is one loaded object before it is merged into the scene mesh.
// Normals may be empty, in which case FlatNormals fills them in.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
}

func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *MeshData) Validate() error {
	if len(m.Indices) == 0 {
		return ErrEmptyMesh
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh: %d indices: %w", len(m.Indices), bvh.ErrIndexCount)
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("mesh: %d normals for %d positions: %w", len(m.Normals), len(m.Positions), ErrNormalCount)
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("mesh: index %d references vertex %d of %d: %w",
				i, idx, len(m.Positions), bvh.ErrIndexOutOfRange)
		}
	}
	return nil
}

// FlatNormals assigns every vertex the geometric normal of the last triangle
// that references it. Degenerate triangles leave a zero normal.
func (m *MeshData) FlatNormals() {
	m.Normals = make([]mgl32.Vec3, len(m.Positions))
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		p0 := m.Positions[i0]
		n := m.Positions[i1].Sub(p0).Cross(m.Positions[i2].Sub(p0))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		m.Normals[i0] = n
		m.Normals[i1] = n
		m.Normals[i2] = n
	}
}

// TriangleMesh is the unified, GPU ready geometry of a scene.
type TriangleMesh struct {
	Vertices []Vertex
	Indices  []uint32
	BVH      []bvh.Node
}

// NewTriangleMesh builds the BVH for the given geometry. A nil builder uses
// the defaults.
func NewTriangleMesh(vertices []Vertex, indices []uint32, b *bvh.Builder) (*TriangleMesh, error) {
	if b == nil {
		b = bvh.NewBuilder()
	}
	nodes, err := b.Build(Vertices(vertices), indices)
	if err != nil {
		return nil, err
	}
	return &TriangleMesh{
		Vertices: vertices,
		Indices:  indices,
		BVH:      nodes,
	}, nil
}

func (m *TriangleMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Root returns the index of the root node, which is always the last one.
func (m *TriangleMesh) Root() uint32 {
	return uint32(len(m.BVH) - 1)
}
