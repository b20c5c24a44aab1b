package core

import (
	"errors"
	"fmt"

	"github.com/gekko3d/lumen/meshrt/rt/bvh"
	"github.com/gekko3d/lumen/meshrt/rt/envlight"

	"github.com/google/uuid"
)

var ErrEmptyScene = errors.New("core: scene has no objects")

type SceneObject struct {
	ID       uuid.UUID
	Name     string
	Mesh     MeshData
	Material Material
}

// Scene owns the objects, their materials and the single environment light.
// Object order is stable and defines ObjectIndex in the unified mesh.
type Scene struct {
	Objects          []*SceneObject
	EnvironmentLight *envlight.EnvironmentLight
}

func NewScene() *Scene {
	return &Scene{
		Objects:          []*SceneObject{},
		EnvironmentLight: envlight.NewBlankSky(),
	}
}

// AddObject validates mesh and appends it. Missing normals are replaced with
// flat ones.
func (s *Scene) AddObject(name string, mesh MeshData, mat Material) (uuid.UUID, error) {
	if err := mesh.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("add object %q: %w", name, err)
	}
	if len(mesh.Normals) == 0 {
		mesh.FlatNormals()
	}

	obj := &SceneObject{
		ID:       uuid.New(),
		Name:     name,
		Mesh:     mesh,
		Material: mat,
	}
	s.Objects = append(s.Objects, obj)
	return obj.ID, nil
}

func (s *Scene) RemoveObject(id uuid.UUID) bool {
	for i, o := range s.Objects {
		if o.ID == id {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) Object(id uuid.UUID) (*SceneObject, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// SetEnvironmentLight replaces the whole light bundle. A nil light restores
// the blank sky.
func (s *Scene) SetEnvironmentLight(light *envlight.EnvironmentLight) {
	if light == nil {
		light = envlight.NewBlankSky()
	}
	s.EnvironmentLight = light
}

// Materials returns one material per object, indexed by ObjectIndex.
func (s *Scene) Materials() []Material {
	out := make([]Material, len(s.Objects))
	for i, o := range s.Objects {
		out[i] = o.Material
	}
	return out
}

// UnifiedMesh concatenates all objects into one vertex and index buffer and
// builds the BVH over it. Indices are rebased by the running vertex offset.
func (s *Scene) UnifiedMesh(b *bvh.Builder) (*TriangleMesh, error) {
	if len(s.Objects) == 0 {
		return nil, ErrEmptyScene
	}

	var totalVertices, totalIndices int
	for _, o := range s.Objects {
		totalVertices += len(o.Mesh.Positions)
		totalIndices += len(o.Mesh.Indices)
	}

	vertices := make([]Vertex, 0, totalVertices)
	indices := make([]uint32, 0, totalIndices)
	for objIdx, o := range s.Objects {
		offset := uint32(len(vertices))
		for _, idx := range o.Mesh.Indices {
			indices = append(indices, idx+offset)
		}
		for j, p := range o.Mesh.Positions {
			vertices = append(vertices, Vertex{
				Position:    p,
				ObjectIndex: uint32(objIdx),
				Normal:      o.Mesh.Normals[j],
			})
		}
	}

	mesh, err := NewTriangleMesh(vertices, indices, b)
	if err != nil {
		return nil, fmt.Errorf("unified mesh: %w", err)
	}
	return mesh, nil
}
