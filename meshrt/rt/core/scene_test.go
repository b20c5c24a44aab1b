package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/lumen/meshrt/rt/bvh"
	"github.com/gekko3d/lumen/meshrt/rt/envlight"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad(x float32) MeshData {
	return MeshData{
		Positions: []mgl32.Vec3{{x, 0, 0}, {x + 1, 0, 0}, {x + 1, 1, 0}, {x, 1, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestNewSceneHasBlankSky(t *testing.T) {
	scene := NewScene()

	require.NotNil(t, scene.EnvironmentLight)
	assert.Equal(t, uint32(1), scene.EnvironmentLight.Width)
	assert.Equal(t, uint32(envlight.BlankSkyResolution), scene.EnvironmentLight.Height)
	assert.Empty(t, scene.Objects)
}

func TestAddRemoveObject(t *testing.T) {
	scene := NewScene()

	a, err := scene.AddObject("a", quad(0), DefaultMaterial())
	require.NoError(t, err)
	b, err := scene.AddObject("b", quad(5), NewMaterial(mgl32.Vec3{1, 0, 0}))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	obj, ok := scene.Object(b)
	require.True(t, ok)
	assert.Equal(t, "b", obj.Name)

	assert.True(t, scene.RemoveObject(a))
	assert.False(t, scene.RemoveObject(a))
	assert.False(t, scene.RemoveObject(uuid.New()))
	require.Len(t, scene.Objects, 1)
	assert.Equal(t, b, scene.Objects[0].ID)
}

func TestAddObjectRejectsBadMesh(t *testing.T) {
	scene := NewScene()

	_, err := scene.AddObject("empty", MeshData{}, DefaultMaterial())
	assert.ErrorIs(t, err, ErrEmptyMesh)

	m := quad(0)
	m.Indices = m.Indices[:4]
	_, err = scene.AddObject("short", m, DefaultMaterial())
	assert.ErrorIs(t, err, bvh.ErrIndexCount)

	m = quad(0)
	m.Indices[5] = 9
	_, err = scene.AddObject("range", m, DefaultMaterial())
	assert.ErrorIs(t, err, bvh.ErrIndexOutOfRange)

	m = quad(0)
	m.Normals = []mgl32.Vec3{{0, 0, 1}}
	_, err = scene.AddObject("normals", m, DefaultMaterial())
	assert.ErrorIs(t, err, ErrNormalCount)

	assert.Empty(t, scene.Objects)
}

func TestFlatNormals(t *testing.T) {
	m := quad(0)
	m.FlatNormals()

	require.Len(t, m.Normals, 4)
	for _, n := range m.Normals {
		assert.InDelta(t, 1.0, n.Z(), 1e-6)
	}

	degenerate := MeshData{
		Positions: []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		Indices:   []uint32{0, 1, 2},
	}
	degenerate.FlatNormals()
	assert.Equal(t, mgl32.Vec3{}, degenerate.Normals[0])
}

func TestUnifiedMeshRebasesIndices(t *testing.T) {
	scene := NewScene()
	_, err := scene.AddObject("left", quad(0), DefaultMaterial())
	require.NoError(t, err)
	_, err = scene.AddObject("right", quad(10), NewMaterial(mgl32.Vec3{0, 1, 0}))
	require.NoError(t, err)

	mesh, err := scene.UnifiedMesh(nil)
	require.NoError(t, err)

	require.Len(t, mesh.Vertices, 8)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, mesh.Indices)
	for i, v := range mesh.Vertices {
		assert.Equal(t, uint32(i/4), v.ObjectIndex, "vertex %d", i)
	}
	assert.Equal(t, mgl32.Vec3{10, 0, 0}, mesh.Vertices[4].Position)

	assert.Equal(t, 4, mesh.TriangleCount())
	require.Len(t, mesh.BVH, 2*4-1)
	assert.Equal(t, uint32(6), mesh.Root())
	require.NoError(t, bvh.Validate(mesh.BVH, mesh.TriangleCount()))

	root := mesh.BVH[mesh.Root()]
	assert.InDelta(t, 0, root.Min.X(), 1e-4)
	assert.InDelta(t, 11, root.Max.X(), 1e-4)

	materials := scene.Materials()
	require.Len(t, materials, 2)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, materials[1].Albedo)
}

func TestUnifiedMeshEmptyScene(t *testing.T) {
	_, err := NewScene().UnifiedMesh(nil)
	assert.ErrorIs(t, err, ErrEmptyScene)
}

func TestSetEnvironmentLight(t *testing.T) {
	scene := NewScene()
	old := scene.EnvironmentLight

	light, err := envlight.NewEnvironmentLight(2, 1, []envlight.Texel{{1, 1, 1, 1}, {2, 2, 2, 1}})
	require.NoError(t, err)
	scene.SetEnvironmentLight(light)
	assert.Same(t, light, scene.EnvironmentLight)

	scene.SetEnvironmentLight(nil)
	assert.NotSame(t, light, scene.EnvironmentLight)
	assert.NotEqual(t, old.ID, scene.EnvironmentLight.ID)
	assert.Equal(t, uint32(envlight.BlankSkyResolution), scene.EnvironmentLight.Height)
}

func TestVertexByteLayout(t *testing.T) {
	v := Vertex{Position: mgl32.Vec3{1, 2, 3}, ObjectIndex: 7, Normal: mgl32.Vec3{0, 1, 0}}
	buf := v.ToBytes()

	require.Len(t, buf, VertexSize)
	assert.Equal(t, math.Float32bits(3), binary.LittleEndian.Uint32(buf[8:12]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, math.Float32bits(1), binary.LittleEndian.Uint32(buf[20:24]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[28:32]))

	all := VerticesToBytes([]Vertex{{}, v})
	require.Len(t, all, 2*VertexSize)
	assert.Equal(t, buf, all[VertexSize:])
}

func TestMaterialAndIndexBytes(t *testing.T) {
	buf := MaterialsToBytes([]Material{DefaultMaterial(), NewMaterial(mgl32.Vec3{0.25, 0.5, 1})})
	require.Len(t, buf, 2*MaterialSize)
	assert.Equal(t, math.Float32bits(0.8), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, math.Float32bits(1), binary.LittleEndian.Uint32(buf[24:28]))

	idx := IndicesToBytes([]uint32{3, 1 << 20})
	require.Len(t, idx, 8)
	assert.Equal(t, uint32(1<<20), binary.LittleEndian.Uint32(idx[4:8]))
}
