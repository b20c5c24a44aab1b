package bvh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// BoundsPadding is added on every side of a triangle box so that flat and
// degenerate triangles still have a non-zero volume.
const BoundsPadding float32 = 1e-5

// PositionSource exposes vertex positions to the builder. Any other per
// vertex attributes stay opaque.
type PositionSource interface {
	Len() int
	Position(i uint32) mgl32.Vec3
}

// Positions adapts a plain position slice to PositionSource.
type Positions []mgl32.Vec3

func (p Positions) Len() int                      { return len(p) }
func (p Positions) Position(i uint32) mgl32.Vec3 { return p[i] }

// TriangleInfo is the per triangle record used while partitioning. Index is
// the triangle ordinal in the original index buffer.
type TriangleInfo struct {
	Bounds   AABB
	Centroid mgl32.Vec3
	Index    uint32
}

func ExtractTriangleInfos(src PositionSource, indices []uint32) ([]TriangleInfo, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("extract triangles: %d indices: %w", len(indices), ErrIndexCount)
	}
	triangleCount := len(indices) / 3
	if triangleCount == 0 {
		return nil, fmt.Errorf("extract triangles: %w", ErrNoTriangles)
	}

	vertexCount := src.Len()
	infos := make([]TriangleInfo, triangleCount)
	for i := 0; i < triangleCount; i++ {
		i0, i1, i2 := indices[i*3+0], indices[i*3+1], indices[i*3+2]
		for _, idx := range [3]uint32{i0, i1, i2} {
			if int(idx) >= vertexCount {
				return nil, fmt.Errorf("extract triangles: triangle %d references vertex %d of %d: %w",
					i, idx, vertexCount, ErrIndexOutOfRange)
			}
		}

		bounds := NewAABB(src.Position(i0), src.Position(i1)).
			Expand(src.Position(i2)).
			Pad(BoundsPadding)

		infos[i] = TriangleInfo{
			Bounds:   bounds,
			Centroid: bounds.Centroid(),
			Index:    uint32(i),
		}
	}
	return infos, nil
}
