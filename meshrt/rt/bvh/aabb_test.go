package bvh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewAABBOrdersCorners(t *testing.T) {
	b := NewAABB(mgl32.Vec3{1, -2, 3}, mgl32.Vec3{-1, 2, -3})

	assert.Equal(t, mgl32.Vec3{-1, -2, -3}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Max)
}

func TestAABBUnionAndExpand(t *testing.T) {
	a := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	b := NewAABB(mgl32.Vec3{2, -1, 0.5}, mgl32.Vec3{3, 0, 0.75})

	u := a.Union(b)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, u.Min)
	assert.Equal(t, mgl32.Vec3{3, 1, 1}, u.Max)

	e := AABBFromPoint(mgl32.Vec3{1, 1, 1}).Expand(mgl32.Vec3{-1, 2, 1})
	assert.Equal(t, mgl32.Vec3{-1, 1, 1}, e.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, e.Max)
}

func TestAABBMeasures(t *testing.T) {
	b := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 2, 3})

	assert.Equal(t, float32(22), b.SurfaceArea())
	assert.Equal(t, mgl32.Vec3{0.5, 1, 1.5}, b.Centroid())
	assert.Equal(t, ZAxis, b.MaxExtentAxis())
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, b.Offset(mgl32.Vec3{0.5, 1, 1.5}))
}

func TestAABBOffsetFlatAxis(t *testing.T) {
	b := NewAABB(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{2, 5, 4})

	o := b.Offset(mgl32.Vec3{1, 5, 1})
	assert.Equal(t, mgl32.Vec3{0.5, 0, 0.25}, o)
}

func TestAABBMaxExtentTies(t *testing.T) {
	tests := []struct {
		name string
		max  mgl32.Vec3
		want Axis
	}{
		{"cube", mgl32.Vec3{1, 1, 1}, XAxis},
		{"y and z", mgl32.Vec3{0, 1, 1}, YAxis},
		{"point", mgl32.Vec3{0, 0, 0}, XAxis},
		{"long y", mgl32.Vec3{1, 4, 2}, YAxis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewAABB(mgl32.Vec3{}, tt.max).MaxExtentAxis())
		})
	}
}

func TestAABBPadGivesVolume(t *testing.T) {
	flat := NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 0}).Pad(BoundsPadding)

	assert.Greater(t, flat.Max.Z()-flat.Min.Z(), float32(0))
	assert.True(t, flat.Contains(NewAABB(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 0}), 0))
}

func TestAxisString(t *testing.T) {
	assert.Equal(t, "x", XAxis.String())
	assert.Equal(t, "y", YAxis.String())
	assert.Equal(t, "z", ZAxis.String())
	assert.Equal(t, "unknown", Axis(7).String())
}
