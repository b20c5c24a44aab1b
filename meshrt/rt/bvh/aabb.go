package bvh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	}
	return "unknown"
}

// AABB is an axis aligned bounding box. Min <= Max on every axis for any box
// built through NewAABB, AABBFromPoint, Union or Expand.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB returns the box spanned by two arbitrary corners.
func NewAABB(a, b mgl32.Vec3) AABB {
	return AABB{
		Min: minVec3(a, b),
		Max: maxVec3(a, b),
	}
}

// AABBFromPoint returns a zero volume box located at p.
func AABBFromPoint(p mgl32.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: minVec3(b.Min, o.Min),
		Max: maxVec3(b.Max, o.Max),
	}
}

func (b AABB) Expand(p mgl32.Vec3) AABB {
	return AABB{
		Min: minVec3(b.Min, p),
		Max: maxVec3(b.Max, p),
	}
}

// Pad grows the box outward by eps along every axis.
func (b AABB) Pad(eps float32) AABB {
	pad := mgl32.Vec3{eps, eps, eps}
	return AABB{
		Min: b.Min.Sub(pad),
		Max: b.Max.Add(pad),
	}
}

func (b AABB) Centroid() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Diagonal() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Offset returns the position of p relative to the box, 0 at Min and 1 at Max.
// Axes with zero extent report 0.
func (b AABB) Offset(p mgl32.Vec3) mgl32.Vec3 {
	o := p.Sub(b.Min)
	d := b.Diagonal()
	for axis := 0; axis < 3; axis++ {
		if d[axis] > 0 {
			o[axis] /= d[axis]
		} else {
			o[axis] = 0
		}
	}
	return o
}

func (b AABB) SurfaceArea() float32 {
	d := b.Diagonal()
	return 2 * (d.X()*d.Y() + d.Y()*d.Z() + d.Z()*d.X())
}

// MaxExtentAxis returns the axis along which the box is longest. Ties resolve
// to the lower axis.
func (b AABB) MaxExtentAxis() Axis {
	d := b.Diagonal()
	if d.X() >= d.Y() && d.X() >= d.Z() {
		return XAxis
	}
	if d.Y() >= d.Z() {
		return YAxis
	}
	return ZAxis
}

// Contains reports whether o lies inside b, allowing eps of slack per axis.
func (b AABB) Contains(o AABB, eps float32) bool {
	for axis := 0; axis < 3; axis++ {
		if o.Min[axis] < b.Min[axis]-eps || o.Max[axis] > b.Max[axis]+eps {
			return false
		}
	}
	return true
}

func (b AABB) ApproxEqual(o AABB, eps float32) bool {
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(b.Min[axis]-o.Min[axis]) > eps || math32.Abs(b.Max[axis]-o.Max[axis]) > eps {
			return false
		}
	}
	return true
}

func minVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a.X(), b.X()), min(a.Y(), b.Y()), min(a.Z(), b.Z())}
}

func maxVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a.X(), b.X()), max(a.Y(), b.Y()), max(a.Z(), b.Z())}
}
