// Package aabb implements axis-aligned bounding box interval algebra shared
// by the mesh loader, the LBVH orchestrator and host-side verification.
//
// Two concrete variants are exposed (Float, backed by float32, and Int,
// backed by int32) over the same generic implementation so client code
// never duplicates the expand/volume/extent/axis-selection logic for
// voxelized/fixed-point coordinates versus floating-point geometry.
package aabb

// Number is the constraint shared by both AABB variants.
type Number interface {
	~float32 | ~int32
}

// Box is a 3D interval [Min, Max]. The zero value is NOT a valid empty box
// for either variant, since it already contains the origin (use
// NewEmptyFloat or NewEmptyInt to get one suited for Expand).
type Box[T Number] struct {
	Min [3]T
	Max [3]T
}

// Float is the floating-point AABB variant used for triangle geometry.
type Float = Box[float32]

// Int is the integer AABB variant used for voxelized/fixed-point coordinates.
type Int = Box[int32]

func minT[T Number](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxT[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// NewEmptyFloat returns a Float box whose first Expand call behaves as if
// starting from nothing.
func NewEmptyFloat() Box[float32] {
	const big float32 = 3.402823466e+38 // math.MaxFloat32
	return Box[float32]{Min: [3]float32{big, big, big}, Max: [3]float32{-big, -big, -big}}
}

// NewEmptyInt returns an Int box whose first Expand call behaves as if
// starting from nothing.
func NewEmptyInt() Box[int32] {
	const big int32 = 1<<31 - 1
	return Box[int32]{Min: [3]int32{big, big, big}, Max: [3]int32{-big, -big, -big}}
}

// Expand widens the box componentwise to include point.
func (b *Box[T]) Expand(point [3]T) {
	for i := 0; i < 3; i++ {
		b.Min[i] = minT(b.Min[i], point[i])
		b.Max[i] = maxT(b.Max[i], point[i])
	}
}

// ExpandBox widens b to cover other entirely.
func (b *Box[T]) ExpandBox(other Box[T]) {
	b.Expand(other.Min)
	b.Expand(other.Max)
}

// Extent returns Max-Min per component.
func (b Box[T]) Extent() [3]T {
	return [3]T{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Volume is the product of extents, or zero if any extent is non-positive.
func (b Box[T]) Volume() T {
	e := b.Extent()
	if e[0] <= 0 || e[1] <= 0 || e[2] <= 0 {
		return 0
	}
	return e[0] * e[1] * e[2]
}

// MaxExtent returns the largest side length, biased by +1 (or +1.0) so that
// degenerate (zero-volume) primitives never produce a zero extent.
func (b Box[T]) MaxExtent() T {
	e := b.Extent()
	m := e[0]
	if e[1] > m {
		m = e[1]
	}
	if e[2] > m {
		m = e[2]
	}
	if m < 0 {
		m = 0
	}
	return m + T(1)
}

// MaxExtentAxis returns 0/1/2 for x/y/z, the axis with the largest extent.
// Ties favor later axes: x only wins if strictly greater than both y and z;
// otherwise y wins over z iff y>z.
func (b Box[T]) MaxExtentAxis() int {
	e := b.Extent()
	if e[0] > e[1] && e[0] > e[2] {
		return 0
	}
	if e[1] > e[2] {
		return 1
	}
	return 2
}

// UnionEquals reports whether parent componentwise agrees, within eps, with
// the componentwise min/max of childA and childB.
func UnionEquals(parent, childA, childB Box[float32], eps float32) bool {
	union := childA
	union.ExpandBox(childB)
	for i := 0; i < 3; i++ {
		if abs32(parent.Min[i]-union.Min[i]) > eps {
			return false
		}
		if abs32(parent.Max[i]-union.Max[i]) > eps {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// DefaultEps is the absolute tolerance used across verification (spec: ≤1e-4).
const DefaultEps float32 = 1e-4
