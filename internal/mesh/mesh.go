// Package mesh implements the MeshLoader collaborator (spec §6:
// load(path) → (triangles, extent)): a minimal Wavefront OBJ triangle
// loader, plus a procedural loader used to exercise the orchestrator's
// end-to-end scenarios without shipping a binary model asset.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lbvhgpu/lbvh/internal/aabb"
)

// Triangle is one input primitive before it becomes an lbvh.Element: three
// vertices plus the primitive id assigned to it in load order.
type Triangle struct {
	PrimitiveID uint32
	V0, V1, V2  mgl32.Vec3
}

// AABB returns the triangle's axis-aligned bounding box.
func (t Triangle) AABB() aabb.Float {
	box := aabb.NewEmptyFloat()
	box.Expand([3]float32{t.V0.X(), t.V0.Y(), t.V0.Z()})
	box.Expand([3]float32{t.V1.X(), t.V1.Y(), t.V1.Z()})
	box.Expand([3]float32{t.V2.X(), t.V2.Y(), t.V2.Z()})
	return box
}

// Loader is the MeshLoader collaborator: Load yields a sequence of triangle
// AABBs + primitive ids and the union extent over all of them.
type Loader interface {
	Load(path string) ([]Triangle, aabb.Float, error)
}

// ErrNonTriangularFace is returned when a face with other than 3 vertices is
// encountered (InputInvalid, per spec §7).
var ErrNonTriangularFace = fmt.Errorf("mesh: only triangular faces are supported")

// ErrNonFiniteCoordinate is returned when a vertex has a NaN/Inf component
// (InputInvalid, per spec §7).
var ErrNonFiniteCoordinate = fmt.Errorf("mesh: non-finite vertex coordinate")

func computeExtent(tris []Triangle) aabb.Float {
	extent := aabb.NewEmptyFloat()
	for _, t := range tris {
		box := t.AABB()
		extent.ExpandBox(box)
	}
	return extent
}
