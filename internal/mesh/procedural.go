package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lbvhgpu/lbvh/internal/aabb"
)

// Procedural is a Loader that ignores its path argument and returns a
// fixed, in-memory triangle set. It exists to exercise the orchestrator's
// end-to-end scenarios (single triangle, well-separated pairs, colinear
// strips, duplicate geometry) without requiring a shipped OBJ asset.
type Procedural struct {
	Triangles []Triangle
}

func (p Procedural) Load(path string) ([]Triangle, aabb.Float, error) {
	if len(p.Triangles) == 0 {
		return nil, aabb.Float{}, fmt.Errorf("mesh: procedural loader has no triangles")
	}
	return p.Triangles, computeExtent(p.Triangles), nil
}

var _ Loader = Procedural{}

// unitTriangleAt returns a flat unit-right-triangle (legs length 1, lying in
// the z=0 plane) whose right-angle vertex sits at center.
func unitTriangleAt(id uint32, center mgl32.Vec3) Triangle {
	return Triangle{
		PrimitiveID: id,
		V0:          center,
		V1:          center.Add(mgl32.Vec3{1, 0, 0}),
		V2:          center.Add(mgl32.Vec3{0, 1, 0}),
	}
}

// SingleTriangle is scenario A (spec §8): one triangle with vertices
// (0,0,0), (1,0,0), (0,1,0).
func SingleTriangle() Procedural {
	return Procedural{Triangles: []Triangle{unitTriangleAt(0, mgl32.Vec3{0, 0, 0})}}
}

// unitBoxTriangles decomposes the unit cube centered at center (side length
// 1, so extent [-0.5,0.5] per axis) into its 12 triangles, starting the
// primitive id count at idBase.
func unitBoxTriangles(idBase uint32, center mgl32.Vec3) []Triangle {
	h := float32(0.5)
	c := [8]mgl32.Vec3{
		center.Add(mgl32.Vec3{-h, -h, -h}),
		center.Add(mgl32.Vec3{h, -h, -h}),
		center.Add(mgl32.Vec3{h, h, -h}),
		center.Add(mgl32.Vec3{-h, h, -h}),
		center.Add(mgl32.Vec3{-h, -h, h}),
		center.Add(mgl32.Vec3{h, -h, h}),
		center.Add(mgl32.Vec3{h, h, h}),
		center.Add(mgl32.Vec3{-h, h, h}),
	}
	// Each face as two triangles; faces wound consistently but winding is
	// irrelevant to the LBVH builder (it only consumes AABBs).
	faces := [6][4]int{
		{0, 1, 2, 3}, // -z
		{4, 5, 6, 7}, // +z
		{0, 1, 5, 4}, // -y
		{3, 2, 6, 7}, // +y
		{0, 3, 7, 4}, // -x
		{1, 2, 6, 5}, // +x
	}
	tris := make([]Triangle, 0, 12)
	id := idBase
	for _, f := range faces {
		tris = append(tris, Triangle{PrimitiveID: id, V0: c[f[0]], V1: c[f[1]], V2: c[f[2]]})
		id++
		tris = append(tris, Triangle{PrimitiveID: id, V0: c[f[0]], V1: c[f[2]], V2: c[f[3]]})
		id++
	}
	return tris
}

// TwoSeparatedBoxes is scenario B (spec §8): two unit boxes, centroids
// (0,0,0) and (10,0,0). Each box is one primitive: a single triangle spanning
// the box diagonally, so its AABB is the full unit box.
func TwoSeparatedBoxes() Procedural {
	var tris []Triangle
	for i, center := range []mgl32.Vec3{{0, 0, 0}, {10, 0, 0}} {
		tris = append(tris, Triangle{
			PrimitiveID: uint32(i),
			V0:          center.Add(mgl32.Vec3{-0.5, -0.5, -0.5}),
			V1:          center.Add(mgl32.Vec3{0.5, 0.5, -0.5}),
			V2:          center.Add(mgl32.Vec3{0.5, -0.5, 0.5}),
		})
	}
	return Procedural{Triangles: tris}
}

// ColinearStrip is scenario C (spec §8): N unit-square-footprint triangles
// positioned on a line, spaced 1 unit apart starting at x=1 (so their AABBs
// union to x∈[0.5, n+0.5]). Each triangle's AABB is the full unit square
// around its position, matching the scenario's "centroids at
// (1,0,0)...(4,0,0), root AABB covers x∈[0.5,4.5]" framing.
func ColinearStrip(n int) Procedural {
	tris := make([]Triangle, n)
	for i := 0; i < n; i++ {
		pos := mgl32.Vec3{float32(i + 1), 0, 0}
		tris[i] = Triangle{
			PrimitiveID: uint32(i),
			V0:          pos.Add(mgl32.Vec3{-0.5, -0.5, 0}),
			V1:          pos.Add(mgl32.Vec3{0.5, -0.5, 0}),
			V2:          pos.Add(mgl32.Vec3{-0.5, 0.5, 0}),
		}
	}
	return Procedural{Triangles: tris}
}

// DuplicateTriangles is scenario D (spec §8): count identical triangles,
// distinguished only by primitive id and their position in Morton-sort order
// (the hierarchy stage's position-tiebreak keeps the keys distinct).
func DuplicateTriangles(count int) Procedural {
	tris := make([]Triangle, count)
	for i := 0; i < count; i++ {
		tris[i] = unitTriangleAt(uint32(i), mgl32.Vec3{0, 0, 0})
	}
	return Procedural{Triangles: tris}
}
