package lbvh_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lbvhgpu/lbvh/internal/gpuctx/gpusim"
	"github.com/lbvhgpu/lbvh/internal/lbvh"
	"github.com/lbvhgpu/lbvh/internal/lbvhlog"
	"github.com/lbvhgpu/lbvh/internal/mesh"
)

func build(t *testing.T, loader mesh.Loader, absolutePointers bool) lbvh.Result {
	t.Helper()
	device := gpusim.NewSimDevice()
	builder := lbvh.NewBuilder(device, loader, lbvhlog.Noop{})
	result, err := builder.Execute(context.Background(), "", lbvh.BuildOptions{
		AbsolutePointers: absolutePointers,
		Verify:           true,
	})
	require.NoError(t, err)
	return result
}

// Scenario A (spec §8): single triangle.
func TestScenarioA_SingleTriangle(t *testing.T) {
	result := build(t, mesh.SingleTriangle(), false)
	require.Len(t, result.Nodes, 1)

	node := result.Nodes[0]
	require.True(t, node.IsLeaf())
	require.Equal(t, uint32(0), node.PrimitiveID)
	require.Equal(t, [3]float32{0, 0, 0}, [3]float32(node.AABBMin))
	require.Equal(t, [3]float32{1, 1, 0}, [3]float32(node.AABBMax))
}

// Scenario B (spec §8): two unit boxes, centroids (0,0,0) and (10,0,0).
func TestScenarioB_TwoSeparatedBoxes(t *testing.T) {
	result := build(t, mesh.TwoSeparatedBoxes(), false)
	require.Len(t, result.Nodes, 3)

	root := result.Nodes[0]
	require.InDelta(t, -0.5, root.AABBMin.X(), 1e-4)
	require.InDelta(t, -0.5, root.AABBMin.Y(), 1e-4)
	require.InDelta(t, -0.5, root.AABBMin.Z(), 1e-4)
	require.InDelta(t, 10.5, root.AABBMax.X(), 1e-4)
	require.InDelta(t, 0.5, root.AABBMax.Y(), 1e-4)
	require.InDelta(t, 0.5, root.AABBMax.Z(), 1e-4)

	leftIdx := lbvh.ResolvePointer(0, root.Left, false)
	rightIdx := lbvh.ResolvePointer(0, root.Right, false)
	require.True(t, result.Nodes[leftIdx].IsLeaf())
	require.True(t, result.Nodes[rightIdx].IsLeaf())
}

// Scenario C (spec §8): 4 colinear centroids.
func TestScenarioC_ColinearStrip(t *testing.T) {
	result := build(t, mesh.ColinearStrip(4), false)
	require.Len(t, result.Nodes, 7)

	root := result.Nodes[0]
	require.InDelta(t, 0.5, root.AABBMin.X(), 1e-2)
	require.InDelta(t, 4.5, root.AABBMax.X(), 1e-2)
}

// Scenario D (spec §8): 8 duplicate triangles.
func TestScenarioD_DuplicateTriangles(t *testing.T) {
	result := build(t, mesh.DuplicateTriangles(8), false)
	require.Len(t, result.Nodes, 15)

	seen := map[uint32]bool{}
	for _, n := range result.Nodes {
		if n.IsLeaf() {
			require.False(t, seen[n.PrimitiveID], "primitive id %d reused", n.PrimitiveID)
			seen[n.PrimitiveID] = true
		}
	}
	require.Len(t, seen, 8)
}

// Scenario F (spec §8): absolute vs relative pointer modes produce
// isomorphic trees once resolved through ResolvePointer.
func TestScenarioF_PointerModeEquivalence(t *testing.T) {
	absolute := build(t, mesh.ColinearStrip(4), true)
	relative := build(t, mesh.ColinearStrip(4), false)

	require.Len(t, absolute.Nodes, len(relative.Nodes))
	for i := range absolute.Nodes {
		a, r := absolute.Nodes[i], relative.Nodes[i]
		require.Equal(t, a.PrimitiveID, r.PrimitiveID)
		require.Equal(t, [3]float32(a.AABBMin), [3]float32(r.AABBMin))
		require.Equal(t, [3]float32(a.AABBMax), [3]float32(r.AABBMax))

		aLeft := lbvh.ResolvePointer(i, a.Left, true)
		rLeft := lbvh.ResolvePointer(i, r.Left, false)
		require.Equal(t, aLeft, rLeft)

		aRight := lbvh.ResolvePointer(i, a.Right, true)
		rRight := lbvh.ResolvePointer(i, r.Right, false)
		require.Equal(t, aRight, rRight)
	}
}

// Property 1 (spec §8): node count is always 2N-1.
func TestProperty_NodeCountIsTwoNMinusOne(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 7, 8, 16, 37} {
		result := build(t, mesh.DuplicateTriangles(n), false)
		require.Len(t, result.Nodes, 2*n-1, "n=%d", n)
	}
}

// Property 4 (spec §8): leaf primitive ids form a permutation of the input
// ids. Verify() already checks this, so a successful build with Verify:true
// implies it; this test locks in the expectation explicitly.
func TestProperty_LeafPrimitiveIDsArePermutation(t *testing.T) {
	result := build(t, mesh.TwoSeparatedBoxes(), false)
	seen := map[uint32]bool{}
	for _, n := range result.Nodes {
		if n.IsLeaf() {
			seen[n.PrimitiveID] = true
		}
	}
	require.Len(t, seen, 2)
}

func TestExecute_RejectsEmptyInput(t *testing.T) {
	device := gpusim.NewSimDevice()
	builder := lbvh.NewBuilder(device, mesh.Procedural{}, lbvhlog.Noop{})
	_, err := builder.Execute(context.Background(), "", lbvh.BuildOptions{Verify: true})
	require.Error(t, err)
	require.ErrorIs(t, err, lbvh.ErrInputInvalid)
}
