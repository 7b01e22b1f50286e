package lbvh

import (
	"fmt"

	"github.com/lbvhgpu/lbvh/internal/aabb"
)

// Verify checks invariants 1-5 listed in spec §3 against a downloaded node
// array; the sorted-Morton-code invariant needs the sorted Morton buffer and
// is checked separately by VerifyMortonSorted. It never recurses: per the re-architecture guidance in spec
// §9 ("convert to an explicit stack to avoid call-stack exhaustion"), the
// DFS walk uses an explicit []int32 stack.
func Verify(nodes []LBVHNode, elements []Element, absolutePointers bool) error {
	n := len(elements)
	if len(nodes) != 2*n-1 {
		return fmt.Errorf("node count %d does not match 2N-1=%d", len(nodes), 2*n-1)
	}

	visited := make([]bool, len(nodes))
	leafPrimitiveIDs := make(map[uint32]bool, n)

	stack := []int32{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if idx < 0 || int(idx) >= len(nodes) {
			return fmt.Errorf("dfs: node index %d out of range", idx)
		}
		if visited[idx] {
			return fmt.Errorf("dfs: node %d visited twice", idx)
		}
		visited[idx] = true

		node := nodes[idx]
		if node.IsLeaf() {
			if leafPrimitiveIDs[node.PrimitiveID] {
				return fmt.Errorf("leaf primitive_id %d appears more than once", node.PrimitiveID)
			}
			leafPrimitiveIDs[node.PrimitiveID] = true
			continue
		}

		if node.Left == InvalidPointer || node.Right == InvalidPointer {
			return fmt.Errorf("node %d has exactly one INVALID_POINTER child (left=%d right=%d)", idx, node.Left, node.Right)
		}

		leftIdx := ResolvePointer(int(idx), node.Left, absolutePointers)
		rightIdx := ResolvePointer(int(idx), node.Right, absolutePointers)
		if int(leftIdx) < 0 || int(leftIdx) >= len(nodes) || int(rightIdx) < 0 || int(rightIdx) >= len(nodes) {
			return fmt.Errorf("node %d: resolved child index out of range (left=%d right=%d)", idx, leftIdx, rightIdx)
		}

		left := nodes[leftIdx]
		right := nodes[rightIdx]
		parentBox := aabb.Float{Min: [3]float32(node.AABBMin), Max: [3]float32(node.AABBMax)}
		leftBox := aabb.Float{Min: [3]float32(left.AABBMin), Max: [3]float32(left.AABBMax)}
		rightBox := aabb.Float{Min: [3]float32(right.AABBMin), Max: [3]float32(right.AABBMax)}
		if !aabb.UnionEquals(parentBox, leftBox, rightBox, aabb.DefaultEps) {
			return fmt.Errorf("node %d: aabb does not equal union(left, right) within eps=%v", idx, aabb.DefaultEps)
		}

		stack = append(stack, leftIdx, rightIdx)
	}

	for i, v := range visited {
		if !v {
			return fmt.Errorf("node %d never visited by root DFS", i)
		}
	}

	if len(leafPrimitiveIDs) != n {
		return fmt.Errorf("leaf primitive ids (%d) do not form a bijection with %d input elements", len(leafPrimitiveIDs), n)
	}
	for _, e := range elements {
		if !leafPrimitiveIDs[e.PrimitiveID] {
			return fmt.Errorf("input primitive_id %d has no corresponding leaf", e.PrimitiveID)
		}
	}

	return nil
}

// VerifyMortonSorted checks property 6 of spec §8: morton codes, as
// observed after the sort stage, are non-decreasing. Exposed separately
// since it needs the sorted Morton buffer, not the final node array.
func VerifyMortonSorted(sorted []MortonCodeElement) error {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MortonCode < sorted[i-1].MortonCode {
			return fmt.Errorf("morton codes not sorted at index %d: %d < %d", i, sorted[i].MortonCode, sorted[i-1].MortonCode)
		}
	}
	return nil
}
