package gpusim

import (
	"encoding/binary"
	"math"
	"math/bits"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lbvhgpu/lbvh/internal/lbvh"
)

// kernelsByLabel matches the pipeline labels internal/lbvhpass.New compiles
// each stage under.
var kernelsByLabel = map[string]kernelFunc{
	"lbvh.morton":    mortonKernel,
	"lbvh.radixsort": radixSortKernel,
	"lbvh.hierarchy": hierarchyKernel,
	"lbvh.aabbfit":   aabbFitKernel,
}

func readU32(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off : off+4]) }
func readI32(b []byte, off int) int32  { return int32(readU32(b, off)) }
func readVec3(b []byte, off int) mgl32.Vec3 {
	return mgl32.Vec3{
		math.Float32frombits(readU32(b, off)),
		math.Float32frombits(readU32(b, off+4)),
		math.Float32frombits(readU32(b, off+8)),
	}
}

// --- stage 0: Morton code generation ---

func mortonKernel(b map[uint32]*simBuffer) error {
	params := b[2].data
	n := readU32(params, 0)
	sceneMin := readVec3(params, 16)
	sceneMax := readVec3(params, 32)
	extent := sceneMax.Sub(sceneMin)
	// Degenerate (flat) scenes can have a zero extent on one axis; clamp the
	// divisor away from zero rather than dividing by it.
	for i := range extent {
		if extent[i] < 1e-8 {
			extent[i] = 1e-8
		}
	}

	elements := b[1].data
	morton := b[0].data

	for i := uint32(0); i < n; i++ {
		e := lbvh.ElementFromBytes(elements[i*lbvh.ElementSize : (i+1)*lbvh.ElementSize])
		centroid := e.AABBMin.Add(e.AABBMax).Mul(0.5)
		normalized := centroid.Sub(sceneMin)
		normalized[0] /= extent.X()
		normalized[1] /= extent.Y()
		normalized[2] /= extent.Z()
		normalized = clamp01(normalized)

		qx := uint32(normalized.X() * 1023.0)
		qy := uint32(normalized.Y() * 1023.0)
		qz := uint32(normalized.Z() * 1023.0)

		mc := lbvh.MortonCodeElement{MortonCode: morton3(qx, qy, qz), ElementIndex: i}
		copy(morton[i*lbvh.MortonCodeElementSize:(i+1)*lbvh.MortonCodeElementSize], mc.ToBytes())
	}
	return nil
}

func clamp01(v mgl32.Vec3) mgl32.Vec3 {
	clamp := func(f float32) float32 {
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 1
		}
		return f
	}
	return mgl32.Vec3{clamp(v.X()), clamp(v.Y()), clamp(v.Z())}
}

func expandBits10(v uint32) uint32 {
	v &= 0x3FF
	v = (v | (v << 16)) & 0x030000FF
	v = (v | (v << 8)) & 0x0300F00F
	v = (v | (v << 4)) & 0x030C30C3
	v = (v | (v << 2)) & 0x09249249
	return v
}

func morton3(x, y, z uint32) uint32 {
	return (expandBits10(x) << 2) | (expandBits10(y) << 1) | expandBits10(z)
}

// --- stage 1: radix sort (simulated as a stable sort; the GPU kernel's LSD
// radix passes are an implementation detail of *how* stage 1 achieves the
// same observable contract: ping buffer sorted ascending by morton_code). ---

func radixSortKernel(b map[uint32]*simBuffer) error {
	params := b[2].data
	n := readU32(params, 0)

	ping := b[0].data
	entries := make([]lbvh.MortonCodeElement, n)
	for i := uint32(0); i < n; i++ {
		entries[i] = lbvh.MortonCodeElementFromBytes(ping[i*lbvh.MortonCodeElementSize : (i+1)*lbvh.MortonCodeElementSize])
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MortonCode < entries[j].MortonCode
	})

	for i, e := range entries {
		copy(ping[uint32(i)*lbvh.MortonCodeElementSize:uint32(i+1)*lbvh.MortonCodeElementSize], e.ToBytes())
	}
	return nil
}

// --- stage 2: Karras hierarchy emission ---

const invalidPointer = int32(0)

func key64(sortedMorton []lbvh.MortonCodeElement, i int) uint64 {
	return uint64(sortedMorton[i].MortonCode)<<32 | uint64(uint32(i))
}

func deltaFn(sortedMorton []lbvh.MortonCodeElement, a, b int) int {
	n := len(sortedMorton)
	if b < 0 || b >= n {
		return -1
	}
	ka, kb := key64(sortedMorton, a), key64(sortedMorton, b)
	if ka == kb {
		return 64
	}
	return bits.LeadingZeros64(ka ^ kb)
}

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func storePointer(nodeIndex, target int, absolutePointers bool) int32 {
	if absolutePointers {
		return int32(target)
	}
	return int32(target - nodeIndex)
}

func hierarchyKernel(b map[uint32]*simBuffer) error {
	params := b[4].data
	n := int(readU32(params, 0))
	absolutePointers := readU32(params, 4) != 0

	sortedBytes := b[0].data
	elementsBytes := b[1].data
	nodesBytes := b[2].data
	cinfoBytes := b[3].data

	sortedMorton := make([]lbvh.MortonCodeElement, n)
	for i := 0; i < n; i++ {
		sortedMorton[i] = lbvh.MortonCodeElementFromBytes(sortedBytes[i*lbvh.MortonCodeElementSize : (i+1)*lbvh.MortonCodeElementSize])
	}

	writeNode := func(idx int, node lbvh.LBVHNode) {
		copy(nodesBytes[idx*lbvh.LBVHNodeSize:(idx+1)*lbvh.LBVHNodeSize], node.ToBytes())
	}
	readNode := func(idx int) lbvh.LBVHNode {
		return lbvh.LBVHNodeFromBytes(nodesBytes[idx*lbvh.LBVHNodeSize : (idx+1)*lbvh.LBVHNodeSize])
	}
	writeParent := func(idx int, parent uint32) {
		off := idx * cinfoSize
		binary.LittleEndian.PutUint32(cinfoBytes[off:off+4], parent)
	}
	writeVisitationCount := func(idx int, v int32) {
		off := idx * cinfoSize
		binary.LittleEndian.PutUint32(cinfoBytes[off+4:off+8], uint32(v))
	}

	// Leaf initialization, one per idx in [0, n).
	for idx := 0; idx < n; idx++ {
		leafNodeIndex := n - 1 + idx
		src := sortedMorton[idx].ElementIndex
		e := lbvh.ElementFromBytes(elementsBytes[src*lbvh.ElementSize : (src+1)*lbvh.ElementSize])
		writeNode(leafNodeIndex, lbvh.LBVHNode{
			Left: invalidPointer, Right: invalidPointer,
			PrimitiveID: e.PrimitiveID, AABBMin: e.AABBMin, AABBMax: e.AABBMax,
		})
	}

	// Internal-node emission, one per i in [0, n-1).
	for i := 0; i < n-1; i++ {
		d := signInt(deltaFn(sortedMorton, i, i+1) - deltaFn(sortedMorton, i, i-1))

		deltaMin := deltaFn(sortedMorton, i, i-d)
		lMax := 2
		for deltaFn(sortedMorton, i, i+lMax*d) > deltaMin {
			lMax *= 2
		}

		length := 0
		for t := lMax / 2; t >= 1; t /= 2 {
			if deltaFn(sortedMorton, i, i+(length+t)*d) > deltaMin {
				length += t
			}
		}
		j := i + length*d

		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}
		deltaNode := deltaFn(sortedMorton, lo, hi)

		s := 0
		for divisor := 2; ; divisor *= 2 {
			step := (length + divisor - 1) / divisor
			if step < 1 {
				break
			}
			if deltaFn(sortedMorton, lo, lo+s+step) > deltaNode {
				s += step
			}
			if step == 1 {
				break
			}
		}
		gamma := lo + s

		var leftIdx, rightIdx int
		if lo == gamma {
			leftIdx = gamma + n - 1
		} else {
			leftIdx = gamma
		}
		if hi == gamma+1 {
			rightIdx = gamma + n
		} else {
			rightIdx = gamma + 1
		}

		node := readNode(i)
		node.Left = storePointer(i, leftIdx, absolutePointers)
		node.Right = storePointer(i, rightIdx, absolutePointers)
		writeNode(i, node)

		writeParent(leftIdx, uint32(i))
		writeParent(rightIdx, uint32(i))
		writeVisitationCount(i, 0)
	}

	return nil
}

const cinfoSize = 8

// --- stage 3: bottom-up AABB fit ---

func aabbFitKernel(b map[uint32]*simBuffer) error {
	params := b[2].data
	n := int(readU32(params, 0))
	absolutePointers := readU32(params, 4) != 0

	nodesBytes := b[0].data
	cinfoBytes := b[1].data

	readNode := func(idx int) lbvh.LBVHNode {
		return lbvh.LBVHNodeFromBytes(nodesBytes[idx*lbvh.LBVHNodeSize : (idx+1)*lbvh.LBVHNodeSize])
	}
	writeAABB := func(idx int, min, max mgl32.Vec3) {
		node := readNode(idx)
		node.AABBMin, node.AABBMax = min, max
		copy(nodesBytes[idx*lbvh.LBVHNodeSize:(idx+1)*lbvh.LBVHNodeSize], node.ToBytes())
	}
	parentOf := func(idx int) int {
		off := idx * cinfoSize
		return int(binary.LittleEndian.Uint32(cinfoBytes[off : off+4]))
	}
	bumpVisitation := func(idx int) int32 {
		off := idx*cinfoSize + 4
		old := int32(binary.LittleEndian.Uint32(cinfoBytes[off : off+4]))
		binary.LittleEndian.PutUint32(cinfoBytes[off:off+4], uint32(old+1))
		return old
	}
	resolvePointer := func(nodeIndex int, stored int32) int {
		if absolutePointers {
			return int(stored)
		}
		return nodeIndex + int(stored)
	}

	for leafIndex := 0; leafIndex < n; leafIndex++ {
		node := n - 1 + leafIndex
		for {
			if node == 0 {
				break
			}
			parent := parentOf(node)
			vOld := bumpVisitation(parent)
			if vOld == 0 {
				break
			}

			parentNode := readNode(parent)
			leftIdx := resolvePointer(parent, parentNode.Left)
			rightIdx := resolvePointer(parent, parentNode.Right)
			left := readNode(leftIdx)
			right := readNode(rightIdx)

			min := componentMin(left.AABBMin, right.AABBMin)
			max := componentMax(left.AABBMax, right.AABBMax)
			writeAABB(parent, min, max)

			node = parent
		}
	}
	return nil
}

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{minF(a.X(), b.X()), minF(a.Y(), b.Y()), minF(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{maxF(a.X(), b.X()), maxF(a.Y(), b.Y()), maxF(a.Z(), b.Z())}
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
