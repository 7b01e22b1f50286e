// Package lbvh implements the top-level LBVH orchestrator: it builds the
// input element buffer, sizes and allocates the intermediate device buffers,
// drives the four-stage compute pipeline, downloads the result and verifies
// it.
package lbvh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InvalidPointer is the sentinel child-slot value denoting a leaf.
const InvalidPointer = 0

// Element is one input primitive: a primitive id plus its AABB. Owned by the
// host, uploaded once, read-only on device.
type Element struct {
	PrimitiveID uint32
	AABBMin     mgl32.Vec3
	AABBMax     mgl32.Vec3
}

// ElementSize is the wire size of one Element: primitive_id (4) + pad (12) +
// aabb_min (12, pad 4) + aabb_max (12, pad 4), laid out as vec4-aligned
// fields to match std430 storage-buffer alignment rules in the WGSL kernels.
const ElementSize = 48

// ToBytes serializes e into the std430 layout the kernels expect:
//
//	primitive_id: u32, _pad: 3 x u32    (offset 0,  16 bytes)
//	aabb_min: vec3<f32>, _pad: f32       (offset 16, 16 bytes)
//	aabb_max: vec3<f32>, _pad: f32       (offset 32, 16 bytes)
func (e Element) ToBytes() []byte {
	buf := make([]byte, ElementSize)
	binary.LittleEndian.PutUint32(buf[0:4], e.PrimitiveID)
	putVec3(buf[16:28], e.AABBMin)
	putVec3(buf[32:44], e.AABBMax)
	return buf
}

// ElementFromBytes deserializes one Element from a std430-laid-out slice.
func ElementFromBytes(b []byte) Element {
	return Element{
		PrimitiveID: binary.LittleEndian.Uint32(b[0:4]),
		AABBMin:     getVec3(b[16:28]),
		AABBMax:     getVec3(b[32:44]),
	}
}

// MortonCodeElement pairs a 30-bit Morton code with the index of the element
// it was derived from. Produced by the Morton stage, sorted in place by the
// radix-sort stage, consumed by the hierarchy stage.
type MortonCodeElement struct {
	MortonCode   uint32
	ElementIndex uint32
}

// MortonCodeElementSize is the wire size of one MortonCodeElement.
const MortonCodeElementSize = 8

func (m MortonCodeElement) ToBytes() []byte {
	buf := make([]byte, MortonCodeElementSize)
	binary.LittleEndian.PutUint32(buf[0:4], m.MortonCode)
	binary.LittleEndian.PutUint32(buf[4:8], m.ElementIndex)
	return buf
}

func MortonCodeElementFromBytes(b []byte) MortonCodeElement {
	return MortonCodeElement{
		MortonCode:   binary.LittleEndian.Uint32(b[0:4]),
		ElementIndex: binary.LittleEndian.Uint32(b[4:8]),
	}
}

// LBVHNode is one node of the output hierarchy. Indices [0, N-2] are
// internal nodes, [N-1, 2N-2] are leaves (N==1 is the single-leaf-root
// special case). Leaves have Left == Right == InvalidPointer.
type LBVHNode struct {
	Left        int32
	Right       int32
	PrimitiveID uint32
	AABBMin     mgl32.Vec3
	AABBMax     mgl32.Vec3
}

// LBVHNodeSize mirrors the Element layout: two i32 + one u32 in the first
// vec4 slot, then two vec4-aligned vec3s.
const LBVHNodeSize = 48

func (n LBVHNode) ToBytes() []byte {
	buf := make([]byte, LBVHNodeSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(n.Left))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(n.Right))
	binary.LittleEndian.PutUint32(buf[8:12], n.PrimitiveID)
	putVec3(buf[16:28], n.AABBMin)
	putVec3(buf[32:44], n.AABBMax)
	return buf
}

func LBVHNodeFromBytes(b []byte) LBVHNode {
	return LBVHNode{
		Left:        int32(binary.LittleEndian.Uint32(b[0:4])),
		Right:       int32(binary.LittleEndian.Uint32(b[4:8])),
		PrimitiveID: binary.LittleEndian.Uint32(b[8:12]),
		AABBMin:     getVec3(b[16:28]),
		AABBMax:     getVec3(b[32:44]),
	}
}

// IsLeaf reports whether n is a leaf node (both children InvalidPointer).
func (n LBVHNode) IsLeaf() bool {
	return n.Left == InvalidPointer && n.Right == InvalidPointer
}

// constructionInfo is scratch state written during hierarchy emission and
// read/updated via atomics during the bottom-up AABB fit. Never surfaced to
// callers of Builder.Execute.
type constructionInfo struct {
	Parent          uint32
	VisitationCount int32
}

const constructionInfoSize = 8

func (c constructionInfo) ToBytes() []byte {
	buf := make([]byte, constructionInfoSize)
	binary.LittleEndian.PutUint32(buf[0:4], c.Parent)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(c.VisitationCount))
	return buf
}

func constructionInfoFromBytes(b []byte) constructionInfo {
	return constructionInfo{
		Parent:          binary.LittleEndian.Uint32(b[0:4]),
		VisitationCount: int32(binary.LittleEndian.Uint32(b[4:8])),
	}
}

func putVec3(b []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v.Z()))
}

func getVec3(b []byte) mgl32.Vec3 {
	return mgl32.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

// ResolvePointer turns a stored child slot (absolute or relative) into an
// absolute node index, per spec's POINTER(index, offset) contract.
func ResolvePointer(nodeIndex int, stored int32, absolutePointers bool) int32 {
	if absolutePointers {
		return stored
	}
	return int32(nodeIndex) + stored
}
