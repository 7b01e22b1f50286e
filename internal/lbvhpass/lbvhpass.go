// Package lbvhpass implements LBVHPass, the four-stage specialization of
// computepass.Pass: Morton coding, radix sort, hierarchy emission and
// bottom-up AABB fit, wired to the embedded WGSL kernels in
// internal/shaders.
package lbvhpass

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lbvhgpu/lbvh/internal/computepass"
	"github.com/lbvhgpu/lbvh/internal/gpuctx"
	"github.com/lbvhgpu/lbvh/internal/lbvhlog"
	"github.com/lbvhgpu/lbvh/internal/shaders"
)

// Stage ordinals, matching the original ComputeStage enum
// (original_source/lbvh/include/LBVHPass.h).
const (
	StageMortonCodes   = 0
	StageRadixSort     = 1
	StageHierarchy     = 2
	StageBoundingBoxes = 3
)

// Push-constant-as-uniform-buffer sizes. Each struct is laid out to match
// the corresponding WGSL uniform's std140 padding exactly.

// MortonParams mirrors shaders.MortonWGSL's MortonParams struct (48 bytes).
type MortonParams struct {
	NumElements uint32
	Min         mgl32.Vec3
	Max         mgl32.Vec3
}

func (p MortonParams) Bytes() []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:4], p.NumElements)
	putVec3(buf[16:28], p.Min)
	putVec3(buf[32:44], p.Max)
	return buf
}

// RadixSortParams mirrors shaders.RadixSortWGSL's RadixSortParams (16 bytes,
// rounded up to the uniform-buffer minimum binding granularity).
type RadixSortParams struct {
	NumElements uint32
}

func (p RadixSortParams) Bytes() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], p.NumElements)
	return buf
}

// HierarchyParams mirrors shaders.HierarchyWGSL's HierarchyParams (16 bytes).
type HierarchyParams struct {
	NumElements      uint32
	AbsolutePointers bool
}

func (p HierarchyParams) Bytes() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], p.NumElements)
	binary.LittleEndian.PutUint32(buf[4:8], boolToU32(p.AbsolutePointers))
	return buf
}

// AabbFitParams mirrors shaders.AabbFitWGSL's AabbFitParams (16 bytes).
type AabbFitParams struct {
	NumElements      uint32
	AbsolutePointers bool
}

func (p AabbFitParams) Bytes() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], p.NumElements)
	binary.LittleEndian.PutUint32(buf[4:8], boolToU32(p.AbsolutePointers))
	return buf
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func putVec3(b []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v.Z()))
}

// Buffers names every device buffer the four stages bind, per the
// descriptor binding layout table in spec §6.
type Buffers struct {
	Morton           gpuctx.Buffer // group 0 slot 0, group 1 slot 0, group 2 slot 0
	Elements         gpuctx.Buffer // group 0 slot 1, group 2 slot 1
	MortonPingPong   gpuctx.Buffer // group 1 slot 1
	Nodes            gpuctx.Buffer // group 2 slot 2, group 3 slot 0
	ConstructionInfo gpuctx.Buffer // group 2 slot 3, group 3 slot 1
}

// LBVHPass builds and drives the four-stage computepass.Pass.
type LBVHPass struct {
	pass *computepass.Pass

	morton    *computepass.Stage
	radixSort *computepass.Stage
	hierarchy *computepass.Stage
	aabbFit   *computepass.Stage

	// paramBufs holds the per-stage push-constant-as-uniform-buffer
	// allocations made by Bind, so Release can free them. nil entries (Bind
	// not yet called, or a stage whose buffer failed to allocate) are
	// skipped.
	paramBufs []gpuctx.Buffer
}

// New compiles all four kernels against device.
func New(ctx context.Context, device gpuctx.Device, log lbvhlog.Logger) (*LBVHPass, error) {
	pass := computepass.New(device, log)

	morton, err := pass.AddStage(ctx, "lbvh.morton", 0, shaders.MortonWGSL, "main")
	if err != nil {
		return nil, fmt.Errorf("lbvhpass: morton: %w", err)
	}
	radixSort, err := pass.AddStage(ctx, "lbvh.radixsort", 1, shaders.RadixSortWGSL, "main")
	if err != nil {
		return nil, fmt.Errorf("lbvhpass: radixsort: %w", err)
	}
	hierarchy, err := pass.AddStage(ctx, "lbvh.hierarchy", 2, shaders.HierarchyWGSL, "main")
	if err != nil {
		return nil, fmt.Errorf("lbvhpass: hierarchy: %w", err)
	}
	aabbFit, err := pass.AddStage(ctx, "lbvh.aabbfit", 3, shaders.AabbFitWGSL, "main")
	if err != nil {
		return nil, fmt.Errorf("lbvhpass: aabbfit: %w", err)
	}

	return &LBVHPass{
		pass:      pass,
		morton:    morton,
		radixSort: radixSort,
		hierarchy: hierarchy,
		aabbFit:   aabbFit,
	}, nil
}

// Bind attaches the shared device buffers to each stage's declared
// descriptor slots (spec §6's fixed binding-layout table), and uploads a
// fresh uniform buffer per stage carrying that stage's push-constant block.
func (lp *LBVHPass) Bind(ctx context.Context, device gpuctx.Device, bufs Buffers, n uint32, sceneMin, sceneMax mgl32.Vec3, absolutePointers bool) error {
	mortonParamsBuf, err := device.CreateBuffer(ctx, "lbvh.morton.params", 48, gpuctx.BufferUsageUniform,
		MortonParams{NumElements: n, Min: sceneMin, Max: sceneMax}.Bytes())
	if err != nil {
		return fmt.Errorf("lbvhpass: morton params: %w", err)
	}
	lp.paramBufs = append(lp.paramBufs, mortonParamsBuf)
	lp.morton.Bind(0, bufs.Morton)
	lp.morton.Bind(1, bufs.Elements)
	lp.morton.Bind(2, mortonParamsBuf)
	lp.morton.SetWorkgroups(workgroupCount(n, 256), 1, 1)

	radixParamsBuf, err := device.CreateBuffer(ctx, "lbvh.radixsort.params", 16, gpuctx.BufferUsageUniform,
		RadixSortParams{NumElements: n}.Bytes())
	if err != nil {
		return fmt.Errorf("lbvhpass: radixsort params: %w", err)
	}
	lp.paramBufs = append(lp.paramBufs, radixParamsBuf)
	lp.radixSort.Bind(0, bufs.Morton)
	lp.radixSort.Bind(1, bufs.MortonPingPong)
	lp.radixSort.Bind(2, radixParamsBuf)
	lp.radixSort.SetWorkgroups(1, 1, 1) // single workgroup, per spec §4.3

	hierarchyParamsBuf, err := device.CreateBuffer(ctx, "lbvh.hierarchy.params", 16, gpuctx.BufferUsageUniform,
		HierarchyParams{NumElements: n, AbsolutePointers: absolutePointers}.Bytes())
	if err != nil {
		return fmt.Errorf("lbvhpass: hierarchy params: %w", err)
	}
	lp.paramBufs = append(lp.paramBufs, hierarchyParamsBuf)
	lp.hierarchy.Bind(0, bufs.Morton)
	lp.hierarchy.Bind(1, bufs.Elements)
	lp.hierarchy.Bind(2, bufs.Nodes)
	lp.hierarchy.Bind(3, bufs.ConstructionInfo)
	lp.hierarchy.Bind(4, hierarchyParamsBuf)
	lp.hierarchy.SetWorkgroups(workgroupCount(n, 256), 1, 1)

	aabbFitParamsBuf, err := device.CreateBuffer(ctx, "lbvh.aabbfit.params", 16, gpuctx.BufferUsageUniform,
		AabbFitParams{NumElements: n, AbsolutePointers: absolutePointers}.Bytes())
	if err != nil {
		return fmt.Errorf("lbvhpass: aabbfit params: %w", err)
	}
	lp.paramBufs = append(lp.paramBufs, aabbFitParamsBuf)
	lp.aabbFit.Bind(0, bufs.Nodes)
	lp.aabbFit.Bind(1, bufs.ConstructionInfo)
	lp.aabbFit.Bind(2, aabbFitParamsBuf)
	lp.aabbFit.SetWorkgroups(workgroupCount(n, 256), 1, 1)

	return nil
}

// RecordAndSubmit dispatches all four stages in order and waits for the
// queue to go idle.
func (lp *LBVHPass) RecordAndSubmit(ctx context.Context) error {
	return lp.pass.RecordAndSubmit(ctx)
}

// Release frees all four stages' pipelines and any per-stage param buffers
// allocated by Bind (including ones allocated before a mid-Bind failure).
func (lp *LBVHPass) Release() {
	for _, buf := range lp.paramBufs {
		if buf != nil {
			buf.Release()
		}
	}
	lp.paramBufs = nil
	lp.pass.Release()
}

func workgroupCount(n uint32, size uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}
