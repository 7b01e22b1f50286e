package lbvh

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/lbvhgpu/lbvh/internal/gpuctx"
	"github.com/lbvhgpu/lbvh/internal/lbvhlog"
	"github.com/lbvhgpu/lbvh/internal/lbvhpass"
	"github.com/lbvhgpu/lbvh/internal/mesh"
	"github.com/lbvhgpu/lbvh/internal/shaders"
)

// scenePaddingFactor scales the true scene extent when deriving the Morton
// normalization bounds. Per original_source/lbvh/src/LBVH.cpp this is a
// literal multiple of the raw min/max corners (not a margin added around the
// extent's center) — see DESIGN.md's "scene bounds padding" Open Question.
const scenePaddingFactor = 8

// BuildOptions configures one Builder.Execute call.
type BuildOptions struct {
	// AbsolutePointers selects the LBVHNode child-pointer encoding: true
	// stores absolute node indices, false stores offsets relative to the
	// owning node's own index. Fixed for the build's lifetime.
	AbsolutePointers bool

	// Verify runs the post-build invariant checks (spec §8) before
	// returning. Disabling it skips the DFS walk entirely.
	Verify bool

	// CSVPath, if non-empty, dumps the resulting node array in the format
	// described by spec §6.
	CSVPath string
}

// Builder is the top-level LBVH orchestrator (spec §4.6): it owns a device
// and a mesh loader, and exposes the single synchronous execute(gpu)
// operation.
type Builder struct {
	device gpuctx.Device
	loader mesh.Loader
	log    lbvhlog.Logger
}

// NewBuilder returns a Builder driving device via the four-stage pipeline,
// sourcing input triangles from loader.
func NewBuilder(device gpuctx.Device, loader mesh.Loader, log lbvhlog.Logger) *Builder {
	if log == nil {
		log = lbvhlog.Noop{}
	}
	return &Builder{device: device, loader: loader, log: log}
}

// Result is the output of one successful Execute call.
type Result struct {
	Nodes            []LBVHNode
	NumElements      int
	AbsolutePointers bool
}

// Execute runs the full pipeline: load, allocate, bind, dispatch, download,
// verify, release. Every returned error wraps exactly one of the sentinel
// error kinds in errors.go, except a CSV write failure, which wraps the
// underlying I/O error.
func (b *Builder) Execute(ctx context.Context, path string, opts BuildOptions) (Result, error) {
	buildID := uuid.New().String()
	log := b.log

	triangles, extent, err := b.loader.Load(path)
	if err != nil {
		return Result{}, fmt.Errorf("lbvh[%s]: load %q: %w: %v", buildID, path, ErrInputInvalid, err)
	}
	n := len(triangles)
	if n == 0 {
		return Result{}, fmt.Errorf("lbvh[%s]: %w: zero elements", buildID, ErrInputInvalid)
	}
	if n > shaders.RadixSortMaxElements {
		return Result{}, fmt.Errorf("lbvh[%s]: %w: %d elements exceeds the single-workgroup radix sort's limit of %d",
			buildID, ErrInputInvalid, n, shaders.RadixSortMaxElements)
	}
	numNodes := 2*n - 1
	log.Infof("lbvh[%s]: loaded %d triangles from %q, %d output nodes", buildID, n, path, numNodes)

	elements := make([]Element, n)
	for i, t := range triangles {
		box := t.AABB()
		elements[i] = Element{PrimitiveID: t.PrimitiveID, AABBMin: mgl32.Vec3(box.Min), AABBMax: mgl32.Vec3(box.Max)}
	}

	sceneMin := mgl32.Vec3{extent.Min[0] * scenePaddingFactor, extent.Min[1] * scenePaddingFactor, extent.Min[2] * scenePaddingFactor}
	sceneMax := mgl32.Vec3{extent.Max[0] * scenePaddingFactor, extent.Max[1] * scenePaddingFactor, extent.Max[2] * scenePaddingFactor}

	pass, err := lbvhpass.New(ctx, b.device, log)
	if err != nil {
		return Result{}, fmt.Errorf("lbvh[%s]: %w: %v", buildID, ErrShaderBuildFailed, err)
	}
	bufs, err := b.allocateBuffers(ctx, elements, n, numNodes)
	if err != nil {
		pass.Release()
		return Result{}, fmt.Errorf("lbvh[%s]: %w: %v", buildID, ErrDeviceAllocationFailed, err)
	}
	defer releaseBuffers(bufs)
	defer pass.Release()

	if err := pass.Bind(ctx, b.device, bufs, uint32(n), sceneMin, sceneMax, opts.AbsolutePointers); err != nil {
		return Result{}, fmt.Errorf("lbvh[%s]: %w: bind: %v", buildID, ErrDeviceAllocationFailed, err)
	}

	buildStart := time.Now()
	if err := pass.RecordAndSubmit(ctx); err != nil {
		return Result{}, fmt.Errorf("lbvh[%s]: %w: %v", buildID, ErrDeviceSubmitFailed, err)
	}
	log.Infof("lbvh[%s]: GPU build took %.3fms", buildID, float64(time.Since(buildStart).Microseconds())/1000.0)
	log.Debugf("lbvh[%s]: submit complete, downloading %d nodes", buildID, numNodes)

	nodeBytes, err := b.device.ReadBuffer(ctx, bufs.Nodes, 0, uint64(numNodes*LBVHNodeSize))
	if err != nil {
		return Result{}, fmt.Errorf("lbvh[%s]: %w: download nodes: %v", buildID, ErrDeviceSubmitFailed, err)
	}
	nodes := make([]LBVHNode, numNodes)
	for i := range nodes {
		nodes[i] = LBVHNodeFromBytes(nodeBytes[i*LBVHNodeSize : (i+1)*LBVHNodeSize])
	}

	if opts.Verify {
		if err := Verify(nodes, elements, opts.AbsolutePointers); err != nil {
			return Result{}, fmt.Errorf("lbvh[%s]: %w: %v", buildID, ErrVerificationFailed, err)
		}
		log.Infof("lbvh[%s]: verification passed", buildID)
	}

	if opts.CSVPath != "" {
		if err := WriteCSV(opts.CSVPath, nodes); err != nil {
			return Result{}, fmt.Errorf("lbvh[%s]: write csv %q: %w", buildID, opts.CSVPath, err)
		}
	}

	return Result{Nodes: nodes, NumElements: n, AbsolutePointers: opts.AbsolutePointers}, nil
}

func (b *Builder) allocateBuffers(ctx context.Context, elements []Element, n, numNodes int) (lbvhpass.Buffers, error) {
	elementBytes := make([]byte, n*ElementSize)
	for i, e := range elements {
		copy(elementBytes[i*ElementSize:(i+1)*ElementSize], e.ToBytes())
	}

	elementsBuf, err := b.device.CreateBuffer(ctx, "lbvh.elements", uint64(len(elementBytes)), gpuctx.BufferUsageStorage, elementBytes)
	if err != nil {
		return lbvhpass.Buffers{}, fmt.Errorf("elements: %w", err)
	}
	mortonBuf, err := b.device.CreateBuffer(ctx, "lbvh.morton", uint64(n*MortonCodeElementSize), gpuctx.BufferUsageStorage, nil)
	if err != nil {
		return lbvhpass.Buffers{}, fmt.Errorf("morton: %w", err)
	}
	mortonPingPongBuf, err := b.device.CreateBuffer(ctx, "lbvh.morton.pingpong", uint64(n*MortonCodeElementSize), gpuctx.BufferUsageStorage, nil)
	if err != nil {
		return lbvhpass.Buffers{}, fmt.Errorf("morton pingpong: %w", err)
	}
	nodesBuf, err := b.device.CreateBuffer(ctx, "lbvh.nodes", uint64(numNodes*LBVHNodeSize), gpuctx.BufferUsageStorage|gpuctx.BufferUsageCopySrc, nil)
	if err != nil {
		return lbvhpass.Buffers{}, fmt.Errorf("nodes: %w", err)
	}
	cinfoBuf, err := b.device.CreateBuffer(ctx, "lbvh.construction_info", uint64(numNodes*constructionInfoSize), gpuctx.BufferUsageStorage, nil)
	if err != nil {
		return lbvhpass.Buffers{}, fmt.Errorf("construction info: %w", err)
	}

	return lbvhpass.Buffers{
		Morton:           mortonBuf,
		Elements:         elementsBuf,
		MortonPingPong:   mortonPingPongBuf,
		Nodes:            nodesBuf,
		ConstructionInfo: cinfoBuf,
	}, nil
}

func releaseBuffers(bufs lbvhpass.Buffers) {
	for _, buf := range []gpuctx.Buffer{bufs.Morton, bufs.Elements, bufs.MortonPingPong, bufs.Nodes, bufs.ConstructionInfo} {
		if buf != nil {
			buf.Release()
		}
	}
}
