// Package gpuctx defines the GPUContext collaborator (spec: device handle,
// compute queue, command recording, buffer allocation with staging
// upload/download, queue-idle wait) and its wgpu-backed implementation.
package gpuctx

import "context"

// BufferUsage is a bitmask of the ways a buffer will be used; mirrors the
// wgpu.BufferUsage flags the teacher's GpuBufferManager composes in
// ensureBuffer (voxelrt/rt/gpu/manager.go).
type BufferUsage uint32

const (
	BufferUsageStorage BufferUsage = 1 << iota
	BufferUsageUniform
	BufferUsageCopySrc
	BufferUsageCopyDst
	BufferUsageMapRead
)

// Buffer is an opaque device-buffer handle. The zero value is invalid.
type Buffer interface {
	// Size returns the buffer's allocated size in bytes.
	Size() uint64
	// Release frees the underlying device allocation. Safe to call once.
	Release()
}

// Pipeline is an opaque compute-pipeline handle bound to one shader module
// and entry point.
type Pipeline interface {
	Release()
}

// Binding attaches a device buffer to a (group, slot) descriptor binding,
// per the fixed binding-layout table in spec §6.
type Binding struct {
	Group  uint32
	Slot   uint32
	Buffer Buffer
}

// Batch accumulates one compute pass per stage on a single command encoder;
// each Dispatch call is its own BeginComputePass/End pair, which is this
// implementation's equivalent of an explicit memory barrier between stages
// (SPEC_FULL §3.2).
type Batch interface {
	// Dispatch records one stage: binds pipeline + bindings, then issues
	// groupsX*groupsY*groupsZ workgroups.
	Dispatch(pipeline Pipeline, bindings []Binding, groupsX, groupsY, groupsZ uint32) error
}

// Device is the narrowed GPUContext collaborator contract this package
// actually needs: allocate buffers, build compute pipelines from WGSL
// source, record and submit dispatches, and read results back.
type Device interface {
	// CreateBuffer allocates a device buffer. If initial is non-nil, its
	// contents are uploaded immediately (upload_via_staging).
	CreateBuffer(ctx context.Context, label string, size uint64, usage BufferUsage, initial []byte) (Buffer, error)

	// WriteBuffer uploads data into an existing buffer at a byte offset.
	WriteBuffer(ctx context.Context, buf Buffer, offset uint64, data []byte) error

	// ReadBuffer downloads size bytes at offset from buf
	// (download_via_staging): map for read, copy out, unmap.
	ReadBuffer(ctx context.Context, buf Buffer, offset, size uint64) ([]byte, error)

	// CreateComputePipeline compiles source (shader compilation + shader
	// reflection, per the external-collaborator contracts) into a pipeline
	// targeting entryPoint.
	CreateComputePipeline(ctx context.Context, label, source, entryPoint string) (Pipeline, error)

	// NewBatch starts a fresh command batch for one execute() call.
	NewBatch(ctx context.Context) (Batch, error)

	// Submit finishes the batch's command encoder, submits it to the queue
	// and blocks until the queue is idle — the one suspension point in the
	// whole pipeline.
	Submit(ctx context.Context, batch Batch) error
}
