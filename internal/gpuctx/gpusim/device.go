// Package gpusim provides SimDevice, a pure-Go emulation of the
// internal/gpuctx.Device interface: it runs Go translations of the four
// WGSL kernels instead of dispatching to a real graphics adapter. This is
// test-support infrastructure in the same spirit as net/http/httptest's fake
// server — it exists so internal/lbvh's orchestrator tests can exercise the
// full four-stage pipeline without a discrete GPU attached to CI.
// cmd/lbvhbuild never imports this package; the one production code path is
// gpuctx.WGPUDevice.
package gpusim

import (
	"context"
	"fmt"

	"github.com/lbvhgpu/lbvh/internal/gpuctx"
)

// simBuffer is a plain byte slice standing in for a device allocation.
type simBuffer struct {
	data []byte
}

func (b *simBuffer) Size() uint64 { return uint64(len(b.data)) }
func (b *simBuffer) Release()     {}

// kernelFunc executes one stage's logic directly against its bound buffers,
// keyed by binding slot.
type kernelFunc func(bindings map[uint32]*simBuffer) error

type simPipeline struct {
	label string
	fn    kernelFunc
}

func (p *simPipeline) Release() {}

// SimDevice implements gpuctx.Device by running the registered Go kernel for
// each recognized label synchronously in Dispatch, rather than recording
// commands for later submission — host orchestration is single-threaded
// already, so there's no benefit to deferring execution to Submit.
type SimDevice struct{}

// NewSimDevice returns a ready-to-use SimDevice.
func NewSimDevice() *SimDevice { return &SimDevice{} }

func (d *SimDevice) CreateBuffer(ctx context.Context, label string, size uint64, usage gpuctx.BufferUsage, initial []byte) (gpuctx.Buffer, error) {
	data := make([]byte, size)
	copy(data, initial)
	return &simBuffer{data: data}, nil
}

func (d *SimDevice) WriteBuffer(ctx context.Context, buf gpuctx.Buffer, offset uint64, data []byte) error {
	sb, ok := buf.(*simBuffer)
	if !ok {
		return fmt.Errorf("gpusim: WriteBuffer: not a sim buffer")
	}
	copy(sb.data[offset:], data)
	return nil
}

func (d *SimDevice) ReadBuffer(ctx context.Context, buf gpuctx.Buffer, offset, size uint64) ([]byte, error) {
	sb, ok := buf.(*simBuffer)
	if !ok {
		return nil, fmt.Errorf("gpusim: ReadBuffer: not a sim buffer")
	}
	out := make([]byte, size)
	copy(out, sb.data[offset:offset+size])
	return out, nil
}

func (d *SimDevice) CreateComputePipeline(ctx context.Context, label, source, entryPoint string) (gpuctx.Pipeline, error) {
	fn, ok := kernelsByLabel[label]
	if !ok {
		return nil, fmt.Errorf("gpusim: no simulated kernel registered for pipeline %q", label)
	}
	return &simPipeline{label: label, fn: fn}, nil
}

// simBatch executes each Dispatch immediately; Submit is a no-op.
type simBatch struct{}

func (d *SimDevice) NewBatch(ctx context.Context) (gpuctx.Batch, error) {
	return &simBatch{}, nil
}

func (b *simBatch) Dispatch(pipeline gpuctx.Pipeline, bindings []gpuctx.Binding, groupsX, groupsY, groupsZ uint32) error {
	sp, ok := pipeline.(*simPipeline)
	if !ok {
		return fmt.Errorf("gpusim: Dispatch: not a sim pipeline")
	}

	byBuf := map[uint32]*simBuffer{}
	for _, bd := range bindings {
		sb, ok := bd.Buffer.(*simBuffer)
		if !ok {
			return fmt.Errorf("gpusim: Dispatch: binding buffer not a sim buffer")
		}
		byBuf[bd.Slot] = sb
	}

	return sp.fn(byBuf)
}

func (d *SimDevice) Submit(ctx context.Context, batch gpuctx.Batch) error {
	return nil
}
