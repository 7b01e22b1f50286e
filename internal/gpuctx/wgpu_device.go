package gpuctx

import (
	"context"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lbvhgpu/lbvh/internal/lbvhlog"
)

// WGPUDevice is the production Device implementation, backed by
// github.com/cogentcore/webgpu. Bootstrap mirrors the teacher's
// Instance/Adapter/Device/Queue sequence in voxelrt/rt/app/app.go, minus the
// Surface/window: this builder is headless.
type WGPUDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	log      lbvhlog.Logger
}

// NewWGPUDevice creates an Instance, requests a high-performance Adapter
// with no compatible surface (compute-only), and requests a Device + Queue.
func NewWGPUDevice(log lbvhlog.Logger) (*WGPUDevice, error) {
	if log == nil {
		log = lbvhlog.Noop{}
	}

	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request adapter: %v", ErrDeviceInit, err)
	}

	// Default limits are sufficient: the radix-sort kernel's workgroup
	// shared-memory footprint (internal/shaders.RadixSortMaxElements) is sized
	// to fit within the portable default maxComputeWorkgroupStorageSize, so no
	// RequiredLimits override is needed here.
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %v", ErrDeviceInit, err)
	}

	d := &WGPUDevice{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		log:      log,
	}
	log.Infof("wgpu device initialized (headless, compute-only)")
	return d, nil
}

// Release tears down the device; call once the builder is done with it.
func (d *WGPUDevice) Release() {
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}

type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Size() uint64 { return b.size }
func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

func toWGPUUsage(u BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&BufferUsageCopySrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if u&BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&BufferUsageMapRead != 0 {
		out |= wgpu.BufferUsageMapRead
	}
	return out
}

// CreateBuffer allocates a device buffer, always adding CopyDst/CopySrc so
// later WriteBuffer/ReadBuffer calls work regardless of the caller's
// declared usage — the same liberal-usage convention as the teacher's
// ensureBuffer (voxelrt/rt/gpu/manager.go).
func (d *WGPUDevice) CreateBuffer(ctx context.Context, label string, size uint64, usage BufferUsage, initial []byte) (Buffer, error) {
	if size == 0 {
		size = 4
	}
	// wgpu buffer sizes must be 4-byte aligned.
	if size%4 != 0 {
		size += 4 - (size % 4)
	}

	wusage := toWGPUUsage(usage) | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wusage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: buffer %q: %v", ErrAllocation, label, err)
	}

	out := &wgpuBuffer{buf: buf, size: size}
	if len(initial) > 0 {
		d.queue.WriteBuffer(buf, 0, initial)
	}
	return out, nil
}

func (d *WGPUDevice) WriteBuffer(ctx context.Context, buf Buffer, offset uint64, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("%w: WriteBuffer: not a wgpu buffer", ErrAllocation)
	}
	d.queue.WriteBuffer(wb.buf, offset, data)
	return nil
}

// ReadBuffer downloads via MapAsync/Poll/GetMappedRange/Unmap, the same
// sequence as the teacher's HiZ readback (voxelrt/rt/gpu/manager_hiz.go
// ReadbackHiZ), generalized from texture data to a plain buffer range.
func (d *WGPUDevice) ReadBuffer(ctx context.Context, buf Buffer, offset, size uint64) ([]byte, error) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return nil, fmt.Errorf("%w: ReadBuffer: not a wgpu buffer", ErrAllocation)
	}

	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback-staging",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: staging buffer: %v", ErrAllocation, err)
	}
	defer staging.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: command encoder: %v", ErrSubmit, err)
	}
	encoder.CopyBufferToBuffer(wb.buf, offset, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder finish: %v", ErrSubmit, err)
	}
	d.queue.Submit(cmd)

	mapped := false
	var mapErr error
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status == wgpu.BufferMapAsyncStatusSuccess {
			mapped = true
		} else {
			mapErr = fmt.Errorf("map status %d", status)
		}
	})
	for !mapped && mapErr == nil {
		d.device.Poll(true, nil)
	}
	if mapErr != nil {
		return nil, fmt.Errorf("%w: map readback buffer: %v", ErrSubmit, mapErr)
	}

	view := staging.GetMappedRange(0, uint(size))
	out := make([]byte, len(view))
	copy(out, view)
	staging.Unmap()

	return out, nil
}

type wgpuPipeline struct {
	pipeline *wgpu.ComputePipeline
	module   *wgpu.ShaderModule
}

func (p *wgpuPipeline) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.module != nil {
		p.module.Release()
	}
}

// CreateComputePipeline compiles WGSL source and creates a compute pipeline
// with an auto-derived bind group layout (Layout left nil), the same
// pattern as the teacher's CreateShadowPipeline
// (voxelrt/rt/gpu/manager.go).
func (d *WGPUDevice) CreateComputePipeline(ctx context.Context, label, source, entryPoint string) (Pipeline, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShaderCompile, label, err)
	}

	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: label,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: entryPoint,
		},
	})
	if err != nil {
		module.Release()
		return nil, fmt.Errorf("%w: %s: %v", ErrShaderCompile, label, err)
	}

	return &wgpuPipeline{pipeline: pipeline, module: module}, nil
}

// wgpuBatch accumulates one BeginComputePass/End pair per Dispatch call on a
// shared encoder — the barrier-equivalent boundary per SPEC_FULL §3.2.
type wgpuBatch struct {
	device  *wgpu.Device
	encoder *wgpu.CommandEncoder
}

func (d *WGPUDevice) NewBatch(ctx context.Context) (Batch, error) {
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: command encoder: %v", ErrSubmit, err)
	}
	return &wgpuBatch{device: d.device, encoder: encoder}, nil
}

func (b *wgpuBatch) Dispatch(pipeline Pipeline, bindings []Binding, groupsX, groupsY, groupsZ uint32) error {
	wp, ok := pipeline.(*wgpuPipeline)
	if !ok {
		return fmt.Errorf("%w: Dispatch: not a wgpu pipeline", ErrSubmit)
	}

	byGroup := map[uint32][]Binding{}
	for _, bd := range bindings {
		byGroup[bd.Group] = append(byGroup[bd.Group], bd)
	}

	pass := b.encoder.BeginComputePass(nil)
	pass.SetPipeline(wp.pipeline)

	for group, bs := range byGroup {
		layout := wp.pipeline.GetBindGroupLayout(group)
		entries := make([]wgpu.BindGroupEntry, 0, len(bs))
		for _, bd := range bs {
			wb, ok := bd.Buffer.(*wgpuBuffer)
			if !ok {
				return fmt.Errorf("%w: Dispatch: binding buffer not a wgpu buffer", ErrSubmit)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: bd.Slot,
				Buffer:  wb.buf,
				Size:    wgpu.WholeSize,
			})
		}
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  layout,
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("%w: bind group (group %d): %v", ErrSubmit, group, err)
		}
		pass.SetBindGroup(group, bg, nil)
	}

	pass.DispatchWorkgroups(groupsX, groupsY, groupsZ)
	pass.End()
	return nil
}

func (d *WGPUDevice) Submit(ctx context.Context, batch Batch) error {
	wb, ok := batch.(*wgpuBatch)
	if !ok {
		return fmt.Errorf("%w: Submit: not a wgpu batch", ErrSubmit)
	}
	cmd, err := wb.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("%w: encoder finish: %v", ErrSubmit, err)
	}
	d.queue.Submit(cmd)
	d.device.Poll(true, nil)
	return nil
}
