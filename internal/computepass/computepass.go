// Package computepass implements the generic multi-stage compute dispatcher
// described by spec §4.7: a pass holds, per stage, one pipeline and one set
// of bound storage/uniform buffers, and records+submits all stages in order
// with a barrier-equivalent boundary between each.
package computepass

import (
	"context"
	"fmt"
	"sort"

	"github.com/lbvhgpu/lbvh/internal/gpuctx"
	"github.com/lbvhgpu/lbvh/internal/lbvhlog"
	"github.com/lbvhgpu/lbvh/internal/wgsl"
)

// Stage is one ordinal of a Pass: one shader, one pipeline, one descriptor
// group, and the buffers bound to its declared (group, slot) bindings.
type Stage struct {
	Label      string
	Group      uint32
	EntryPoint string

	pipeline   gpuctx.Pipeline
	bindings   map[uint32]gpuctx.Buffer
	reflected  wgsl.Module
	groupsX    uint32
	groupsY    uint32
	groupsZ    uint32
}

// Bind attaches buf to this stage's (Group, slot) descriptor binding. The
// orchestrator calls this once per declared binding before RecordAndSubmit.
func (s *Stage) Bind(slot uint32, buf gpuctx.Buffer) {
	s.bindings[slot] = buf
}

// SetWorkgroups fixes this stage's dispatch size.
func (s *Stage) SetWorkgroups(x, y, z uint32) {
	s.groupsX, s.groupsY, s.groupsZ = x, y, z
}

// Pass is the ComputePass collaborator: an ordered list of Stages sharing
// one device.
type Pass struct {
	device gpuctx.Device
	log    lbvhlog.Logger
	stages []*Stage
}

// New returns an empty Pass bound to device.
func New(device gpuctx.Device, log lbvhlog.Logger) *Pass {
	if log == nil {
		log = lbvhlog.Noop{}
	}
	return &Pass{device: device, log: log}
}

// AddStage compiles source into a pipeline and appends a new Stage. Shader
// reflection runs immediately so a kernel with no recognizable @compute
// entry point fails here rather than at submit time; the bound slots are
// checked against the reflected @binding declarations in RecordAndSubmit.
func (p *Pass) AddStage(ctx context.Context, label string, group uint32, source, entryPoint string) (*Stage, error) {
	mod, err := wgsl.Reflect(source)
	if err != nil {
		return nil, fmt.Errorf("computepass: reflect stage %q: %w", label, err)
	}

	pipeline, err := p.device.CreateComputePipeline(ctx, label, source, entryPoint)
	if err != nil {
		return nil, fmt.Errorf("computepass: compile stage %q: %w", label, err)
	}

	stage := &Stage{
		Label:      label,
		Group:      group,
		EntryPoint: entryPoint,
		pipeline:   pipeline,
		bindings:   map[uint32]gpuctx.Buffer{},
		reflected:  mod,
	}
	p.stages = append(p.stages, stage)
	p.log.Debugf("computepass: stage %q compiled, workgroup_size=%v, %d bindings reflected",
		label, mod.WorkgroupSize, len(mod.Bindings))
	return stage, nil
}

// RecordAndSubmit dispatches every stage, in the order AddStage was called,
// as one compute pass each on a shared batch — the write-then-read ordering
// spec §4.7 describes as a memory barrier between stages — then submits and
// blocks until the queue is idle.
func (p *Pass) RecordAndSubmit(ctx context.Context) error {
	batch, err := p.device.NewBatch(ctx)
	if err != nil {
		return fmt.Errorf("computepass: new batch: %w", err)
	}

	for _, stage := range p.stages {
		if err := stage.validateBindings(); err != nil {
			return fmt.Errorf("computepass: stage %q: %w", stage.Label, err)
		}
		bindings := stage.sortedBindings()
		if err := batch.Dispatch(stage.pipeline, bindings, stage.groupsX, stage.groupsY, stage.groupsZ); err != nil {
			return fmt.Errorf("computepass: dispatch stage %q: %w", stage.Label, err)
		}
	}

	return p.device.Submit(ctx, batch)
}

// Release frees every stage's pipeline.
func (p *Pass) Release() {
	for _, stage := range p.stages {
		if stage.pipeline != nil {
			stage.pipeline.Release()
		}
	}
}

func (s *Stage) sortedBindings() []gpuctx.Binding {
	slots := make([]uint32, 0, len(s.bindings))
	for slot := range s.bindings {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	out := make([]gpuctx.Binding, 0, len(slots))
	for _, slot := range slots {
		out = append(out, gpuctx.Binding{Group: s.Group, Slot: slot, Buffer: s.bindings[slot]})
	}
	return out
}

func (s *Stage) validateBindings() error {
	declared := map[uint32]bool{}
	for _, b := range s.reflected.Bindings {
		declared[uint32(b.Slot)] = true
	}
	for slot := range s.bindings {
		if !declared[slot] {
			return fmt.Errorf("bound slot %d has no matching @binding in shader source", slot)
		}
	}
	for slot := range declared {
		if _, bound := s.bindings[slot]; !bound {
			return fmt.Errorf("declared @binding slot %d was never bound", slot)
		}
	}
	return nil
}
