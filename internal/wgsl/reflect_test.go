package wgsl

import "testing"

const sampleSource = `
struct MortonParams {
	num_elements: u32,
	min: vec3<f32>,
	max: vec3<f32>,
}

@group(0) @binding(0) var<storage, read_write> morton: array<u32>;
@group(0) @binding(1) var<storage, read> elements: array<Element>;
@group(0) @binding(2) var<uniform> params: MortonParams;

@compute @workgroup_size(256, 1, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	morton[gid.x] = 0u;
}
`

func TestReflect_Bindings(t *testing.T) {
	mod, err := Reflect(sampleSource)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}

	if len(mod.Bindings) != 3 {
		t.Fatalf("expected 3 bindings, got %d: %+v", len(mod.Bindings), mod.Bindings)
	}

	want := map[int]BindingKind{
		0: BindingStorage,
		1: BindingStorageReadOnly,
		2: BindingUniform,
	}
	for _, b := range mod.Bindings {
		if b.Group != 0 {
			t.Errorf("binding %d: group = %d, want 0", b.Slot, b.Group)
		}
		k, ok := want[b.Slot]
		if !ok {
			t.Errorf("unexpected binding slot %d", b.Slot)
			continue
		}
		if b.Kind != k {
			t.Errorf("binding %d: kind = %v, want %v", b.Slot, b.Kind, k)
		}
	}
}

func TestReflect_EntryPointAndWorkgroupSize(t *testing.T) {
	mod, err := Reflect(sampleSource)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if mod.EntryPoint != "main" {
		t.Errorf("EntryPoint = %q, want %q", mod.EntryPoint, "main")
	}
	if mod.WorkgroupSize != [3]int{256, 1, 1} {
		t.Errorf("WorkgroupSize = %v, want [256 1 1]", mod.WorkgroupSize)
	}
}

func TestReflect_BindingsByGroup(t *testing.T) {
	mod, err := Reflect(sampleSource)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	byGroup := mod.BindingsByGroup()
	if len(byGroup[0]) != 3 {
		t.Errorf("group 0 should have 3 bindings, got %d", len(byGroup[0]))
	}
}

func TestReflect_MissingEntryPointFails(t *testing.T) {
	const noEntry = `@group(0) @binding(0) var<storage, read_write> morton: array<u32>;`
	if _, err := Reflect(noEntry); err == nil {
		t.Errorf("expected an error for a shader with no @compute entry point")
	}
}
