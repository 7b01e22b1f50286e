// Package wgsl implements lightweight source-level reflection over WGSL
// compute shaders: discovering descriptor-set bindings and workgroup sizes
// without a full WGSL parser.
//
// The corpus carries no WGSL/SPIR-V reflection library (the original
// implementation this was distilled from used SPIRV-Reflect over compiled
// SPIR-V binaries), so this walks the shader source text directly with
// regular expressions — sufficient because the binding/workgroup-size
// annotations are syntactically simple and always appear at module scope.
// Binding indices and workgroup sizes are recognized only as integer
// literals; a named constant in @workgroup_size is not resolved.
package wgsl

import (
	"fmt"
	"regexp"
	"strconv"
)

// BindingKind distinguishes the resource kind backing a binding slot.
type BindingKind int

const (
	BindingStorage BindingKind = iota
	BindingStorageReadOnly
	BindingUniform
)

// Binding describes one `@group(g) @binding(b) var<...>` declaration.
type Binding struct {
	Group int
	Slot  int
	Name  string
	Kind  BindingKind
}

// Module is the reflected shape of one WGSL source file: its bindings and
// its compute entry point's workgroup size.
type Module struct {
	Bindings      []Binding
	EntryPoint    string
	WorkgroupSize [3]int
}

// BindingsByGroup groups the reflected bindings by their @group index,
// sorted by binding slot, matching the descriptor-set-layout shape the
// original collaborator contract describes (one layout per group).
func (m Module) BindingsByGroup() map[int][]Binding {
	out := map[int][]Binding{}
	for _, b := range m.Bindings {
		out[b.Group] = append(out[b.Group], b)
	}
	for g := range out {
		bs := out[g]
		for i := 1; i < len(bs); i++ {
			for j := i; j > 0 && bs[j-1].Slot > bs[j].Slot; j-- {
				bs[j-1], bs[j] = bs[j], bs[j-1]
			}
		}
		out[g] = bs
	}
	return out
}

var (
	bindingRe = regexp.MustCompile(
		`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s*(\w+)\s*:`)
	workgroupRe = regexp.MustCompile(
		`@compute\s*@workgroup_size\((\d+)\s*(?:,\s*(\d+))?\s*(?:,\s*(\d+))?\)\s*fn\s+(\w+)`)
)

// Reflect parses source and extracts its bindings and single compute entry
// point. Returns an error if no @compute entry point is found.
func Reflect(source string) (Module, error) {
	var m Module

	for _, match := range bindingRe.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(match[1])
		slot, _ := strconv.Atoi(match[2])
		qualifiers := match[3]
		name := match[4]
		m.Bindings = append(m.Bindings, Binding{
			Group: group,
			Slot:  slot,
			Name:  name,
			Kind:  classify(qualifiers),
		})
	}

	wg := workgroupRe.FindStringSubmatch(source)
	if wg == nil {
		return Module{}, fmt.Errorf("wgsl: no @compute entry point found")
	}
	m.WorkgroupSize[0] = atoiDefault(wg[1], 1)
	m.WorkgroupSize[1] = atoiDefault(wg[2], 1)
	m.WorkgroupSize[2] = atoiDefault(wg[3], 1)
	m.EntryPoint = wg[4]

	return m, nil
}

func classify(qualifiers string) BindingKind {
	switch {
	case containsWord(qualifiers, "uniform"):
		return BindingUniform
	case containsWord(qualifiers, "read"):
		return BindingStorageReadOnly
	default:
		return BindingStorage
	}
}

func containsWord(s, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(s)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
