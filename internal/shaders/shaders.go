// Package shaders embeds the WGSL kernel sources for the four-stage LBVH
// pipeline, following the teacher's per-file go:embed convention.
package shaders

import (
	_ "embed"
)

//go:embed lbvh_morton.wgsl
var MortonWGSL string

//go:embed lbvh_radixsort.wgsl
var RadixSortWGSL string

//go:embed lbvh_hierarchy.wgsl
var HierarchyWGSL string

//go:embed lbvh_aabb_fit.wgsl
var AabbFitWGSL string

// RadixSortMaxElements mirrors lbvh_radixsort.wgsl's MAX_ELEMENTS constant:
// the single-workgroup sort keeps its whole working set in workgroup shared
// memory, which caps element count well under the portable
// maxComputeWorkgroupStorageSize default of 16384 bytes. Callers must reject
// larger inputs rather than dispatch the kernel, which would silently
// overflow scratch_keys/scratch_idx.
const RadixSortMaxElements = 1024
