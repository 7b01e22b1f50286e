package lbvh

import (
	"bufio"
	"fmt"
	"os"
)

// csvHeader matches spec §6 exactly: no propertyIdx column.
const csvHeader = "left right primitiveIdx aabb_min_x aabb_min_y aabb_min_z aabb_max_x aabb_max_y aabb_max_z"

// WriteCSV dumps nodes to path in the whitespace-separated format described
// by spec §6, one row per node, for golden-file comparison (scenario E).
func WriteCSV(path string, nodes []LBVHNode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, n := range nodes {
		_, err := fmt.Fprintf(w, "%d %d %d %g %g %g %g %g %g\n",
			n.Left, n.Right, n.PrimitiveID,
			n.AABBMin.X(), n.AABBMin.Y(), n.AABBMin.Z(),
			n.AABBMax.X(), n.AABBMax.Y(), n.AABBMax.Z())
		if err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	return w.Flush()
}
