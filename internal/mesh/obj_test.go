package mesh

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempOBJ(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.obj")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp obj: %v", err)
	}
	return path
}

func TestOBJLoader_SingleTriangle(t *testing.T) {
	path := writeTempOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)
	tris, extent, err := OBJLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(tris))
	}
	if tris[0].PrimitiveID != 0 {
		t.Errorf("PrimitiveID = %d, want 0", tris[0].PrimitiveID)
	}
	if extent.Min != [3]float32{0, 0, 0} || extent.Max != [3]float32{1, 1, 0} {
		t.Errorf("extent = %+v, want min (0,0,0) max (1,1,0)", extent)
	}
}

func TestOBJLoader_FaceVertexTextureNormalIndices(t *testing.T) {
	path := writeTempOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
`)
	tris, _, err := OBJLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(tris))
	}
}

func TestOBJLoader_RejectsNonTriangularFace(t *testing.T) {
	path := writeTempOBJ(t, `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`)
	_, _, err := OBJLoader{}.Load(path)
	if err == nil {
		t.Fatalf("expected an error for a quad face")
	}
}

func TestOBJLoader_RejectsNonFiniteCoordinate(t *testing.T) {
	path := writeTempOBJ(t, `
v 0 0 0
v NaN 0 0
v 0 1 0
f 1 2 3
`)
	_, _, err := OBJLoader{}.Load(path)
	if err == nil {
		t.Fatalf("expected an error for a NaN coordinate")
	}
}

func TestOBJLoader_SequentialPrimitiveIDs(t *testing.T) {
	path := writeTempOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 2 4 3
`)
	tris, _, err := OBJLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(tris))
	}
	if tris[0].PrimitiveID != 0 || tris[1].PrimitiveID != 1 {
		t.Errorf("expected sequential ids 0,1; got %d,%d", tris[0].PrimitiveID, tris[1].PrimitiveID)
	}
}
