package mesh

import "testing"

func TestSingleTriangle(t *testing.T) {
	tris, extent, err := SingleTriangle().Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(tris))
	}
	if extent.Min != [3]float32{0, 0, 0} || extent.Max != [3]float32{1, 1, 0} {
		t.Errorf("extent = %+v, want min (0,0,0) max (1,1,0)", extent)
	}
}

func TestTwoSeparatedBoxes(t *testing.T) {
	tris, extent, err := TwoSeparatedBoxes().Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles (one per box), got %d", len(tris))
	}
	want := [3]float32{-0.5, -0.5, -0.5}
	if extent.Min != want {
		t.Errorf("extent.Min = %v, want %v", extent.Min, want)
	}
	wantMax := [3]float32{10.5, 0.5, 0.5}
	if extent.Max != wantMax {
		t.Errorf("extent.Max = %v, want %v", extent.Max, wantMax)
	}
}

func TestColinearStrip(t *testing.T) {
	tris, extent, err := ColinearStrip(4).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 4 {
		t.Fatalf("expected 4 triangles, got %d", len(tris))
	}
	if extent.Min[0] != 0.5 || extent.Max[0] != 4.5 {
		t.Errorf("extent x range = [%v, %v], want [0.5, 4.5]", extent.Min[0], extent.Max[0])
	}
}

func TestDuplicateTriangles(t *testing.T) {
	tris, _, err := DuplicateTriangles(8).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tris) != 8 {
		t.Fatalf("expected 8 triangles, got %d", len(tris))
	}
	for i := 1; i < len(tris); i++ {
		if tris[i].V0 != tris[0].V0 || tris[i].V1 != tris[0].V1 || tris[i].V2 != tris[0].V2 {
			t.Errorf("triangle %d geometry differs from triangle 0", i)
		}
		if tris[i].PrimitiveID == tris[0].PrimitiveID {
			t.Errorf("triangle %d shares a primitive id with triangle 0", i)
		}
	}
}
