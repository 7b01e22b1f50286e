package aabb

import "testing"

func TestExpand_Float(t *testing.T) {
	box := NewEmptyFloat()
	box.Expand([3]float32{1, 2, 3})
	box.Expand([3]float32{-1, 5, 0})

	if box.Min != [3]float32{-1, 2, 0} {
		t.Errorf("unexpected Min: %v", box.Min)
	}
	if box.Max != [3]float32{1, 5, 3} {
		t.Errorf("unexpected Max: %v", box.Max)
	}
}

func TestExpand_Int(t *testing.T) {
	box := NewEmptyInt()
	box.Expand([3]int32{10, -3, 0})
	box.Expand([3]int32{2, 7, 100})

	if box.Min != [3]int32{2, -3, 0} {
		t.Errorf("unexpected Min: %v", box.Min)
	}
	if box.Max != [3]int32{10, 7, 100} {
		t.Errorf("unexpected Max: %v", box.Max)
	}
}

func TestExpandBox(t *testing.T) {
	a := Box[float32]{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	b := Box[float32]{Min: [3]float32{-1, 0, 0}, Max: [3]float32{0.5, 2, 1}}
	a.ExpandBox(b)

	if a.Min != [3]float32{-1, 0, 0} {
		t.Errorf("unexpected Min: %v", a.Min)
	}
	if a.Max != [3]float32{1, 2, 1} {
		t.Errorf("unexpected Max: %v", a.Max)
	}
}

func TestVolume(t *testing.T) {
	box := Box[float32]{Min: [3]float32{0, 0, 0}, Max: [3]float32{2, 3, 4}}
	if got := box.Volume(); got != 24 {
		t.Errorf("Volume() = %v, want 24", got)
	}

	degenerate := Box[float32]{Min: [3]float32{0, 0, 0}, Max: [3]float32{2, 0, 4}}
	if got := degenerate.Volume(); got != 0 {
		t.Errorf("Volume() = %v, want 0 for a degenerate box", got)
	}
}

func TestMaxExtent_PlusOneBias(t *testing.T) {
	box := Box[float32]{Min: [3]float32{0, 0, 0}, Max: [3]float32{0, 0, 0}}
	if got := box.MaxExtent(); got != 1 {
		t.Errorf("MaxExtent() = %v, want 1 for a degenerate point box", got)
	}

	box2 := Box[int32]{Min: [3]int32{0, 0, 0}, Max: [3]int32{5, 2, 1}}
	if got := box2.MaxExtent(); got != 6 {
		t.Errorf("MaxExtent() = %v, want 6", got)
	}
}

func TestMaxExtentAxis_TieBreaksFavorLaterAxes(t *testing.T) {
	cases := []struct {
		extent [3]float32
		want   int
	}{
		{[3]float32{5, 1, 1}, 0},
		{[3]float32{5, 5, 1}, 1}, // x==y: y wins since x is not strictly greater
		{[3]float32{1, 5, 5}, 2}, // y==z: z wins
		{[3]float32{3, 3, 3}, 2}, // all tied: z wins
	}
	for _, c := range cases {
		box := Box[float32]{Min: [3]float32{0, 0, 0}, Max: c.extent}
		if got := box.MaxExtentAxis(); got != c.want {
			t.Errorf("MaxExtentAxis() for extent %v = %d, want %d", c.extent, got, c.want)
		}
	}
}

func TestUnionEquals(t *testing.T) {
	childA := Box[float32]{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	childB := Box[float32]{Min: [3]float32{-1, 0, 0}, Max: [3]float32{0.5, 2, 1}}
	parent := Box[float32]{Min: [3]float32{-1, 0, 0}, Max: [3]float32{1, 2, 1}}

	if !UnionEquals(parent, childA, childB, DefaultEps) {
		t.Errorf("expected union to match parent exactly")
	}

	jittered := parent
	jittered.Max[1] += 5e-5
	if !UnionEquals(jittered, childA, childB, DefaultEps) {
		t.Errorf("expected union to match within eps for small jitter")
	}

	wrong := parent
	wrong.Max[1] += 1
	if UnionEquals(wrong, childA, childB, DefaultEps) {
		t.Errorf("expected mismatch to be detected")
	}
}
