package lbvh

import "testing"

func TestVerifyMortonSorted_Accepts(t *testing.T) {
	sorted := []MortonCodeElement{
		{MortonCode: 0, ElementIndex: 2},
		{MortonCode: 5, ElementIndex: 0},
		{MortonCode: 5, ElementIndex: 1}, // ties are fine; order between them is unconstrained
		{MortonCode: 9, ElementIndex: 3},
	}
	if err := VerifyMortonSorted(sorted); err != nil {
		t.Fatalf("VerifyMortonSorted: unexpected error: %v", err)
	}
}

func TestVerifyMortonSorted_Empty(t *testing.T) {
	if err := VerifyMortonSorted(nil); err != nil {
		t.Fatalf("VerifyMortonSorted(nil): %v", err)
	}
}

func TestVerifyMortonSorted_RejectsDescendingPair(t *testing.T) {
	sorted := []MortonCodeElement{
		{MortonCode: 10, ElementIndex: 0},
		{MortonCode: 3, ElementIndex: 1},
	}
	if err := VerifyMortonSorted(sorted); err == nil {
		t.Fatal("VerifyMortonSorted: expected error for descending morton codes, got nil")
	}
}
