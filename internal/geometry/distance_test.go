package geometry

import (
	"testing"

	"fieldops/internal/model"
)

func TestDistanceFloorWeight(t *testing.T) {
	a := model.Location{X: 0, Y: 0, Z: 0}
	b := model.Location{X: 0, Y: 0, Z: 10}
	if got := Distance(a, b, 1.0); got != 10 {
		t.Fatalf("unweighted vertical: got %d, want 10", got)
	}
	if got := Distance(a, b, 2.0); got != 20 {
		t.Fatalf("weighted vertical: got %d, want 20", got)
	}
	// Zero weight falls back to the default.
	if got := Distance(a, b, 0); got != 12 {
		t.Fatalf("default weight: got %d, want 12", got)
	}
}

func TestDistanceRounds(t *testing.T) {
	a := model.Location{X: 0, Y: 0}
	b := model.Location{X: 3, Y: 4}
	if got := Distance(a, b, 1.0); got != 5 {
		t.Fatalf("3-4-5: got %d", got)
	}
	c := model.Location{X: 1, Y: 1}
	if got := Distance(a, c, 1.0); got != 1 { // sqrt(2) rounds to 1
		t.Fatalf("sqrt2: got %d, want 1", got)
	}
}

func TestMatrixShape(t *testing.T) {
	techs := []model.Technician{
		{ID: "T1", Location: model.Location{X: 0}},
		{ID: "T2", Location: model.Location{X: 10}},
	}
	racks := []model.Location{{X: 2}, {X: 4}, {X: 6}}
	m := Matrix(techs, racks, 1.0)
	if len(m) != 2 || len(m[0]) != 3 || len(m[1]) != 3 {
		t.Fatalf("shape: got %dx%d", len(m), len(m[0]))
	}
	if m[0][0] != 2 || m[1][2] != 4 {
		t.Fatalf("values: %v", m)
	}
}
