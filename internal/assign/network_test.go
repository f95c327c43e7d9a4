package assign

import "testing"

func TestNetworkLayout(t *testing.T) {
	n := mustBuild(t, [][]int64{{4, 6, 8}, {5, 7, 9}}, []int64{1, 1, 1}, 0)

	if n.Source() != 0 {
		t.Fatalf("source: got %d", n.Source())
	}
	if n.Sink() != 6 { // 2 techs + 3 tasks + 1
		t.Fatalf("sink: got %d, want 6", n.Sink())
	}
	wantArcs := 2 + 2*3 + 3
	if len(n.Arcs) != wantArcs {
		t.Fatalf("arc count: got %d, want %d", len(n.Arcs), wantArcs)
	}

	// Source->tech arcs first.
	for i := 0; i < 2; i++ {
		a := n.Arcs[i]
		if a.Tail != 0 || a.Head != 1+i || a.Cap != 1 || a.Cost != 0 {
			t.Fatalf("source arc %d: %+v", i, a)
		}
	}
	// Tech->task arcs in technician-major order with shifted costs.
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			a := n.Arcs[n.techArcIndex(i, j)]
			if a.Tail != 1+i || a.Head != 2+1+j || a.Cap != 1 {
				t.Fatalf("tech arc (%d,%d): %+v", i, j, a)
			}
		}
	}
	// Task->sink arcs last.
	for j := 0; j < 3; j++ {
		a := n.Arcs[2+2*3+j]
		if a.Tail != 2+1+j || a.Head != n.Sink() || a.Cap != 1 || a.Cost != 0 {
			t.Fatalf("sink arc %d: %+v", j, a)
		}
	}
}

func TestNetworkSupplies(t *testing.T) {
	// More technicians than tasks: sink demand capped at the task count.
	n := mustBuild(t, [][]int64{{1, 2}, {3, 4}, {5, 6}}, []int64{1, 1}, 0)
	if n.Supply[n.Source()] != 3 {
		t.Fatalf("source supply: got %d, want 3", n.Supply[n.Source()])
	}
	if n.Supply[n.Sink()] != -2 {
		t.Fatalf("sink demand: got %d, want -2", n.Supply[n.Sink()])
	}
	for i := 1; i < n.Sink(); i++ {
		if n.Supply[i] != 0 {
			t.Fatalf("interior node %d has supply %d", i, n.Supply[i])
		}
	}
}

func TestNetworkShapeMismatch(t *testing.T) {
	if _, err := buildNetwork(2, 2, [][]int64{{1, 2}}, []int64{1, 1}, 0); err == nil {
		t.Fatal("expected error for wrong row count")
	}
	if _, err := buildNetwork(2, 2, [][]int64{{1, 2}, {3}}, []int64{1, 1}, 0); err == nil {
		t.Fatal("expected error for ragged row")
	}
	if _, err := buildNetwork(1, 2, [][]int64{{1, 2}}, []int64{1}, 0); err == nil {
		t.Fatal("expected error for priorities length mismatch")
	}
}

func TestCostShift(t *testing.T) {
	costs := [][]int64{{3, -4}, {0, 2}}
	offset := shiftNonNegative(costs)
	if offset != 4 {
		t.Fatalf("offset: got %d, want 4", offset)
	}
	want := [][]int64{{7, 0}, {4, 6}}
	for i := range want {
		for j := range want[i] {
			if costs[i][j] != want[i][j] {
				t.Fatalf("shifted[%d][%d]: got %d, want %d", i, j, costs[i][j], want[i][j])
			}
		}
	}

	nonneg := [][]int64{{0, 5}}
	if off := shiftNonNegative(nonneg); off != 0 {
		t.Fatalf("offset for non-negative matrix: got %d, want 0", off)
	}
}

func TestArcCostTruncation(t *testing.T) {
	// Matches integer conversion of distance - weight*priority.
	if c := arcCost(5, 1, 2); c != 3 {
		t.Fatalf("arcCost(5,1,2): got %d, want 3", c)
	}
	if c := arcCost(5, 1, 2.5); c != 2 {
		t.Fatalf("arcCost(5,1,2.5): got %d, want 2", c)
	}
	if c := arcCost(1, 2, 2); c != -3 {
		t.Fatalf("arcCost(1,2,2): got %d, want -3", c)
	}
}
