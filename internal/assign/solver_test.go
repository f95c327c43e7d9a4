package assign

import "testing"

func mustBuild(t *testing.T, distances [][]int64, priorities []int64, weight float64) *Network {
	t.Helper()
	n, err := buildNetwork(len(distances), len(priorities), distances, priorities, weight)
	if err != nil {
		t.Fatalf("buildNetwork: %v", err)
	}
	return n
}

func TestSolveSinglePair(t *testing.T) {
	n := mustBuild(t, [][]int64{{5}}, []int64{1}, 2)
	if n.Offset != 0 {
		t.Fatalf("offset: got %d, want 0", n.Offset)
	}
	ps, err := n.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(ps) != 1 || ps[0].Tech != 0 || ps[0].Task != 0 {
		t.Fatalf("unexpected placements: %+v", ps)
	}
	if ps[0].Cost != 3 {
		t.Fatalf("cost: got %d, want 3 (5 - 2*1)", ps[0].Cost)
	}
}

func TestSolvePicksCheapestPerfectMatching(t *testing.T) {
	// {T1:B, T2:A} costs 5+7=12; the greedy-looking {T1:A, T2:B} costs 25.
	n := mustBuild(t, [][]int64{{10, 5}, {7, 15}}, []int64{0, 0}, 0)
	ps, err := n.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("placements: got %d, want 2", len(ps))
	}
	got := map[int]int{}
	total := int64(0)
	for _, p := range ps {
		got[p.Tech] = p.Task
		total += p.Cost
	}
	if got[0] != 1 || got[1] != 0 {
		t.Fatalf("matching: got %v, want {0:1, 1:0}", got)
	}
	if total != 12 {
		t.Fatalf("total cost: got %d, want 12", total)
	}
}

func TestSolveMoreTechniciansThanTasks(t *testing.T) {
	n := mustBuild(t, [][]int64{{4, 9}, {3, 3}, {8, 1}}, []int64{0, 0}, 0)
	ps, err := n.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("placements: got %d, want 2 (min(3,2))", len(ps))
	}
	seenTech := map[int]bool{}
	seenTask := map[int]bool{}
	for _, p := range ps {
		if seenTech[p.Tech] {
			t.Fatalf("technician %d placed twice", p.Tech)
		}
		if seenTask[p.Task] {
			t.Fatalf("task %d placed twice", p.Task)
		}
		seenTech[p.Tech] = true
		seenTask[p.Task] = true
	}
	// Optimal is T2->task0 (3) and T3->task1 (1).
	total := int64(0)
	for _, p := range ps {
		total += p.Cost
	}
	if total != 4 {
		t.Fatalf("total cost: got %d, want 4", total)
	}
}

func TestSolveMoreTasksThanTechnicians(t *testing.T) {
	n := mustBuild(t, [][]int64{{10, 5, 12, 8}, {7, 15, 6, 11}}, []int64{0, 0, 0, 0}, 0)
	ps, err := n.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("placements: got %d, want 2 (min(2,4))", len(ps))
	}
	total := int64(0)
	for _, p := range ps {
		total += p.Cost
	}
	if total != 11 {
		t.Fatalf("total cost: got %d, want 11 (5 + 6)", total)
	}
}

func TestSolveNegativeCostsShifted(t *testing.T) {
	// weight 10 on priority 1 drives every raw cost negative; the offset
	// must restore non-negativity without changing the chosen matching.
	n := mustBuild(t, [][]int64{{2, 1}, {1, 4}}, []int64{1, 1}, 10)
	if n.Offset != 9 {
		t.Fatalf("offset: got %d, want 9", n.Offset)
	}
	for _, a := range n.Arcs {
		if a.Cost < 0 {
			t.Fatalf("negative arc cost after shift: %+v", a)
		}
	}
	ps, err := n.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	got := map[int]int{}
	for _, p := range ps {
		got[p.Tech] = p.Task
		if p.Cost >= 0 {
			t.Fatalf("reported cost should have offset removed, got %d", p.Cost)
		}
	}
	if got[0] != 1 || got[1] != 0 {
		t.Fatalf("matching: got %v, want {0:1, 1:0}", got)
	}
}

func TestSolveDeterministicTotalCost(t *testing.T) {
	distances := [][]int64{{3, 3, 7}, {3, 3, 9}, {6, 2, 2}}
	first := int64(-1)
	for run := 0; run < 5; run++ {
		n := mustBuild(t, distances, []int64{1, 1, 1}, 2)
		ps, err := n.Solve()
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		total := int64(0)
		for _, p := range ps {
			total += p.Cost
		}
		if first == -1 {
			first = total
		} else if total != first {
			t.Fatalf("total cost changed between runs: %d vs %d", total, first)
		}
	}
}

func TestSolveInfeasibleNetwork(t *testing.T) {
	// A malformed network whose tech->task arc cannot carry the demanded
	// unit. Built by hand since buildNetwork never produces one.
	n := &Network{
		NumTechs: 1,
		NumTasks: 1,
		Arcs: []Arc{
			{Tail: 0, Head: 1, Cap: 1, Cost: 0},
			{Tail: 1, Head: 2, Cap: 0, Cost: 5},
			{Tail: 2, Head: 3, Cap: 1, Cost: 0},
		},
		Supply: []int64{1, 0, 0, -1},
	}
	if _, err := n.Solve(); err != ErrInfeasible {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}
