package assign

import "testing"

// With distances tied, raising the priority weight must never steer a
// technician toward a lower-priority task.
func TestPriorityWeightFavorsHighPriorityTask(t *testing.T) {
	distances := [][]int64{{6, 6}}
	priorities := []int64{1, 5}
	for _, weight := range []float64{0.5, 1, 2, 4} {
		n := mustBuild(t, distances, priorities, weight)
		ps, err := n.Solve()
		if err != nil {
			t.Fatalf("solve at weight %v: %v", weight, err)
		}
		if len(ps) != 1 || ps[0].Task != 1 {
			t.Fatalf("weight %v: technician sent to task %d, want high-priority task 1", weight, ps[0].Task)
		}
	}
}

// Raising the weight only ever moves technicians toward higher-priority
// tasks, never away from them.
func TestPriorityWeightMonotonic(t *testing.T) {
	distances := [][]int64{{3, 8}} // task 1 is farther but higher priority
	priorities := []int64{1, 4}
	var pickedHigh bool
	for _, weight := range []float64{0, 1, 2, 3, 5} {
		n := mustBuild(t, distances, priorities, weight)
		ps, err := n.Solve()
		if err != nil {
			t.Fatalf("solve at weight %v: %v", weight, err)
		}
		choseHigh := ps[0].Task == 1
		if pickedHigh && !choseHigh {
			t.Fatalf("weight %v regressed to low-priority task after a higher-priority pick", weight)
		}
		if choseHigh {
			pickedHigh = true
		}
	}
	if !pickedHigh {
		t.Fatal("expected large weights to pick the high-priority task")
	}
}
