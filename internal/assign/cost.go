package assign

// arcCost is the raw cost of routing one technician to one task:
// distance minus the weighted task priority. Negative results are expected
// here; they are corrected once, matrix-wide, by shiftNonNegative so that
// the relative ordering of all pairings survives.
func arcCost(distance int64, priority int64, weight float64) int64 {
	return int64(float64(distance) - weight*float64(priority))
}

// costMatrix computes the T x N raw cost matrix from distances and per-task
// priorities. Shapes must already agree; callers validate before building.
func costMatrix(distances [][]int64, priorities []int64, weight float64) [][]int64 {
	costs := make([][]int64, len(distances))
	for i, row := range distances {
		out := make([]int64, len(row))
		for j, d := range row {
			out[j] = arcCost(d, priorities[j], weight)
		}
		costs[i] = out
	}
	return costs
}

// shiftNonNegative adds a uniform offset so every entry is >= 0, as the flow
// solver requires, and returns the offset applied. The offset is subtracted
// back out when a per-assignment cost is reported.
func shiftNonNegative(costs [][]int64) int64 {
	var min int64
	for _, row := range costs {
		for _, c := range row {
			if c < min {
				min = c
			}
		}
	}
	if min >= 0 {
		return 0
	}
	offset := -min
	for _, row := range costs {
		for j := range row {
			row[j] += offset
		}
	}
	return offset
}
