package assign

import "fmt"

// Node numbering: source = 0, technicians = 1..T, tasks = T+1..T+N,
// sink = T+N+1. Arcs are emitted as all source->technician arcs, then all
// technician->task arcs in technician-major order, then all task->sink arcs.
// The solver decodes assignments by arc index, so this layout is load-bearing.

// Arc is one directed, capacitated, costed edge of the flow network.
type Arc struct {
	Tail int
	Head int
	Cap  int64
	Cost int64
}

// Network is the min-cost-flow model of one assignment problem instance.
type Network struct {
	NumTechs int
	NumTasks int
	Arcs     []Arc
	// Supply per node; positive at the source, negative at the sink.
	Supply []int64
	// Offset is the uniform cost shift applied to tech->task arcs.
	Offset int64
}

// Source and sink node ids for this network.
func (n *Network) Source() int { return 0 }
func (n *Network) Sink() int   { return n.NumTechs + n.NumTasks + 1 }

// techArcIndex returns the arc index of the technician i -> task j arc.
func (n *Network) techArcIndex(i, j int) int {
	return n.NumTechs + i*n.NumTasks + j
}

// buildNetwork constructs the flow network for T technicians and N tasks
// over an already known distance matrix. The distance matrix shape must be
// exactly T x N; anything else is a caller bug and fails fast.
func buildNetwork(numTechs, numTasks int, distances [][]int64, priorities []int64, weight float64) (*Network, error) {
	if len(distances) != numTechs {
		return nil, fmt.Errorf("distance matrix has %d rows, want %d", len(distances), numTechs)
	}
	for i, row := range distances {
		if len(row) != numTasks {
			return nil, fmt.Errorf("distance row %d has %d columns, want %d", i, len(row), numTasks)
		}
	}
	if len(priorities) != numTasks {
		return nil, fmt.Errorf("priorities has %d entries, want %d", len(priorities), numTasks)
	}

	costs := costMatrix(distances, priorities, weight)
	offset := shiftNonNegative(costs)

	source := 0
	sink := numTechs + numTasks + 1
	arcs := make([]Arc, 0, numTechs+numTechs*numTasks+numTasks)

	// Source -> technician arcs.
	for i := 0; i < numTechs; i++ {
		arcs = append(arcs, Arc{Tail: source, Head: 1 + i, Cap: 1, Cost: 0})
	}
	// Technician -> task arcs, technician-major.
	for i := 0; i < numTechs; i++ {
		for j := 0; j < numTasks; j++ {
			arcs = append(arcs, Arc{Tail: 1 + i, Head: numTechs + 1 + j, Cap: 1, Cost: costs[i][j]})
		}
	}
	// Task -> sink arcs.
	for j := 0; j < numTasks; j++ {
		arcs = append(arcs, Arc{Tail: numTechs + 1 + j, Head: sink, Cap: 1, Cost: 0})
	}

	supply := make([]int64, sink+1)
	supply[source] = int64(numTechs)
	demand := int64(numTasks)
	if int64(numTechs) < demand {
		demand = int64(numTechs)
	}
	supply[sink] = -demand

	return &Network{
		NumTechs: numTechs,
		NumTasks: numTasks,
		Arcs:     arcs,
		Supply:   supply,
		Offset:   offset,
	}, nil
}
