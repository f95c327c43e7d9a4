package assign

import "errors"

// ErrInfeasible is returned when the network cannot route the required flow.
// The engine surfaces this as "no assignment available", never as a crash.
var ErrInfeasible = errors.New("assign: no feasible flow for required demand")

// Placement is one decoded technician->task arc carrying flow. Cost is the
// human-meaningful value: the arc's unit cost with the matrix offset removed.
type Placement struct {
	Tech int
	Task int
	Cost int64
}

// Solve computes an exact minimum-cost flow over the network by successive
// shortest augmenting paths, then decodes the saturated technician->task
// arcs. Integer capacities and costs make each augmentation push exactly one
// unit here (all arc capacities are 1), so the loop runs min(T, N) times.
func (n *Network) Solve() ([]Placement, error) {
	numNodes := n.Sink() + 1
	s := newResidual(numNodes, n.Arcs)

	required := -n.Supply[n.Sink()]
	pushed, _ := s.run(n.Source(), n.Sink(), required)
	if pushed != required {
		return nil, ErrInfeasible
	}

	placements := make([]Placement, 0, int(required))
	for i := 0; i < n.NumTechs; i++ {
		for j := 0; j < n.NumTasks; j++ {
			k := n.techArcIndex(i, j)
			if s.flowOn(k) > 0 {
				placements = append(placements, Placement{
					Tech: i,
					Task: j,
					Cost: n.Arcs[k].Cost - n.Offset,
				})
			}
		}
	}
	return placements, nil
}

// residual is the working residual graph. Arc k of the network maps to edge
// pair (2k, 2k+1): forward and reverse.
type residual struct {
	head []int32 // edge -> head node
	cap  []int64 // edge -> remaining capacity
	cost []int64 // edge -> cost (negated on reverse edges)
	adj  [][]int32
	orig []int64 // forward edge -> original capacity
}

func newResidual(numNodes int, arcs []Arc) *residual {
	s := &residual{
		head: make([]int32, 0, 2*len(arcs)),
		cap:  make([]int64, 0, 2*len(arcs)),
		cost: make([]int64, 0, 2*len(arcs)),
		adj:  make([][]int32, numNodes),
		orig: make([]int64, len(arcs)),
	}
	for k, a := range arcs {
		s.orig[k] = a.Cap
		s.adj[a.Tail] = append(s.adj[a.Tail], int32(len(s.head)))
		s.head = append(s.head, int32(a.Head))
		s.cap = append(s.cap, a.Cap)
		s.cost = append(s.cost, a.Cost)
		s.adj[a.Head] = append(s.adj[a.Head], int32(len(s.head)))
		s.head = append(s.head, int32(a.Tail))
		s.cap = append(s.cap, 0)
		s.cost = append(s.cost, -a.Cost)
	}
	return s
}

// flowOn reports the flow routed through original arc k.
func (s *residual) flowOn(k int) int64 {
	return s.orig[k] - s.cap[2*k]
}

const infCost = int64(1) << 62

// run augments along shortest paths until required units are pushed or no
// augmenting path remains. Shortest paths use Bellman-Ford with a FIFO
// queue: reverse edges carry negative costs, so Dijkstra does not apply
// without potentials, and problem sizes here stay small.
func (s *residual) run(source, sink int, required int64) (pushed, totalCost int64) {
	numNodes := len(s.adj)
	dist := make([]int64, numNodes)
	inQueue := make([]bool, numNodes)
	prevEdge := make([]int32, numNodes)

	for pushed < required {
		for i := range dist {
			dist[i] = infCost
			inQueue[i] = false
			prevEdge[i] = -1
		}
		dist[source] = 0
		queue := []int32{int32(source)}
		inQueue[source] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			inQueue[u] = false
			du := dist[u]
			for _, e := range s.adj[u] {
				if s.cap[e] <= 0 {
					continue
				}
				v := s.head[e]
				if nd := du + s.cost[e]; nd < dist[v] {
					dist[v] = nd
					prevEdge[v] = e
					if !inQueue[v] {
						queue = append(queue, v)
						inQueue[v] = true
					}
				}
			}
		}
		if dist[sink] == infCost {
			break
		}
		// Bottleneck along the path, bounded by what is still required.
		bottleneck := required - pushed
		for v := int32(sink); v != int32(source); {
			e := prevEdge[v]
			if s.cap[e] < bottleneck {
				bottleneck = s.cap[e]
			}
			v = s.head[e^1]
		}
		for v := int32(sink); v != int32(source); {
			e := prevEdge[v]
			s.cap[e] -= bottleneck
			s.cap[e^1] += bottleneck
			v = s.head[e^1]
		}
		pushed += bottleneck
		totalCost += bottleneck * dist[sink]
	}
	return pushed, totalCost
}
