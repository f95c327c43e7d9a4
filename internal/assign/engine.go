package assign

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"fieldops/internal/model"
)

// ErrContract marks calls that violate an engine precondition, such as a
// distance row whose length disagrees with the current task count. The call
// fails and prior engine state is left untouched.
var ErrContract = errors.New("assign: contract violation")

// Engine owns the current technician roster, task list, and distance matrix,
// and rebuilds the flow network whenever any of them changes. One exclusive
// lock guards all of it: the pieces must always be mutated and read as a
// single consistent snapshot, and rebuild cost is proportional to T*N, small
// in this domain.
//
// Task priorities are normalized to a constant 1, so the priority weight is
// presently inert. That is observed production behavior, kept on purpose.
type Engine struct {
	mu             sync.Mutex
	priorityWeight float64
	technicians    []string
	tasks          []model.Ticket
	distances      [][]int64
	network        *Network
	assignments    map[string]model.Ticket
}

// NewEngine constructs an empty engine with the given priority weight.
func NewEngine(priorityWeight float64) *Engine {
	return &Engine{
		priorityWeight: priorityWeight,
		assignments:    map[string]model.Ticket{},
	}
}

// UpdateFloor replaces the technician roster and distance matrix atomically.
func (e *Engine) UpdateFloor(technicians []string, distances [][]int64) error {
	if len(distances) != len(technicians) {
		return fmt.Errorf("%w: %d distance rows for %d technicians", ErrContract, len(distances), len(technicians))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.technicians = append([]string(nil), technicians...)
	e.distances = copyMatrix(distances)
	e.rebuildLocked()
	return nil
}

// AddTechnician appends one technician and its task-distance row. The row
// length must equal the current task count.
func (e *Engine) AddTechnician(id string, row []int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(row) != len(e.tasks) {
		return fmt.Errorf("%w: distance row has %d entries, task count is %d", ErrContract, len(row), len(e.tasks))
	}
	e.technicians = append(e.technicians, id)
	e.distances = append(e.distances, append([]int64(nil), row...))
	e.rebuildLocked()
	return nil
}

// SetDistances replaces the full distance matrix. The shape must match the
// current technician and task counts.
func (e *Engine) SetDistances(distances [][]int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(distances) != len(e.technicians) {
		return fmt.Errorf("%w: %d distance rows for %d technicians", ErrContract, len(distances), len(e.technicians))
	}
	for i, row := range distances {
		if len(row) != len(e.tasks) {
			return fmt.Errorf("%w: distance row %d has %d entries, task count is %d", ErrContract, i, len(row), len(e.tasks))
		}
	}
	e.distances = copyMatrix(distances)
	e.rebuildLocked()
	return nil
}

// RefreshTechnicians replaces the technician id list only. Distances are
// assumed already aligned by the caller.
func (e *Engine) RefreshTechnicians(technicians []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.technicians = append([]string(nil), technicians...)
	e.rebuildLocked()
}

// RefreshTasks replaces the full task list. Tickets are deep-copied so later
// mutation of the caller's slice cannot corrupt engine state.
func (e *Engine) RefreshTasks(tasks []model.Ticket) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = copyTickets(tasks)
	e.rebuildLocked()
}

// AssignTasks solves the current network and returns the technician id to
// ticket mapping. With no network (no technicians or no tasks) the previous
// assignment is returned unchanged; on solver infeasibility the result is an
// empty mapping.
func (e *Engine) AssignTasks() map[string]model.Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.network != nil {
		placements, err := e.network.Solve()
		if err != nil {
			log.Printf("assign: solve failed: %v", err)
			e.assignments = map[string]model.Ticket{}
		} else {
			out := make(map[string]model.Ticket, len(placements))
			for _, p := range placements {
				out[e.technicians[p.Tech]] = e.tasks[p.Task]
			}
			e.assignments = out
		}
	}
	return copyAssignments(e.assignments)
}

// Assignments returns the last computed assignment without solving again.
func (e *Engine) Assignments() map[string]model.Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyAssignments(e.assignments)
}

// Counts reports the technician and task counts and whether a solvable
// network currently exists.
func (e *Engine) Counts() (techs, tasks int, ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.technicians), len(e.tasks), e.network != nil
}

// rebuildLocked derives the flow network from current state. Callers hold
// the lock. With an empty roster or task list there is nothing to solve and
// the network is dropped; a dimension mismatch after a roster or task
// refresh likewise leaves no network until the distance provider catches up.
func (e *Engine) rebuildLocked() {
	e.network = nil
	if len(e.technicians) == 0 || len(e.tasks) == 0 || len(e.distances) == 0 {
		return
	}
	net, err := buildNetwork(len(e.technicians), len(e.tasks), e.distances, constantPriorities(len(e.tasks)), e.priorityWeight)
	if err != nil {
		log.Printf("assign: network not rebuilt: %v", err)
		return
	}
	e.network = net
}

// constantPriorities normalizes every task's priority to 1. The tracker's
// priority field is deliberately not consulted; changing this changes
// assignment outcomes.
func constantPriorities(numTasks int) []int64 {
	p := make([]int64, numTasks)
	for i := range p {
		p[i] = 1
	}
	return p
}

func copyMatrix(m [][]int64) [][]int64 {
	out := make([][]int64, len(m))
	for i, row := range m {
		out[i] = append([]int64(nil), row...)
	}
	return out
}

func copyTickets(ts []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, len(ts))
	for i, t := range ts {
		t.Labels = append([]string(nil), t.Labels...)
		out[i] = t
	}
	return out
}

func copyAssignments(a map[string]model.Ticket) map[string]model.Ticket {
	out := make(map[string]model.Ticket, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
