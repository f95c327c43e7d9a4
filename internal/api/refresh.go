package api

import (
	"context"
	"errors"
	"log"
	"time"

	"fieldops/internal/geometry"
	"fieldops/internal/metrics"
	"fieldops/internal/model"
	"fieldops/internal/store"
	"fieldops/internal/webhooks"
)

var errNoTicketSource = errors.New("no ticket source configured")

// RefreshTickets pulls open tickets from the tracker, caches them, rebuilds
// the floor state and reassigns. Returns the number of tickets fetched.
func (s *Server) RefreshTickets(ctx context.Context) (int, error) {
	if s.Tickets == nil {
		return 0, errNoTicketSource
	}
	ts, err := s.Tickets.FetchOpen(ctx)
	if err != nil {
		metrics.TicketRefreshes.WithLabelValues("error").Inc()
		return 0, err
	}
	if err := s.Store.ReplaceTickets(ctx, ts); err != nil {
		metrics.TicketRefreshes.WithLabelValues("error").Inc()
		return 0, err
	}
	if err := s.reloadEngine(ctx, ts); err != nil {
		metrics.TicketRefreshes.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.TicketRefreshes.WithLabelValues("ok").Inc()
	s.Pub.Emit(ctx, webhooks.EventTicketsRefreshed, map[string]any{"count": len(ts)})
	s.Reassign(ctx)
	return len(ts), nil
}

// reloadEngine replaces the engine's technician roster, task list and
// distance matrix from the directory and the given tickets. Tickets whose
// rack is unknown to the server directory sit at the floor origin.
func (s *Server) reloadEngine(ctx context.Context, ts []model.Ticket) error {
	techs, err := s.Store.ListTechnicians(ctx)
	if err != nil {
		return err
	}
	racks := make([]model.Location, len(ts))
	for j, t := range ts {
		if t.ServerID == "" {
			continue
		}
		srv, err := s.Store.GetServer(ctx, t.ServerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("ticket %s references unknown server %s", t.Key, t.ServerID)
				continue
			}
			return err
		}
		racks[j] = srv.Location
	}
	ids := make([]string, len(techs))
	for i, t := range techs {
		ids[i] = t.ID
	}
	s.Engine.RefreshTechnicians(ids)
	s.Engine.RefreshTasks(ts)
	return s.Engine.SetDistances(geometry.Matrix(techs, racks, s.FloorWeight))
}

// Reassign runs the solver and fans the result out: audit trail, metrics,
// webhook events and live-channel pushes. Infeasible or empty state yields
// an empty map, never an error.
func (s *Server) Reassign(ctx context.Context) map[string]model.Ticket {
	start := time.Now()
	assignments := s.Engine.AssignTasks()
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.ActiveAssignments.Set(float64(len(assignments)))
	if len(assignments) == 0 {
		return assignments
	}
	if _, err := s.Store.RecordAssignments(ctx, assignments); err != nil {
		log.Printf("record assignments: %v", err)
	}
	for tech, tk := range assignments {
		s.Broker.Publish(tech, Event{Type: "assignment", Data: map[string]any{"ticket": tk}})
		s.Pub.Emit(ctx, webhooks.EventAssignmentCreated, map[string]any{
			"technicianId": tech,
			"ticketKey":    tk.Key,
			"serverId":     tk.ServerID,
		})
	}
	return assignments
}
