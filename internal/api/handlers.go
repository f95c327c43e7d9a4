package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fieldops/internal/assign"
	"fieldops/internal/model"
	"fieldops/internal/store"
	"fieldops/internal/telemetry"
)

// TicketsHandler handles GET /v1/tickets
func (s *Server) TicketsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := s.Store.ListTickets(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List tickets failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, model.TicketListResponse{Tickets: items, Count: len(items)})
}

// TicketRefreshHandler handles POST /v1/tickets/refresh-now
func (s *Server) TicketRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.getPrincipal(r).CanDispatch() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
		return
	}
	n, err := s.RefreshTickets(r.Context())
	if err != nil {
		if errors.Is(err, errNoTicketSource) {
			writeProblem(w, http.StatusServiceUnavailable, "No ticket source", err.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusBadGateway, "Refresh failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"fetched": n})
}

// TicketByKeyHandler handles /v1/tickets/{key}, /v1/tickets/{key}/status and
// /v1/tickets/{key}/comments
func (s *Server) TicketByKeyHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/tickets/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing ticket key", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	key := parts[0]

	if len(parts) > 1 && parts[1] == "status" {
		s.ticketStatus(w, r, key)
		return
	}
	if len(parts) > 1 && parts[1] == "comments" {
		s.ticketComment(w, r, key)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tk, err := s.Store.GetTicket(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) && s.Tickets != nil {
			// not in the cache; ask the tracker directly
			if live, lerr := s.Tickets.Get(r.Context(), key); lerr == nil {
				writeJSON(w, http.StatusOK, live)
				return
			}
		}
		writeProblem(w, http.StatusNotFound, "Ticket not found", key, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, tk)
}

func (s *Server) ticketStatus(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.Tickets == nil {
		writeProblem(w, http.StatusServiceUnavailable, "No ticket source", errNoTicketSource.Error(), r.URL.Path)
		return
	}
	var req model.StatusUpdate
	if err := readJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.Status == "" {
		writeProblem(w, http.StatusBadRequest, "Missing status", "", r.URL.Path)
		return
	}
	tk, err := s.Tickets.UpdateStatus(r.Context(), key, req.Status)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Status update failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, tk)
}

func (s *Server) ticketComment(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.Tickets == nil {
		writeProblem(w, http.StatusServiceUnavailable, "No ticket source", errNoTicketSource.Error(), r.URL.Path)
		return
	}
	var req model.CommentInput
	if err := readJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.Comment == "" {
		writeProblem(w, http.StatusBadRequest, "Missing comment", "", r.URL.Path)
		return
	}
	if err := s.Tickets.AddComment(r.Context(), key, req.Comment); err != nil {
		writeProblem(w, http.StatusBadGateway, "Comment failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// FloorHandler handles POST /v1/floor: replaces technicians, racks and the
// distance matrix in one shot.
func (s *Server) FloorHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.getPrincipal(r).CanDispatch() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
		return
	}
	var req model.FloorUpdate
	if err := readJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateFloorUpdate(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid floor update", err.Error(), r.URL.Path)
		return
	}
	for _, t := range req.Technicians {
		if err := s.Store.UpsertTechnician(r.Context(), t); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save technician failed", err.Error(), r.URL.Path)
			return
		}
	}
	for i, id := range req.RackIDs {
		srv := model.Server{ID: id}
		if i < len(req.RackLocations) {
			srv.Location = req.RackLocations[i]
		}
		if err := s.Store.UpsertServer(r.Context(), srv); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save server failed", err.Error(), r.URL.Path)
			return
		}
	}
	ids := make([]string, len(req.Technicians))
	for i, t := range req.Technicians {
		ids[i] = t.ID
	}
	if err := s.Engine.UpdateFloor(ids, req.Distances); err != nil {
		if errors.Is(err, assign.ErrContract) {
			writeProblem(w, http.StatusBadRequest, "Invalid floor update", err.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Floor update failed", err.Error(), r.URL.Path)
		return
	}
	techs, tasks, ready := s.Engine.Counts()
	writeJSON(w, http.StatusOK, map[string]any{"technicians": techs, "tasks": tasks, "ready": ready})
}

// AssignmentsHandler handles GET /v1/assignments: solve the current network
// and return the technician to ticket mapping. With no solvable network the
// previous assignment is returned unchanged.
func (s *Server) AssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out := assignmentList(s.Engine.AssignTasks())
	writeJSON(w, http.StatusOK, map[string]any{"assignments": out, "count": len(out)})
}

// AssignmentRefreshHandler handles POST /v1/assignments/refresh: force a
// solve and fan the result out to the audit trail, webhooks and live
// channels.
func (s *Server) AssignmentRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.getPrincipal(r).CanDispatch() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
		return
	}
	out := assignmentList(s.Reassign(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"assignments": out, "count": len(out)})
}

// AssignmentHistoryHandler handles GET /v1/assignments/history
func (s *Server) AssignmentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListAssignments(r.Context(), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List assignments failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func assignmentList(m map[string]model.Ticket) []model.AssignmentOut {
	out := make([]model.AssignmentOut, 0, len(m))
	for tech, tk := range m {
		out = append(out, model.AssignmentOut{TechnicianID: tech, Ticket: tk})
	}
	return out
}

// TechniciansHandler handles GET/POST /v1/technicians
func (s *Server) TechniciansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.Store.ListTechnicians(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List technicians failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		if !s.getPrincipal(r).CanDispatch() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
			return
		}
		var t model.Technician
		if err := readJSON(w, r, &t); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if t.ID == "" {
			writeProblem(w, http.StatusBadRequest, "Missing id", "", r.URL.Path)
			return
		}
		if err := s.Store.UpsertTechnician(r.Context(), t); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save technician failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TechnicianByIDHandler handles /v1/technicians/{id} and
// /v1/technicians/{id}/location
func (s *Server) TechnicianByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/technicians/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	if len(parts) > 1 && parts[1] == "location" {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		pr := s.getPrincipal(r)
		if !pr.CanDispatch() && pr.TechnicianID != id {
			writeProblem(w, http.StatusForbidden, "Forbidden", "not your location", r.URL.Path)
			return
		}
		var loc model.Location
		if err := readJSON(w, r, &loc); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		t, err := s.Store.GetTechnician(r.Context(), id)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Technician not found", id, r.URL.Path)
			return
		}
		t.Location = loc
		if err := s.Store.UpsertTechnician(r.Context(), t); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save technician failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.Store.GetTechnician(r.Context(), id)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Technician not found", id, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       t.ID,
			"location": t.Location,
			"online":   s.Presence.Online(t.ID),
		})
	case http.MethodDelete:
		if !s.getPrincipal(r).CanDispatch() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
			return
		}
		if err := s.Store.RemoveTechnician(r.Context(), id); err != nil {
			writeProblem(w, http.StatusNotFound, "Technician not found", id, r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ServersHandler handles GET /v1/servers
func (s *Server) ServersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := s.Store.ListServers(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List servers failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ServerByIDHandler handles /v1/servers/{id}, /v1/servers/{id}/metrics and
// /v1/servers/{id}/logs
func (s *Server) ServerByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/servers/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	if _, err := s.Store.GetServer(r.Context(), id); err != nil {
		writeProblem(w, http.StatusNotFound, "Server not found", id, r.URL.Path)
		return
	}

	if len(parts) > 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch parts[1] {
		case "metrics":
			writeJSON(w, http.StatusOK, telemetry.Metrics(id, time.Now()))
		case "logs":
			limit := 5
			if v := r.URL.Query().Get("limit"); v != "" {
				fmt.Sscanf(v, "%d", &limit)
			}
			writeJSON(w, http.StatusOK, telemetry.Logs(id, limit, time.Now()))
		default:
			writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		srv, _ := s.Store.GetServer(r.Context(), id)
		writeJSON(w, http.StatusOK, srv)
	case http.MethodPut:
		if !s.getPrincipal(r).CanDispatch() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
			return
		}
		var loc model.Location
		if err := readJSON(w, r, &loc); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		srv, err := s.Store.UpdateServerLocation(r.Context(), id, loc)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Update server failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, srv)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateSubscription(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		items, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.getPrincipal(r).IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/webhook-deliveries" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if !s.getPrincipal(r).IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	status := r.URL.Query().Get("status")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListWebhookDeliveries(r.Context(), status, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// WebhookDeliveryRetryHandler handles POST /v1/admin/webhook-deliveries/{id}/retry
func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.getPrincipal(r).IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
	if err := s.Store.RetryWebhookDelivery(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Delivery not found", id, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Retry delivery failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": 1})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
