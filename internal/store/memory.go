package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldops/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu          sync.Mutex
	techs       map[string]model.Technician
	techOrder   []string
	servers     map[string]model.Server
	serverOrder []string
	tickets     []model.Ticket
	byKey       map[string]int // ticket key -> index into tickets
	records     []model.AssignmentRecord
	subs        []model.Subscription
	// Webhooks queue state
	deliveries    map[string]*memDelivery
	deliveryOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		techs:      map[string]model.Technician{},
		servers:    map[string]model.Server{},
		byKey:      map[string]int{},
		deliveries: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) UpsertTechnician(ctx context.Context, t model.Technician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.techs[t.ID]; !ok {
		m.techOrder = append(m.techOrder, t.ID)
	}
	m.techs[t.ID] = t
	return nil
}

func (m *Memory) GetTechnician(ctx context.Context, id string) (model.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return model.Technician{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Technician, 0, len(m.techOrder))
	for _, id := range m.techOrder {
		out = append(out, m.techs[id])
	}
	return out, nil
}

func (m *Memory) RemoveTechnician(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.techs[id]; !ok {
		return ErrNotFound
	}
	delete(m.techs, id)
	m.techOrder = remove(m.techOrder, id)
	return nil
}

func (m *Memory) UpsertServer(ctx context.Context, s model.Server) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.servers[s.ID]; !ok {
		m.serverOrder = append(m.serverOrder, s.ID)
	}
	m.servers[s.ID] = s
	return nil
}

func (m *Memory) GetServer(ctx context.Context, id string) (model.Server, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.servers[id]
	if !ok {
		return model.Server{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) ListServers(ctx context.Context) ([]model.Server, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Server, 0, len(m.serverOrder))
	for _, id := range m.serverOrder {
		out = append(out, m.servers[id])
	}
	return out, nil
}

func (m *Memory) RemoveServer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.servers[id]; !ok {
		return ErrNotFound
	}
	delete(m.servers, id)
	m.serverOrder = remove(m.serverOrder, id)
	return nil
}

func (m *Memory) UpdateServerLocation(ctx context.Context, id string, loc model.Location) (model.Server, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.servers[id]
	if !ok {
		return model.Server{}, ErrNotFound
	}
	s.Location = loc
	m.servers[id] = s
	return s, nil
}

func (m *Memory) ReplaceTickets(ctx context.Context, tickets []model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets = append([]model.Ticket(nil), tickets...)
	m.byKey = make(map[string]int, len(tickets))
	for i, t := range m.tickets {
		m.byKey[t.Key] = i
	}
	return nil
}

func (m *Memory) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Ticket(nil), m.tickets...), nil
}

func (m *Memory) GetTicket(ctx context.Context, key string) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byKey[key]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}
	return m.tickets[i], nil
}

func (m *Memory) RecordAssignments(ctx context.Context, assignments map[string]model.Ticket) ([]model.AssignmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := time.Now().UTC().Format(time.RFC3339)
	out := make([]model.AssignmentRecord, 0, len(assignments))
	for tech, tk := range assignments {
		r := model.AssignmentRecord{ID: uuid.New().String(), TechnicianID: tech, TicketKey: tk.Key, TS: ts}
		m.records = append(m.records, r)
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) ListAssignments(ctx context.Context, limit int) ([]model.AssignmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	// newest first
	out := make([]model.AssignmentRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs = append(m.subs, s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs {
		for _, e := range s.Events {
			if e == eventType {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Subscription(nil), m.subs...), nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		if s.ID != id {
			out = append(out, s)
		}
	}
	m.subs = out
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	d := &memDelivery{
		WebhookDelivery: WebhookDelivery{ID: id, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending"},
		NextAttemptAt:   time.Now(),
	}
	m.deliveries[id] = d
	m.deliveryOrder = append(m.deliveryOrder, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.deliveryOrder {
		d := m.deliveries[id]
		if d == nil {
			continue
		}
		if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return nil
	}
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
		return nil
	}
	d.Status = "retry"
	d.LastError = lastError
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	} else {
		d.NextAttemptAt = time.Now().Add(1 * time.Minute)
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return nil
	}
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, status string, limit int) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := []map[string]any{}
	for _, id := range m.deliveryOrder {
		d := m.deliveries[id]
		if d == nil {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
		if !d.NextAttemptAt.IsZero() {
			item["nextAttemptAt"] = d.NextAttemptAt
		}
		if d.LastError != "" {
			item["lastError"] = d.LastError
		}
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Status = "pending"
	d.NextAttemptAt = time.Now()
	return nil
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
