package store

import (
	"context"
	"errors"
	"testing"

	"fieldops/internal/model"
)

func TestMemoryTechnicianDirectory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.UpsertTechnician(ctx, model.Technician{ID: "tech-1", Location: model.Location{X: 1}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.UpsertTechnician(ctx, model.Technician{ID: "tech-2"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// update keeps insertion order
	if err := m.UpsertTechnician(ctx, model.Technician{ID: "tech-1", Location: model.Location{X: 9}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := m.ListTechnicians(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "tech-1" || list[1].ID != "tech-2" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Location.X != 9 {
		t.Errorf("update lost: %+v", list[0])
	}

	if err := m.RemoveTechnician(ctx, "tech-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := m.GetTechnician(ctx, "tech-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after remove: %v", err)
	}
	if err := m.RemoveTechnician(ctx, "tech-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove: %v", err)
	}
}

func TestMemoryTicketCacheReplace(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.ReplaceTickets(ctx, []model.Ticket{{Key: "DC-1"}, {Key: "DC-2"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := m.ReplaceTickets(ctx, []model.Ticket{{Key: "DC-3"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	list, _ := m.ListTickets(ctx)
	if len(list) != 1 || list[0].Key != "DC-3" {
		t.Fatalf("list after replace = %+v", list)
	}
	if _, err := m.GetTicket(ctx, "DC-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale key still resolvable: %v", err)
	}
	if tk, err := m.GetTicket(ctx, "DC-3"); err != nil || tk.Key != "DC-3" {
		t.Errorf("get: %v %+v", err, tk)
	}
}

func TestMemoryAssignmentAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.RecordAssignments(ctx, map[string]model.Ticket{"tech-1": {Key: "DC-1"}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.RecordAssignments(ctx, map[string]model.Ticket{"tech-2": {Key: "DC-2"}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	recs, err := m.ListAssignments(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].TicketKey != "DC-2" {
		t.Fatalf("want newest record first, got %+v", recs)
	}
}

func TestMemorySubscriptionsByEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s1, err := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://a", Events: []string{"assignment.created"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://b", Events: []string{"tickets.refreshed"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	subs, _ := m.GetSubscriptionsForEvent(ctx, "assignment.created")
	if len(subs) != 1 || subs[0].URL != "http://a" {
		t.Fatalf("subs = %+v", subs)
	}

	if err := m.DeleteSubscription(ctx, s1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ = m.GetSubscriptionsForEvent(ctx, "assignment.created")
	if len(subs) != 0 {
		t.Fatalf("subs after delete = %+v", subs)
	}
}

func TestMemoryWebhookQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.EnqueueWebhook(ctx, "sub-1", "assignment.created", "http://x", "sec", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("due = %+v", due)
	}

	// failed attempt reschedules into the future
	if err := m.MarkWebhookDelivery(ctx, id, false, nil, "boom", 500, 12); err != nil {
		t.Fatalf("mark: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retry should not be due yet: %+v", due)
	}

	// manual retry makes it due again
	if err := m.RetryWebhookDelivery(ctx, id); err != nil {
		t.Fatalf("retry: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 {
		t.Fatalf("due after retry = %+v", due)
	}

	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8); err != nil {
		t.Fatalf("mark: %v", err)
	}
	items, _ := m.ListWebhookDeliveries(ctx, "delivered", 10)
	if len(items) != 1 || items[0]["attempts"] != 2 {
		t.Fatalf("deliveries = %+v", items)
	}
}
