package store

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Technician directory
	UpsertTechnician(ctx context.Context, t model.Technician) error
	GetTechnician(ctx context.Context, id string) (model.Technician, error)
	ListTechnicians(ctx context.Context) ([]model.Technician, error)
	RemoveTechnician(ctx context.Context, id string) error

	// Server directory
	UpsertServer(ctx context.Context, s model.Server) error
	GetServer(ctx context.Context, id string) (model.Server, error)
	ListServers(ctx context.Context) ([]model.Server, error)
	RemoveServer(ctx context.Context, id string) error
	UpdateServerLocation(ctx context.Context, id string, loc model.Location) (model.Server, error)

	// Ticket cache (last successful tracker fetch)
	ReplaceTickets(ctx context.Context, tickets []model.Ticket) error
	ListTickets(ctx context.Context) ([]model.Ticket, error)
	GetTicket(ctx context.Context, key string) (model.Ticket, error)

	// Assignment audit trail
	RecordAssignments(ctx context.Context, assignments map[string]model.Ticket) ([]model.AssignmentRecord, error)
	ListAssignments(ctx context.Context, limit int) ([]model.AssignmentRecord, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, status string, limit int) ([]map[string]any, error)
	RetryWebhookDelivery(ctx context.Context, id string) error
}

var ErrNotFound = errors.New("not found")
