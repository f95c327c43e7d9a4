package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fieldops/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// MigrateDir applies every .sql file in dir in name order. Files are assumed
// idempotent (CREATE TABLE IF NOT EXISTS style).
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sqlText, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(sqlText)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) UpsertTechnician(ctx context.Context, t model.Technician) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO technicians (id, x, y, z, updated_at) VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (id) DO UPDATE SET x=$2, y=$3, z=$4, updated_at=now()`, t.ID, t.Location.X, t.Location.Y, t.Location.Z)
	return err
}

func (p *Postgres) GetTechnician(ctx context.Context, id string) (model.Technician, error) {
	var t model.Technician
	err := p.db.QueryRowContext(ctx, `SELECT id, x, y, z FROM technicians WHERE id=$1`, id).
		Scan(&t.ID, &t.Location.X, &t.Location.Y, &t.Location.Z)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Technician{}, ErrNotFound
	}
	return t, err
}

func (p *Postgres) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, x, y, z FROM technicians ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Technician{}
	for rows.Next() {
		var t model.Technician
		if err := rows.Scan(&t.ID, &t.Location.X, &t.Location.Y, &t.Location.Z); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) RemoveTechnician(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM technicians WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpsertServer(ctx context.Context, s model.Server) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO servers (id, name, x, y, z, updated_at) VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (id) DO UPDATE SET name=$2, x=$3, y=$4, z=$5, updated_at=now()`,
		s.ID, nullIfEmpty(s.Name), s.Location.X, s.Location.Y, s.Location.Z)
	return err
}

func (p *Postgres) GetServer(ctx context.Context, id string) (model.Server, error) {
	var s model.Server
	var name sql.NullString
	err := p.db.QueryRowContext(ctx, `SELECT id, name, x, y, z FROM servers WHERE id=$1`, id).
		Scan(&s.ID, &name, &s.Location.X, &s.Location.Y, &s.Location.Z)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Server{}, ErrNotFound
	}
	s.Name = name.String
	return s, err
}

func (p *Postgres) ListServers(ctx context.Context) ([]model.Server, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, x, y, z FROM servers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Server{}
	for rows.Next() {
		var s model.Server
		var name sql.NullString
		if err := rows.Scan(&s.ID, &name, &s.Location.X, &s.Location.Y, &s.Location.Z); err != nil {
			return nil, err
		}
		s.Name = name.String
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) RemoveServer(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM servers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateServerLocation(ctx context.Context, id string, loc model.Location) (model.Server, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE servers SET x=$2, y=$3, z=$4, updated_at=now() WHERE id=$1`,
		id, loc.X, loc.Y, loc.Z)
	if err != nil {
		return model.Server{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Server{}, ErrNotFound
	}
	return p.GetServer(ctx, id)
}

// ReplaceTickets swaps the whole cached ticket set in one transaction.
// Tickets are stored as JSONB documents so tracker field churn never needs a
// schema change.
func (p *Postgres) ReplaceTickets(ctx context.Context, tickets []model.Ticket) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets`); err != nil {
		return err
	}
	for i, t := range tickets {
		doc, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tickets (key, position, doc) VALUES ($1,$2,$3)`, t.Key, i, doc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT doc FROM tickets ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var t model.Ticket
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) GetTicket(ctx context.Context, key string) (model.Ticket, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM tickets WHERE key=$1`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrNotFound
	}
	if err != nil {
		return model.Ticket{}, err
	}
	var t model.Ticket
	err = json.Unmarshal(doc, &t)
	return t, err
}

func (p *Postgres) RecordAssignments(ctx context.Context, assignments map[string]model.Ticket) ([]model.AssignmentRecord, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	ts := time.Now().UTC()
	out := make([]model.AssignmentRecord, 0, len(assignments))
	for tech, tk := range assignments {
		id := uuid.New().String()
		if _, err := tx.ExecContext(ctx, `INSERT INTO assignments (id, technician_id, ticket_key, ts) VALUES ($1,$2,$3,$4)`,
			id, tech, tk.Key, ts); err != nil {
			return nil, err
		}
		out = append(out, model.AssignmentRecord{ID: id, TechnicianID: tech, TicketKey: tk.Key, TS: ts.Format(time.RFC3339)})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) ListAssignments(ctx context.Context, limit int) ([]model.AssignmentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, technician_id, ticket_key, ts FROM assignments ORDER BY ts DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AssignmentRecord{}
	for rows.Next() {
		var r model.AssignmentRecord
		var ts time.Time
		if err := rows.Scan(&r.ID, &r.TechnicianID, &r.TicketKey, &ts); err != nil {
			return nil, err
		}
		r.TS = ts.UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.New().String()
	events, err := json.Marshal(req.Events)
	if err != nil {
		return model.Subscription{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		id, req.URL, events, nullIfEmpty(req.Secret))
	if err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{ID: id, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, events, COALESCE(secret,'') FROM subscriptions WHERE events @> to_jsonb(ARRAY[$1::text])`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, events, COALESCE(secret,'') FROM subscriptions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	return err
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	dk := computeDedupKey(payload)
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at, dedup_key)
		VALUES ($1,$2,$3,$4,$5,$6,'pending',0,now(),$7)
		ON CONFLICT (event_type, url, dedup_key) DO NOTHING`, id, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload, dk)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
		FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if !success {
		if nextAttemptAt == nil {
			t := time.Now().Add(1 * time.Minute)
			nextAttemptAt = &t
		}
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$2, next_attempt_at=$3, updated_at=now(), response_code=$4, latency_ms=$5 WHERE id=$1`,
			id, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id=$1`,
		id, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, nullIfEmpty(lastError), responseCode, latencyMs)
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, status string, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id::text, event_type, status, attempts, next_attempt_at, last_error, url FROM webhook_deliveries`
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []map[string]any{}
	for rows.Next() {
		var id, et, st, url string
		var attempts int
		var next sql.NullTime
		var lastErr sql.NullString
		if err := rows.Scan(&id, &et, &st, &attempts, &next, &lastErr, &url); err != nil {
			return nil, err
		}
		item := map[string]any{"id": id, "eventType": et, "status": st, "attempts": attempts, "url": url}
		if next.Valid {
			item["nextAttemptAt"] = next.Time
		}
		if lastErr.Valid && lastErr.String != "" {
			item["lastError"] = lastErr.String
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now(), updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// computeDedupKey prefers an explicit event id inside the payload, falling
// back to a hash prefix of the body.
func computeDedupKey(payload []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &probe); err == nil && probe.ID != "" {
		return probe.ID
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
