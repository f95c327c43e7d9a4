package api

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"fieldops/internal/assign"
	"fieldops/internal/auth"
	"fieldops/internal/geometry"
	"fieldops/internal/store"
	"fieldops/internal/tickets"
	"fieldops/internal/tickets/jira"
	"fieldops/internal/webhooks"
)

// Default weights match the original deployment.
const defaultPriorityWeight = 2

type Server struct {
	Store       store.Store
	Engine      *assign.Engine
	Tickets     tickets.Source
	Pub         *webhooks.Publisher
	Auth        *auth.Verifier
	Broker      EventBroker
	Presence    *PresenceCache
	FloorWeight float64
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.MigrateDir("db/migrations")
		}
		s = sp
	}
	if path := os.Getenv("SERVER_INVENTORY"); path != "" {
		n, err := store.SeedServers(context.Background(), s, path)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %d servers from %s", n, path)
	}
	// Broker selection
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	var src tickets.Source
	if jc := jira.New(jira.ConfigFromEnv()); jc.Enabled() {
		src = jc
	}
	return &Server{
		Store:       s,
		Engine:      assign.NewEngine(envFloat("TASK_PRIORITY_WEIGHT", defaultPriorityWeight)),
		Tickets:     src,
		Pub:         webhooks.NewPublisher(s),
		Auth:        auth.NewVerifierFromEnv(),
		Broker:      broker,
		Presence:    NewPresenceCache(),
		FloorWeight: envFloat("FLOOR_WEIGHT", geometry.DefaultFloorWeight),
	}, nil
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
