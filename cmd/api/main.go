package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"fieldops/internal/api"
	"fieldops/internal/metrics"
)

func main() {
	srv, err := api.NewServer()
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Tickets
	mux.HandleFunc("/v1/tickets", srv.TicketsHandler)
	mux.HandleFunc("/v1/tickets/refresh-now", srv.TicketRefreshHandler)
	mux.HandleFunc("/v1/tickets/", srv.TicketByKeyHandler) // includes /status, /comments

	// Floor state and assignments
	mux.HandleFunc("/v1/floor", srv.FloorHandler)
	mux.HandleFunc("/v1/assignments", srv.AssignmentsHandler)
	mux.HandleFunc("/v1/assignments/refresh", srv.AssignmentRefreshHandler)
	mux.HandleFunc("/v1/assignments/history", srv.AssignmentHistoryHandler)

	// Directories
	mux.HandleFunc("/v1/technicians", srv.TechniciansHandler)
	mux.HandleFunc("/v1/technicians/", srv.TechnicianByIDHandler) // includes /location
	mux.HandleFunc("/v1/servers", srv.ServersHandler)
	mux.HandleFunc("/v1/servers/", srv.ServerByIDHandler) // includes /metrics, /logs

	// Live channel
	mux.HandleFunc("/ws/technicians", srv.TechniciansWSHandler)

	// Webhooks
	mux.HandleFunc("/v1/subscriptions", srv.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", srv.SubscriptionByIDHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries", srv.WebhookDeliveriesHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries/", srv.WebhookDeliveryRetryHandler)

	// Ops
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)
	mux.HandleFunc("/debug/info", srv.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(rateLimitMiddleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	worker := srv.NewWebhookWorker()
	worker.Start()
	startRefreshLoop(srv)

	log.Printf("API listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// startRefreshLoop polls the ticket tracker on a fixed interval. No-op
// without a configured tracker.
func startRefreshLoop(srv *api.Server) {
	if srv.Tickets == nil {
		return
	}
	interval := 15 * time.Minute
	if v := os.Getenv("TICKET_REFRESH_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Minute
		}
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if n, err := srv.RefreshTickets(ctx); err != nil {
				log.Printf("ticket refresh: %v", err)
			} else {
				log.Printf("ticket refresh: %d open tickets", n)
			}
			cancel()
		}
	}()
	log.Printf("ticket refresh every %s from %s", interval, srv.Tickets.Name())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade hijacks the connection; wrapping the writer
		// breaks it.
		if strings.HasPrefix(r.URL.Path, "/ws/") {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
		log.Printf("%s %s %s %d %v", r.RemoteAddr, r.Method, r.URL.Path, rec.status, dur)
	})
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	rps := 50.0
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	burst := 100
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
