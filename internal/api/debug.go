package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"fieldops/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	techs, tasks, ready := s.Engine.Counts()
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"engine": map[string]any{
			"technicians": techs,
			"tasks":       tasks,
			"ready":       ready,
			"assigned":    len(s.Engine.Assignments()),
		},
		"config": map[string]any{
			"PORT":                   os.Getenv("PORT"),
			"AUTH_MODE":              os.Getenv("AUTH_MODE"),
			"RATE_RPS":               os.Getenv("RATE_RPS"),
			"RATE_BURST":             os.Getenv("RATE_BURST"),
			"TASK_PRIORITY_WEIGHT":   os.Getenv("TASK_PRIORITY_WEIGHT"),
			"FLOOR_WEIGHT":           os.Getenv("FLOOR_WEIGHT"),
			"TICKET_REFRESH_MINUTES": os.Getenv("TICKET_REFRESH_MINUTES"),
			"WEBHOOK_MAX_ATTEMPTS":   os.Getenv("WEBHOOK_MAX_ATTEMPTS"),
			"HAS_DATABASE_URL":       os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":          os.Getenv("REDIS_URL") != "",
			"HAS_JIRA_BASE_URL":      os.Getenv("JIRA_BASE_URL") != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
