// Package telemetry fabricates per-server health metrics and logs for demo
// and AR-client use. Values are seeded from the server id so the same server
// always reports the same snapshot.
package telemetry

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"fieldops/internal/model"
)

var logMessages = []string{
	"Service started successfully",
	"Connection established with client",
	"High memory usage detected",
	"Backup completed successfully",
	"Network latency increased",
	"Security scan completed",
	"Database connection pool exhausted",
	"Cache cleared successfully",
	"CPU throttling detected",
	"Disk I/O operations elevated",
	"Server is overloaded",
	"CPU temperature is too high",
}

var logLevels = []string{"INFO", "WARNING", "ERROR", "DEBUG"}

func seededRand(key string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Metrics returns the synthetic health snapshot for a server.
func Metrics(serverID string, now time.Time) model.ServerMetrics {
	rng := seededRand(serverID)

	cpu := round2(10 + rng.Float64()*85)
	mem := round2(20 + rng.Float64()*70)
	disk := round2(30 + rng.Float64()*55)
	netIn := round2(1 + rng.Float64()*499)
	netOut := round2(1 + rng.Float64()*299)
	uptime := 1 + rng.Intn(8760)
	daysAgo := 1 + rng.Intn(180)
	temp := round1(35 + rng.Float64()*50)
	conns := 50 + rng.Intn(4951)

	health := "healthy"
	switch {
	case cpu > 95 || mem > 95 || disk > 90:
		health = "critical"
	case cpu > 90 || mem > 85 || disk > 80:
		health = "warning"
	}

	return model.ServerMetrics{
		ServerID: serverID,
		Metrics: map[string]float64{
			"cpu_usage_percent":    cpu,
			"memory_usage_percent": mem,
			"disk_usage_percent":   disk,
			"network_in_mbps":      netIn,
			"network_out_mbps":     netOut,
			"temperature_celsius":  temp,
			"active_connections":   float64(conns),
		},
		Status: model.ServerStatus{
			Health:          health,
			UptimeHours:     uptime,
			LastMaintenance: now.AddDate(0, 0, -daysAgo).Format(time.RFC3339),
		},
		Metadata: map[string]string{
			"timestamp":    now.Format(time.RFC3339),
			"data_version": "1.0",
		},
	}
}

// Logs returns up to limit synthetic recent log lines for a server, newest
// first.
func Logs(serverID string, limit int, now time.Time) model.ServerLogs {
	if limit <= 0 {
		limit = 5
	}
	rng := seededRand(serverID + "logs")
	logs := make([]model.LogEntry, 0, limit)
	for i := 0; i < limit; i++ {
		minutesAgo := 1 + rng.Intn(1440)
		logs = append(logs, model.LogEntry{
			Timestamp: now.Add(-time.Duration(minutesAgo) * time.Minute).Format(time.RFC3339),
			Level:     logLevels[rng.Intn(len(logLevels))],
			Message:   logMessages[rng.Intn(len(logMessages))],
			Source:    fmt.Sprintf("service-%d", 1+rng.Intn(5)),
		})
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Timestamp > logs[j].Timestamp })
	return model.ServerLogs{ServerID: serverID, Logs: logs, TotalLogs: limit}
}

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
