// Package main runs a demo technician client against the live channel.
// It announces a technician online, then prints assignment pushes.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type techEvent struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	techID := os.Getenv("TECH_ID")
	if techID == "" {
		techID = "tech-demo"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Pull fresh tickets so the engine has tasks to hand out.
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/tickets/refresh-now", bytes.NewReader([]byte("{}")))
	req.Header.Set("X-Role", "admin")
	if resp, err := http.DefaultClient.Do(req); err == nil {
		_ = resp.Body.Close()
		log.Printf("refresh-now: %s", resp.Status)
	} else {
		log.Printf("refresh-now: %v (continuing)", err)
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws/technicians"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	online, _ := json.Marshal(map[string]any{
		"id":       techID,
		"location": map[string]float64{"x": 0, "y": 0, "z": 0},
	})
	if err := c.WriteJSON(techEvent{EventType: "online", Payload: online}); err != nil {
		log.Fatal(err)
	}
	log.Printf("online as %s", techID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m techEvent
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.EventType, string(m.Payload))
		}
	}()

	// Keepalive pings while we wait for work.
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.WriteJSON(techEvent{EventType: "ping"}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
