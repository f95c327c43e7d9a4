package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fieldops/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// A technician announcing itself over the live channel has no distance row
// yet; every task sits at this distance until the next refresh recomputes
// the real matrix.
const onlineDistancePlaceholder int64 = 10

// TechniciansWSHandler handles /ws/technicians. A client sends an "online"
// event carrying its technician record; the server registers it, reassigns,
// and pushes "assignment" events back over the same connection.
func (s *Server) TechniciansWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Writes come from both the read loop and the event fan-out goroutine.
	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	var (
		techID string
		events chan Event
		done   = make(chan struct{})
	)
	defer func() {
		close(done)
		if techID != "" {
			s.Presence.Disconnect(techID)
			s.Broker.Unsubscribe(techID, events)
		}
	}()

	for {
		var msg model.TechnicianEvent
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.EventType {
		case "online":
			if msg.Payload == nil || msg.Payload.ID == "" {
				_ = write(map[string]string{"event_type": "error", "detail": "payload with technician id required"})
				continue
			}
			if techID != "" {
				_ = write(map[string]string{"event_type": "error", "detail": "already online as " + techID})
				continue
			}
			techID = msg.Payload.ID
			if err := s.Store.UpsertTechnician(r.Context(), *msg.Payload); err != nil {
				log.Printf("ws: save technician %s: %v", techID, err)
			}
			s.Presence.Connect(techID)

			events = s.Broker.Subscribe(techID)
			go func(ch chan Event) {
				for {
					select {
					case <-done:
						return
					case evt, ok := <-ch:
						if !ok {
							return
						}
						if evt.Type != "assignment" {
							continue
						}
						if err := write(model.AssignmentEvent{EventType: "assignment", Payload: eventTicket(evt)}); err != nil {
							return
						}
					}
				}
			}(events)

			_, tasks, _ := s.Engine.Counts()
			row := make([]int64, tasks)
			for i := range row {
				row[i] = onlineDistancePlaceholder
			}
			if err := s.Engine.AddTechnician(techID, row); err != nil {
				log.Printf("ws: add technician %s: %v", techID, err)
				continue
			}
			s.Reassign(r.Context())
		case "ping":
			_ = write(map[string]string{"event_type": "pong"})
			s.Presence.Touch(techID)
		default:
			// ignore
		}
	}
}

// eventTicket recovers the ticket from an assignment event. Events that
// crossed the Redis broker arrive JSON-decoded as generic maps.
func eventTicket(evt Event) model.Ticket {
	if tk, ok := evt.Data["ticket"].(model.Ticket); ok {
		return tk
	}
	raw, err := json.Marshal(evt.Data["ticket"])
	if err != nil {
		return model.Ticket{}
	}
	var tk model.Ticket
	_ = json.Unmarshal(raw, &tk)
	return tk
}
