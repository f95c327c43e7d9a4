package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fieldops/internal/model"
)

func dialWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.TechniciansWSHandler))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOnlineTechnicianGetsAssignment(t *testing.T) {
	s := newTestServer(t)
	s.Engine.RefreshTasks([]model.Ticket{{Key: "DC-1", Summary: "fan swap"}})

	conn := dialWS(t, s)
	if err := conn.WriteJSON(model.TechnicianEvent{
		EventType: "online",
		Payload:   &model.Technician{ID: "tech-1"},
	}); err != nil {
		t.Fatalf("write online: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt model.AssignmentEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read assignment: %v", err)
	}
	if evt.EventType != "assignment" || evt.Payload.Key != "DC-1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if !s.Presence.Online("tech-1") {
		t.Fatal("technician not marked online")
	}
}

func TestOnlineRequiresTechnicianID(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s)
	if err := conn.WriteJSON(model.TechnicianEvent{EventType: "online"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]string
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp["event_type"] != "error" {
		t.Fatalf("want error event, got %v", resp)
	}
}

func TestPingPong(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s)
	if err := conn.WriteJSON(model.TechnicianEvent{EventType: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]string
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp["event_type"] != "pong" {
		t.Fatalf("want pong, got %v", resp)
	}
}
