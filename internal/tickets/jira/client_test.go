package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchOpenMapsIssues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if u, _, _ := r.BasicAuth(); u != "svc" {
			t.Errorf("basic auth user = %s", u)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":1,"issues":[{"id":"10001","key":"DC-7","fields":{
			"summary":"Replace PSU on H1-P2-A3-R4-U5",
			"status":{"id":"1","name":"To Do"},
			"priority":{"name":"High"},
			"project":{"key":"DC"},
			"issuetype":{"name":"Task"},
			"labels":["hardware"]}}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, User: "svc", APIToken: "tok", ProjectKey: "DC", Status: "To Do"})
	got, err := c.FetchOpen(context.Background())
	if err != nil {
		t.Fatalf("FetchOpen: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	tk := got[0]
	if tk.Key != "DC-7" || tk.Status != "To Do" || tk.Priority != "High" {
		t.Errorf("ticket = %+v", tk)
	}
	if tk.ServerID != "H1-P2-A3-R4-U5" {
		t.Errorf("serverID = %q, want rack id from summary", tk.ServerID)
	}
}

func TestUpdateStatusPicksTransitionByTargetName(t *testing.T) {
	var posted struct {
		Transition struct {
			ID string `json:"id"`
		} `json:"transition"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/api/2/issue/DC-7/transitions" && r.Method == http.MethodGet:
			w.Write([]byte(`{"transitions":[
				{"id":"11","to":{"name":"In Progress"}},
				{"id":"21","to":{"name":"Done"}}]}`))
		case r.URL.Path == "/rest/api/2/issue/DC-7/transitions" && r.Method == http.MethodPost:
			json.NewDecoder(r.Body).Decode(&posted)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/rest/api/2/issue/DC-7":
			w.Write([]byte(`{"id":"10001","key":"DC-7","fields":{"status":{"id":"3","name":"Done"}}}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, User: "svc", APIToken: "tok"})
	tk, err := c.UpdateStatus(context.Background(), "DC-7", "done")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if posted.Transition.ID != "21" {
		t.Errorf("transition id = %q, want 21", posted.Transition.ID)
	}
	if tk.Status != "Done" {
		t.Errorf("status = %q, want Done", tk.Status)
	}
}

func TestUpdateStatusUnknownTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transitions":[]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	if _, err := c.UpdateStatus(context.Background(), "DC-7", "Shipped"); err == nil {
		t.Fatal("expected error for unknown target status")
	}
}

func TestAddAttachmentSetsAtlassianHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Atlassian-Token") != "no-check" {
			t.Error("missing X-Atlassian-Token header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("multipart: %v", err)
		}
		if _, hdr, err := r.FormFile("file"); err != nil || hdr.Filename != "qr.png" {
			t.Errorf("file part: hdr=%v err=%v", hdr, err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	if err := c.AddAttachment(context.Background(), "DC-7", "qr.png", []byte{1, 2, 3}); err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
}
