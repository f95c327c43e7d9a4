package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleInventory = `
servers:
  - id: H1-P1-A1-R1-U1
    name: db-primary
    location: {x: 10, y: 4, z: 0}
  - id: H1-P1-A1-R1-U2
    name: db-replica
    location: {x: 10, y: 4, z: 1}
`

func writeInventory(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	return path
}

func TestLoadServerInventory(t *testing.T) {
	servers, err := LoadServerInventory(writeInventory(t, sampleInventory))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("len = %d, want 2", len(servers))
	}
	if servers[0].ID != "H1-P1-A1-R1-U1" || servers[0].Name != "db-primary" {
		t.Errorf("first = %+v", servers[0])
	}
	if servers[1].Location.Z != 1 {
		t.Errorf("second location = %+v", servers[1].Location)
	}
}

func TestLoadServerInventoryRejectsMissingID(t *testing.T) {
	_, err := LoadServerInventory(writeInventory(t, "servers:\n  - name: nameless\n"))
	if err == nil {
		t.Fatal("expected error for server without id")
	}
}

func TestSeedServers(t *testing.T) {
	m := NewMemory()
	n, err := SeedServers(context.Background(), m, writeInventory(t, sampleInventory))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("seeded = %d, want 2", n)
	}
	s, err := m.GetServer(context.Background(), "H1-P1-A1-R1-U2")
	if err != nil || s.Name != "db-replica" {
		t.Fatalf("get seeded server: %v %+v", err, s)
	}
}
