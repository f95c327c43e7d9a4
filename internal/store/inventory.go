package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fieldops/internal/model"
)

// inventoryFile is the on-disk shape of a server inventory document.
type inventoryFile struct {
	Servers []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Location struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
			Z float64 `yaml:"z"`
		} `yaml:"location"`
	} `yaml:"servers"`
}

// LoadServerInventory parses a YAML inventory file into server records.
// Entries without an id are rejected.
func LoadServerInventory(path string) ([]model.Server, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f inventoryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	out := make([]model.Server, 0, len(f.Servers))
	for i, s := range f.Servers {
		if s.ID == "" {
			return nil, fmt.Errorf("inventory %s: server %d has no id", path, i)
		}
		out = append(out, model.Server{
			ID:       s.ID,
			Name:     s.Name,
			Location: model.Location{X: s.Location.X, Y: s.Location.Y, Z: s.Location.Z},
		})
	}
	return out, nil
}

// SeedServers loads the inventory file and upserts every server into st.
func SeedServers(ctx context.Context, st Store, path string) (int, error) {
	servers, err := LoadServerInventory(path)
	if err != nil {
		return 0, err
	}
	for _, s := range servers {
		if err := st.UpsertServer(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(servers), nil
}
