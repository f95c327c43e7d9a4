package api

import (
	"sync"
	"time"
)

// PresenceInfo holds the live-channel state for one technician.
type PresenceInfo struct {
	TechnicianID string `json:"technicianId"`
	ConnectedAt  string `json:"connectedAt"`
	LastSeen     string `json:"lastSeen"`
}

// PresenceCache tracks which technicians currently hold a websocket session.
type PresenceCache struct {
	mu sync.Mutex
	m  map[string]PresenceInfo
}

// NewPresenceCache constructs a PresenceCache.
func NewPresenceCache() *PresenceCache { return &PresenceCache{m: map[string]PresenceInfo{}} }

// Connect records a new live session for the technician.
func (c *PresenceCache) Connect(technicianID string) {
	if technicianID == "" {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[technicianID] = PresenceInfo{TechnicianID: technicianID, ConnectedAt: now, LastSeen: now}
}

// Touch refreshes the last-seen timestamp for an existing session.
func (c *PresenceCache) Touch(technicianID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.m[technicianID]
	if !ok {
		return
	}
	info.LastSeen = time.Now().UTC().Format(time.RFC3339)
	c.m[technicianID] = info
}

// Disconnect drops the session record.
func (c *PresenceCache) Disconnect(technicianID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, technicianID)
}

// Online reports whether the technician is connected right now.
func (c *PresenceCache) Online(technicianID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[technicianID]
	return ok
}

// List returns a snapshot of connected technicians.
func (c *PresenceCache) List() []PresenceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PresenceInfo, 0, len(c.m))
	for _, v := range c.m {
		out = append(out, v)
	}
	return out
}
