package model

// Core domain types for the dispatch service.

// Location is a point on the floor. Z carries the floor axis and is weighted
// separately when distances are computed.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Technician is a field technician known to the directory.
type Technician struct {
	ID       string   `json:"id"`
	Location Location `json:"location"`
}

// Server is a rack-mounted unit a ticket can point at.
// ID format: Hall-Pod-Aisle-Rack-U#.
type Server struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// Ticket is a work item pulled from the ticket tracker.
type Ticket struct {
	Key         string   `json:"key"`
	ID          string   `json:"id,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	StatusID    string   `json:"statusId,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Reporter    string   `json:"reporter,omitempty"`
	Created     string   `json:"created,omitempty"`
	Updated     string   `json:"updated,omitempty"`
	Project     string   `json:"project,omitempty"`
	IssueType   string   `json:"issueType,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	ServerID    string   `json:"serverId,omitempty"`
}

// FloorUpdate replaces the whole floor state in one call: the technician
// roster, the rack inventory that tickets reference, and the technician x
// rack distance matrix. Rows follow Technicians order, columns RackIDs order.
type FloorUpdate struct {
	Technicians   []Technician `json:"technicians"`
	RackIDs       []string     `json:"rackIds"`
	RackLocations []Location   `json:"rackLocations"`
	Distances     [][]int64    `json:"distances"`
}

// TechnicianEvent is what a technician client sends over the live channel.
type TechnicianEvent struct {
	EventType string      `json:"event_type"` // "online"
	Payload   *Technician `json:"payload,omitempty"`
}

// AssignmentEvent is pushed back to a technician over the live channel when
// the engine hands them a ticket.
type AssignmentEvent struct {
	EventType string `json:"event_type"` // "assignment"
	Payload   Ticket `json:"payload"`
}

// AssignmentOut is one technician-to-ticket pairing in API responses.
type AssignmentOut struct {
	TechnicianID string `json:"technicianId"`
	Ticket       Ticket `json:"ticket"`
}

// AssignmentRecord is an audit row persisted when a solve hands out tickets.
type AssignmentRecord struct {
	ID           string `json:"id"`
	TechnicianID string `json:"technicianId"`
	TicketKey    string `json:"ticketKey"`
	TS           string `json:"ts"`
}

// StatusUpdate transitions a ticket to a new status by name.
type StatusUpdate struct {
	Status string `json:"status"`
}

// CommentInput adds a comment to a ticket.
type CommentInput struct {
	Comment string `json:"comment"`
}

// TicketListResponse wraps ticket collection responses.
type TicketListResponse struct {
	Tickets []Ticket `json:"tickets"`
	Count   int      `json:"count"`
	Message string   `json:"message,omitempty"`
}

// SubscriptionRequest registers a webhook endpoint for dispatch events.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

// Subscription is a registered webhook endpoint.
type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

// ServerMetrics is the synthetic health snapshot for a server.
type ServerMetrics struct {
	ServerID string             `json:"server_id"`
	Metrics  map[string]float64 `json:"metrics"`
	Status   ServerStatus       `json:"status"`
	Metadata map[string]string  `json:"metadata"`
}

// ServerStatus summarizes health and uptime.
type ServerStatus struct {
	Health          string `json:"health"`
	UptimeHours     int    `json:"uptime_hours"`
	LastMaintenance string `json:"last_maintenance"`
}

// LogEntry is one synthetic log line for a server.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

// ServerLogs wraps the recent-logs response for a server.
type ServerLogs struct {
	ServerID  string     `json:"server_id"`
	Logs      []LogEntry `json:"logs"`
	TotalLogs int        `json:"total_logs"`
}
