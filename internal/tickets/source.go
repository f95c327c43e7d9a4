// Package tickets defines the adapter boundary to the ticket tracker that
// feeds the assignment engine.
package tickets

import (
	"context"
	"regexp"

	"fieldops/internal/model"
)

// Source is the minimal interface a ticket-tracker integration implements.
// The engine treats every fetch as a full replacement of the task list.
type Source interface {
	Name() string
	FetchOpen(ctx context.Context) ([]model.Ticket, error)
	Get(ctx context.Context, key string) (model.Ticket, error)
	UpdateStatus(ctx context.Context, key, status string) (model.Ticket, error)
	AddComment(ctx context.Context, key, comment string) error
	AddAttachment(ctx context.Context, key, fileName string, data []byte) error
}

// rackIDPattern matches rack ids of the form Hall-Pod-Aisle-Rack-U#.
var rackIDPattern = regexp.MustCompile(`\b[A-Z]\d*-P\d+-A\d+-R\d+-U\d+\b`)

// ExtractServerID pulls the first rack id found in the given texts, or ""
// when no ticket field references a rack.
func ExtractServerID(texts ...string) string {
	for _, t := range texts {
		if m := rackIDPattern.FindString(t); m != "" {
			return m
		}
	}
	return ""
}
