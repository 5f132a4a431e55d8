package entities

import "time"

// Audit actions recorded by stores that keep a history.
const (
	AuditPut    = "put"
	AuditDelete = "delete"
)

// AuditEntry is one recorded write to a person.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	PersonID  string         `json:"person_id"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
