package models

import "time"

// AuditEntry is one row of the append-only transition audit trail: who moved
// which request from where to where, and when.
type AuditEntry struct {
	ID         string    `bson:"id" json:"id"`
	RequestID  string    `bson:"request_id" json:"request_id"`
	Actor      string    `bson:"actor" json:"actor"`
	Action     string    `bson:"action" json:"action"`
	FromStatus string    `bson:"from_status,omitempty" json:"from_status,omitempty"`
	ToStatus   string    `bson:"to_status,omitempty" json:"to_status,omitempty"`
	At         time.Time `bson:"at" json:"at"`
}
