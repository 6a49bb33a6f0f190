package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the optional delivery journal.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Delivery kinds recorded in the journal.
const (
	DeliveryStatus  = "status"  // a homework status-change notification
	DeliveryFailure = "failure" // an iteration-failure notification
)

// DeliveryEntry records one notification attempt. The journal is write-only
// from the bot's point of view: the poll loop never reads it back, it exists
// for postmortem diagnosis.
type DeliveryEntry struct {
	At        time.Time `json:"at"`
	Iteration uint64    `json:"iteration"`
	Kind      string    `json:"kind"`
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	Error     string    `json:"error,omitempty"`
}
