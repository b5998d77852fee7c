// Package session keeps per-user conversation state between Telegram updates.
// A Session lives for one conversation: it is created on the first event of a
// user, mutated by each accepted step, and cleared when a flow completes, is
// cancelled, or sits idle longer than the configured TTL.
package session

import (
	"context"
	"maps"
	"time"
)

// Session is the transient record of where a user is inside a dialogue flow.
// Flow and State are both empty when the user is idle.
type Session struct {
	Flow      string            `json:"flow,omitempty"`
	State     string            `json:"state,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Idle reports whether no flow is in progress.
func (s Session) Idle() bool {
	return s.Flow == ""
}

// Clone returns a copy that shares no mutable state with s.
func (s Session) Clone() Session {
	c := s
	if s.Fields != nil {
		c.Fields = maps.Clone(s.Fields)
	}
	return c
}

// Store persists sessions keyed by Telegram user ID.
// Get returns an idle Session when nothing is stored for the user.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Put(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
}

// Sweeper is implemented by stores that need explicit expiry of abandoned sessions.
type Sweeper interface {
	Sweep(ctx context.Context, idleSince time.Time) (int, error)
}
