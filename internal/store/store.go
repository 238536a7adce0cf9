// Package store keeps the decisions the service has made.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/rules"
)

var ErrNotFound = errors.New("decision not found")

// Entry is one stored decision. Trace is empty unless the record was evaluated
// in trace mode.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	RecordID  string            `json:"record_id"`
	Decision  pipeline.Decision `json:"decision"`
	Trace     []rules.Outcome   `json:"trace,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListOptions filters List. A zero Limit means DefaultLimit.
type ListOptions struct {
	RecordID string
	Limit    int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultLimit
	case o.Limit > MaxLimit:
		return MaxLimit
	}
	return o.Limit
}

// Store persists decisions. List returns the newest entries first.
type Store interface {
	Save(ctx context.Context, e Entry) (Entry, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
}

// stamp fills the ID and creation time of a new entry.
func stamp(e Entry, now time.Time) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	if e.RecordID == "" {
		e.RecordID = e.Decision.RecordID
	}
	return e
}
