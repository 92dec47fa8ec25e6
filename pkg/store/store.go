// Package store persists summary request records across their lifecycle:
// created when a request is accepted, updated once when its stream reaches a
// terminal event, and eventually pruned by retention.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("record not found")

// Update carries the terminal-state fields of a record. Nil fields are left
// untouched.
type Update struct {
	SummaryText  *string
	TotalTokens  *int
	CostUSD      *float64
	CompletedAt  *time.Time
	ErrorMessage *string
}

// Store is the persistence interface for summary request records.
type Store interface {
	// Create inserts a new record. The record's ID must be set.
	Create(ctx context.Context, rec *Record) error

	// Update applies the non-nil fields of upd to the record with the given
	// id. Returns ErrNotFound when no such record exists.
	Update(ctx context.Context, id string, upd Update) error

	// FindByID returns the record with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, most recent first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// DeleteCompletedBefore removes completed records whose completion time
	// is before cutoff. Returns the number of records removed.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// MarkAbandonedBefore fails incomplete records created before cutoff,
	// stamping them with the given error message and a completion time.
	// Returns the number of records marked.
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time, message string) (int64, error)

	// Close releases the backing resources.
	Close() error
}
