package repository

import (
	"context"
	"errors"
	"time"

	"rtshell/internal/domain"
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been saved yet
var ErrNoSnapshot = errors.New("no snapshot stored")

// EventRecord is one entry of the registry event journal
type EventRecord struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Ref       string            `json:"ref,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Repository defines the interface for registry persistence
type Repository interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error
	LoadSnapshot(ctx context.Context) (*domain.Snapshot, error)

	// Event journal
	RecordEvent(ctx context.Context, rec EventRecord) error
	ListEvents(ctx context.Context, limit int) ([]EventRecord, error)

	// Close releases resources
	Close() error
}
