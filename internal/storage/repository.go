package storage

import (
	"context"
	"errors"
	"time"

	"call-pipeline/internal/calls"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// StoredCall is a persisted outcome plus row timestamps. Timestamps are the
// only fields allowed to differ between two deliveries of the same event.
type StoredCall struct {
	calls.CallOutcome

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository is the persistence contract for the pipeline.
//
// UpsertCallLog must be idempotent by call SID: a conflict replaces the
// prior record (last write wins), so re-delivered webhooks never create a
// duplicate logical row.
type Repository interface {
	// FindPartnerID resolves the partner owning a line number.
	// ErrNotFound is tolerated by callers; the outcome is stored without a
	// partner id.
	FindPartnerID(ctx context.Context, phone string) (string, error)

	UpsertCallLog(ctx context.Context, out calls.CallOutcome) error

	GetCallLog(ctx context.Context, callSID string) (StoredCall, error)
}
