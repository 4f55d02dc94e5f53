package storage

import (
	"context"
	"sync"
	"time"

	"call-pipeline/internal/calls"
)

// MemoryRepo is an in-memory Repository for tests and early development.
// Upsert semantics match the Postgres implementation: one logical row per
// call SID, created_at preserved across replacements.
type MemoryRepo struct {
	mu sync.Mutex

	Partners map[string]string // phone -> partner id
	Logs     map[string]StoredCall

	// Now is swappable so tests can pin timestamps.
	Now func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Partners: map[string]string{},
		Logs:     map[string]StoredCall{},
		Now:      time.Now,
	}
}

func (r *MemoryRepo) FindPartnerID(ctx context.Context, phone string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.Partners[phone]; ok {
		return id, nil
	}
	return "", ErrNotFound
}

func (r *MemoryRepo) UpsertCallLog(ctx context.Context, out calls.CallOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now()
	row := StoredCall{CallOutcome: out, CreatedAt: now, UpdatedAt: now}
	if prev, ok := r.Logs[out.CallSID]; ok {
		row.CreatedAt = prev.CreatedAt
	}
	r.Logs[out.CallSID] = row
	return nil
}

func (r *MemoryRepo) GetCallLog(ctx context.Context, callSID string) (StoredCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.Logs[callSID]; ok {
		return row, nil
	}
	return StoredCall{}, ErrNotFound
}
