package settings

import (
	"context"
	"sync"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// MemoryRepository is a map-backed Repository used by tests and by demo
// runs without a database. Saves clone the record, so callers cannot
// mutate stored state through retained references.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]settings.Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]settings.Record)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*settings.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	record := stored.Clone()
	return &record, nil
}

func (r *MemoryRepository) Save(_ context.Context, userID string, record settings.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[userID] = record.Clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[userID]
	delete(r.records, userID)
	return ok, nil
}
