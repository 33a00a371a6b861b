package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// MemoryStore keeps unavailability records in process memory.
// It backs the API when no database URL is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int
	records map[int]model.UnavailabilityRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		records: make(map[int]model.UnavailabilityRecord),
	}
}

// ListUnavailability returns the records of a unit ordered by date, then id
func (s *MemoryStore) ListUnavailability(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.UnavailabilityRecord, 0)
	for _, r := range s.records {
		if r.UnitID == unitID {
			result = append(result, copyRecord(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (s *MemoryStore) GetUnavailability(ctx context.Context, id int) (model.UnavailabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return model.UnavailabilityRecord{}, fmt.Errorf("unavailability %d: %w", id, ErrNotFound)
	}
	return copyRecord(r), nil
}

// CreateUnavailability assigns the record an id and stores it
func (s *MemoryStore) CreateUnavailability(ctx context.Context, record *model.UnavailabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.nextID
	s.nextID++
	s.records[record.ID] = copyRecord(*record)
	return nil
}

func (s *MemoryStore) UpdateUnavailability(ctx context.Context, record *model.UnavailabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		return fmt.Errorf("unavailability %d: %w", record.ID, ErrNotFound)
	}
	s.records[record.ID] = copyRecord(*record)
	return nil
}

func (s *MemoryStore) DeleteUnavailability(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("unavailability %d: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// copyRecord detaches the optional string pointers so callers cannot mutate stored records
func copyRecord(r model.UnavailabilityRecord) model.UnavailabilityRecord {
	r.StartTime = copyString(r.StartTime)
	r.EndTime = copyString(r.EndTime)
	r.RecurringEndDate = copyString(r.RecurringEndDate)
	return r
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
