package db

import (
	"context"
	"errors"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// ErrNotFound is returned when a record with the requested id does not exist
var ErrNotFound = errors.New("record not found")

// UnavailabilityStore defines the interface for unavailability database operations.
// Both the in-memory MemoryStore and postgres.DB implement this interface.
type UnavailabilityStore interface {
	ListUnavailability(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error)
	GetUnavailability(ctx context.Context, id int) (model.UnavailabilityRecord, error)
	CreateUnavailability(ctx context.Context, record *model.UnavailabilityRecord) error
	UpdateUnavailability(ctx context.Context, record *model.UnavailabilityRecord) error
	DeleteUnavailability(ctx context.Context, id int) error
}
