package customer

import (
	"context"

	"washdesk/internal/domain"
)

// Store persists customer records against a tabular backing store. The
// record key is the plate; implementations must resolve it on every call
// rather than trusting any cached row position, because the table is
// shared with external writers.
type Store interface {
	// FetchAll reads every record in row order.
	FetchAll(ctx context.Context) ([]domain.CustomerRecord, error)
	// FindByPlate does an exact-match lookup, domain.ErrNotFound on miss.
	FindByPlate(ctx context.Context, plate string) (*domain.CustomerRecord, error)
	// Apply writes the plan's fields to the record it names. The store has
	// no multi-field transaction guarantee; implementations apply writes
	// in plan order so the visit log lands last.
	Apply(ctx context.Context, plan domain.MutationPlan) error
	// Append adds a new record, domain.ErrDuplicatePlate on key conflict.
	Append(ctx context.Context, rec domain.CustomerRecord) (*domain.CustomerRecord, error)
}
