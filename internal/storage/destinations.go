package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/tour-packages/internal/tour"
)

const destinationColumns = `id, name, description, created_at, updated_at`

func scanDestination(row pgx.Row) (*tour.Destination, error) {
	var d tour.Destination
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// DestinationRepository provides database access for destination categories.
type DestinationRepository struct {
	t *table[tour.Destination]
}

// NewDestinationRepository constructs a DestinationRepository backed by the given pool.
func NewDestinationRepository(pool *pgxpool.Pool) *DestinationRepository {
	return NewDestinationRepositoryWithQuerier(pool)
}

// NewDestinationRepositoryWithQuerier constructs a DestinationRepository with a custom Querier (for tests).
func NewDestinationRepositoryWithQuerier(q Querier) *DestinationRepository {
	return &DestinationRepository{t: &table[tour.Destination]{
		q:       q,
		name:    "destinations",
		entity:  "destination",
		columns: destinationColumns,
		scan:    scanDestination,
	}}
}

// FindAll returns all destinations ordered by id.
func (r *DestinationRepository) FindAll(ctx context.Context) ([]*tour.Destination, error) {
	return r.t.findAll(ctx)
}

// FindByID returns nil, nil when the destination does not exist.
func (r *DestinationRepository) FindByID(ctx context.Context, id int64) (*tour.Destination, error) {
	return r.t.findByID(ctx, id)
}

// Create inserts a destination. A duplicate name fails on the unique constraint.
func (r *DestinationRepository) Create(ctx context.Context, in tour.NewDestination) (*tour.Destination, error) {
	return r.t.insert(ctx, []assignment{
		{column: "name", value: in.Name},
		{column: "description", value: in.Description},
	})
}

// Update applies the non-nil fields of patch. Returns nil, nil when the id does not exist.
func (r *DestinationRepository) Update(ctx context.Context, id int64, patch tour.DestinationPatch) (*tour.Destination, error) {
	var sets []assignment
	if patch.Name != nil {
		sets = append(sets, assignment{column: "name", value: *patch.Name})
	}
	if patch.Description != nil {
		sets = append(sets, assignment{column: "description", value: *patch.Description})
	}
	return r.t.update(ctx, id, sets)
}

// Delete reports whether a row was removed.
func (r *DestinationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.t.delete(ctx, id)
}

// Version reports the row count and newest updated_at of the table.
func (r *DestinationRepository) Version(ctx context.Context) (tour.Version, error) {
	return r.t.version(ctx)
}
