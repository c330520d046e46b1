package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/tour-packages/internal/tour"
)

// price is NUMERIC(12,2) in the schema; it is read back as float8.
const tourPackageColumns = `id, destination, start_date, duration, price::float8, transport,
	accommodation, destination_type_id, created_at, updated_at`

func scanTourPackage(row pgx.Row) (*tour.TourPackage, error) {
	var p tour.TourPackage
	var startDate time.Time

	if err := row.Scan(
		&p.ID,
		&p.Destination,
		&startDate,
		&p.Duration,
		&p.Price,
		&p.Transport,
		&p.Accommodation,
		&p.DestinationTypeID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.StartDate = tour.NewDate(startDate)
	return &p, nil
}

// TourPackageRepository provides database access for tour packages.
type TourPackageRepository struct {
	q Querier
	t *table[tour.TourPackage]
}

// NewTourPackageRepository constructs a TourPackageRepository backed by the given pool.
func NewTourPackageRepository(pool *pgxpool.Pool) *TourPackageRepository {
	return NewTourPackageRepositoryWithQuerier(pool)
}

// NewTourPackageRepositoryWithQuerier constructs a TourPackageRepository with a custom Querier (for tests).
func NewTourPackageRepositoryWithQuerier(q Querier) *TourPackageRepository {
	return &TourPackageRepository{
		q: q,
		t: &table[tour.TourPackage]{
			q:       q,
			name:    "tour_packages",
			entity:  "tour package",
			columns: tourPackageColumns,
			scan:    scanTourPackage,
		},
	}
}

// FindAll returns all tour packages ordered by id.
func (r *TourPackageRepository) FindAll(ctx context.Context) ([]*tour.TourPackage, error) {
	return r.t.findAll(ctx)
}

// FindByID returns nil, nil when the package does not exist.
func (r *TourPackageRepository) FindByID(ctx context.Context, id int64) (*tour.TourPackage, error) {
	return r.t.findByID(ctx, id)
}

// FindByDestinationType returns the packages of one category ordered by id.
func (r *TourPackageRepository) FindByDestinationType(ctx context.Context, destinationTypeID int64) ([]*tour.TourPackage, error) {
	return r.t.findWhere(ctx, "destination_type_id = $1", []any{destinationTypeID})
}

// AveragePriceByDestinationType computes AVG(price) in the database in a single
// statement. A category without packages yields 0.
func (r *TourPackageRepository) AveragePriceByDestinationType(ctx context.Context, destinationTypeID int64) (float64, error) {
	const q = `
		SELECT COALESCE(AVG(price), 0)::float8
		FROM tour_packages
		WHERE destination_type_id = $1
	`

	var avg float64
	if err := r.q.QueryRow(ctx, q, destinationTypeID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("averaging price for destination type %d: %w", destinationTypeID, err)
	}
	return avg, nil
}

// Create inserts a tour package. An unknown destination_type_id fails on the foreign key.
func (r *TourPackageRepository) Create(ctx context.Context, in tour.NewTourPackage) (*tour.TourPackage, error) {
	return r.t.insert(ctx, []assignment{
		{column: "destination", value: in.Destination},
		{column: "start_date", value: in.StartDate.Time},
		{column: "duration", value: in.Duration},
		{column: "price", value: in.Price},
		{column: "transport", value: in.Transport},
		{column: "accommodation", value: in.Accommodation},
		{column: "destination_type_id", value: in.DestinationTypeID},
	})
}

// Update applies the non-nil fields of patch. Returns nil, nil when the id does not exist.
func (r *TourPackageRepository) Update(ctx context.Context, id int64, patch tour.TourPackagePatch) (*tour.TourPackage, error) {
	var sets []assignment
	if patch.Destination != nil {
		sets = append(sets, assignment{column: "destination", value: *patch.Destination})
	}
	if patch.StartDate != nil {
		sets = append(sets, assignment{column: "start_date", value: patch.StartDate.Time})
	}
	if patch.Duration != nil {
		sets = append(sets, assignment{column: "duration", value: *patch.Duration})
	}
	if patch.Price != nil {
		sets = append(sets, assignment{column: "price", value: *patch.Price})
	}
	if patch.Transport != nil {
		sets = append(sets, assignment{column: "transport", value: *patch.Transport})
	}
	if patch.Accommodation != nil {
		sets = append(sets, assignment{column: "accommodation", value: *patch.Accommodation})
	}
	if patch.DestinationTypeID != nil {
		sets = append(sets, assignment{column: "destination_type_id", value: *patch.DestinationTypeID})
	}
	return r.t.update(ctx, id, sets)
}

// Delete reports whether a row was removed.
func (r *TourPackageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.t.delete(ctx, id)
}

// Version reports the row count and newest updated_at of the table.
func (r *TourPackageRepository) Version(ctx context.Context) (tour.Version, error) {
	return r.t.version(ctx)
}
