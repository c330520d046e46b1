package api

import (
	"context"

	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/tour"
)

// DestinationService defines the destination operations needed by handlers.
type DestinationService interface {
	List(ctx context.Context) ([]*tour.Destination, error)
	Get(ctx context.Context, id int64) (*tour.Destination, error)
	Create(ctx context.Context, in tour.NewDestination) (*tour.Destination, error)
	Update(ctx context.Context, id int64, patch tour.DestinationPatch) (*tour.Destination, error)
	Delete(ctx context.Context, id int64) error
	Version(ctx context.Context) (tour.Version, error)
}

// TourPackageService defines the tour package operations needed by handlers.
type TourPackageService interface {
	List(ctx context.Context) ([]*tour.TourPackage, error)
	Get(ctx context.Context, id int64) (*tour.TourPackage, error)
	ListByDestinationType(ctx context.Context, destinationTypeID int64) ([]*tour.TourPackage, error)
	AveragePrice(ctx context.Context, destinationTypeID int64) (*tour.AveragePrice, error)
	Create(ctx context.Context, in tour.NewTourPackage) (*tour.TourPackage, error)
	Update(ctx context.Context, id int64, patch tour.TourPackagePatch) (*tour.TourPackage, error)
	Delete(ctx context.Context, id int64) error
	Version(ctx context.Context) (tour.Version, error)
}

// RevisionStore defines the per-resource revision counters used for ETags.
type RevisionStore interface {
	Current(ctx context.Context, resource string) (revision.Revision, error)
	Bump(ctx context.Context, resource string) (int64, error)
}

// Pinger is satisfied by anything with a connectivity check (database, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}
