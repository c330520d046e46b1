package tour

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DestinationRepo defines the storage operations needed by DestinationService.
// Find and Update return nil, nil when the id does not exist.
type DestinationRepo interface {
	FindAll(ctx context.Context) ([]*Destination, error)
	FindByID(ctx context.Context, id int64) (*Destination, error)
	Create(ctx context.Context, in NewDestination) (*Destination, error)
	Update(ctx context.Context, id int64, patch DestinationPatch) (*Destination, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Version(ctx context.Context) (Version, error)
}

// TourPackageRepo defines the storage operations needed by TourPackageService.
// Find and Update return nil, nil when the id does not exist.
type TourPackageRepo interface {
	FindAll(ctx context.Context) ([]*TourPackage, error)
	FindByID(ctx context.Context, id int64) (*TourPackage, error)
	FindByDestinationType(ctx context.Context, destinationTypeID int64) ([]*TourPackage, error)
	AveragePriceByDestinationType(ctx context.Context, destinationTypeID int64) (float64, error)
	Create(ctx context.Context, in NewTourPackage) (*TourPackage, error)
	Update(ctx context.Context, id int64, patch TourPackagePatch) (*TourPackage, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Version(ctx context.Context) (Version, error)
}

// check is one validation rule applied to a single field value.
type check struct {
	field string
	value any
	tag   string
	msg   string
}

// firstFailure runs checks in order and reports the first one that fails.
func firstFailure(v *validator.Validate, checks []check) error {
	for _, c := range checks {
		if err := v.Var(c.value, c.tag); err != nil {
			return &ValidationError{Field: c.field, Message: c.msg}
		}
	}
	return nil
}

// ---- Destinations ----

// DestinationService validates requests before delegating to the repository.
type DestinationService struct {
	repo     DestinationRepo
	validate *validator.Validate
}

// NewDestinationService constructs a DestinationService.
func NewDestinationService(repo DestinationRepo) *DestinationService {
	return &DestinationService{repo: repo, validate: validator.New()}
}

// List returns all destinations ordered by id.
func (s *DestinationService) List(ctx context.Context) ([]*Destination, error) {
	return s.repo.FindAll(ctx)
}

// Version reports the current state of the destinations table.
func (s *DestinationService) Version(ctx context.Context) (Version, error) {
	return s.repo.Version(ctx)
}

// Get returns a single destination.
func (s *DestinationService) Get(ctx context.Context, id int64) (*Destination, error) {
	if id <= 0 {
		return nil, invalidID("destination")
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound("destination")
	}
	return d, nil
}

// Create inserts a new destination. The name must contain a non-space character.
func (s *DestinationService) Create(ctx context.Context, in NewDestination) (*Destination, error) {
	if err := firstFailure(s.validate, []check{
		{field: "name", value: strings.TrimSpace(in.Name), tag: "required", msg: "Destination name is required"},
	}); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Update applies the fields present in patch.
func (s *DestinationService) Update(ctx context.Context, id int64, patch DestinationPatch) (*Destination, error) {
	if id <= 0 {
		return nil, invalidID("destination")
	}
	d, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound("destination")
	}
	return d, nil
}

// Delete removes a destination. Packages still referencing it make the store reject the delete.
func (s *DestinationService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalidID("destination")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("destination")
	}
	return nil
}

// ---- Tour packages ----

// TourPackageService validates requests before delegating to the repository.
type TourPackageService struct {
	repo     TourPackageRepo
	validate *validator.Validate
}

// NewTourPackageService constructs a TourPackageService.
func NewTourPackageService(repo TourPackageRepo) *TourPackageService {
	return &TourPackageService{repo: repo, validate: validator.New()}
}

// List returns all tour packages ordered by id.
func (s *TourPackageService) List(ctx context.Context) ([]*TourPackage, error) {
	return s.repo.FindAll(ctx)
}

// Version reports the current state of the tour packages table.
func (s *TourPackageService) Version(ctx context.Context) (Version, error) {
	return s.repo.Version(ctx)
}

// Get returns a single tour package.
func (s *TourPackageService) Get(ctx context.Context, id int64) (*TourPackage, error) {
	if id <= 0 {
		return nil, invalidID("tour package")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("tour package")
	}
	return p, nil
}

// ListByDestinationType returns the packages of one category. No match is an empty slice.
func (s *TourPackageService) ListByDestinationType(ctx context.Context, destinationTypeID int64) ([]*TourPackage, error) {
	if destinationTypeID <= 0 {
		return nil, invalidID("destination type")
	}
	packages, err := s.repo.FindByDestinationType(ctx, destinationTypeID)
	if err != nil {
		return nil, err
	}
	if packages == nil {
		packages = []*TourPackage{}
	}
	return packages, nil
}

// AveragePrice returns the mean price of a category's packages, or 0 when it has none.
func (s *TourPackageService) AveragePrice(ctx context.Context, destinationTypeID int64) (*AveragePrice, error) {
	if destinationTypeID <= 0 {
		return nil, invalidID("destination type")
	}
	avg, err := s.repo.AveragePriceByDestinationType(ctx, destinationTypeID)
	if err != nil {
		return nil, fmt.Errorf("average price for destination type %d: %w", destinationTypeID, err)
	}
	return &AveragePrice{DestinationTypeID: destinationTypeID, AveragePrice: avg}, nil
}

// Create validates in field order and inserts the package. Whether the category
// exists is left to the foreign key.
func (s *TourPackageService) Create(ctx context.Context, in NewTourPackage) (*TourPackage, error) {
	if err := firstFailure(s.validate, []check{
		{field: "destination", value: strings.TrimSpace(in.Destination), tag: "required", msg: "Destination is required"},
		{field: "startDate", value: in.StartDate.Time, tag: "required", msg: "Start date is required"},
		{field: "duration", value: in.Duration, tag: "gt=0", msg: "Valid duration is required"},
		{field: "price", value: in.Price, tag: "gt=0", msg: "Valid price is required"},
		{field: "destinationTypeId", value: in.DestinationTypeID, tag: "gt=0", msg: "Valid destination type ID is required"},
	}); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Update applies the fields present in patch. Values are not re-validated.
func (s *TourPackageService) Update(ctx context.Context, id int64, patch TourPackagePatch) (*TourPackage, error) {
	if id <= 0 {
		return nil, invalidID("tour package")
	}
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("tour package")
	}
	return p, nil
}

// Delete removes a tour package.
func (s *TourPackageService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalidID("tour package")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("tour package")
	}
	return nil
}
