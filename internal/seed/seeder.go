package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/tour"
)

const uniqueViolation = "23505"

// DestinationStore is the subset of the destination service used for seeding.
type DestinationStore interface {
	List(ctx context.Context) ([]*tour.Destination, error)
	Create(ctx context.Context, in tour.NewDestination) (*tour.Destination, error)
}

// PackageStore is the subset of the tour package service used for seeding.
type PackageStore interface {
	Create(ctx context.Context, in tour.NewTourPackage) (*tour.TourPackage, error)
}

// RevisionBumper records that a resource collection changed, so API clients
// holding an ETag for it refetch.
type RevisionBumper interface {
	Bump(ctx context.Context, resource string) (int64, error)
}

// Result summarises a seeding run.
type Result struct {
	Categories        []*tour.Destination
	CreatedCategories int
	Packages          int
}

// Seeder fills the database with the default categories and random packages.
type Seeder struct {
	destinations DestinationStore
	packages     PackageStore
	factory      *Factory
	concurrency  int
	revisions    RevisionBumper
	log          *slog.Logger
}

// NewSeeder constructs a Seeder. concurrency bounds the number of package
// inserts in flight; values below 1 mean 1. revisions may be nil.
func NewSeeder(destinations DestinationStore, packages PackageStore, factory *Factory, concurrency int, revisions RevisionBumper, log *slog.Logger) *Seeder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Seeder{
		destinations: destinations,
		packages:     packages,
		factory:      factory,
		concurrency:  concurrency,
		revisions:    revisions,
		log:          log,
	}
}

// Run ensures every default category exists, then creates a random batch of
// packages for each of them. The revision of every collection it wrote to is
// bumped, also when the run fails halfway.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	categories, created, err := s.ensureCategories(ctx)
	if created > 0 {
		s.bump(ctx, revision.Destinations)
	}
	if err != nil {
		return nil, err
	}

	n, err := s.createPackages(ctx, categories)
	if n > 0 {
		s.bump(ctx, revision.TourPackages)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Categories: categories, CreatedCategories: created, Packages: n}, nil
}

func (s *Seeder) bump(ctx context.Context, resource string) {
	if s.revisions == nil {
		return
	}
	// The writes are committed; bump even if the run itself was cancelled.
	if _, err := s.revisions.Bump(context.WithoutCancel(ctx), resource); err != nil {
		s.log.Warn("revision bump failed", "resource", resource, "err", err)
	}
}

func (s *Seeder) ensureCategories(ctx context.Context) ([]*tour.Destination, int, error) {
	existing, err := s.destinations.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing destinations: %w", err)
	}
	byName := make(map[string]*tour.Destination, len(existing))
	for _, d := range existing {
		byName[d.Name] = d
	}

	categories := make([]*tour.Destination, 0, len(DefaultCategories))
	created := 0
	for _, c := range DefaultCategories {
		if d, ok := byName[c.Name]; ok {
			s.log.Info("destination already exists", "name", c.Name, "id", d.ID)
			categories = append(categories, d)
			continue
		}

		description := c.Description
		d, err := s.destinations.Create(ctx, tour.NewDestination{Name: c.Name, Description: &description})
		if err != nil {
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
				return nil, created, fmt.Errorf("creating destination %q: %w", c.Name, err)
			}
			// Created concurrently by someone else since the listing above.
			d, err = s.findByName(ctx, c.Name)
			if err != nil {
				return nil, created, err
			}
			s.log.Info("destination already exists", "name", c.Name, "id", d.ID)
		} else {
			created++
			s.log.Info("destination created", "name", d.Name, "id", d.ID)
		}
		categories = append(categories, d)
	}

	return categories, created, nil
}

func (s *Seeder) findByName(ctx context.Context, name string) (*tour.Destination, error) {
	all, err := s.destinations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	for _, d := range all {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("destination %q reported as duplicate but not found", name)
}

// createPackages fans the inserts out over an errgroup. Inputs are generated
// up front because the factory is not safe for concurrent use.
func (s *Seeder) createPackages(ctx context.Context, categories []*tour.Destination) (int, error) {
	var inputs []tour.NewTourPackage
	for _, c := range categories {
		count := s.factory.PackageCount()
		for range count {
			inputs = append(inputs, s.factory.TourPackage(c.ID))
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var done atomic.Int64
	for _, in := range inputs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("package insert panicked", "recover", r)
					err = fmt.Errorf("package insert panicked: %v", r)
				}
			}()
			p, err := s.packages.Create(gCtx, in)
			if err != nil {
				return fmt.Errorf("creating package for destination %d: %w", in.DestinationTypeID, err)
			}
			done.Add(1)
			s.log.Info("tour package created",
				"id", p.ID,
				"destination", p.Destination,
				"duration", p.Duration,
				"price", p.Price,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}
	return int(done.Load()), nil
}
