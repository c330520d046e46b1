package seed

import (
	"math/rand/v2"
	"time"

	"github.com/neexbeast/tour-packages/internal/tour"
)

// Category is one of the destination categories the seeder guarantees.
type Category struct {
	Name        string
	Description string
}

// DefaultCategories are created on an empty database and reused otherwise.
var DefaultCategories = []Category{
	{Name: "Beach holiday", Description: "Rest on the sea coast"},
	{Name: "Ski resort", Description: "Active holidays in the mountains"},
	{Name: "Excursion tour", Description: "Educational trips to landmarks"},
	{Name: "Sanatorium", Description: "Health and wellness retreats"},
}

var (
	places         = []string{"Sochi", "Crimea", "Turkey", "Egypt", "UAE", "Thailand", "Bulgaria", "Greece"}
	transports     = []string{"Plane", "Train", "Bus", "Ferry"}
	accommodations = []string{"Hotel 3*", "Hotel 4*", "Hotel 5*", "Apartments", "Sanatorium", "Holiday camp"}
)

// Package value ranges.
const (
	MinDuration = 3
	MaxDuration = 16
	MinPrice    = 20000
	MaxPrice    = 99999
	MinPackages = 5
	MaxPackages = 8
)

// Factory produces random but valid tour package inputs.
// It is not safe for concurrent use.
type Factory struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewFactory returns a Factory with a deterministic sequence for the given seed.
func NewFactory(seed uint64) *Factory {
	return &Factory{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

// PackageCount is the number of packages to create for one category.
func (f *Factory) PackageCount() int {
	return MinPackages + f.rnd.IntN(MaxPackages-MinPackages+1)
}

// TourPackage builds a package for the given category starting within the
// next six months.
func (f *Factory) TourPackage(destinationTypeID int64) tour.NewTourPackage {
	now := f.now()
	start := time.Date(now.Year(), now.Month()+time.Month(f.rnd.IntN(6)), 1+f.rnd.IntN(28), 0, 0, 0, 0, time.UTC)

	transport := pick(f.rnd, transports)
	accommodation := pick(f.rnd, accommodations)

	return tour.NewTourPackage{
		Destination:       pick(f.rnd, places),
		StartDate:         tour.NewDate(start),
		Duration:          MinDuration + f.rnd.IntN(MaxDuration-MinDuration+1),
		Price:             float64(MinPrice + f.rnd.IntN(MaxPrice-MinPrice+1)),
		Transport:         &transport,
		Accommodation:     &accommodation,
		DestinationTypeID: destinationTypeID,
	}
}

func pick(rnd *rand.Rand, from []string) string {
	return from[rnd.IntN(len(from))]
}
