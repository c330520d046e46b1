package tour_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tour-packages/internal/tour"
)

// ---- mock repositories ----

type mockDestinationRepo struct {
	findAllFn  func(ctx context.Context) ([]*tour.Destination, error)
	findByIDFn func(ctx context.Context, id int64) (*tour.Destination, error)
	createFn   func(ctx context.Context, in tour.NewDestination) (*tour.Destination, error)
	updateFn   func(ctx context.Context, id int64, patch tour.DestinationPatch) (*tour.Destination, error)
	deleteFn   func(ctx context.Context, id int64) (bool, error)
	versionFn  func(ctx context.Context) (tour.Version, error)
}

func (m *mockDestinationRepo) FindAll(ctx context.Context) ([]*tour.Destination, error) {
	return m.findAllFn(ctx)
}
func (m *mockDestinationRepo) FindByID(ctx context.Context, id int64) (*tour.Destination, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockDestinationRepo) Create(ctx context.Context, in tour.NewDestination) (*tour.Destination, error) {
	return m.createFn(ctx, in)
}
func (m *mockDestinationRepo) Update(ctx context.Context, id int64, patch tour.DestinationPatch) (*tour.Destination, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *mockDestinationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}
func (m *mockDestinationRepo) Version(ctx context.Context) (tour.Version, error) {
	return m.versionFn(ctx)
}

type mockPackageRepo struct {
	findAllFn    func(ctx context.Context) ([]*tour.TourPackage, error)
	findByIDFn   func(ctx context.Context, id int64) (*tour.TourPackage, error)
	findByTypeFn func(ctx context.Context, typeID int64) ([]*tour.TourPackage, error)
	averageFn    func(ctx context.Context, typeID int64) (float64, error)
	createFn     func(ctx context.Context, in tour.NewTourPackage) (*tour.TourPackage, error)
	updateFn     func(ctx context.Context, id int64, patch tour.TourPackagePatch) (*tour.TourPackage, error)
	deleteFn     func(ctx context.Context, id int64) (bool, error)
	versionFn    func(ctx context.Context) (tour.Version, error)
}

func (m *mockPackageRepo) FindAll(ctx context.Context) ([]*tour.TourPackage, error) {
	return m.findAllFn(ctx)
}
func (m *mockPackageRepo) FindByID(ctx context.Context, id int64) (*tour.TourPackage, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockPackageRepo) FindByDestinationType(ctx context.Context, typeID int64) ([]*tour.TourPackage, error) {
	return m.findByTypeFn(ctx, typeID)
}
func (m *mockPackageRepo) AveragePriceByDestinationType(ctx context.Context, typeID int64) (float64, error) {
	return m.averageFn(ctx, typeID)
}
func (m *mockPackageRepo) Create(ctx context.Context, in tour.NewTourPackage) (*tour.TourPackage, error) {
	return m.createFn(ctx, in)
}
func (m *mockPackageRepo) Update(ctx context.Context, id int64, patch tour.TourPackagePatch) (*tour.TourPackage, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *mockPackageRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}
func (m *mockPackageRepo) Version(ctx context.Context) (tour.Version, error) {
	return m.versionFn(ctx)
}

// ---- helpers ----

func strPtr(s string) *string { return &s }

func validPackage() tour.NewTourPackage {
	return tour.NewTourPackage{
		Destination:       "Sochi",
		StartDate:         tour.NewDate(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		Duration:          7,
		Price:             50000,
		Transport:         strPtr("Plane"),
		Accommodation:     strPtr("Hotel 4*"),
		DestinationTypeID: 1,
	}
}

func samplePackage(id int64) *tour.TourPackage {
	in := validPackage()
	return &tour.TourPackage{
		ID:                id,
		Destination:       in.Destination,
		StartDate:         in.StartDate,
		Duration:          in.Duration,
		Price:             in.Price,
		Transport:         in.Transport,
		Accommodation:     in.Accommodation,
		DestinationTypeID: in.DestinationTypeID,
	}
}

// ---- DestinationService ----

func TestDestinationService_Create_RejectsBlankName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		repo := &mockDestinationRepo{
			createFn: func(_ context.Context, _ tour.NewDestination) (*tour.Destination, error) {
				t.Fatal("repo.Create must not be called for an invalid name")
				return nil, nil
			},
		}
		svc := tour.NewDestinationService(repo)

		_, err := svc.Create(context.Background(), tour.NewDestination{Name: name})
		require.Error(t, err)
		assert.ErrorIs(t, err, tour.ErrValidation)

		var verr *tour.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "name", verr.Field)
		assert.Equal(t, "Destination name is required", verr.Message)
	}
}

func TestDestinationService_Create_Success(t *testing.T) {
	now := time.Now()
	repo := &mockDestinationRepo{
		createFn: func(_ context.Context, in tour.NewDestination) (*tour.Destination, error) {
			return &tour.Destination{ID: 7, Name: in.Name, Description: in.Description, CreatedAt: now, UpdatedAt: now}, nil
		},
	}
	svc := tour.NewDestinationService(repo)

	d, err := svc.Create(context.Background(), tour.NewDestination{Name: "Beach holiday", Description: strPtr("Sea coast")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, "Sea coast", *d.Description)
}

func TestDestinationService_Get_InvalidID(t *testing.T) {
	svc := tour.NewDestinationService(&mockDestinationRepo{})

	for _, id := range []int64{0, -1} {
		_, err := svc.Get(context.Background(), id)
		assert.ErrorIs(t, err, tour.ErrInvalidArgument)
		assert.EqualError(t, err, "Invalid destination ID")
	}
}

func TestDestinationService_Get_NotFound(t *testing.T) {
	repo := &mockDestinationRepo{
		findByIDFn: func(_ context.Context, _ int64) (*tour.Destination, error) { return nil, nil },
	}
	svc := tour.NewDestinationService(repo)

	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, tour.ErrNotFound)
	assert.EqualError(t, err, "Destination not found")
}

func TestDestinationService_Get_RepoError(t *testing.T) {
	repo := &mockDestinationRepo{
		findByIDFn: func(_ context.Context, _ int64) (*tour.Destination, error) { return nil, fmt.Errorf("db down") },
	}
	svc := tour.NewDestinationService(repo)

	_, err := svc.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, tour.ErrNotFound)
}

func TestDestinationService_Update_NotFound(t *testing.T) {
	repo := &mockDestinationRepo{
		updateFn: func(_ context.Context, _ int64, _ tour.DestinationPatch) (*tour.Destination, error) { return nil, nil },
	}
	svc := tour.NewDestinationService(repo)

	_, err := svc.Update(context.Background(), 9, tour.DestinationPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, tour.ErrNotFound)
}

func TestDestinationService_Update_InvalidID(t *testing.T) {
	svc := tour.NewDestinationService(&mockDestinationRepo{})
	_, err := svc.Update(context.Background(), 0, tour.DestinationPatch{})
	assert.ErrorIs(t, err, tour.ErrInvalidArgument)
}

func TestDestinationService_Update_EmptyPatchReturnsUnchanged(t *testing.T) {
	existing := &tour.Destination{ID: 3, Name: "Ski resort"}
	repo := &mockDestinationRepo{
		updateFn: func(_ context.Context, id int64, patch tour.DestinationPatch) (*tour.Destination, error) {
			assert.True(t, patch.Empty())
			return existing, nil
		},
	}
	svc := tour.NewDestinationService(repo)

	d, err := svc.Update(context.Background(), 3, tour.DestinationPatch{})
	require.NoError(t, err)
	assert.Equal(t, existing, d)
}

func TestDestinationService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		deleted bool
		repoErr error
		wantErr error
	}{
		{name: "deleted", id: 1, deleted: true},
		{name: "missing", id: 2, deleted: false, wantErr: tour.ErrNotFound},
		{name: "invalid id", id: 0, wantErr: tour.ErrInvalidArgument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockDestinationRepo{
				deleteFn: func(_ context.Context, _ int64) (bool, error) { return tc.deleted, tc.repoErr },
			}
			err := tour.NewDestinationService(repo).Delete(context.Background(), tc.id)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// ---- TourPackageService ----

func TestTourPackageService_Create_ValidationOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *tour.NewTourPackage)
		wantField string
		wantMsg   string
	}{
		{
			name:      "empty destination",
			mutate:    func(in *tour.NewTourPackage) { in.Destination = "  " },
			wantField: "destination",
			wantMsg:   "Destination is required",
		},
		{
			name:      "missing start date",
			mutate:    func(in *tour.NewTourPackage) { in.StartDate = tour.Date{} },
			wantField: "startDate",
			wantMsg:   "Start date is required",
		},
		{
			name:      "zero duration",
			mutate:    func(in *tour.NewTourPackage) { in.Duration = 0 },
			wantField: "duration",
			wantMsg:   "Valid duration is required",
		},
		{
			name:      "negative duration",
			mutate:    func(in *tour.NewTourPackage) { in.Duration = -3 },
			wantField: "duration",
			wantMsg:   "Valid duration is required",
		},
		{
			name:      "zero price",
			mutate:    func(in *tour.NewTourPackage) { in.Price = 0 },
			wantField: "price",
			wantMsg:   "Valid price is required",
		},
		{
			name:      "negative price",
			mutate:    func(in *tour.NewTourPackage) { in.Price = -100.5 },
			wantField: "price",
			wantMsg:   "Valid price is required",
		},
		{
			name:      "zero destination type",
			mutate:    func(in *tour.NewTourPackage) { in.DestinationTypeID = 0 },
			wantField: "destinationTypeId",
			wantMsg:   "Valid destination type ID is required",
		},
		{
			name: "first failing check wins",
			mutate: func(in *tour.NewTourPackage) {
				in.Duration = 0
				in.Price = 0
				in.DestinationTypeID = -1
			},
			wantField: "duration",
			wantMsg:   "Valid duration is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockPackageRepo{
				createFn: func(_ context.Context, _ tour.NewTourPackage) (*tour.TourPackage, error) {
					t.Fatal("repo.Create must not be called when validation fails")
					return nil, nil
				},
			}
			svc := tour.NewTourPackageService(repo)

			in := validPackage()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tour.ErrValidation)

			var verr *tour.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.wantField, verr.Field)
			assert.Equal(t, tc.wantMsg, verr.Message)
		})
	}
}

func TestTourPackageService_Create_Success(t *testing.T) {
	var got tour.NewTourPackage
	repo := &mockPackageRepo{
		createFn: func(_ context.Context, in tour.NewTourPackage) (*tour.TourPackage, error) {
			got = in
			return samplePackage(11), nil
		},
	}
	svc := tour.NewTourPackageService(repo)

	p, err := svc.Create(context.Background(), validPackage())
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, "Sochi", got.Destination)
	assert.Equal(t, "2024-07-01", got.StartDate.String())
}

func TestTourPackageService_Create_OptionalFieldsMayBeAbsent(t *testing.T) {
	repo := &mockPackageRepo{
		createFn: func(_ context.Context, in tour.NewTourPackage) (*tour.TourPackage, error) {
			assert.Nil(t, in.Transport)
			assert.Nil(t, in.Accommodation)
			return samplePackage(1), nil
		},
	}
	in := validPackage()
	in.Transport = nil
	in.Accommodation = nil

	_, err := tour.NewTourPackageService(repo).Create(context.Background(), in)
	require.NoError(t, err)
}

func TestTourPackageService_AveragePrice_PassesThrough(t *testing.T) {
	calls := 0
	repo := &mockPackageRepo{
		averageFn: func(_ context.Context, typeID int64) (float64, error) {
			calls++
			assert.Equal(t, int64(1), typeID)
			return 25000.50, nil
		},
	}
	svc := tour.NewTourPackageService(repo)

	avg, err := svc.AveragePrice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 25000.50, avg.AveragePrice)
	assert.Equal(t, int64(1), avg.DestinationTypeID)
	assert.Equal(t, 1, calls)
}

func TestTourPackageService_AveragePrice_ZeroWhenEmpty(t *testing.T) {
	repo := &mockPackageRepo{
		averageFn: func(_ context.Context, _ int64) (float64, error) { return 0, nil },
	}

	avg, err := tour.NewTourPackageService(repo).AveragePrice(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, avg.AveragePrice)
}

func TestTourPackageService_AveragePrice_InvalidID(t *testing.T) {
	repo := &mockPackageRepo{
		averageFn: func(_ context.Context, _ int64) (float64, error) {
			t.Fatal("repo must not be called for an invalid id")
			return 0, nil
		},
	}

	_, err := tour.NewTourPackageService(repo).AveragePrice(context.Background(), 0)
	assert.ErrorIs(t, err, tour.ErrInvalidArgument)
	assert.EqualError(t, err, "Invalid destination type ID")
}

func TestTourPackageService_ListByDestinationType_EmptyIsNotError(t *testing.T) {
	repo := &mockPackageRepo{
		findByTypeFn: func(_ context.Context, _ int64) ([]*tour.TourPackage, error) { return nil, nil },
	}

	packages, err := tour.NewTourPackageService(repo).ListByDestinationType(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, packages)
	assert.Empty(t, packages)
}

func TestTourPackageService_ListByDestinationType_InvalidID(t *testing.T) {
	_, err := tour.NewTourPackageService(&mockPackageRepo{}).ListByDestinationType(context.Background(), -2)
	assert.ErrorIs(t, err, tour.ErrInvalidArgument)
}

func TestTourPackageService_Get(t *testing.T) {
	repo := &mockPackageRepo{
		findByIDFn: func(_ context.Context, id int64) (*tour.TourPackage, error) {
			if id == 1 {
				return samplePackage(1), nil
			}
			return nil, nil
		},
	}
	svc := tour.NewTourPackageService(repo)

	p, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Sochi", p.Destination)

	_, err = svc.Get(context.Background(), 2)
	assert.ErrorIs(t, err, tour.ErrNotFound)
	assert.EqualError(t, err, "Tour package not found")

	_, err = svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, tour.ErrInvalidArgument)
}

func TestTourPackageService_Update_DoesNotRevalidate(t *testing.T) {
	negative := -10.0
	repo := &mockPackageRepo{
		updateFn: func(_ context.Context, id int64, patch tour.TourPackagePatch) (*tour.TourPackage, error) {
			p := samplePackage(id)
			p.Price = *patch.Price
			return p, nil
		},
	}

	p, err := tour.NewTourPackageService(repo).Update(context.Background(), 4, tour.TourPackagePatch{Price: &negative})
	require.NoError(t, err)
	assert.Equal(t, -10.0, p.Price)
}

func TestTourPackageService_Update_EmptyPatchReturnsUnchanged(t *testing.T) {
	existing := samplePackage(4)
	repo := &mockPackageRepo{
		updateFn: func(_ context.Context, _ int64, patch tour.TourPackagePatch) (*tour.TourPackage, error) {
			assert.True(t, patch.Empty())
			return existing, nil
		},
	}

	p, err := tour.NewTourPackageService(repo).Update(context.Background(), 4, tour.TourPackagePatch{})
	require.NoError(t, err)
	assert.Equal(t, existing, p)
}

func TestTourPackageService_Update_NotFound(t *testing.T) {
	repo := &mockPackageRepo{
		updateFn: func(_ context.Context, _ int64, _ tour.TourPackagePatch) (*tour.TourPackage, error) { return nil, nil },
	}

	_, err := tour.NewTourPackageService(repo).Update(context.Background(), 4, tour.TourPackagePatch{})
	assert.ErrorIs(t, err, tour.ErrNotFound)
}

func TestTourPackageService_Delete_NotFound(t *testing.T) {
	repo := &mockPackageRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return false, nil },
	}

	err := tour.NewTourPackageService(repo).Delete(context.Background(), 4)
	assert.ErrorIs(t, err, tour.ErrNotFound)
}

func TestTourPackageService_Delete_RepoError(t *testing.T) {
	repo := &mockPackageRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return false, fmt.Errorf("fk violation") },
	}

	err := tour.NewTourPackageService(repo).Delete(context.Background(), 4)
	require.Error(t, err)
	assert.NotErrorIs(t, err, tour.ErrNotFound)
}

func TestServices_VersionPassesThrough(t *testing.T) {
	want := tour.Version{Rows: 3, LastModified: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	dv, err := tour.NewDestinationService(&mockDestinationRepo{
		versionFn: func(_ context.Context) (tour.Version, error) { return want, nil },
	}).Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, dv)

	_, err = tour.NewTourPackageService(&mockPackageRepo{
		versionFn: func(_ context.Context) (tour.Version, error) { return tour.Version{}, errors.New("db down") },
	}).Version(ctx)
	assert.EqualError(t, err, "db down")
}
