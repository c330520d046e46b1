package revision_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tour-packages/internal/revision"
)

func newTestStore(t *testing.T) (*revision.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return revision.NewStore(client, ""), mr
}

func TestStore_CurrentUnset(t *testing.T) {
	s, _ := newTestStore(t)

	rev, err := s.Current(context.Background(), revision.Destinations)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rev.Counter)
	assert.NotEmpty(t, rev.Epoch)
}

func TestStore_EpochIsStable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Current(ctx, revision.Destinations)
	require.NoError(t, err)
	_, err = s.Bump(ctx, revision.Destinations)
	require.NoError(t, err)
	second, err := s.Current(ctx, revision.TourPackages)
	require.NoError(t, err)

	assert.Equal(t, first.Epoch, second.Epoch)
}

func TestStore_BumpIncrements(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Bump(ctx, revision.TourPackages)
	require.NoError(t, err)
	second, err := s.Bump(ctx, revision.TourPackages)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	rev, err := s.Current(ctx, revision.TourPackages)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev.Counter)
}

func TestStore_ResourcesAreIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Bump(ctx, revision.Destinations)
	require.NoError(t, err)

	rev, err := s.Current(ctx, revision.TourPackages)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rev.Counter)
}

func TestStore_FlushStartsNewEpoch(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, err := s.Bump(ctx, revision.Destinations)
	require.NoError(t, err)
	before, err := s.Current(ctx, revision.Destinations)
	require.NoError(t, err)

	mr.FlushAll()
	_, err = s.Bump(ctx, revision.Destinations)
	require.NoError(t, err)
	after, err := s.Current(ctx, revision.Destinations)
	require.NoError(t, err)

	assert.Equal(t, before.Counter, after.Counter)
	assert.NotEqual(t, before, after)
}

func TestStore_FieldIsNormalised(t *testing.T) {
	s, mr := newTestStore(t)

	_, err := s.Bump(context.Background(), " Destinations ")
	require.NoError(t, err)

	assert.Equal(t, "tour-packages:revisions", s.Key())
	assert.Equal(t, "1", mr.HGet(s.Key(), "destinations"))
}

func TestStore_Namespace(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := revision.NewStore(client, "staging")
	_, err := s.Bump(context.Background(), revision.TourPackages)
	require.NoError(t, err)

	assert.Equal(t, "1", mr.HGet("staging:revisions", "tour-packages"))
}

func TestStore_CorruptValue(t *testing.T) {
	s, mr := newTestStore(t)
	mr.HSet(s.Key(), "destinations", "not-a-number")

	_, err := s.Current(context.Background(), revision.Destinations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading revision for destinations")
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Bump(context.Background(), revision.Destinations)
	require.Error(t, err)
	assert.Error(t, s.Ping(context.Background()))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := revision.Connect(context.Background(), "not-a-url", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing redis URL")
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := revision.Connect(context.Background(), "redis://localhost:19999", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging redis")
}

func TestConnect_OK(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := revision.Connect(context.Background(), "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
