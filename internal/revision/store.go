package revision

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Resources whose collections are revisioned.
const (
	Destinations = "destinations"
	TourPackages = "tour-packages"
)

// DefaultNamespace prefixes the Redis key when none is configured.
const DefaultNamespace = "tour-packages"

// epochField holds a random token created whenever the hash is (re)created.
// Losing the hash to a flush or eviction therefore changes the epoch, so a
// counter that starts again from zero never reproduces an earlier Revision.
const epochField = "_epoch"

// Revision identifies one state of a resource collection.
type Revision struct {
	Epoch   string
	Counter int64
}

// Store keeps a revision counter per resource in a single Redis hash.
// Every successful mutation of a resource bumps its counter.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore constructs a Store on an existing client. The hash lives under
// "<namespace>:revisions"; an empty namespace means DefaultNamespace.
func NewStore(client *redis.Client, namespace string) *Store {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, key: namespace + ":revisions"}
}

// Connect parses redisURL, verifies connectivity with a ping and returns a
// Store on the new client. Close releases the client.
func Connect(ctx context.Context, redisURL, namespace string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewStore(client, namespace), nil
}

// Key is the Redis hash holding every counter and the epoch.
func (s *Store) Key() string { return s.key }

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// field returns the hash field for the given resource.
func field(resource string) string {
	return strings.ToLower(strings.TrimSpace(resource))
}

// Current returns the resource's revision. The epoch is created on first use;
// the counter is 0 if the resource was never bumped in this epoch.
func (s *Store) Current(ctx context.Context, resource string) (Revision, error) {
	var vals *redis.SliceCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, s.key, epochField, uuid.NewString())
		vals = p.HMGet(ctx, s.key, epochField, field(resource))
		return nil
	})
	if err != nil {
		return Revision{}, fmt.Errorf("reading revision for %s: %w", resource, err)
	}

	got := vals.Val()
	epoch, _ := got[0].(string)
	rev := Revision{Epoch: epoch}

	if raw, ok := got[1].(string); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Revision{}, fmt.Errorf("reading revision for %s: counter %q is not an integer", resource, raw)
		}
		rev.Counter = n
	}
	return rev, nil
}

// Bump increments the resource's counter and returns the new value.
func (s *Store) Bump(ctx context.Context, resource string) (int64, error) {
	n, err := s.client.HIncrBy(ctx, s.key, field(resource), 1).Result()
	if err != nil {
		return 0, fmt.Errorf("bumping revision for %s: %w", resource, err)
	}
	return n, nil
}
