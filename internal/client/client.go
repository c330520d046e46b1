package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/tour-packages/internal/tour"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultStaleTime = 30 * time.Second
)

// Query key roots. Mutations invalidate everything under their root.
const (
	destinationsKey = "destinations"
	packagesKey     = "tour-packages"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Client is a typed client for the tour packages REST API. Reads are cached
// per query key; a cached result younger than the stale time is served
// without a request, an older one is revalidated with its ETag.
type Client struct {
	baseURL   string
	http      *http.Client
	cache     *QueryCache
	staleTime time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithStaleTime sets how long a cached result is used without revalidation.
// Zero revalidates on every read.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// WithLogger enables debug logging of requests.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock replaces time.Now (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New constructs a Client for an API rooted at baseURL, e.g. "http://localhost:3000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		cache:     NewQueryCache(),
		staleTime: defaultStaleTime,
		now:       time.Now,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the query cache, e.g. for manual invalidation.
func (c *Client) Cache() *QueryCache { return c.cache }

// ---- destinations ----

// Destinations lists all destination categories.
func (c *Client) Destinations(ctx context.Context) ([]*tour.Destination, error) {
	return query[[]*tour.Destination](ctx, c, []string{destinationsKey}, "/destinations")
}

// Destination fetches one category.
func (c *Client) Destination(ctx context.Context, id int64) (*tour.Destination, error) {
	return query[*tour.Destination](ctx, c, []string{destinationsKey, itoa(id)}, "/destinations/"+itoa(id))
}

// CreateDestination creates a category.
func (c *Client) CreateDestination(ctx context.Context, in tour.NewDestination) (*tour.Destination, error) {
	return mutate[*tour.Destination](ctx, c, http.MethodPost, "/destinations", in, destinationsKey)
}

// UpdateDestination applies a partial update.
func (c *Client) UpdateDestination(ctx context.Context, id int64, patch tour.DestinationPatch) (*tour.Destination, error) {
	return mutate[*tour.Destination](ctx, c, http.MethodPut, "/destinations/"+itoa(id), patch, destinationsKey)
}

// DeleteDestination removes a category.
func (c *Client) DeleteDestination(ctx context.Context, id int64) error {
	_, err := mutate[json.RawMessage](ctx, c, http.MethodDelete, "/destinations/"+itoa(id), nil, destinationsKey)
	return err
}

// ---- tour packages ----

// TourPackages lists all packages.
func (c *Client) TourPackages(ctx context.Context) ([]*tour.TourPackage, error) {
	return query[[]*tour.TourPackage](ctx, c, []string{packagesKey}, "/tour-packages")
}

// TourPackage fetches one package.
func (c *Client) TourPackage(ctx context.Context, id int64) (*tour.TourPackage, error) {
	return query[*tour.TourPackage](ctx, c, []string{packagesKey, itoa(id)}, "/tour-packages/"+itoa(id))
}

// TourPackagesByDestinationType lists the packages of one category.
func (c *Client) TourPackagesByDestinationType(ctx context.Context, destinationTypeID int64) ([]*tour.TourPackage, error) {
	return query[[]*tour.TourPackage](ctx, c,
		[]string{packagesKey, "destination-type", itoa(destinationTypeID)},
		"/tour-packages/destination-type/"+itoa(destinationTypeID))
}

// AveragePrice fetches the mean package price of one category.
func (c *Client) AveragePrice(ctx context.Context, destinationTypeID int64) (*tour.AveragePrice, error) {
	return query[*tour.AveragePrice](ctx, c,
		[]string{packagesKey, "average-price", itoa(destinationTypeID)},
		"/tour-packages/destination-type/"+itoa(destinationTypeID)+"/average-price")
}

// CreateTourPackage creates a package.
func (c *Client) CreateTourPackage(ctx context.Context, in tour.NewTourPackage) (*tour.TourPackage, error) {
	return mutate[*tour.TourPackage](ctx, c, http.MethodPost, "/tour-packages", in, packagesKey)
}

// UpdateTourPackage applies a partial update.
func (c *Client) UpdateTourPackage(ctx context.Context, id int64, patch tour.TourPackagePatch) (*tour.TourPackage, error) {
	return mutate[*tour.TourPackage](ctx, c, http.MethodPut, "/tour-packages/"+itoa(id), patch, packagesKey)
}

// DeleteTourPackage removes a package.
func (c *Client) DeleteTourPackage(ctx context.Context, id int64) error {
	_, err := mutate[json.RawMessage](ctx, c, http.MethodDelete, "/tour-packages/"+itoa(id), nil, packagesKey)
	return err
}

// ---- plumbing ----

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func query[T any](ctx context.Context, c *Client, key []string, path string) (T, error) {
	var zero T

	cached, hit := c.cache.get(key)
	if hit && c.now().Sub(cached.fetchedAt) < c.staleTime {
		return decodeData[T](cached.data)
	}
	gen := c.cache.generation(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return zero, fmt.Errorf("creating request for %s: %w", path, err)
	}
	if hit && cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, err := c.do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && hit {
		c.cache.touch(key, c.now())
		return decodeData[T](cached.data)
	}

	env, err := readEnvelope(resp)
	if err != nil {
		return zero, err
	}

	fresh := entry{key: key, data: env.Data, etag: resp.Header.Get("ETag"), fetchedAt: c.now()}
	if !c.cache.putIfCurrent(fresh, gen) {
		c.log.Debug("dropping result invalidated while in flight", "key", key)
	}
	return decodeData[T](env.Data)
}

func mutate[T any](ctx context.Context, c *Client, method, path string, body any, invalidate string) (T, error) {
	var zero T

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encoding request body for %s: %w", path, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return zero, fmt.Errorf("creating request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	env, err := readEnvelope(resp)
	if err != nil {
		return zero, err
	}

	c.cache.Invalidate(invalidate)

	if len(env.Data) == 0 {
		return zero, nil
	}
	return decodeData[T](env.Data)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	c.log.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", c.now().Sub(start),
	)
	return resp, nil
}

// readEnvelope decodes the response body, turning non-2xx statuses into *APIError.
func readEnvelope(resp *http.Response) (*envelope, error) {
	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Message != "" {
			apiErr.Message = env.Message
			apiErr.Detail = env.Error
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", resp.Request.URL.Path, decodeErr)
	}
	return &env, nil
}

func decodeData[T any](data json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decoding response data: %w", err)
	}
	return v, nil
}
