package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/tour"
)

// Version is reported by the root info endpoint.
const Version = "1.0.0"

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	destinations DestinationService
	packages     TourPackageService
	revisions    RevisionStore
	log          *slog.Logger
	exposeErrors bool
}

// NewHandlers constructs Handlers with all required dependencies. revisions
// may be nil, in which case responses carry no ETag. exposeErrors controls
// whether 500 responses include the underlying error text.
func NewHandlers(destinations DestinationService, packages TourPackageService, revisions RevisionStore, log *slog.Logger, exposeErrors bool) *Handlers {
	return &Handlers{
		destinations: destinations,
		packages:     packages,
		revisions:    revisions,
		log:          log,
		exposeErrors: exposeErrors,
	}
}

// ETag formats the weak entity tag of a resource collection. It covers the
// revision counter with its epoch and the table version, so writes that never
// went through a handler and counters reset by Redis both change the tag.
func ETag(resource string, rev revision.Revision, v tour.Version) string {
	d := xxhash.New()
	_, _ = d.WriteString(rev.Epoch)
	_, _ = fmt.Fprintf(d, "|%d|%d|%d", rev.Counter, v.Rows, v.LastModified.UnixNano())
	return fmt.Sprintf(`W/"%s-%d-%016x"`, resource, rev.Counter, d.Sum64())
}

// notModified sets the resource's ETag and, when the request's If-None-Match
// already names it, answers 304 and reports true. Lookup failures are logged
// and the request is served normally without an ETag.
func (h *Handlers) notModified(w http.ResponseWriter, r *http.Request, resource string) bool {
	tag, ok := h.etag(r.Context(), resource)
	if !ok {
		return false
	}

	w.Header().Set("ETag", tag)

	if etagMatches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handlers) etag(ctx context.Context, resource string) (string, bool) {
	if h.revisions == nil {
		return "", false
	}

	rev, err := h.revisions.Current(ctx, resource)
	if err != nil {
		h.log.Warn("revision lookup failed", "resource", resource, "err", err)
		return "", false
	}

	var v tour.Version
	switch resource {
	case revision.Destinations:
		v, err = h.destinations.Version(ctx)
	case revision.TourPackages:
		v, err = h.packages.Version(ctx)
	default:
		err = fmt.Errorf("unknown resource %q", resource)
	}
	if err != nil {
		h.log.Warn("table version lookup failed", "resource", resource, "err", err)
		return "", false
	}

	return ETag(resource, rev, v), true
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// bump records a successful mutation of resource.
func (h *Handlers) bump(ctx context.Context, resource string) {
	if h.revisions == nil {
		return
	}
	if _, err := h.revisions.Bump(ctx, resource); err != nil {
		h.log.Warn("revision bump failed", "resource", resource, "err", err)
	}
}

// Root handles GET / with basic service information.
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Tour Packages API",
		"version": Version,
		"status":  "running",
	})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers known routes hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
func HealthHandlerFunc(db, redis Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
