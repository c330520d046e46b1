package api

import (
	"net/http"

	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/tour"
)

// ListDestinations handles GET /api/destinations.
func (h *Handlers) ListDestinations(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r, revision.Destinations) {
		return
	}

	list, err := h.destinations.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch destinations")
		return
	}
	writeData(w, http.StatusOK, list)
}

// GetDestination handles GET /api/destinations/{id}.
func (h *Handlers) GetDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "destination")
	if !ok {
		return
	}
	if h.notModified(w, r, revision.Destinations) {
		return
	}

	d, err := h.destinations.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch destination")
		return
	}
	writeData(w, http.StatusOK, d)
}

// CreateDestination handles POST /api/destinations.
func (h *Handlers) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var in tour.NewDestination
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := h.destinations.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, "Failed to create destination")
		return
	}

	h.bump(r.Context(), revision.Destinations)
	writeData(w, http.StatusCreated, d)
}

// UpdateDestination handles PUT /api/destinations/{id}. Only fields present
// in the body are changed.
func (h *Handlers) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "destination")
	if !ok {
		return
	}

	var patch tour.DestinationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := h.destinations.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err, "Failed to update destination")
		return
	}

	if !patch.Empty() {
		h.bump(r.Context(), revision.Destinations)
	}
	writeData(w, http.StatusOK, d)
}

// DeleteDestination handles DELETE /api/destinations/{id}.
func (h *Handlers) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "destination")
	if !ok {
		return
	}

	if err := h.destinations.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, "Failed to delete destination")
		return
	}

	h.bump(r.Context(), revision.Destinations)
	writeMessage(w, http.StatusOK, "Destination deleted successfully")
}
