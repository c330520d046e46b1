package api

import (
	"net/http"

	"github.com/neexbeast/tour-packages/internal/revision"
	"github.com/neexbeast/tour-packages/internal/tour"
)

// ListTourPackages handles GET /api/tour-packages.
func (h *Handlers) ListTourPackages(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r, revision.TourPackages) {
		return
	}

	list, err := h.packages.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch tour packages")
		return
	}
	writeData(w, http.StatusOK, list)
}

// GetTourPackage handles GET /api/tour-packages/{id}.
func (h *Handlers) GetTourPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "tour package")
	if !ok {
		return
	}
	if h.notModified(w, r, revision.TourPackages) {
		return
	}

	p, err := h.packages.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch tour package")
		return
	}
	writeData(w, http.StatusOK, p)
}

// ListTourPackagesByDestinationType handles GET /api/tour-packages/destination-type/{destinationTypeId}.
func (h *Handlers) ListTourPackagesByDestinationType(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(w, r, "destinationTypeId", "destination type")
	if !ok {
		return
	}
	if h.notModified(w, r, revision.TourPackages) {
		return
	}

	list, err := h.packages.ListByDestinationType(r.Context(), typeID)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch tour packages")
		return
	}
	writeData(w, http.StatusOK, list)
}

// AveragePrice handles GET /api/tour-packages/destination-type/{destinationTypeId}/average-price.
func (h *Handlers) AveragePrice(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(w, r, "destinationTypeId", "destination type")
	if !ok {
		return
	}
	if h.notModified(w, r, revision.TourPackages) {
		return
	}

	avg, err := h.packages.AveragePrice(r.Context(), typeID)
	if err != nil {
		h.writeError(w, r, err, "Failed to calculate average price")
		return
	}
	writeData(w, http.StatusOK, avg)
}

// CreateTourPackage handles POST /api/tour-packages.
func (h *Handlers) CreateTourPackage(w http.ResponseWriter, r *http.Request) {
	var in tour.NewTourPackage
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.packages.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, "Failed to create tour package")
		return
	}

	h.bump(r.Context(), revision.TourPackages)
	writeData(w, http.StatusCreated, p)
}

// UpdateTourPackage handles PUT /api/tour-packages/{id}.
func (h *Handlers) UpdateTourPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "tour package")
	if !ok {
		return
	}

	var patch tour.TourPackagePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.packages.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err, "Failed to update tour package")
		return
	}

	if !patch.Empty() {
		h.bump(r.Context(), revision.TourPackages)
	}
	writeData(w, http.StatusOK, p)
}

// DeleteTourPackage handles DELETE /api/tour-packages/{id}.
func (h *Handlers) DeleteTourPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "tour package")
	if !ok {
		return
	}

	if err := h.packages.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, "Failed to delete tour package")
		return
	}

	h.bump(r.Context(), revision.TourPackages)
	writeMessage(w, http.StatusOK, "Tour package deleted successfully")
}
