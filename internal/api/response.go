package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/neexbeast/tour-packages/internal/tour"
)

const maxBodyBytes = 1 << 20

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Success: true, Message: msg})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

// writeError maps a service error onto a status code. Anything that is not a
// known client error is logged and reported as 500 with fallback as message;
// the underlying error text is only exposed in development.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, tour.ErrValidation), errors.Is(err, tour.ErrInvalidArgument):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tour.ErrNotFound):
		writeFailure(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error(fallback,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		resp := errorResponse{Message: fallback}
		if h.exposeErrors {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// pathID parses a URL parameter as a row id, writing a 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request, param, entity string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID", entity))
		return 0, false
	}
	return id, true
}

// decodeJSON reads a JSON body into v. An empty body leaves v at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
