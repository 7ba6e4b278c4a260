package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/resellhub/listing-service/internal/listing/domain"

	"go.uber.org/zap"
)

var errorStatus = map[error]int{
	domain.ErrInvalidCategory: http.StatusBadRequest,
	domain.ErrInvalidSaleType: http.StatusBadRequest,
	domain.ErrMissingFields:   http.StatusBadRequest,
	domain.ErrInvalidStatus:   http.StatusBadRequest,
	domain.ErrNotFound:        http.StatusNotFound,
	domain.ErrForbidden:       http.StatusForbidden,
}

// errorMessage maps domain errors to the exact wire messages clients rely on.
var errorMessage = map[error]string{
	domain.ErrInvalidCategory: "Invalid category",
	domain.ErrInvalidSaleType: "Invalid sale type",
	domain.ErrMissingFields:   "Missing required fields",
	domain.ErrInvalidStatus:   "Invalid status",
	domain.ErrNotFound:        "Listing not found",
	domain.ErrForbidden:       "Only the seller can delete this listing",
}

func (h *ListingHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeDomainError classifies a lifecycle error into an HTTP status and JSON
// error body. Anything unrecognized is an internal error with the underlying
// message attached.
func (h *ListingHandler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for sentinel, status := range errorStatus {
		if errors.Is(err, sentinel) {
			h.writeError(w, r, status, errorMessage[sentinel])
			return
		}
	}

	h.logger.Error("Unhandled error during request", zap.String("path", r.URL.Path), zap.Error(err))
	h.countError(r, http.StatusInternalServerError)
	h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

func (h *ListingHandler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.countError(r, status)
	h.writeJSON(w, status, map[string]interface{}{"error": message})
}

func (h *ListingHandler) countError(r *http.Request, status int) {
	if h.metrics == nil {
		return
	}
	h.metrics.APIErrorsTotal.WithLabelValues(r.Method+" "+r.URL.Path, strconv.Itoa(status)).Inc()
}
