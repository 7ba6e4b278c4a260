package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/resellhub/listing-service/internal/platform/logger"
	"github.com/resellhub/listing-service/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the service's route table. Routes are declared
// statically, so the collection sub-route always wins over the generic
// {id} route without order-sensitive prefix checks.
func NewRouter(h *ListingHandler, log *logger.Logger, mm *metrics.MetricsManager) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(RequestLogger(log))
	mux.Use(CORS)
	mux.Use(Tracing)
	mux.Use(Metrics(mm))

	mux.Get("/api/ping", h.HandlePing)

	mux.Post("/api/listings", h.HandleCreateListing)
	mux.Get("/api/listings", h.HandleListActive)
	mux.Get("/api/listings/collection/{wallet}", h.HandleGetCollection)
	mux.Get("/api/listings/{id}", h.HandleGetListingByID)
	mux.Put("/api/listings/{id}", h.HandleUpdateListing)
	mux.Delete("/api/listings/{id}", h.HandleDeleteListing)

	mux.Post("/api/resale-purchases", h.HandleResalePurchase)

	mux.NotFound(routeNotFound)
	mux.MethodNotAllowed(routeNotFound)

	return mux
}

// routeNotFound answers every unmatched (path, method) pair.
func routeNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": "Route not found"})
}
