package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/resellhub/listing-service/internal/listing/domain"
	"github.com/resellhub/listing-service/internal/listing/usecase"
	"github.com/resellhub/listing-service/internal/platform/logger"
	"github.com/resellhub/listing-service/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ListingService is the slice of the lifecycle engine the HTTP layer needs.
type ListingService interface {
	CreateListing(ctx context.Context, input usecase.CreateListingInput) (*domain.Listing, error)
	ListActive(ctx context.Context) ([]*domain.Listing, error)
	GetByID(ctx context.Context, listingID int64) (*domain.Listing, error)
	UpdateListing(ctx context.Context, listingID int64, input usecase.UpdateListingInput) (*domain.Listing, error)
	DeleteListing(ctx context.Context, listingID int64, requesterSeller string) error
	RecordResalePurchase(ctx context.Context, input usecase.ResalePurchaseInput) error
	GetCollectionForBuyer(ctx context.Context, wallet string) ([]*domain.Listing, error)
}

// ListingHandler translates HTTP requests into lifecycle operations. It does
// no domain validation beyond extracting and integer-parsing path parameters.
type ListingHandler struct {
	service ListingService
	logger  *logger.Logger
	metrics *metrics.MetricsManager
}

// NewListingHandler creates a new HTTP handler for listings. Metrics may be
// nil when the metrics server is disabled.
func NewListingHandler(service ListingService, log *logger.Logger, mm *metrics.MetricsManager) *ListingHandler {
	return &ListingHandler{
		service: service,
		logger:  log.Named("ListingHandler"),
		metrics: mm,
	}
}

type createListingRequest struct {
	ProductName        string   `json:"productName"`
	ProductDescription string   `json:"productDescription"`
	ProductCategory    string   `json:"productCategory"`
	Price              float64  `json:"price"`
	ImageURLs          []string `json:"imageUrls"`
	Seller             string   `json:"seller"`
	SaleType           string   `json:"saleType"`
}

type updateListingRequest struct {
	Status  string   `json:"status"`
	Buyer   string   `json:"buyer"`
	Price   *float64 `json:"price"`
	TokenID *int64   `json:"tokenId"`
}

type deleteListingRequest struct {
	Seller string `json:"seller"`
}

type resalePurchaseRequest struct {
	ListingID int64   `json:"listingId"`
	Buyer     string  `json:"buyer"`
	Price     float64 `json:"price"`
	TokenID   int64   `json:"tokenId"`
}

// HandlePing responds to health checks.
func (h *ListingHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// HandleCreateListing creates a pending listing.
func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateListing", zap.Error(err))
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	listing, err := h.service.CreateListing(r.Context(), usecase.CreateListingInput{
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		ProductCategory:    req.ProductCategory,
		Price:              req.Price,
		ImageURLs:          req.ImageURLs,
		Seller:             req.Seller,
		SaleType:           req.SaleType,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ListingsCreatedTotal.Inc()
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"listingId": listing.ListingID,
		"message":   "Pending listing created",
	})
}

// HandleListActive returns all listings in Listed status.
func (h *ListingHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListActive(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listings)
}

// HandleGetListingByID returns one listing by its identifier.
func (h *ListingHandler) HandleGetListingByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingIDParam(w, r)
	if !ok {
		return
	}
	listing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// HandleUpdateListing applies a status change and/or purchase append.
func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingIDParam(w, r)
	if !ok {
		return
	}
	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for UpdateListing", zap.Int64("listing_id", id), zap.Error(err))
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), id, usecase.UpdateListingInput{
		Status:  req.Status,
		Buyer:   req.Buyer,
		Price:   req.Price,
		TokenID: req.TokenID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ListingUpdatesTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Listing updated",
		"listing": listing,
	})
}

// HandleDeleteListing removes a listing on behalf of its seller.
func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingIDParam(w, r)
	if !ok {
		return
	}
	var req deleteListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Seller == "" {
		h.writeError(w, r, http.StatusBadRequest, "Seller address is required")
		return
	}

	if err := h.service.DeleteListing(r.Context(), id, req.Seller); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ListingDeletesTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Listing deleted successfully",
	})
}

// HandleGetCollection returns every listing with a purchase by the wallet.
func (h *ListingHandler) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	listings, err := h.service.GetCollectionForBuyer(r.Context(), wallet)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listings)
}

// HandleResalePurchase records a secondary-market purchase against the
// listing holding the referenced token.
func (h *ListingHandler) HandleResalePurchase(w http.ResponseWriter, r *http.Request) {
	var req resalePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ListingID == 0 || req.Buyer == "" || req.Price == 0 || req.TokenID == 0 {
		h.writeError(w, r, http.StatusBadRequest, "Missing required fields")
		return
	}

	err := h.service.RecordResalePurchase(r.Context(), usecase.ResalePurchaseInput{
		Buyer:   req.Buyer,
		Price:   req.Price,
		TokenID: req.TokenID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PurchasesRecordedTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Resale purchase recorded",
	})
}

// listingIDParam extracts and parses the {id} path parameter. An unparseable
// id can't match any listing, so it reports not found rather than bad input.
func (h *ListingHandler) listingIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "Listing not found")
		return 0, false
	}
	return id, true
}
