package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/resellhub/listing-service/internal/listing/domain"
	"github.com/resellhub/listing-service/internal/platform/logger"
	"github.com/resellhub/listing-service/internal/port/cache"

	"go.uber.org/zap"
)

// EventPublisher publishes listing lifecycle events. Publishing is
// best-effort: a failed publish never fails the request.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Subjects for lifecycle events mirrored from the messaging adapter to keep
// the usecase free of transport imports.
const (
	listingCreatedSubject   = "listing.created"
	listingUpdatedSubject   = "listing.updated"
	listingDeletedSubject   = "listing.deleted"
	purchaseRecordedSubject = "listing.purchase_recorded"
)

func listingCacheKey(listingID int64) string {
	return fmt.Sprintf("listing:%d", listingID)
}

const listingCacheTTL = 5 * time.Minute

// ListingUsecase implements the listing lifecycle: create, list, get, update
// (status change and/or purchase append), delete, resale purchases, and
// collection queries. Each operation is validation plus store calls; the
// usecase holds no mutable state between requests.
type ListingUsecase struct {
	repo      domain.ListingRepository
	publisher EventPublisher
	cacheRepo cache.CacheRepository
	logger    *logger.Logger
}

// NewListingUsecase creates a new ListingUsecase. Publisher and cache are
// optional; nil disables the corresponding side effects.
func NewListingUsecase(repo domain.ListingRepository, pub EventPublisher, cr cache.CacheRepository, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:      repo,
		publisher: pub,
		cacheRepo: cr,
		logger:    log.Named("ListingUsecase"),
	}
}

// CreateListingInput holds the caller-supplied fields for a new listing.
type CreateListingInput struct {
	ProductName        string
	ProductDescription string
	ProductCategory    string
	Price              float64
	ImageURLs          []string
	Seller             string
	SaleType           string
}

// CreateListing validates the input, allocates the next listing identifier
// and persists a Pending listing with an empty purchase history.
func (uc *ListingUsecase) CreateListing(ctx context.Context, input CreateListingInput) (*domain.Listing, error) {
	uc.logger.Info("Creating listing",
		zap.String("product_name", input.ProductName),
		zap.String("category", input.ProductCategory),
		zap.String("seller", input.Seller))

	listing, err := domain.NewListing(
		input.ProductName,
		input.ProductDescription,
		domain.ProductCategory(input.ProductCategory),
		input.Price,
		input.ImageURLs,
		input.Seller,
		domain.SaleType(input.SaleType),
	)
	if err != nil {
		uc.logger.Warn("Listing validation failed", zap.Error(err))
		return nil, err
	}

	id, err := uc.repo.NextListingID(ctx)
	if err != nil {
		uc.logger.Error("Failed to allocate listing id", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	listing.ListingID = id

	if err := uc.repo.Insert(ctx, listing); err != nil {
		uc.logger.Error("Failed to insert listing", zap.Int64("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	uc.fillCache(ctx, listing)
	uc.publish(ctx, listingCreatedSubject, map[string]interface{}{
		"listing_id": listing.ListingID,
		"seller":     listing.Seller,
		"category":   listing.ProductCategory,
		"sale_type":  listing.SaleType,
		"created_at": listing.CreatedAt.Format(time.RFC3339Nano),
	})

	uc.logger.Info("Listing created", zap.Int64("listing_id", listing.ListingID))
	return listing, nil
}

// ListActive returns every listing whose status is Listed.
func (uc *ListingUsecase) ListActive(ctx context.Context) ([]*domain.Listing, error) {
	listings, err := uc.repo.FindByStatus(ctx, domain.StatusListed)
	if err != nil {
		uc.logger.Error("Failed to list active listings", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return listings, nil
}

// GetByID returns the listing with the given identifier, reading through the
// cache when one is configured.
func (uc *ListingUsecase) GetByID(ctx context.Context, listingID int64) (*domain.Listing, error) {
	if uc.cacheRepo != nil {
		key := listingCacheKey(listingID)
		if cached, err := uc.cacheRepo.Get(ctx, key); err == nil {
			var listing domain.Listing
			if err := json.Unmarshal(cached, &listing); err == nil {
				uc.logger.Debug("Listing fetched from cache", zap.String("key", key))
				return &listing, nil
			}
			uc.logger.Warn("Failed to unmarshal cached listing, evicting", zap.String("key", key))
			if delErr := uc.cacheRepo.Delete(ctx, key); delErr != nil {
				uc.logger.Warn("Failed to evict corrupted cache entry", zap.String("key", key), zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		}
	}

	listing, err := uc.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		uc.logger.Error("Failed to get listing", zap.Int64("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	uc.fillCache(ctx, listing)
	return listing, nil
}

// UpdateListingInput carries the optional fields of an update request. A
// purchase is appended only when buyer, price and token id are all present.
type UpdateListingInput struct {
	Status  string
	Buyer   string
	Price   *float64
	TokenID *int64
}

// UpdateListing applies a status change and/or purchase append as one atomic
// document update and returns the post-update listing. Status transitions are
// unconstrained: Pending, Listed and Cancelled are mutually reachable.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, listingID int64, input UpdateListingInput) (*domain.Listing, error) {
	uc.logger.Info("Updating listing",
		zap.Int64("listing_id", listingID),
		zap.String("status", input.Status),
		zap.Bool("has_purchase", input.Buyer != "" && input.Price != nil && input.TokenID != nil))

	var cmd domain.UpdateCommand
	if input.Status != "" {
		status := domain.ListingStatus(input.Status)
		if !status.IsValid() {
			return nil, domain.ErrInvalidStatus
		}
		cmd.Status = &status
	}
	if input.Buyer != "" && input.Price != nil && input.TokenID != nil {
		cmd.Purchase = &domain.Purchase{
			Buyer:     input.Buyer,
			Price:     *input.Price,
			TokenID:   *input.TokenID,
			Timestamp: time.Now().UTC(),
		}
	}

	listing, err := uc.repo.ApplyUpdate(ctx, listingID, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		uc.logger.Error("Failed to update listing", zap.Int64("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	uc.fillCache(ctx, listing)
	uc.publish(ctx, listingUpdatedSubject, map[string]interface{}{
		"listing_id": listing.ListingID,
		"status":     listing.Status,
		"purchases":  len(listing.PurchaseHistory),
	})
	return listing, nil
}

// DeleteListing physically removes a listing. Only the original seller may
// delete, compared case-insensitively.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, listingID int64, requesterSeller string) error {
	uc.logger.Info("Deleting listing", zap.Int64("listing_id", listingID), zap.String("requester", requesterSeller))

	listing, err := uc.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		uc.logger.Error("Failed to find listing for delete", zap.Int64("listing_id", listingID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	if !listing.IsSoldBy(requesterSeller) {
		uc.logger.Warn("Forbidden delete attempt",
			zap.Int64("listing_id", listingID),
			zap.String("owner", listing.Seller),
			zap.String("requester", requesterSeller))
		return domain.ErrForbidden
	}

	if err := uc.repo.Delete(ctx, listingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		uc.logger.Error("Failed to delete listing", zap.Int64("listing_id", listingID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	uc.evictCache(ctx, listingID)
	uc.publish(ctx, listingDeletedSubject, map[string]interface{}{
		"listing_id": listingID,
	})
	return nil
}

// ResalePurchaseInput carries a secondary-market transaction correlated to a
// prior purchase via its token id.
type ResalePurchaseInput struct {
	Buyer   string
	Price   float64
	TokenID int64
}

// RecordResalePurchase locates the listing whose purchase history contains
// the given token id and appends a new purchase. The token id is only a
// correlation key within one listing's history; the lookup assumes it is not
// reused across listings.
func (uc *ListingUsecase) RecordResalePurchase(ctx context.Context, input ResalePurchaseInput) error {
	uc.logger.Info("Recording resale purchase",
		zap.Int64("token_id", input.TokenID),
		zap.String("buyer", input.Buyer))

	listing, err := uc.repo.FindByPurchaseTokenID(ctx, input.TokenID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		uc.logger.Error("Failed to find listing by token id", zap.Int64("token_id", input.TokenID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	listing.PurchaseHistory = append(listing.PurchaseHistory, domain.Purchase{
		Buyer:     input.Buyer,
		Price:     input.Price,
		TokenID:   input.TokenID,
		Timestamp: time.Now().UTC(),
	})

	if err := uc.repo.Save(ctx, listing); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		uc.logger.Error("Failed to save resale purchase", zap.Int64("listing_id", listing.ListingID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}

	uc.fillCache(ctx, listing)
	uc.publish(ctx, purchaseRecordedSubject, map[string]interface{}{
		"listing_id": listing.ListingID,
		"buyer":      input.Buyer,
		"token_id":   input.TokenID,
	})
	return nil
}

// GetCollectionForBuyer returns every listing containing at least one
// purchase by the given wallet, regardless of listing status.
func (uc *ListingUsecase) GetCollectionForBuyer(ctx context.Context, wallet string) ([]*domain.Listing, error) {
	listings, err := uc.repo.FindByBuyer(ctx, wallet)
	if err != nil {
		uc.logger.Error("Failed to get collection for buyer", zap.String("wallet", wallet), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRepository, err)
	}
	return listings, nil
}

func (uc *ListingUsecase) fillCache(ctx context.Context, listing *domain.Listing) {
	if uc.cacheRepo == nil {
		return
	}
	payload, err := json.Marshal(listing)
	if err != nil {
		uc.logger.Warn("Failed to marshal listing for caching", zap.Int64("listing_id", listing.ListingID), zap.Error(err))
		return
	}
	key := listingCacheKey(listing.ListingID)
	if err := uc.cacheRepo.Set(ctx, key, payload, listingCacheTTL); err != nil {
		uc.logger.Warn("Failed to cache listing", zap.String("key", key), zap.Error(err))
	}
}

func (uc *ListingUsecase) evictCache(ctx context.Context, listingID int64) {
	if uc.cacheRepo == nil {
		return
	}
	key := listingCacheKey(listingID)
	if err := uc.cacheRepo.Delete(ctx, key); err != nil {
		uc.logger.Warn("Failed to evict listing from cache", zap.String("key", key), zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, data interface{}) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, subject, data); err != nil {
		uc.logger.Warn("Failed to publish lifecycle event", zap.String("subject", subject), zap.Error(err))
	}
}
