package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resellhub/listing-service/internal/listing/domain"
	"github.com/resellhub/listing-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const listingCollectionName = "listings"

// ListingRepository implements domain.ListingRepository using MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	counters   *counterAllocator
	logger     *logger.Logger
}

// NewListingRepository creates a new MongoDB listing repository and ensures
// the collection's indexes. The unique index on listingId is the backstop for
// the identifier allocator.
func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "listingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},                 // active listings query
		{Keys: bson.D{{Key: "purchaseHistory.buyer", Value: 1}}},  // collection-by-wallet query
		{Keys: bson.D{{Key: "purchaseHistory.tokenId", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
		// Indexes might already exist or be managed externally; don't fail startup.
	} else {
		log.Info("Successfully ensured indexes for listings collection")
	}

	counters, err := newCounterAllocator(ctx, db, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize listing id allocator: %w", err)
	}

	return &ListingRepository{
		collection: collection,
		counters:   counters,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// NextListingID atomically allocates the next sequential listing identifier.
func (r *ListingRepository) NextListingID(ctx context.Context) (int64, error) {
	id, err := r.counters.next(ctx)
	if err != nil {
		r.logger.Error("Failed to allocate listing id", zap.Error(err))
		return 0, fmt.Errorf("allocate listing id: %w", err)
	}
	return id, nil
}

// Insert persists a new listing, stamping createdAt/updatedAt.
func (r *ListingRepository) Insert(ctx context.Context, listing *domain.Listing) error {
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, fromDomainListing(listing)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Allocator guarantees unique ids; a duplicate here means the
			// counter document was tampered with out of band.
			r.logger.Error("Duplicate listingId on insert", zap.Int64("listing_id", listing.ListingID), zap.Error(err))
		}
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Listing created in DB", zap.Int64("listing_id", listing.ListingID))
	return nil
}

// FindByID retrieves a listing by its listingId.
func (r *ListingRepository) FindByID(ctx context.Context, listingID int64) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"listingId": listingID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get listing by id from DB", zap.Int64("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainListing(), nil
}

// FindByStatus retrieves every listing in the given lifecycle status.
func (r *ListingRepository) FindByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error) {
	return r.findAll(ctx, bson.M{"status": string(status)})
}

// FindByBuyer retrieves every listing with at least one purchase by the given
// buyer wallet, regardless of listing status.
func (r *ListingRepository) FindByBuyer(ctx context.Context, buyer string) ([]*domain.Listing, error) {
	return r.findAll(ctx, bson.M{"purchaseHistory.buyer": buyer})
}

// FindByPurchaseTokenID locates the listing whose purchase history contains a
// purchase with the given token id.
func (r *ListingRepository) FindByPurchaseTokenID(ctx context.Context, tokenID int64) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"purchaseHistory.tokenId": tokenID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to find listing by purchase token id", zap.Int64("token_id", tokenID), zap.Error(err))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainListing(), nil
}

// ApplyUpdate applies a status change and/or purchase append to one listing
// in a single document update, so both land together or not at all. Returns
// the post-update listing.
func (r *ListingRepository) ApplyUpdate(ctx context.Context, listingID int64, cmd domain.UpdateCommand) (*domain.Listing, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if cmd.Status != nil {
		set["status"] = string(*cmd.Status)
	}
	update := bson.M{"$set": set}
	if cmd.Purchase != nil {
		update["$push"] = bson.M{"purchaseHistory": purchaseDocument(*cmd.Purchase)}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"listingId": listingID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to update listing in DB", zap.Int64("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("db findoneandupdate failed: %w", err)
	}
	r.logger.Info("Listing updated in DB",
		zap.Int64("listing_id", listingID),
		zap.Bool("status_changed", cmd.Status != nil),
		zap.Bool("purchase_appended", cmd.Purchase != nil))
	return doc.toDomainListing(), nil
}

// Save persists the full document back to the store, stamping updatedAt.
func (r *ListingRepository) Save(ctx context.Context, listing *domain.Listing) error {
	listing.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"listingId": listing.ListingID}, fromDomainListing(listing))
	if err != nil {
		r.logger.Error("Failed to save listing in DB", zap.Int64("listing_id", listing.ListingID), zap.Error(err))
		return fmt.Errorf("db replace failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete physically removes the listing from the store.
func (r *ListingRepository) Delete(ctx context.Context, listingID int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"listingId": listingID})
	if err != nil {
		r.logger.Error("Failed to delete listing from DB", zap.Int64("listing_id", listingID), zap.Error(err))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("Listing deleted from DB", zap.Int64("listing_id", listingID))
	return nil
}

func (r *ListingRepository) findAll(ctx context.Context, filter bson.M) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to query listings from DB", zap.Any("filter", filter), zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor decode failed: %w", err)
	}

	listings := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		listings = append(listings, docs[i].toDomainListing())
	}
	return listings, nil
}
