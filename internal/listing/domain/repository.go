package domain

import "context"

// UpdateCommand describes a single atomic document update: an optional status
// change and an optional purchase append. When both are present the store
// commits them together, so no reader ever observes one without the other.
type UpdateCommand struct {
	Status   *ListingStatus
	Purchase *Purchase
}

// IsEmpty reports whether the command carries no changes.
func (c UpdateCommand) IsEmpty() bool {
	return c.Status == nil && c.Purchase == nil
}

// ListingRepository is the persistence port for listings. The store is
// treated as an opaque document collection; per-document atomicity is the
// only consistency primitive the engine relies on.
type ListingRepository interface {
	// NextListingID atomically allocates the next sequential listing
	// identifier. Concurrent callers never receive the same value.
	NextListingID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, listingID int64) (*Listing, error)
	FindByStatus(ctx context.Context, status ListingStatus) ([]*Listing, error)
	FindByBuyer(ctx context.Context, buyer string) ([]*Listing, error)
	// FindByPurchaseTokenID locates the listing whose purchase history
	// contains a purchase with the given token id.
	FindByPurchaseTokenID(ctx context.Context, tokenID int64) (*Listing, error)
	// ApplyUpdate applies cmd to the listing in a single document update and
	// returns the post-update listing, or ErrNotFound.
	ApplyUpdate(ctx context.Context, listingID int64, cmd UpdateCommand) (*Listing, error)
	// Save persists the full document back to the store (read-modify-write).
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, listingID int64) error
}
