package domain

import (
	"strings"
	"time"
)

// --- Listing Status Enum ---

// ListingStatus represents the lifecycle state of a listing.
type ListingStatus string

const (
	StatusPending   ListingStatus = "Pending"
	StatusListed    ListingStatus = "Listed"
	StatusCancelled ListingStatus = "Cancelled"
)

// IsValid checks if the ListingStatus is one of the defined constants.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusListed, StatusCancelled:
		return true
	}
	return false
}

// --- Product Category Enum ---

// ProductCategory restricts listings to the supported product lines.
type ProductCategory string

const (
	CategorySneakers ProductCategory = "Sneakers"
	CategoryApparel  ProductCategory = "Apparel"
	CategoryWatches  ProductCategory = "Watches"
)

// IsValid checks if the ProductCategory is one of the defined constants.
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategorySneakers, CategoryApparel, CategoryWatches:
		return true
	}
	return false
}

// --- Sale Type Enum ---

// SaleType distinguishes primary retail listings from resell listings.
type SaleType string

const (
	SaleTypeRetail SaleType = "Retail"
	SaleTypeResell SaleType = "Resell"
)

// IsValid checks if the SaleType is one of the defined constants.
func (t SaleType) IsValid() bool {
	switch t {
	case SaleTypeRetail, SaleTypeResell:
		return true
	}
	return false
}

// --- Entities ---

// Purchase is one recorded transfer (primary sale or resale) attached to a
// listing's history. Purchases are append-only; insertion order is
// chronological order.
type Purchase struct {
	Buyer     string    `json:"buyer"`
	Price     float64   `json:"price"`
	TokenID   int64     `json:"tokenId"`
	Timestamp time.Time `json:"timestamp"`
}

// Listing is a seller's offer of a single product, with lifecycle status and
// accumulated purchase history.
// Note: all `bson` tags live on the repository's document type; the domain
// entity only carries the JSON shape served over HTTP.
type Listing struct {
	ListingID          int64           `json:"listingId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	ProductCategory    ProductCategory `json:"productCategory"`
	ImageURLs          []string        `json:"imageUrls"`
	Seller             string          `json:"seller"`
	Price              float64         `json:"price"`
	Status             ListingStatus   `json:"status"`
	SaleType           SaleType        `json:"saleType"`
	PurchaseHistory    []Purchase      `json:"purchaseHistory"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// NewListing validates the caller-supplied fields and constructs a Listing in
// its initial Pending state with an empty purchase history. The listing id is
// assigned later by the repository's allocator.
func NewListing(name, description string, category ProductCategory, price float64, imageURLs []string, seller string, saleType SaleType) (*Listing, error) {
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if !saleType.IsValid() {
		return nil, ErrInvalidSaleType
	}
	if name == "" || description == "" || price == 0 || len(imageURLs) == 0 || seller == "" {
		return nil, ErrMissingFields
	}
	return &Listing{
		ProductName:        name,
		ProductDescription: description,
		ProductCategory:    category,
		ImageURLs:          imageURLs,
		Seller:             seller,
		Price:              price,
		Status:             StatusPending,
		SaleType:           saleType,
		PurchaseHistory:    []Purchase{},
	}, nil
}

// IsSoldBy reports whether the requester is the listing's seller. Seller
// identity strings are opaque wallet addresses and compare case-insensitively.
func (l *Listing) IsSoldBy(seller string) bool {
	return strings.EqualFold(l.Seller, seller)
}
