package mongodb

import (
	"time"

	"github.com/resellhub/listing-service/internal/listing/domain"
)

// listingDocument is the persisted shape of a listing. Field names match the
// wire format exactly so existing data sets remain readable.
type listingDocument struct {
	ListingID          int64              `bson:"listingId"`
	ProductName        string             `bson:"productName"`
	ProductDescription string             `bson:"productDescription"`
	ProductCategory    string             `bson:"productCategory"`
	ImageURLs          []string           `bson:"imageUrls"`
	Seller             string             `bson:"seller"`
	Price              float64            `bson:"price"`
	Status             string             `bson:"status"`
	SaleType           string             `bson:"saleType"`
	PurchaseHistory    []purchaseDocument `bson:"purchaseHistory"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
}

type purchaseDocument struct {
	Buyer     string    `bson:"buyer"`
	Price     float64   `bson:"price"`
	TokenID   int64     `bson:"tokenId"`
	Timestamp time.Time `bson:"timestamp"`
}

func fromDomainListing(l *domain.Listing) *listingDocument {
	history := make([]purchaseDocument, 0, len(l.PurchaseHistory))
	for _, p := range l.PurchaseHistory {
		history = append(history, purchaseDocument(p))
	}
	return &listingDocument{
		ListingID:          l.ListingID,
		ProductName:        l.ProductName,
		ProductDescription: l.ProductDescription,
		ProductCategory:    string(l.ProductCategory),
		ImageURLs:          l.ImageURLs,
		Seller:             l.Seller,
		Price:              l.Price,
		Status:             string(l.Status),
		SaleType:           string(l.SaleType),
		PurchaseHistory:    history,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func (d *listingDocument) toDomainListing() *domain.Listing {
	history := make([]domain.Purchase, 0, len(d.PurchaseHistory))
	for _, p := range d.PurchaseHistory {
		history = append(history, domain.Purchase(p))
	}
	return &domain.Listing{
		ListingID:          d.ListingID,
		ProductName:        d.ProductName,
		ProductDescription: d.ProductDescription,
		ProductCategory:    domain.ProductCategory(d.ProductCategory),
		ImageURLs:          d.ImageURLs,
		Seller:             d.Seller,
		Price:              d.Price,
		Status:             domain.ListingStatus(d.Status),
		SaleType:           domain.SaleType(d.SaleType),
		PurchaseHistory:    history,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}
