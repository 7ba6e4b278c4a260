package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusListed.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.False(t, ListingStatus("Sold").IsValid())
	assert.False(t, ListingStatus("pending").IsValid())
	assert.False(t, ListingStatus("").IsValid())
}

func TestProductCategoryIsValid(t *testing.T) {
	assert.True(t, CategorySneakers.IsValid())
	assert.True(t, CategoryApparel.IsValid())
	assert.True(t, CategoryWatches.IsValid())
	assert.False(t, ProductCategory("Electronics").IsValid())
	assert.False(t, ProductCategory("sneakers").IsValid())
	assert.False(t, ProductCategory("").IsValid())
}

func TestSaleTypeIsValid(t *testing.T) {
	assert.True(t, SaleTypeRetail.IsValid())
	assert.True(t, SaleTypeResell.IsValid())
	assert.False(t, SaleType("Auction").IsValid())
	assert.False(t, SaleType("").IsValid())
}

func TestNewListing_Success(t *testing.T) {
	listing, err := NewListing(
		"Air Max 97", "Lightly worn, original box", CategorySneakers,
		250.0, []string{"https://cdn.example.com/airmax97.jpg"},
		"0xSellerWallet", SaleTypeResell,
	)
	require.NoError(t, err)
	require.NotNil(t, listing)

	assert.Equal(t, StatusPending, listing.Status, "new listings start in Pending")
	assert.Equal(t, int64(0), listing.ListingID, "id is assigned by the repository, not the constructor")
	assert.NotNil(t, listing.PurchaseHistory)
	assert.Empty(t, listing.PurchaseHistory)
	assert.Equal(t, "Air Max 97", listing.ProductName)
	assert.Equal(t, CategorySneakers, listing.ProductCategory)
	assert.Equal(t, SaleTypeResell, listing.SaleType)
}

func TestNewListing_ValidationOrder(t *testing.T) {
	// Category is checked first, then sale type, then required fields. A
	// request that fails multiple checks reports the earliest one.
	_, err := NewListing("", "", ProductCategory("Bags"), 0, nil, "", SaleType("Swap"))
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = NewListing("", "", CategoryApparel, 0, nil, "", SaleType("Swap"))
	assert.ErrorIs(t, err, ErrInvalidSaleType)

	_, err = NewListing("", "", CategoryApparel, 0, nil, "", SaleTypeRetail)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestNewListing_MissingFields(t *testing.T) {
	images := []string{"https://cdn.example.com/watch.jpg"}

	testCases := []struct {
		name        string
		productName string
		description string
		price       float64
		imageURLs   []string
		seller      string
	}{
		{"empty name", "", "desc", 100, images, "0xSeller"},
		{"empty description", "Submariner", "", 100, images, "0xSeller"},
		{"zero price", "Submariner", "desc", 0, images, "0xSeller"},
		{"no images", "Submariner", "desc", 100, nil, "0xSeller"},
		{"empty images", "Submariner", "desc", 100, []string{}, "0xSeller"},
		{"empty seller", "Submariner", "desc", 100, images, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewListing(tc.productName, tc.description, CategoryWatches, tc.price, tc.imageURLs, tc.seller, SaleTypeRetail)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestListingIsSoldBy(t *testing.T) {
	listing := &Listing{Seller: "0xAbCdEf0123456789"}

	assert.True(t, listing.IsSoldBy("0xAbCdEf0123456789"))
	assert.True(t, listing.IsSoldBy("0xABCDEF0123456789"), "wallet comparison is case-insensitive")
	assert.True(t, listing.IsSoldBy("0xabcdef0123456789"))
	assert.False(t, listing.IsSoldBy("0x0000000000000000"))
	assert.False(t, listing.IsSoldBy(""))
}

func TestUpdateCommandIsEmpty(t *testing.T) {
	assert.True(t, (&UpdateCommand{}).IsEmpty())

	status := StatusListed
	assert.False(t, (&UpdateCommand{Status: &status}).IsEmpty())
	assert.False(t, (&UpdateCommand{Purchase: &Purchase{Buyer: "0xBuyer"}}).IsEmpty())
}
