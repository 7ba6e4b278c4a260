package domain

import "errors"

var (
	// ErrNotFound indicates that no listing matched the requested identifier.
	ErrNotFound = errors.New("listing not found")
	// ErrForbidden indicates that the requester is not the listing's seller.
	ErrForbidden = errors.New("only the seller can delete this listing")
	// ErrInvalidCategory indicates a product category outside the supported set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrInvalidSaleType indicates a sale type outside the supported set.
	ErrInvalidSaleType = errors.New("invalid sale type")
	// ErrInvalidStatus indicates a lifecycle status outside the supported set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrMissingFields indicates that one or more required fields were absent.
	ErrMissingFields = errors.New("missing required fields")
	// ErrRepository indicates a generic data persistence error.
	ErrRepository = errors.New("repository error")
)
