// Package catalog serves listing search, listing pages, host listing
// management, reviews and inquiries on top of a pluggable data source.
package catalog

import (
	"context"

	"github.com/yourorg/pg-finder/internal/listing"
)

type ListingRepository interface {
	ListListings(ctx context.Context) ([]listing.Listing, error)
	GetListing(ctx context.Context, id string) (listing.Listing, error)
	InsertListing(ctx context.Context, l listing.Listing) (listing.Listing, error)
	UpdateAvailability(ctx context.Context, ownerID, id string, available bool) (listing.Listing, error)
	DeleteListing(ctx context.Context, ownerID, id string) error
}

type ReviewRepository interface {
	ListReviews(ctx context.Context, listingID string) ([]listing.Review, error)
	InsertReview(ctx context.Context, r listing.Review) (listing.Review, error)
}

type InquiryRepository interface {
	InsertInquiry(ctx context.Context, q listing.Inquiry) (listing.Inquiry, error)
}

// Source is a data source backing all three repositories; both the backend
// client and the Postgres store satisfy it.
type Source interface {
	ListingRepository
	ReviewRepository
	InquiryRepository
}
