package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/canon"
	"github.com/yourorg/pg-finder/internal/events"
	"github.com/yourorg/pg-finder/internal/listing"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/metrics"
)

type Deps struct {
	Listings  ListingRepository
	Reviews   ReviewRepository
	Inquiries InquiryRepository
	Publisher events.Publisher
	Logger    logger.Logger
}

type Service struct {
	listings  ListingRepository
	reviews   ReviewRepository
	inquiries InquiryRepository
	pub       events.Publisher
	log       logger.Logger
	validate  *validator.Validate
}

func NewService(d Deps) *Service {
	pub := d.Publisher
	if pub == nil {
		pub = events.Discard
	}
	log := d.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		listings:  d.Listings,
		reviews:   d.Reviews,
		inquiries: d.Inquiries,
		pub:       pub,
		log:       log,
		validate:  newValidator(),
	}
}

// Result is one search: the applied criteria, the matches in display order and
// the size of the snapshot they were picked from.
type Result struct {
	Criteria listing.Criteria  `json:"criteria"`
	Listings []listing.Listing `json:"listings"`
	Scanned  int               `json:"scanned"`
}

// Search fetches a fresh snapshot and runs the filter/sort engine over it.
// An empty match set is a successful result.
func (s *Service) Search(ctx context.Context, c listing.Criteria) (Result, error) {
	c = c.Sanitize()
	all, err := s.listings.ListListings(ctx)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(string(c.Sort), "error").Inc()
		s.log.WithError(err).Error("listings fetch failed", nil)
		return Result{Criteria: c, Listings: []listing.Listing{}}, apperr.NewListingsFetchFailedError(err)
	}
	out := listing.Apply(all, c)
	metrics.SearchRequests.WithLabelValues(string(c.Sort), "ok").Inc()
	metrics.SearchResults.Observe(float64(len(out)))
	return Result{Criteria: c, Listings: out, Scanned: len(all)}, nil
}

// Detail is everything a listing page shows.
type Detail struct {
	Listing listing.Listing       `json:"listing"`
	Reviews []listing.Review      `json:"reviews"`
	Summary listing.ReviewSummary `json:"review_summary"`
}

// Get loads a listing with its reviews. A failed review fetch still returns
// the listing, with an empty review list.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	l, err := s.getListing(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	reviews, err := s.reviews.ListReviews(ctx, id)
	if err != nil {
		s.log.WithError(err).Warn("reviews fetch failed, rendering without reviews", map[string]interface{}{"listingId": id})
		reviews = []listing.Review{}
	}
	return Detail{Listing: l, Reviews: reviews, Summary: listing.Summarize(reviews)}, nil
}

func (s *Service) getListing(ctx context.Context, id string) (listing.Listing, error) {
	l, err := s.listings.GetListing(ctx, id)
	if errors.Is(err, listing.ErrNotFound) {
		return l, apperr.NewNotFoundError("listing " + id)
	}
	if err != nil {
		return l, apperr.NewListingsFetchFailedError(err)
	}
	return l, nil
}

// ListByIDs returns the listings whose ids appear in ids, in the order of ids.
// Unknown ids are skipped.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]listing.Listing, error) {
	out := []listing.Listing{}
	if len(ids) == 0 {
		return out, nil
	}
	all, err := s.listings.ListListings(ctx)
	if err != nil {
		return out, apperr.NewListingsFetchFailedError(err)
	}
	byID := make(map[string]listing.Listing, len(all))
	for _, l := range all {
		byID[l.ID] = l
	}
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListByOwner returns a host's own listings, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]listing.Listing, error) {
	all, err := s.listings.ListListings(ctx)
	if err != nil {
		return []listing.Listing{}, apperr.NewListingsFetchFailedError(err)
	}
	mine := []listing.Listing{}
	for _, l := range all {
		if l.OwnerID == ownerID {
			mine = append(mine, l)
		}
	}
	return listing.Apply(mine, listing.Criteria{
		PriceMin: 0,
		PriceMax: maxPrice(mine),
		Gender:   listing.GenderAny,
		Sort:     listing.SortNewest,
		Sharing:  listing.SharingAny,
	}), nil
}

func maxPrice(ls []listing.Listing) float64 {
	m := listing.DefaultPriceMax
	for _, l := range ls {
		if l.Price > m {
			m = l.Price
		}
	}
	return m
}

func (s *Service) CreateListing(ctx context.Context, ownerID string, in ListingInput) (listing.Listing, error) {
	if err := s.validate.Struct(in); err != nil {
		return listing.Listing{}, apperr.NewInvalidInputError(describe(err))
	}
	l := listing.Listing{
		OwnerID:          ownerID,
		Title:            canon.CollapseSpaces(in.Title),
		Description:      in.Description,
		Location:         canon.Location(in.Location),
		Address:          canon.CollapseSpaces(in.Address),
		Price:            in.Price,
		PriceSingle:      tierOrBase(in.PriceSingle, in.Price),
		PriceDouble:      tierOrBase(in.PriceDouble, in.Price),
		PriceTriple:      tierOrBase(in.PriceTriple, in.Price),
		GenderPreference: listing.ParseGender(in.GenderPreference),
		Amenities:        in.Amenities,
		Images:           in.Images,
		VirtualTourURL:   in.VirtualTourURL,
		Available:        in.Available == nil || *in.Available,
		RoomsAvailable:   in.RoomsAvailable,
	}
	created, err := s.listings.InsertListing(ctx, listing.Normalize(l))
	if err != nil {
		s.log.WithError(err).Error("listing insert failed", map[string]interface{}{"ownerId": ownerID})
		return listing.Listing{}, apperr.NewListingWriteFailedError(err)
	}
	s.pub.Publish(ctx, events.New(events.ListingCreated, created.ID, map[string]string{
		"title":    created.Title,
		"location": created.Location,
		"ownerId":  ownerID,
	}))
	s.log.Info("listing created", map[string]interface{}{"listingId": created.ID, "ownerId": ownerID})
	return created, nil
}

func tierOrBase(tier, base float64) float64 {
	if tier <= 0 {
		return base
	}
	return tier
}

// authorize loads the listing and checks userID owns it.
func (s *Service) authorize(ctx context.Context, userID, id string) error {
	l, err := s.getListing(ctx, id)
	if err != nil {
		return err
	}
	if l.OwnerID == "" || l.OwnerID != userID {
		return apperr.NewForbiddenError("only the host can change this listing")
	}
	return nil
}

func (s *Service) UpdateAvailability(ctx context.Context, userID, id string, available bool) (listing.Listing, error) {
	if err := s.authorize(ctx, userID, id); err != nil {
		return listing.Listing{}, err
	}
	l, err := s.listings.UpdateAvailability(ctx, userID, id, available)
	if errors.Is(err, listing.ErrNotFound) {
		return l, apperr.NewNotFoundError("listing " + id)
	}
	if err != nil {
		return l, apperr.NewListingWriteFailedError(err)
	}
	return l, nil
}

func (s *Service) DeleteListing(ctx context.Context, userID, id string) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	err := s.listings.DeleteListing(ctx, userID, id)
	if errors.Is(err, listing.ErrNotFound) {
		return apperr.NewNotFoundError("listing " + id)
	}
	if err != nil {
		return apperr.NewListingWriteFailedError(err)
	}
	s.log.Info("listing deleted", map[string]interface{}{"listingId": id, "ownerId": userID})
	return nil
}

func (s *Service) ListReviews(ctx context.Context, listingID string) ([]listing.Review, error) {
	reviews, err := s.reviews.ListReviews(ctx, listingID)
	if err != nil {
		return []listing.Review{}, apperr.NewReviewsFetchFailedError(err)
	}
	return reviews, nil
}

// Author identifies who writes a review or inquiry.
type Author struct {
	UserID string
	Name   string
}

func (s *Service) AddReview(ctx context.Context, author Author, listingID string, in ReviewInput) (listing.Review, error) {
	if err := s.validate.Struct(in); err != nil {
		return listing.Review{}, apperr.NewInvalidInputError(describe(err))
	}
	l, err := s.getListing(ctx, listingID)
	if err != nil {
		return listing.Review{}, err
	}
	r, err := s.reviews.InsertReview(ctx, listing.Review{
		ListingID: listingID,
		UserID:    author.UserID,
		UserName:  author.Name,
		Rating:    in.Rating,
		Comment:   canon.CollapseSpaces(in.Comment),
	})
	if err != nil {
		s.log.WithError(err).Error("review insert failed", map[string]interface{}{"listingId": listingID})
		return listing.Review{}, apperr.NewReviewWriteFailedError(err)
	}
	s.pub.Publish(ctx, events.New(events.ReviewPosted, listingID, map[string]string{
		"title":   l.Title,
		"rating":  strconv.Itoa(r.Rating),
		"comment": r.Comment,
	}))
	return r, nil
}

// SubmitInquiry records a message to the host. author.UserID may be empty for
// anonymous visitors.
func (s *Service) SubmitInquiry(ctx context.Context, author Author, listingID string, in InquiryInput) (listing.Inquiry, error) {
	if err := s.validate.Struct(in); err != nil {
		return listing.Inquiry{}, apperr.NewInvalidInputError(describe(err))
	}
	l, err := s.getListing(ctx, listingID)
	if err != nil {
		return listing.Inquiry{}, err
	}
	q, err := s.inquiries.InsertInquiry(ctx, listing.Inquiry{
		ListingID: listingID,
		UserID:    author.UserID,
		Name:      canon.CollapseSpaces(in.Name),
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
	})
	if err != nil {
		s.log.WithError(err).Error("inquiry insert failed", map[string]interface{}{"listingId": listingID})
		return listing.Inquiry{}, apperr.NewInquiryWriteFailedError(err)
	}
	s.pub.Publish(ctx, events.New(events.InquirySubmitted, listingID, map[string]string{
		"title":   l.Title,
		"name":    q.Name,
		"email":   q.Email,
		"phone":   q.Phone,
		"message": q.Message,
	}))
	return q, nil
}
