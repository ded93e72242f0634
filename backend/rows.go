package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yourorg/pg-finder/internal/listing"
)

const returnRepresentation = "return=representation"

type listingRow struct {
	ID               string     `json:"id,omitempty"`
	OwnerID          *string    `json:"owner_id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	Location         string     `json:"location"`
	Address          *string    `json:"address"`
	Price            float64    `json:"price"`
	PriceSingle      *float64   `json:"price_single"`
	PriceDouble      *float64   `json:"price_double"`
	PriceTriple      *float64   `json:"price_triple"`
	GenderPreference *string    `json:"gender_preference"`
	Amenities        []string   `json:"amenities"`
	Images           []string   `json:"images"`
	Rating           *float64   `json:"rating"`
	VirtualTourURL   *string    `json:"virtual_tour_url"`
	Available        *bool      `json:"available"`
	RoomsAvailable   *int       `json:"rooms_available"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

func (r listingRow) toListing() listing.Listing {
	l := listing.Listing{
		ID:               r.ID,
		OwnerID:          deref(r.OwnerID),
		Title:            r.Title,
		Description:      deref(r.Description),
		Location:         r.Location,
		Address:          deref(r.Address),
		Price:            r.Price,
		PriceSingle:      derefOr(r.PriceSingle, r.Price),
		PriceDouble:      derefOr(r.PriceDouble, r.Price),
		PriceTriple:      derefOr(r.PriceTriple, r.Price),
		GenderPreference: listing.GenderPreference(deref(r.GenderPreference)),
		Amenities:        r.Amenities,
		Images:           r.Images,
		Rating:           r.Rating,
		VirtualTourURL:   deref(r.VirtualTourURL),
		Available:        derefOr(r.Available, true),
		RoomsAvailable:   derefOr(r.RoomsAvailable, 0),
	}
	if r.CreatedAt != nil {
		l.CreatedAt = *r.CreatedAt
	}
	return listing.Normalize(l)
}

func listingRowFrom(l listing.Listing) listingRow {
	r := listingRow{
		ID:               l.ID,
		OwnerID:          &l.OwnerID,
		Title:            l.Title,
		Description:      &l.Description,
		Location:         l.Location,
		Address:          &l.Address,
		Price:            l.Price,
		PriceSingle:      &l.PriceSingle,
		PriceDouble:      &l.PriceDouble,
		PriceTriple:      &l.PriceTriple,
		Amenities:        l.Amenities,
		Images:           l.Images,
		Rating:           l.Rating,
		Available:        &l.Available,
		RoomsAvailable:   &l.RoomsAvailable,
	}
	g := string(l.GenderPreference)
	r.GenderPreference = &g
	if l.VirtualTourURL != "" {
		r.VirtualTourURL = &l.VirtualTourURL
	}
	if !l.CreatedAt.IsZero() {
		r.CreatedAt = &l.CreatedAt
	}
	return r
}

type reviewRow struct {
	ID        string     `json:"id,omitempty"`
	ListingID string     `json:"listing_id"`
	UserID    *string    `json:"user_id"`
	UserName  *string    `json:"user_name"`
	Rating    int        `json:"rating"`
	Comment   *string    `json:"comment"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (r reviewRow) toReview() listing.Review {
	rv := listing.Review{
		ID:        r.ID,
		ListingID: r.ListingID,
		UserID:    deref(r.UserID),
		UserName:  deref(r.UserName),
		Rating:    r.Rating,
		Comment:   deref(r.Comment),
	}
	if r.CreatedAt != nil {
		rv.CreatedAt = *r.CreatedAt
	}
	return rv
}

type inquiryRow struct {
	ID        string     `json:"id,omitempty"`
	ListingID string     `json:"listing_id"`
	UserID    *string    `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Message   string     `json:"message"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ListListings returns every visible listing, newest first. Rows failing the
// schema are dropped and logged.
func (c *Client) ListListings(ctx context.Context) ([]listing.Listing, error) {
	raw, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/rest/v1/listings?select=*&order=created_at.desc",
		resource: "listings",
	})
	if err != nil {
		return nil, err
	}
	return c.decodeListings(raw)
}

func (c *Client) GetListing(ctx context.Context, id string) (listing.Listing, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	raw, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/rest/v1/listings?" + q.Encode(),
		resource: "listings",
	})
	if err != nil {
		return listing.Listing{}, err
	}
	return c.singleListing(raw)
}

func (c *Client) InsertListing(ctx context.Context, l listing.Listing) (listing.Listing, error) {
	raw, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/rest/v1/listings",
		body:     listingRowFrom(l),
		prefer:   returnRepresentation,
		resource: "listings",
	})
	if err != nil {
		return listing.Listing{}, err
	}
	return c.singleListing(raw)
}

// UpdateAvailability flips the availability flag on a listing owned by ownerID.
func (c *Client) UpdateAvailability(ctx context.Context, ownerID, id string, available bool) (listing.Listing, error) {
	raw, err := c.do(ctx, request{
		method:   http.MethodPatch,
		path:     "/rest/v1/listings?" + ownedFilter(ownerID, id),
		body:     map[string]bool{"available": available},
		prefer:   returnRepresentation,
		resource: "listings",
	})
	if err != nil {
		return listing.Listing{}, err
	}
	return c.singleListing(raw)
}

func (c *Client) DeleteListing(ctx context.Context, ownerID, id string) error {
	raw, err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/rest/v1/listings?" + ownedFilter(ownerID, id),
		prefer:   returnRepresentation,
		resource: "listings",
	})
	if err != nil {
		return err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) ListReviews(ctx context.Context, listingID string) ([]listing.Review, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("listing_id", "eq."+listingID)
	q.Set("order", "created_at.desc")
	raw, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/rest/v1/reviews?" + q.Encode(),
		resource: "reviews",
	})
	if err != nil {
		return nil, err
	}
	return c.decodeReviews(raw)
}

func (c *Client) InsertReview(ctx context.Context, r listing.Review) (listing.Review, error) {
	row := reviewRow{
		ListingID: r.ListingID,
		UserID:    &r.UserID,
		Rating:    r.Rating,
		Comment:   &r.Comment,
	}
	if r.UserName != "" {
		row.UserName = &r.UserName
	}
	raw, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/rest/v1/reviews",
		body:     row,
		prefer:   returnRepresentation,
		resource: "reviews",
	})
	if err != nil {
		return listing.Review{}, err
	}
	reviews, err := c.decodeReviews(raw)
	if err != nil {
		return listing.Review{}, err
	}
	if len(reviews) == 0 {
		return listing.Review{}, fmt.Errorf("backend: review insert returned no row")
	}
	return reviews[0], nil
}

func (c *Client) InsertInquiry(ctx context.Context, q listing.Inquiry) (listing.Inquiry, error) {
	row := inquiryRow{
		ListingID: q.ListingID,
		Name:      q.Name,
		Email:     q.Email,
		Phone:     q.Phone,
		Message:   q.Message,
	}
	if q.UserID != "" {
		row.UserID = &q.UserID
	}
	raw, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/rest/v1/inquiries",
		body:     row,
		prefer:   returnRepresentation,
		resource: "inquiries",
	})
	if err != nil {
		return listing.Inquiry{}, err
	}
	var rows []inquiryRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return listing.Inquiry{}, err
	}
	if len(rows) == 0 {
		return listing.Inquiry{}, fmt.Errorf("backend: inquiry insert returned no row")
	}
	out := q
	out.ID = rows[0].ID
	if rows[0].CreatedAt != nil {
		out.CreatedAt = *rows[0].CreatedAt
	}
	return out, nil
}

func ownedFilter(ownerID, id string) string {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("owner_id", "eq."+ownerID)
	return q.Encode()
}

func (c *Client) decodeListings(raw []byte) ([]listing.Listing, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	out := make([]listing.Listing, 0, len(rows))
	for i, rr := range rows {
		if err := validateRow(listingSchema, rr); err != nil {
			c.log.Warn("dropping malformed listing row", map[string]interface{}{"index": i, "error": err.Error()})
			continue
		}
		var row listingRow
		if err := json.Unmarshal(rr, &row); err != nil {
			c.log.Warn("dropping undecodable listing row", map[string]interface{}{"index": i, "error": err.Error()})
			continue
		}
		out = append(out, row.toListing())
	}
	return out, nil
}

func (c *Client) singleListing(raw []byte) (listing.Listing, error) {
	ls, err := c.decodeListings(raw)
	if err != nil {
		return listing.Listing{}, err
	}
	if len(ls) == 0 {
		return listing.Listing{}, ErrNotFound
	}
	return ls[0], nil
}

func (c *Client) decodeReviews(raw []byte) ([]listing.Review, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]listing.Review, 0, len(rows))
	for i, rr := range rows {
		if err := validateRow(reviewSchema, rr); err != nil {
			c.log.Warn("dropping malformed review row", map[string]interface{}{"index": i, "error": err.Error()})
			continue
		}
		var row reviewRow
		if err := json.Unmarshal(rr, &row); err != nil {
			continue
		}
		out = append(out, row.toReview())
	}
	return out, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func derefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
