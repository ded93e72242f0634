package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/events"
	"github.com/yourorg/pg-finder/internal/listing"
	"github.com/yourorg/pg-finder/internal/logger"
)

// fakeSource is an in-memory Source with per-call error injection.
type fakeSource struct {
	mu         sync.Mutex
	listings   []listing.Listing
	reviews    []listing.Review
	inquiries  []listing.Inquiry
	listErr    error
	reviewsErr error
	writeErr   error
	seq        int
}

func (f *fakeSource) ListListings(context.Context) ([]listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]listing.Listing(nil), f.listings...), nil
}

func (f *fakeSource) GetListing(_ context.Context, id string) (listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return listing.Listing{}, f.listErr
	}
	for _, l := range f.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return listing.Listing{}, listing.ErrNotFound
}

func (f *fakeSource) InsertListing(_ context.Context, l listing.Listing) (listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return listing.Listing{}, f.writeErr
	}
	f.seq++
	l.ID = "new-" + string(rune('0'+f.seq))
	l.CreatedAt = time.Now()
	f.listings = append(f.listings, l)
	return l, nil
}

func (f *fakeSource) UpdateAvailability(_ context.Context, ownerID, id string, available bool) (listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return listing.Listing{}, f.writeErr
	}
	for i, l := range f.listings {
		if l.ID == id && l.OwnerID == ownerID {
			f.listings[i].Available = available
			return f.listings[i], nil
		}
	}
	return listing.Listing{}, listing.ErrNotFound
}

func (f *fakeSource) DeleteListing(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.listings {
		if l.ID == id && l.OwnerID == ownerID {
			f.listings = append(f.listings[:i], f.listings[i+1:]...)
			return nil
		}
	}
	return listing.ErrNotFound
}

func (f *fakeSource) ListReviews(_ context.Context, listingID string) ([]listing.Review, error) {
	if f.reviewsErr != nil {
		return nil, f.reviewsErr
	}
	out := []listing.Review{}
	for _, r := range f.reviews {
		if r.ListingID == listingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) InsertReview(_ context.Context, r listing.Review) (listing.Review, error) {
	if f.writeErr != nil {
		return listing.Review{}, f.writeErr
	}
	r.ID = "r-new"
	f.reviews = append(f.reviews, r)
	return r, nil
}

func (f *fakeSource) InsertInquiry(_ context.Context, q listing.Inquiry) (listing.Inquiry, error) {
	if f.writeErr != nil {
		return listing.Inquiry{}, f.writeErr
	}
	q.ID = "q-new"
	f.inquiries = append(f.inquiries, q)
	return q, nil
}

func base(t time.Time) []listing.Listing {
	return []listing.Listing{
		{ID: "a", OwnerID: "host-1", Title: "Alpha PG", Location: "Koramangala, Bangalore", Price: 12000, GenderPreference: listing.GenderMen, CreatedAt: t.Add(-2 * time.Hour), Available: true},
		{ID: "b", OwnerID: "host-2", Title: "Beta Hostel", Location: "Pune", Price: 9000, GenderPreference: listing.GenderWomen, CreatedAt: t.Add(-1 * time.Hour), Available: true},
		{ID: "c", OwnerID: "host-1", Title: "Gamma Stay", Location: "HSR Layout, Bangalore", Price: 15000, GenderPreference: listing.GenderCoLiving, CreatedAt: t, Available: true},
	}
}

func newService(t *testing.T, src *fakeSource, pub events.Publisher) *Service {
	t.Helper()
	return NewService(Deps{Listings: src, Reviews: src, Inquiries: src, Publisher: pub, Logger: logger.NewTestLogger(t)})
}

func codeOf(t *testing.T, err error) apperr.ErrorCode {
	t.Helper()
	var se *apperr.StandardError
	require.True(t, errors.As(err, &se), "expected StandardError, got %v", err)
	return se.Code
}

// ==========================
// Search
// ==========================

func TestSearch_FiltersFreshSnapshot(t *testing.T) {
	src := &fakeSource{listings: base(time.Now())}
	svc := newService(t, src, nil)

	c := listing.DefaultCriteria()
	c.Location = "bangalore"
	res, err := svc.Search(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Scanned)
	require.Len(t, res.Listings, 2)
	assert.Equal(t, "c", res.Listings[0].ID)
	assert.Equal(t, "a", res.Listings[1].ID)

	// every call re-fetches
	src.mu.Lock()
	src.listings = src.listings[:1]
	src.mu.Unlock()
	res, err = svc.Search(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, res.Listings, 1)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	svc := newService(t, &fakeSource{listings: base(time.Now())}, nil)
	c := listing.DefaultCriteria()
	c.PriceMin, c.PriceMax = 20000, 10000

	res, err := svc.Search(context.Background(), c)
	require.NoError(t, err)
	assert.NotNil(t, res.Listings)
	assert.Empty(t, res.Listings)
}

func TestSearch_FetchFailure(t *testing.T) {
	svc := newService(t, &fakeSource{listErr: errors.New("dial tcp: timeout")}, nil)
	res, err := svc.Search(context.Background(), listing.DefaultCriteria())
	assert.Equal(t, apperr.ErrCodeListingsFetchFailed, codeOf(t, err))
	assert.NotNil(t, res.Listings)
}

// ==========================
// Get
// ==========================

func TestGet_WithReviewsAndSummary(t *testing.T) {
	src := &fakeSource{
		listings: base(time.Now()),
		reviews: []listing.Review{
			{ID: "r1", ListingID: "a", Rating: 5},
			{ID: "r2", ListingID: "a", Rating: 4},
			{ID: "r3", ListingID: "b", Rating: 1},
		},
	}
	d, err := newService(t, src, nil).Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha PG", d.Listing.Title)
	assert.Len(t, d.Reviews, 2)
	assert.Equal(t, listing.ReviewSummary{Count: 2, Average: 4.5}, d.Summary)
}

func TestGet_ReviewFailureDegrades(t *testing.T) {
	src := &fakeSource{listings: base(time.Now()), reviewsErr: errors.New("401")}
	d, err := newService(t, src, nil).Get(context.Background(), "a")
	require.NoError(t, err)
	assert.NotNil(t, d.Reviews)
	assert.Empty(t, d.Reviews)
	assert.Equal(t, 0, d.Summary.Count)
}

func TestGet_NotFound(t *testing.T) {
	_, err := newService(t, &fakeSource{}, nil).Get(context.Background(), "zzz")
	assert.Equal(t, apperr.ErrCodeNotFound, codeOf(t, err))
}

func TestListByIDs_KeepsRequestedOrder(t *testing.T) {
	svc := newService(t, &fakeSource{listings: base(time.Now())}, nil)
	got, err := svc.ListByIDs(context.Background(), []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestListByOwner(t *testing.T) {
	svc := newService(t, &fakeSource{listings: base(time.Now())}, nil)
	got, err := svc.ListByOwner(context.Background(), "host-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID, "newest first")
}

// ==========================
// Host writes
// ==========================

func validListing() ListingInput {
	return ListingInput{
		Title:          "  Sunrise   PG ",
		Location:       "Indiranagar ,Bangalore",
		Price:          11000,
		PriceSingle:    14000,
		Amenities:      []string{"WiFi", "Laundry"},
		Images:         []string{"https://img.example.com/1.jpg"},
		RoomsAvailable: 4,
	}
}

func TestCreateListing_NormalizesAndPublishes(t *testing.T) {
	src := &fakeSource{}
	pub := events.NewInMemory(4)
	svc := newService(t, src, pub)

	l, err := svc.CreateListing(context.Background(), "host-1", validListing())
	require.NoError(t, err)
	assert.Equal(t, "Sunrise PG", l.Title)
	assert.Equal(t, "Indiranagar, Bangalore", l.Location)
	assert.Equal(t, 14000.0, l.PriceSingle)
	assert.Equal(t, 11000.0, l.PriceDouble, "missing tier falls back to base")
	assert.Equal(t, listing.GenderCoLiving, l.GenderPreference)
	assert.True(t, l.Available)
	assert.Equal(t, "host-1", l.OwnerID)

	evt := <-pub.Subscribe()
	assert.Equal(t, events.ListingCreated, evt.Type)
	assert.Equal(t, l.ID, evt.ListingID)
}

func TestCreateListing_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ListingInput)
		field  string
	}{
		{"missing title", func(in *ListingInput) { in.Title = "" }, "title"},
		{"zero price", func(in *ListingInput) { in.Price = 0 }, "price"},
		{"negative tier", func(in *ListingInput) { in.PriceTriple = -1 }, "price_triple"},
		{"unknown gender", func(in *ListingInput) { in.GenderPreference = "family" }, "gender_preference"},
		{"bad image url", func(in *ListingInput) { in.Images = []string{"not a url"} }, "images"},
		{"blank amenity", func(in *ListingInput) { in.Amenities = []string{""} }, "amenities"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			in := validListing()
			tt.mutate(&in)
			_, err := newService(t, src, nil).CreateListing(context.Background(), "host-1", in)
			assert.Equal(t, apperr.ErrCodeInvalidInput, codeOf(t, err))
			assert.Contains(t, err.Error(), tt.field)
			assert.Empty(t, src.listings)
		})
	}
}

func TestCreateListing_WriteFailure(t *testing.T) {
	src := &fakeSource{writeErr: errors.New("row-level security")}
	_, err := newService(t, src, nil).CreateListing(context.Background(), "host-1", validListing())
	assert.Equal(t, apperr.ErrCodeListingWriteFailed, codeOf(t, err))
}

func TestUpdateAvailability_OwnerOnly(t *testing.T) {
	src := &fakeSource{listings: base(time.Now())}
	svc := newService(t, src, nil)

	_, err := svc.UpdateAvailability(context.Background(), "host-2", "a", false)
	assert.Equal(t, apperr.ErrCodeForbidden, codeOf(t, err))

	l, err := svc.UpdateAvailability(context.Background(), "host-1", "a", false)
	require.NoError(t, err)
	assert.False(t, l.Available)

	_, err = svc.UpdateAvailability(context.Background(), "host-1", "nope", false)
	assert.Equal(t, apperr.ErrCodeNotFound, codeOf(t, err))
}

func TestDeleteListing_OwnerOnly(t *testing.T) {
	src := &fakeSource{listings: base(time.Now())}
	svc := newService(t, src, nil)

	assert.Equal(t, apperr.ErrCodeForbidden, codeOf(t, svc.DeleteListing(context.Background(), "host-1", "b")))
	require.NoError(t, svc.DeleteListing(context.Background(), "host-2", "b"))
	assert.Len(t, src.listings, 2)
}

// ==========================
// Reviews & inquiries
// ==========================

func TestAddReview(t *testing.T) {
	src := &fakeSource{listings: base(time.Now())}
	pub := events.NewInMemory(4)
	svc := newService(t, src, pub)

	r, err := svc.AddReview(context.Background(), Author{UserID: "u9", Name: "Ravi"}, "a", ReviewInput{Rating: 4, Comment: " Clean  and quiet "})
	require.NoError(t, err)
	assert.Equal(t, "Clean and quiet", r.Comment)
	assert.Equal(t, "u9", r.UserID)

	evt := <-pub.Subscribe()
	assert.Equal(t, events.ReviewPosted, evt.Type)
	assert.Equal(t, "4", evt.Payload["rating"])
	assert.Equal(t, "Alpha PG", evt.Payload["title"])
}

func TestAddReview_RejectsOutOfRangeRating(t *testing.T) {
	svc := newService(t, &fakeSource{listings: base(time.Now())}, nil)
	for _, rating := range []int{0, 6} {
		_, err := svc.AddReview(context.Background(), Author{UserID: "u"}, "a", ReviewInput{Rating: rating})
		assert.Equal(t, apperr.ErrCodeInvalidInput, codeOf(t, err))
	}
}

func TestAddReview_WriteFailure(t *testing.T) {
	src := &fakeSource{listings: base(time.Now()), writeErr: errors.New("boom")}
	_, err := newService(t, src, nil).AddReview(context.Background(), Author{UserID: "u"}, "a", ReviewInput{Rating: 3})
	assert.Equal(t, apperr.ErrCodeReviewWriteFailed, codeOf(t, err))
}

func TestSubmitInquiry(t *testing.T) {
	src := &fakeSource{listings: base(time.Now())}
	pub := events.NewInMemory(4)
	svc := newService(t, src, pub)

	q, err := svc.SubmitInquiry(context.Background(), Author{}, "c", InquiryInput{
		Name: "Asha", Email: "asha@example.com", Phone: "+91 98450 00000", Message: "Is parking available?",
	})
	require.NoError(t, err)
	assert.Equal(t, "q-new", q.ID)
	assert.Empty(t, q.UserID)

	evt := <-pub.Subscribe()
	assert.Equal(t, events.InquirySubmitted, evt.Type)
	assert.Equal(t, "asha@example.com", evt.Payload["email"])
}

func TestSubmitInquiry_Invalid(t *testing.T) {
	svc := newService(t, &fakeSource{listings: base(time.Now())}, nil)
	_, err := svc.SubmitInquiry(context.Background(), Author{}, "c", InquiryInput{Name: "A", Email: "not-an-email", Message: "hi"})
	assert.Equal(t, apperr.ErrCodeInvalidInput, codeOf(t, err))
	assert.Contains(t, err.Error(), "email")
}

func TestSubmitInquiry_UnknownListing(t *testing.T) {
	svc := newService(t, &fakeSource{}, nil)
	_, err := svc.SubmitInquiry(context.Background(), Author{}, "zzz", InquiryInput{Name: "A", Email: "a@b.co", Message: "hi"})
	assert.Equal(t, apperr.ErrCodeNotFound, codeOf(t, err))
}
