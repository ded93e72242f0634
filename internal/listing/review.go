package listing

import (
	"errors"
	"time"
)

// ErrNotFound is returned by data sources when a row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// Review is a guest review attached to a listing.
type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Inquiry is a prospective tenant's message to a host.
type Inquiry struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewSummary aggregates the reviews shown on a listing page.
type ReviewSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func Summarize(reviews []Review) ReviewSummary {
	if len(reviews) == 0 {
		return ReviewSummary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := float64(total) / float64(len(reviews))
	// one decimal, as displayed next to the stars
	avg = float64(int(avg*10+0.5)) / 10
	return ReviewSummary{Count: len(reviews), Average: avg}
}
