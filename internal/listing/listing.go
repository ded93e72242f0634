// Package listing holds the room listing record and the filter/sort engine
// used by the search pages.
package listing

import (
	"strings"
	"time"
)

type GenderPreference string

const (
	GenderMen      GenderPreference = "men"
	GenderWomen    GenderPreference = "women"
	GenderCoLiving GenderPreference = "co-living"
)

// DefaultGender is assigned to rows that arrive without a usable preference.
const DefaultGender = GenderCoLiving

// ParseGender maps a stored preference onto the enum, falling back to DefaultGender.
func ParseGender(s string) GenderPreference {
	switch GenderPreference(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMen:
		return GenderMen
	case GenderWomen:
		return GenderWomen
	case GenderCoLiving, "coliving", "co_living":
		return GenderCoLiving
	default:
		return DefaultGender
	}
}

// Listing is a read-only snapshot of one rentable room/property row.
type Listing struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Location         string           `json:"location"`
	Address          string           `json:"address"`
	Price            float64          `json:"price"`
	PriceSingle      float64          `json:"price_single"`
	PriceDouble      float64          `json:"price_double"`
	PriceTriple      float64          `json:"price_triple"`
	GenderPreference GenderPreference `json:"gender_preference"`
	Amenities        []string         `json:"amenities"`
	Images           []string         `json:"images"`
	Rating           *float64         `json:"rating"`
	VirtualTourURL   string           `json:"virtual_tour_url,omitempty"`
	Available        bool             `json:"available"`
	RoomsAvailable   int              `json:"rooms_available"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (l Listing) HasVirtualTour() bool { return strings.TrimSpace(l.VirtualTourURL) != "" }

// RatingValue returns the rating, treating an unrated listing as 0.
func (l Listing) RatingValue() float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

// Normalize enforces the record invariants: non-negative price tiers, a valid
// gender preference, a rating inside [0,5] and non-nil slices.
func Normalize(l Listing) Listing {
	l.Price = nonNegative(l.Price)
	l.PriceSingle = nonNegative(l.PriceSingle)
	l.PriceDouble = nonNegative(l.PriceDouble)
	l.PriceTriple = nonNegative(l.PriceTriple)
	l.GenderPreference = ParseGender(string(l.GenderPreference))
	if l.Rating != nil {
		r := *l.Rating
		if r < 0 {
			r = 0
		}
		if r > 5 {
			r = 5
		}
		l.Rating = &r
	}
	if l.Amenities == nil {
		l.Amenities = []string{}
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	if l.RoomsAvailable < 0 {
		l.RoomsAvailable = 0
	}
	return l
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Float64 is a convenience for building optional ratings.
func Float64(v float64) *float64 { return &v }
