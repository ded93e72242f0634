package listing

import (
	"sort"
	"strings"
)

// Apply returns the listings that satisfy every predicate in c, ordered by
// c.Sort. The input slice is never reordered and the result is always non-nil.
//
// Price filtering honours the selected sharing tier but price sorting always
// uses the base price. Product has not confirmed whether that asymmetry is
// intended, so it is kept as is.
func Apply(listings []Listing, c Criteria) []Listing {
	c = c.Sanitize()
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, c) {
			out = append(out, l)
		}
	}
	sortListings(out, c.Sort)
	return out
}

// Matches reports whether l passes the conjunction of all filter predicates.
func Matches(l Listing, c Criteria) bool {
	return matchLocation(l, c.Location) &&
		matchPrice(l, c) &&
		matchGender(l, c.Gender) &&
		matchAmenities(l, c.Amenities) &&
		(!c.VirtualTourRequired || l.HasVirtualTour()) &&
		matchRating(l, c.MinRating)
}

// EffectivePrice is the price compared against the range: the tier price for
// a concrete sharing type, the base price otherwise.
func EffectivePrice(l Listing, s SharingType) float64 {
	switch s {
	case SharingSingle:
		return l.PriceSingle
	case SharingDouble:
		return l.PriceDouble
	case SharingTriple:
		return l.PriceTriple
	default:
		return l.Price
	}
}

func matchLocation(l Listing, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Location), strings.ToLower(q))
}

func matchPrice(l Listing, c Criteria) bool {
	p := EffectivePrice(l, c.Sharing)
	return p >= c.PriceMin && p <= c.PriceMax
}

func matchGender(l Listing, g GenderFilter) bool {
	return g == GenderAny || string(g) == string(l.GenderPreference)
}

// matchAmenities requires every wanted tag, compared case-sensitively.
func matchAmenities(l Listing, want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(l.Amenities))
	for _, a := range l.Amenities {
		have[a] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

// A threshold of 0 (or below) means unset; unrated listings fail any real threshold.
func matchRating(l Listing, min float64) bool {
	if min <= 0 {
		return true
	}
	return l.Rating != nil && *l.Rating >= min
}

func sortListings(ls []Listing, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price < ls[j].Price })
	case SortPriceDesc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price > ls[j].Price })
	case SortRatingDesc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].RatingValue() > ls[j].RatingValue() })
	default:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) })
	}
}
