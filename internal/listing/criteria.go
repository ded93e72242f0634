package listing

import (
	"net/url"
	"strconv"
	"strings"
)

type GenderFilter string

const (
	GenderAny            GenderFilter = "any"
	GenderFilterMen      GenderFilter = GenderFilter(GenderMen)
	GenderFilterWomen    GenderFilter = GenderFilter(GenderWomen)
	GenderFilterCoLiving GenderFilter = GenderFilter(GenderCoLiving)
)

type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortRatingDesc SortKey = "rating-desc"
)

type SharingType string

const (
	SharingAny    SharingType = "any"
	SharingSingle SharingType = "single"
	SharingDouble SharingType = "double"
	SharingTriple SharingType = "triple"
)

const (
	DefaultPriceMin float64 = 0
	DefaultPriceMax float64 = 50000
)

// Criteria is the browse-session filter state. The zero value is not useful;
// start from DefaultCriteria.
type Criteria struct {
	Location            string       `json:"location"`
	PriceMin            float64      `json:"price_min"`
	PriceMax            float64      `json:"price_max"`
	Gender              GenderFilter `json:"gender"`
	Amenities           []string     `json:"amenities"`
	VirtualTourRequired bool         `json:"virtual_tour"`
	MinRating           float64      `json:"min_rating"`
	Sort                SortKey      `json:"sort"`
	Sharing             SharingType  `json:"sharing"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		PriceMin: DefaultPriceMin,
		PriceMax: DefaultPriceMax,
		Gender:   GenderAny,
		Sort:     SortNewest,
		Sharing:  SharingAny,
	}
}

func ParseGenderFilter(s string) GenderFilter {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(GenderAny) {
		return GenderAny
	}
	switch GenderPreference(s) {
	case GenderMen, GenderWomen, GenderCoLiving:
		return GenderFilter(s)
	}
	return GenderAny
}

func ParseSort(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price-asc", "price_asc", "price_low", "price-ascending":
		return SortPriceAsc
	case "price-desc", "price_desc", "price_high", "price-descending":
		return SortPriceDesc
	case "rating-desc", "rating_desc", "rating", "rating-descending":
		return SortRatingDesc
	default:
		return SortNewest
	}
}

func ParseSharing(s string) SharingType {
	switch SharingType(strings.ToLower(strings.TrimSpace(s))) {
	case SharingSingle:
		return SharingSingle
	case SharingDouble:
		return SharingDouble
	case SharingTriple:
		return SharingTriple
	default:
		return SharingAny
	}
}

// Sanitize fills enum fields that were left empty or carry unknown values.
// Numeric fields and Location are kept as given; out-of-range bounds simply
// match nothing or everything.
func (c Criteria) Sanitize() Criteria {
	c.Gender = ParseGenderFilter(string(c.Gender))
	c.Sort = ParseSort(string(c.Sort))
	c.Sharing = ParseSharing(string(c.Sharing))
	return c
}

// CriteriaFromQuery seeds criteria from URL query parameters. Unparseable
// values keep their defaults.
func CriteriaFromQuery(q url.Values) Criteria {
	c := DefaultCriteria()
	c.Location = q.Get("location")
	if v, ok := parseFloat(q.Get("min_price")); ok {
		c.PriceMin = v
	}
	if v, ok := parseFloat(q.Get("max_price")); ok {
		c.PriceMax = v
	}
	c.Gender = ParseGenderFilter(q.Get("gender"))
	for _, raw := range q["amenities"] {
		for _, a := range strings.Split(raw, ",") {
			if a != "" {
				c.Amenities = append(c.Amenities, a)
			}
		}
	}
	if v, err := strconv.ParseBool(q.Get("virtual_tour")); err == nil {
		c.VirtualTourRequired = v
	}
	if v, ok := parseFloat(q.Get("min_rating")); ok {
		c.MinRating = v
	}
	c.Sort = ParseSort(q.Get("sort"))
	c.Sharing = ParseSharing(q.Get("sharing"))
	return c
}

// Query encodes the fields that differ from DefaultCriteria, for direct links
// to a pre-filtered search.
func (c Criteria) Query() url.Values {
	def := DefaultCriteria()
	q := url.Values{}
	if c.Location != "" {
		q.Set("location", c.Location)
	}
	if c.PriceMin != def.PriceMin {
		q.Set("min_price", formatFloat(c.PriceMin))
	}
	if c.PriceMax != def.PriceMax {
		q.Set("max_price", formatFloat(c.PriceMax))
	}
	if c.Gender != "" && c.Gender != def.Gender {
		q.Set("gender", string(c.Gender))
	}
	if len(c.Amenities) > 0 {
		q.Set("amenities", strings.Join(c.Amenities, ","))
	}
	if c.VirtualTourRequired {
		q.Set("virtual_tour", "true")
	}
	if c.MinRating != 0 {
		q.Set("min_rating", formatFloat(c.MinRating))
	}
	if c.Sort != "" && c.Sort != def.Sort {
		q.Set("sort", string(c.Sort))
	}
	if c.Sharing != "" && c.Sharing != def.Sharing {
		q.Set("sharing", string(c.Sharing))
	}
	return q
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
