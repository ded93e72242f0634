package listing

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, c Criteria)
	}{
		{
			name:  "empty query yields defaults",
			query: "",
			check: func(t *testing.T, c Criteria) {
				assert.Equal(t, DefaultCriteria(), c)
			},
		},
		{
			name:  "location is kept as given",
			query: "location=%20Bangalore%20",
			check: func(t *testing.T, c Criteria) {
				assert.Equal(t, " Bangalore ", c.Location)
				assert.Equal(t, DefaultPriceMax, c.PriceMax)
			},
		},
		{
			name:  "all fields",
			query: "location=HSR&min_price=8000&max_price=35000&gender=women&amenities=WiFi,AC&amenities=Parking&virtual_tour=true&min_rating=4&sort=price_low&sharing=double",
			check: func(t *testing.T, c Criteria) {
				assert.Equal(t, "HSR", c.Location)
				assert.Equal(t, 8000.0, c.PriceMin)
				assert.Equal(t, 35000.0, c.PriceMax)
				assert.Equal(t, GenderFilterWomen, c.Gender)
				assert.Equal(t, []string{"WiFi", "AC", "Parking"}, c.Amenities)
				assert.True(t, c.VirtualTourRequired)
				assert.Equal(t, 4.0, c.MinRating)
				assert.Equal(t, SortPriceAsc, c.Sort)
				assert.Equal(t, SharingDouble, c.Sharing)
			},
		},
		{
			name:  "garbage keeps defaults",
			query: "min_price=cheap&max_price=&gender=x&sort=random&sharing=dorm&virtual_tour=maybe",
			check: func(t *testing.T, c Criteria) {
				assert.Equal(t, DefaultCriteria(), c)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			tt.check(t, CriteriaFromQuery(q))
		})
	}
}

func TestCriteria_QueryRoundTrip(t *testing.T) {
	c := DefaultCriteria()
	c.Location = "Indiranagar"
	c.PriceMin = 9000
	c.Gender = GenderFilterMen
	c.Amenities = []string{"WiFi", "Gym"}
	c.MinRating = 4.5
	c.Sort = SortRatingDesc
	c.Sharing = SharingTriple

	q := c.Query()
	assert.Equal(t, "Indiranagar", q.Get("location"))
	assert.Empty(t, q.Get("max_price"), "defaults are not encoded")
	assert.Equal(t, c, CriteriaFromQuery(q))
}

func TestCriteria_DefaultQueryIsEmpty(t *testing.T) {
	assert.Empty(t, DefaultCriteria().Query())
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
	}{
		{"", SortNewest},
		{"newest", SortNewest},
		{"PRICE-DESC", SortPriceDesc},
		{"rating", SortRatingDesc},
		{"price-ascending", SortPriceAsc},
		{"price-descending", SortPriceDesc},
		{"rating-descending", SortRatingDesc},
		{"cheapest", SortNewest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSort(tt.in), tt.in)
	}
}

func TestCriteria_LongSortNamesFromJSONAndQuery(t *testing.T) {
	cheap := Listing{ID: "cheap", Price: 9000, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	dear := Listing{ID: "dear", Price: 18000, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	c := DefaultCriteria()
	require.NoError(t, json.Unmarshal([]byte(`{"sort":"price-ascending"}`), &c))
	got := Apply([]Listing{dear, cheap}, c)
	assert.Equal(t, []string{"cheap", "dear"}, []string{got[0].ID, got[1].ID})

	q, err := url.ParseQuery("sort=price-descending")
	require.NoError(t, err)
	got = Apply([]Listing{cheap, dear}, CriteriaFromQuery(q))
	assert.Equal(t, []string{"dear", "cheap"}, []string{got[0].ID, got[1].ID})
}

func TestSanitize_KeepsLocationAsGiven(t *testing.T) {
	l := Listing{ID: "a", Location: "Koramangala,Bangalore", Price: 9000}
	c := DefaultCriteria()
	c.Location = " Bangalore"
	assert.Equal(t, " Bangalore", c.Sanitize().Location)
	assert.Empty(t, Apply([]Listing{l}, c), "leading space must be matched literally")

	l.Location = "Koramangala, Bangalore"
	assert.Len(t, Apply([]Listing{l}, c), 1)
}
