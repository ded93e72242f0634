// Package seed ships the sample Bangalore listings and loads them into the
// Postgres store.
package seed

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/pg-finder/internal/listing"
)

// namespace keeps sample ids stable across runs so reseeding upserts.
var namespace = uuid.MustParse("6f1c2a1e-7d4b-4c55-9a0e-2f5b8c3d9e10")

// Epoch is the creation time of the newest sample listing.
var Epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type sample struct {
	key       string
	title     string
	location  string
	address   string
	price     float64
	single    float64
	double    float64
	triple    float64
	gender    listing.GenderPreference
	amenities []string
	images    int
	rating    float64
	tour      bool
	rooms     int
	ageDays   int
}

// rows are deliberately not in creation order.
var rows = []sample{
	{"koramangala-comfort", "Koramangala Comfort PG", "Koramangala, Bangalore", "5th Block, 80 Feet Road", 12000, 15000, 12000, 10000, listing.GenderMen, []string{"WiFi", "AC", "Meals", "Laundry"}, 3, 4.5, true, 4, 3},
	{"hsr-nest", "HSR Nest Women's Hostel", "HSR Layout, Bangalore", "Sector 2, 27th Main", 11000, 14000, 11000, 9500, listing.GenderWomen, []string{"WiFi", "Meals", "Security", "Housekeeping"}, 2, 4.7, false, 2, 7},
	{"indiranagar-loft", "Indiranagar Loft Co-living", "Indiranagar, Bangalore", "12th Main, HAL 2nd Stage", 18000, 22000, 18000, 15000, listing.GenderCoLiving, []string{"WiFi", "AC", "Gym", "Parking"}, 3, 4.9, true, 5, 1},
	{"btm-budget", "BTM Budget Stay", "BTM Layout, Bangalore", "2nd Stage, 16th Main", 9000, 11000, 9000, 7500, listing.GenderMen, []string{"WiFi", "Meals"}, 1, 4.1, false, 6, 12},
	{"whitefield-techpark", "Whitefield Techpark Residency", "Whitefield, Bangalore", "ITPL Main Road", 14000, 17000, 14000, 12000, listing.GenderCoLiving, []string{"WiFi", "AC", "Power Backup", "Parking"}, 2, 4.4, true, 3, 5},
	{"jayanagar-heritage", "Jayanagar Heritage PG for Women", "Jayanagar, Bangalore", "4th Block, 11th Main", 10500, 13000, 10500, 9000, listing.GenderWomen, []string{"WiFi", "Meals", "Laundry"}, 1, 4.6, false, 2, 9},
	{"electronic-city-hub", "Electronic City Hub", "Electronic City, Bangalore", "Phase 1, Neeladri Road", 9500, 12000, 9500, 8000, listing.GenderMen, []string{"WiFi", "Power Backup"}, 2, 4.2, false, 8, 15},
	{"marathahalli-studio", "Marathahalli Studio Rooms", "Marathahalli, Bangalore", "Outer Ring Road", 16000, 19000, 16000, 13500, listing.GenderCoLiving, []string{"WiFi", "AC", "Housekeeping", "Gym"}, 3, 4.8, true, 3, 2},
	{"malleshwaram-greens", "Malleshwaram Greens Ladies PG", "Malleshwaram, Bangalore", "15th Cross, Sampige Road", 13000, 16000, 13000, 11000, listing.GenderWomen, []string{"WiFi", "Meals", "Security"}, 2, 4.3, false, 1, 20},
	{"bellandur-lakeview", "Bellandur Lakeview Living", "Bellandur, Bangalore", "Sarjapur Road", 15000, 18500, 15000, 12500, listing.GenderMen, []string{"WiFi", "AC", "Parking", "Laundry"}, 1, 4.4, true, 4, 6},
}

// ID returns the stable id of the sample listing with the given key.
func ID(key string) string {
	return uuid.NewSHA1(namespace, []byte("pg-finder/sample/"+key)).String()
}

// Listings returns the sample dataset owned by ownerID.
func Listings(ownerID string) []listing.Listing {
	out := make([]listing.Listing, 0, len(rows))
	for _, r := range rows {
		l := listing.Listing{
			ID:               ID(r.key),
			OwnerID:          ownerID,
			Title:            r.title,
			Description:      r.title + " offers furnished rooms with single, double and triple sharing.",
			Location:         r.location,
			Address:          r.address,
			Price:            r.price,
			PriceSingle:      r.single,
			PriceDouble:      r.double,
			PriceTriple:      r.triple,
			GenderPreference: r.gender,
			Amenities:        append([]string(nil), r.amenities...),
			Images:           images(r.key, r.images),
			Rating:           listing.Float64(r.rating),
			Available:        true,
			RoomsAvailable:   r.rooms,
			CreatedAt:        Epoch.AddDate(0, 0, -r.ageDays),
		}
		if r.tour {
			l.VirtualTourURL = "https://tours.pgfinder.in/" + r.key
		}
		out = append(out, l)
	}
	return out
}

func images(key string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, "https://images.pgfinder.in/samples/"+key+"/"+string(rune('0'+i))+".jpg")
	}
	return out
}
