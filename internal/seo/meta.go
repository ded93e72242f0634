// Package seo builds the title, description and Open Graph tags for listing
// and search pages.
package seo

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/pg-finder/internal/canon"
	"github.com/yourorg/pg-finder/internal/listing"
)

const (
	siteName          = "PG Finder"
	descriptionLimit  = 160
	defaultSearchDesc = "Find verified PGs and hostels with flexible sharing options, amenities and virtual tours."
)

type Meta struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical"`
	OpenGraph   map[string]string `json:"open_graph"`
}

func ListingMeta(l listing.Listing, baseURL string) Meta {
	title := fmt.Sprintf("%s in %s | %s", l.Title, l.Location, siteName)
	desc := l.Description
	if strings.TrimSpace(desc) == "" {
		desc = fmt.Sprintf("%s PG in %s from ₹%s/month.", genderLabel(l.GenderPreference), l.Location, rupees(l.Price))
		if len(l.Amenities) > 0 {
			desc += " Amenities: " + strings.Join(l.Amenities, ", ") + "."
		}
	}
	desc = truncate(canon.CollapseSpaces(desc), descriptionLimit)

	canonical := strings.TrimRight(baseURL, "/") + "/listings/" + url.PathEscape(l.ID)
	if slug := canon.Slug(l.Title); slug != "" {
		canonical += "/" + slug
	}

	og := map[string]string{
		"og:type":        "website",
		"og:site_name":   siteName,
		"og:title":       title,
		"og:description": desc,
		"og:url":         canonical,
	}
	if len(l.Images) > 0 {
		og["og:image"] = l.Images[0]
	}
	return Meta{Title: title, Description: desc, Canonical: canonical, OpenGraph: og}
}

// SearchMeta describes a search results page. The canonical URL carries the
// non-default criteria so it can be shared.
func SearchMeta(c listing.Criteria, count int, baseURL string) Meta {
	c = c.Sanitize()
	where := "India"
	if c.Location != "" {
		where = c.Location
	}
	subject := "PGs & Hostels"
	if c.Gender != listing.GenderAny {
		subject = genderLabel(listing.GenderPreference(c.Gender)) + " " + subject
	}
	title := fmt.Sprintf("%s in %s | %s", subject, where, siteName)

	desc := defaultSearchDesc
	if count > 0 {
		desc = fmt.Sprintf("%d %s in %s between ₹%s and ₹%s per month. %s",
			count, plural(count, "listing", "listings"), where, rupees(c.PriceMin), rupees(c.PriceMax), defaultSearchDesc)
	}
	desc = truncate(desc, descriptionLimit)

	canonical := strings.TrimRight(baseURL, "/") + "/search"
	if q := c.Query().Encode(); q != "" {
		canonical += "?" + q
	}
	return Meta{
		Title:       title,
		Description: desc,
		Canonical:   canonical,
		OpenGraph: map[string]string{
			"og:type":        "website",
			"og:site_name":   siteName,
			"og:title":       title,
			"og:description": desc,
			"og:url":         canonical,
		},
	}
}

func genderLabel(g listing.GenderPreference) string {
	switch g {
	case listing.GenderMen:
		return "Men's"
	case listing.GenderWomen:
		return "Women's"
	default:
		return "Co-living"
	}
}

func rupees(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate cuts s to at most n runes, ending on a word boundary with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n-3])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.") + "..."
}
