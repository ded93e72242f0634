package canon

import (
	"regexp"
	"strings"
)

var (
	rePunct  = regexp.MustCompile(`[^a-z0-9\s-]`)
	reDashes = regexp.MustCompile(`[\s-]+`)
	reLocSep = regexp.MustCompile(`\s*,\s*`)
)

// CollapseSpaces trims s and folds runs of whitespace into single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Location tidies a free-text locality: collapsed spaces and ", " between
// parts ("Koramangala ,Bangalore" -> "Koramangala, Bangalore"). Case is kept.
func Location(s string) string {
	s = CollapseSpaces(s)
	s = reLocSep.ReplaceAllString(s, ", ")
	return strings.Trim(s, ", ")
}

// Slug builds a lowercase URL fragment from a title ("Sunrise PG, HSR" ->
// "sunrise-pg-hsr"). Characters outside a-z0-9 are dropped.
func Slug(s string) string {
	s = strings.ToLower(CollapseSpaces(s))
	s = rePunct.ReplaceAllString(s, "")
	s = reDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
