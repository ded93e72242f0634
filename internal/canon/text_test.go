package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Sunrise PG, HSR Layout", "sunrise-pg-hsr-layout"},
		{"  Girls' Hostel -- Near Metro ", "girls-hostel-near-metro"},
		{"Co-Living @ Whitefield", "co-living-whitefield"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "Koramangala, Bangalore", Location("  Koramangala ,Bangalore "))
	assert.Equal(t, "HSR Layout, Bangalore", Location("HSR   Layout,  Bangalore,"))
	assert.Equal(t, "", Location("   "))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Cozy room near park", CollapseSpaces("\tCozy  room\nnear park "))
}
