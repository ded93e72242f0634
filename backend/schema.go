package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	listingSchema = mustSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"id", "title", "location", "price", "created_at"},
		"properties": map[string]interface{}{
			"id":                map[string]interface{}{"type": "string", "minLength": 1},
			"owner_id":          map[string]interface{}{"type": []interface{}{"string", "null"}},
			"title":             map[string]interface{}{"type": "string"},
			"description":       map[string]interface{}{"type": []interface{}{"string", "null"}},
			"location":          map[string]interface{}{"type": "string"},
			"address":           map[string]interface{}{"type": []interface{}{"string", "null"}},
			"price":             map[string]interface{}{"type": "number"},
			"price_single":      map[string]interface{}{"type": []interface{}{"number", "null"}},
			"price_double":      map[string]interface{}{"type": []interface{}{"number", "null"}},
			"price_triple":      map[string]interface{}{"type": []interface{}{"number", "null"}},
			"gender_preference": map[string]interface{}{"type": []interface{}{"string", "null"}},
			"amenities":         stringArrayOrNull,
			"images":            stringArrayOrNull,
			"rating":            map[string]interface{}{"type": []interface{}{"number", "null"}},
			"virtual_tour_url":  map[string]interface{}{"type": []interface{}{"string", "null"}},
			"available":         map[string]interface{}{"type": []interface{}{"boolean", "null"}},
			"rooms_available":   map[string]interface{}{"type": []interface{}{"integer", "null"}},
			"created_at":        map[string]interface{}{"type": "string", "format": "date-time"},
		},
	})

	reviewSchema = mustSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"id", "listing_id", "rating", "created_at"},
		"properties": map[string]interface{}{
			"id":         map[string]interface{}{"type": "string", "minLength": 1},
			"listing_id": map[string]interface{}{"type": "string"},
			"user_id":    map[string]interface{}{"type": []interface{}{"string", "null"}},
			"user_name":  map[string]interface{}{"type": []interface{}{"string", "null"}},
			"rating":     map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5},
			"comment":    map[string]interface{}{"type": []interface{}{"string", "null"}},
			"created_at": map[string]interface{}{"type": "string", "format": "date-time"},
		},
	})
)

var stringArrayOrNull = map[string]interface{}{
	"type":  []interface{}{"array", "null"},
	"items": map[string]interface{}{"type": "string"},
}

func mustSchema(schemaMap map[string]interface{}) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		panic(fmt.Sprintf("backend: invalid row schema: %v", err))
	}
	return s
}

// validateRow checks one raw row against schema and returns a readable
// summary of every violation.
func validateRow(schema *gojsonschema.Schema, raw json.RawMessage) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var msgs []string
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid row: %s", strings.Join(msgs, "; "))
}
