// Package category maps raw merchant/category strings onto the fixed
// spend taxonomy.
package category

import (
	"strings"

	"github.com/pigmint/savings-pipeline/internal/models"
)

// Keyword tables checked in priority order. Matching is case-insensitive
// substring, first hit wins.
var (
	restaurantKeywords = []string{"coffee", "starbucks"}
	groceryKeywords    = []string{"grocery", "market"}
)

// Normalize is total: every input maps to a category, unknown input is Other.
func Normalize(raw string) string {
	lowered := strings.ToLower(raw)

	for _, kw := range restaurantKeywords {
		if strings.Contains(lowered, kw) {
			return models.CategoryRestaurants
		}
	}
	for _, kw := range groceryKeywords {
		if strings.Contains(lowered, kw) {
			return models.CategoryGroceries
		}
	}

	return models.CategoryOther
}
