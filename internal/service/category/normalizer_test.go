package category

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"Starbucks #4521", models.CategoryRestaurants},
		{"Blue Bottle Coffee", models.CategoryRestaurants},
		{"COFFEE SHOP", models.CategoryRestaurants},
		{"Trader Joe's Market", models.CategoryGroceries},
		{"Local Grocery Store", models.CategoryGroceries},
		{"Acme Corp", models.CategoryOther},
		{"", models.CategoryOther},
		{"Uncategorized", models.CategoryOther},
		// restaurants keywords win over grocery keywords
		{"Starbucks at the Market", models.CategoryRestaurants},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}
