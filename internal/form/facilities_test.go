package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakanhub/listing/internal/model"
)

func TestActiveFacilities(t *testing.T) {
	tests := []struct {
		name            string
		characteristics map[string]string
		expected        []string
	}{
		{
			name:            "empty record",
			characteristics: map[string]string{},
			expected:        []string{},
		},
		{
			name: "zero counts as active",
			characteristics: map[string]string{
				"bedrooms": "0",
			},
			expected: []string{"bedrooms"},
		},
		{
			name: "positive counts",
			characteristics: map[string]string{
				"bedrooms":  "3",
				"bathrooms": "2",
			},
			expected: []string{"bedrooms", "bathrooms"},
		},
		{
			name: "negative values excluded",
			characteristics: map[string]string{
				"bedrooms": "-1",
				"pools":    "1",
			},
			expected: []string{"pools"},
		},
		{
			name: "non-numeric values excluded",
			characteristics: map[string]string{
				"bedrooms": "many",
				"floors":   "2",
			},
			expected: []string{"floors"},
		},
		{
			name: "NaN excluded",
			characteristics: map[string]string{
				"bedrooms": "NaN",
			},
			expected: []string{},
		},
		{
			name: "fractional values accepted",
			characteristics: map[string]string{
				"bathrooms": "2.5",
			},
			expected: []string{"bathrooms"},
		},
		{
			name: "table order preserved regardless of input",
			characteristics: map[string]string{
				"airConditioners": "4",
				"bedrooms":        "3",
				"elevators":       "1",
			},
			expected: []string{"bedrooms", "elevators", "airConditioners"},
		},
		{
			name: "non-facility characteristics ignored",
			characteristics: map[string]string{
				"size":      "250",
				"yearBuilt": "2015",
				"kitchens":  "1",
			},
			expected: []string{"kitchens"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := model.DefaultFormData(0, 0)
			data.Characteristics = tt.characteristics
			assert.Equal(t, tt.expected, ActiveFacilities(data))
		})
	}
}
