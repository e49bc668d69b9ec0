package loader

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/model"
)

func parseProperty(t *testing.T, raw string) *backend.Property {
	t.Helper()
	var p backend.Property
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func testLoader() *Loader {
	return New(backend.New("http://unused", ""), 24.7136, 46.6753)
}

func TestNormalizeCharacteristicPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		key      string
		expected string
	}{
		{
			name:     "top-level primary wins",
			raw:      `{"bedrooms": 3, "user_property_characteristics": {"bedrooms": 5}}`,
			key:      "bedrooms",
			expected: "3",
		},
		{
			name:     "top-level alias beats nested primary",
			raw:      `{"beds": 4, "user_property_characteristics": {"bedrooms": 5}}`,
			key:      "bedrooms",
			expected: "4",
		},
		{
			name:     "nested fallback when top absent",
			raw:      `{"user_property_characteristics": {"bathrooms": 2}}`,
			key:      "bathrooms",
			expected: "2",
		},
		{
			name:     "string-encoded number kept literal",
			raw:      `{"size": "250.5"}`,
			key:      "size",
			expected: "250.5",
		},
		{
			name:     "area alias maps to size",
			raw:      `{"area": 320}`,
			key:      "size",
			expected: "320",
		},
		{
			name:     "garages alias maps to parking spots",
			raw:      `{"garages": 2}`,
			key:      "parkingSpots",
			expected: "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := testLoader().normalize(parseProperty(t, tt.raw), false)
			assert.Equal(t, tt.expected, res.Data.Characteristics[tt.key])
		})
	}
}

func TestNormalizeAbsentCharacteristicsStayAbsent(t *testing.T) {
	res := testLoader().normalize(parseProperty(t, `{"bedrooms": 3}`), false)
	assert.Contains(t, res.Data.Characteristics, "bedrooms")
	assert.NotContains(t, res.Data.Characteristics, "bathrooms")
}

func TestNormalizeLocalizedFields(t *testing.T) {
	raw := `{
		"title": "old title",
		"description": "old description",
		"contents": [{"title": "العنوان المحلي", "description": "الوصف المحلي"}]
	}`
	res := testLoader().normalize(parseProperty(t, raw), false)

	assert.Equal(t, "العنوان المحلي", res.Data.Title)
	assert.Equal(t, "الوصف المحلي", res.Data.Description)
}

func TestNormalizeLocalizedFallbackToTop(t *testing.T) {
	res := testLoader().normalize(parseProperty(t, `{"title": "top title"}`), false)
	assert.Equal(t, "top title", res.Data.Title)
}

func TestNormalizeFeatures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "delimited string split and trimmed",
			raw:      `{"features": "مسبح, مصعد , ,حديقة"}`,
			expected: []string{"مسبح", "مصعد", "حديقة"},
		},
		{
			name:     "list passes through",
			raw:      `{"features": ["مسبح", "مصعد"]}`,
			expected: []string{"مسبح", "مصعد"},
		},
		{
			name:     "absent leaves empty default",
			raw:      `{}`,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := testLoader().normalize(parseProperty(t, tt.raw), false)
			assert.Equal(t, tt.expected, res.Data.Features)
		})
	}
}

func TestNormalizeFAQs(t *testing.T) {
	raw := `{"faqs": [
		{"id": 42, "question": "q1", "answer": "a1", "display_on_page": 1},
		{"question": "q2", "answer": "a2", "display_on_page": "0"}
	]}`
	res := testLoader().normalize(parseProperty(t, raw), false)

	require.Len(t, res.Data.FAQs, 2)
	assert.Equal(t, int64(42), res.Data.FAQs[0].ID)
	assert.True(t, res.Data.FAQs[0].DisplayOnPage)
	assert.NotZero(t, res.Data.FAQs[1].ID, "entries without a server id get a minted one")
	assert.False(t, res.Data.FAQs[1].DisplayOnPage)
}

func TestResolvePropertyType(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected model.PropertyType
	}{
		{name: "explicit residential", raw: `{"property_type": "residential"}`, expected: model.PropertyResidential},
		{name: "explicit commercial", raw: `{"property_type": "commercial"}`, expected: model.PropertyCommercial},
		{name: "generic type tag", raw: `{"type": "Commercial Office"}`, expected: model.PropertyCommercial},
		{name: "generic residential tag", raw: `{"type": "residential-apartment"}`, expected: model.PropertyResidential},
		{name: "unknown stays empty", raw: `{"type": "land"}`, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := testLoader().normalize(parseProperty(t, tt.raw), false)
			assert.Equal(t, tt.expected, res.Data.PropertyType)
		})
	}
}

func TestNormalizePreviews(t *testing.T) {
	raw := `{
		"featured_image": "https://cdn.example.com/main.jpg",
		"gallery_images": ["https://cdn.example.com/1.jpg", "", "https://cdn.example.com/2.jpg"],
		"deed_image_url": "https://cdn.example.com/deed.jpg",
		"video_url": "https://cdn.example.com/tour.mp4"
	}`
	res := testLoader().normalize(parseProperty(t, raw), false)

	assert.Equal(t, "https://cdn.example.com/main.jpg", res.Previews.Thumbnail)
	assert.Equal(t, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}, res.Previews.Gallery)
	assert.Equal(t, "https://cdn.example.com/deed.jpg", res.Previews.DeedImage)
	assert.Equal(t, "https://cdn.example.com/tour.mp4", res.VideoPreview)
}

func TestNormalizePreviewKeyPrecedence(t *testing.T) {
	raw := `{
		"featured_image": "published.jpg",
		"featured_image_url": "draft.jpg"
	}`
	res := testLoader().normalize(parseProperty(t, raw), false)
	assert.Equal(t, "published.jpg", res.Previews.Thumbnail)
}

func TestNormalizeDraftIssues(t *testing.T) {
	raw := `{
		"missing_fields": ["price"],
		"missing_fields_ar": ["السعر"],
		"validation_errors": ["price must be positive"]
	}`

	published := testLoader().normalize(parseProperty(t, raw), false)
	assert.Nil(t, published.Issues)

	draft := testLoader().normalize(parseProperty(t, raw), true)
	require.NotNil(t, draft.Issues)
	assert.Equal(t, []string{"price"}, draft.Issues.MissingFields)
	assert.Equal(t, []string{"السعر"}, draft.Issues.MissingFieldsAr)
	assert.Equal(t, []string{"price must be positive"}, draft.Issues.ValidationErrors)
}

func TestNormalizeCoordinates(t *testing.T) {
	t.Run("record coordinates win", func(t *testing.T) {
		res := testLoader().normalize(parseProperty(t, `{"latitude": "21.5", "longitude": 39.2}`), false)
		assert.Equal(t, 21.5, res.Data.Latitude)
		assert.Equal(t, 39.2, res.Data.Longitude)
	})

	t.Run("fallback when absent", func(t *testing.T) {
		res := testLoader().normalize(parseProperty(t, `{}`), false)
		assert.Equal(t, 24.7136, res.Data.Latitude)
		assert.Equal(t, 46.6753, res.Data.Longitude)
	})
}
