package loader

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/model"
)

// charMapping normalizes one characteristic concept. Lookup order is
// top-level (primary, then aliases) before the nested characteristics
// sub-object (same order), before the empty default. An alias at the
// top level still beats the primary key at the nested level.
type charMapping struct {
	key    string
	top    []string
	nested []string
}

var charMappings = []charMapping{
	{key: "bedrooms", top: []string{"bedrooms", "beds"}, nested: []string{"bedrooms", "beds"}},
	{key: "bathrooms", top: []string{"bathrooms", "baths"}, nested: []string{"bathrooms", "baths"}},
	{key: "livingRooms", top: []string{"living_rooms"}, nested: []string{"living_rooms"}},
	{key: "kitchens", top: []string{"kitchens"}, nested: []string{"kitchens"}},
	{key: "guestRooms", top: []string{"guest_rooms"}, nested: []string{"guest_rooms"}},
	{key: "floors", top: []string{"floors", "number_of_floors"}, nested: []string{"floors"}},
	{key: "floorNumber", top: []string{"floor_number"}, nested: []string{"floor_number"}},
	{key: "balconies", top: []string{"balconies"}, nested: []string{"balconies"}},
	{key: "pools", top: []string{"pools", "swimming_pools"}, nested: []string{"pools"}},
	{key: "elevators", top: []string{"elevators"}, nested: []string{"elevators"}},
	{key: "parkingSpots", top: []string{"parking_spots", "garages"}, nested: []string{"parking_spots"}},
	{key: "maidsRooms", top: []string{"maids_rooms"}, nested: []string{"maids_rooms"}},
	{key: "driversRooms", top: []string{"drivers_rooms"}, nested: []string{"drivers_rooms"}},
	{key: "storageRooms", top: []string{"storage_rooms"}, nested: []string{"storage_rooms"}},
	{key: "basements", top: []string{"basements"}, nested: []string{"basements"}},
	{key: "gardens", top: []string{"gardens"}, nested: []string{"gardens"}},
	{key: "annexes", top: []string{"annexes"}, nested: []string{"annexes"}},
	{key: "laundryRooms", top: []string{"laundry_rooms"}, nested: []string{"laundry_rooms"}},
	{key: "airConditioners", top: []string{"air_conditioners"}, nested: []string{"air_conditioners"}},
	{key: "size", top: []string{"size", "area"}, nested: []string{"size", "area"}},
	{key: "landSize", top: []string{"land_size", "land_area"}, nested: []string{"land_size"}},
	{key: "streetWidthNorth", top: []string{"street_width_north"}, nested: []string{"street_width_north"}},
	{key: "streetWidthSouth", top: []string{"street_width_south"}, nested: []string{"street_width_south"}},
	{key: "streetWidthEast", top: []string{"street_width_east"}, nested: []string{"street_width_east"}},
	{key: "streetWidthWest", top: []string{"street_width_west"}, nested: []string{"street_width_west"}},
	{key: "yearBuilt", top: []string{"year_built"}, nested: []string{"year_built"}},
}

func (m charMapping) resolve(p *backend.Property) string {
	for _, key := range m.top {
		if v := p.Top(key); v != "" {
			return v
		}
	}
	for _, key := range m.nested {
		if v := p.Nested(key); v != "" {
			return v
		}
	}
	return ""
}

// localizedField resolves title/address/description/city/district with the
// draft-content sub-object taking precedence over the top-level field.
func localizedField(p *backend.Property, key string) string {
	if v := p.Content(key); v != "" {
		return v
	}
	return p.Top(key)
}

// normalizeFeatures splits a delimited string into trimmed entries; a list
// passes through as-is.
func normalizeFeatures(p *backend.Property) []string {
	if s, ok := p.TopString("features"); ok {
		parts := strings.Split(s, ",")
		return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
			trimmed := strings.TrimSpace(part)
			return trimmed, trimmed != ""
		})
	}
	return p.TopStrings("features")
}

// normalizeFAQs keeps server-assigned ids and mints clock-based ids for
// entries that arrived without one.
func normalizeFAQs(wire []backend.WireFAQ) []model.FAQ {
	base := time.Now().UnixMilli()
	return lo.Map(wire, func(w backend.WireFAQ, i int) model.FAQ {
		id := w.ID
		if id == 0 {
			id = base + int64(i)
		}
		return model.FAQ{
			ID:            id,
			Question:      w.Question,
			Answer:        w.Answer,
			DisplayOnPage: bool(w.DisplayOnPage),
		}
	})
}

// resolvePropertyType prefers an explicit property_type field and falls back
// to a residential/commercial tag on the generic type field.
func resolvePropertyType(p *backend.Property) model.PropertyType {
	switch p.Top("property_type") {
	case string(model.PropertyResidential):
		return model.PropertyResidential
	case string(model.PropertyCommercial):
		return model.PropertyCommercial
	}
	generic := strings.ToLower(p.Top("type"))
	switch {
	case strings.Contains(generic, "residential"):
		return model.PropertyResidential
	case strings.Contains(generic, "commercial"):
		return model.PropertyCommercial
	}
	return ""
}

// previewKeys maps each slot to its shape-specific wire keys in precedence
// order: published name first, draft alias second.
var previewKeys = map[model.MediaSlot][]string{
	model.SlotThumbnail:  {"featured_image", "featured_image_url"},
	model.SlotGallery:    {"gallery", "gallery_images"},
	model.SlotFloorPlans: {"floor_planning_image", "floor_plan_images"},
	model.SlotDeedImage:  {"deed_image", "deed_image_url"},
}

func normalizePreviews(p *backend.Property) model.Previews {
	single := func(slot model.MediaSlot) string {
		for _, key := range previewKeys[slot] {
			if v := p.Top(key); v != "" {
				return v
			}
		}
		return ""
	}
	list := func(slot model.MediaSlot) []string {
		for _, key := range previewKeys[slot] {
			items := p.TopStrings(key)
			kept := lo.Filter(items, func(item string, _ int) bool { return item != "" })
			if len(kept) > 0 {
				return kept
			}
		}
		return nil
	}

	return model.Previews{
		Thumbnail:  single(model.SlotThumbnail),
		Gallery:    list(model.SlotGallery),
		FloorPlans: list(model.SlotFloorPlans),
		DeedImage:  single(model.SlotDeedImage),
	}
}
