package model

// Mode identifies how a form session was opened.
type Mode string

const (
	ModeAdd       Mode = "add"
	ModeEdit      Mode = "edit"
	ModeEditDraft Mode = "edit-draft"
)

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
)

// MediaSlot is one of the four independent media categories. Each slot has
// its own staged-file/preview pair.
type MediaSlot string

const (
	SlotThumbnail  MediaSlot = "thumbnail"
	SlotGallery    MediaSlot = "gallery"
	SlotFloorPlans MediaSlot = "floorPlans"
	SlotDeedImage  MediaSlot = "deedImage"
)

// ListSlots are the slots that hold an ordered list of files rather than a
// single file.
var ListSlots = map[MediaSlot]bool{
	SlotGallery:    true,
	SlotFloorPlans: true,
}

// File is a binary asset selected by the user but not yet uploaded.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// FAQ is one question/answer entry attached to a listing. IDs are preserved
// from the server on load and minted from the clock for new entries.
type FAQ struct {
	ID            int64  `json:"id"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DisplayOnPage bool   `json:"display_on_page"`
}

// FormData is the canonical editable record. Numeric characteristics are
// kept as strings until submission-time coercion.
type FormData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	District    string `json:"district"`

	CategoryID string `json:"category_id"`
	ProjectID  string `json:"project_id"`
	BuildingID string `json:"building_id"`
	FacadeID   string `json:"facade_id"`

	Purpose            string       `json:"purpose"`
	PropertyType       PropertyType `json:"property_type"`
	PaymentMethod      string       `json:"payment_method"`
	AdvertisingLicense string       `json:"advertising_license"`
	OwnerNumber        string       `json:"owner_number"`
	VirtualTourURL     string       `json:"virtual_tour_url"`
	Price              string       `json:"price"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Characteristics holds every numeric-as-string characteristic keyed
	// by CharacteristicKeys. Absent keys read as the empty string.
	Characteristics map[string]string `json:"characteristics"`

	Features []string `json:"features"`
	FAQs     []FAQ    `json:"faqs"`
}

// FacilityTable is the fixed, ordered set of characteristic keys watched by
// the derived facility selector. The order is the table definition order,
// not alphabetical.
var FacilityTable = []string{
	"bedrooms",
	"bathrooms",
	"livingRooms",
	"kitchens",
	"guestRooms",
	"floors",
	"floorNumber",
	"balconies",
	"pools",
	"elevators",
	"parkingSpots",
	"maidsRooms",
	"driversRooms",
	"storageRooms",
	"basements",
	"gardens",
	"annexes",
	"laundryRooms",
	"airConditioners",
}

// CharacteristicKeys is the full coercion list: every facility key plus the
// geometry fields and street widths.
var CharacteristicKeys = append(append([]string{}, FacilityTable...),
	"size",
	"landSize",
	"streetWidthNorth",
	"streetWidthSouth",
	"streetWidthEast",
	"streetWidthWest",
	"yearBuilt",
)

// Images holds staged binaries per slot; gallery and floor plans are ordered
// lists, the rest single values.
type Images struct {
	Thumbnail  *File
	Gallery    []*File
	FloorPlans []*File
	DeedImage  *File
}

// Previews holds the user-visible reference per slot: a transient local
// handle for unsaved files or a persisted remote URL/path for saved ones.
// List slots stay index-aligned with Images.
type Previews struct {
	Thumbnail  string   `json:"thumbnail"`
	Gallery    []string `json:"gallery"`
	FloorPlans []string `json:"floor_plans"`
	DeedImage  string   `json:"deed_image"`
}

// ValidationErrors maps a field key to a user-facing message. Absence of a
// key means the field is valid.
type ValidationErrors map[string]string

// DraftIssues carries the draft endpoint's own description of what is
// incomplete. Passthrough for UI highlighting, never derived locally.
type DraftIssues struct {
	MissingFields    []string `json:"missing_fields"`
	MissingFieldsAr  []string `json:"missing_fields_ar"`
	ValidationErrors []string `json:"validation_errors"`
}

// Option is one reference-data choice (category, facade, project, building).
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultFormData returns the built-in default record used for add mode and
// as the fallback when a record fetch fails.
func DefaultFormData(fallbackLat, fallbackLng float64) FormData {
	return FormData{
		Latitude:        fallbackLat,
		Longitude:       fallbackLng,
		Characteristics: make(map[string]string),
		Features:        []string{},
		FAQs:            []FAQ{},
	}
}

// scalarFields maps patchable field keys to accessors. Latitude/longitude
// are deliberately absent: coordinates only move through the map sync.
var scalarFields = map[string]func(*FormData) *string{
	"title":               func(f *FormData) *string { return &f.Title },
	"description":         func(f *FormData) *string { return &f.Description },
	"address":             func(f *FormData) *string { return &f.Address },
	"city":                func(f *FormData) *string { return &f.City },
	"district":            func(f *FormData) *string { return &f.District },
	"category_id":         func(f *FormData) *string { return &f.CategoryID },
	"project_id":          func(f *FormData) *string { return &f.ProjectID },
	"building_id":         func(f *FormData) *string { return &f.BuildingID },
	"facade_id":           func(f *FormData) *string { return &f.FacadeID },
	"purpose":             func(f *FormData) *string { return &f.Purpose },
	"payment_method":      func(f *FormData) *string { return &f.PaymentMethod },
	"advertising_license": func(f *FormData) *string { return &f.AdvertisingLicense },
	"owner_number":        func(f *FormData) *string { return &f.OwnerNumber },
	"virtual_tour_url":    func(f *FormData) *string { return &f.VirtualTourURL },
	"price":               func(f *FormData) *string { return &f.Price },
}

var characteristicSet = func() map[string]bool {
	set := make(map[string]bool, len(CharacteristicKeys))
	for _, k := range CharacteristicKeys {
		set[k] = true
	}
	return set
}()

// SetField writes a scalar or characteristic field by key. Returns false for
// unknown keys.
func (f *FormData) SetField(key, value string) bool {
	if key == "property_type" {
		f.PropertyType = PropertyType(value)
		return true
	}
	if ref, ok := scalarFields[key]; ok {
		*ref(f) = value
		return true
	}
	if characteristicSet[key] {
		if f.Characteristics == nil {
			f.Characteristics = make(map[string]string)
		}
		f.Characteristics[key] = value
		return true
	}
	return false
}

// Field reads a scalar or characteristic field by key.
func (f *FormData) Field(key string) (string, bool) {
	if key == "property_type" {
		return string(f.PropertyType), true
	}
	if ref, ok := scalarFields[key]; ok {
		return *ref(f), true
	}
	if characteristicSet[key] {
		return f.Characteristics[key], true
	}
	return "", false
}
