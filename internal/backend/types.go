package backend

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Property is one record as served by either the published endpoint or the
// draft endpoint. The two shapes are incompatible: published records are
// flat, drafts nest localized content under contents[0] and characteristics
// under user_property_characteristics, with their own media key names. The
// raw maps keep every field addressable by key so the loader can apply its
// precedence tables without shape-specific branches.
type Property struct {
	ID int64

	top      map[string]json.RawMessage
	nested   map[string]json.RawMessage
	contents map[string]json.RawMessage
}

// UnmarshalJSON decodes the record into the three addressable layers.
func (p *Property) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &p.top); err != nil {
		return err
	}

	if raw, ok := p.top["id"]; ok {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			p.ID, _ = n.Int64()
		}
	}

	if raw, ok := p.top["user_property_characteristics"]; ok {
		// Decode errors leave the layer empty; precedence falls through.
		_ = json.Unmarshal(raw, &p.nested)
	}

	if raw, ok := p.top["contents"]; ok {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
			p.contents = items[0]
		}
	}

	return nil
}

// Top returns the stringified top-level value for key, or "" when absent.
func (p *Property) Top(key string) string {
	return stringify(p.top[key])
}

// Nested returns the stringified characteristics sub-object value for key.
func (p *Property) Nested(key string) string {
	return stringify(p.nested[key])
}

// Content returns the stringified contents[0] value for key (draft shape).
func (p *Property) Content(key string) string {
	return stringify(p.contents[key])
}

// TopString returns the top-level value only when it is a JSON string.
// Callers that must distinguish a delimited string from a list use this
// before falling back to TopStrings.
func (p *Property) TopString(key string) (string, bool) {
	raw, ok := p.top[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// TopStrings decodes a top-level value that may be a plain string, a
// delimited string, or a string array.
func (p *Property) TopStrings(key string) []string {
	raw, ok := p.top[key]
	if !ok {
		return nil
	}
	var flex FlexStrings
	if err := json.Unmarshal(raw, &flex); err != nil {
		return nil
	}
	return flex
}

// TopFloat parses a top-level numeric value, tolerating string encoding.
func (p *Property) TopFloat(key string) (float64, bool) {
	s := p.Top(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FAQs decodes the record's FAQ list, tolerating numeric booleans.
func (p *Property) FAQs() []WireFAQ {
	raw, ok := p.top["faqs"]
	if !ok {
		return nil
	}
	var faqs []WireFAQ
	if err := json.Unmarshal(raw, &faqs); err != nil {
		return nil
	}
	return faqs
}

// DraftStrings decodes one of the draft bookkeeping lists (missing_fields,
// missing_fields_ar, validation_errors).
func (p *Property) DraftStrings(key string) []string {
	raw, ok := p.top[key]
	if !ok {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// WireFAQ is the FAQ shape on the wire.
type WireFAQ struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	DisplayOnPage FlexBool `json:"display_on_page"`
}

// FlexStrings accepts either a JSON string array or a single string.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*f = nil
		return nil
	}
	*f = []string{s}
	return nil
}

// FlexBool accepts true/false, 0/1 and their string forms.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// stringify renders a raw JSON scalar as the form's string representation.
// Numbers keep their literal form, null and absent values read as "".
func stringify(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err == nil {
		if v {
			return "1"
		}
		return "0"
	}
	return ""
}

// PropertyPayload is the create/update body. Features is a comma-joined
// string on create and a string list on update; the backend's two endpoints
// expect different forms.
type PropertyPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city,omitempty"`
	District    string `json:"district,omitempty"`

	CategoryID int64 `json:"category_id,omitempty"`
	ProjectID  int64 `json:"project_id,omitempty"`
	BuildingID int64 `json:"building_id,omitempty"`
	FacadeID   int64 `json:"facade_id,omitempty"`

	Purpose            string  `json:"purpose"`
	PropertyType       string  `json:"property_type,omitempty"`
	PaymentMethod      string  `json:"payment_method,omitempty"`
	AdvertisingLicense string  `json:"advertising_license,omitempty"`
	OwnerNumber        string  `json:"owner_number,omitempty"`
	VirtualTourURL     string  `json:"virtual_tour_url,omitempty"`
	Price              float64 `json:"price"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Characteristics map[string]float64 `json:"characteristics"`

	Features any        `json:"features,omitempty"`
	FAQs     []WireFAQ2 `json:"faqs,omitempty"`

	FeaturedImage      string   `json:"featured_image,omitempty"`
	Gallery            []string `json:"gallery,omitempty"`
	FloorPlanningImage []string `json:"floor_planning_image,omitempty"`
	DeedImage          string   `json:"deed_image,omitempty"`
	VideoURL           string   `json:"video_url,omitempty"`

	// Status is stamped by the caller from the explicit user action
	// (1 publish, 0 draft), never inferred from record contents.
	Status *int `json:"status,omitempty"`
}

// WireFAQ2 is the outbound FAQ shape; display_on_page goes out as a plain
// boolean.
type WireFAQ2 struct {
	ID            int64  `json:"id,omitempty"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DisplayOnPage bool   `json:"display_on_page"`
}

// CompleteDraftPayload is the reduced body for draft completion.
type CompleteDraftPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	City        string  `json:"city,omitempty"`
	District    string  `json:"district,omitempty"`
	CategoryID  int64   `json:"category_id,omitempty"`
	Purpose     string  `json:"purpose"`
	Price       float64 `json:"price"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}
