package validate

import (
	"fmt"
	"net/url"

	"github.com/sakanhub/listing/internal/model"
)

// Field messages surfaced next to the offending input.
const (
	msgTitleRequired       = "حقل عنوان الإعلان مطلوب"
	msgAddressRequired     = "حقل العنوان مطلوب"
	msgPurposeRequired     = "حقل الغرض مطلوب"
	msgCategoryRequired    = "حقل التصنيف مطلوب"
	msgDescriptionRequired = "حقل الوصف مطلوب"
	msgThumbnailRequired   = "الصورة الرئيسية مطلوبة"
)

// Validate maps (record, staged files, existing previews, mode) to the
// field-keyed error map. Only the required set is checked here; numeric
// coercion and defaulting happen later in the formatter, not in validation.
// Errors are additive: each missing field contributes its own key.
func Validate(data model.FormData, images model.Images, previews model.Previews, mode model.Mode) model.ValidationErrors {
	errs := model.ValidationErrors{}

	if data.Title == "" {
		errs["title"] = msgTitleRequired
	}
	if data.Address == "" {
		errs["address"] = msgAddressRequired
	}
	if data.Purpose == "" {
		errs["purpose"] = msgPurposeRequired
	}
	// Keyed by the patch key so editing the category clears its error.
	if data.CategoryID == "" {
		errs["category_id"] = msgCategoryRequired
	}
	if data.Description == "" {
		errs["description"] = msgDescriptionRequired
	}

	// Add mode needs a staged thumbnail; edit mode tolerates an untouched
	// existing one.
	switch mode {
	case model.ModeAdd:
		if images.Thumbnail == nil {
			errs["thumbnail"] = msgThumbnailRequired
		}
	default:
		if images.Thumbnail == nil && previews.Thumbnail == "" {
			errs["thumbnail"] = msgThumbnailRequired
		}
	}

	return errs
}

// ValidateURL checks a URL-typed field on demand. Empty values are exempt;
// a non-blank value must parse as a well-formed absolute URL.
func ValidateURL(value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url %q", value)
	}
	return nil
}
