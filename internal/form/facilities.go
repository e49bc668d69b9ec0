package form

import (
	"strconv"

	"github.com/samber/lo"

	"github.com/sakanhub/listing/internal/model"
)

// ActiveFacilities returns the facility keys considered active for the
// record: value present and numerically >= 0. The result follows the fixed
// facility table order, not alphabetical order. It only drives selection
// state; the submission payload reads the raw fields directly.
func ActiveFacilities(data model.FormData) []string {
	return lo.Filter(model.FacilityTable, func(key string, _ int) bool {
		value := data.Characteristics[key]
		if value == "" {
			return false
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		// NaN compares false here, which is exactly the exclusion we want.
		return n >= 0
	})
}
