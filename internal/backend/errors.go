package backend

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

var (
	// ErrNotFound is returned when a property or draft does not exist.
	ErrNotFound = errors.New("property not found")

	// ErrUnexpectedResponse guards against backend contract drift: any
	// response that does not match the documented envelope is fatal to
	// the specific operation.
	ErrUnexpectedResponse = errors.New("unexpected response shape")
)

// Conflict is one entry of the backend's conflicts array.
type Conflict struct {
	Message string `json:"message"`
}

// APIError is the structured rejection body the backend returns for
// validation and conflict failures.
type APIError struct {
	StatusCode int                    `json:"-"`
	Message    string                 `json:"message"`
	Errors     map[string]FlexStrings `json:"errors"`
	Conflicts  []Conflict             `json:"conflicts"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request: %s", e.Message)
	}
	return fmt.Sprintf("backend rejected request with status %d", e.StatusCode)
}

// FieldErrors flattens the string-or-array error values to one message per
// field, translating known backend messages.
func (e *APIError) FieldErrors(tr *Translator) map[string]string {
	out := make(map[string]string, len(e.Errors))
	for field, msgs := range e.Errors {
		if len(msgs) == 0 {
			continue
		}
		out[field] = tr.Translate(msgs[0])
	}
	return out
}

// ConflictMessages returns the flat list of human-readable conflicts.
func (e *APIError) ConflictMessages(tr *Translator) []string {
	msgs := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		if c.Message == "" {
			continue
		}
		msgs = append(msgs, tr.Translate(c.Message))
	}
	return msgs
}

// builtinTranslations rewrites the handful of known English backend messages
// into localized user-facing text. Everything else passes through verbatim.
var builtinTranslations = map[string]string{
	"The city field is required.":               "حقل المدينة مطلوب",
	"The district field is required.":           "حقل الحي مطلوب",
	"The selected category id is invalid.":      "التصنيف المحدد غير صالح",
	"The advertising license is not valid.":     "رخصة الإعلان غير صالحة",
	"A property with this deed already exists.": "يوجد إعلان مسجل بنفس الصك",
}

// Translator maps known backend messages to localized text.
type Translator struct {
	table map[string]string
}

// NewTranslator returns a translator seeded with the built-in table.
func NewTranslator() *Translator {
	table := make(map[string]string, len(builtinTranslations))
	for k, v := range builtinTranslations {
		table[k] = v
	}
	return &Translator{table: table}
}

// LoadFile merges translations from a TOML file into the table. File entries
// override built-ins.
func (t *Translator) LoadFile(path string) error {
	var doc struct {
		Messages map[string]string `toml:"messages"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	for k, v := range doc.Messages {
		t.table[k] = v
	}
	return nil
}

// Translate returns the localized form of msg, or msg itself when unknown.
func (t *Translator) Translate(msg string) string {
	if localized, ok := t.table[msg]; ok {
		return localized
	}
	return msg
}
