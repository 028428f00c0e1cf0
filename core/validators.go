package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Translator holds the translator registered by InitValidators; used to
// render validator.FieldError messages for display.
var Translator ut.Translator

var (
	// custom validation tags & texts
	attendanceCodeTag   = "attendance_code"
	attendanceCodeText  = "must be a 6 or 7 character alphanumeric code"
	attendanceCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{6,7}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	latitudeText  = "must be a valid latitude"
	longitudeText = "must be a valid longitude"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	Translator = translator
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(attendanceCodeTag, attendanceCodeValidation)
	RegisterCustomTranslation(validate, translator, attendanceCodeTag, attendanceCodeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, "latitude", latitudeText, true)
	RegisterCustomTranslation(validate, translator, "longitude", longitudeText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// attendanceCodeValidation matches the fixed attendance code format:
// 6 or 7 alphanumeric characters, case-insensitive.
func attendanceCodeValidation(fl validator.FieldLevel) bool {
	return attendanceCodeRegex.MatchString(fl.Field().String())
}
