package models

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag   = "notblank"
	nonNegTextTag = "nonneg_number"
	finiteTag     = "finite"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// Сообщения показываются рядом с полем формы, поэтому имя поля в них не повторяется.
var fieldMessages = map[string]string{
	"required":    "This field is required.",
	notBlankTag:   "This field is required.",
	"email":       "Enter a valid email address.",
	"eqfield":     "Values do not match.",
	"min":         "Must be at least {0} characters.",
	"oneof":       "Choose one of: {0}.",
	"gte":         "Must be at least {0}.",
	"lte":         "Must be at most {0}.",
	nonNegTextTag: "Must be a non-negative number.",
	finiteTag:     "Must be a number.",
}

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// имя поля берется из form, затем из json: так ошибки совпадают с именами полей формы
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(nonNegTextTag, nonNegativeNumberValidation)
	_ = validate.RegisterValidation(finiteTag, finiteValidation)

	for tag, text := range fieldMessages {
		registerMessage(tag, text)
	}
}

func registerMessage(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

// Validate проверяет структуру по тегам validate.
func Validate(s any) error {
	return toValidationError(validate.Struct(s), "")
}

// ValidateField проверяет одно значение, field - имя поля формы для сообщения.
func ValidateField(field string, value any, tag string) error {
	return toValidationError(validate.Var(value, tag), field)
}

func toValidationError(err error, field string) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := NewValidationError("")
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		verr.Add(name, fe.Translate(translator))
	}
	return verr.Err()
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// nonNegativeNumberValidation - для чисел, которые приходят из формы строкой (цена, часы).
func nonNegativeNumberValidation(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func finiteValidation(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	default:
		return false
	}
}
