package http

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
)

const notBlankTag = "notblank"

// requestValidator plugs validator/v10 into echo.Context.Validate.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if str, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(str) != ""
		}
		return false
	})
	_ = v.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return "this field cannot be blank"
		},
	)

	return &requestValidator{validate: v, translator: translator}
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// fieldErrors flattens validator errors into a field -> message map.
func (v *requestValidator) fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		// drop the struct name prefix, keep nested paths such as answers[0].questionId
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		out[field] = fe.Translate(v.translator)
	}
	return out
}

// bindAndValidate decodes the request into dst and runs struct validation.
// Decoding failures come back as 400 echo errors.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(dst)
}
