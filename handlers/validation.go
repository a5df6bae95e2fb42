package handlers

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// FieldErrors maps a JSON field name to its validation messages
type FieldErrors map[string][]string

// ValidationProblem is the 400 body for invalid requests
type ValidationProblem struct {
	Title  string      `json:"title"`
	Status int         `json:"status"`
	Errors FieldErrors `json:"errors"`
}

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Validate EventDate as the time it wraps
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(EventDate); ok {
			return d.Time()
		}
		return nil
	}, EventDate{})

	registerRule("notblank", "{0} must not be empty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	registerRule("future", "{0} must be after today", func(fl validator.FieldLevel) bool {
		switch v := fl.Field().Interface().(type) {
		case time.Time:
			return isAfterToday(v)
		case *time.Time:
			return v != nil && isAfterToday(*v)
		case EventDate:
			return isAfterToday(v.Time())
		}
		return false
	})
}

func registerRule(tag, message string, fn validator.Func) {
	_ = validate.RegisterValidation(tag, fn)
	_ = validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, message, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	})
}

// isAfterToday reports whether t falls after the start of the current day
func isAfterToday(t time.Time) bool {
	now := time.Now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return t.After(today)
}

// validateRequest checks req against its validate tags
func validateRequest(req interface{}) FieldErrors {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"body": {err.Error()}}
	}

	errs := FieldErrors{}
	for _, e := range validatorErrs {
		errs[e.Field()] = append(errs[e.Field()], e.Translate(trans))
	}
	return errs
}

func respondValidation(c *gin.Context, errs FieldErrors) {
	c.JSON(http.StatusBadRequest, ValidationProblem{
		Title:  "One or more validation errors occurred.",
		Status: http.StatusBadRequest,
		Errors: errs,
	})
}

// bindAndValidate decodes the JSON body into req and validates it.
// It writes the 400 response itself and returns false on failure.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidation(c, FieldErrors{"body": {"Invalid request body"}})
		return false
	}
	if errs := validateRequest(req); errs != nil {
		respondValidation(c, errs)
		return false
	}
	return true
}
