package config

import (
	"fmt"
	"strings"
	"sync"

	"vtt-feedback/internal/feedback"
	appErrors "vtt-feedback/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("eventtime", func(fl validator.FieldLevel) bool {
			_, ok := feedback.ParseTime(fl.Field().String())
			return ok
		})
		validate.RegisterStructValidation(windowValidation, Config{})
	})
	return validate
}

// windowValidation rejects a window whose lower bound is after its upper bound.
func windowValidation(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Since == "" || cfg.Until == "" {
		return
	}
	since, until := cfg.Window()
	if !since.IsZero() && !until.IsZero() && since.After(until) {
		sl.ReportError(cfg.Since, "Since", "since", "beforeuntil", "")
	}
}

// Validate checks the configuration and returns a VALIDATION error listing
// every offending field.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		return appErrors.NewValidationError("invalid configuration").WithCause(err)
	}

	msgs := make([]string, 0, len(verrs))
	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
		fields[fe.Field()] = fe.Tag()
	}
	return appErrors.NewValidationError("invalid configuration: " + strings.Join(msgs, "; ")).
		WithDetails(fields)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "eventtime":
		return fmt.Sprintf("%s must be an RFC 3339 time or YYYY-MM-DD date, got %q", fe.Field(), fe.Value())
	case "beforeuntil":
		return "since must not be after until"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
