package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
	"golang.org/x/text/language"

	"github.com/go-drift/bind/pkg/binding"
	"github.com/go-drift/bind/pkg/observability"
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	must(v.RegisterValidation("semver_major", validateSchemaVersion))
	must(v.RegisterValidation("mode", validateMode))
	must(v.RegisterValidation("locale", validateLocale))
	must(v.RegisterValidation("observer", validateObserver))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// validateSchemaVersion accepts semantic versions with SchemaVersion's
// major version. A leading "v" is optional.
func validateSchemaVersion(fl validator.FieldLevel) bool {
	v := strings.TrimSpace(fl.Field().String())
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v) && semver.Major(v) == semver.Major(SchemaVersion)
}

func validateMode(fl validator.FieldLevel) bool {
	_, err := binding.ParseMode(fl.Field().String())
	return err == nil
}

// validateObserver accepts the built-in observers and registered names.
func validateObserver(fl validator.FieldLevel) bool {
	switch kind := fl.Field().String(); kind {
	case ObserverSlog, ObserverPrometheus:
		return true
	default:
		_, err := observability.GetObserver(kind)
		return err == nil
	}
}

func validateLocale(fl validator.FieldLevel) bool {
	_, err := language.Parse(strings.TrimSpace(fl.Field().String()))
	return err == nil
}
