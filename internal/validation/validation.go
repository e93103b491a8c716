// Package validation wraps go-playground/validator with the storefront's
// custom rules and maps failures to domain.ErrInvalidInput.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
)

var (
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	senegalMobile   = regexp.MustCompile(`^7[0-9]{8}$`)
	franceNational  = regexp.MustCompile(`^[1-9][0-9]{8}$`)
	franceLocal     = regexp.MustCompile(`^[1-9][0-9]{9}$`)
)

// ValidPhone accepts Senegalese mobiles (+221 7XXXXXXXX or 7XXXXXXXX) and
// French numbers (+33 XXXXXXXXX or 10 digits). Spaces, dashes and brackets
// are ignored.
func ValidPhone(phone string) bool {
	clean := phoneSeparators.ReplaceAllString(phone, "")
	switch {
	case strings.HasPrefix(clean, "+221") || strings.HasPrefix(clean, "221"):
		return senegalMobile.MatchString(strings.TrimPrefix(strings.TrimPrefix(clean, "+"), "221"))
	case strings.HasPrefix(clean, "+33") || strings.HasPrefix(clean, "33"):
		return franceNational.MatchString(strings.TrimPrefix(strings.TrimPrefix(clean, "+"), "33"))
	case len(clean) == 9 && strings.HasPrefix(clean, "7"):
		return senegalMobile.MatchString(clean)
	case len(clean) == 10:
		return franceLocal.MatchString(clean)
	}
	return false
}

// Register installs the custom rules on v.
func Register(v *validator.Validate) error {
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Default returns the shared validator with custom rules registered.
func Default() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		if err := Register(instance); err != nil {
			panic(err)
		}
	})
	return instance
}

// Struct validates s and returns an error wrapping domain.ErrInvalidInput
// that names each failing field.
func Struct(s any) error {
	err := Default().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "phone":
		return field + " must be a valid phone number"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
