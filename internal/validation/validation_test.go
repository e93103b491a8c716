package validation

import (
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"
)

func TestValidPhone(t *testing.T) {
	valid := []string{"77 123 45 67", "+221 77 123 45 67", "221771234567", "+33 6 12 34 56 78", "0612345678"}
	for _, p := range valid {
		if !ValidPhone(p) {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	invalid := []string{"", "12345", "+221 67 123 45 67", "+33 0 12 34 56 78", "812345678", "0012345678"}
	for _, p := range invalid {
		if ValidPhone(p) {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}

func TestStructReportsFields(t *testing.T) {
	err := Struct(domain.PersonalInfo{FirstName: "Awa", Email: "nope", Phone: "123"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, want := range []string{"LastName is required", "Email must be a valid email", "Phone must be a valid phone number"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}

	if err := Struct(domain.PersonalInfo{FirstName: "Awa", LastName: "Diop", Phone: "771234567"}); err != nil {
		t.Fatalf("expected valid info, got %v", err)
	}
}
