package cart

import (
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s, _ := Apply(DefaultPricing, empty(), Add{Product: domain.Product{
		ID:       "a",
		Name:     "Bolt M6",
		Price:    150,
		Stock:    intPtr(500),
		Images:   []string{"https://cdn.example.com/a.jpg"},
		Category: "hardware",
	}, Quantity: 2})
	s, _ = Apply(DefaultPricing, s, Add{Product: product("b", 5000, nil), Quantity: 1})

	data, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Total != s.Total || len(got.Items) != len(s.Items) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, s)
	}
	for i := range s.Items {
		want, have := s.Items[i], got.Items[i]
		if want.Quantity != have.Quantity || want.Product.ID != have.Product.ID || want.Product.Price != have.Product.Price {
			t.Fatalf("line %d mismatch: %+v vs %+v", i, have, want)
		}
		if (want.Product.Stock == nil) != (have.Product.Stock == nil) {
			t.Fatalf("line %d stock presence mismatch", i)
		}
		if want.Product.Stock != nil && *want.Product.Stock != *have.Product.Stock {
			t.Fatalf("line %d stock mismatch", i)
		}
	}
	if got.Items[0].Product.PrimaryImage() != "https://cdn.example.com/a.jpg" {
		t.Fatalf("image lost in round trip")
	}
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(domain.CartState{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `{"items":[],"total":0}` {
		t.Fatalf("unexpected empty layout %s", data)
	}

	s, _ := Apply(DefaultPricing, empty(), Add{Product: product("a", 1000, nil), Quantity: 1})
	data, _ = Encode(s)
	for _, want := range []string{`"items":[{"product":{`, `"quantity":1`, `"total":1000`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %s in %s", want, data)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{{`,
		"foreign object": `{"user":"x"}`,
		"missing total":  `{"items":[]}`,
		"no product id":  `{"items":[{"product":{"price":1},"quantity":1}],"total":1}`,
		"zero quantity":  `{"items":[{"product":{"_id":"a","price":1},"quantity":0}],"total":0}`,
		"over limit":     `{"items":[{"product":{"_id":"a","price":1},"quantity":100001}],"total":0}`,
		"duplicate":      `{"items":[{"product":{"_id":"a"},"quantity":1},{"product":{"_id":"a"},"quantity":1}],"total":0}`,
	}
	for name, raw := range cases {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformedSnapshot) {
			t.Fatalf("%s: expected ErrMalformedSnapshot, got %v", name, err)
		}
	}
}
