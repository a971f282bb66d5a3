package phone

import "testing"

func TestCanonical(t *testing.T) {
	c := Canonicalizer{CountryCode: "57"}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "573226235226", "573226235226"},
		{"bare local number", "3226235226", "573226235226"},
		{"plus and spaces", "+57 322 623 5226", "573226235226"},
		{"dashes and parens", "(322) 623-5226", "573226235226"},
		{"short number kept as is", "12345", "12345"},
		{"other country code kept as is", "4915112345678", "4915112345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Canonical(tt.raw); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	c := Canonicalizer{CountryCode: "57"}
	once := c.Canonical("3226235226")
	twice := c.Canonical(once)
	if once != twice {
		t.Errorf("Canonical not idempotent: %q then %q", once, twice)
	}
}

func TestCanonicalEquivalentForms(t *testing.T) {
	c := Canonicalizer{CountryCode: "57"}
	forms := []string{"+57 322 623 5226", "573226235226", "3226235226"}
	want := c.Canonical(forms[0])
	for _, f := range forms[1:] {
		if got := c.Canonical(f); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", f, got, want)
		}
	}
}

func TestCanonicalAll(t *testing.T) {
	c := Canonicalizer{CountryCode: "57"}
	got := c.CanonicalAll([]string{"3226235226", "+573001112233"})
	want := []string{"573226235226", "573001112233"}
	if len(got) != len(want) {
		t.Fatalf("CanonicalAll returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CanonicalAll[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
