package identifier

import (
	"strings"
	"testing"
)

func TestDigitsLengthAndCharset(t *testing.T) {
	for _, n := range []int{6, 12, 24} {
		s := Digits(n)
		if len(s) != n {
			t.Fatalf("expected %d digits, got %d (%q)", n, len(s), s)
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit %q in %q", r, s)
			}
		}
	}
}

func TestReferenceCarriesTypePrefix(t *testing.T) {
	ref := Reference("TT")
	if !strings.HasPrefix(ref, "TT-") {
		t.Fatalf("expected TT- prefix, got %q", ref)
	}
	if ref == Reference("TT") {
		t.Fatalf("two references collided")
	}
}

func TestRandomCode(t *testing.T) {
	code := RandomCode{Length: 6}.Generate()
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if def := (RandomCode{}).Generate(); len(def) != 6 {
		t.Fatalf("expected default length 6, got %q", def)
	}
}

func TestStaticCode(t *testing.T) {
	if got := Static("123456").Generate(); got != "123456" {
		t.Fatalf("expected fixed code, got %q", got)
	}
}
