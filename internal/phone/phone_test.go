package phone

import (
	"errors"
	"testing"
)

func TestParseEquivalentForms(t *testing.T) {
	n := NewNormalizer("40")
	inputs := []string{"0712345678", "712345678", "+40712345678", "40712345678", "0040 712 345 678", "+40 (712) 345-678"}
	for _, in := range inputs {
		num, err := n.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if num.Canonical != "40712345678" {
			t.Errorf("Parse(%q).Canonical = %q", in, num.Canonical)
		}
		if num.Suffix != "712345678" {
			t.Errorf("Parse(%q).Suffix = %q", in, num.Suffix)
		}
	}
}

func TestMatchesStoredAcrossForms(t *testing.T) {
	n := NewNormalizer("40")
	forms := []string{"0712345678", "712345678", "+40712345678", "40712345678"}
	for _, input := range forms {
		num, err := n.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		for _, stored := range forms {
			if !num.MatchesStored(stored) {
				t.Errorf("input %q should match stored %q", input, stored)
			}
		}
		if num.MatchesStored("0799999999") {
			t.Errorf("input %q matched an unrelated number", input)
		}
	}
}

func TestParseRejectsShortInput(t *testing.T) {
	n := NewNormalizer("40")
	for _, in := range []string{"", "abc", "12345", "+40 123"} {
		if _, err := n.Parse(in); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidNumber", in, err)
		}
	}
}

func TestVariants(t *testing.T) {
	num, err := NewNormalizer("").Parse("0712345678")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"40712345678", "+40712345678", "0712345678", "712345678"}
	got := num.Variants()
	if len(got) != len(want) {
		t.Fatalf("Variants = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Variants[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
