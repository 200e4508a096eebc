// Package phone normalizes holder phone numbers so that the different ways
// people type the same number resolve to one ticket.
package phone

import (
	"errors"
	"strings"
)

// SuffixLength is the number of trailing digits used for fuzzy matching.
const SuffixLength = 9

// ErrInvalidNumber is returned for inputs with too few digits.
var ErrInvalidNumber = errors.New("invalid phone number")

// Number is a parsed phone number in several equivalent textual forms.
type Number struct {
	// Canonical is the international form without a plus sign, e.g. 40712345678.
	Canonical string
	// Subscriber is the national significant number, e.g. 712345678.
	Subscriber string
	// Suffix holds the last SuffixLength digits.
	Suffix string
}

// Normalizer converts raw input using a default country calling code.
type Normalizer struct {
	countryCode string
}

// NewNormalizer returns a Normalizer for the given country calling code.
func NewNormalizer(countryCode string) *Normalizer {
	cc := digitsOnly(countryCode)
	if cc == "" {
		cc = "40"
	}
	return &Normalizer{countryCode: cc}
}

// CountryCode returns the default calling code.
func (n *Normalizer) CountryCode() string {
	return n.countryCode
}

// Parse normalizes raw into its canonical form.
func (n *Normalizer) Parse(raw string) (Number, error) {
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	if len(digits) < SuffixLength {
		return Number{}, ErrInvalidNumber
	}

	var subscriber string
	switch {
	case strings.HasPrefix(digits, n.countryCode) && len(digits) >= len(n.countryCode)+SuffixLength:
		subscriber = digits[len(n.countryCode):]
	case strings.HasPrefix(digits, "0"):
		subscriber = digits[1:]
	default:
		subscriber = digits
	}
	if len(subscriber) < SuffixLength {
		return Number{}, ErrInvalidNumber
	}

	return Number{
		Canonical:  n.countryCode + subscriber,
		Subscriber: subscriber,
		Suffix:     subscriber[len(subscriber)-SuffixLength:],
	}, nil
}

// Canonical is a convenience wrapper returning only the canonical form.
func (n *Normalizer) Canonical(raw string) (string, error) {
	num, err := n.Parse(raw)
	if err != nil {
		return "", err
	}
	return num.Canonical, nil
}

// E164 returns the number with a leading plus sign.
func (num Number) E164() string {
	return "+" + num.Canonical
}

// National returns the trunk-prefixed national form, e.g. 0712345678.
func (num Number) National() string {
	return "0" + num.Subscriber
}

// Variants lists every textual form a stored number may take.
func (num Number) Variants() []string {
	return []string{
		num.Canonical,
		num.E164(),
		num.National(),
		num.Subscriber,
	}
}

// MatchesStored reports whether a stored value refers to the same number,
// either by exact variant or by trailing digits.
func (num Number) MatchesStored(stored string) bool {
	for _, v := range num.Variants() {
		if stored == v {
			return true
		}
	}
	return strings.HasSuffix(digitsOnly(stored), num.Suffix)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
