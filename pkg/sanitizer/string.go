package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeAddress(address string) string {
	return TrimAndNormalize(address)
}

// NormalizeAmount strips grouping separators, spaces and currency symbols
// from a price. Signs, decimal points and any other characters are kept so
// that validation can still reject them.
func NormalizeAmount(amount string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(amount) {
		switch {
		case r == ',' || r == '_' || unicode.IsSpace(r):
			continue
		case unicode.Is(unicode.Sc, r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
