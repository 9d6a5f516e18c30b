package service

import (
	"strings"
)

// groupSuffix marks WhatsApp group JIDs.
const groupSuffix = "@g.us"

// IsGroupTarget reports whether raw addresses a group chat, whatever its
// casing or surrounding whitespace.
func IsGroupTarget(raw string) bool {
	return strings.Contains(strings.ToLower(raw), groupSuffix)
}

// NormalizeNumber strips every non-digit and prepends the country prefix when
// it is absent. Group targets are refused before any formatting happens.
func NormalizeNumber(raw, countryPrefix string) (string, error) {
	if IsGroupTarget(raw) {
		return "", ErrGroupTarget
	}
	// Individual JIDs ("5511...@s.whatsapp.net") carry the number before the "@".
	if at := strings.IndexByte(raw, '@'); at >= 0 {
		raw = raw[:at]
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrMissingDestination
	}
	if !strings.HasPrefix(digits, countryPrefix) {
		digits = countryPrefix + digits
	}
	return digits, nil
}
