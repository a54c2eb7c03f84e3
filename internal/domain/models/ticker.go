package models

import (
	"regexp"
	"strings"
)

// TokyoSuffix is appended to bare four-digit listing codes.
const TokyoSuffix = ".T"

var listingCode = regexp.MustCompile(`^\d{4}$`)

// NormalizeTicker trims and uppercases s; a bare four-digit code becomes a Tokyo symbol.
func NormalizeTicker(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if listingCode.MatchString(s) {
		return s + TokyoSuffix
	}
	return s
}
