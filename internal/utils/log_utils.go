// Package utils provides small shared helpers
package utils

import (
	"strings"
	"unicode"
)

// maxLogStringLength bounds user-provided strings in log output
const maxLogStringLength = 120

// SanitizeLogString makes a caller-supplied string safe for logging by
// truncating it and stripping control characters, so request input cannot
// forge log lines.
func SanitizeLogString(input string) string {
	if len(input) > maxLogStringLength {
		input = input[:maxLogStringLength] + "..."
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
}
