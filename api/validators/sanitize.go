package validators

import "strings"

// SanitizeString trims the input, collapses inner whitespace runs to one space
// and truncates to maxLen runes. Addresses and search text are often pasted
// with line breaks and non-ASCII script, so truncation never splits a rune.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return cleaned
}
