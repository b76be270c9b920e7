package validators

import "strings"

// SanitizeString trims whitespace and caps free-text fields entered at the
// till, such as stock-keeping notes and cancellation reasons.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
