package util

import "strings"

// MaskSecret keeps the first and last visible characters of a token and
// hides the rest: "hf_abcdef...uvwxyz". Secrets too short to keep both
// ends hidden come back as "***".
func MaskSecret(s string, visible int) string {
	if visible <= 0 || len(s) <= 2*visible+3 {
		return "***"
	}
	return s[:visible] + "..." + s[len(s)-visible:]
}

// SanitizeEnvValue trims an environment value and strips one pair of
// matching surrounding quotes, as left behind by hand-edited .env files.
func SanitizeEnvValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}
