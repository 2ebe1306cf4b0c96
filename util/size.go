package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	factor float64
}{
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize converts a size such as "500MB", "1.5GB" or "4096" to bytes.
// Units are binary and case-insensitive. Empty, malformed or negative
// input yields fallback.
func ParseSize(s string, fallback int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	factor := 1.0
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			factor = u.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 || math.IsInf(n, 0) || math.IsNaN(n) {
		return fallback
	}
	return int64(n * factor)
}

// FormatSize renders bytes with the largest unit that keeps the value at
// or above one, e.g. "500MB" or "1.5GB".
func FormatSize(bytes int64) string {
	for _, u := range sizeUnits {
		if float64(bytes) >= u.factor && u.factor > 1 {
			v := float64(bytes) / u.factor
			return strconv.FormatFloat(v, 'f', -1, 64) + u.suffix
		}
	}
	return fmt.Sprintf("%dB", bytes)
}
