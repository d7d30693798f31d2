package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
)

var minSecPattern = regexp.MustCompile(`^(\d{1,3}):([0-5]\d)$`)

// ParseMinSec parses a "mm:ss" clock value into whole seconds. Values that do
// not match the pattern (phase labels, empty strings) report ok=false.
func ParseMinSec(value string) (int, bool) {
	m := minSecPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	secs, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return mins*60 + secs, true
}

// FormatMinSec renders whole seconds as "mm:ss". Negative values clamp to zero.
func FormatMinSec(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Ordinal renders 1 -> "1st", 2 -> "2nd", 11 -> "11th" etc.
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
		// teens always take th
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
