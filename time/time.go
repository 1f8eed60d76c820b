package time

import (
	"strings"
	"time"
)

// ShortDur shortens the string representation of a time.Duration by
// dropping trailing zero units: "1m0s" becomes "1m", "1h0m0s" becomes "1h".
func ShortDur(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// Elapsed renders a measured duration for operators: sub-second noise is
// rounded to a tenth of a second before shortening.
func Elapsed(d time.Duration) string {
	if d < time.Second {
		return ShortDur(d.Round(time.Millisecond))
	}
	return ShortDur(d.Round(100 * time.Millisecond))
}

// Seconds converts a whole number of seconds from configuration into a Duration.
// Negative values clamp to zero.
func Seconds(n int) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
