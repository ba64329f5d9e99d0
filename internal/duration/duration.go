// Package duration parses the compact ISO-8601 time spans returned by the
// video API (for example "PT1H42M12S").
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// pattern captures optional hour, minute and second components after "PT".
var pattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// Parse converts s into a time.Duration. Missing components count as zero
// and anything that does not match the grammar yields 0; Parse never fails.
func Parse(s string) time.Duration {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	return component(m[1], time.Hour) +
		component(m[2], time.Minute) +
		component(m[3], time.Second)
}

func component(digits string, unit time.Duration) time.Duration {
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(n) * unit
}

// Split breaks d into whole hours, minutes and seconds.
func Split(d time.Duration) (hours, minutes, seconds int) {
	total := int(d / time.Second)
	return total / 3600, total % 3600 / 60, total % 60
}

// Format renders d as H:MM:SS, e.g. "0:44:53".
func Format(d time.Duration) string {
	h, m, s := Split(d)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
