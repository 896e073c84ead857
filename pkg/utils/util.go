package utils

import (
	"strings"
	"time"
)

// SplitList splits a comma separated list, trimming blanks and dropping empties
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatInZone formats t in the named IANA zone, falling back to UTC when
// the zone is unknown. A nil time formats as "-".
func FormatInZone(t *time.Time, zone string) string {
	if t == nil {
		return "-"
	}
	if zone == "" {
		zone = DEFAULT_TIME_ZONE
	}
	location, err := time.LoadLocation(zone)
	if err != nil {
		location = time.UTC
	}
	return t.In(location).Format(DATE_LAYOUT)
}

// TimePtr returns a pointer to t, or nil for the zero time
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
