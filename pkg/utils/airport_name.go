package utils

import (
	"regexp"
	"strings"
)

var (
	internationalRe = regexp.MustCompile(`(?i)\b(international|intl|int'l)\b`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// FriendlyAirportName builds a short display label such as
// "New York, NY (John F Kennedy)" from a provider airport name and location.
// Words of the name already present in the location are dropped.
func FriendlyAirportName(name, location string) string {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)

	short := internationalRe.ReplaceAllString(name, " ")
	for _, part := range strings.Split(location, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(part) + `\b`)
		short = re.ReplaceAllString(short, " ")
	}
	short = strings.Trim(spacesRe.ReplaceAllString(short, " "), " ,")

	if location == "" {
		return name
	}
	if short == "" {
		return location
	}
	return location + " (" + short + ")"
}
