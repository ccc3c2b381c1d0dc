package render

import (
	"regexp"
	"strings"
)

var rangeSep = regexp.MustCompile(`\s*-\s*`)

// NormalizeTimeLabel cleans an upstream time range. "Uhr" and outer
// whitespace are dropped, "a - b" becomes "a-b", and a range whose ends
// are equal (or a lone time) becomes AllDayLabel.
func NormalizeTimeLabel(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "Uhr", ""))
	parts := rangeSep.Split(text, -1)
	switch {
	case len(parts) == 2:
		start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if start == end {
			return AllDayLabel
		}
		return start + "-" + end
	case len(parts) == 1 && strings.TrimSpace(parts[0]) != "":
		return AllDayLabel
	}
	return text
}
