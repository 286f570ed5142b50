package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanScraped normalizes a scraped cell value: replaces &nbsp;
// entities with plain spaces and trims surrounding whitespace.
func CleanScraped(s string) string {
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}

// CollapseWhitespace trims the string and folds every inner
// whitespace run into a single space.
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ParseFloat parses a decimal that may use a German comma separator
// ("1,3" as well as "1.3").
func ParseFloat(s string) (float64, error) {
	parsable := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(parsable, 64)
}

// SplitInstructors splits a scraped instructor cell on ";". A cell
// without a separator is a single instructor.
func SplitInstructors(s string) []string {
	if !strings.Contains(s, ";") {
		return []string{CleanScraped(s)}
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, CleanScraped(p))
	}
	return out
}
