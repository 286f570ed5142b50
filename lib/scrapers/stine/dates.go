package stine

import (
	"fmt"
	"strings"
	"time"

	"stine-client/lib/timezone"
)

// DateNormalizationError is returned when a scraped date string does
// not have the shape the normalizer expects. Callers usually fall
// back to keeping the raw string instead of dropping the record.
type DateNormalizationError struct {
	Input string
}

func (e DateNormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize date string %q", e.Input)
}

// MissingSeparatorError is returned when a period string contains
// neither " - " nor " to " between its two halves.
type MissingSeparatorError struct {
	Input string
}

func (e MissingSeparatorError) Error() string {
	return fmt.Sprintf("period string %q is missing a ' - ' or ' to ' separator", e.Input)
}

var weekdayMap = map[string]string{
	"Mo": "Mon",
	"Di": "Tue",
	"Mi": "Wed",
	"Do": "Thu",
	"Fr": "Fri",
	"Sa": "Sat",
	"So": "Sun",
	// already-English two-letter forms pass through unharmed
	"Tu": "Tue",
	"We": "Wed",
	"Th": "Thu",
	"Su": "Sun",
}

// "Mär" shows up mis-encoded in the portal's output, the map entry
// matches the bytes actually observed on the wire.
var monthMap = map[string]string{
	"Jan":  "Jan",
	"Feb":  "Feb",
	"MÃ¤r": "Mar",
	"Mär":  "Mar",
	"Apr":  "Apr",
	"Mai":  "May",
	"Jun":  "Jun",
	"Jul":  "Jul",
	"Aug":  "Aug",
	"Sep":  "Sep",
	"Okt":  "Oct",
	"Nov":  "Nov",
	"Dez":  "Dec",
}

// normalizeDateString rewrites German weekday and month names in a
// scraped date string into the English forms time.Parse understands.
// The month lives between the first and second dot for the dotted
// abbreviated form ("Do, 21. Jul. 2022") or after the only dot for
// the spelled-out form ("Wed, 4. Mai 2022"); the latter gains a
// trailing dot during replacement so both shapes end up parseable by
// the abbreviated-month layout.
func normalizeDateString(s string) (string, error) {
	fixed := s

	weekday := strings.SplitN(s, ",", 2)[0]
	if english, ok := weekdayMap[strings.TrimSpace(weekday)]; ok {
		fixed = strings.Replace(fixed, strings.TrimSpace(weekday), english, 1)
	}

	dotSplit := strings.Split(s, ".")
	var month string
	switch len(dotSplit) {
	case 2:
		// month is the leading word of the remainder, at most 4 runes
		// (umlauts and their mis-encodings are multi-byte)
		runes := []rune(strings.TrimSpace(dotSplit[1]))
		if len(runes) > 4 {
			runes = runes[:4]
		}
		month = strings.TrimSpace(string(runes))
	case 3:
		month = strings.TrimSpace(dotSplit[1])
	default:
		return "", DateNormalizationError{Input: s}
	}

	if english, ok := monthMap[month]; ok {
		if len(dotSplit) == 2 {
			fixed = strings.Replace(fixed, month, english+".", 1)
		} else {
			fixed = strings.Replace(fixed, month, english, 1)
		}
	}

	return fixed, nil
}

const (
	shortDateTimeLayout     = "Mon, 2. Jan. 2006 15:04"
	shortDateTimeFullLayout = "Mon, 2. January 2006 15:04"

	longDateTimeLayoutEng     = "Mon, 2 January 2006, 3:04 pm"
	longDateTimeLayoutEngAbbr = "Mon, 2 Jan 2006, 3:04 pm"
	longDateTimeLayoutGer     = "Mon, 02.01.06, 15:04 Uhr"
	longDateTimeLayoutGerAlt  = "Mon, 02.01.06 15:04 Uhr"

	dayMonthYearLayout = "02.01.06"
	clockLayout        = "15:04"
)

func tryLayouts(s string, layouts ...string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		naive, err := time.Parse(layout, s)
		if err == nil {
			return timezone.NaiveToUTC(naive)
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseShortDateTime parses appointment and exam timestamps like
// "Do, 21. Jul. 2022 10:15" into an absolute UTC instant.
func parseShortDateTime(s string) (time.Time, error) {
	fixed, err := normalizeDateString(s)
	if err != nil {
		return time.Time{}, err
	}
	return tryLayouts(fixed, shortDateTimeLayout, shortDateTimeFullLayout)
}

// parseLongDateTime parses registration period timestamps, either the
// English "Mon, 20 June 2022, 9:00 am" or the German
// "Mo, 20.06.22, 09:00 Uhr" shape. An am/pm marker without a minute
// component counts as a full hour.
func parseLongDateTime(s string) (time.Time, error) {
	fixed := s
	if !strings.Contains(fixed, ":") {
		fixed = strings.Replace(fixed, " am", ":00 am", 1)
		fixed = strings.Replace(fixed, " pm", ":00 pm", 1)
	}
	// the portal sometimes renders a stray space before the comma
	fixed = strings.ReplaceAll(fixed, " ,", ",")
	fixed = strings.TrimSpace(fixed)

	weekday := strings.SplitN(fixed, ",", 2)[0]
	if english, ok := weekdayMap[strings.TrimSpace(weekday)]; ok {
		fixed = strings.Replace(fixed, strings.TrimSpace(weekday), english, 1)
	}

	instant, err := tryLayouts(fixed,
		longDateTimeLayoutEng, longDateTimeLayoutEngAbbr,
		longDateTimeLayoutGer, longDateTimeLayoutGerAlt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing long date %q (normalized %q): %w", s, fixed, err)
	}
	return instant, nil
}

// parsePeriod splits a textual date range on the first " - " or
// " to " separator and parses both halves with the long-form grammar.
func parsePeriod(s string) (Period, error) {
	var start, end string
	if before, after, found := strings.Cut(s, " - "); found {
		start, end = before, after
	} else if before, after, found := strings.Cut(s, " to "); found {
		start, end = before, after
	} else {
		return Period{}, MissingSeparatorError{Input: s}
	}

	startInstant, err := parseLongDateTime(start)
	if err != nil {
		return Period{}, err
	}
	endInstant, err := parseLongDateTime(end)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: startInstant, End: endInstant}, nil
}

// parseDayMonthYear parses the compact "23.08.22" + "14:46" pair used
// by the document table.
func parseDayMonthYear(date, clock string) (time.Time, error) {
	d, err := time.Parse(dayMonthYearLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return timezone.ToUTC(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute())
}
