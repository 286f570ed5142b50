package stine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stine-client/lib/timezone"
)

func berlin(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	instant, err := timezone.ToUTC(year, month, day, hour, min)
	require.NoError(t, err)
	return instant
}

func TestShortDateTime(t *testing.T) {
	// German and English weekday abbreviations name the same instant
	german, err := parseShortDateTime("Do, 21. Jul. 2022 10:15")
	require.NoError(t, err)
	english, err := parseShortDateTime("Thu, 21. Jul. 2022 10:15")
	require.NoError(t, err)
	require.Equal(t, german, english)
	require.Equal(t, berlin(t, 2022, time.July, 21, 10, 15), german)

	// spelled-out month, only two dots in the whole string
	spelled, err := parseShortDateTime("Wed, 4. Mai 2022 14:15")
	require.NoError(t, err)
	require.Equal(t, berlin(t, 2022, time.May, 4, 14, 15), spelled)

	// abbreviated month with its own dot
	abbreviated, err := parseShortDateTime("Wed, 6. Apr. 2022 14:15")
	require.NoError(t, err)
	require.Equal(t, berlin(t, 2022, time.April, 6, 14, 15), abbreviated)

	// the mis-encoded March abbreviation as the portal serves it
	march, err := parseShortDateTime("Di, 1. MÃ¤r. 2022 08:00")
	require.NoError(t, err)
	require.Equal(t, berlin(t, 2022, time.March, 1, 8, 0), march)
}

func TestShortDateTimeRejectsOddDotCounts(t *testing.T) {
	var normErr DateNormalizationError

	_, err := parseShortDateTime("21-07-2022 10:15")
	require.ErrorAs(t, err, &normErr)
	require.Equal(t, "21-07-2022 10:15", normErr.Input)

	_, err = parseShortDateTime("Do, 21. Jul. 2022. 10:15.")
	require.ErrorAs(t, err, &normErr)
}

func TestLongDateTime(t *testing.T) {
	expect := berlin(t, 2022, time.June, 20, 9, 0)

	english, err := parseLongDateTime("Mon, 20 June 2022, 9 am")
	require.NoError(t, err)
	require.Equal(t, expect, english)

	german, err := parseLongDateTime("Mo, 20.06.22, 09:00 Uhr")
	require.NoError(t, err)
	require.Equal(t, expect, german)

	expect = berlin(t, 2022, time.January, 1, 13, 0)

	abbreviated, err := parseLongDateTime("Sat, 1 Jan 2022, 1 pm")
	require.NoError(t, err)
	require.Equal(t, expect, abbreviated)

	german, err = parseLongDateTime("Sa, 01.01.22, 13:00 Uhr")
	require.NoError(t, err)
	require.Equal(t, expect, german)
}

func TestParsePeriod(t *testing.T) {
	dashed, err := parsePeriod("Mo, 20.06.22, 09:00 Uhr - Do, 30.06.22, 13:00 Uhr")
	require.NoError(t, err)
	require.Equal(t, berlin(t, 2022, time.June, 20, 9, 0), dashed.Start)
	require.Equal(t, berlin(t, 2022, time.June, 30, 13, 0), dashed.End)

	// stray space before the comma as rendered by the portal
	worded, err := parsePeriod("Mon, 20 June 2022, 9 am to Thu, 30 June 2022 , 1 pm")
	require.NoError(t, err)
	require.Equal(t, dashed, worded)

	var sepErr MissingSeparatorError
	_, err = parsePeriod("Mon, 20 June 2022, 9 am")
	require.ErrorAs(t, err, &sepErr)
	require.Equal(t, "Mon, 20 June 2022, 9 am", sepErr.Input)
}

func TestParseDayMonthYear(t *testing.T) {
	instant, err := parseDayMonthYear("23.08.22", "14:46")
	require.NoError(t, err)
	require.Equal(t, berlin(t, 2022, time.August, 23, 14, 46), instant)

	_, err = parseDayMonthYear("23/08/22", "14:46")
	require.Error(t, err)
}
