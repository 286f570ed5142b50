package stine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSemester(t *testing.T) {
	testCases := []struct {
		input  string
		expect Semester
	}{
		{input: "WiSe 22/23", expect: NewWinterSemester(22, 23)},
		{input: "SoSe 22", expect: NewSummerSemester(22)},
		{input: "SuSe 20", expect: NewSummerSemester(20)},
		{input: "wise22/23", expect: NewWinterSemester(22, 23)},
		{input: "Wintersemester WiSe 19/20", expect: NewWinterSemester(19, 20)},
	}

	for _, test := range testCases {
		semester, err := ParseSemester(test.input)
		require.NoError(t, err, test.input)
		require.Equal(t, test.expect, semester, test.input)
	}

	_, err := ParseSemester("semester 22")
	require.Error(t, err)
	_, err = ParseSemester("WiSe 2")
	require.Error(t, err)
}

func TestSemesterRoundTrip(t *testing.T) {
	for _, s := range []Semester{
		NewWinterSemester(22, 23),
		NewSummerSemester(22),
		NewWinterSemester(9, 10),
	} {
		parsed, err := ParseSemester(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}

	require.Equal(t, "WiSe 22/23", NewWinterSemester(22, 23).String())
	require.Equal(t, "SuSe 22", NewSummerSemester(22).String())
}
