package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanScraped(t *testing.T) {
	require.Equal(t, "InfB-SE1 Softwareentwicklung I", CleanScraped("  InfB-SE1&nbsp;Softwareentwicklung I\n"))
	require.Equal(t, "", CleanScraped("&nbsp;"))
}

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in     string
		expect float64
	}{
		{"1,3", 1.3},
		{"1.3", 1.3},
		{" 2,0 ", 2.0},
		{"4", 4},
	}
	for _, test := range cases {
		got, err := ParseFloat(test.in)
		require.NoError(t, err)
		require.Equal(t, test.expect, got)
	}

	_, err := ParseFloat("b")
	require.Error(t, err)
}

func TestSplitInstructors(t *testing.T) {
	require.Equal(t,
		[]string{"Prof. Dr. Tilo Böhmann", "Prof. Dr. Judith Simon"},
		SplitInstructors("Prof. Dr. Tilo Böhmann; Prof. Dr. Judith Simon"))
	require.Equal(t,
		[]string{"Prof. Dr. Petra Berenbrink"},
		SplitInstructors("Prof. Dr. Petra Berenbrink"))
}
