package stine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgString(t *testing.T) {
	href := "/scripts/mgrqispi.dll?APPNAME=CampusNet&PRGNAME=COURSEDETAILS&ARGUMENTS=-N123456789012345,-N000311,-N378830749651593,-N0,-N0,-N0"
	require.Equal(t,
		[]string{"-N000311", "-N378830749651593", "-N0", "-N0", "-N0"},
		ParseArgString(href))

	// only the last marker counts when the href embeds another one
	nested := "dummy?ARGUMENTS=-N1,-N2&redirect=x?ARGUMENTS=-N999,-N000311,-N42"
	require.Equal(t, []string{"-N000311", "-N42"}, ParseArgString(nested))

	require.Nil(t, ParseArgString("/scripts/mgrqispi.dll?APPNAME=CampusNet&PRGNAME=MLSSTART"))
}

func TestInnerID(t *testing.T) {
	require.Equal(t, "378830749651593", InnerID("-N378830749651593"))
	require.Equal(t, "378830749651593", InnerID("-N378830749651593-N5"))
	require.Equal(t, "", InnerID(""))
	require.Equal(t, "", InnerID("-N"))
}
