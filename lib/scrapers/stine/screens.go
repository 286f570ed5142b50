package stine

import "strings"

// Screen selects the server-side page rendered by the portal's single
// dispatch endpoint. The portal calls this field PRGNAME.
type Screen string

const (
	ScreenLoginCheck      Screen = "LOGINCHECK"
	ScreenStart           Screen = "MLSSTART"
	ScreenRegistration    Screen = "REGISTRATION"
	ScreenMyRegistrations Screen = "MYREGISTRATIONS"
	ScreenModuleDetails   Screen = "MODULEDETAILS"
	ScreenCourseDetails   Screen = "COURSEDETAILS"
	ScreenCourseResults   Screen = "COURSERESULTS"
	ScreenGradeOverview   Screen = "GRADEOVERVIEW"
	ScreenCreateDocument  Screen = "CREATEDOCUMENT"
	ScreenExternalPages   Screen = "EXTERNALPAGES"
	ScreenChangeLanguage  Screen = "CHANGELANGUAGE"
)

// ParseArgString extracts the argument tokens from a portal href.
// Links look like ".../mgrqispi.dll?APPNAME=CampusNet&PRGNAME=COURSEDETAILS&ARGUMENTS=-N123,-N456,-N789".
// The first token is the session id of whoever rendered the page and
// never belongs to the caller, so it is dropped. The client re-adds
// its own session token on every request.
//
// A href without an ARGUMENTS= marker yields nil.
func ParseArgString(href string) []string {
	idx := strings.LastIndex(href, "ARGUMENTS=")
	if idx < 0 {
		return nil
	}
	args := strings.Split(href[idx+len("ARGUMENTS="):], ",")
	return args[1:]
}

// InnerID strips the -N prefix from an argument token and returns the
// leading numeric segment. Submodule links carry their stable id as a
// compound third token ("-N<id>" or "-N<id>-N<suffix>"), the id is
// always the first segment.
func InnerID(token string) string {
	for _, segment := range strings.Split(token, "-N") {
		if segment != "" {
			return segment
		}
	}
	return ""
}
