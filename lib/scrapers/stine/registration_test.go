package stine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplitExamTimes(t *testing.T) {
	start, end, ok := splitExamTimes("Do, 21. Jul. 2022, 10:15 - 11:45")
	require.True(t, ok)
	require.NotNil(t, start)
	require.Equal(t, berlin(t, 2022, time.July, 21, 10, 15), *start)
	require.NotNil(t, end)
	require.Equal(t, berlin(t, 2022, time.July, 21, 11, 45), *end)

	_, _, ok = splitExamTimes("wird noch bekannt gegeben")
	require.False(t, ok)

	// a date without a time range keeps the row but yields no instants
	_, _, ok = splitExamTimes("Do, 21. Jul. 2022, ganztägig")
	require.False(t, ok)
}

func TestApplyModuleDetails(t *testing.T) {
	var module Module
	applyModuleDetails(&module, []string{
		"Displayed in timetable as:", "InfB-SE1",
		"Duration:", "1",
		"Number of electives:", "0",
		"Credits:", "9,0",
		"Start semester:", "WiSe 22/23",
		"Hinweise:", "Keine",
	})

	require.Equal(t, "InfB-SE1", module.TimetableName)
	require.NotNil(t, module.Duration)
	require.Equal(t, 1, *module.Duration)
	require.NotNil(t, module.Electives)
	require.Equal(t, 0, *module.Electives)
	require.Equal(t, "9,0", module.Credits)
	require.Equal(t, "WiSe 22/23", module.StartSemester)
	require.Equal(t, "Keine", module.Attributes["hinweise"])
}

const moduleExamsPage = `
<html><body>
<table class="tb" summary="Final module exams">
	<tbody>
		<tr class="tbsubhead"><th>Exam</th><th>Date</th><th>Instructors</th><th>Compulsory</th></tr>
		<tr class="tbdata">
			<td class="rw-detail-exam">Klausur</td>
			<td class="rw-detail-date">Do, 21. Jul. 2022, 10:15 - 11:45</td>
			<td class="rw-detail-instructors">Prof. Dr. Erika Musterfrau</td>
			<td class="rw-detail-compulsory">Ja</td>
		</tr>
		<tr class="tbdata">
			<td class="rw-detail-exam">Nachklausur</td>
			<td class="rw-detail-date">wird noch bekannt gegeben</td>
			<td class="rw-detail-instructors">Prof. Dr. Erika Musterfrau</td>
			<td class="rw-detail-compulsory">Nein</td>
		</tr>
	</tbody>
</table>
</body></html>
`

func TestParseExams(t *testing.T) {
	doc, err := parseDocument(moduleExamsPage)
	require.NoError(t, err)

	exams := parseExams(doc)
	require.Len(t, exams, 2)

	first := exams[0]
	require.Equal(t, "Klausur", first.Name)
	require.NotNil(t, first.Start)
	require.Equal(t, berlin(t, 2022, time.July, 21, 10, 15), *first.Start)
	require.NotNil(t, first.Mandatory)
	require.True(t, *first.Mandatory)
	require.Equal(t, "ja", first.MandatoryRaw)

	second := exams[1]
	require.Nil(t, second.Start)
	require.NotNil(t, second.Mandatory)
	require.False(t, *second.Mandatory)
}

func TestParseSubModuleNamelessCourse(t *testing.T) {
	doc, err := parseDocument(`<html><body><div class="dl-inner">
		<p><a href="/scripts/mgrqispi.dll?APPNAME=CampusNet&PRGNAME=COURSEDETAILS&ARGUMENTS=-N000000000000000,-N000311,-N0,-N429999,-N0,-N0"></a></p>
	</div></body></html>`)
	require.NoError(t, err)

	sub, err := (&Client{}).parseSubModule(context.Background(), doc.Find(".dl-inner"), FullLazy)
	require.NoError(t, err)
	require.Equal(t, "429999", sub.ID)
	require.Empty(t, sub.Name)
	require.Empty(t, sub.CourseNumber)
}

func TestRegistrationModulesCacheMiss(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	client := &Client{store: store, language: German}

	_, err = client.RegistrationModules(context.Background(), false, FullLazy)
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "module catalog", notFound.Kind)
}

func TestSemesterRequested(t *testing.T) {
	filter := []Semester{NewWinterSemester(22, 23), NewSummerSemester(23)}
	require.True(t, semesterRequested(NewSummerSemester(23), filter))
	require.False(t, semesterRequested(NewSummerSemester(22), filter))
	require.False(t, semesterRequested(NewWinterSemester(22, 23), nil))
}

const myRegistrationsPage = `
<html><body>
<h2>Pending</h2>
<table>
	<tbody>
		<tr>
			<td class="tbdata dl-inner">
				<p><strong><a class="eventTitle" href="/scripts/mgrqispi.dll?APPNAME=CampusNet&amp;PRGNAME=COURSEDETAILS&amp;ARGUMENTS=-N000000000000000,-N000311,-N0,-N379455895413883,-N0,-N0">64-074 Übung BKA</a></strong></p>
			</td>
		</tr>
	</tbody>
</table>
<h2>Accepted</h2>
<table>
	<tbody>
		<tr><td class="tbdata">Keine Anmeldungen</td></tr>
	</tbody>
</table>
<h2>Rejected</h2>
<table>
	<tbody>
		<tr><td class="tbdata">Keine Anmeldungen</td></tr>
	</tbody>
</table>
<h2>Accepted modules</h2>
<table>
	<tbody>
		<tr>
			<td class="tbsubhead dl-inner">
				<p><strong><a href="/scripts/mgrqispi.dll?APPNAME=CampusNet&amp;PRGNAME=MODULEDETAILS&amp;ARGUMENTS=-N000000000000000,-N000311,-N99">InfB-BKA Berechenbarkeit, Komplexität und Approximation</a></strong></p>
				<p>Prof. Dr. Erika Musterfrau</p>
			</td>
		</tr>
	</tbody>
</table>
</body></html>
`

func TestRegistrations(t *testing.T) {
	client, stub := newStubClient(t)

	regs, err := client.Registrations(context.Background(), FullLazy)
	require.NoError(t, err)
	require.EqualValues(t, 0, stub.courseDetailsHits.Load())

	require.Len(t, regs.PendingSubModules, 1)
	pending := regs.PendingSubModules[0]
	require.Equal(t, "379455895413883", pending.ID)
	require.Equal(t, "64-074", pending.CourseNumber)
	require.Equal(t, "64-074 Übung BKA", pending.Name)
	require.False(t, pending.info.loaded)

	require.Empty(t, regs.AcceptedSubModules)
	require.Empty(t, regs.RejectedSubModules)

	require.Len(t, regs.AcceptedModules, 1)
	module := regs.AcceptedModules[0]
	require.Equal(t, "InfB-BKA", module.Number)
	require.Equal(t, "Berechenbarkeit, Komplexität und Approximation", module.Name)
	require.Equal(t, "Prof. Dr. Erika Musterfrau", module.Owner)

	// the scraped entities land in the in-memory entity cache
	require.Contains(t, client.submodules, "379455895413883")
	require.Contains(t, client.modules, "InfB-BKA")
}
