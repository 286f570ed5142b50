package stine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const gradeOverviewPage = `
<table class="nb">
	<tbody>
		<tr>
			<td class="tbsubhead">&nbsp;</td>
			<td class="tbsubhead">1,0</td>
			<td class="tbsubhead">1,3</td>
			<td class="tbsubhead">1,7</td>
			<td class="tbsubhead">2,0</td>
		</tr>
		<tr>
			<td class="tbdata">&nbsp;</td>
			<td class="tbdata">4</td>
			<td class="tbdata">2</td>
			<td class="tbdata">7</td>
			<td class="tbdata">1</td>
		</tr>
	</tbody>
</table>
<table>
	<tbody class="tb">
		<tr class="tbdata"><td>Average:</td><td>1,8</td></tr>
		<tr class="tbdata"><td>Available results:</td><td>14</td></tr>
		<tr class="tbdata"><td>Results with differing GS:</td><td>0</td></tr>
		<tr class="tbdata"><td>Missing (excused):</td><td>2</td></tr>
		<tr class="tbdata"><td>Missing (ill):</td><td>1</td></tr>
		<tr class="tbdata"><td>Missing (family emergency):</td><td>3</td></tr>
	</tbody>
</table>
`

func TestParseGradeStats(t *testing.T) {
	stats, err := parseGradeStats(gradeOverviewPage, "381865010228083")
	require.NoError(t, err)

	require.Equal(t, []GradeCount{
		{Grade: 1.0, Count: 4},
		{Grade: 1.3, Count: 2},
		{Grade: 1.7, Count: 7},
		{Grade: 2.0, Count: 1},
	}, stats.Grades)

	require.NotNil(t, stats.Average)
	require.InDelta(t, 1.8, *stats.Average, 1e-9)
	require.NotNil(t, stats.AvailableResults)
	require.Equal(t, 14, *stats.AvailableResults)
	require.NotNil(t, stats.DifferingGSResults)
	require.Equal(t, 0, *stats.DifferingGSResults)

	require.NotNil(t, stats.MissingExcused)
	require.Equal(t, 2, *stats.MissingExcused)
	require.NotNil(t, stats.MissingIll)
	require.Equal(t, 1, *stats.MissingIll)
	require.Nil(t, stats.MissingWithoutReason)
	require.Nil(t, stats.MissingCanceled)

	// reasons outside the vocabulary keep their label
	require.Equal(t, []MissingCount{
		{Reason: "family emergency", Count: 3},
	}, stats.MissingOther)
}

func TestApplyMissingRowGermanLabels(t *testing.T) {
	var stats GradeStats
	applyMissingRow(&stats, "fehlend (entschuldigt)", "5")
	applyMissingRow(&stats, "fehlend (krank)", "2")
	applyMissingRow(&stats, "fehlend (ohne grund)", "1")
	applyMissingRow(&stats, "fehlend (annulliert)", "4")

	require.Equal(t, 5, *stats.MissingExcused)
	require.Equal(t, 2, *stats.MissingIll)
	require.Equal(t, 1, *stats.MissingWithoutReason)
	require.Equal(t, 4, *stats.MissingCanceled)
	require.Empty(t, stats.MissingOther)
}

const semesterResultPage = `
<select id="semester" name="semester">
	<option value="999" selected="selected">WiSe 22/23</option>
</select>
<table class="nb">
	<thead>
		<tr><th>No.</th><th>Name</th><th>Grade</th><th>Credits</th><th>Status</th></tr>
	</thead>
	<tbody>
		<tr>
			<td class="tbdata">InfB-SE1</td>
			<td class="tbdata">Softwareentwicklung I</td>
			<td class="tbdata">1,7</td>
			<td class="tbdata">9,0</td>
			<td class="tbdata">bestanden</td>
			<td class="tbdata">&nbsp;</td>
			<td class="tbdata">
				<script>dl_loadScript('/scripts/mgrqispi.dll?APPNAME=CampusNet&amp;PRGNAME=GRADEOVERVIEW&amp;ARGUMENTS=-N123456789012345,-N000460,-AMOFF,-N381865010228083,-N0')</script>
			</td>
		</tr>
		<tr>
			<td class="tbdata">InfB-RS</td>
			<td class="tbdata">Rechnerstrukturen</td>
			<td class="tbdata"></td>
			<td class="tbdata">6,0</td>
			<td class="tbdata">angemeldet</td>
			<td class="tbdata">&nbsp;</td>
			<td class="tbdata">&nbsp;</td>
		</tr>
		<tr>
			<th>Semester GPA</th>
			<th>2,1</th>
			<th>15,0</th>
		</tr>
	</tbody>
</table>
`

func TestParseSemesterResult(t *testing.T) {
	client := &Client{}
	result, err := client.parseSemesterResult(
		context.Background(), semesterResultPage, NewWinterSemester(22, 23), FullLazy)
	require.NoError(t, err)

	require.Equal(t, NewWinterSemester(22, 23), result.Semester)
	require.NotNil(t, result.GPA)
	require.InDelta(t, 2.1, *result.GPA, 1e-9)
	require.Equal(t, "2,1", result.GPARaw)
	require.Equal(t, "15,0", result.Credits)

	require.Len(t, result.Courses, 2)

	first := result.Courses[0]
	require.Equal(t, "InfB-SE1", first.Number)
	require.Equal(t, "Softwareentwicklung I", first.Name)
	require.NotNil(t, first.FinalGrade)
	require.InDelta(t, 1.7, *first.FinalGrade, 1e-9)
	require.Equal(t, "9,0", first.Credits)
	require.Equal(t, "bestanden", first.Status)
	require.True(t, first.HasGradeStats())
	require.False(t, first.gradeStats.loaded)
	require.Equal(t, "381865010228083", first.gradeStats.link)

	second := result.Courses[1]
	require.Equal(t, "InfB-RS", second.Number)
	require.Nil(t, second.FinalGrade)
	require.False(t, second.HasGradeStats())
}
