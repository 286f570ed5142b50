package notify

import (
	"testing"
	"time"

	"stine-client/lib/scrapers/stine"

	"github.com/stretchr/testify/require"
)

func doc(name string, created time.Time) stine.Document {
	return stine.Document{Name: name, Created: created, Download: "/scripts/filetransfer.exe?token=" + name}
}

func TestNewDocuments(t *testing.T) {
	base := time.Date(2022, 8, 1, 16, 24, 0, 0, time.UTC)
	a := doc("Semesterbescheinigung", base)
	b := doc("Zahltraeger", base.Add(24*time.Hour))
	c := doc("Studienverlauf", base.Add(48*time.Hour))

	t.Run("new entries shift the old head down", func(t *testing.T) {
		fresh := newDocuments([]stine.Document{b, a}, []stine.Document{c, b, a})
		require.Equal(t, []stine.Document{c}, fresh)
	})

	t.Run("identical lists", func(t *testing.T) {
		require.Empty(t, newDocuments([]stine.Document{b, a}, []stine.Document{b, a}))
	})

	t.Run("download tokens do not count as changes", func(t *testing.T) {
		rotated := b
		rotated.Download = "/scripts/filetransfer.exe?token=other"
		require.Empty(t, newDocuments([]stine.Document{b, a}, []stine.Document{rotated, a}))
	})

	t.Run("empty snapshot yields nothing", func(t *testing.T) {
		require.Empty(t, newDocuments(nil, []stine.Document{a}))
	})
}

func grade(g float64) *float64 { return &g }

func TestCourseChanges(t *testing.T) {
	old := map[string]stine.CourseResult{
		"64-074": {Number: "64-074", Name: "BKA", Status: "Bestanden"},
		"64-080": {Number: "64-080", Name: "SE", FinalGrade: grade(2.3), Status: "Bestanden"},
	}
	latest := map[string]stine.CourseResult{
		"64-074": {Number: "64-074", Name: "BKA", FinalGrade: grade(1.7), Status: "Bestanden"},
		"64-080": {Number: "64-080", Name: "SE", FinalGrade: grade(2.3), Status: "Endgültig bestanden"},
		"64-091": {Number: "64-091", Name: "DB", FinalGrade: grade(1.0), Status: "Bestanden"},
		"64-099": {Number: "64-099", Name: "GSS"},
	}

	changes := courseChanges(old, latest)
	require.Equal(t, []Change{
		{Course: "BKA", Old: "N/A", New: "1.7"},
		{Course: "SE", Old: "Bestanden", New: "Endgültig bestanden"},
		{Course: "DB", Old: "-", New: "Final Grade: 1 | Status: Bestanden"},
	}, changes)
}

func TestCourseChangesStable(t *testing.T) {
	same := map[string]stine.CourseResult{
		"64-074": {Number: "64-074", Name: "BKA", FinalGrade: grade(1.7), Status: "Bestanden"},
	}
	require.Empty(t, courseChanges(same, same))
}

func TestActivePeriods(t *testing.T) {
	now := time.Date(2022, 9, 10, 12, 0, 0, 0, time.UTC)
	running := stine.RegistrationPeriod{
		Kind: stine.GeneralRegistration,
		Period: stine.Period{
			Start: now.Add(-24 * time.Hour),
			End:   now.Add(24 * time.Hour),
		},
	}
	over := stine.RegistrationPeriod{
		Kind: stine.EarlyRegistration,
		Period: stine.Period{
			Start: now.Add(-72 * time.Hour),
			End:   now.Add(-48 * time.Hour),
		},
	}

	t.Run("only running periods", func(t *testing.T) {
		active := activePeriods(now, []stine.RegistrationPeriod{over, running}, nil)
		require.Equal(t, []stine.RegistrationPeriod{running}, active)
	})

	t.Run("already announced", func(t *testing.T) {
		active := activePeriods(now,
			[]stine.RegistrationPeriod{running},
			[]stine.RegistrationPeriod{running})
		require.Empty(t, active)
	})

	t.Run("same kind in a new semester fires again", func(t *testing.T) {
		lastYear := running
		lastYear.Period.Start = running.Period.Start.AddDate(-1, 0, 0)
		lastYear.Period.End = running.Period.End.AddDate(-1, 0, 0)
		active := activePeriods(now,
			[]stine.RegistrationPeriod{running},
			[]stine.RegistrationPeriod{lastYear})
		require.Equal(t, []stine.RegistrationPeriod{running}, active)
	})
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent(" Exam-Results ")
	require.NoError(t, err)
	require.Equal(t, EventExamResults, event)

	_, err = ParseEvent("grades")
	require.Error(t, err)
}

func TestMessages(t *testing.T) {
	subject, body := examMessage([]Change{{Course: "BKA", Old: "N/A", New: "1.7"}})
	require.Equal(t, "STiNE notifier - exam update", subject)
	require.Contains(t, body, "[BKA] (N/A -> 1.7)")

	subject, body = periodMessage(stine.RegistrationPeriod{Kind: stine.LateRegistration})
	require.Equal(t, "STiNE notifier: The Late registration period just started", subject)
	require.Contains(t, body, "Further information:")

	subject, body = documentsMessage([]stine.Document{
		doc("Semesterbescheinigung", time.Date(2022, 8, 23, 12, 46, 0, 0, time.UTC)),
	})
	require.Equal(t, "STiNE notifier - documents update", subject)
	require.Contains(t, body, "Semesterbescheinigung (created 2022-08-23 12:46)")
}
