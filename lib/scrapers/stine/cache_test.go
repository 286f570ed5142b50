package stine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	start := berlin(t, 2022, time.April, 6, 14, 15)
	sub := SubModule{
		ID:           "379455895413883",
		CourseNumber: "64-074",
		Name:         "64-074 Übung BKA",
		info: loadedFacet("link", CourseInfo{
			EventTypeRaw: "Übung",
			Credits:      "3,0",
		}),
		appointments: loadedFacet("link", []Appointment{
			{Start: &start, Room: "D-125", Instructors: []string{"Dr. Max Mustermann"}},
		}),
		groups: unloadedFacet[[]Group]("link"),
	}

	require.NoError(t, store.SaveSubModules(German, map[string]SubModule{sub.ID: sub}))

	loaded, err := store.LoadSubModules(German)
	require.NoError(t, err)
	require.Contains(t, loaded, sub.ID)

	got := loaded[sub.ID]
	require.Equal(t, sub.Name, got.Name)
	require.True(t, got.info.loaded)
	require.Equal(t, "Übung", got.info.value.EventTypeRaw)
	require.True(t, got.appointments.loaded)
	require.Len(t, got.appointments.value, 1)
	require.Equal(t, "D-125", got.appointments.value[0].Room)
	require.True(t, got.appointments.value[0].Start.Equal(start))
	require.False(t, got.groups.loaded)
	require.Equal(t, "link", got.groups.link)
}

func TestStoreKeepsLanguagesApart(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SaveModules(German, map[string]Module{
		"InfB-SE1": {Number: "InfB-SE1", Name: "Softwareentwicklung I"},
	}))

	_, err = store.LoadModules(English)
	require.Error(t, err)

	german, err := store.LoadModules(German)
	require.NoError(t, err)
	require.Contains(t, german, "InfB-SE1")
}

// group appointments live behind a session-scoped link, so only the
// link survives a cache round-trip and the appointments are refetched
// on next access
func TestGroupJSONDropsAppointments(t *testing.T) {
	start := berlin(t, 2022, time.April, 6, 14, 15)
	group := Group{
		Name:        "Gruppe 01",
		Instructors: []string{"Dr. Max Mustermann"},
		Schedule:    "Mo, 14:15 - 15:45",
		appointments: loadedFacet("grouplink", []Appointment{
			{Start: &start, Room: "D-125"},
		}),
	}

	data, err := json.Marshal(group)
	require.NoError(t, err)

	var restored Group
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Equal(t, group.Name, restored.Name)
	require.Equal(t, group.Instructors, restored.Instructors)
	require.Equal(t, group.Schedule, restored.Schedule)
	require.False(t, restored.appointments.loaded)
	require.Equal(t, "grouplink", restored.appointments.link)
}

func TestCourseResultJSONRoundTrip(t *testing.T) {
	grade := 1.7
	result := CourseResult{
		Number:        "InfB-SE1",
		Name:          "Softwareentwicklung I",
		FinalGrade:    &grade,
		Credits:       "9,0",
		Status:        "bestanden",
		hasGradeStats: true,
		gradeStats:    unloadedFacet[GradeStats]("381865010228083"),
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var restored CourseResult
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Equal(t, result.Number, restored.Number)
	require.NotNil(t, restored.FinalGrade)
	require.InDelta(t, 1.7, *restored.FinalGrade, 1e-9)
	require.True(t, restored.HasGradeStats())
	require.False(t, restored.gradeStats.loaded)
	require.Equal(t, "381865010228083", restored.gradeStats.link)
}
