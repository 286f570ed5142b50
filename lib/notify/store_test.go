package notify

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"stine-client/lib/scrapers/stine"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store, err := NewStore(database)
	require.NoError(t, err)
	return store
}

func TestStoreFirstRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, ok, err := store.Documents(ctx, stine.German)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.CourseResults(ctx, stine.German)
	require.NoError(t, err)
	require.False(t, ok)

	periods, ok, err := store.NotifiedPeriods(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, periods)
}

func TestStoreDocumentsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []stine.Document{{
		Name:     "Semesterbescheinigung",
		Created:  time.Date(2022, 8, 23, 12, 46, 0, 0, time.UTC),
		Download: "/scripts/filetransfer.exe?token=abc",
	}}
	require.NoError(t, store.SaveDocuments(ctx, stine.German, docs))

	got, ok, err := store.Documents(ctx, stine.German)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, docs, got)

	// snapshots in the other language are independent
	_, ok, err = store.Documents(ctx, stine.English)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := map[string]stine.CourseResult{
		"64-074": {Number: "64-074", Name: "BKA", Status: "Bestanden"},
	}
	require.NoError(t, store.SaveCourseResults(ctx, stine.English, first))

	second := map[string]stine.CourseResult{
		"64-074": {Number: "64-074", Name: "BKA", FinalGrade: grade(1.7), Status: "Bestanden"},
	}
	require.NoError(t, store.SaveCourseResults(ctx, stine.English, second))

	got, ok, err := store.CourseResults(ctx, stine.English)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1.7", formatGrade(got["64-074"].FinalGrade))
}

func TestStoreNotifiedPeriods(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	periods := []stine.RegistrationPeriod{{
		Kind: stine.GeneralRegistration,
		Period: stine.Period{
			Start: time.Date(2022, 9, 1, 7, 0, 0, 0, time.UTC),
			End:   time.Date(2022, 9, 22, 11, 0, 0, 0, time.UTC),
		},
	}}
	require.NoError(t, store.SaveNotifiedPeriods(ctx, periods))

	got, ok, err := store.NotifiedPeriods(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, periods, got)
}
