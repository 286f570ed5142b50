package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stine-client/lib/scrapers/stine"
	"stine-client/lib/timezone"

	_ "modernc.org/sqlite"
)

// Store keeps the last seen state per notification event, so that a
// later run can tell what changed. Per-language collections keep a
// German snapshot from diffing against an English fetch.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
	collection TEXT NOT NULL,
	language TEXT NOT NULL,
	payload TEXT NOT NULL,
	updated INTEGER NOT NULL,
	PRIMARY KEY (collection, language)
);`

func NewStore(database *sql.DB) (Store, error) {
	if _, err := database.Exec(schema); err != nil {
		return Store{}, fmt.Errorf("creating snapshot table: %w", err)
	}
	return Store{db: database}, nil
}

// readSnapshot returns ok=false when no snapshot exists yet, which is
// the first-run case and not an error.
func readSnapshot[T any](ctx context.Context, s Store, collection string, lang stine.Language) (value T, ok bool, err error) {
	var payload string
	err = s.db.QueryRowContext(ctx,
		"SELECT payload FROM snapshot WHERE collection = ? AND language = ?",
		collection, string(lang)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return value, false, fmt.Errorf("decoding %s snapshot: %w", collection, err)
	}
	return value, true, nil
}

func writeSnapshot[T any](ctx context.Context, s Store, collection string, lang stine.Language, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", collection, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshot (collection, language, payload, updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, language) DO UPDATE SET payload = excluded.payload, updated = excluded.updated`,
		collection, string(lang), string(payload), timezone.Now().Unix())
	return err
}

func (s Store) Documents(ctx context.Context, lang stine.Language) ([]stine.Document, bool, error) {
	return readSnapshot[[]stine.Document](ctx, s, "documents", lang)
}

func (s Store) SaveDocuments(ctx context.Context, lang stine.Language, docs []stine.Document) error {
	return writeSnapshot(ctx, s, "documents", lang, docs)
}

func (s Store) CourseResults(ctx context.Context, lang stine.Language) (map[string]stine.CourseResult, bool, error) {
	return readSnapshot[map[string]stine.CourseResult](ctx, s, "course_results", lang)
}

func (s Store) SaveCourseResults(ctx context.Context, lang stine.Language, results map[string]stine.CourseResult) error {
	return writeSnapshot(ctx, s, "course_results", lang, results)
}

// Notified periods are language independent, the row lives under an
// empty language key.
func (s Store) NotifiedPeriods(ctx context.Context) ([]stine.RegistrationPeriod, bool, error) {
	return readSnapshot[[]stine.RegistrationPeriod](ctx, s, "notified_periods", "")
}

func (s Store) SaveNotifiedPeriods(ctx context.Context, periods []stine.RegistrationPeriod) error {
	return writeSnapshot(ctx, s, "notified_periods", "", periods)
}
