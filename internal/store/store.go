package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fitscrape/internal/catalog"
	"fitscrape/pkg/migrations"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// Store keeps a catalog in sqlite, one row per exercise plus one row per
// muscle worked.
type Store struct {
	db *sql.DB
}

func Open(path string) (Store, error) {
	db, err := migrations.OpenAndMigrateDB(Migrations, "migrations", path)
	if err != nil {
		return Store{}, err
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// ExportRun records one Replace call.
type ExportRun struct {
	Id         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	Exercises  int       `json:"exercises"`
	ExportedAt time.Time `json:"exported_at"`
}

// Replace swaps the stored catalog for `c` in a single transaction and
// records the export, `source` names where the catalog came from.
func (s Store) Replace(ctx context.Context, c *catalog.Catalog, source string) (ExportRun, error) {
	run := ExportRun{
		Id:         uuid.New(),
		Source:     source,
		Exercises:  c.Len(),
		ExportedAt: time.Now(),
	}
	err := s.replace(ctx, c, run)
	if err != nil {
		return ExportRun{}, err
	}
	return run, nil
}

func (s Store) replace(ctx context.Context, c *catalog.Catalog, run ExportRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "delete from muscle_worked")
	if err != nil {
		return fmt.Errorf("clear muscles worked: %w", err)
	}
	_, err = tx.ExecContext(ctx, "delete from exercise")
	if err != nil {
		return fmt.Errorf("clear exercises: %w", err)
	}

	insertExercise, err := tx.PrepareContext(ctx, `insert into exercise(
		title, url, equipment, primary_muscles, image_url, details_url
	) values (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertExercise.Close()

	insertMuscle, err := tx.PrepareContext(ctx, `insert into muscle_worked(
		exercise_title, muscle, percentage
	) values (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertMuscle.Close()

	for _, e := range c.Exercises() {
		_, err = insertExercise.ExecContext(
			ctx,
			e.Title,
			e.Url,
			e.Equipment,
			e.PrimaryMuscles,
			e.ImageUrl,
			e.DetailsUrl,
		)
		if err != nil {
			return fmt.Errorf("insert exercise %q: %w", e.Title, err)
		}
		for muscle, percentage := range e.MusclesWorked {
			_, err = insertMuscle.ExecContext(ctx, e.Title, muscle, percentage)
			if err != nil {
				return fmt.Errorf("insert muscle %q of %q: %w", muscle, e.Title, err)
			}
		}
	}

	_, err = tx.ExecContext(
		ctx,
		"insert into export_run(id, source, exercises, exported_at) values (?, ?, ?, ?)",
		run.Id.String(),
		run.Source,
		run.Exercises,
		run.ExportedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}

	return tx.Commit()
}

// LastExport returns the most recent export, ok is false when nothing was
// ever exported.
func (s Store) LastExport(ctx context.Context) (run ExportRun, ok bool, err error) {
	var id string
	var exportedAt int64
	err = s.db.QueryRowContext(
		ctx,
		"select id, source, exercises, exported_at from export_run order by exported_at desc, rowid desc limit 1",
	).Scan(&id, &run.Source, &run.Exercises, &exportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRun{}, false, nil
	}
	if err != nil {
		return ExportRun{}, false, err
	}

	run.Id, err = uuid.Parse(id)
	if err != nil {
		return ExportRun{}, false, fmt.Errorf("export run id %q: %w", id, err)
	}
	run.ExportedAt = time.Unix(exportedAt, 0)
	return run, true, nil
}

// Load reads the stored catalog back.
func (s Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `select
		title, url, equipment, primary_muscles, image_url, details_url
	from exercise`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := map[string]catalog.Exercise{}
	for rows.Next() {
		var e catalog.Exercise
		err = rows.Scan(&e.Title, &e.Url, &e.Equipment, &e.PrimaryMuscles, &e.ImageUrl, &e.DetailsUrl)
		if err != nil {
			return nil, err
		}
		e.MusclesWorked = map[string]string{}
		exercises[e.Title] = e
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	muscleRows, err := s.db.QueryContext(ctx, "select exercise_title, muscle, percentage from muscle_worked")
	if err != nil {
		return nil, err
	}
	defer muscleRows.Close()

	for muscleRows.Next() {
		var title, muscle, percentage string
		err = muscleRows.Scan(&title, &muscle, &percentage)
		if err != nil {
			return nil, err
		}
		e, ok := exercises[title]
		if !ok {
			continue
		}
		e.MusclesWorked[muscle] = percentage
	}
	err = muscleRows.Err()
	if err != nil {
		return nil, err
	}

	out := catalog.New()
	for _, e := range exercises {
		_, _, err = out.Put(e)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ExercisesWorking returns the titles of every exercise that works `muscle`,
// ordered by title.
func (s Store) ExercisesWorking(ctx context.Context, muscle string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select exercise_title from muscle_worked where muscle = ? order by exercise_title",
		muscle,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		err = rows.Scan(&title)
		if err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}
