package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartwood-edu/heartwood/internal/progress"
)

const dbTimeout = 5 * time.Second

// Schema is the DDL for the enrollment tables. Progress records are stored
// whole as jsonb: SaveProgress is a single-document overwrite.
const Schema = `
CREATE TABLE IF NOT EXISTS enrollments (
	child_id     TEXT        NOT NULL,
	course_id    TEXT        NOT NULL,
	course_title TEXT        NOT NULL DEFAULT '',
	enrolled_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	record       JSONB       NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (child_id, course_id)
);

CREATE TABLE IF NOT EXISTS learner_totals (
	child_id     TEXT    PRIMARY KEY,
	total_points INTEGER NOT NULL DEFAULT 0,
	streak       INTEGER NOT NULL DEFAULT 0,
	last_active  DATE
);
`

// PostgresStore is a PostgreSQL-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the enrollment tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure enrollment schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Enroll(ctx context.Context, childID, courseID, courseTitle string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if childID == "" || courseID == "" {
		return fmt.Errorf("child id and course id are required")
	}

	rec, err := json.Marshal(progress.NewRecord(time.Now()))
	if err != nil {
		return fmt.Errorf("encode empty record: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrollments (child_id, course_id, course_title, record)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (child_id, course_id) DO NOTHING`,
		childID, courseID, courseTitle, rec,
	)
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadProgress(ctx context.Context, childID, courseID string) (progress.Record, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM enrollments WHERE child_id = $1 AND course_id = $2`,
		childID, courseID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.Record{}, false, nil
	}
	if err != nil {
		return progress.Record{}, false, fmt.Errorf("load progress: %w", err)
	}

	var rec progress.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return progress.Record{}, false, fmt.Errorf("decode progress record: %w", err)
	}
	if rec.Completions == nil {
		rec.Completions = make(map[string]progress.LessonCompletion)
	}
	return rec, true, nil
}

func (s *PostgresStore) SaveProgress(ctx context.Context, childID, courseID string, rec progress.Record) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode progress record: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE enrollments
		 SET record = $3, updated_at = NOW()
		 WHERE child_id = $1 AND course_id = $2`,
		childID, courseID, data,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: child %s course %s", ErrNotEnrolled, childID, courseID)
	}
	return nil
}

func (s *PostgresStore) ListEnrollments(ctx context.Context, childID string) ([]progress.Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT course_id, course_title, enrolled_at, record
		 FROM enrollments
		 WHERE child_id = $1
		 ORDER BY enrolled_at ASC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []progress.Overview
	for rows.Next() {
		var o progress.Overview
		var data []byte
		if err := rows.Scan(&o.CourseID, &o.Title, &o.EnrolledAt, &data); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		var rec progress.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode progress record: %w", err)
		}
		o.Record = &rec
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddPoints(ctx context.Context, childID string, delta int) (Totals, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// Streak math runs in SQL so concurrent writers agree on day boundaries.
	var t Totals
	var lastActive *time.Time
	err := s.pool.QueryRow(ctx,
		`INSERT INTO learner_totals (child_id, total_points, streak, last_active)
		 VALUES ($1, GREATEST($2, 0), 1, CURRENT_DATE)
		 ON CONFLICT (child_id) DO UPDATE SET
			total_points = GREATEST(learner_totals.total_points + $2, 0),
			streak = CASE
				WHEN learner_totals.last_active = CURRENT_DATE THEN learner_totals.streak
				WHEN learner_totals.last_active = CURRENT_DATE - 1 THEN learner_totals.streak + 1
				ELSE 1
			END,
			last_active = CURRENT_DATE
		 RETURNING total_points, streak, last_active`,
		childID, delta,
	).Scan(&t.TotalPoints, &t.Streak, &lastActive)
	if err != nil {
		return Totals{}, fmt.Errorf("add points: %w", err)
	}
	if lastActive != nil {
		t.LastActive = *lastActive
	}
	return t, nil
}

func (s *PostgresStore) Totals(ctx context.Context, childID string) (Totals, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var t Totals
	var lastActive *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT total_points, streak, last_active FROM learner_totals WHERE child_id = $1`,
		childID,
	).Scan(&t.TotalPoints, &t.Streak, &lastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Totals{}, nil
	}
	if err != nil {
		return Totals{}, fmt.Errorf("load totals: %w", err)
	}
	if lastActive != nil {
		t.LastActive = *lastActive
	}
	return t, nil
}
