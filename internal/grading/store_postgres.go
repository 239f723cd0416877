package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. It expects the question_grades
// table created by the database migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed grade store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveGrade(ctx context.Context, rec GradeRecord) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if rec.Fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if rec.GradedAt.IsZero() {
		rec.GradedAt = time.Now()
	}
	scorecard, err := json.Marshal(nonNilScorecard(rec.Scorecard))
	if err != nil {
		return fmt.Errorf("encode scorecard: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO question_grades
		   (run_id, question_id, fingerprint, standard_code, passed, score, feedback, scorecard, model, tokens, graded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (run_id, fingerprint) DO UPDATE SET
		   question_id = EXCLUDED.question_id,
		   standard_code = EXCLUDED.standard_code,
		   passed = EXCLUDED.passed,
		   score = EXCLUDED.score,
		   feedback = EXCLUDED.feedback,
		   scorecard = EXCLUDED.scorecard,
		   model = EXCLUDED.model,
		   tokens = EXCLUDED.tokens,
		   graded_at = EXCLUDED.graded_at`,
		rec.RunID,
		rec.QuestionID,
		rec.Fingerprint,
		rec.StandardCode,
		rec.Passed,
		rec.Score,
		rec.Feedback,
		scorecard,
		rec.Model,
		rec.Tokens,
		rec.GradedAt,
	)
	if err != nil {
		return fmt.Errorf("save grade: %w", err)
	}
	return nil
}

const selectGrade = `SELECT run_id, question_id, fingerprint, standard_code, passed, score, feedback, scorecard, model, tokens, graded_at
	 FROM question_grades`

func (s *PostgresStore) ListRun(ctx context.Context, runID uuid.UUID) ([]GradeRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, selectGrade+` WHERE run_id = $1 ORDER BY graded_at ASC, fingerprint ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}
	defer rows.Close()

	out := []GradeRecord{}
	for rows.Next() {
		rec, err := scanGrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grades: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) LatestGrade(ctx context.Context, fingerprint string) (GradeRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, selectGrade+` WHERE fingerprint = $1 ORDER BY graded_at DESC LIMIT 1`, fingerprint)
	rec, err := scanGrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return GradeRecord{}, false, nil
	}
	if err != nil {
		return GradeRecord{}, false, err
	}
	return rec, true, nil
}

func scanGrade(row pgx.Row) (GradeRecord, error) {
	var rec GradeRecord
	var score float32
	var scorecard []byte
	if err := row.Scan(
		&rec.RunID,
		&rec.QuestionID,
		&rec.Fingerprint,
		&rec.StandardCode,
		&rec.Passed,
		&score,
		&rec.Feedback,
		&scorecard,
		&rec.Model,
		&rec.Tokens,
		&rec.GradedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GradeRecord{}, err
		}
		return GradeRecord{}, fmt.Errorf("scan grade: %w", err)
	}
	rec.Score = float64(score)
	if err := json.Unmarshal(scorecard, &rec.Scorecard); err != nil {
		return GradeRecord{}, fmt.Errorf("decode scorecard: %w", err)
	}
	return rec, nil
}

func nonNilScorecard(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}
