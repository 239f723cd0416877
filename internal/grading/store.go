package grading

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GradeRecord is one persisted grading verdict.
type GradeRecord struct {
	RunID        uuid.UUID       `json:"run_id"`
	QuestionID   string          `json:"question_id"`
	Fingerprint  string          `json:"fingerprint"`
	StandardCode string          `json:"standard_code,omitempty"`
	Passed       bool            `json:"passed"`
	Score        float64         `json:"score"`
	Feedback     *string         `json:"feedback,omitempty"`
	Scorecard    map[string]bool `json:"scorecard"`
	Model        string          `json:"model,omitempty"`
	Tokens       int             `json:"tokens,omitempty"`
	GradedAt     time.Time       `json:"graded_at"`
}

// Store persists grading verdicts. Saving the same fingerprint twice in one
// run replaces the earlier record.
type Store interface {
	SaveGrade(ctx context.Context, rec GradeRecord) error
	ListRun(ctx context.Context, runID uuid.UUID) ([]GradeRecord, error)
	LatestGrade(ctx context.Context, fingerprint string) (GradeRecord, bool, error)
}

type gradeKey struct {
	run         uuid.UUID
	fingerprint string
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	grades map[gradeKey]GradeRecord
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory grade store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		grades: make(map[gradeKey]GradeRecord),
	}
}

func (s *MemoryStore) SaveGrade(_ context.Context, rec GradeRecord) error {
	if rec.Fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if rec.GradedAt.IsZero() {
		rec.GradedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grades[gradeKey{rec.RunID, rec.Fingerprint}] = rec
	return nil
}

func (s *MemoryStore) ListRun(_ context.Context, runID uuid.UUID) ([]GradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []GradeRecord{}
	for k, rec := range s.grades {
		if k.run == runID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GradedAt.Equal(out[j].GradedAt) {
			return out[i].GradedAt.Before(out[j].GradedAt)
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

func (s *MemoryStore) LatestGrade(_ context.Context, fingerprint string) (GradeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest GradeRecord
	found := false
	for k, rec := range s.grades {
		if k.fingerprint != fingerprint {
			continue
		}
		if !found || rec.GradedAt.After(latest.GradedAt) {
			latest = rec
			found = true
		}
	}
	return latest, found, nil
}
