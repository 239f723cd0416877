package grading_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/curriculum-atlas/internal/grading"
)

func strPtr(s string) *string { return &s }

// exerciseStore runs the behavior every Store must share.
func exerciseStore(t *testing.T, store grading.Store) {
	t.Helper()
	ctx := context.Background()
	run1, run2 := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	saves := []grading.GradeRecord{
		{
			RunID: run1, QuestionID: "q-1", Fingerprint: "fp-1", StandardCode: "MS-PS2-2",
			Passed: false, Score: 0, Feedback: strPtr("wrong key"),
			Scorecard: map[string]bool{"Content Quality": false}, Model: "mock", Tokens: 42,
			GradedAt: base,
		},
		{
			RunID: run1, QuestionID: "q-2", Fingerprint: "fp-2", Passed: true, Score: 1,
			GradedAt: base.Add(time.Second),
		},
		// Same fingerprint, same run: replaces.
		{
			RunID: run1, QuestionID: "q-1", Fingerprint: "fp-1", Passed: true, Score: 1,
			GradedAt: base.Add(2 * time.Second),
		},
		// Same fingerprint, later run.
		{
			RunID: run2, QuestionID: "q-1", Fingerprint: "fp-1", Passed: false, Score: 0,
			Scorecard: map[string]bool{"Format Quality": false},
			GradedAt:  base.Add(time.Hour),
		},
	}
	for _, rec := range saves {
		if err := store.SaveGrade(ctx, rec); err != nil {
			t.Fatalf("SaveGrade(%s, %s) error = %v", rec.RunID, rec.Fingerprint, err)
		}
	}

	recs, err := store.ListRun(ctx, run1)
	if err != nil {
		t.Fatalf("ListRun() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ListRun() = %d records, want 2", len(recs))
	}
	if recs[0].Fingerprint != "fp-2" || recs[1].Fingerprint != "fp-1" {
		t.Errorf("fingerprints = %q, %q, want fp-2, fp-1", recs[0].Fingerprint, recs[1].Fingerprint)
	}
	if !recs[1].Passed {
		t.Error("second save in a run should replace the first")
	}

	latest, ok, err := store.LatestGrade(ctx, "fp-1")
	if err != nil {
		t.Fatalf("LatestGrade() error = %v", err)
	}
	if !ok {
		t.Fatal("LatestGrade() found nothing for fp-1")
	}
	if latest.RunID != run2 {
		t.Errorf("latest RunID = %v, want %v", latest.RunID, run2)
	}
	if want := map[string]bool{"Format Quality": false}; !reflect.DeepEqual(latest.Scorecard, want) {
		t.Errorf("latest Scorecard = %v, want %v", latest.Scorecard, want)
	}

	_, ok, err = store.LatestGrade(ctx, "missing")
	if err != nil {
		t.Fatalf("LatestGrade(missing) error = %v", err)
	}
	if ok {
		t.Error("LatestGrade(missing) should find nothing")
	}

	empty, err := store.ListRun(ctx, uuid.New())
	if err != nil {
		t.Fatalf("ListRun(unknown) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListRun(unknown) = %d records, want 0", len(empty))
	}

	if err := store.SaveGrade(ctx, grading.GradeRecord{RunID: run1}); err == nil {
		t.Error("SaveGrade() without fingerprint should return error")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, grading.NewMemoryStore())
}

func TestMemoryStore_DefaultsGradedAt(t *testing.T) {
	store := grading.NewMemoryStore()
	run := uuid.New()
	if err := store.SaveGrade(context.Background(), grading.GradeRecord{RunID: run, Fingerprint: "fp"}); err != nil {
		t.Fatalf("SaveGrade() error = %v", err)
	}

	recs, err := store.ListRun(context.Background(), run)
	if err != nil {
		t.Fatalf("ListRun() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListRun() = %d records, want 1", len(recs))
	}
	if recs[0].GradedAt.IsZero() {
		t.Error("GradedAt should default to now")
	}
}
