package grading_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/p-n-ai/curriculum-atlas/internal/grading"
)

func TestDefaultCriteria(t *testing.T) {
	c := grading.DefaultCriteria()
	wantCategories := []string{"Content Quality", "Format Quality", "Metadata Appropriateness"}
	if got := c.Categories(); !reflect.DeepEqual(got, wantCategories) {
		t.Errorf("Categories() = %v, want %v", got, wantCategories)
	}

	counts := map[string]int{}
	for _, g := range c.Groups {
		counts[g.Key] = len(g.Criteria)
	}
	wantCounts := map[string]int{"content": 6, "format": 4, "metadata": 5}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Errorf("criteria per group = %v, want %v", counts, wantCounts)
	}
}

func TestLoadCriteria_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	doc := `groups:
  - name: Accuracy
    key: accuracy
    criteria:
      - id: correct_key
        check: Is the keyed answer correct?
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := grading.LoadCriteria(path)
	if err != nil {
		t.Fatalf("LoadCriteria() error = %v", err)
	}
	if got := c.Categories(); !reflect.DeepEqual(got, []string{"Accuracy"}) {
		t.Errorf("Categories() = %v, want [Accuracy]", got)
	}
}

func TestLoadCriteria_EmptyPathUsesDefault(t *testing.T) {
	c, err := grading.LoadCriteria("")
	if err != nil {
		t.Fatalf("LoadCriteria() error = %v", err)
	}
	if len(c.Groups) != 3 {
		t.Errorf("Groups = %d, want 3", len(c.Groups))
	}
}

func TestParseCriteria_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "groups: [unclosed"},
		{"no groups", "groups: []"},
		{"unnamed group", "groups:\n  - criteria:\n      - id: a\n        check: b\n"},
		{"empty group", "groups:\n  - name: A\n"},
		{"check without id", "groups:\n  - name: A\n    criteria:\n      - check: b\n"},
		{"duplicate id", "groups:\n  - name: A\n    criteria:\n      - id: a\n        check: b\n      - id: a\n        check: c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := grading.ParseCriteria([]byte(tt.doc)); err == nil {
				t.Error("ParseCriteria() should return error")
			}
		})
	}
}

func TestLoadCriteria_MissingFile(t *testing.T) {
	if _, err := grading.LoadCriteria(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadCriteria() should return error for a missing file")
	}
}
