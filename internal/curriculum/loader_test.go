package curriculum_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/curriculum-atlas/internal/curriculum"
)

func TestParseCurriculum_BareGradeMap(t *testing.T) {
	doc := `{"3": {"lessons": [{"standard_code":"L.3.2.f","standard_description":"desc","Lesson":"spelling"}]}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}

	if len(c.Standards) != 1 {
		t.Fatalf("Standards = %d, want 1", len(c.Standards))
	}
	want := curriculum.Standard{Code: "L.3.2.f", Description: "desc", Grade: "3"}
	if c.Standards[0] != want {
		t.Errorf("Standards[0] = %+v, want %+v", c.Standards[0], want)
	}

	if len(c.Lessons) != 1 {
		t.Fatalf("Lessons = %d, want 1", len(c.Lessons))
	}
	if c.Lessons[0].ID != "3-lesson-0" {
		t.Errorf("Lessons[0].ID = %q, want 3-lesson-0", c.Lessons[0].ID)
	}
	if c.Lessons[0].Title != "spelling" {
		t.Errorf("Lessons[0].Title = %q, want spelling", c.Lessons[0].Title)
	}
}

func TestParseCurriculum_WrappedDocument(t *testing.T) {
	doc := `{"curriculum": {
		"4": {"lessons": [{"title": "Fractions", "standard_code": "4.NF.1"}]},
		"5": {"lessons": [{"id": "custom", "title": "Decimals"}]}
	}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}

	if len(c.Lessons) != 2 {
		t.Fatalf("Lessons = %d, want 2", len(c.Lessons))
	}
	if c.Lessons[0].ID != "4-lesson-0" || c.Lessons[0].Grade != "4" {
		t.Errorf("Lessons[0] = %+v, want id 4-lesson-0 grade 4", c.Lessons[0])
	}
	if c.Lessons[1].ID != "custom" || c.Lessons[1].Grade != "5" {
		t.Errorf("Lessons[1] = %+v, want id custom grade 5", c.Lessons[1])
	}
}

func TestParseCurriculum_GradeDocumentOrder(t *testing.T) {
	doc := `{"curriculum": {
		"8": {"lessons": [{"title": "a"}]},
		"10": {"lessons": [{"title": "b"}]},
		"2": {"lessons": [{"title": "c"}]}
	}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}

	want := []string{"8", "10", "2"}
	for i, l := range c.Lessons {
		if l.Grade != want[i] {
			t.Errorf("Lessons[%d].Grade = %q, want %q", i, l.Grade, want[i])
		}
	}
}

func TestParseCurriculum_DuplicateGradeLastWins(t *testing.T) {
	doc := `{
		"3": {"lessons": [{"title": "a"}]},
		"4": {"lessons": [{"title": "c"}]},
		"3": {"lessons": [{"title": "b"}]}
	}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}
	if len(c.Lessons) != 2 {
		t.Fatalf("Lessons = %d, want 2", len(c.Lessons))
	}
	if c.Lessons[0].Title != "b" || c.Lessons[0].ID != "3-lesson-0" {
		t.Errorf("Lessons[0] = %q/%q, want b/3-lesson-0", c.Lessons[0].Title, c.Lessons[0].ID)
	}
	if c.Lessons[1].Grade != "4" {
		t.Errorf("Lessons[1].Grade = %q, want 4 (first position of grade 3 kept)", c.Lessons[1].Grade)
	}

	g := curriculum.BuildGraph(c.Standards, c.Lessons, nil)
	if len(g.Nodes) != 2 {
		t.Errorf("graph nodes = %d, want 2", len(g.Nodes))
	}
}

func TestParseCurriculum_StandardsFirstOccurrenceWins(t *testing.T) {
	doc := `{"curriculum": {
		"3": {"lessons": [
			{"title": "one", "standard_code": "RL.3.1", "standard_description": "first"},
			{"title": "two", "standard_code": "RL.3.1", "standard_description": "second"},
			{"title": "three", "standard_code": "RL.3.2", "standard_description": "other"}
		]},
		"4": {"lessons": [
			{"title": "four", "standard_code": "RL.3.1", "standard_description": "grade four copy"}
		]}
	}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}

	if len(c.Standards) != 2 {
		t.Fatalf("Standards = %d, want 2 distinct codes", len(c.Standards))
	}
	if c.Standards[0].Description != "first" || c.Standards[0].Grade != "3" {
		t.Errorf("Standards[0] = %+v, want first description from grade 3", c.Standards[0])
	}
	if c.Standards[1].Code != "RL.3.2" {
		t.Errorf("Standards[1].Code = %q, want RL.3.2", c.Standards[1].Code)
	}
}

func TestParseCurriculum_QuestionCountDerived(t *testing.T) {
	doc := `{"1": {"lessons": [
		{"title": "x", "sample_questions": ["q1", "q2", "q3"], "question_count": 99}
	]}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}

	l := c.Lessons[0]
	if l.QuestionCount != 3 || len(l.SampleQuestions) != 3 {
		t.Errorf("QuestionCount = %d, SampleQuestions = %d, want 3 and 3", l.QuestionCount, len(l.SampleQuestions))
	}
}

func TestParseCurriculum_NumericFields(t *testing.T) {
	doc := `{"1": {"lessons": [{"id": 7, "title": "x", "order": 2}]}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}
	if c.Lessons[0].ID != "7" {
		t.Errorf("ID = %q, want 7", c.Lessons[0].ID)
	}
	if c.Lessons[0].Order != "2" {
		t.Errorf("Order = %q, want 2", c.Lessons[0].Order)
	}
}

func TestParseCurriculum_EveryLessonHasIDAndGrade(t *testing.T) {
	doc := `{"curriculum": {
		"K": {"lessons": [{}, {"id": ""}, {"title": "t"}]},
		"1": {"lessons": [{"id": "x"}]}
	}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}
	if len(c.Lessons) != 4 {
		t.Fatalf("Lessons = %d, want 4", len(c.Lessons))
	}
	for i, l := range c.Lessons {
		if l.ID == "" {
			t.Errorf("Lessons[%d].ID is empty", i)
		}
		if l.Grade == "" {
			t.Errorf("Lessons[%d].Grade is empty", i)
		}
	}
	if c.Lessons[1].ID != "K-lesson-1" {
		t.Errorf("Lessons[1].ID = %q, want K-lesson-1", c.Lessons[1].ID)
	}
}

func TestParseCurriculum_SkipsBadLesson(t *testing.T) {
	doc := `{"3": {"lessons": ["not an object", {"title": "ok"}]}}`

	c, err := curriculum.ParseCurriculum([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCurriculum() error = %v", err)
	}
	if len(c.Lessons) != 1 {
		t.Fatalf("Lessons = %d, want 1", len(c.Lessons))
	}
	if c.Lessons[0].ID != "3-lesson-1" {
		t.Errorf("ID = %q, want 3-lesson-1 (position counts skipped entries)", c.Lessons[0].ID)
	}
	if len(c.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %d, want 1", len(c.Diagnostics))
	}
}

func TestParseCurriculum_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"truncated", `{"3": {"lessons": [`},
		{"array", `[1, 2]`},
		{"trailing", `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := curriculum.ParseCurriculum([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseCurriculum() should return error")
			}
			if c.Standards == nil || c.Lessons == nil {
				t.Error("result collections should be empty, not nil")
			}
		})
	}
}

func TestLoadCurriculum_MissingFile(t *testing.T) {
	c := curriculum.LoadCurriculum(filepath.Join(t.TempDir(), "missing.json"))

	if len(c.Standards) != 0 || len(c.Lessons) != 0 {
		t.Errorf("got %d standards, %d lessons; want empty", len(c.Standards), len(c.Lessons))
	}
	if len(c.Diagnostics) == 0 {
		t.Error("missing file should record a diagnostic")
	}
}

func TestLoadCurriculum_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.json")
	os.WriteFile(path, []byte(`{"curriculum": `), 0o644)

	c := curriculum.LoadCurriculum(path)
	if c.Standards == nil || c.Lessons == nil {
		t.Fatal("collections should be non-nil")
	}
	if len(c.Lessons) != 0 {
		t.Errorf("Lessons = %d, want 0", len(c.Lessons))
	}
	if len(c.Diagnostics) == 0 {
		t.Error("malformed file should record a diagnostic")
	}
}
