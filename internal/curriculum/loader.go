package curriculum

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// rawLesson is a lesson record as written by the curriculum converter.
// Title falls back to the "Lesson" column name when "title" is absent.
type rawLesson struct {
	ID                  scalar   `json:"id"`
	Title               scalar   `json:"title"`
	LessonColumn        scalar   `json:"Lesson"`
	StandardCode        scalar   `json:"standard_code"`
	StandardDescription scalar   `json:"standard_description"`
	SampleQuestions     []scalar `json:"sample_questions"`
	Description         scalar   `json:"description"`
	ThirdPartyCode      scalar   `json:"third_party_code"`
	SkillCode           scalar   `json:"ixl_skill_code"`
	Order               scalar   `json:"order"`
	VideoURL            scalar   `json:"video_url"`
}

type rawGrade struct {
	Lessons []json.RawMessage `json:"lessons"`
}

// ParseCurriculum normalizes a curriculum document. Both
// {"curriculum": {grade: {"lessons": [...]}}} and {grade: {"lessons": [...]}}
// are accepted. Grades and lessons are visited in document order; the first
// occurrence of a standard code fixes its description and grade.
func ParseCurriculum(data []byte) (Curriculum, error) {
	top, err := decodeObject(data)
	if err != nil {
		return emptyCurriculum(), fmt.Errorf("parsing curriculum: %w", err)
	}

	grades := top
	for _, m := range top {
		if m.Key != "curriculum" || !isObject(m.Value) {
			continue
		}
		grades, err = decodeObject(m.Value)
		if err != nil {
			return emptyCurriculum(), fmt.Errorf("parsing curriculum grades: %w", err)
		}
		break
	}

	c := emptyCurriculum()
	for _, g := range grades {
		if !isObject(g.Value) {
			continue
		}
		var grade rawGrade
		if err := json.Unmarshal(g.Value, &grade); err != nil {
			c.Diagnostics = append(c.Diagnostics, Diagnostic{
				Source:  "grade " + g.Key,
				Message: err.Error(),
			})
			continue
		}
		for i, raw := range grade.Lessons {
			var rl rawLesson
			if err := json.Unmarshal(raw, &rl); err != nil {
				c.Diagnostics = append(c.Diagnostics, Diagnostic{
					Source:  fmt.Sprintf("grade %s lesson %d", g.Key, i),
					Message: err.Error(),
				})
				continue
			}
			c.Lessons = append(c.Lessons, rl.normalize(g.Key, i))
		}
	}

	c.Standards = collectStandards(c.Lessons)
	return c, nil
}

func (rl rawLesson) normalize(grade string, position int) Lesson {
	id := rl.ID.String()
	if id == "" {
		id = fmt.Sprintf("%s-lesson-%d", grade, position)
	}
	title := rl.Title.String()
	if title == "" {
		title = rl.LessonColumn.String()
	}
	questions := scalars(rl.SampleQuestions)
	return Lesson{
		ID:                  id,
		Title:               title,
		StandardCode:        rl.StandardCode.String(),
		StandardDescription: rl.StandardDescription.String(),
		Grade:               grade,
		SampleQuestions:     questions,
		QuestionCount:       len(questions),
		Description:         rl.Description.String(),
		ThirdPartyCode:      rl.ThirdPartyCode.String(),
		SkillCode:           rl.SkillCode.String(),
		Order:               rl.Order.String(),
		VideoURL:            rl.VideoURL.String(),
	}
}

// collectStandards keeps the first (code, description, grade) seen per code.
func collectStandards(lessons []Lesson) []Standard {
	standards := []Standard{}
	seen := make(map[string]bool)
	for _, l := range lessons {
		if l.StandardCode == "" || seen[l.StandardCode] {
			continue
		}
		seen[l.StandardCode] = true
		standards = append(standards, Standard{
			Code:        l.StandardCode,
			Description: l.StandardDescription,
			Grade:       l.Grade,
		})
	}
	return standards
}

// LoadCurriculum reads and normalizes the curriculum file at path. It never
// fails: a missing, unreadable or malformed file yields an empty curriculum
// with a diagnostic, so the dashboard renders empty instead of erroring.
func LoadCurriculum(path string) Curriculum {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("curriculum file unavailable", "path", path, "error", err)
		c := emptyCurriculum()
		c.Diagnostics = append(c.Diagnostics, Diagnostic{Source: path, Message: err.Error()})
		return c
	}

	c, err := ParseCurriculum(data)
	if err != nil {
		slog.Warn("curriculum file malformed", "path", path, "error", err)
		c.Diagnostics = append(c.Diagnostics, Diagnostic{Source: path, Message: err.Error()})
		return c
	}

	for _, d := range c.Diagnostics {
		slog.Warn("skipped curriculum record", "path", path, "source", d.Source, "error", d.Message)
	}
	slog.Info("curriculum loaded", "path", path, "standards", len(c.Standards), "lessons", len(c.Lessons))
	return c
}

func emptyCurriculum() Curriculum {
	return Curriculum{Standards: []Standard{}, Lessons: []Lesson{}}
}
