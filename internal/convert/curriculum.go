package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Curriculum spreadsheet columns.
const (
	ColGrade               = "Grade"
	ColLesson              = "Lesson"
	ColThirdPartyCode      = "Third party code"
	ColSkillCode           = "IXL skill code"
	ColOrder               = "Order"
	ColVideoURL            = "Instructional Video URL"
	ColStandardCode        = "Standard Code"
	ColStandardDescription = "Standard Description"

	sampleQuestionColumns = 4
)

var markdownBlock = regexp.MustCompile("(?s)```markdown(.*?)```")

// LessonRecord is a lesson as written to the curriculum document.
type LessonRecord struct {
	Title               string   `json:"title"`
	ThirdPartyCode      string   `json:"third_party_code"`
	SkillCode           string   `json:"ixl_skill_code"`
	Order               string   `json:"order"`
	VideoURL            string   `json:"video_url"`
	StandardCode        string   `json:"standard_code"`
	StandardDescription string   `json:"standard_description"`
	SampleQuestions     []string `json:"sample_questions"`
}

// GradeLessons is one grade and its lessons in sheet order.
type GradeLessons struct {
	Grade   string
	Lessons []LessonRecord
}

// CurriculumDocument is the {"curriculum": {grade: {"lessons": [...]}}}
// document. Grades are written in the order they first appear.
type CurriculumDocument struct {
	Grades []GradeLessons
}

// LessonCount returns the number of lessons across all grades.
func (d CurriculumDocument) LessonCount() int {
	n := 0
	for _, g := range d.Grades {
		n += len(g.Lessons)
	}
	return n
}

// MarshalJSON writes grades as object members in document order.
func (d CurriculumDocument) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"curriculum":{`)
	for i, g := range d.Grades {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(g.Grade)
		if err != nil {
			return nil, err
		}
		lessons, err := json.Marshal(struct {
			Lessons []LessonRecord `json:"lessons"`
		}{g.Lessons})
		if err != nil {
			return nil, fmt.Errorf("encoding grade %s: %w", g.Grade, err)
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(lessons)
	}
	b.WriteString(`}}`)
	return b.Bytes(), nil
}

// Curriculum groups lesson rows by grade. Rows without a grade or lesson
// name are skipped.
func Curriculum(rows []Row) CurriculumDocument {
	var doc CurriculumDocument
	index := make(map[string]int)

	for _, r := range rows {
		grade := strings.TrimSpace(r.Get(ColGrade))
		title := r.Get(ColLesson)
		if grade == "" || strings.TrimSpace(title) == "" {
			continue
		}

		i, ok := index[grade]
		if !ok {
			i = len(doc.Grades)
			index[grade] = i
			doc.Grades = append(doc.Grades, GradeLessons{Grade: grade, Lessons: []LessonRecord{}})
		}

		doc.Grades[i].Lessons = append(doc.Grades[i].Lessons, LessonRecord{
			Title:               title,
			ThirdPartyCode:      r.Get(ColThirdPartyCode),
			SkillCode:           r.Get(ColSkillCode),
			Order:               r.Get(ColOrder),
			VideoURL:            r.Get(ColVideoURL),
			StandardCode:        r.Get(ColStandardCode),
			StandardDescription: r.Get(ColStandardDescription),
			SampleQuestions:     sampleQuestions(r),
		})
	}
	return doc
}

func sampleQuestions(r Row) []string {
	out := []string{}
	for n := 1; n <= sampleQuestionColumns; n++ {
		out = append(out, MarkdownBlocks(r.Get(fmt.Sprintf("Sample Question %d", n)))...)
	}
	return out
}

// MarkdownBlocks returns the trimmed bodies of the ```markdown fenced blocks in text.
func MarkdownBlocks(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, m := range markdownBlock.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}
