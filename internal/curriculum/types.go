package curriculum

import "encoding/json"

// Standard is a curricular requirement that lessons and content items may be tagged with.
type Standard struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Grade       string `json:"grade"`
}

// Lesson is a unit of instruction belonging to exactly one grade.
type Lesson struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	StandardCode        string   `json:"standard_code,omitempty"`
	StandardDescription string   `json:"standard_description,omitempty"`
	Grade               string   `json:"grade"`
	SampleQuestions     []string `json:"sample_questions"`
	QuestionCount       int      `json:"question_count"`
	Description         string   `json:"description,omitempty"`
	ThirdPartyCode      string   `json:"third_party_code,omitempty"`
	SkillCode           string   `json:"ixl_skill_code,omitempty"`
	Order               string   `json:"order,omitempty"`
	VideoURL            string   `json:"video_url,omitempty"`
}

// Content item sources.
const (
	SourceLocal = "local"
	SourceCCC   = "CCC API"
)

// DefaultItemType is used when a raw content row carries no content type.
const DefaultItemType = "article"

// ContentItem is an article, question or media record tied to zero or more
// of a Standard and a Lesson.
type ContentItem struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Type         string          `json:"type"`
	StandardCode string          `json:"standard_code,omitempty"`
	LessonID     string          `json:"lesson_id,omitempty"`
	Source       string          `json:"source"`
	Content      json.RawMessage `json:"content,omitempty"`
	APIData      json.RawMessage `json:"api_data,omitempty"`

	refs itemRefs
	// raw is the entry as read from an {"items": [...]} document.
	raw json.RawMessage
}

type contentItemJSON ContentItem

// MarshalJSON writes items read from a canonical {"items": [...]} document
// back out verbatim, with api_data set when it was attached after loading.
func (c ContentItem) MarshalJSON() ([]byte, error) {
	if c.raw == nil {
		return json.Marshal(contentItemJSON(c))
	}
	if c.APIData == nil {
		return c.raw, nil
	}
	return setMember(c.raw, "api_data", c.APIData)
}

// itemRefs holds identifiers found inside the raw payload under legacy field names.
type itemRefs struct {
	standards []string
	lesson    string
	cfItemID  string
}

// MatchesStandard reports whether the item is tagged with code, either through
// its canonical standard_code or one of the legacy aliases in its raw payload
// (standard, CFItemId, humanCodingScheme).
func (c ContentItem) MatchesStandard(code string) bool {
	if c.StandardCode == code {
		return true
	}
	for _, alias := range c.refs.standards {
		if alias == code {
			return true
		}
	}
	return false
}

// MatchesLesson reports whether the item's lesson reference, in string form, equals id.
func (c ContentItem) MatchesLesson(id string) bool {
	if c.LessonID != "" {
		return c.LessonID == id
	}
	return c.refs.lesson != "" && c.refs.lesson == id
}

// CFItemID returns the CCC item identifier carried in the raw payload, if any.
func (c ContentItem) CFItemID() string {
	return c.refs.cfItemID
}

// Diagnostic records a non-fatal problem met while loading a dataset file.
type Diagnostic struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Curriculum is the normalized form of a curriculum document.
type Curriculum struct {
	Standards   []Standard
	Lessons     []Lesson
	Diagnostics []Diagnostic
}

// ContentDocument is the normalized form of a content document.
type ContentDocument struct {
	Items       []ContentItem
	Diagnostics []Diagnostic
}
