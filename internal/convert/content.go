package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Content spreadsheet columns.
const (
	ColID              = "id"
	ColContentType     = "content type"
	ColSource          = "source"
	ColSubject         = "subject"
	ColContentGrade    = "grade"
	ColStandard        = "standard"
	ColContentLesson   = "lesson"
	ColDifficulty      = "difficulty"
	ColInteractionType = "interaction type"
)

// ContentRecord is a raw content row as written to the content document.
// Subject is a list when the cell holds a list literal such as
// ['Math', 'Science'], otherwise the cell text.
type ContentRecord struct {
	ID              string `json:"id"`
	ContentType     string `json:"content_type"`
	Source          string `json:"source"`
	Subject         any    `json:"subject"`
	Grade           string `json:"grade"`
	Standard        string `json:"standard"`
	Lesson          string `json:"lesson"`
	Difficulty      string `json:"difficulty"`
	InteractionType string `json:"interaction_type"`
}

// ContentDocument is the {"content": [...]} document.
type ContentDocument struct {
	Content []ContentRecord `json:"content"`
}

// Content maps content rows one to one.
func Content(rows []Row) ContentDocument {
	doc := ContentDocument{Content: make([]ContentRecord, 0, len(rows))}
	for _, r := range rows {
		doc.Content = append(doc.Content, ContentRecord{
			ID:              r.Get(ColID),
			ContentType:     r.Get(ColContentType),
			Source:          r.Get(ColSource),
			Subject:         parseSubject(r.Get(ColSubject)),
			Grade:           r.Get(ColContentGrade),
			Standard:        r.Get(ColStandard),
			Lesson:          r.Get(ColContentLesson),
			Difficulty:      r.Get(ColDifficulty),
			InteractionType: r.Get(ColInteractionType),
		})
	}
	return doc
}

// parseSubject decodes a list or string literal written with single or
// double quotes. Anything else is returned unchanged.
func parseSubject(cell string) any {
	s := strings.TrimSpace(cell)
	if v, ok := unquote(s); ok {
		return v
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return cell
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	out := []string{}
	for inner != "" {
		end := closingQuote(inner)
		if end < 0 {
			return cell
		}
		v, ok := unquote(inner[:end+1])
		if !ok {
			return cell
		}
		out = append(out, v)

		inner = strings.TrimSpace(inner[end+1:])
		if inner == "" {
			break
		}
		if inner[0] != ',' {
			return cell
		}
		inner = strings.TrimSpace(inner[1:])
	}
	return out
}

// closingQuote returns the index of the quote closing the literal at the
// start of s, or -1.
func closingQuote(s string) int {
	if s == "" || (s[0] != '\'' && s[0] != '"') {
		return -1
	}
	q := s[0]
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i
		}
	}
	return -1
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q || closingQuote(s) != len(s)-1 {
		return "", false
	}
	body := s[1 : len(s)-1]
	r := strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`, `\n`, "\n", `\t`, "\t")
	return r.Replace(body), true
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
