package curriculum

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// UnnamedItemTitle is the title given to raw content rows without a source name.
const UnnamedItemTitle = "Unnamed Item"

// canonicalItem is an entry of an {"items": [...]} document.
type canonicalItem struct {
	ID           scalar          `json:"id"`
	Title        scalar          `json:"title"`
	Type         scalar          `json:"type"`
	StandardCode scalar          `json:"standard_code"`
	LessonID     scalar          `json:"lesson_id"`
	Source       scalar          `json:"source"`
	Content      json.RawMessage `json:"content"`
	APIData      json.RawMessage `json:"api_data"`
}

// contentRow is an entry of a {"content": [...]} document produced from CSV.
type contentRow struct {
	ID          scalar `json:"id"`
	Source      scalar `json:"source"`
	ContentType scalar `json:"content_type"`
	Standard    scalar `json:"standard"`
	Lesson      scalar `json:"lesson"`
}

// legacyFields are identifiers that older payloads carry under other names.
type legacyFields struct {
	Standard          scalar `json:"standard"`
	CFItemID          scalar `json:"CFItemId"`
	CFItemIDLower     scalar `json:"cfItemId"`
	HumanCodingScheme scalar `json:"humanCodingScheme"`
	Lesson            scalar `json:"lesson"`
}

// ParseContent normalizes a content document. {"items": [...]} is already
// canonical: its entries are indexed but marshal back byte for byte.
// {"content": [...]} rows are remapped. Any other shape is an error.
func ParseContent(data []byte) (ContentDocument, error) {
	top, err := decodeObject(data)
	if err != nil {
		return emptyContent(), fmt.Errorf("parsing content: %w", err)
	}

	for _, m := range top {
		switch m.Key {
		case "items":
			return parseCanonicalItems(m.Value)
		case "content":
			return parseContentRows(m.Value)
		}
	}
	return emptyContent(), fmt.Errorf("parsing content: expected top-level \"items\" or \"content\" array")
}

func parseCanonicalItems(raw json.RawMessage) (ContentDocument, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return emptyContent(), fmt.Errorf("parsing items: %w", err)
	}

	doc := emptyContent()
	for i, entry := range entries {
		var ci canonicalItem
		if err := json.Unmarshal(entry, &ci); err != nil {
			doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
				Source:  fmt.Sprintf("items[%d]", i),
				Message: err.Error(),
			})
			continue
		}
		item := ContentItem{
			ID:           ci.ID.String(),
			Title:        ci.Title.String(),
			Type:         ci.Type.String(),
			StandardCode: ci.StandardCode.String(),
			LessonID:     ci.LessonID.String(),
			Source:       ci.Source.String(),
			Content:      ci.Content,
			APIData:      ci.APIData,
		}
		item.refs = refsFrom(ci.Content)
		if isObject(entry) {
			item.raw = append(json.RawMessage(nil), entry...)
		}
		doc.Items = append(doc.Items, item)
	}
	return doc, nil
}

func parseContentRows(raw json.RawMessage) (ContentDocument, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return emptyContent(), fmt.Errorf("parsing content rows: %w", err)
	}

	doc := emptyContent()
	for i, entry := range entries {
		var row contentRow
		if err := json.Unmarshal(entry, &row); err != nil {
			doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
				Source:  fmt.Sprintf("content[%d]", i),
				Message: err.Error(),
			})
			continue
		}
		doc.Items = append(doc.Items, row.normalize(entry))
	}
	return doc, nil
}

func (r contentRow) normalize(original json.RawMessage) ContentItem {
	title := r.Source.String()
	if title == "" {
		title = UnnamedItemTitle
	}
	itemType := r.ContentType.String()
	if itemType == "" {
		itemType = DefaultItemType
	}
	item := ContentItem{
		ID:           r.ID.String(),
		Title:        title,
		Type:         itemType,
		StandardCode: r.Standard.String(),
		LessonID:     r.Lesson.String(),
		Source:       SourceLocal,
		Content:      append(json.RawMessage(nil), original...),
	}
	item.refs = refsFrom(original)
	return item
}

func refsFrom(payload json.RawMessage) itemRefs {
	if !isObject(payload) {
		return itemRefs{}
	}
	var lf legacyFields
	if err := json.Unmarshal(payload, &lf); err != nil {
		return itemRefs{}
	}

	var refs itemRefs
	for _, v := range []scalar{lf.Standard, lf.CFItemID, lf.HumanCodingScheme} {
		if v != "" {
			refs.standards = append(refs.standards, v.String())
		}
	}
	refs.lesson = lf.Lesson.String()
	refs.cfItemID = lf.CFItemIDLower.String()
	return refs
}

// LoadContent reads and normalizes the content file at path. Like
// LoadCurriculum it never fails; problems become diagnostics.
func LoadContent(path string) ContentDocument {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("content file unavailable", "path", path, "error", err)
		doc := emptyContent()
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{Source: path, Message: err.Error()})
		return doc
	}

	doc, err := ParseContent(data)
	if err != nil {
		slog.Warn("content file malformed", "path", path, "error", err)
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{Source: path, Message: err.Error()})
		return doc
	}

	for _, d := range doc.Diagnostics {
		slog.Warn("skipped content record", "path", path, "source", d.Source, "error", d.Message)
	}
	slog.Info("content loaded", "path", path, "items", len(doc.Items))
	return doc
}

func emptyContent() ContentDocument {
	return ContentDocument{Items: []ContentItem{}}
}
