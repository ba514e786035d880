package analyst

import (
	"encoding/json"
	"fmt"
)

// ContentItem is one unit of an analyst answer. The set of variants is
// closed: SQLItem, TextItem, SuggestionsItem and UnknownItem.
type ContentItem interface {
	contentItem()
}

// SQLItem carries a generated SQL statement.
type SQLItem struct {
	Statement string
}

// TextItem carries narrative text meant to be shown as-is.
type TextItem struct {
	Text string
}

// SuggestionsItem carries follow-up questions, in display order.
type SuggestionsItem struct {
	Suggestions []string
}

// UnknownItem is a content type this client does not render.
type UnknownItem struct {
	Type string
}

func (SQLItem) contentItem()         {}
func (TextItem) contentItem()        {}
func (SuggestionsItem) contentItem() {}
func (UnknownItem) contentItem()     {}

const (
	contentTypeSQL         = "sql"
	contentTypeText        = "text"
	contentTypeSuggestions = "suggestions"
)

type rawContentItem struct {
	Type        string   `json:"type"`
	Statement   string   `json:"statement"`
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions"`
}

func decodeContent(raw []json.RawMessage) ([]ContentItem, error) {
	items := make([]ContentItem, 0, len(raw))
	for index, entry := range raw {
		var item rawContentItem
		if err := json.Unmarshal(entry, &item); err != nil {
			return nil, fmt.Errorf("decode content item %d: %w", index, err)
		}
		switch item.Type {
		case contentTypeSQL:
			items = append(items, SQLItem{Statement: item.Statement})
		case contentTypeText:
			items = append(items, TextItem{Text: item.Text})
		case contentTypeSuggestions:
			items = append(items, SuggestionsItem{Suggestions: item.Suggestions})
		default:
			items = append(items, UnknownItem{Type: item.Type})
		}
	}
	return items, nil
}
