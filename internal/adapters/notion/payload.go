package notion

import (
	"time"

	"mailclip/internal/domain"
)

// Property names of the clipping database.
const (
	titleProperty     = "発行日"
	companiesProperty = "登場企業"
	permalinkProperty = "元のメールURL"
	receivedProperty  = "メール受信日時"
	kindProperty      = "種類"
)

// maxTextUnits is the store's per-field text-length ceiling. Scalar values
// are pre-truncated and body content pre-chunked so the store never
// rejects a write for length.
const maxTextUnits = 2000

// pageInput maps a Record to the create-page request body.
func pageInput(databaseID string, rec domain.Record) map[string]any {
	properties := map[string]any{
		titleProperty: map[string]any{
			"title": []any{textContent(truncate(rec.PublishedDate))},
		},
		permalinkProperty: map[string]any{"url": rec.LogicalKey},
		receivedProperty: map[string]any{
			"date": map[string]any{"start": rec.ReceivedAt.UTC().Format(time.RFC3339)},
		},
	}

	for _, section := range rec.Sections {
		properties[section.Name] = map[string]any{
			"rich_text": []any{textContent(truncate(section.Text))},
		}
	}

	if len(rec.Companies) > 0 {
		options := make([]any, 0, len(rec.Companies))
		for _, name := range rec.Companies {
			options = append(options, map[string]any{"name": name})
		}
		properties[companiesProperty] = map[string]any{"multi_select": options}
	}

	if rec.Kind != "" {
		properties[kindProperty] = map[string]any{
			"select": map[string]any{"name": rec.Kind},
		}
	}

	input := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}

	if rec.AttachBody && rec.FullBody != "" {
		children := []any{
			map[string]any{
				"object": "block",
				"type":   "heading_2",
				"heading_2": map[string]any{
					"rich_text": []any{textContent("受信メール全文")},
				},
			},
		}
		for _, chunk := range chunkText(rec.FullBody) {
			children = append(children, map[string]any{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]any{
					"rich_text": []any{textContent(chunk)},
				},
			})
		}
		input["children"] = children
	}

	return input
}

func textContent(s string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": s},
	}
}

// truncate keeps exactly the first maxTextUnits units of s. No sentence
// awareness: the full text stays recoverable from the body blocks.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTextUnits {
		return s
	}
	return string(runes[:maxTextUnits])
}

// chunkText splits s into ordered blocks of at most maxTextUnits units.
// Chunk boundaries are fixed-size so concatenating the blocks in order
// reproduces the original text exactly.
func chunkText(s string) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var chunks []string
	for start := 0; start < len(runes); start += maxTextUnits {
		end := start + maxTextUnits
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
