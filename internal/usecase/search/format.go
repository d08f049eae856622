package search

import (
	"fmt"

	"github.com/kailas-cloud/searchbot/internal/domain/document"
)

// Placeholders for documents indexed without a name or content.
const (
	DefaultTitle   = "Untitled Document"
	DefaultContent = "No content available"
)

// FormatDocument renders one document as a markdown block for the prompt.
// Documents with a source URI get a link; others get a "no reference" marker.
func FormatDocument(doc *document.Document) string {
	title := doc.Title()
	if title == "" {
		title = DefaultTitle
	}
	content := doc.Content()
	if content == "" {
		content = DefaultContent
	}

	if doc.SourceURI() == "" {
		return fmt.Sprintf("**Title**: %s\n\n**Content**: %s\n\n(No document reference available)\n\n", title, content)
	}
	return fmt.Sprintf("**Title**: %s\n\n**Content**: %s\n\n[Read more here](%s)\n\n", title, content, doc.SourceURI())
}

// documentFromFields hydrates a document from the fields returned by the search service.
// Missing or non-string fields become empty strings.
func documentFromFields(fields map[string]any) document.Document {
	return document.Reconstruct(
		stringField(fields, document.FieldID),
		stringField(fields, document.FieldTitle),
		stringField(fields, document.FieldSourceURI),
		stringField(fields, document.FieldContent),
		stringField(fields, document.FieldDisplayTitle),
		nil,
	)
}

func stringField(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
