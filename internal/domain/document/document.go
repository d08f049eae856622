package document

import (
	"fmt"
	"regexp"
)

// Key characters accepted by the search service for document keys.
var keyRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-=]+$`)

// MaxKeyLength is the maximum document key length.
const MaxKeyLength = 1024

// Index field names documents are stored under.
const (
	FieldID           = "id"
	FieldTitle        = "metadata_spo_item_name"
	FieldSourceURI    = "metadata_spo_item_weburi"
	FieldContent      = "content"
	FieldDisplayTitle = "metadata_spo_item_title"
	FieldVector       = "contentVector"
)

// Document is a searchable document (immutable value object).
// Re-upserting a document with the same ID replaces its fields.
type Document struct {
	id           string
	title        string
	sourceURI    string
	content      string
	displayTitle string
	vector       []float32
}

// New validates and creates a Document.
// ID must be a valid key; content must be non-empty. sourceURI is optional.
// An empty displayTitle defaults to title.
func New(id, title, sourceURI, content, displayTitle string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > MaxKeyLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxKeyLength)
	}
	if !keyRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID %q contains characters not allowed in keys", id)
	}
	if content == "" {
		return Document{}, fmt.Errorf("document %s: content is required", id)
	}
	if displayTitle == "" {
		displayTitle = title
	}

	return Document{
		id:           id,
		title:        title,
		sourceURI:    sourceURI,
		content:      content,
		displayTitle: displayTitle,
	}, nil
}

// Reconstruct creates a Document without validation (search result hydration).
func Reconstruct(id, title, sourceURI, content, displayTitle string, vector []float32) Document {
	return Document{
		id:           id,
		title:        title,
		sourceURI:    sourceURI,
		content:      content,
		displayTitle: displayTitle,
		vector:       vector,
	}
}

// ID returns the document key.
func (d *Document) ID() string { return d.id }

// Title returns the document name (file name for ingested files).
func (d *Document) Title() string { return d.title }

// SourceURI returns the reference link, or "" when the document has none.
func (d *Document) SourceURI() string { return d.sourceURI }

// Content returns the document text.
func (d *Document) Content() string { return d.content }

// DisplayTitle returns the title used by semantic ranking.
func (d *Document) DisplayTitle() string { return d.displayTitle }

// Vector returns the content embedding (nil if not computed).
func (d *Document) Vector() []float32 { return d.vector }

// HasVector reports whether the document carries an embedding.
func (d *Document) HasVector() bool { return len(d.vector) > 0 }

// WithVector returns a copy of the document carrying the given embedding.
func (d Document) WithVector(vec []float32) Document {
	d.vector = vec
	return d
}
