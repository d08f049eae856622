package mode

import "fmt"

// Mode is the query strategy used against the search index.
type Mode string

// Search mode constants.
const (
	// Keyword is a plain full-text query.
	Keyword Mode = "keyword"
	// Semantic is a full-text query reranked with a named semantic configuration.
	Semantic Mode = "semantic"
	// Vector is a k-nearest-neighbor query over the embedding field.
	Vector Mode = "vector"
	// Hybrid is a full-text query over named fields, optionally combined with a vector clause.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Semantic || m == Vector || m == Hybrid
}

// NeedsEmbedding reports whether the mode may issue a vector clause.
func (m Mode) NeedsEmbedding() bool {
	return m == Vector || m == Hybrid
}

// Parse converts a config value into a Mode. Empty defaults to Semantic.
func Parse(s string) (Mode, error) {
	if s == "" {
		return Semantic, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid search mode: %q", s)
	}
	return m, nil
}
