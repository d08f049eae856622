package db

// QueryType selects how the search service parses and ranks the text clause.
type QueryType string

const (
	// QuerySimple is the default full-text parser.
	QuerySimple QueryType = "simple"
	// QuerySemantic enables semantic reranking.
	QuerySemantic QueryType = "semantic"
)

// VectorQuery is a k-nearest-neighbor clause over a vector field.
type VectorQuery struct {
	Vector []float32
	K      int
	Fields []string
}

// SearchQuery is the input for a single search request.
// An empty Text with a VectorQuery issues a pure vector search.
type SearchQuery struct {
	IndexName      string
	Text           string
	QueryType      QueryType
	SemanticConfig string
	SearchFields   []string
	Select         []string
	Top            int
	Vector         *VectorQuery
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Entries []SearchEntry
}

// SearchEntry is a single document hit, in the order returned by the service.
type SearchEntry struct {
	Score         float64
	RerankerScore float64
	Fields        map[string]any
}

// DocumentAction is the write mode for an indexing batch.
type DocumentAction string

const (
	// ActionMergeOrUpload updates an existing document or inserts it.
	ActionMergeOrUpload DocumentAction = "mergeOrUpload"
	// ActionUpload replaces or inserts.
	ActionUpload DocumentAction = "upload"
	// ActionDelete removes by key.
	ActionDelete DocumentAction = "delete"
)

// IndexingResult is the per-document status of an indexing batch.
type IndexingResult struct {
	Key          string
	Succeeded    bool
	StatusCode   int
	ErrorMessage string
}
