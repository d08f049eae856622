package result

import "github.com/kailas-cloud/searchbot/internal/domain/document"

// Result is a single ranked search hit.
type Result struct {
	doc           document.Document
	score         float64
	rerankerScore float64
}

// New creates a search result.
func New(doc document.Document, score, rerankerScore float64) Result {
	return Result{doc: doc, score: score, rerankerScore: rerankerScore}
}

// Document returns the matched document.
func (r *Result) Document() document.Document { return r.doc }

// Score returns the relevance score reported by the search service.
func (r *Result) Score() float64 { return r.score }

// RerankerScore returns the semantic reranker score (0 outside semantic mode).
func (r *Result) RerankerScore() float64 { return r.rerankerScore }
