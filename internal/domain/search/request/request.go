package request

import (
	"fmt"

	"github.com/kailas-cloud/searchbot/internal/domain/search/mode"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 4096
	DefaultTop     = 5
	MaxTop         = 1000
	DefaultK       = 2
	MaxK           = 100
	// DefaultTokenBudget is used when no budget is configured.
	DefaultTokenBudget = 1000
)

// Request is a validated query for one user turn.
type Request struct {
	query          string
	searchMode     mode.Mode
	selectFields   []string
	searchFields   []string
	top            int
	k              int
	tokenBudget    int
	semanticConfig string
}

// New validates and normalizes query parameters.
// Defaults: mode=semantic, top=5, k=2, tokenBudget=1000.
// Semantic mode requires a semantic configuration name.
func New(
	query string,
	m mode.Mode,
	selectFields, searchFields []string,
	top, k, tokenBudget int,
	semanticConfig string,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Semantic
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if m == mode.Semantic && semanticConfig == "" {
		return Request{}, fmt.Errorf("semantic mode requires a semantic configuration name")
	}
	if top <= 0 {
		top = DefaultTop
	}
	if top > MaxTop {
		top = MaxTop
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}

	return Request{
		query:          query,
		searchMode:     m,
		selectFields:   selectFields,
		searchFields:   searchFields,
		top:            top,
		k:              k,
		tokenBudget:    tokenBudget,
		semanticConfig: semanticConfig,
	}, nil
}

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// Mode returns the query strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// SelectFields returns the fields to retrieve (nil = all retrievable fields).
func (r *Request) SelectFields() []string { return r.selectFields }

// SearchFields returns the fields a full-text clause is restricted to (nil = all searchable fields).
func (r *Request) SearchFields() []string { return r.searchFields }

// Top returns the maximum number of ranked results to fetch.
func (r *Request) Top() int { return r.top }

// K returns the number of nearest neighbors for the vector clause.
func (r *Request) K() int { return r.k }

// TokenBudget returns the maximum tokens the rendered context may occupy.
func (r *Request) TokenBudget() int { return r.tokenBudget }

// SemanticConfig returns the semantic ranking configuration name.
func (r *Request) SemanticConfig() string { return r.semanticConfig }
