// Package rendered holds the prompt-ready text produced from ranked search results.
package rendered

// Explanatory outputs for the cases where no document text is rendered.
const (
	NoInputMessage     = "No input provided for the search."
	NoDocumentsMessage = "No documents found matching the query."
)

// Context is the bounded text injected into a prompt.
// TokenCount never exceeds the budget the context was rendered for.
type Context struct {
	text       string
	tokenCount int
	truncated  bool
	included   []string
}

// New creates a rendered context. included lists the IDs of documents in text, in order.
func New(text string, tokenCount int, truncated bool, included []string) Context {
	return Context{text: text, tokenCount: tokenCount, truncated: truncated, included: included}
}

// Empty creates a context carrying only an explanatory message; it counts zero tokens.
func Empty(message string) Context {
	return Context{text: message}
}

// Text returns the rendered text.
func (c *Context) Text() string { return c.text }

// TokenCount returns the tokens used by the rendered documents.
func (c *Context) TokenCount() int { return c.tokenCount }

// Truncated reports whether at least one ranked document was dropped to respect the budget.
func (c *Context) Truncated() bool { return c.truncated }

// Included returns the IDs of the rendered documents.
func (c *Context) Included() []string { return c.included }

// IsEmpty reports whether no document was rendered.
func (c *Context) IsEmpty() bool { return len(c.included) == 0 }
