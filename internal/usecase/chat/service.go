package chat

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/domain"
)

// Source tags where a response came from.
type Source string

const (
	// SourceLLM marks a model-generated response.
	SourceLLM Source = "llm"
	// SourceSearch marks a response taken directly from retrieved documents.
	SourceSearch Source = "search"
)

// SearchCommand starts a message that should be answered from the index without generation.
// It must be the whole message or be followed by whitespace.
const SearchCommand = "/search"

// TooLongMessage replaces a retrieval-derived reply whose only match exceeded the token budget.
const TooLongMessage = "The matching document is too long to display within the configured token budget."

// Response is the answer to one user turn.
type Response struct {
	Output string
	Source Source
}

// Config holds orchestration settings.
type Config struct {
	// TokenBudget bounds the retrieved context (0 = the source's default).
	TokenBudget int
	// Prompt is a text/template with {{.Context}} and {{.Input}}; empty uses DefaultPrompt.
	Prompt string
}

// Service turns one user utterance into one tagged response.
type Service struct {
	source ContextSource
	gen    Generator
	prompt *template.Template
	budget int
	logger *zap.Logger
}

// New creates a chat service. gen can be nil, in which case every answer is retrieval-derived.
func New(source ContextSource, gen Generator, cfg Config, logger *zap.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: chat requires a context source", domain.ErrConfiguration)
	}
	text := cfg.Prompt
	if text == "" {
		text = DefaultPrompt
	}
	tmpl, err := parsePrompt(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, gen: gen, prompt: tmpl, budget: cfg.TokenBudget, logger: logger}, nil
}

// Respond answers input. Messages starting with SearchCommand, and every message when no
// generator is configured, are answered with the rendered context itself.
func (s *Service) Respond(ctx context.Context, input string) (Response, error) {
	if query, ok := searchQuery(input); ok || s.gen == nil {
		if !ok {
			query = input
		}
		return s.retrieve(ctx, strings.TrimSpace(query))
	}

	query := strings.TrimSpace(input)
	rc, err := s.source.RenderContext(ctx, query, s.budget)
	if err != nil {
		return Response{}, fmt.Errorf("render context: %w", err)
	}

	system, err := renderPrompt(s.prompt, promptData{Context: rc.Text(), Input: query})
	if err != nil {
		return Response{}, err
	}

	out, err := s.gen.Generate(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: query},
	})
	if err != nil {
		return Response{}, fmt.Errorf("generate: %w", err)
	}

	s.logger.Debug("Generated response",
		zap.Int("context_tokens", rc.TokenCount()),
		zap.Bool("context_truncated", rc.Truncated()),
		zap.Strings("documents", rc.Included()),
	)
	return Response{Output: out, Source: SourceLLM}, nil
}

// searchQuery reports whether input is a SearchCommand and returns the text after it.
func searchQuery(input string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimLeftFunc(input, unicode.IsSpace), SearchCommand)
	if !ok {
		return "", false
	}
	if r, _ := utf8.DecodeRuneInString(rest); rest != "" && !unicode.IsSpace(r) {
		return "", false
	}
	return rest, true
}

func (s *Service) retrieve(ctx context.Context, query string) (Response, error) {
	rc, err := s.source.RenderContext(ctx, query, s.budget)
	if err != nil {
		return Response{}, fmt.Errorf("render context: %w", err)
	}
	out := rc.Text()
	if out == "" {
		out = TooLongMessage
	}
	return Response{Output: out, Source: SourceSearch}, nil
}
