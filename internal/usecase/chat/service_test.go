package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/search/rendered"
)

// --- Mocks ---

type mockSource struct {
	ctx       rendered.Context
	err       error
	lastQuery string
	lastBudg  int
	calls     int
}

func (m *mockSource) RenderContext(_ context.Context, query string, tokenBudget int) (rendered.Context, error) {
	m.calls++
	m.lastQuery = query
	m.lastBudg = tokenBudget
	return m.ctx, m.err
}

type mockGenerator struct {
	out      string
	err      error
	messages []domain.ChatMessage
}

func (m *mockGenerator) Generate(_ context.Context, messages []domain.ChatMessage) (string, error) {
	m.messages = messages
	return m.out, m.err
}

func docContext() rendered.Context {
	return rendered.New("**Title**: a.txt\n\n**Content**: wifi password is hunter2\n\n", 7, false, []string{"1"})
}

// --- Tests ---

func TestRespond_Generated(t *testing.T) {
	src := &mockSource{ctx: docContext()}
	gen := &mockGenerator{out: "The password is hunter2."}
	svc, err := New(src, gen, Config{TokenBudget: 500}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := svc.Respond(context.Background(), "  what is the wifi password?  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Source != SourceLLM || resp.Output != "The password is hunter2." {
		t.Errorf("unexpected response: %+v", resp)
	}
	if src.lastQuery != "what is the wifi password?" || src.lastBudg != 500 {
		t.Errorf("unexpected render call: %q/%d", src.lastQuery, src.lastBudg)
	}
	if len(gen.messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(gen.messages))
	}
	if gen.messages[0].Role != domain.RoleSystem || !strings.Contains(gen.messages[0].Content, "hunter2") {
		t.Errorf("system prompt must carry the rendered context: %q", gen.messages[0].Content)
	}
	if gen.messages[1].Role != domain.RoleUser || gen.messages[1].Content != "what is the wifi password?" {
		t.Errorf("unexpected user message: %+v", gen.messages[1])
	}
}

func TestRespond_SearchCommand(t *testing.T) {
	src := &mockSource{ctx: docContext()}
	gen := &mockGenerator{err: errors.New("must not be called")}
	svc, _ := New(src, gen, Config{}, nil)

	resp, err := svc.Respond(context.Background(), "/search wifi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Source != SourceSearch {
		t.Errorf("expected %q, got %q", SourceSearch, resp.Source)
	}
	if want := docContext(); resp.Output != want.Text() {
		t.Errorf("expected rendered context as output, got %q", resp.Output)
	}
	if src.lastQuery != "wifi" {
		t.Errorf("expected command prefix stripped, got %q", src.lastQuery)
	}
	if gen.messages != nil {
		t.Error("generator must not be called for search command")
	}
}

func TestRespond_BareSearchCommand(t *testing.T) {
	src := &mockSource{ctx: rendered.Empty(rendered.NoDocumentsMessage)}
	gen := &mockGenerator{err: errors.New("must not be called")}
	svc, _ := New(src, gen, Config{}, nil)

	for _, input := range []string{"/search", "/search   ", "/search\twifi"} {
		resp, err := svc.Respond(context.Background(), input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
		if resp.Source != SourceSearch {
			t.Errorf("%q: expected %q, got %q", input, SourceSearch, resp.Source)
		}
	}
	if src.lastQuery != "wifi" {
		t.Errorf("expected tab-separated query, got %q", src.lastQuery)
	}
	if gen.messages != nil {
		t.Error("generator must not be called for search command")
	}
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		input string
		query string
		ok    bool
	}{
		{"/search", "", true},
		{"/search printer", " printer", true},
		{"  /search printer", " printer", true},
		{"/searching for printers", "", false},
		{"what does /search do", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		query, ok := searchQuery(tt.input)
		if query != tt.query || ok != tt.ok {
			t.Errorf("searchQuery(%q) = %q, %t; want %q, %t", tt.input, query, ok, tt.query, tt.ok)
		}
	}
}

func TestRespond_NoGenerator(t *testing.T) {
	src := &mockSource{ctx: rendered.Empty(rendered.NoDocumentsMessage)}
	svc, _ := New(src, nil, Config{}, nil)

	resp, err := svc.Respond(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Source != SourceSearch || resp.Output != rendered.NoDocumentsMessage {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRespond_OversizedOnlyMatch(t *testing.T) {
	src := &mockSource{ctx: rendered.New("", 0, true, nil)}
	svc, _ := New(src, nil, Config{}, nil)

	resp, err := svc.Respond(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Output != TooLongMessage {
		t.Errorf("expected %q, got %q", TooLongMessage, resp.Output)
	}
}

func TestRespond_RetrievalError(t *testing.T) {
	src := &mockSource{err: domain.ErrRetrieval}
	gen := &mockGenerator{}
	svc, _ := New(src, gen, Config{}, nil)

	_, err := svc.Respond(context.Background(), "x")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if gen.messages != nil {
		t.Error("generator must not be called after retrieval failure")
	}
}

func TestRespond_GenerationError(t *testing.T) {
	svc, _ := New(&mockSource{ctx: docContext()}, &mockGenerator{err: domain.ErrGeneration}, Config{}, nil)

	_, err := svc.Respond(context.Background(), "x")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestNew_CustomPrompt(t *testing.T) {
	gen := &mockGenerator{out: "ok"}
	svc, err := New(&mockSource{ctx: docContext()}, gen, Config{Prompt: "Q: {{.Input}}\nDocs: {{.Context}}"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := svc.Respond(context.Background(), "wifi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(gen.messages[0].Content, "Q: wifi\nDocs: **Title**") {
		t.Errorf("unexpected system prompt: %q", gen.messages[0].Content)
	}
}

func TestNew_InvalidPrompt(t *testing.T) {
	_, err := New(&mockSource{}, nil, Config{Prompt: "{{.Context"}, nil)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(nil, nil, Config{}, nil)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadPrompt(t *testing.T) {
	got, err := LoadPrompt("")
	if err != nil || got != DefaultPrompt {
		t.Fatalf("empty path must return default prompt, got %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "chat.txt")
	if err := os.WriteFile(path, []byte("custom {{.Context}}"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = LoadPrompt(path)
	if err != nil || got != "custom {{.Context}}" {
		t.Fatalf("unexpected prompt %q, %v", got, err)
	}

	if _, err := LoadPrompt(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
