package index

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/searchbot/internal/db"
	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/document"
)

// --- Mocks ---

// fakeService keeps indexes and documents in memory.
type fakeService struct {
	indexes     map[string]*db.IndexDefinition
	docs        map[string]map[string]map[string]any
	createCalls int
	getErr      error
	getFailures int
	writeErr    error
}

func newFakeService() *fakeService {
	return &fakeService{
		indexes: make(map[string]*db.IndexDefinition),
		docs:    make(map[string]map[string]map[string]any),
	}
}

func (f *fakeService) GetIndex(_ context.Context, name string) (*db.IndexDefinition, error) {
	if f.getFailures > 0 {
		f.getFailures--
		return nil, &db.Error{Op: db.OpGetIndex, StatusCode: 404, Err: db.ErrIndexNotFound}
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	def, ok := f.indexes[name]
	if !ok {
		return nil, &db.Error{Op: db.OpGetIndex, StatusCode: 404, Err: db.ErrIndexNotFound}
	}
	return def, nil
}

func (f *fakeService) CreateOrUpdateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.createCalls++
	f.indexes[def.Name] = def
	return nil
}

func (f *fakeService) DeleteIndex(_ context.Context, name string) error {
	if _, ok := f.indexes[name]; !ok {
		return &db.Error{Op: db.OpDeleteIndex, StatusCode: 404, Err: db.ErrIndexNotFound}
	}
	delete(f.indexes, name)
	delete(f.docs, name)
	return nil
}

func (f *fakeService) IndexDocuments(
	_ context.Context, index string, action db.DocumentAction, docs []map[string]any,
) ([]db.IndexingResult, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	stored, ok := f.docs[index]
	if !ok {
		stored = make(map[string]map[string]any)
		f.docs[index] = stored
	}
	results := make([]db.IndexingResult, 0, len(docs))
	for _, d := range docs {
		key, _ := d[document.FieldID].(string)
		switch action {
		case db.ActionDelete:
			delete(stored, key)
			results = append(results, db.IndexingResult{Key: key, Succeeded: true, StatusCode: 200})
			continue
		case db.ActionMergeOrUpload:
		default:
			return nil, errors.New("unexpected action " + string(action))
		}
		merged, ok := stored[key]
		if !ok {
			merged = make(map[string]any)
		}
		for k, v := range d {
			merged[k] = v
		}
		stored[key] = merged
		results = append(results, db.IndexingResult{Key: key, Succeeded: true, StatusCode: 200})
	}
	return results, nil
}

func mustDoc(t *testing.T, id, content string) document.Document {
	t.Helper()
	doc, err := document.New(id, "file"+id+".txt", "https://example.com/file"+id+".txt", content, "")
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return doc
}

// --- EnsureIndex ---

func TestEnsureIndex_Idempotent(t *testing.T) {
	fake := newFakeService()
	svc := New(fake, fake, nil)
	def := DefaultDefinition("sharepoint-index2", 0)

	created, err := svc.EnsureIndex(context.Background(), def)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !created {
		t.Error("expected first call to create the index")
	}

	created, err = svc.EnsureIndex(context.Background(), def)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if created {
		t.Error("expected second call to be a no-op")
	}
	if fake.createCalls != 1 {
		t.Errorf("expected exactly one creation call, got %d", fake.createCalls)
	}
}

func TestEnsureIndex_LookupFailure(t *testing.T) {
	fake := newFakeService()
	fake.getErr = &db.Error{Op: db.OpGetIndex, StatusCode: 403, Err: db.ErrUnauthorized}
	svc := New(fake, fake, nil)

	_, err := svc.EnsureIndex(context.Background(), DefaultDefinition("docs", 0))
	if !errors.Is(err, db.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if fake.createCalls != 0 {
		t.Error("non-404 lookup failures must not trigger creation")
	}
}

// --- UpsertDocuments ---

func TestUpsertDocuments_Overwrites(t *testing.T) {
	fake := newFakeService()
	svc := New(fake, fake, nil)
	ctx := context.Background()

	if err := svc.UpsertDocuments(ctx, "docs", []document.Document{mustDoc(t, "1", "A")}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := svc.UpsertDocuments(ctx, "docs", []document.Document{mustDoc(t, "1", "B")}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	stored := fake.docs["docs"]
	if len(stored) != 1 {
		t.Fatalf("expected one document, got %d", len(stored))
	}
	if got := stored["1"][document.FieldContent]; got != "B" {
		t.Errorf("expected content %q, got %v", "B", got)
	}
}

func TestUpsertDocuments_FieldMapping(t *testing.T) {
	fake := newFakeService()
	svc := New(fake, fake, nil)

	doc := mustDoc(t, "2", "hello").WithVector([]float32{0.5, 0.25})
	if err := svc.UpsertDocuments(context.Background(), "docs", []document.Document{doc}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := fake.docs["docs"]["2"]
	if got[document.FieldTitle] != "file2.txt" || got[document.FieldDisplayTitle] != "file2.txt" {
		t.Errorf("unexpected titles: %v", got)
	}
	if got[document.FieldSourceURI] != "https://example.com/file2.txt" {
		t.Errorf("unexpected uri: %v", got[document.FieldSourceURI])
	}
	if vec, ok := got[document.FieldVector].([]float32); !ok || len(vec) != 2 {
		t.Errorf("expected vector field, got %v", got[document.FieldVector])
	}
}

func TestUpsertDocuments_Empty(t *testing.T) {
	fake := newFakeService()
	fake.writeErr = errors.New("must not be called")
	svc := New(fake, fake, nil)

	if err := svc.UpsertDocuments(context.Background(), "docs", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsertDocuments_PartialFailure(t *testing.T) {
	fake := newFakeService()
	fake.writeErr = &db.Error{Op: db.OpIndexDocuments, StatusCode: 207, Err: db.ErrPartialBatch}
	svc := New(fake, fake, nil)

	err := svc.UpsertDocuments(context.Background(), "docs", []document.Document{mustDoc(t, "1", "A")})
	if !errors.Is(err, db.ErrPartialBatch) {
		t.Fatalf("expected ErrPartialBatch, got %v", err)
	}
}

// --- DeleteIndex ---

func TestDeleteIndex(t *testing.T) {
	fake := newFakeService()
	fake.indexes["docs"] = DefaultDefinition("docs", 0)
	svc := New(fake, fake, nil)

	if err := svc.DeleteIndex(context.Background(), "docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fake.indexes["docs"]; ok {
		t.Error("index was not deleted")
	}
}

func TestDeleteIndex_NotFound(t *testing.T) {
	svc := New(newFakeService(), nil, nil)

	err := svc.DeleteIndex(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- WaitForReady ---

func TestWaitForReady_EventuallyReady(t *testing.T) {
	fake := newFakeService()
	fake.indexes["docs"] = DefaultDefinition("docs", 0)
	fake.getFailures = 2
	svc := New(fake, fake, nil, WithPollInterval(time.Millisecond, 2*time.Millisecond))

	if err := svc.WaitForReady(context.Background(), "docs", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.getFailures != 0 {
		t.Errorf("expected all failures consumed, %d left", fake.getFailures)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	svc := New(newFakeService(), nil, nil, WithPollInterval(time.Millisecond, 5*time.Millisecond))

	err := svc.WaitForReady(context.Background(), "never", 20*time.Millisecond)
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
	if !strings.Contains(err.Error(), "never") {
		t.Errorf("expected index name in error, got %v", err)
	}
}

func TestWaitForReady_Unauthorized(t *testing.T) {
	fake := newFakeService()
	fake.getErr = &db.Error{Op: db.OpGetIndex, StatusCode: 401, Err: db.ErrUnauthorized}
	svc := New(fake, nil, nil, WithPollInterval(time.Millisecond, time.Millisecond))

	err := svc.WaitForReady(context.Background(), "docs", time.Second)
	if !errors.Is(err, db.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeleteDocuments(t *testing.T) {
	fake := newFakeService()
	svc := New(fake, fake, nil)
	ctx := context.Background()

	docs := []document.Document{mustDoc(t, "1", "a"), mustDoc(t, "2", "b"), mustDoc(t, "3", "c")}
	if err := svc.UpsertDocuments(ctx, "idx", docs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := svc.DeleteDocuments(ctx, "idx", []string{"3"}); err != nil {
		t.Fatalf("DeleteDocuments: %v", err)
	}
	if _, ok := fake.docs["idx"]["3"]; ok {
		t.Error("document 3 should be gone")
	}
	if len(fake.docs["idx"]) != 2 {
		t.Errorf("remaining docs = %d, want 2", len(fake.docs["idx"]))
	}

	if err := svc.DeleteDocuments(ctx, "idx", nil); err != nil {
		t.Errorf("empty delete should be a no-op: %v", err)
	}
}
