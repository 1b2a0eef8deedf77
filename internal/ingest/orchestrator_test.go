package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"compliance-backend/internal/documents"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/media"
	"compliance-backend/internal/shared/storage/object"
	"compliance-backend/internal/shared/storage/object/local"
)

const validReply = `{
  "summary": "The policy sets out retention and access controls for customer records.",
  "keyPoints": [{"title": "Retention is seven years"}, {"title": "Access is role based"}, {"title": "Audits run quarterly"}],
  "actionSuggestions": [
    {"title": "Document the retention schedule", "label": "HIGH", "isCompleted": false},
    {"title": "Review access roles", "label": "MEDIUM", "isCompleted": false}
  ],
  "category": "POLICY",
  "totalPages": 4,
  "isComplete": true
}`

type stubProvider struct {
	reply     string
	err       error
	calls     int
	prompt    string
	document  string
	mediaType string
}

func (p *stubProvider) SendTextOnly(ctx context.Context, prompt string) (string, error) {
	p.calls++
	p.prompt = prompt
	return p.reply, p.err
}

func (p *stubProvider) SendWithDocument(ctx context.Context, prompt, docBase64 string, opts ...llm.DocumentOption) (string, error) {
	p.calls++
	p.prompt = prompt
	p.document = docBase64
	p.mediaType = llm.ApplyDocumentOptions(opts...).MediaType
	return p.reply, p.err
}

type stubSource struct {
	name     string
	provider llm.Provider
	err      error
}

func (s stubSource) Active(ctx context.Context) (string, llm.Provider, error) {
	return s.name, s.provider, s.err
}

type failingGateway struct{}

func (failingGateway) Store(ctx context.Context, ownerID, contentType string, r io.Reader) (object.Stored, error) {
	return object.Stored{}, object.ErrStorageUnavailable
}

func (failingGateway) FetchBytes(ctx context.Context, storedName string) ([]byte, error) {
	return nil, object.ErrStorageUnavailable
}

type fixture struct {
	orch     *Orchestrator
	docs     *documents.MemoryRepo
	media    *media.MemoryRepo
	dir      string
	provider *stubProvider
}

func newFixture(t *testing.T, provider *stubProvider) fixture {
	t.Helper()
	dir := t.TempDir()
	docs := documents.NewMemoryRepo()
	mediaRepo := media.NewMemoryRepo()
	gw := object.NewGateway(local.New(dir, "http://files.test"))

	orch := NewOrchestrator(gw, mediaRepo, docs, stubSource{name: llm.ProviderClaude, provider: provider})
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	orch.Now = func() time.Time {
		clock = clock.Add(50 * time.Millisecond)
		return clock
	}
	return fixture{orch: orch, docs: docs, media: mediaRepo, dir: dir, provider: provider}
}

func (f fixture) allDocuments(t *testing.T) []documents.Document {
	t.Helper()
	docs, _, err := f.docs.List(context.Background(), documents.ListFilter{Page: 1, Limit: 100})
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	return docs
}

func (f fixture) storedFiles(t *testing.T) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return count
}

func pdfBytes(size int) []byte {
	data := []byte("%PDF-1.4\n")
	return append(data, bytes.Repeat([]byte("0"), size-len(data))...)
}

func pdfUpload(name string, data []byte) Upload {
	return Upload{
		UserID:       "guest:g1",
		OriginalName: name,
		ContentType:  "application/pdf",
		Size:         int64(len(data)),
		Body:         bytes.NewReader(data),
	}
}

func TestIngestCompletesPDF(t *testing.T) {
	provider := &stubProvider{reply: validReply}
	f := newFixture(t, provider)
	data := pdfBytes(10 * 1024)

	detail, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", data))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if detail.Status != documents.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", detail.Status)
	}
	if detail.Category != documents.CategoryPolicy {
		t.Fatalf("expected POLICY, got %s", detail.Category)
	}
	if detail.TotalPages == nil || *detail.TotalPages != 4 {
		t.Fatalf("expected totalPages 4, got %v", detail.TotalPages)
	}
	if detail.Summary == nil || *detail.Summary == "" {
		t.Fatalf("expected summary")
	}
	if detail.ProcessingTimeMs == nil || *detail.ProcessingTimeMs <= 0 {
		t.Fatalf("expected positive processing time, got %v", detail.ProcessingTimeMs)
	}
	if detail.OriginalName != "policy.pdf" {
		t.Fatalf("expected original name policy.pdf, got %q", detail.OriginalName)
	}
	if detail.Size == nil || *detail.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %v", len(data), detail.Size)
	}
	if detail.URL == nil || !strings.HasPrefix(*detail.URL, "http://files.test/api/v1/files/") {
		t.Fatalf("unexpected url %v", detail.URL)
	}
	if len(detail.KeyPoints) != 3 || len(detail.ActionSuggestions) != 2 {
		t.Fatalf("expected 3 key points and 2 suggestions, got %d and %d", len(detail.KeyPoints), len(detail.ActionSuggestions))
	}

	stored, err := f.docs.Get(context.Background(), detail.ID)
	if err != nil {
		t.Fatalf("get stored document: %v", err)
	}
	if stored.Status != documents.StatusCompleted || stored.Category != documents.CategoryPolicy {
		t.Fatalf("unexpected stored document %+v", stored)
	}
	kps, _ := f.docs.ListKeyPoints(context.Background(), detail.ID)
	as, _ := f.docs.ListActionSuggestions(context.Background(), detail.ID)
	if len(kps) != 3 || len(as) != 2 {
		t.Fatalf("expected persisted 3/2 children, got %d/%d", len(kps), len(as))
	}
	for _, a := range as {
		if a.IsCompleted || a.CompletedAt != nil {
			t.Fatalf("expected open suggestion, got %+v", a)
		}
	}

	if f.media.Count() != 1 {
		t.Fatalf("expected 1 media row, got %d", f.media.Count())
	}
	if f.storedFiles(t) != 1 {
		t.Fatalf("expected 1 stored object")
	}

	if provider.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls)
	}
	if !strings.Contains(provider.prompt, "policy.pdf") || strings.Contains(provider.prompt, "{FILENAME}") {
		t.Fatalf("prompt did not substitute the file name")
	}
	if provider.document != base64.StdEncoding.EncodeToString(data) {
		t.Fatalf("provider did not receive the stored bytes")
	}
	if provider.mediaType != "application/pdf" {
		t.Fatalf("expected pdf media type, got %q", provider.mediaType)
	}
}

func TestIngestRejectsUnsupportedTypeBeforeIO(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{name: "declared png", contentType: "image/png", body: []byte("\x89PNG\r\n\x1a\nfake")},
		{name: "sniffed png", contentType: "application/octet-stream", body: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
		{name: "declared zip", contentType: "application/zip", body: []byte("PK\x03\x04")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{reply: validReply}
			f := newFixture(t, provider)

			_, err := f.orch.Ingest(context.Background(), Upload{
				UserID:       "guest:g1",
				OriginalName: "photo.png",
				ContentType:  tc.contentType,
				Size:         int64(len(tc.body)),
				Body:         bytes.NewReader(tc.body),
			})

			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("expected StageError, got %v", err)
			}
			if se.Kind != KindUnsupportedMediaType || se.Stage != StageReceived || !se.Rejected() {
				t.Fatalf("unexpected stage error %+v", se)
			}
			if !errors.Is(err, ErrUnsupportedMediaType) {
				t.Fatalf("expected ErrUnsupportedMediaType in chain")
			}
			if f.storedFiles(t) != 0 || f.media.Count() != 0 || len(f.allDocuments(t)) != 0 {
				t.Fatalf("expected no side effects")
			}
			if provider.calls != 0 {
				t.Fatalf("expected no provider call")
			}
		})
	}
}

func TestIngestSniffsGenericContentType(t *testing.T) {
	cases := []struct {
		name     string
		declared string
		body     []byte
		want     string
	}{
		{name: "pdf without type", declared: "", body: pdfBytes(4096), want: "application/pdf"},
		{name: "octet-stream text", declared: "application/octet-stream", body: []byte("Section 1. All staff complete training."), want: "text/plain"},
		{name: "declared with params", declared: "text/plain; charset=utf-8", body: []byte("plain"), want: "text/plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{reply: validReply}
			f := newFixture(t, provider)

			detail, err := f.orch.Ingest(context.Background(), Upload{
				UserID:       "guest:g1",
				OriginalName: "upload",
				ContentType:  tc.declared,
				Size:         int64(len(tc.body)),
				Body:         bytes.NewReader(tc.body),
			})
			if err != nil {
				t.Fatalf("ingest: %v", err)
			}
			if provider.mediaType != tc.want {
				t.Fatalf("expected media type %q, got %q", tc.want, provider.mediaType)
			}
			if provider.document != base64.StdEncoding.EncodeToString(tc.body) {
				t.Fatalf("sniffing altered the stored bytes")
			}
			if detail.Size == nil || *detail.Size != int64(len(tc.body)) {
				t.Fatalf("expected size %d, got %v", len(tc.body), detail.Size)
			}
		})
	}
}

func TestIngestRejectsEmptyUpload(t *testing.T) {
	f := newFixture(t, &stubProvider{reply: validReply})

	_, err := f.orch.Ingest(context.Background(), Upload{
		UserID:      "guest:g1",
		ContentType: "application/pdf",
		Size:        0,
		Body:        bytes.NewReader(nil),
	})
	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindInvalidUpload {
		t.Fatalf("expected InvalidUpload, got %v", err)
	}
	if f.storedFiles(t) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestIngestProviderFailureMarksError(t *testing.T) {
	provider := &stubProvider{err: &llm.RequestFailedError{Provider: llm.ProviderClaude, StatusCode: 503, Body: "overloaded"}}
	f := newFixture(t, provider)

	_, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", pdfBytes(2048)))

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if se.Stage != StageAnalyzed || se.Kind != KindProviderRequestFailed {
		t.Fatalf("unexpected stage error %+v", se)
	}
	var rf *llm.RequestFailedError
	if !errors.As(err, &rf) || rf.StatusCode != 503 {
		t.Fatalf("expected provider status preserved, got %v", err)
	}
	assertErrored(t, f, se.DocumentID)
}

func TestIngestMalformedAnalysisMarksError(t *testing.T) {
	provider := &stubProvider{reply: "Sure! Here is my analysis of the document."}
	f := newFixture(t, provider)

	_, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", pdfBytes(2048)))

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if se.Stage != StageAnalyzed || se.Kind != KindAnalysisFormatInvalid {
		t.Fatalf("unexpected stage error %+v", se)
	}
	assertErrored(t, f, se.DocumentID)
}

func TestIngestKeyMissingMarksError(t *testing.T) {
	provider := &stubProvider{err: &llm.KeyMissingError{Provider: llm.ProviderClaude}}
	f := newFixture(t, provider)

	_, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", pdfBytes(2048)))

	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindProviderKeyMissing {
		t.Fatalf("expected ProviderKeyMissing, got %v", err)
	}
	assertErrored(t, f, se.DocumentID)
}

func TestIngestUnknownCategoryDefaultsToReport(t *testing.T) {
	reply := strings.Replace(validReply, `"POLICY"`, `"UNKNOWN_VALUE"`, 1)
	f := newFixture(t, &stubProvider{reply: reply})

	detail, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", pdfBytes(2048)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if detail.Category != documents.CategoryReport || detail.Status != documents.StatusCompleted {
		t.Fatalf("expected COMPLETED/REPORT, got %s/%s", detail.Status, detail.Category)
	}
	if len(detail.KeyPoints) != 3 || len(detail.ActionSuggestions) != 2 || detail.TotalPages == nil {
		t.Fatalf("expected other fields persisted, got %+v", detail)
	}
}

func TestIngestCompletedHasSummaryAndChildren(t *testing.T) {
	reply := `{"summary":"Short.","keyPoints":[],"actionSuggestions":[]}`
	f := newFixture(t, &stubProvider{reply: reply})

	detail, err := f.orch.Ingest(context.Background(), pdfUpload("empty.pdf", pdfBytes(1024)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if detail.Summary == nil || *detail.Summary == "" {
		t.Fatalf("expected summary")
	}
	if detail.KeyPoints == nil || detail.ActionSuggestions == nil {
		t.Fatalf("expected non-nil children slices")
	}
	if detail.TotalPages != nil {
		t.Fatalf("expected totalPages unset, got %v", *detail.TotalPages)
	}
}

func TestIngestCategoryHintReachesPrompt(t *testing.T) {
	provider := &stubProvider{reply: validReply}
	f := newFixture(t, provider)

	up := pdfUpload("contract.pdf", pdfBytes(1024))
	up.CategoryHint = documents.CategoryContract
	if _, err := f.orch.Ingest(context.Background(), up); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(provider.prompt, "CONTRACT") {
		t.Fatalf("expected category hint in prompt")
	}
}

func TestIngestStorageFailureCreatesNothing(t *testing.T) {
	provider := &stubProvider{reply: validReply}
	f := newFixture(t, provider)
	f.orch.Files = failingGateway{}

	_, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", pdfBytes(1024)))

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageStored || se.Kind != KindStorageUnavailable {
		t.Fatalf("expected StorageUnavailable at STORED, got %v", err)
	}
	if se.DocumentID != "" || f.media.Count() != 0 || len(f.allDocuments(t)) != 0 {
		t.Fatalf("expected no rows after storage failure")
	}
}

func TestIngestUnknownProviderMarksError(t *testing.T) {
	f := newFixture(t, &stubProvider{reply: validReply})
	f.orch.Providers = NewRegistrySource(llm.NewRegistry(), fixedModel("gemini"))

	_, err := f.orch.Ingest(context.Background(), pdfUpload("policy.pdf", pdfBytes(1024)))

	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindProviderUnavailable {
		t.Fatalf("expected ProviderUnavailable, got %v", err)
	}
	assertErrored(t, f, se.DocumentID)
}

func TestIngestContinuesAfterCallerCancels(t *testing.T) {
	f := newFixture(t, &stubProvider{reply: validReply})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detail, err := f.orch.Ingest(ctx, pdfUpload("policy.pdf", pdfBytes(1024)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if detail.Status != documents.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", detail.Status)
	}
}

type fixedModel string

func (m fixedModel) ActiveProvider(ctx context.Context) (string, error) { return string(m), nil }

func assertErrored(t *testing.T, f fixture, id string) {
	t.Helper()
	if id == "" {
		t.Fatalf("expected document id on stage error")
	}
	doc, err := f.docs.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.Status != documents.StatusError {
		t.Fatalf("expected ERROR, got %s", doc.Status)
	}
	if doc.Summary != nil || doc.TotalPages != nil || doc.Category != documents.CategoryReport {
		t.Fatalf("expected analysis fields untouched, got %+v", doc)
	}
	kps, _ := f.docs.ListKeyPoints(context.Background(), id)
	as, _ := f.docs.ListActionSuggestions(context.Background(), id)
	if len(kps) != 0 || len(as) != 0 {
		t.Fatalf("expected no children, got %d/%d", len(kps), len(as))
	}
	if f.media.Count() != 1 || f.storedFiles(t) != 1 {
		t.Fatalf("expected media row and stored object kept")
	}
}
