package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/analyses"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/media"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/storage/object"
	"compliance-backend/internal/shared/telemetry"
	"compliance-backend/internal/shared/util"
)

const defaultProviderTimeout = 120 * time.Second

// FileGateway stores uploads and reads them back by stored name.
type FileGateway interface {
	Store(ctx context.Context, ownerID, contentType string, r io.Reader) (object.Stored, error)
	FetchBytes(ctx context.Context, storedName string) ([]byte, error)
}

// MediaWriter persists media rows.
type MediaWriter interface {
	Create(ctx context.Context, m media.Media) error
}

// DocumentWriter is the subset of the document store the pipeline writes through.
type DocumentWriter interface {
	Create(ctx context.Context, doc documents.Document) error
	Complete(ctx context.Context, id string, c documents.Completion, now time.Time) error
	MarkError(ctx context.Context, id string, now time.Time) error
}

// ProviderSource resolves the active analysis provider. It is queried once per run.
type ProviderSource interface {
	Active(ctx context.Context) (string, llm.Provider, error)
}

// Upload is one file handed to the pipeline.
type Upload struct {
	RequestID    string
	UserID       string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
	CategoryHint documents.Category
}

// Orchestrator runs the ingestion state machine:
// RECEIVED -> STORED -> PERSISTED_PENDING -> ANALYZED -> FINALIZED, or FAILED.
type Orchestrator struct {
	Files           FileGateway
	Media           MediaWriter
	Documents       DocumentWriter
	Providers       ProviderSource
	ProviderTimeout time.Duration
	Now             func() time.Time
}

// NewOrchestrator constructs an Orchestrator with the default provider timeout.
func NewOrchestrator(files FileGateway, mediaRepo MediaWriter, docs DocumentWriter, providers ProviderSource) *Orchestrator {
	return &Orchestrator{
		Files:           files,
		Media:           mediaRepo,
		Documents:       docs,
		Providers:       providers,
		ProviderTimeout: defaultProviderTimeout,
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) providerTimeout() time.Duration {
	if o.ProviderTimeout > 0 {
		return o.ProviderTimeout
	}
	return defaultProviderTimeout
}

// run carries per-ingestion state for logging and the failure branch.
type run struct {
	o           *Orchestrator
	up          Upload
	started     time.Time
	reached     Stage
	contentType string
	documentID  string
	provider    string
}

// Ingest runs one upload through the pipeline and returns the finalized
// document. The run continues if ctx is cancelled by the caller going away;
// only the provider call is bounded, by ProviderTimeout. Any failure after the
// PENDING document exists moves it to ERROR before the *StageError is returned.
func (o *Orchestrator) Ingest(ctx context.Context, up Upload) (documents.Detail, error) {
	ctx = context.WithoutCancel(ctx)
	r := &run{o: o, up: up, started: o.now(), reached: StageReceived}
	metrics.IncIngestionStarted()

	contentType, body, err := resolveMediaType(up.ContentType, up.Size, up.Body)
	if err != nil {
		return documents.Detail{}, r.fail(ctx, StageReceived, err, KindInvalidUpload)
	}
	r.contentType = contentType

	stored, err := o.Files.Store(ctx, up.UserID, contentType, body)
	if err != nil {
		return documents.Detail{}, r.fail(ctx, StageStored, err, KindStorageUnavailable)
	}
	metrics.AddUploadBytes(contentType, stored.Size)
	r.advance(StageStored, map[string]any{"stored_name": stored.Name, "size": stored.Size})

	doc, err := r.persistPending(ctx, stored)
	if err != nil {
		return documents.Detail{}, err
	}

	res, err := r.analyze(ctx, doc, stored)
	if err != nil {
		return documents.Detail{}, err
	}

	return r.finalize(ctx, doc, stored, res)
}

func (r *run) persistPending(ctx context.Context, stored object.Stored) (documents.Document, error) {
	now := r.o.now()
	displayName := util.DisplayName(r.up.OriginalName)

	m := media.Media{
		ID:           uuid.NewString(),
		URL:          stored.URL,
		FileName:     stored.Name,
		OriginalName: displayName,
		MimeType:     r.contentType,
		Size:         stored.Size,
		UserID:       r.up.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.o.Media.Create(ctx, m); err != nil {
		return documents.Document{}, r.fail(ctx, StagePersistedPending, fmt.Errorf("create media: %w", err), KindPersistenceFailure)
	}

	// A failure here leaves the media row behind; it still points at the stored object.
	doc := documents.Document{
		ID:           uuid.NewString(),
		FileName:     stored.Name,
		OriginalName: displayName,
		Category:     documents.CategoryReport,
		Status:       documents.StatusPending,
		UserID:       r.up.UserID,
		MediaID:      m.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.o.Documents.Create(ctx, doc); err != nil {
		return documents.Document{}, r.fail(ctx, StagePersistedPending, fmt.Errorf("create document: %w", err), KindPersistenceFailure)
	}
	r.documentID = doc.ID

	telemetry.Info("ingest.status", r.fields(map[string]any{
		"status":            string(documents.StatusPending),
		"status_transition": "none->" + string(documents.StatusPending),
		"media_id":          m.ID,
	}))
	r.advance(StagePersistedPending, nil)
	return doc, nil
}

func (r *run) analyze(ctx context.Context, doc documents.Document, stored object.Stored) (analyses.Result, error) {
	var opts []llm.PromptOption
	if r.up.CategoryHint != "" {
		opts = append(opts, llm.WithCategoryHint(string(r.up.CategoryHint)))
	}
	prompt := llm.BuildAnalysisPrompt(doc.OriginalName, opts...)

	raw, err := r.o.Files.FetchBytes(ctx, stored.Name)
	if err != nil {
		return analyses.Result{}, r.fail(ctx, StageAnalyzed, err, KindStorageUnavailable)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	name, provider, err := r.o.Providers.Active(ctx)
	r.provider = name
	if err != nil {
		return analyses.Result{}, r.fail(ctx, StageAnalyzed, err, KindProviderUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.o.providerTimeout())
	text, err := provider.SendWithDocument(callCtx, prompt, encoded, llm.WithMediaType(r.contentType))
	cancel()
	if err != nil {
		return analyses.Result{}, r.fail(ctx, StageAnalyzed, err, KindProviderRequestFailed)
	}

	res, err := analyses.Parse(text)
	if err != nil {
		return analyses.Result{}, r.fail(ctx, StageAnalyzed, err, KindAnalysisFormatInvalid)
	}
	r.advance(StageAnalyzed, map[string]any{
		"key_points":         len(res.KeyPoints),
		"action_suggestions": len(res.ActionSuggestions),
	})
	return res, nil
}

func (r *run) finalize(ctx context.Context, doc documents.Document, stored object.Stored, res analyses.Result) (documents.Detail, error) {
	now := r.o.now()

	category, ok := documents.ParseCategory(res.Category)
	if !ok {
		category = documents.CategoryReport
		telemetry.Warn("ingest.category_defaulted", r.fields(map[string]any{"category": res.Category}))
	}

	keyPoints := make([]documents.KeyPoint, 0, len(res.KeyPoints))
	for _, kp := range res.KeyPoints {
		keyPoints = append(keyPoints, documents.NewKeyPoint(doc.ID, kp.Title, now))
	}
	suggestions := make([]documents.ActionSuggestion, 0, len(res.ActionSuggestions))
	for _, as := range res.ActionSuggestions {
		suggestions = append(suggestions, documents.NewActionSuggestion(doc.ID, as.Title, as.Label, as.IsCompleted, now))
	}

	elapsed := r.elapsedMs(now)
	completion := documents.Completion{
		Summary:           res.Summary,
		Category:          category,
		TotalPages:        res.TotalPages,
		ProcessingTimeMs:  elapsed,
		KeyPoints:         keyPoints,
		ActionSuggestions: suggestions,
	}
	if err := r.o.Documents.Complete(ctx, doc.ID, completion, now); err != nil {
		return documents.Detail{}, r.fail(ctx, StageFinalized, fmt.Errorf("complete document: %w", err), KindPersistenceFailure)
	}

	summary := res.Summary
	doc.Status = documents.StatusCompleted
	doc.Summary = &summary
	doc.Category = category
	doc.TotalPages = res.TotalPages
	doc.ProcessingTimeMs = &elapsed
	doc.UpdatedAt = now

	metrics.IncIngestionCompleted(r.provider)
	metrics.ObserveIngestionDurationMs(float64(elapsed))
	r.advance(StageFinalized, nil)
	telemetry.Info("ingest.status", r.fields(map[string]any{
		"status":            string(documents.StatusCompleted),
		"status_transition": string(documents.StatusPending) + "->" + string(documents.StatusCompleted),
		"category":          string(category),
		"duration_ms":       elapsed,
	}))

	size := stored.Size
	url := stored.URL
	return documents.Detail{
		Document:          doc,
		Size:              &size,
		URL:               &url,
		KeyPoints:         keyPoints,
		ActionSuggestions: suggestions,
	}, nil
}

// fail is the single failure branch: it classifies err, moves an existing
// PENDING document to ERROR and reports the stage being attempted.
func (r *run) fail(ctx context.Context, stage Stage, err error, fallback Kind) error {
	se := &StageError{Stage: stage, Kind: kindOf(err, fallback), DocumentID: r.documentID, Err: err}
	now := r.o.now()
	elapsed := r.elapsedMs(now)

	metrics.IncIngestionFailed(string(stage))
	metrics.ObserveIngestionDurationMs(float64(elapsed))

	if r.documentID != "" {
		if markErr := r.o.Documents.MarkError(ctx, r.documentID, now); markErr != nil {
			telemetry.Error("ingest.mark_error_failed", r.fields(map[string]any{"error": markErr.Error()}))
		} else {
			telemetry.Info("ingest.status", r.fields(map[string]any{
				"status":            string(documents.StatusError),
				"status_transition": string(documents.StatusPending) + "->" + string(documents.StatusError),
				"duration_ms":       elapsed,
			}))
		}
	}

	telemetry.Error("ingest.failed", r.fields(map[string]any{
		"stage":            string(stage),
		"stage_transition": string(r.reached) + "->" + string(StageFailed),
		"kind":             string(se.Kind),
		"error":            err.Error(),
		"duration_ms":      elapsed,
	}))
	return se
}

func (r *run) advance(stage Stage, extra map[string]any) {
	fields := r.fields(extra)
	fields["stage_transition"] = string(r.reached) + "->" + string(stage)
	fields["duration_ms"] = r.elapsedMs(r.o.now())
	r.reached = stage
	telemetry.Info("ingest.stage", fields)
}

func (r *run) elapsedMs(now time.Time) int64 {
	ms := now.Sub(r.started).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func (r *run) fields(extra map[string]any) map[string]any {
	fields := map[string]any{
		"request_id":   r.up.RequestID,
		"user_id":      r.up.UserID,
		"document_id":  r.documentID,
		"content_type": r.contentType,
	}
	if r.provider != "" {
		fields["provider"] = r.provider
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
