package ingest

import (
	"errors"
	"fmt"

	"compliance-backend/internal/analyses"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/shared/storage/object"
)

var (
	// ErrUnsupportedMediaType is returned when an upload's MIME type is not on the allow-list.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidUpload is returned for empty or unreadable uploads.
	ErrInvalidUpload = errors.New("invalid upload")
)

// Stage names a step of the ingestion state machine.
type Stage string

const (
	StageReceived         Stage = "RECEIVED"
	StageStored           Stage = "STORED"
	StagePersistedPending Stage = "PERSISTED_PENDING"
	StageAnalyzed         Stage = "ANALYZED"
	StageFinalized        Stage = "FINALIZED"
	StageFailed           Stage = "FAILED"
)

// Kind classifies why a stage failed.
type Kind string

const (
	KindUnsupportedMediaType      Kind = "UnsupportedMediaType"
	KindInvalidUpload             Kind = "InvalidUpload"
	KindStorageUnavailable        Kind = "StorageUnavailable"
	KindProviderKeyMissing        Kind = "ProviderKeyMissing"
	KindProviderRequestFailed     Kind = "ProviderRequestFailed"
	KindProviderResponseMalformed Kind = "ProviderResponseMalformed"
	KindProviderUnavailable       Kind = "ProviderUnavailable"
	KindAnalysisFormatInvalid     Kind = "AnalysisFormatInvalid"
	KindPersistenceFailure        Kind = "PersistenceFailure"
)

// StageError reports the stage a run was attempting when it failed. DocumentID
// is set once the PENDING document exists.
type StageError struct {
	Stage      Stage
	Kind       Kind
	DocumentID string
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingest %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Rejected reports whether the upload was refused before any I/O.
func (e *StageError) Rejected() bool {
	return e.Kind == KindUnsupportedMediaType || e.Kind == KindInvalidUpload
}

// kindOf maps a wrapped cause onto the taxonomy, falling back when nothing matches.
func kindOf(err error, fallback Kind) Kind {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return KindUnsupportedMediaType
	case errors.Is(err, ErrInvalidUpload):
		return KindInvalidUpload
	case errors.Is(err, object.ErrStorageUnavailable):
		return KindStorageUnavailable
	case errors.Is(err, llm.ErrProviderKeyMissing):
		return KindProviderKeyMissing
	case errors.Is(err, llm.ErrProviderResponseMalformed):
		return KindProviderResponseMalformed
	case errors.Is(err, llm.ErrProviderRequestFailed):
		return KindProviderRequestFailed
	case errors.Is(err, llm.ErrUnknownProvider):
		return KindProviderUnavailable
	case errors.Is(err, analyses.ErrAnalysisFormatInvalid):
		return KindAnalysisFormatInvalid
	}
	return fallback
}
