package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateStartsPending(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	doc := Document{
		ID:           "doc-1",
		FileName:     "documents/abc/x.pdf",
		OriginalName: "x.pdf",
		Category:     DefaultCategory,
		Status:       StatusPending,
		UserID:       "user-1",
		MediaID:      "media-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.FileName, doc.OriginalName, "REPORT", "PENDING", doc.UserID, doc.MediaID, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetScansNullableColumns(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(documentColumns).
		AddRow("doc-1", "documents/x.pdf", "x.pdf", "AUDIT", "COMPLETED", "sum", int64(4), int64(900), "user-1", "media-1", now, now, nil)
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE deleted_at IS NULL AND id = \\$1").
		WithArgs("doc-1").
		WillReturnRows(rows)
	mock.ExpectQuery("FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentColumns))

	doc, err := repo.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Category != CategoryAudit || doc.Status != StatusCompleted {
		t.Fatalf("unexpected enums %s/%s", doc.Category, doc.Status)
	}
	if doc.Summary == nil || *doc.Summary != "sum" || doc.TotalPages == nil || *doc.TotalPages != 4 {
		t.Fatalf("unexpected nullable fields %+v", doc)
	}
	if doc.DeletedAt != nil {
		t.Fatalf("expected nil deletedAt")
	}
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCompleteWritesChildrenInTransaction(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	pages := 12
	c := Completion{
		Summary:           "summary",
		Category:          CategoryAudit,
		TotalPages:        &pages,
		ProcessingTimeMs:  1500,
		KeyPoints:         []KeyPoint{NewKeyPoint("doc-1", "kp1", now), NewKeyPoint("doc-1", "kp2", now)},
		ActionSuggestions: []ActionSuggestion{NewActionSuggestion("doc-1", "a1", "l1", false, now)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", "COMPLETED", "summary", "AUDIT", &pages, int64(1500), now, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO key_points").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO action_suggestions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Complete(context.Background(), "doc-1", c, now); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteRejectsNonPending(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "doc-1", Completion{
		Summary:   "s",
		Category:  DefaultCategory,
		KeyPoints: []KeyPoint{NewKeyPoint("doc-1", "kp", now)},
	}, now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteRollsBackOnChildFailure(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO key_points").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "doc-1", Completion{
		Summary:   "s",
		Category:  DefaultCategory,
		KeyPoints: []KeyPoint{NewKeyPoint("doc-1", "kp", now)},
	}, now)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkErrorGuardsPending(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE documents SET status").
		WithArgs("doc-1", "ERROR", now, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET status").
		WithArgs("doc-2", "ERROR", now, "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkError(context.Background(), "doc-1", now); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	if err := repo.MarkError(context.Background(), "doc-2", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateSummaryGuardsCompleted(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE documents SET updated_at = \\$1, summary = \\$2 WHERE \\(deleted_at IS NULL AND id = \\$3 AND status = \\$4\\) RETURNING").
		WithArgs(now, "new summary", "doc-1", "COMPLETED").
		WillReturnRows(sqlmock.NewRows(documentColumns))

	summary := "new summary"
	if _, err := repo.Update(context.Background(), "doc-1", Patch{Summary: &summary}, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListBuildsFilters(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE \\(deleted_at IS NULL AND user_id = \\$1 AND status = \\$2 AND \\(filename ILIKE \\$3 OR original_name ILIKE \\$4\\)\\)").
		WithArgs("user-1", "COMPLETED", "%50\\%%", "%50\\%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("ORDER BY created_at DESC, id DESC LIMIT 5 OFFSET 5").
		WithArgs("user-1", "COMPLETED", "%50\\%%", "%50\\%%").
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow("doc-6", "f", "o", "REPORT", "COMPLETED", nil, nil, nil, "user-1", "m", now, now, nil))

	docs, total, err := repo.List(context.Background(), ListFilter{Page: 2, Limit: 5, UserID: "user-1", Status: StatusCompleted, Search: "50%"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 11 || len(docs) != 1 || docs[0].ID != "doc-6" {
		t.Fatalf("unexpected list result total=%d docs=%v", total, docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateActionSuggestionLocksRow(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Now().UTC().Add(-time.Hour)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM action_suggestions WHERE (.+) FOR UPDATE").
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(actionSuggestionColumns).
			AddRow("a-1", "title", "label", false, nil, "doc-1", created, created, nil))
	mock.ExpectExec("UPDATE action_suggestions").
		WithArgs("a-1", "title", "label", true, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	yes := true
	got, err := repo.UpdateActionSuggestion(context.Background(), "a-1", ActionSuggestionPatch{IsCompleted: &yes}, now)
	if err != nil {
		t.Fatalf("UpdateActionSuggestion: %v", err)
	}
	if !got.IsCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Fatalf("unexpected suggestion %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSoftDeleteMissing(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("UPDATE key_points SET deleted_at").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.DeleteKeyPoint(context.Background(), "kp-x", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
