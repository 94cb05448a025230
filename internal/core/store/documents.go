package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/docguard/internal/types"
)

// UpsertDocument stores a document's type and content. New documents start
// pending; existing documents keep their status.
func (s *Store) UpsertDocument(ctx context.Context, id types.DocumentID, documentType string, content types.Content) error {
	if content == nil {
		content = types.Content{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
	}
	now := formatTime(s.now())
	if _, err := s.q.Exec(ctx, "upsert-document", string(id), documentType, string(raw), now, now); err != nil {
		return storageError("upsert document", err)
	}
	return nil
}

// GetDocument loads one document. Returns types.ErrDocumentNotFound if absent.
func (s *Store) GetDocument(ctx context.Context, id types.DocumentID) (types.Document, error) {
	var row documentRow
	if err := s.q.Get(ctx, "get-document", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Document{}, fmt.Errorf("%w: %s", types.ErrDocumentNotFound, id)
		}
		return types.Document{}, storageError("get document", err)
	}
	return row.toDocument()
}

// UpdateStatus moves a document to next and sets its flagged marker.
// The move must be allowed by DocumentStatus.CanTransition from the stored
// status. The update is conditional on the status read, so a concurrent
// change surfaces as types.ErrInvalidTransition instead of being overwritten.
func (s *Store) UpdateStatus(ctx context.Context, id types.DocumentID, next types.DocumentStatus, flagged bool) (types.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return types.Document{}, err
	}
	if !doc.Status.CanTransition(next) {
		return types.Document{}, fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, doc.Status, next)
	}

	res, err := s.q.Exec(ctx, "update-document-status",
		string(next), boolToInt(flagged), formatTime(s.now()), string(id), string(doc.Status))
	if err != nil {
		return types.Document{}, storageError("update status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Document{}, storageError("update status", err)
	}
	if n == 0 {
		return types.Document{}, fmt.Errorf("%w: %s changed concurrently from %s", types.ErrInvalidTransition, id, doc.Status)
	}

	doc.Status = next
	doc.Flagged = flagged
	return doc, nil
}

// ListDocumentsByStatus returns up to limit documents in status, oldest first.
func (s *Store) ListDocumentsByStatus(ctx context.Context, status types.DocumentStatus, limit int) ([]types.Document, error) {
	var rows []documentRow
	if err := s.q.Select(ctx, "list-documents-by-status", &rows, string(status), limit); err != nil {
		return nil, storageError("list documents", err)
	}
	return toDocuments(rows)
}

// ListStaleProcessing returns up to limit documents that entered processing
// before cutoff and never left it, least recently touched first.
func (s *Store) ListStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]types.Document, error) {
	var rows []documentRow
	if err := s.q.Select(ctx, "list-stale-processing", &rows, formatTime(cutoff), limit); err != nil {
		return nil, storageError("list stale documents", err)
	}
	return toDocuments(rows)
}

func toDocuments(rows []documentRow) ([]types.Document, error) {
	out := make([]types.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.toDocument()
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
