package store

import (
	"context"

	"github.com/solatis/docguard/internal/core/db"
	"github.com/solatis/docguard/internal/types"
)

// ReplaceResults deletes every stored check and issue of the document and
// inserts the new sets in one transaction. Empty sets clear the document.
// Implements rules.ResultSink.
func (s *Store) ReplaceResults(ctx context.Context, documentID types.DocumentID, checks []types.ValidationCheck, issues []types.ValidationIssue) error {
	now := formatTime(s.now())
	id := string(documentID)

	err := s.q.InTx(ctx, func(tx *db.Queries) error {
		if _, err := tx.Exec(ctx, "delete-checks", id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "delete-issues", id); err != nil {
			return err
		}
		for i, c := range checks {
			if _, err := tx.Exec(ctx, "insert-check",
				types.NewRowID(), id, string(c.RuleID), c.Name, c.Description,
				string(c.Status), c.Details, i, now,
			); err != nil {
				return err
			}
		}
		for i, issue := range issues {
			if _, err := tx.Exec(ctx, "insert-issue",
				types.NewRowID(), id, string(issue.RuleID), issue.Field, issue.Issue,
				string(issue.Severity), i, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistenceError("replace results", err)
	}
	return nil
}

// ListChecks returns the stored checks of a document in evaluation order.
func (s *Store) ListChecks(ctx context.Context, documentID types.DocumentID) ([]types.ValidationCheck, error) {
	var rows []checkRow
	if err := s.q.Select(ctx, "list-checks", &rows, string(documentID)); err != nil {
		return nil, storageError("list checks", err)
	}
	out := make([]types.ValidationCheck, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.ValidationCheck{
			RuleID:      types.RuleID(r.RuleID),
			Name:        r.Name,
			Description: r.Description,
			Status:      types.CheckStatus(r.Status),
			Details:     r.Details,
		})
	}
	return out, nil
}

// ListIssues returns the stored issues of a document in evaluation order.
func (s *Store) ListIssues(ctx context.Context, documentID types.DocumentID) ([]types.ValidationIssue, error) {
	var rows []issueRow
	if err := s.q.Select(ctx, "list-issues", &rows, string(documentID)); err != nil {
		return nil, storageError("list issues", err)
	}
	out := make([]types.ValidationIssue, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.ValidationIssue{
			RuleID:   types.RuleID(r.RuleID),
			Field:    r.Field,
			Issue:    r.Issue,
			Severity: types.Severity(r.Severity),
		})
	}
	return out, nil
}
