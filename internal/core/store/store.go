// Package store persists rules, documents and validation results.
//
// Store wraps the named queries of internal/core/db and maps rows to the
// wire-agnostic shapes in internal/types. It implements rules.RuleSource
// and rules.ResultSink so the engine can run against the database.
//
// Timestamps are stored as fixed-width UTC text (microsecond precision) so
// lexical order equals chronological order in both SQLite and PostgreSQL.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/solatis/docguard/internal/core/db"
	"github.com/solatis/docguard/internal/types"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store is the database-backed persistence layer.
type Store struct {
	q   *db.Queries
	now func() time.Time
}

// New creates a Store over loaded queries.
func New(q *db.Queries) *Store {
	return &Store{q: q, now: time.Now}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// persistenceError is reserved for writing validation results.
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrPersistence, op, err)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrStorage, op, err)
}

type ruleRow struct {
	RuleID         string         `db:"rule_id"`
	Name           string         `db:"name"`
	DocumentType   string         `db:"document_type"`
	ConditionField string         `db:"condition_field"`
	ConditionType  string         `db:"condition_type"`
	ConditionValue sql.NullString `db:"condition_value"`
	ErrorMessage   string         `db:"error_message"`
	Severity       string         `db:"severity"`
	IsActive       bool           `db:"is_active"`
	CreatedAt      string         `db:"created_at"`
}

func (r ruleRow) toRule() types.ValidationRule {
	rule := types.ValidationRule{
		ID:             types.RuleID(r.RuleID),
		Name:           r.Name,
		DocumentType:   r.DocumentType,
		ConditionField: r.ConditionField,
		ConditionType:  r.ConditionType,
		ErrorMessage:   r.ErrorMessage,
		Severity:       r.Severity,
		IsActive:       r.IsActive,
		CreatedAt:      parseTime(r.CreatedAt),
	}
	if r.ConditionValue.Valid {
		v := r.ConditionValue.String
		rule.ConditionValue = &v
	}
	return rule
}

type documentRow struct {
	DocumentID   string `db:"document_id"`
	DocumentType string `db:"document_type"`
	Content      string `db:"content"`
	Status       string `db:"status"`
	Flagged      bool   `db:"flagged"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (r documentRow) toDocument() (types.Document, error) {
	content, err := types.DecodeContent([]byte(r.Content))
	if err != nil {
		return types.Document{}, fmt.Errorf("document %s: %w", r.DocumentID, err)
	}
	return types.Document{
		ID:           types.DocumentID(r.DocumentID),
		DocumentType: r.DocumentType,
		Content:      content,
		Status:       types.DocumentStatus(r.Status),
		Flagged:      r.Flagged,
	}, nil
}

type checkRow struct {
	CheckID     string `db:"check_id"`
	DocumentID  string `db:"document_id"`
	RuleID      string `db:"rule_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Status      string `db:"status"`
	Details     string `db:"details"`
	Position    int    `db:"position"`
	CreatedAt   string `db:"created_at"`
}

type issueRow struct {
	IssueID    string `db:"issue_id"`
	DocumentID string `db:"document_id"`
	RuleID     string `db:"rule_id"`
	Field      string `db:"field"`
	Issue      string `db:"issue"`
	Severity   string `db:"severity"`
	Position   int    `db:"position"`
	CreatedAt  string `db:"created_at"`
}
