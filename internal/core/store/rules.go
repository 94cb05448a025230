package store

import (
	"context"
	"fmt"

	"github.com/solatis/docguard/internal/core/db"
	"github.com/solatis/docguard/internal/types"
)

// LoadRules returns the active rules for documentType ordered by creation
// time. Implements rules.RuleSource.
func (s *Store) LoadRules(ctx context.Context, documentType string) ([]types.ValidationRule, error) {
	var rows []ruleRow
	if err := s.q.Select(ctx, "list-active-rules", &rows, documentType); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrRuleStoreUnavailable, err)
	}
	return toRules(rows), nil
}

// ListRules returns every rule, active or not. An empty documentType lists
// all document types.
func (s *Store) ListRules(ctx context.Context, documentType string) ([]types.ValidationRule, error) {
	var rows []ruleRow
	var err error
	if documentType == "" {
		err = s.q.Select(ctx, "list-all-rules", &rows)
	} else {
		err = s.q.Select(ctx, "list-rules-by-type", &rows, documentType)
	}
	if err != nil {
		return nil, storageError("list rules", err)
	}
	return toRules(rows), nil
}

// UpsertRules inserts or updates rules by ID in one transaction.
// A zero CreatedAt is stamped with the current time; an existing rule keeps
// its original created_at so ordering is stable across re-imports.
func (s *Store) UpsertRules(ctx context.Context, rules []types.ValidationRule) error {
	err := s.q.InTx(ctx, func(tx *db.Queries) error {
		for _, r := range rules {
			if r.ID == "" {
				return fmt.Errorf("rule for %s.%s has no id", r.DocumentType, r.ConditionField)
			}
			createdAt := r.CreatedAt
			if createdAt.IsZero() {
				createdAt = s.now()
			}
			var conditionValue interface{}
			if r.ConditionValue != nil {
				conditionValue = *r.ConditionValue
			}
			if _, err := tx.Exec(ctx, "upsert-rule",
				string(r.ID), r.Name, r.DocumentType, r.ConditionField, r.ConditionType,
				conditionValue, r.ErrorMessage, r.Severity, boolToInt(r.IsActive), formatTime(createdAt),
			); err != nil {
				return fmt.Errorf("rule %s: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return storageError("upsert rules", err)
	}
	return nil
}

func toRules(rows []ruleRow) []types.ValidationRule {
	out := make([]types.ValidationRule, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRule())
	}
	return out
}
