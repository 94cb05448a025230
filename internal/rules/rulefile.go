package rules

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solatis/docguard/internal/types"
)

// ruleFileEntry is one rule as written in a YAML rule file.
// is_active defaults to true and id to a fresh UUIDv7.
type ruleFileEntry struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	DocumentType   string  `yaml:"document_type"`
	ConditionField string  `yaml:"condition_field"`
	ConditionType  string  `yaml:"condition_type"`
	ConditionValue *string `yaml:"condition_value"`
	ErrorMessage   string  `yaml:"error_message"`
	Severity       string  `yaml:"severity"`
	IsActive       *bool   `yaml:"is_active"`
}

type ruleFile struct {
	Rules []ruleFileEntry `yaml:"rules"`
}

// ParseRuleFile reads rules from a YAML document with a top-level rules list.
// Entries keep file order; CreatedAt increases by one microsecond per entry
// so the store returns them in the same order.
func ParseRuleFile(r io.Reader) ([]types.ValidationRule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	out := make([]types.ValidationRule, 0, len(f.Rules))
	for i, entry := range f.Rules {
		if entry.DocumentType == "" {
			return nil, fmt.Errorf("rule %d: document_type is required", i)
		}
		if entry.ConditionField == "" {
			return nil, fmt.Errorf("rule %d: condition_field is required", i)
		}

		id := types.RuleID(entry.ID)
		if entry.ID == "" {
			id = types.NewRuleID()
		} else if _, err := types.ParseRuleID(entry.ID); err != nil {
			return nil, fmt.Errorf("rule %d: invalid id %q: %w", i, entry.ID, err)
		}

		active := true
		if entry.IsActive != nil {
			active = *entry.IsActive
		}

		out = append(out, types.ValidationRule{
			ID:             id,
			Name:           entry.Name,
			DocumentType:   entry.DocumentType,
			ConditionField: entry.ConditionField,
			ConditionType:  entry.ConditionType,
			ConditionValue: entry.ConditionValue,
			ErrorMessage:   entry.ErrorMessage,
			Severity:       entry.Severity,
			IsActive:       active,
			CreatedAt:      base.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return out, nil
}

// LoadRuleFile reads rules from the YAML file at path.
func LoadRuleFile(path string) ([]types.ValidationRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()
	return ParseRuleFile(f)
}

// StaticSource serves a fixed rule set, filtered like a rule store would.
// Used for offline checks against a rule file.
type StaticSource []types.ValidationRule

// LoadRules returns the active rules for documentType in slice order.
func (s StaticSource) LoadRules(_ context.Context, documentType string) ([]types.ValidationRule, error) {
	out := make([]types.ValidationRule, 0, len(s))
	for _, r := range s {
		if r.Applies(documentType) {
			out = append(out, r)
		}
	}
	return out, nil
}

// DiscardSink drops results. Pairs with StaticSource for dry runs.
type DiscardSink struct{}

// ReplaceResults implements ResultSink.
func (DiscardSink) ReplaceResults(context.Context, types.DocumentID, []types.ValidationCheck, []types.ValidationIssue) error {
	return nil
}
