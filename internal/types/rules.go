// internal/types/rules.go
package types

import "time"

/*
 * Domain types for document validation.
 *
 * Provides ValidationRule (operator-authored declarative check),
 * ValidationCheck (one rule's outcome for one document) and ValidationIssue
 * (a failed check projected for display). These types are storage and
 * transport agnostic; row mapping happens in internal/core/store.
 *
 * Severity has two vocabularies in the wild: low/medium/high (engine) and
 * info/warning/error (some rule stores). ParseSeverity folds both into the
 * engine vocabulary with medium as the fallback.
 */

// Severity ranks how serious a failed rule is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity maps a stored severity onto low/medium/high.
// info->low, warning->medium, error->high; unknown or empty -> medium.
func ParseSeverity(s string) Severity {
	switch s {
	case "low", "info":
		return SeverityLow
	case "medium", "warning":
		return SeverityMedium
	case "high", "error":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// ValidationRule is a declarative check definition.
// ConditionType stays a raw string here: unknown values are legal and
// are resolved to the unrecognized variant during compilation.
type ValidationRule struct {
	ID             RuleID    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	DocumentType   string    `json:"documentType" yaml:"document_type"`
	ConditionField string    `json:"conditionField" yaml:"condition_field"`
	ConditionType  string    `json:"conditionType" yaml:"condition_type"`
	ConditionValue *string   `json:"conditionValue,omitempty" yaml:"condition_value"`
	ErrorMessage   string    `json:"errorMessage" yaml:"error_message"`
	Severity       string    `json:"severity" yaml:"severity"`
	IsActive       bool      `json:"isActive" yaml:"is_active"`
	CreatedAt      time.Time `json:"createdAt" yaml:"-"`
}

// Applies reports whether the rule takes part in a pass for documentType.
func (r ValidationRule) Applies(documentType string) bool {
	return r.IsActive && r.DocumentType == documentType
}

// CheckStatus is the outcome of one check.
type CheckStatus string

const (
	CheckPassed CheckStatus = "passed"
	CheckFailed CheckStatus = "failed"
	// CheckPending marks a rule that has no recorded evaluation for the
	// document. The evaluator never produces it.
	CheckPending CheckStatus = "pending"
)

// ValidationCheck is one rule evaluation outcome for one document.
type ValidationCheck struct {
	RuleID      RuleID      `json:"ruleId"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      CheckStatus `json:"status"`
	Details     string      `json:"details"`
}

// ValidationIssue is a failed check projected into field/message/severity.
type ValidationIssue struct {
	RuleID   RuleID   `json:"ruleId"`
	Field    string   `json:"field"`
	Issue    string   `json:"issue"`
	Severity Severity `json:"severity"`
}
