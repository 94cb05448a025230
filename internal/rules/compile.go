// internal/rules/compile.go
package rules

import (
	"github.com/solatis/docguard/internal/types"
)

/*
 * Rule compilation.
 *
 * Compiles types.ValidationRule to CompiledRule: path pre-split into
 * segments, condition type resolved to a closed enum, severity folded into
 * low/medium/high, integer operand parsed once, default name filled in.
 *
 * Compilation never fails. Malformed rules degrade instead: an unknown
 * condition type becomes ConditionUnrecognized (always passes), and an
 * unparseable length operand becomes 0. Rejecting rules here would let one
 * bad operator edit block intake for a whole document type.
 */

// ConditionType is the closed set of condition variants.
type ConditionType int

const (
	// ConditionUnrecognized is the explicit forward-compatibility variant
	// for condition types this build does not know. It always passes.
	ConditionUnrecognized ConditionType = iota
	ConditionRequired
	ConditionEquals
	ConditionContains
	ConditionMinLength
	ConditionMaxLength
	ConditionNumeric
	ConditionDateFormat
)

// conditionNames maps stored names to variants.
var conditionNames = map[string]ConditionType{
	"required":    ConditionRequired,
	"equals":      ConditionEquals,
	"contains":    ConditionContains,
	"min_length":  ConditionMinLength,
	"max_length":  ConditionMaxLength,
	"numeric":     ConditionNumeric,
	"date_format": ConditionDateFormat,
}

// ParseConditionType resolves a stored condition type name.
// Unknown names resolve to ConditionUnrecognized, never an error.
func ParseConditionType(name string) ConditionType {
	if ct, ok := conditionNames[name]; ok {
		return ct
	}
	return ConditionUnrecognized
}

// String returns the stored name of the variant.
func (c ConditionType) String() string {
	for name, ct := range conditionNames {
		if ct == c {
			return name
		}
	}
	return "unrecognized"
}

// CompiledRule is a pre-processed rule ready for evaluation.
type CompiledRule struct {
	RuleID       types.RuleID
	Name         string
	DocumentType string
	Field        string
	Segments     []string
	Condition    ConditionType
	RawCondition string  // stored condition type, kept for diagnostics
	Operand      *string // conditionValue; nil when absent
	Bound        int     // integer view of Operand for length conditions
	ErrorMessage string
	Severity     types.Severity
}

// Compile pre-processes a rule for evaluation.
func Compile(rule *types.ValidationRule) *CompiledRule {
	compiled := &CompiledRule{
		RuleID:       rule.ID,
		Name:         rule.Name,
		DocumentType: rule.DocumentType,
		Field:        rule.ConditionField,
		Segments:     SplitPath(rule.ConditionField),
		Condition:    ParseConditionType(rule.ConditionType),
		RawCondition: rule.ConditionType,
		Operand:      rule.ConditionValue,
		ErrorMessage: rule.ErrorMessage,
		Severity:     types.ParseSeverity(rule.Severity),
	}

	if rule.ConditionValue != nil {
		compiled.Bound = parseIntOperand(*rule.ConditionValue)
	}

	if compiled.Name == "" {
		compiled.Name = rule.ConditionType + ":" + rule.ConditionField
	}

	return compiled
}

// CompileAll compiles rules preserving their order.
func CompileAll(rules []types.ValidationRule) []*CompiledRule {
	compiled := make([]*CompiledRule, 0, len(rules))
	for i := range rules {
		compiled = append(compiled, Compile(&rules[i]))
	}
	return compiled
}
