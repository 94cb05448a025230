// internal/rules/conditions.go
package rules

import (
	"fmt"
	"strings"
)

/*
 * Condition handlers.
 *
 * One handler per ConditionType variant, looked up through a fixed table
 * indexed by the enum. ConditionUnrecognized has its own handler, so the
 * always-pass behavior for unknown types is a named case rather than a
 * fall-through.
 *
 * Handlers are pure: they read the resolved value and the compiled rule and
 * return a verdict. The only error a handler returns is a failure to render
 * a composite value as text.
 */

// conditionHandler evaluates one variant against a resolved value.
type conditionHandler func(rule *CompiledRule, value any) (Verdict, error)

// conditionHandlers is indexed by ConditionType.
var conditionHandlers = [...]conditionHandler{
	ConditionUnrecognized: evalUnrecognized,
	ConditionRequired:     evalRequired,
	ConditionEquals:       evalEquals,
	ConditionContains:     evalContains,
	ConditionMinLength:    evalMinLength,
	ConditionMaxLength:    evalMaxLength,
	ConditionNumeric:      evalNumeric,
	ConditionDateFormat:   evalDateFormat,
}

// handlerFor returns the handler for c; out-of-range values get the
// unrecognized handler.
func handlerFor(c ConditionType) conditionHandler {
	if c < 0 || int(c) >= len(conditionHandlers) {
		return evalUnrecognized
	}
	return conditionHandlers[c]
}

func evalRequired(rule *CompiledRule, value any) (Verdict, error) {
	if !isPresent(value) {
		return Verdict{Passed: false, Details: fmt.Sprintf("Field %s is missing", rule.Field)}, nil
	}
	text, err := toText(value)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Passed: true, Details: fmt.Sprintf("Field %s is present: %s", rule.Field, text)}, nil
}

// evalEquals is strict: only a string value can equal the operand.
// A missing operand matches only a missing value.
func evalEquals(rule *CompiledRule, value any) (Verdict, error) {
	found, err := describe(value)
	if err != nil {
		return Verdict{}, err
	}
	if rule.Operand == nil {
		return Verdict{
			Passed:  value == nil,
			Details: fmt.Sprintf("Expected no value, found %s", found),
		}, nil
	}
	s, isString := value.(string)
	return Verdict{
		Passed:  isString && s == *rule.Operand,
		Details: fmt.Sprintf("Expected %q, found %s", *rule.Operand, found),
	}, nil
}

func evalContains(rule *CompiledRule, value any) (Verdict, error) {
	operand := ""
	if rule.Operand != nil {
		operand = *rule.Operand
	}
	if !isPresent(value) {
		return Verdict{Passed: false, Details: fmt.Sprintf("Field %s is missing; cannot check for %q", rule.Field, operand)}, nil
	}
	text, err := toText(value)
	if err != nil {
		return Verdict{}, err
	}
	passed := strings.Contains(text, operand)
	verb := "contains"
	if !passed {
		verb = "does not contain"
	}
	return Verdict{Passed: passed, Details: fmt.Sprintf("Value %q %s %q", text, verb, operand)}, nil
}

func evalMinLength(rule *CompiledRule, value any) (Verdict, error) {
	text, err := toText(value)
	if err != nil {
		return Verdict{}, err
	}
	length := textLength(text)
	return Verdict{
		Passed:  length >= rule.Bound,
		Details: fmt.Sprintf("Required minimum length %d, actual length %d", rule.Bound, length),
	}, nil
}

func evalMaxLength(rule *CompiledRule, value any) (Verdict, error) {
	text, err := toText(value)
	if err != nil {
		return Verdict{}, err
	}
	length := textLength(text)
	return Verdict{
		Passed:  length <= rule.Bound,
		Details: fmt.Sprintf("Maximum length %d, actual length %d", rule.Bound, length),
	}, nil
}

func evalNumeric(rule *CompiledRule, value any) (Verdict, error) {
	found, err := describe(value)
	if err != nil {
		return Verdict{}, err
	}
	if _, ok := toNumber(value); ok {
		return Verdict{Passed: true, Details: fmt.Sprintf("Value %s is numeric", found)}, nil
	}
	return Verdict{Passed: false, Details: fmt.Sprintf("Value %s is not numeric", found)}, nil
}

func evalDateFormat(rule *CompiledRule, value any) (Verdict, error) {
	found, err := describe(value)
	if err != nil {
		return Verdict{}, err
	}
	if t, ok := toDate(value); ok {
		return Verdict{Passed: true, Details: fmt.Sprintf("Value %s is a valid date (%s)", found, t.Format("2006-01-02"))}, nil
	}
	return Verdict{Passed: false, Details: fmt.Sprintf("Value %s is not a valid date", found)}, nil
}

func evalUnrecognized(rule *CompiledRule, _ any) (Verdict, error) {
	return Verdict{
		Passed:  true,
		Details: fmt.Sprintf("Unrecognized condition type %q; check skipped", rule.RawCondition),
	}, nil
}

// describe renders value for details: quoted text, or "nothing" when absent.
func describe(value any) (string, error) {
	if value == nil {
		return "nothing", nil
	}
	text, err := toText(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%q", text), nil
}
