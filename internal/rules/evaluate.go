// internal/rules/evaluate.go
package rules

import (
	"fmt"
)

/*
 * Rule evaluation.
 *
 * Evaluates one CompiledRule against one document's content:
 *   1. Resolve the rule's field path (missing -> nil, never an error)
 *   2. Dispatch on the condition variant through the handler table
 *   3. Return the verdict with human-readable details
 *
 * Evaluation performs no I/O and holds no state, so identical (rule,
 * content) pairs always produce identical verdicts and rules can run in any
 * order or in parallel. No rule can observe another rule's outcome.
 *
 * Failure containment lives one level up: Evaluate returns errors (and may
 * in principle panic inside a value's own JSON marshaller); the engine
 * turns both into a failed check instead of aborting the pass.
 */

// Verdict is the outcome of evaluating one rule.
type Verdict struct {
	Passed  bool
	Details string
}

// Evaluate checks one rule against content.
func Evaluate(rule *CompiledRule, content any) (Verdict, error) {
	value := ResolveSegments(content, rule.Segments)
	verdict, err := handlerFor(rule.Condition)(rule, value)
	if err != nil {
		return Verdict{}, fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	return verdict, nil
}

// evaluateSafely runs Evaluate and converts errors and panics into a
// failed verdict whose details carry the cause.
func evaluateSafely(rule *CompiledRule, content any) (verdict Verdict, evalErr error) {
	defer func() {
		if r := recover(); r != nil {
			evalErr = fmt.Errorf("rule %s: panic during evaluation: %v", rule.Name, r)
			verdict = Verdict{Passed: false, Details: fmt.Sprintf("Evaluation error: %v", r)}
		}
	}()

	verdict, err := Evaluate(rule, content)
	if err != nil {
		return Verdict{Passed: false, Details: fmt.Sprintf("Evaluation error: %v", err)}, err
	}
	return verdict, nil
}
