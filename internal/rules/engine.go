// internal/rules/engine.go
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/docguard/internal/types"
)

/*
 * Validation orchestration.
 *
 * Engine runs one validation pass for one document:
 *   1. Load active rules for the document type from the RuleSource
 *   2. Evaluate each rule independently (bounded fan-out, order preserved)
 *   3. Build one check per rule and one issue per failed check
 *   4. Replace the document's stored checks and issues through the ResultSink
 *
 * Failure policy:
 *   - RuleSource error: fail open. Logged and counted as a rule store
 *     outage, treated as zero rules, Result.RulesUnavailable set.
 *   - Evaluation error or panic: that rule's check fails with the error in
 *     its details; the remaining rules still run.
 *   - ResultSink error: returned wrapped in types.ErrPersistence.
 *
 * The engine is the single interpreter shared by the interactive API and
 * the background processor. Both sources and sinks are injected so the
 * engine holds no ambient state.
 */

// DefaultConcurrency bounds parallel rule evaluation within one pass.
const DefaultConcurrency = 4

// RuleSource loads the active rules for a document type.
type RuleSource interface {
	LoadRules(ctx context.Context, documentType string) ([]types.ValidationRule, error)
}

// ResultSink replaces all stored checks and issues of a document.
type ResultSink interface {
	ReplaceResults(ctx context.Context, documentID types.DocumentID, checks []types.ValidationCheck, issues []types.ValidationIssue) error
}

// OtherDocumentType is the metrics label for passes where no rule applied.
// Document types come from callers; only types with rules become labels.
const OtherDocumentType = "other"

// Observer receives engine measurements. Implemented by the metrics package.
type Observer interface {
	ObserveCheck(condition string, passed bool)
	ObserveValidation(documentType string, status types.DocumentStatus, elapsed time.Duration)
	ObserveRuleStoreFailure()
}

type noopObserver struct{}

func (noopObserver) ObserveCheck(string, bool)                                     {}
func (noopObserver) ObserveValidation(string, types.DocumentStatus, time.Duration) {}
func (noopObserver) ObserveRuleStoreFailure()                                      {}

// Result is the aggregated outcome of one validation pass.
type Result struct {
	Checks []types.ValidationCheck `json:"checks"`
	Issues []types.ValidationIssue `json:"issues"`
	// RulesUnavailable is set when the rule store failed and the pass ran
	// with zero rules. Distinguishes an outage from a clean document.
	RulesUnavailable bool `json:"rulesUnavailable,omitempty"`
}

// Status derives the recommended document status from the result's issues.
func (r Result) Status() StatusRecommendation {
	return DeriveStatus(r.Issues)
}

// Engine evaluates and persists validation passes.
type Engine struct {
	source      RuleSource
	sink        ResultSink
	logger      *zap.Logger
	observer    Observer
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// WithConcurrency bounds parallel rule evaluation. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// NewEngine creates an engine reading rules from source and writing results to sink.
func NewEngine(source RuleSource, sink ResultSink, opts ...Option) *Engine {
	e := &Engine{
		source:      source,
		sink:        sink,
		logger:      zap.NewNop(),
		observer:    noopObserver{},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate runs a full validation pass for one document and persists it.
func (e *Engine) Validate(ctx context.Context, documentID types.DocumentID, documentType string, content any) (Result, error) {
	start := time.Now()
	logger := e.logger.With(
		zap.String("document_id", string(documentID)),
		zap.String("document_type", documentType),
	)

	loaded, err := e.source.LoadRules(ctx, documentType)
	rulesUnavailable := false
	if err != nil {
		// Fail open: an outage must not block document intake.
		logger.Warn("rule store unavailable, validating with zero rules",
			zap.Error(fmt.Errorf("%w: %v", types.ErrRuleStoreUnavailable, err)))
		e.observer.ObserveRuleStoreFailure()
		loaded = nil
		rulesUnavailable = true
	}

	result := e.EvaluateRules(loaded, documentType, content)
	result.RulesUnavailable = rulesUnavailable

	if err := e.sink.ReplaceResults(ctx, documentID, result.Checks, result.Issues); err != nil {
		logger.Error("failed to persist validation results", zap.Error(err))
		if errors.Is(err, types.ErrPersistence) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", types.ErrPersistence, err)
	}

	recommendation := result.Status()
	label := documentType
	if len(result.Checks) == 0 {
		label = OtherDocumentType
	}
	e.observer.ObserveValidation(label, recommendation.Status, time.Since(start))
	logger.Info("validation pass complete",
		zap.Int("checks", len(result.Checks)),
		zap.Int("issues", len(result.Issues)),
		zap.String("recommended_status", string(recommendation.Status)),
		zap.Bool("flagged", recommendation.Flagged),
		zap.Bool("rules_unavailable", rulesUnavailable),
	)

	return result, nil
}

// EvaluateRules evaluates rules against content without persisting.
// Rules that are inactive or belong to another document type are skipped.
func (e *Engine) EvaluateRules(rules []types.ValidationRule, documentType string, content any) Result {
	applicable := make([]types.ValidationRule, 0, len(rules))
	for _, r := range rules {
		if r.Applies(documentType) {
			applicable = append(applicable, r)
		}
	}
	compiled := CompileAll(applicable)

	verdicts := make([]Verdict, len(compiled))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, rule := range compiled {
		i, rule := i, rule
		g.Go(func() error {
			verdict, err := evaluateSafely(rule, content)
			if err != nil {
				e.logger.Warn("rule evaluation failed",
					zap.String("rule_id", string(rule.RuleID)),
					zap.Error(err))
			}
			verdicts[i] = verdict
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	result := Result{
		Checks: make([]types.ValidationCheck, 0, len(compiled)),
		Issues: make([]types.ValidationIssue, 0),
	}
	for i, rule := range compiled {
		verdict := verdicts[i]
		e.observer.ObserveCheck(rule.Condition.String(), verdict.Passed)

		status := types.CheckPassed
		if !verdict.Passed {
			status = types.CheckFailed
		}
		result.Checks = append(result.Checks, types.ValidationCheck{
			RuleID:      rule.RuleID,
			Name:        rule.Name,
			Description: rule.ErrorMessage,
			Status:      status,
			Details:     verdict.Details,
		})
		if !verdict.Passed {
			result.Issues = append(result.Issues, types.ValidationIssue{
				RuleID:   rule.RuleID,
				Field:    rule.Field,
				Issue:    rule.ErrorMessage,
				Severity: rule.Severity,
			})
		}
	}
	return result
}
