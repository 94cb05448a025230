// Package api provides the validation service and its transport handlers.
//
// ValidationService is the transport-agnostic entry point: it stores the
// document, runs the engine and applies the recommended status. The HTTP
// handlers (http.go) and the gRPC service (grpc.go) are thin adapters over
// it; error mapping for both lives in errors.go.
package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/docguard/internal/rules"
	"github.com/solatis/docguard/internal/types"
)

// Repository is the persistence the service needs. Implemented by store.Store.
type Repository interface {
	UpsertDocument(ctx context.Context, id types.DocumentID, documentType string, content types.Content) error
	GetDocument(ctx context.Context, id types.DocumentID) (types.Document, error)
	UpdateStatus(ctx context.Context, id types.DocumentID, next types.DocumentStatus, flagged bool) (types.Document, error)
	ListChecks(ctx context.Context, id types.DocumentID) ([]types.ValidationCheck, error)
	ListIssues(ctx context.Context, id types.DocumentID) ([]types.ValidationIssue, error)
	ListRules(ctx context.Context, documentType string) ([]types.ValidationRule, error)
}

// Outcome is the result of one validation request.
type Outcome struct {
	DocumentID       types.DocumentID        `json:"documentId"`
	DocumentType     string                  `json:"documentType"`
	Checks           []types.ValidationCheck `json:"checks"`
	Issues           []types.ValidationIssue `json:"issues"`
	Status           types.DocumentStatus    `json:"status"`
	Flagged          bool                    `json:"flagged"`
	RulesUnavailable bool                    `json:"rulesUnavailable,omitempty"`
}

// ValidationService validates documents and manages their review status.
type ValidationService struct {
	repo   Repository
	engine *rules.Engine
	logger *zap.Logger
}

// NewValidationService creates service instance with dependencies.
func NewValidationService(repo Repository, engine *rules.Engine, logger *zap.Logger) (*ValidationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{repo: repo, engine: engine, logger: logger}, nil
}

// ValidateDocument stores the document content, runs a validation pass and
// applies the recommended status. Safe to repeat: each pass replaces the
// previous checks and issues.
func (s *ValidationService) ValidateDocument(ctx context.Context, id types.DocumentID, documentType string, content types.Content) (Outcome, error) {
	if id == "" {
		return Outcome{}, fmt.Errorf("%w: document id is required", types.ErrInvalidDocument)
	}
	if documentType == "" {
		return Outcome{}, fmt.Errorf("%w: document type is required", types.ErrInvalidDocument)
	}

	if err := s.repo.UpsertDocument(ctx, id, documentType, content); err != nil {
		return Outcome{}, err
	}
	return s.validate(ctx, types.Document{ID: id, DocumentType: documentType, Content: content})
}

// Revalidate runs a pass over the document's stored content.
func (s *ValidationService) Revalidate(ctx context.Context, id types.DocumentID) (Outcome, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	return s.validate(ctx, doc)
}

// validate moves the document to processing, evaluates and persists, then
// applies the derived status. A failure leaves the document in processing;
// the background processor reruns it once worker.stale_after has passed.
func (s *ValidationService) validate(ctx context.Context, doc types.Document) (Outcome, error) {
	if _, err := s.repo.UpdateStatus(ctx, doc.ID, types.StatusProcessing, false); err != nil {
		return Outcome{}, err
	}

	result, err := s.engine.Validate(ctx, doc.ID, doc.DocumentType, doc.Content)
	if err != nil {
		return Outcome{}, err
	}

	recommendation := result.Status()
	if _, err := s.repo.UpdateStatus(ctx, doc.ID, recommendation.Status, recommendation.Flagged); err != nil {
		s.logger.Error("failed to apply recommended status",
			zap.String("document_id", string(doc.ID)),
			zap.String("status", string(recommendation.Status)),
			zap.Error(err))
		return Outcome{}, err
	}

	return Outcome{
		DocumentID:       doc.ID,
		DocumentType:     doc.DocumentType,
		Checks:           result.Checks,
		Issues:           result.Issues,
		Status:           recommendation.Status,
		Flagged:          recommendation.Flagged,
		RulesUnavailable: result.RulesUnavailable,
	}, nil
}

// Review records a manual verified/rejected decision. The flagged marker
// is kept; only the status changes.
func (s *ValidationService) Review(ctx context.Context, id types.DocumentID, decision types.DocumentStatus) (types.Document, error) {
	if decision != types.StatusVerified && decision != types.StatusRejected {
		return types.Document{}, fmt.Errorf("%w: review status must be verified or rejected, got %q", types.ErrInvalidRequest, decision)
	}
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return types.Document{}, err
	}
	// rejected -> rejected is a no-op review of an auto-rejected document
	if doc.Status == decision {
		return doc, nil
	}
	return s.repo.UpdateStatus(ctx, id, decision, doc.Flagged)
}

// ListChecks returns the stored checks of a document followed by a pending
// placeholder for every active rule that has no recorded check yet.
func (s *ValidationService) ListChecks(ctx context.Context, id types.DocumentID) ([]types.ValidationCheck, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	checks, err := s.repo.ListChecks(ctx, id)
	if err != nil {
		return nil, err
	}
	ruleSet, err := s.repo.ListRules(ctx, doc.DocumentType)
	if err != nil {
		return nil, err
	}

	seen := make(map[types.RuleID]bool, len(checks))
	for _, c := range checks {
		seen[c.RuleID] = true
	}
	for _, r := range ruleSet {
		if !r.Applies(doc.DocumentType) || seen[r.ID] {
			continue
		}
		compiled := rules.Compile(&r)
		checks = append(checks, types.ValidationCheck{
			RuleID:      r.ID,
			Name:        compiled.Name,
			Description: r.ErrorMessage,
			Status:      types.CheckPending,
			Details:     "not evaluated yet",
		})
	}
	return checks, nil
}

// ListIssues returns the stored issues of a document.
func (s *ValidationService) ListIssues(ctx context.Context, id types.DocumentID) ([]types.ValidationIssue, error) {
	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListIssues(ctx, id)
}

// ListRules returns all rules for documentType, or every rule when empty.
func (s *ValidationService) ListRules(ctx context.Context, documentType string) ([]types.ValidationRule, error) {
	return s.repo.ListRules(ctx, documentType)
}
