package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/docguard/internal/core/db"
	"github.com/solatis/docguard/internal/core/store"
	"github.com/solatis/docguard/internal/rules"
	"github.com/solatis/docguard/internal/types"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	store   *store.Store
	service *ValidationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = db.MigrateUp(database)
	require.NoError(t, err)
	q, err := db.LoadQueries(database)
	require.NoError(t, err)

	s := store.New(q)
	require.NoError(t, s.UpsertRules(context.Background(), []types.ValidationRule{
		{ID: "r1", Name: "Invoice number", DocumentType: "invoice", ConditionField: "invoice_number", ConditionType: "required", ErrorMessage: "Invoice number missing", Severity: "error", IsActive: true},
		{ID: "r2", DocumentType: "invoice", ConditionField: "currency", ConditionType: "equals", ConditionValue: strPtr("USD"), ErrorMessage: "Currency must be USD", Severity: "warning", IsActive: true},
	}))

	service, err := NewValidationService(s, rules.NewEngine(s, s), nil)
	require.NoError(t, err)
	return &fixture{store: s, service: service}
}

func TestNewValidationService_NilDeps(t *testing.T) {
	_, err := NewValidationService(nil, rules.NewEngine(nil, nil), nil)
	assert.Error(t, err)
	f := newFixture(t)
	_, err = NewValidationService(f.store, nil, nil)
	assert.Error(t, err)
}

func TestValidateDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("clean document", func(t *testing.T) {
		outcome, err := f.service.ValidateDocument(ctx, "doc-ok", "invoice", types.Content{"invoice_number": "INV-1", "currency": "USD"})
		require.NoError(t, err)
		assert.Len(t, outcome.Checks, 2)
		assert.Empty(t, outcome.Issues)
		assert.Equal(t, types.StatusPendingVerification, outcome.Status)
		assert.False(t, outcome.Flagged)

		doc, err := f.store.GetDocument(ctx, "doc-ok")
		require.NoError(t, err)
		assert.Equal(t, types.StatusPendingVerification, doc.Status)
	})

	t.Run("high severity issue rejects and flags", func(t *testing.T) {
		outcome, err := f.service.ValidateDocument(ctx, "doc-bad", "invoice", types.Content{"currency": "EUR"})
		require.NoError(t, err)
		assert.Len(t, outcome.Issues, 2)
		assert.Equal(t, types.StatusRejected, outcome.Status)
		assert.True(t, outcome.Flagged)

		doc, err := f.store.GetDocument(ctx, "doc-bad")
		require.NoError(t, err)
		assert.Equal(t, types.StatusRejected, doc.Status)
		assert.True(t, doc.Flagged)
	})

	t.Run("revalidation after fix replaces results", func(t *testing.T) {
		outcome, err := f.service.ValidateDocument(ctx, "doc-bad", "invoice", types.Content{"invoice_number": "INV-2", "currency": "USD"})
		require.NoError(t, err)
		assert.Empty(t, outcome.Issues)
		assert.Equal(t, types.StatusPendingVerification, outcome.Status)

		issues, err := f.service.ListIssues(ctx, "doc-bad")
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("unknown document type yields no checks", func(t *testing.T) {
		outcome, err := f.service.ValidateDocument(ctx, "doc-x", "customs_form", types.Content{})
		require.NoError(t, err)
		assert.Empty(t, outcome.Checks)
		assert.Equal(t, types.StatusPendingVerification, outcome.Status)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := f.service.ValidateDocument(ctx, "", "invoice", nil)
		assert.True(t, errors.Is(err, types.ErrInvalidDocument))
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := f.service.ValidateDocument(ctx, "doc-1", "", nil)
		assert.True(t, errors.Is(err, types.ErrInvalidDocument))
	})
}

func TestRevalidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.UpsertDocument(ctx, "doc-1", "invoice", types.Content{"invoice_number": "INV-1", "currency": "GBP"}))
	outcome, err := f.service.Revalidate(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, types.RuleID("r2"), outcome.Issues[0].RuleID)
	assert.Equal(t, types.StatusPendingVerification, outcome.Status)
	assert.False(t, outcome.Flagged)

	_, err = f.service.Revalidate(ctx, "missing")
	assert.True(t, errors.Is(err, types.ErrDocumentNotFound))
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ValidateDocument(ctx, "doc-1", "invoice", types.Content{})
	require.NoError(t, err)

	_, err = f.service.Review(ctx, "doc-1", types.StatusProcessing)
	assert.True(t, errors.Is(err, types.ErrInvalidRequest))

	// Auto-rejected document confirmed as rejected: no-op
	doc, err := f.service.Review(ctx, "doc-1", types.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, doc.Status)

	// Operator overrides the rejection
	doc, err = f.service.Review(ctx, "doc-1", types.StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, types.StatusVerified, doc.Status)
	assert.True(t, doc.Flagged, "review keeps the flag")

	// Verified documents cannot be rejected without revalidation
	_, err = f.service.Review(ctx, "doc-1", types.StatusRejected)
	assert.True(t, errors.Is(err, types.ErrInvalidTransition))

	_, err = f.service.Review(ctx, "missing", types.StatusVerified)
	assert.True(t, errors.Is(err, types.ErrDocumentNotFound))
}

func TestListChecks_PendingPlaceholders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ValidateDocument(ctx, "doc-1", "invoice", types.Content{"invoice_number": "INV-1", "currency": "USD"})
	require.NoError(t, err)

	// Rule added after the pass
	require.NoError(t, f.store.UpsertRules(ctx, []types.ValidationRule{
		{ID: "r3", DocumentType: "invoice", ConditionField: "total", ConditionType: "numeric", ErrorMessage: "Total not numeric", IsActive: true},
		{ID: "r4", DocumentType: "invoice", ConditionField: "x", ConditionType: "required", IsActive: false},
	}))

	checks, err := f.service.ListChecks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, checks, 3)
	assert.Equal(t, types.CheckPassed, checks[0].Status)
	assert.Equal(t, types.CheckPassed, checks[1].Status)
	assert.Equal(t, types.ValidationCheck{
		RuleID:      "r3",
		Name:        "numeric:total",
		Description: "Total not numeric",
		Status:      types.CheckPending,
		Details:     "not evaluated yet",
	}, checks[2])

	_, err = f.service.ListChecks(ctx, "missing")
	assert.True(t, errors.Is(err, types.ErrDocumentNotFound))
}

func TestListRules(t *testing.T) {
	f := newFixture(t)
	got, err := f.service.ListRules(context.Background(), "invoice")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.service.ListRules(context.Background(), "bill_of_lading")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingSink struct{}

func (failingSink) ReplaceResults(context.Context, types.DocumentID, []types.ValidationCheck, []types.ValidationIssue) error {
	return errors.New("disk full")
}

func TestValidateDocument_PersistenceFailureLeavesProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	service, err := NewValidationService(f.store, rules.NewEngine(f.store, failingSink{}), nil)
	require.NoError(t, err)

	_, err = service.ValidateDocument(ctx, "doc-1", "invoice", types.Content{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPersistence))

	doc, err := f.store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, doc.Status)

	// Retry with a working sink reconciles
	outcome, err := f.service.ValidateDocument(ctx, "doc-1", "invoice", types.Content{"invoice_number": "A", "currency": "USD"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPendingVerification, outcome.Status)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		http int
	}{
		{types.ErrInvalidDocument, 400},
		{types.ErrInvalidRequest, 400},
		{types.ErrDocumentNotFound, 404},
		{types.ErrInvalidTransition, 409},
		{types.ErrPersistence, 503},
		{types.ErrStorage, 503},
		{context.DeadlineExceeded, 504},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		wrapped := errors.Join(errors.New("context"), tt.err)
		assert.Equal(t, tt.http, httpStatus(wrapped), tt.err.Error())
	}
}
