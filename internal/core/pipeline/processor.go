// Package pipeline runs validation for documents submitted without a
// synchronous caller.
//
// The extraction pipeline writes documents with status pending. Processor
// polls for them and runs each through the same ValidationService the API
// uses, so background and interactive passes are indistinguishable.
//
// A pass that fails after moving its document to processing leaves it
// there. Once such a document has not been touched for StaleAfter, the
// processor runs it again; the rerun replaces whatever the failed pass
// managed to write.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/docguard/internal/core/api"
	"github.com/solatis/docguard/internal/core/config"
	"github.com/solatis/docguard/internal/types"
)

// DocumentLister lists work for the processor. Implemented by store.Store.
type DocumentLister interface {
	ListDocumentsByStatus(ctx context.Context, status types.DocumentStatus, limit int) ([]types.Document, error)
	ListStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]types.Document, error)
}

// Validator runs a pass over a stored document. Implemented by api.ValidationService.
type Validator interface {
	Revalidate(ctx context.Context, id types.DocumentID) (api.Outcome, error)
}

// BatchResult summarizes one polling round.
type BatchResult struct {
	Processed int
	Failed    int
}

// Processor validates pending documents in batches.
type Processor struct {
	docs      DocumentLister
	validator Validator
	cfg       config.WorkerConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewProcessor creates a processor. logger may be nil.
func NewProcessor(docs DocumentLister, validator Validator, cfg config.WorkerConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = config.Default().Worker.StaleAfter
	}
	return &Processor{docs: docs, validator: validator, cfg: cfg, logger: logger, now: time.Now}
}

// Run polls until ctx is cancelled. A full batch triggers the next round
// immediately; otherwise the processor waits PollInterval.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("processor started",
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Int("batch_size", p.cfg.BatchSize),
		zap.Int("concurrency", p.cfg.Concurrency),
		zap.Duration("stale_after", p.cfg.StaleAfter))

	for {
		result, err := p.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("batch failed", zap.Error(err))
		}

		wait := p.cfg.PollInterval
		if err == nil && result.Processed >= p.cfg.BatchSize {
			wait = 0
		}

		select {
		case <-ctx.Done():
			p.logger.Info("processor stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// ProcessBatch validates up to BatchSize documents, Concurrency at a time.
// Pending documents come first, oldest first; remaining room goes to stale
// processing documents. A failing document is logged and counted; it does
// not stop the batch. The returned error covers listing failures only.
func (p *Processor) ProcessBatch(ctx context.Context) (BatchResult, error) {
	docs, err := p.docs.ListDocumentsByStatus(ctx, types.StatusPending, p.cfg.BatchSize)
	if err != nil {
		return BatchResult{}, err
	}
	if room := p.cfg.BatchSize - len(docs); room > 0 {
		stale, err := p.docs.ListStaleProcessing(ctx, p.now().Add(-p.cfg.StaleAfter), room)
		if err != nil {
			return BatchResult{}, err
		}
		for _, doc := range stale {
			p.logger.Info("retrying interrupted document", zap.String("document_id", string(doc.ID)))
		}
		docs = append(docs, stale...)
	}
	if len(docs) == 0 {
		return BatchResult{}, nil
	}

	failed := make([]bool, len(docs))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			outcome, err := p.validator.Revalidate(ctx, doc.ID)
			if err != nil {
				failed[i] = true
				// Another worker or an API call got there first
				if errors.Is(err, types.ErrInvalidTransition) {
					p.logger.Debug("document already picked up", zap.String("document_id", string(doc.ID)))
					return nil
				}
				p.logger.Warn("document validation failed",
					zap.String("document_id", string(doc.ID)),
					zap.Error(err))
				return nil
			}
			p.logger.Debug("document validated",
				zap.String("document_id", string(doc.ID)),
				zap.String("status", string(outcome.Status)),
				zap.Int("issues", len(outcome.Issues)))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	var result BatchResult
	for _, f := range failed {
		if f {
			result.Failed++
		} else {
			result.Processed++
		}
	}
	p.logger.Info("batch complete",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))
	return result, nil
}
