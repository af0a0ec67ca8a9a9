package changefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw change events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawChange, error)
}

// BeachIndex is the in-memory beach list the processor keeps current.
type BeachIndex interface {
	Apply(change domain.BeachChange) *domain.BeachRecord
	Len() int
}

// LikeStore resolves the users who liked a beach.
type LikeStore interface {
	LikerIDs(ctx context.Context, beachID string) ([]string, error)
}

// StatusRecorder keeps an audit row for each status transition.
type StatusRecorder interface {
	RecordStatusChange(ctx context.Context, beachID string, oldStatus, newStatus domain.BeachStatus, at time.Time) error
}

// Notifier delivers status notifications to users.
type Notifier interface {
	Publish(ctx context.Context, notifications []domain.StatusNotification) error
}

// Processor orchestrates the extract-apply-notify loop over the beach change
// feed.
type Processor struct {
	extractor BatchExtractor
	index     BeachIndex
	likes     LikeStore
	recorder  StatusRecorder
	notifier  Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// Option customizes a Processor.
type Option func(*Processor)

// WithStatusRecorder records every status transition before notifying.
func WithStatusRecorder(r StatusRecorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// New creates a Processor. likes and notifier may be nil, in which case the
// index is still kept current but nobody is notified.
func New(e BatchExtractor, idx BeachIndex, likes LikeStore, n Notifier, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Processor {
	p := &Processor{
		extractor: e,
		index:     idx,
		likes:     likes,
		notifier:  n,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the change loop until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("change processor started", "batch_size", p.batchSize)
	p.metrics.ProcessorRunning.Set(1)
	defer p.metrics.ProcessorRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("change processor stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-apply-notify cycle. Returns false if the
// processor should stop.
func (p *Processor) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ChangesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	applied, ok := p.applyAndNotify(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	*backoff = initialBackoff
	if applied > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// applyAndNotify decodes each change, applies it to the index and delivers
// notifications for status transitions. The batch is committed in order only
// once every notification is out, so no offset moves past an undelivered
// transition. Returns false if the context was cancelled first; the batch is
// then left uncommitted.
func (p *Processor) applyAndNotify(ctx context.Context, rawBatch []domain.RawChange, backoff *time.Duration) (int, bool) {
	var transitions []domain.BeachChange
	applied := 0

	for _, raw := range rawBatch {
		change, err := domain.DecodeChange(raw)
		if errors.Is(err, domain.ErrIgnoredChange) {
			p.logger.Debug("change ignored", "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
			continue
		}
		if err != nil {
			p.logger.Warn("decode failed, skipping change",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ChangeDecodeErrors.Inc()
			continue
		}

		previous := p.index.Apply(change)
		if change.Old == nil {
			change.Old = previous
		}
		p.metrics.ChangesApplied.Inc()
		applied++

		if change.StatusChanged() {
			p.recordTransition(ctx, change)
			transitions = append(transitions, change)
		}
	}
	p.metrics.IndexSize.Set(float64(p.index.Len()))

	if !p.deliver(ctx, transitions, backoff) {
		return applied, false
	}
	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}
	return applied, true
}

// recordTransition logs the transition and keeps an audit row for it. A
// failed audit write does not hold up notifications.
func (p *Processor) recordTransition(ctx context.Context, change domain.BeachChange) {
	p.logger.Info("beach status changed",
		"beach_id", change.New.ID,
		"old_status", change.Old.Status,
		"new_status", change.New.Status,
	)
	if p.recorder == nil {
		return
	}
	err := p.recorder.RecordStatusChange(ctx, change.New.ID, change.Old.Status, change.New.Status, domain.Now())
	if err != nil {
		p.logger.Warn("record status change failed", "error", err, "beach_id", change.New.ID)
	}
}

// deliver resolves the likers of every transition and publishes one
// notification per liker. Failed lookups and publishes are retried with
// backoff; lookups that already succeeded are not repeated. Returns false if
// the context is cancelled before everything is delivered.
func (p *Processor) deliver(ctx context.Context, transitions []domain.BeachChange, backoff *time.Duration) bool {
	if len(transitions) == 0 || p.likes == nil || p.notifier == nil {
		return true
	}

	resolved := make([][]domain.StatusNotification, len(transitions))
	done := make([]bool, len(transitions))
	for {
		failed := 0
		for i, change := range transitions {
			if done[i] {
				continue
			}
			ns, err := p.notificationsFor(ctx, change)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				p.logger.Error("list likers failed", "error", err, "beach_id", change.New.ID)
				failed++
				continue
			}
			resolved[i], done[i] = ns, true
		}
		if failed == 0 {
			break
		}
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}

	var notifications []domain.StatusNotification
	for _, ns := range resolved {
		notifications = append(notifications, ns...)
	}
	if len(notifications) == 0 {
		return true
	}

	for {
		err := p.notifier.Publish(ctx, notifications)
		if err == nil {
			p.metrics.NotificationsPublished.Add(float64(len(notifications)))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish notifications failed", "error", err, "notifications", len(notifications))
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// notificationsFor builds one notification per user who liked the beach.
func (p *Processor) notificationsFor(ctx context.Context, change domain.BeachChange) ([]domain.StatusNotification, error) {
	userIDs, err := p.likes.LikerIDs(ctx, change.New.ID)
	if err != nil {
		return nil, fmt.Errorf("list likers of beach %s: %w", change.New.ID, err)
	}

	out := make([]domain.StatusNotification, 0, len(userIDs))
	for _, userID := range userIDs {
		out = append(out, domain.NewStatusNotification(change, userID))
	}
	return out, nil
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the processor should stop.
func (p *Processor) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Processor) commitOffset(ctx context.Context, raw domain.RawChange) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
