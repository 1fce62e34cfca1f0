package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ArticleStore interface {
	GetArticle(ctx context.Context, id int) (*models.Article, error)
	// SaveArticle persists the article and its floor records atomically, failing with
	// models.ErrVersionConflict when the stored version moved, and bumps article.Version.
	SaveArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, id int) error
}

// FloorSequenceProvider returns the ordered floors an article passes through.
type FloorSequenceProvider interface {
	FloorSequence(ctx context.Context, article *models.Article) ([]models.Floor, error)
}

// AuditSink is an append-only ledger consumer.
type AuditSink interface {
	Record(ctx context.Context, events []models.TransferEvent) error
}

type TransferMetadata struct {
	Actor   string `json:"actor"`
	Remarks string `json:"remarks"`
}

type TransferSummary struct {
	FromFloor models.Floor `json:"from_floor"`
	ToFloor   models.Floor `json:"to_floor"`
	Quantity  int          `json:"quantity"`
}

// ArticleLifecycle runs every article mutation: lock, load, apply on a copy, propagate,
// advance floors, persist, then write the ledger.
type ArticleLifecycle struct {
	store      ArticleStore
	sequences  FloorSequenceProvider
	audit      AuditSink
	locker     ArticleLocker
	singlePass bool
	bulkLimit  int
	now        func() time.Time
	logger     *logrus.Logger
	tracer     trace.Tracer
}

type Option func(*ArticleLifecycle)

func WithLocker(l ArticleLocker) Option {
	return func(c *ArticleLifecycle) { c.locker = l }
}

// WithSinglePass overrides PROPAGATION_SINGLE_PASS.
func WithSinglePass(singlePass bool) Option {
	return func(c *ArticleLifecycle) { c.singlePass = singlePass }
}

func WithClock(now func() time.Time) Option {
	return func(c *ArticleLifecycle) { c.now = now }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *ArticleLifecycle) { c.tracer = t }
}

// WithBulkConcurrency bounds how many articles a bulk update works on at once.
func WithBulkConcurrency(n int) Option {
	return func(c *ArticleLifecycle) {
		if n > 0 {
			c.bulkLimit = n
		}
	}
}

func NewArticleLifecycle(store ArticleStore, sequences FloorSequenceProvider, audit AuditSink, opts ...Option) *ArticleLifecycle {
	c := &ArticleLifecycle{
		store:      store,
		sequences:  sequences,
		audit:      audit,
		locker:     NewKeyedMutex(),
		singlePass: config.PropagationSinglePass(),
		bulkLimit:  8,
		now:        time.Now,
		logger:     config.GetLogger(),
		tracer:     otel.Tracer("production-backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateProgress adds completedDelta to floor's completed counter and lets the result flow.
func (c *ArticleLifecycle) UpdateProgress(ctx context.Context, articleId int, floor models.Floor, completedDelta int, meta ProgressMetadata) (*models.Article, error) {
	var overproduction int
	article, err := c.mutate(ctx, "UpdateProgress", articleId, meta.Actor, func(r *articleRun) error {
		if !r.seq.Contains(floor) {
			return fmt.Errorf("%w: %s", ErrUnknownFloor, floor)
		}
		if err := applyProgress(r, floor, completedDelta, meta); err != nil {
			return err
		}
		overproduction = r.overproduction
		propagate(r, floor, meta.Remarks)
		advanceFloors(r)
		return nil
	})
	if article != nil {
		recordOverproduction(overproduction)
	}
	return article, err
}

// TransferFloor pushes a floor's completed-but-untransferred output to the next floor.
func (c *ArticleLifecycle) TransferFloor(ctx context.Context, articleId int, floor models.Floor, meta TransferMetadata) (*TransferSummary, error) {
	var summary *TransferSummary
	_, err := c.mutate(ctx, "TransferFloor", articleId, meta.Actor, func(r *articleRun) error {
		if !r.seq.Contains(floor) {
			return fmt.Errorf("%w: %s", ErrUnknownFloor, floor)
		}
		next, ok := r.seq.Next(floor)
		if !ok {
			return ErrNoNextFloor
		}
		rec := r.record(floor)
		if rec == nil || rec.Backlog(r.role(floor)) <= 0 {
			return ErrNoCompletedWork
		}
		moved := pushFloor(r, floor, meta.Remarks)
		summary = &TransferSummary{FromFloor: floor, ToFloor: next, Quantity: moved}
		propagate(r, floor, meta.Remarks)
		advanceFloors(r)
		return nil
	})
	if err != nil && !IsAuditWarning(err) {
		return nil, err
	}
	return summary, err
}

// QualityInspect records a grading result on an inspection floor.
func (c *ArticleLifecycle) QualityInspect(ctx context.Context, articleId int, in InspectionInput) (*models.Article, error) {
	return c.mutate(ctx, "QualityInspect", articleId, in.Actor, func(r *articleRun) error {
		if _, err := applyInspection(r, in); err != nil {
			return err
		}
		advanceFloors(r)
		return nil
	})
}

// RepairTransfer sends M2 stock from an inspection floor back for rework.
func (c *ArticleLifecycle) RepairTransfer(ctx context.Context, floor models.Floor, articleId int, in RepairInput) (*RepairSummary, error) {
	var summary *RepairSummary
	_, err := c.mutate(ctx, "RepairTransfer", articleId, in.Actor, func(r *articleRun) error {
		s, err := applyRepair(r, floor, in)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil && !IsAuditWarning(err) {
		return nil, err
	}
	return summary, err
}

// SweepBacklog pushes every floor's backlog to a fixed point and re-runs floor advancement.
// Used to catch up articles that were updated in single-pass mode.
func (c *ArticleLifecycle) SweepBacklog(ctx context.Context, articleId int, actor string) (*models.Article, error) {
	return c.mutate(ctx, "SweepBacklog", articleId, actor, func(r *articleRun) error {
		r.singlePass = false
		propagate(r, r.seq[0], "backlog sweep")
		advanceFloors(r)
		return nil
	})
}

func (c *ArticleLifecycle) GetArticle(ctx context.Context, articleId int) (*models.Article, error) {
	article, err := c.store.GetArticle(ctx, articleId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return article, nil
}

// DeleteArticle is the administrative removal of an article and its floor records.
func (c *ArticleLifecycle) DeleteArticle(ctx context.Context, articleId int) error {
	unlock, err := c.locker.Lock(ctx, articleId)
	defer unlock()
	if err != nil {
		return err
	}
	if err := c.store.DeleteArticle(ctx, articleId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	return nil
}

// mutate is the shared read-modify-write cycle. The engine works on a clone so a failed
// operation leaves nothing behind; the ledger is written only after the article committed.
func (c *ArticleLifecycle) mutate(ctx context.Context, op string, articleId int, actor string, apply func(r *articleRun) error) (result *models.Article, err error) {
	ctx, span := c.tracer.Start(ctx, "ArticleLifecycle."+op, trace.WithAttributes(attribute.Int("article.id", articleId)))
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case IsAuditWarning(err):
			outcome = "audit_warning"
		case IsValidationError(err) || errors.Is(err, ErrArticleNotFound):
			outcome = "rejected"
		default:
			outcome = "error"
		}
		if err != nil && !IsAuditWarning(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		config.OperationDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
		span.End()
	}()

	unlock, err := c.locker.Lock(ctx, articleId)
	defer unlock()
	if err != nil {
		return nil, err
	}

	stored, err := c.GetArticle(ctx, articleId)
	if err != nil {
		return nil, err
	}
	floors, err := c.sequences.FloorSequence(ctx, stored)
	if err != nil {
		config.LogError(c.logger, "ArticleLifecycle", op, "FloorSequence", articleId, err)
		return nil, err
	}
	seq := models.FloorSequence(floors)
	if len(seq) == 0 {
		return nil, fmt.Errorf("article %d has an empty floor sequence", articleId)
	}

	work := stored.Clone()
	work.EnsureRecords(seq)
	if !seq.Contains(work.CurrentFloor) {
		work.CurrentFloor = seq[0]
	}

	if actor == "" {
		actor, _ = utils.GetUserNameFromContext(ctx)
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	r := newArticleRun(work, seq, actor, correlationId, c.now())
	r.singlePass = c.singlePass

	if err := apply(r); err != nil {
		return nil, err
	}
	refreshArticleState(r)

	if err := c.store.SaveArticle(ctx, work); err != nil {
		if !errors.Is(err, ErrConcurrentModification) {
			config.LogError(c.logger, "ArticleLifecycle", op, "SaveArticle", articleId, err)
		}
		return nil, err
	}

	for _, e := range r.events {
		config.FloorTransfersTotal.WithLabelValues(string(e.Kind)).Inc()
		if e.Kind == models.TransferKindTransfer || e.Kind == models.TransferKindRepair {
			config.FloorTransferUnits.WithLabelValues(string(e.Kind)).Add(float64(e.Quantity))
		}
	}

	if err := c.audit.Record(ctx, r.events); err != nil {
		config.AuditWriteFailures.Inc()
		c.logger.WithFields(logrus.Fields{
			"field":       op,
			"article_id":  articleId,
			"event_count": len(r.events),
		}).Warn("audit write failed after commit: " + err.Error())
		return work, &AuditError{Err: err}
	}
	return work, nil
}
