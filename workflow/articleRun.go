package workflow

import (
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"github.com/sirupsen/logrus"
)

// articleRun is the working state of one operation: a cloned article, its route and the
// ledger entries produced so far. Nothing here touches storage.
type articleRun struct {
	article       *models.Article
	seq           models.FloorSequence
	actor         string
	correlationId string
	now           time.Time
	singlePass    bool
	logger        *logrus.Logger
	debug         bool

	events         []models.TransferEvent
	overproduction int
}

func (r *articleRun) record(f models.Floor) *models.FloorQuantity {
	return r.article.Record(f)
}

func (r *articleRun) role(f models.Floor) models.FloorRole {
	return r.seq.Role(f)
}

func (r *articleRun) emit(kind models.TransferKind, from, to models.Floor, qty int, remarks string) {
	r.events = append(r.events, models.TransferEvent{
		FactoryId:     r.article.FactoryId,
		OrderId:       r.article.OrderId,
		ArticleId:     r.article.ID,
		Kind:          kind,
		FromFloor:     from,
		ToFloor:       to,
		Quantity:      qty,
		Actor:         r.actor,
		Remarks:       remarks,
		CorrelationId: r.correlationId,
		OccurredAt:    r.now,
	})
}

func (r *articleRun) trace(msg string, f models.Floor) {
	if !r.debug || r.logger == nil {
		return
	}
	rec := r.record(f)
	if rec == nil {
		return
	}
	r.logger.WithFields(logrus.Fields{
		"field":          "articleRun",
		"article_id":     r.article.ID,
		"floor":          f,
		"received":       rec.Received,
		"completed":      rec.Completed,
		"transferred":    rec.Transferred,
		"remaining":      rec.Remaining,
		"m1_quantity":    rec.M1Quantity,
		"m1_transferred": rec.M1Transferred,
		"m2_quantity":    rec.M2Quantity,
	}).Info(msg)
}

func newArticleRun(article *models.Article, seq models.FloorSequence, actor, correlationId string, now time.Time) *articleRun {
	return &articleRun{
		article:       article,
		seq:           seq,
		actor:         actor,
		correlationId: correlationId,
		now:           now,
		logger:        config.GetLogger(),
		debug:         config.DebugFloorEngine(),
	}
}
