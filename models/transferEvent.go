package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"gorm.io/gorm"
)

// TransferEvent is one immutable ledger entry. Only the publish bookkeeping columns change
// after insert; the outbox dispatcher owns them.
type TransferEvent struct {
	ID            int          `gorm:"primary_key" json:"id"`
	FactoryId     string       `gorm:"index;size:64;not null" json:"factory_id"`
	OrderId       int          `gorm:"index;not null" json:"order_id"`
	ArticleId     int          `gorm:"index;not null" json:"article_id"`
	Kind          TransferKind `gorm:"size:32;not null" json:"kind"`
	FromFloor     Floor        `gorm:"size:64" json:"from_floor"`
	ToFloor       Floor        `gorm:"size:64" json:"to_floor"`
	Quantity      int          `gorm:"not null;default:0" json:"quantity"`
	Actor         string       `gorm:"size:255" json:"actor"`
	Remarks       string       `gorm:"size:500" json:"remarks"`
	CorrelationId string       `gorm:"size:64;index" json:"correlation_id"`
	OccurredAt    time.Time    `gorm:"not null" json:"occurred_at"`

	PublishStatus    string     `gorm:"size:20;not null;default:PENDING;index:idx_transfer_event_publish" json:"-"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"-"`
	NextAttemptAt    *time.Time `gorm:"index:idx_transfer_event_publish" json:"-"`
	LockedAt         *time.Time `json:"-"`
	LockedBy         *string    `gorm:"size:64" json:"-"`
	LastPublishError *string    `gorm:"type:text" json:"-"`
	PubSubMessageId  *string    `gorm:"size:255" json:"-"`
	PublishedAt      *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (e TransferEvent) ToAuditMessage() config.AuditMessage {
	return config.AuditMessage{
		ID:            e.ID,
		FactoryId:     e.FactoryId,
		OrderId:       e.OrderId,
		ArticleId:     e.ArticleId,
		Kind:          string(e.Kind),
		FromFloor:     string(e.FromFloor),
		ToFloor:       string(e.ToFloor),
		Quantity:      e.Quantity,
		Actor:         e.Actor,
		Remarks:       e.Remarks,
		OccurredAt:    e.OccurredAt,
		CorrelationId: e.CorrelationId,
	}
}

// TransferEventSink appends ledger rows. It runs after the article commit, so a failure here
// never undoes counter changes.
type TransferEventSink struct {
	db *gorm.DB
}

func NewTransferEventSink(db *gorm.DB) *TransferEventSink {
	return &TransferEventSink{db: db}
}

func (s *TransferEventSink) Record(ctx context.Context, events []TransferEvent) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		events[i].PublishStatus = OutboxPublishStatusPending
	}
	return s.db.WithContext(ctx).Create(&events).Error
}

func ListArticleTransferEvents(ctx context.Context, db *gorm.DB, articleId int) ([]TransferEvent, error) {
	var events []TransferEvent
	err := db.WithContext(ctx).
		Where("article_id = ?", articleId).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func ListOrderTransferEvents(ctx context.Context, db *gorm.DB, orderId int) ([]TransferEvent, error) {
	var events []TransferEvent
	err := db.WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("article_id ASC, occurred_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// RequeueTransferEvent puts a DEAD or FAILED ledger row back in line for publishing with a
// fresh attempt budget.
func RequeueTransferEvent(ctx context.Context, db *gorm.DB, id int, now time.Time) error {
	res := db.WithContext(ctx).Model(&TransferEvent{}).
		Where("id = ? AND publish_status IN ?", id, []string{OutboxPublishStatusDead, OutboxPublishStatusFailed}).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusFailed,
			"publish_attempts":   0,
			"next_attempt_at":    &now,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
