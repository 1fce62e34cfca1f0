package models

import (
	"context"

	"bitbucket.org/mmdatafocus/production_backend/utils"
	"gorm.io/gorm"
)

// GormArticleStore persists articles and their floor records.
type GormArticleStore struct {
	db *gorm.DB
}

func NewGormArticleStore(db *gorm.DB) *GormArticleStore {
	return &GormArticleStore{db: db}
}

func (s *GormArticleStore) GetArticle(ctx context.Context, id int) (*Article, error) {
	var article Article
	err := s.db.WithContext(ctx).
		Preload("FloorQuantities", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&article, id).Error
	if err != nil {
		return nil, utils.NotFoundOr(err)
	}
	return &article, nil
}

// SaveArticle writes the article and all its floor records in one transaction.
// The write only lands when the stored version still equals article.Version; on success the
// version is bumped in place. The order's CurrentFloor follows the article when it moved to a
// later floor than the order has seen.
func (s *GormArticleStore) SaveArticle(ctx context.Context, article *Article) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Article{}).
			Where("id = ? AND version = ?", article.ID, article.Version).
			Updates(map[string]interface{}{
				"current_floor":    article.CurrentFloor,
				"status":           article.Status,
				"progress":         article.Progress,
				"floor_started_at": article.FloorStartedAt,
				"floor_remarks":    article.FloorRemarks,
				"completed_at":     article.CompletedAt,
				"version":          gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		for i := range article.FloorQuantities {
			rec := &article.FloorQuantities[i]
			rec.ArticleId = article.ID
			rec.FactoryId = article.FactoryId
			if err := tx.Save(rec).Error; err != nil {
				return err
			}
		}

		rank := article.CurrentFloor.Rank()
		return tx.Model(&ProductionOrder{}).
			Where("id = ? AND current_floor_rank < ?", article.OrderId, rank).
			Updates(map[string]interface{}{
				"current_floor":      article.CurrentFloor,
				"current_floor_rank": rank,
			}).Error
	})
	if err != nil {
		return err
	}
	article.Version++
	return nil
}

// DeleteArticle removes the article and its floor records. Ledger rows are kept.
func (s *GormArticleStore) DeleteArticle(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article Article
		if err := tx.First(&article, id).Error; err != nil {
			return utils.NotFoundOr(err)
		}
		if err := tx.Where("article_id = ?", id).Delete(&FloorQuantity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&article).Error
	})
}
