package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDuplicateArticleNo   = errors.New("article number already exists")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

type ProductionOrder struct {
	ID               int        `gorm:"primary_key" json:"id"`
	FactoryId        string     `gorm:"uniqueIndex:idx_factory_order_number;size:64;not null" json:"factory_id"`
	OrderNumber      string     `gorm:"uniqueIndex:idx_factory_order_number;size:100;not null" json:"order_number"`
	OrderDate        time.Time  `gorm:"not null" json:"order_date"`
	DueDate          *time.Time `json:"due_date"`
	CurrentFloor     Floor      `gorm:"size:64" json:"current_floor"`
	CurrentFloorRank int        `gorm:"not null;default:-1" json:"-"`
	Remarks          string     `gorm:"size:500" json:"remarks"`
	Articles         []Article  `gorm:"foreignKey:OrderId" json:"articles"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductionOrder struct {
	OrderNumber string       `json:"order_number" validate:"required,max=100"`
	OrderDate   time.Time    `json:"order_date"`
	DueDate     *time.Time   `json:"due_date"`
	Remarks     string       `json:"remarks" validate:"max=500"`
	Articles    []NewArticle `json:"articles" validate:"required,min=1,dive"`
}

type NewArticle struct {
	ArticleNo       string `json:"article_no" validate:"required,max=100"`
	ProductId       int    `json:"product_id" validate:"gte=0"`
	PlannedQuantity int    `json:"planned_quantity" validate:"gt=0"`
}

// SequenceResolver is satisfied by ProductFloorSequenceProvider.
type SequenceResolver interface {
	FloorSequence(ctx context.Context, article *Article) ([]Floor, error)
}

// NewArticleRecord builds an article positioned on the first floor of seq with every floor
// record pre-populated. The first floor receives the planned quantity.
func NewArticleRecord(factoryId string, orderId int, input NewArticle, seq FloorSequence) (*Article, error) {
	if len(seq) == 0 {
		return nil, errors.New("floor sequence is empty")
	}
	article := &Article{
		FactoryId:       factoryId,
		OrderId:         orderId,
		ProductId:       input.ProductId,
		ArticleNo:       input.ArticleNo,
		PlannedQuantity: input.PlannedQuantity,
		CurrentFloor:    seq[0],
		Status:          ArticleStatusPending,
	}
	article.EnsureRecords(seq)
	first := article.Record(seq[0])
	first.Received = input.PlannedQuantity
	for i := range article.FloorQuantities {
		rec := &article.FloorQuantities[i]
		rec.Recalculate(seq.Role(rec.Floor))
	}
	return article, nil
}

func CreateProductionOrder(ctx context.Context, input *NewProductionOrder, sequences SequenceResolver) (*ProductionOrder, error) {
	factoryId, ok := utils.GetFactoryIdFromContext(ctx)
	if !ok || factoryId == "" {
		return nil, errors.New("factory id is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(input.Articles))
	for _, a := range input.Articles {
		if seen[a.ArticleNo] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArticleNo, a.ArticleNo)
		}
		seen[a.ArticleNo] = true
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	order := ProductionOrder{
		FactoryId:        factoryId,
		OrderNumber:      input.OrderNumber,
		OrderDate:        orderDate,
		DueDate:          input.DueDate,
		Remarks:          input.Remarks,
		CurrentFloorRank: -1,
	}

	// resolve routes before opening the transaction
	articles := make([]*Article, 0, len(input.Articles))
	for _, a := range input.Articles {
		floors, err := sequences.FloorSequence(ctx, &Article{ProductId: a.ProductId})
		if err != nil {
			return nil, err
		}
		article, err := NewArticleRecord(factoryId, 0, a, FloorSequence(floors))
		if err != nil {
			return nil, err
		}
		if rank := article.CurrentFloor.Rank(); rank > order.CurrentFloorRank {
			order.CurrentFloor = article.CurrentFloor
			order.CurrentFloorRank = rank
		}
		articles = append(articles, article)
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, article := range articles {
			article.OrderId = order.ID
			if err := tx.Create(article).Error; err != nil {
				if config.IsDuplicateKeyErr(err) {
					return fmt.Errorf("%w: %s", ErrDuplicateArticleNo, article.ArticleNo)
				}
				return err
			}
			order.Articles = append(order.Articles, *article)
		}
		return nil
	})
	if err != nil {
		if config.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, input.OrderNumber)
		}
		return nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"field":          "CreateProductionOrder",
		"factory_id":     factoryId,
		"order_id":       order.ID,
		"articles_count": len(order.Articles),
	}).Info("production order created")
	return &order, nil
}

func GetProductionOrder(ctx context.Context, id int) (*ProductionOrder, error) {
	var order ProductionOrder
	err := config.GetDB().WithContext(ctx).
		Preload("Articles", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Articles.FloorQuantities", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, utils.NotFoundOr(err)
	}
	return &order, nil
}
