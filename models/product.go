package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const floorSequenceCachePrefix = "ProductFloorSequence"

var ErrDuplicateProductCode = errors.New("product code already exists")

// Product is a garment style. Steps is the product's own floor route.
type Product struct {
	ID        int                `gorm:"primary_key" json:"id"`
	FactoryId string             `gorm:"uniqueIndex:idx_factory_product_code;size:64;not null" json:"factory_id"`
	Code      string             `gorm:"uniqueIndex:idx_factory_product_code;size:100;not null" json:"code"`
	Name      string             `gorm:"size:255;not null" json:"name"`
	Steps     []ProductFloorStep `gorm:"foreignKey:ProductId" json:"steps"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProductFloorStep struct {
	ID        int   `gorm:"primary_key" json:"id"`
	ProductId int   `gorm:"index;not null" json:"product_id"`
	Position  int   `gorm:"not null" json:"position"`
	Floor     Floor `gorm:"size:64;not null" json:"floor"`
}

type NewProduct struct {
	Code   string   `json:"code" validate:"required,max=100"`
	Name   string   `json:"name" validate:"required,max=255"`
	Floors []string `json:"floors"`
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	factoryId, ok := utils.GetFactoryIdFromContext(ctx)
	if !ok || factoryId == "" {
		return nil, errors.New("factory id is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	product := Product{
		FactoryId: factoryId,
		Code:      strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:      input.Name,
	}
	if len(input.Floors) > 0 {
		floors, err := NormalizeFloors(input.Floors)
		if err != nil {
			return nil, err
		}
		for i, f := range floors {
			product.Steps = append(product.Steps, ProductFloorStep{Position: i, Floor: f})
		}
	}
	if err := config.GetDB().WithContext(ctx).Create(&product).Error; err != nil {
		if config.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProductCode, product.Code)
		}
		return nil, err
	}
	return &product, nil
}

// ProductFloorSequenceProvider resolves an article's route: Redis cache, then the product row
// (an override file entry for the product code wins over the product's own steps), then the
// default sequence.
type ProductFloorSequenceProvider struct {
	db        *gorm.DB
	overrides *config.FloorSequenceOverrides
	logger    *logrus.Logger
}

func NewProductFloorSequenceProvider(db *gorm.DB, overrides *config.FloorSequenceOverrides) *ProductFloorSequenceProvider {
	return &ProductFloorSequenceProvider{db: db, overrides: overrides, logger: config.GetLogger()}
}

func (p *ProductFloorSequenceProvider) FloorSequence(ctx context.Context, article *Article) ([]Floor, error) {
	if article.ProductId == 0 || p.db == nil {
		return DefaultFloorSequence(), nil
	}
	cached, err := utils.RetrieveRedis[[]Floor](ctx, floorSequenceCachePrefix, article.ProductId)
	if err != nil {
		config.LogError(p.logger, "ProductFloorSequenceProvider", "FloorSequence", "RetrieveRedis", article.ProductId, err)
	} else if cached != nil && len(*cached) > 0 {
		return *cached, nil
	}

	var product Product
	err = p.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&product, article.ProductId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.logger.WithFields(logrus.Fields{
				"field":      "FloorSequence",
				"article_id": article.ID,
				"product_id": article.ProductId,
			}).Warn("product not found; using default floor sequence")
			return DefaultFloorSequence(), nil
		}
		return nil, err
	}

	floors, err := p.resolve(&product)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis(ctx, floorSequenceCachePrefix, product.ID, floors); err != nil {
		config.LogError(p.logger, "ProductFloorSequenceProvider", "FloorSequence", "StoreRedis", product.ID, err)
	}
	return floors, nil
}

func (p *ProductFloorSequenceProvider) resolve(product *Product) ([]Floor, error) {
	if names, ok := p.overrides.Lookup(product.Code); ok {
		floors, err := NormalizeFloors(names)
		if err != nil {
			return nil, fmt.Errorf("floor sequence override for %s: %w", product.Code, err)
		}
		return floors, nil
	}
	if len(product.Steps) > 0 {
		floors := make([]Floor, 0, len(product.Steps))
		for _, s := range product.Steps {
			floors = append(floors, s.Floor)
		}
		return floors, nil
	}
	return DefaultFloorSequence(), nil
}
