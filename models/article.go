package models

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrVersionConflict = errors.New("article was modified concurrently")

type Article struct {
	ID              int             `gorm:"primary_key" json:"id"`
	FactoryId       string          `gorm:"uniqueIndex:idx_factory_article_no;size:64;not null" json:"factory_id"`
	OrderId         int             `gorm:"index;not null" json:"order_id"`
	ProductId       int             `gorm:"index;default:null" json:"product_id"`
	ArticleNo       string          `gorm:"uniqueIndex:idx_factory_article_no;size:100;not null" json:"article_no"`
	PlannedQuantity int             `gorm:"not null" json:"planned_quantity"`
	CurrentFloor    Floor           `gorm:"size:64;not null" json:"current_floor"`
	Status          ArticleStatus   `gorm:"type:enum('Pending','InProgress','Completed');default:Pending" json:"status"`
	Progress        decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"progress"`
	FloorQuantities []FloorQuantity `gorm:"foreignKey:ArticleId" json:"floor_quantities"`
	FloorStartedAt  *time.Time      `json:"floor_started_at"`
	FloorRemarks    string          `gorm:"size:500" json:"floor_remarks"`
	CompletedAt     *time.Time      `json:"completed_at"`
	Version         int             `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Record returns the counters for floor, or nil if the article has none.
// The pointer aliases the article's slice, so mutations stick.
func (a *Article) Record(floor Floor) *FloorQuantity {
	for i := range a.FloorQuantities {
		if a.FloorQuantities[i].Floor == floor {
			return &a.FloorQuantities[i]
		}
	}
	return nil
}

// EnsureRecords adds zeroed records for floors of seq the article does not have yet and
// renumbers positions to follow seq. Reports whether anything was added.
func (a *Article) EnsureRecords(seq FloorSequence) bool {
	added := false
	for i, f := range seq {
		rec := a.Record(f)
		if rec == nil {
			a.FloorQuantities = append(a.FloorQuantities, FloorQuantity{
				FactoryId:    a.FactoryId,
				ArticleId:    a.ID,
				Floor:        f,
				Position:     i,
				RepairStatus: RepairStatusNone,
			})
			added = true
			continue
		}
		rec.Position = i
	}
	sort.SliceStable(a.FloorQuantities, func(i, j int) bool {
		return a.FloorQuantities[i].Position < a.FloorQuantities[j].Position
	})
	return added
}

// Clone deep-copies the article so engines can work on it and discard it on failure.
func (a *Article) Clone() *Article {
	c := *a
	c.FloorQuantities = append([]FloorQuantity(nil), a.FloorQuantities...)
	if a.FloorStartedAt != nil {
		t := *a.FloorStartedAt
		c.FloorStartedAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// ComputeProgress is the weighted completion ratio across the floors of seq, in percent.
// Each floor contributes at most PlannedQuantity.
func (a *Article) ComputeProgress(seq FloorSequence) decimal.Decimal {
	if a.PlannedQuantity <= 0 || len(seq) == 0 {
		return decimal.Zero
	}
	total := 0
	for _, f := range seq {
		rec := a.Record(f)
		if rec == nil {
			continue
		}
		done := rec.Completed
		if done > a.PlannedQuantity {
			done = a.PlannedQuantity
		}
		total += done
	}
	denominator := decimal.NewFromInt(int64(a.PlannedQuantity) * int64(len(seq)))
	return decimal.NewFromInt(int64(total)).Mul(decimal.NewFromInt(100)).Div(denominator).Round(2)
}
