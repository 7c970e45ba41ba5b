package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobPart is hard-deleted; it has no lifecycle state.
type JobPart struct {
	ID             int             `gorm:"primary_key" json:"id"`
	JobId          int             `gorm:"index;not null" json:"job_id"`
	PartId         int             `gorm:"index;not null" json:"part_id"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	IsWarrantyPart bool            `gorm:"not null;default:false" json:"is_warranty_part"`
	AddedAt        time.Time       `gorm:"not null" json:"added_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (jp JobPart) GetId() int {
	return jp.ID
}

// RecalculateTotal keeps TotalCost = Quantity x UnitCost.
func (jp *JobPart) RecalculateTotal() {
	jp.TotalCost = jp.UnitCost.Mul(decimal.NewFromInt(int64(jp.Quantity)))
}

type JobPartPatch struct {
	PartId         int              `json:"part_id" validate:"gte=0"`
	Quantity       int              `json:"quantity" validate:"gte=0"`
	UnitCost       *decimal.Decimal `json:"unit_cost"`
	IsWarrantyPart *bool            `json:"is_warranty_part"`
}

// NewJobPart without UnitCost takes the part's catalog unit cost.
type NewJobPart struct {
	PartId         int              `json:"part_id" validate:"required,gt=0"`
	Quantity       int              `json:"quantity" validate:"required,gt=0"`
	UnitCost       *decimal.Decimal `json:"unit_cost"`
	IsWarrantyPart bool             `json:"is_warranty_part"`
}

// JobPartUpdate with JobPartId 0 adds a part; PartId and Quantity are then required.
type JobPartUpdate struct {
	JobPartId int `json:"job_part_id" validate:"gte=0"`
	JobPartPatch
}
