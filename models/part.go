package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Part struct {
	ID           int             `gorm:"primary_key" json:"id"`
	PartName     string          `gorm:"size:255;not null" json:"part_name"`
	Sku          string          `gorm:"size:100;index" json:"sku"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	StockQty     int             `gorm:"default:0" json:"stock_qty"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Part) GetId() int {
	return p.ID
}

type NewPart struct {
	PartName     string           `json:"part_name" validate:"required,max=255"`
	Sku          string           `json:"sku" validate:"max=100"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	StockQty     *int             `json:"stock_qty" validate:"omitempty,gte=0"`
	IsActive     *bool            `json:"is_active"`
}

type PartPatch struct {
	PartName     string           `json:"part_name" validate:"max=255"`
	Sku          string           `json:"sku" validate:"max=100"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	StockQty     *int             `json:"stock_qty" validate:"omitempty,gte=0"`
	IsActive     *bool            `json:"is_active"`
}
