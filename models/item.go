package models

import (
	"time"
)

type Item struct {
	ID                 int              `gorm:"primary_key" json:"id"`
	ServiceOrderId     int              `gorm:"index;not null" json:"service_order_id"`
	DeviceType         string           `gorm:"size:50;not null" json:"device_type"`
	Brand              string           `gorm:"size:100" json:"brand"`
	Model              string           `gorm:"size:100" json:"model"`
	SerialNo           string           `gorm:"size:100;index" json:"serial_no"`
	Imei               string           `gorm:"size:20;index" json:"imei"`
	Accessories        string           `gorm:"type:text" json:"accessories"`
	ConditionOnReceipt string           `gorm:"type:text" json:"condition_on_receipt"`
	InspectionStatus   InspectionStatus `gorm:"size:20;not null;default:Pending" json:"inspection_status"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Jobs      []Job     `gorm:"foreignKey:ItemId" json:"jobs"`
}

func (item Item) GetId() int {
	return item.ID
}

type ItemPatch struct {
	DeviceType         string           `json:"device_type" validate:"max=50"`
	Brand              string           `json:"brand" validate:"max=100"`
	Model              string           `json:"model" validate:"max=100"`
	SerialNo           string           `json:"serial_no" validate:"max=100"`
	Imei               string           `json:"imei" validate:"omitempty,numeric,min=14,max=17"`
	Accessories        string           `json:"accessories"`
	ConditionOnReceipt string           `json:"condition_on_receipt"`
	InspectionStatus   InspectionStatus `json:"inspection_status" validate:"omitempty,oneof=Pending Inspected Rejected"`
}

// NewItem requires DeviceType; every other field is optional.
type NewItem struct {
	ItemPatch
	Jobs []NewJob `json:"jobs" validate:"dive"`
}

// ItemUpdate with ItemId 0 creates a new item. For an existing item Jobs is required.
type ItemUpdate struct {
	ItemId int `json:"item_id" validate:"gte=0"`
	ItemPatch
	Jobs []JobUpdate `json:"jobs" validate:"dive"`
}
