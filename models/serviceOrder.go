package models

import (
	"fmt"
	"time"
)

type ServiceOrder struct {
	ID                  int                `gorm:"primary_key" json:"id"`
	ServiceOrderNumber  string             `gorm:"size:50;index" json:"service_order_number"`
	CustomerId          int                `gorm:"index;not null" json:"customer_id"`
	CreatedByEmployeeId int                `gorm:"index" json:"created_by_employee_id"`
	ServiceType         string             `gorm:"size:50" json:"service_type"`
	Notes               string             `gorm:"type:text" json:"notes"`
	ExpectedPickupDate  *time.Time         `json:"expected_pickup_date"`
	Status              ServiceOrderStatus `gorm:"size:20;not null" json:"status"`
	Version             int                `gorm:"not null;default:1" json:"version"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Items     []Item    `gorm:"foreignKey:ServiceOrderId" json:"items"`
}

func (so ServiceOrder) GetId() int {
	return so.ID
}

func (so ServiceOrder) GetVersion() int {
	return so.Version
}

func (so *ServiceOrder) SetVersion(v int) {
	so.Version = v
}

// ServiceOrderNumberFor derives the printable number from the assigned id.
func ServiceOrderNumberFor(id int, createdAt time.Time) string {
	return fmt.Sprintf("SO-%s-%05d", createdAt.Format("20060102"), id)
}

// ServiceOrderPatch holds the root scalar fields; blank/nil values leave the stored value untouched.
type ServiceOrderPatch struct {
	ServiceType        string             `json:"service_type" validate:"max=50"`
	Notes              string             `json:"notes"`
	ExpectedPickupDate *time.Time         `json:"expected_pickup_date"`
	Status             ServiceOrderStatus `json:"status" validate:"omitempty,oneof=Received InProgress Ready Delivered Cancelled"`
}

type NewServiceOrder struct {
	CreatedByEmployeeId int `json:"created_by_employee_id" validate:"gte=0"`
	ServiceOrderPatch
	Items []NewItem `json:"items" validate:"dive"`
}

// ServiceOrderUpdate is the smart-update document. Items is required: nil is rejected, empty deletes every item.
type ServiceOrderUpdate struct {
	ServiceOrderId int `json:"service_order_id" validate:"required,gt=0"`
	// Version, when positive, must match the stored version.
	Version int `json:"version" validate:"gte=0"`
	ServiceOrderPatch
	Items []ItemUpdate `json:"items" validate:"dive"`
}

type ServiceOrderSearch struct {
	CustomerId int    `form:"customer_id" json:"customer_id" validate:"gte=0"`
	Number     string `form:"number" json:"number" validate:"max=50"`
}
