package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID             int          `gorm:"primary_key" json:"id"`
	CustomerName   string       `gorm:"size:255;not null" json:"customer_name"`
	ContactNumber  string       `gorm:"size:30;index" json:"contact_number"`
	WhatsAppNumber string       `gorm:"size:30" json:"whatsapp_number"`
	Email          string       `gorm:"size:255;index" json:"email"`
	Address        string       `gorm:"type:text" json:"address"`
	CustomerType   CustomerType `gorm:"size:20;not null;default:Individual" json:"customer_type"`
	GstNumber      string       `gorm:"size:30" json:"gst_number"`
	IsActive       *bool        `gorm:"not null;default:true" json:"is_active"`
	Lifecycle
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Customer) GetId() int {
	return c.ID
}

type NewCustomer struct {
	CustomerName   string       `json:"customer_name" validate:"required,max=255"`
	ContactNumber  string       `json:"contact_number" validate:"required,max=30"`
	WhatsAppNumber string       `json:"whatsapp_number" validate:"max=30"`
	Email          string       `json:"email" validate:"omitempty,email,max=255"`
	Address        string       `json:"address"`
	CustomerType   CustomerType `json:"customer_type" validate:"omitempty,oneof=Individual Business"`
	GstNumber      string       `json:"gst_number" validate:"max=30"`
	IsActive       *bool        `json:"is_active"`
}

// CustomerStats summarises the live service history of one customer.
type CustomerStats struct {
	CustomerId        int             `json:"customer_id"`
	ServiceOrderCount int             `json:"service_order_count"`
	ItemCount         int             `json:"item_count"`
	JobCount          int             `json:"job_count"`
	TotalActualCost   decimal.Decimal `json:"total_actual_cost"`
}

// CustomerPatch updates a customer; blank fields keep their stored value.
type CustomerPatch struct {
	CustomerName   string       `json:"customer_name" validate:"max=255"`
	ContactNumber  string       `json:"contact_number" validate:"max=30"`
	WhatsAppNumber string       `json:"whatsapp_number" validate:"max=30"`
	Email          string       `json:"email" validate:"omitempty,email,max=255"`
	Address        string       `json:"address"`
	CustomerType   CustomerType `json:"customer_type" validate:"omitempty,oneof=Individual Business"`
	GstNumber      string       `json:"gst_number" validate:"max=30"`
	IsActive       *bool        `json:"is_active"`
}
