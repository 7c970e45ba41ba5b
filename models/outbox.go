package models

import (
	"encoding/json"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/config"
)

const (
	EventServiceOrderCreated     = "service_order.created"
	EventServiceOrderUpdated     = "service_order.updated"
	EventServiceOrderReconciled  = "service_order.reconciled"
	EventServiceOrderDeleted     = "service_order.deleted"
	EventServiceOrderItemChanged = "service_order.item_changed"
	EventServiceOrderJobChanged  = "service_order.job_changed"
)

// ServiceOrderEvent is written in the same transaction as the change it describes.
type ServiceOrderEvent struct {
	ID               int        `gorm:"primary_key" json:"id"`
	ServiceOrderId   int        `gorm:"index;not null" json:"service_order_id"`
	Action           string     `gorm:"size:50;not null" json:"action"`
	Payload          string     `gorm:"type:text" json:"payload"`
	CorrelationId    string     `gorm:"size:64" json:"correlation_id"`
	PublishStatus    string     `gorm:"size:20;index;not null;default:PENDING" json:"publish_status"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	NextAttemptAt    *time.Time `gorm:"index" json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:64" json:"locked_by"`
	PublishedAt      *time.Time `json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:128" json:"pub_sub_message_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func NewServiceOrderEvent(serviceOrderId int, action string, payload any, correlationId string) *ServiceOrderEvent {
	return &ServiceOrderEvent{
		ServiceOrderId: serviceOrderId,
		Action:         action,
		Payload:        snapshot(payload),
		CorrelationId:  correlationId,
		PublishStatus:  OutboxPublishStatusPending,
	}
}

func (e ServiceOrderEvent) ToMessage() config.ServiceOrderEventMessage {
	payload := json.RawMessage("null")
	if e.Payload != "" {
		payload = json.RawMessage(e.Payload)
	}
	return config.ServiceOrderEventMessage{
		ID:             e.ID,
		ServiceOrderId: e.ServiceOrderId,
		Action:         e.Action,
		Payload:        payload,
		CorrelationId:  e.CorrelationId,
		OccurredAt:     e.CreatedAt,
	}
}
