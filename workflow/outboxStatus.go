package workflow

import (
	"context"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"gorm.io/gorm"
)

const outboxStatusEventLimit = 20

type statusCount struct {
	PublishStatus string
	Total         int64
}

// GetOutboxStatus returns per-status counts and the most recent events of a service order.
func GetOutboxStatus(ctx context.Context, db *gorm.DB, serviceOrderId int) (*models.OutboxStatus, error) {
	var counts []statusCount
	if err := db.WithContext(ctx).
		Model(&models.ServiceOrderEvent{}).
		Select("publish_status, COUNT(*) AS total").
		Where("service_order_id = ?", serviceOrderId).
		Group("publish_status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, utils.NewNotFoundError("ServiceOrderEvent", serviceOrderId)
	}

	var events []models.ServiceOrderEvent
	if err := db.WithContext(ctx).
		Where("service_order_id = ?", serviceOrderId).
		Order("id DESC").
		Limit(outboxStatusEventLimit).
		Find(&events).Error; err != nil {
		return nil, err
	}

	status := &models.OutboxStatus{
		ServiceOrderId: serviceOrderId,
		Counts:         make(map[string]int64, len(counts)),
		Events:         events,
	}
	for _, c := range counts {
		status.Counts[c.PublishStatus] = c.Total
	}
	return status, nil
}

// RequeueServiceOrderEvents puts DEAD and FAILED events back to PENDING with a fresh attempt budget.
func RequeueServiceOrderEvents(ctx context.Context, db *gorm.DB, serviceOrderId int, now time.Time) (*models.OutboxRequeueResult, error) {
	res := db.WithContext(ctx).
		Model(&models.ServiceOrderEvent{}).
		Where("service_order_id = ? AND publish_status IN ?", serviceOrderId,
			[]string{models.OutboxPublishStatusDead, models.OutboxPublishStatusFailed}).
		Updates(map[string]interface{}{
			"publish_status":   models.OutboxPublishStatusPending,
			"publish_attempts": 0,
			"next_attempt_at":  nil,
			"locked_at":        nil,
			"locked_by":        nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return &models.OutboxRequeueResult{
		ServiceOrderId: serviceOrderId,
		Requeued:       res.RowsAffected,
		RequeuedAt:     now.UTC(),
	}, nil
}
